// Package jwt provides utilities for generating, parsing, and validating
// JSON Web Tokens, plus context helpers and request token extractors.
//
// The implementation focuses on the HS256 (HMAC-SHA256) algorithm. A
// high-level Service type wraps signing and verification while accepting any
// JSON-serialisable claims structure. StandardClaims mirrors the RFC 7519
// registered fields.
//
//	svc, err := jwt.NewFromString("super-secret")
//	if err != nil {
//	    // handle error
//	}
//
//	claims := jwt.StandardClaims{
//	    Subject:   "123",
//	    ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
//	}
//	token, err := svc.Generate(claims)
//
//	var parsed jwt.StandardClaims
//	if err := svc.Parse(token, &parsed); err != nil {
//	    // handle invalid / expired token
//	}
//
// Errors such as ErrExpiredToken or ErrInvalidSignature are sentinel values
// and can be compared using errors.Is.
package jwt
