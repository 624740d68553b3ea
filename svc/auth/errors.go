package auth

import "errors"

var (
	// ErrInvalidToken is returned when the bearer token is missing, malformed,
	// or fails signature verification.
	ErrInvalidToken = errors.New("invalid access token")

	// ErrTokenExpired is returned when the token's expiry has passed.
	ErrTokenExpired = errors.New("access token expired")

	// ErrMissingSubject is returned when a verified token carries no user ID.
	ErrMissingSubject = errors.New("token has no subject")
)
