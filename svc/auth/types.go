package auth

import "time"

// User is the authenticated caller resolved from a bearer token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Claims is the token payload issued for API access. Subject carries the
// user ID; Email rides along so handlers can reach the billing provider
// without an extra profile lookup.
type Claims struct {
	Subject   string `json:"sub"`
	Email     string `json:"email,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
}

// Valid reports whether the temporal claims hold at the current time.
// A zero expiry means the token does not expire.
func (c Claims) Valid() error {
	if c.ExpiresAt > 0 && time.Now().Unix() > c.ExpiresAt {
		return ErrTokenExpired
	}
	return nil
}
