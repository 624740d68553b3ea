// Package webhook implements the raw-body HMAC signature scheme used by the
// billing provider: hex(HMAC-SHA256(secret, body)) over the byte-exact
// request body, transmitted in a signature header. Verification must always
// run against the captured raw bytes, never a re-serialized object, because
// any re-encoding changes the signed input.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
)

// Sign computes the hex HMAC-SHA256 signature for the payload.
func Sign(secret string, payload []byte) (string, error) {
	if secret == "" {
		return "", ErrMissingSecret
	}
	if len(payload) == 0 {
		return "", ErrEmptyPayload
	}

	h := hmac.New(sha256.New, []byte(secret))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Verify recomputes the signature over payload and compares it against the
// supplied value in constant time. It fails closed: an empty secret is a
// configuration error, never a reason to skip verification.
func Verify(secret string, payload []byte, signature string) error {
	if secret == "" {
		return ErrMissingSecret
	}
	if signature == "" {
		return ErrMissingSignature
	}

	expected, err := Sign(secret, payload)
	if err != nil {
		return err
	}

	// hmac.Equal prevents timing-based signature recovery.
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return ErrSignatureMismatch
	}
	return nil
}
