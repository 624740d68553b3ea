package webhook

import "errors"

var (
	ErrMissingSecret     = errors.New("webhook: signing secret is required")
	ErrMissingSignature  = errors.New("webhook: signature is missing")
	ErrSignatureMismatch = errors.New("webhook: signature mismatch")
	ErrEmptyPayload      = errors.New("webhook: payload cannot be empty")
)
