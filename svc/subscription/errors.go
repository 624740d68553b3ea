package subscription

import (
	"errors"
	"fmt"
)

var (
	// Validation errors: rejected before any side effect.
	ErrPlanNotFound                 = errors.New("subscription plan not found")
	ErrInvalidAmount                = errors.New("deduction amount must be a positive integer")
	ErrMissingPaymentID             = errors.New("payment ID is required for paid plan activation")
	ErrMissingBillingSubscriptionID = errors.New("billing subscription ID is required")

	// ErrStateConflict indicates an invalid lifecycle transition; the stored
	// record is left untouched.
	ErrStateConflict = errors.New("invalid subscription state transition")

	// ErrInsufficientCredits indicates the balance cannot cover the requested
	// deduction. Use errors.As with *InsufficientCreditsError to read the
	// current balance.
	ErrInsufficientCredits = errors.New("insufficient credits")

	ErrSubscriptionNotFound = errors.New("subscription not found")

	// ErrStoreUnavailable indicates the persistence layer failed. The
	// operation fails outright; there is no in-memory fallback, which would
	// let two service instances disagree about a user's balance.
	ErrStoreUnavailable = errors.New("subscription store unavailable")

	// Biller errors.
	ErrBillerRequestFailed = errors.New("billing provider request failed")
	ErrMissingBillerKeys   = errors.New("billing provider API keys are required")

	// Webhook errors. Only these two classes produce a non-200 response to
	// the sender; everything after successful authentication is logged and
	// acknowledged.
	ErrWebhookVerificationFailed = errors.New("webhook signature verification failed")
	ErrMissingWebhookSecret      = errors.New("webhook secret is not configured")
	ErrInvalidWebhookPayload     = errors.New("invalid webhook payload")
)

// InsufficientCreditsError carries the current balance alongside the
// insufficient-credit condition so callers can report it without a re-read.
type InsufficientCreditsError struct {
	Remaining Credits
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient credits: %s remaining", e.Remaining)
}

// Is makes the typed error match ErrInsufficientCredits in errors.Is checks.
func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}
