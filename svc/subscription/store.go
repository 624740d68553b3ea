package subscription

import (
	"context"
	"time"
)

// Patch names the record fields a merge update may change. Nil fields retain
// their stored value. UpdatedAt is always advanced by the store.
type Patch struct {
	PlanID                *string
	PlanName              *string
	Status                *Status
	TotalCredits          *Credits
	RemainingCredits      *Credits
	ExpiryDate            *Date
	PaymentID             *string
	BillingSubscriptionID *string
	LastChargeAt          *time.Time
}

// Store is the durable per-user persistence contract. All operations are
// atomic at single-record granularity: concurrent updates for the same user
// must not interleave field-by-field, and conditional operations
// (TransitionStatus, DeductCredits) must be applied through the backend's
// native compare-and-swap primitive, never through a caller-side
// read-modify-write round trip.
//
// Store unavailability is a hard failure wrapped with ErrStoreUnavailable.
type Store interface {
	// Get retrieves the record for the user.
	// Returns ErrSubscriptionNotFound if no record exists.
	Get(ctx context.Context, userID string) (*Subscription, error)

	// Save creates or fully replaces the record for sub.UserID.
	Save(ctx context.Context, sub *Subscription) error

	// Update merges the named fields into an existing record.
	// Returns ErrSubscriptionNotFound if no record exists; callers must Save first.
	Update(ctx context.Context, userID string, patch Patch) error

	// TransitionStatus atomically moves the record's status to the target
	// state if the current status is one of from. Returns ErrStateConflict
	// when the current status does not match, leaving the record untouched,
	// or ErrSubscriptionNotFound when no record exists.
	TransitionStatus(ctx context.Context, userID string, to Status, from ...Status) error

	// DeductCredits atomically decrements the remaining balance by amount
	// with a floor at zero: two concurrent deductions that together overdraw
	// the balance must not both succeed. Returns the balance after the
	// deduction, or an *InsufficientCreditsError carrying the unchanged
	// balance when it cannot cover amount. amount must be positive.
	DeductCredits(ctx context.Context, userID string, amount Credits) (Credits, error)
}
