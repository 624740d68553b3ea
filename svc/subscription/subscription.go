package subscription

import "time"

// Subscription is the per-user ledger record tracking plan, credits and
// lifecycle status. Each user has exactly one record, keyed by user ID.
//
// Invariants held at every boundary, not just at creation:
//   - a paid PlanName implies a non-empty PaymentID; a record violating this
//     was never legitimately purchased and is replaced by a fresh trial
//   - 0 <= RemainingCredits <= TotalCredits unless unlimited
//   - an expired paid record is replaced by a fresh trial before any caller
//     sees it
type Subscription struct {
	UserID                string     `json:"userId"`
	PlanID                string     `json:"planId,omitempty"`
	PlanName              string     `json:"planName"`
	Status                Status     `json:"status"`
	TotalCredits          Credits    `json:"totalCredits"`
	RemainingCredits      Credits    `json:"remainingCredits"`
	ExpiryDate            Date       `json:"expiryDate"`
	PaymentID             string     `json:"paymentId,omitempty"`
	BillingSubscriptionID string     `json:"billingSubscriptionId,omitempty"`
	LastChargeAt          *time.Time `json:"lastChargeAt,omitempty"`
	CreatedAt             time.Time  `json:"createdAt"`
	UpdatedAt             time.Time  `json:"updatedAt"`
}

// NewTrial returns a fresh default trial record for the user. Trial records
// carry no plan ID, payment reference or billing subscription.
func NewTrial(userID string, now time.Time) *Subscription {
	now = now.UTC()
	return &Subscription{
		UserID:           userID,
		PlanName:         TrialPlanName,
		Status:           StatusActive,
		TotalCredits:     TrialCredits,
		RemainingCredits: TrialCredits,
		ExpiryDate:       DateOf(now).AddDays(PlanValidityDays),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// IsTrial reports whether the record is on the default trial plan.
func (s *Subscription) IsTrial() bool { return s.PlanName == TrialPlanName }

// IsActive reports whether the subscription is in the ACTIVE state.
func (s *Subscription) IsActive() bool { return s.Status == StatusActive }

// IsPaused reports whether the subscription is in the PAUSED state.
func (s *Subscription) IsPaused() bool { return s.Status == StatusPaused }

// HasUnlimitedCredits reports whether the plan has no credit cap.
func (s *Subscription) HasUnlimitedCredits() bool { return s.TotalCredits.IsUnlimited() }

// IsExpiredAt reports whether the record's expiry date is strictly before
// the given calendar date. An unset expiry never counts as expired.
func (s *Subscription) IsExpiredAt(today Date) bool {
	if s.ExpiryDate.IsZero() {
		return false
	}
	return s.ExpiryDate.Before(today)
}

// Clone returns a deep copy of the record.
func (s *Subscription) Clone() *Subscription {
	cp := *s
	if s.LastChargeAt != nil {
		t := *s.LastChargeAt
		cp.LastChargeAt = &t
	}
	return &cp
}
