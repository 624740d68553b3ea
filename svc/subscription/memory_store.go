package subscription

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu      sync.Mutex
	records map[string]*Subscription
	now     func() time.Time
}

// NewMemoryStore returns an in-memory Store for tests and local development.
// It honors the same atomicity contract as the durable implementation: every
// conditional operation runs under a single lock, so races surface in tests
// the same way they would against the real backend.
func NewMemoryStore() Store {
	return &memoryStore{
		records: make(map[string]*Subscription),
		now:     time.Now,
	}
}

func (s *memoryStore) Get(ctx context.Context, userID string) (*Subscription, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	return rec.Clone(), nil
}

func (s *memoryStore) Save(ctx context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[sub.UserID] = sub.Clone()
	return nil
}

func (s *memoryStore) Update(ctx context.Context, userID string, patch Patch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return ErrSubscriptionNotFound
	}

	if patch.PlanID != nil {
		rec.PlanID = *patch.PlanID
	}
	if patch.PlanName != nil {
		rec.PlanName = *patch.PlanName
	}
	if patch.Status != nil {
		rec.Status = *patch.Status
	}
	if patch.TotalCredits != nil {
		rec.TotalCredits = *patch.TotalCredits
	}
	if patch.RemainingCredits != nil {
		rec.RemainingCredits = *patch.RemainingCredits
	}
	if patch.ExpiryDate != nil {
		rec.ExpiryDate = *patch.ExpiryDate
	}
	if patch.PaymentID != nil {
		rec.PaymentID = *patch.PaymentID
	}
	if patch.BillingSubscriptionID != nil {
		rec.BillingSubscriptionID = *patch.BillingSubscriptionID
	}
	if patch.LastChargeAt != nil {
		t := patch.LastChargeAt.UTC()
		rec.LastChargeAt = &t
	}
	rec.UpdatedAt = s.now().UTC()
	return nil
}

func (s *memoryStore) TransitionStatus(ctx context.Context, userID string, to Status, from ...Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return ErrSubscriptionNotFound
	}

	for _, st := range from {
		if rec.Status == st {
			rec.Status = to
			rec.UpdatedAt = s.now().UTC()
			return nil
		}
	}
	return ErrStateConflict
}

func (s *memoryStore) DeductCredits(ctx context.Context, userID string, amount Credits) (Credits, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[userID]
	if !ok {
		return 0, ErrSubscriptionNotFound
	}

	if rec.RemainingCredits.IsUnlimited() {
		return UnlimitedCredits, nil
	}
	if rec.RemainingCredits < amount {
		return 0, &InsufficientCreditsError{Remaining: rec.RemainingCredits}
	}

	rec.RemainingCredits -= amount
	rec.UpdatedAt = s.now().UTC()
	return rec.RemainingCredits, nil
}
