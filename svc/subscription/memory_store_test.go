package subscription_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threew1h/converter/svc/subscription"
)

func seedRecord(t *testing.T, store subscription.Store, userID string, credits subscription.Credits) *subscription.Subscription {
	t.Helper()
	now := time.Now().UTC()
	sub := &subscription.Subscription{
		UserID:                userID,
		PlanID:                "plan_pro",
		PlanName:              "Pro",
		Status:                subscription.StatusActive,
		TotalCredits:          credits,
		RemainingCredits:      credits,
		ExpiryDate:            subscription.DateOf(now).AddDays(30),
		PaymentID:             "pay_123",
		BillingSubscriptionID: "sub_rzp",
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	require.NoError(t, store.Save(context.Background(), sub))
	return sub
}

func TestMemoryStore(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("get missing record", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		_, err := store.Get(ctx, "nobody")
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})

	t.Run("save and get round trip", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		saved := seedRecord(t, store, "user_1", 1200)

		got, err := store.Get(ctx, "user_1")
		require.NoError(t, err)
		assert.Equal(t, saved.PlanName, got.PlanName)
		assert.Equal(t, saved.RemainingCredits, got.RemainingCredits)
		assert.Equal(t, saved.ExpiryDate, got.ExpiryDate)
	})

	t.Run("get returns an isolated copy", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		seedRecord(t, store, "user_1", 1200)

		got, err := store.Get(ctx, "user_1")
		require.NoError(t, err)
		got.RemainingCredits = 0

		again, err := store.Get(ctx, "user_1")
		require.NoError(t, err)
		assert.Equal(t, subscription.Credits(1200), again.RemainingCredits)
	})

	t.Run("update patches only set fields", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		seedRecord(t, store, "user_1", 1200)

		status := subscription.StatusPaused
		require.NoError(t, store.Update(ctx, "user_1", subscription.Patch{Status: &status}))

		got, err := store.Get(ctx, "user_1")
		require.NoError(t, err)
		assert.Equal(t, subscription.StatusPaused, got.Status)
		assert.Equal(t, subscription.Credits(1200), got.RemainingCredits)
		assert.Equal(t, "pay_123", got.PaymentID)
	})

	t.Run("update missing record", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		status := subscription.StatusPaused
		err := store.Update(ctx, "nobody", subscription.Patch{Status: &status})
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})

	t.Run("transition status enforces expected states", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		seedRecord(t, store, "user_1", 1200)

		require.NoError(t, store.TransitionStatus(ctx, "user_1", subscription.StatusPaused, subscription.StatusActive))

		err := store.TransitionStatus(ctx, "user_1", subscription.StatusPaused, subscription.StatusActive)
		assert.ErrorIs(t, err, subscription.ErrStateConflict)

		err = store.TransitionStatus(ctx, "nobody", subscription.StatusPaused, subscription.StatusActive)
		assert.ErrorIs(t, err, subscription.ErrSubscriptionNotFound)
	})

	t.Run("deduct credits", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		seedRecord(t, store, "user_1", 100)

		remaining, err := store.DeductCredits(ctx, "user_1", 60)
		require.NoError(t, err)
		assert.Equal(t, subscription.Credits(40), remaining)

		_, err = store.DeductCredits(ctx, "user_1", 60)
		var insufficient *subscription.InsufficientCreditsError
		require.ErrorAs(t, err, &insufficient)
		assert.Equal(t, subscription.Credits(40), insufficient.Remaining)

		// Exact balance drains to zero.
		remaining, err = store.DeductCredits(ctx, "user_1", 40)
		require.NoError(t, err)
		assert.Equal(t, subscription.Credits(0), remaining)
	})

	t.Run("deduct from unlimited record", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		seedRecord(t, store, "user_1", subscription.UnlimitedCredits)

		remaining, err := store.DeductCredits(ctx, "user_1", 100000)
		require.NoError(t, err)
		assert.Equal(t, subscription.UnlimitedCredits, remaining)
	})

	t.Run("concurrent deductions stay consistent", func(t *testing.T) {
		t.Parallel()
		store := subscription.NewMemoryStore()
		seedRecord(t, store, "user_1", 1000)

		var wg sync.WaitGroup
		for range 100 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _ = store.DeductCredits(ctx, "user_1", 25)
			}()
		}
		wg.Wait()

		got, err := store.Get(ctx, "user_1")
		require.NoError(t, err)
		// 40 of the 100 deductions fit into the 1000 balance.
		assert.Equal(t, subscription.Credits(0), got.RemainingCredits)
	})
}
