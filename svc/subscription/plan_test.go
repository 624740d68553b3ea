package subscription_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threew1h/converter/svc/subscription"
)

func TestCatalog(t *testing.T) {
	t.Parallel()

	catalog := testCatalog()

	t.Run("resolve by plan ID", func(t *testing.T) {
		t.Parallel()
		plan, err := catalog.Resolve("plan_pro")
		require.NoError(t, err)
		assert.Equal(t, "Pro", plan.Name)
		assert.Equal(t, subscription.Credits(1200), plan.Credits)
	})

	t.Run("unknown plan ID", func(t *testing.T) {
		t.Parallel()
		_, err := catalog.Resolve("plan_bogus")
		assert.ErrorIs(t, err, subscription.ErrPlanNotFound)
	})

	t.Run("premium is unlimited", func(t *testing.T) {
		t.Parallel()
		plan, err := catalog.Resolve("plan_premium")
		require.NoError(t, err)
		assert.True(t, plan.Credits.IsUnlimited())
	})

	t.Run("resolve by name", func(t *testing.T) {
		t.Parallel()
		plan, ok := catalog.ResolveByName("Basic")
		require.True(t, ok)
		assert.Equal(t, subscription.Credits(500), plan.Credits)

		_, ok = catalog.ResolveByName("Enterprise")
		assert.False(t, ok)
	})

	t.Run("paid plan names", func(t *testing.T) {
		t.Parallel()
		assert.True(t, catalog.IsPaidPlanName("Pro"))
		assert.False(t, catalog.IsPaidPlanName(subscription.TrialPlanName))
		assert.False(t, catalog.IsPaidPlanName(""))
	})

	t.Run("empty catalog panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { subscription.NewCatalog() })
	})

	t.Run("plan without ID panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			subscription.NewCatalog(subscription.Plan{Name: "Pro", Credits: 100})
		})
	})
}
