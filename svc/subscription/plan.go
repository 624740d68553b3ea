package subscription

// Plan describes a purchasable subscription plan. The ID field must match the
// billing provider's plan ID so checkout and webhook processing can map events
// back to the catalog without a translation table.
type Plan struct {
	ID      string // provider's plan ID (e.g. plan_SJ7azBfqgFOu3R)
	Name    string
	Credits Credits // monthly allotment, UnlimitedCredits for uncapped plans
}

// Default trial economics. Every user without a valid paid record is on the
// trial plan; it is not part of the paid catalog and has no provider plan ID.
const (
	TrialPlanName           = "Free Trial"
	TrialCredits    Credits = 50
	PlanValidityDays        = 30
)

// CatalogConfig carries the provider plan IDs. The defaults are test-mode IDs;
// they must be replaced with the live dashboard IDs before going live.
type CatalogConfig struct {
	BasicPlanID   string `env:"RAZORPAY_PLAN_BASIC" envDefault:"plan_SJ7ZNktTUB9PNr"`
	ProPlanID     string `env:"RAZORPAY_PLAN_PRO" envDefault:"plan_SJ7azBfqgFOu3R"`
	PremiumPlanID string `env:"RAZORPAY_PLAN_PREMIUM" envDefault:"plan_SJ7c3ilphWBQmh"`
}

// Catalog is the single source of truth for plan economics. Components that
// need allotments or display names resolve through it instead of re-declaring
// plan tables, which is how catalogs drift.
type Catalog struct {
	plans  map[string]Plan
	byName map[string]Plan
}

// NewCatalog builds a catalog from the given plans.
// Panics if no plans are provided so a misconfigured service fails at startup.
func NewCatalog(plans ...Plan) *Catalog {
	if len(plans) == 0 {
		panic("subscription: at least one plan is required")
	}

	c := &Catalog{
		plans:  make(map[string]Plan, len(plans)),
		byName: make(map[string]Plan, len(plans)),
	}
	for _, plan := range plans {
		if plan.ID == "" || plan.Name == "" {
			panic("subscription: plan ID and name are required")
		}
		c.plans[plan.ID] = plan
		c.byName[plan.Name] = plan
	}
	return c
}

// NewCatalogFromConfig builds the standard three-tier catalog with the
// configured provider plan IDs.
func NewCatalogFromConfig(cfg CatalogConfig) *Catalog {
	return NewCatalog(
		Plan{ID: cfg.BasicPlanID, Name: "Basic", Credits: 500},
		Plan{ID: cfg.ProPlanID, Name: "Pro", Credits: 1200},
		Plan{ID: cfg.PremiumPlanID, Name: "Premium", Credits: UnlimitedCredits},
	)
}

// Resolve looks up a plan by its provider plan ID.
func (c *Catalog) Resolve(planID string) (Plan, error) {
	plan, ok := c.plans[planID]
	if !ok {
		return Plan{}, ErrPlanNotFound
	}
	return plan, nil
}

// ResolveByName looks up a plan by its display name.
func (c *Catalog) ResolveByName(name string) (Plan, bool) {
	plan, ok := c.byName[name]
	return plan, ok
}

// IsPaidPlanName reports whether name refers to a paid catalog plan.
// The trial plan is not paid and unknown names are not trusted either way.
func (c *Catalog) IsPaidPlanName(name string) bool {
	_, ok := c.byName[name]
	return ok
}
