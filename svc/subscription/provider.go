package subscription

import "context"

// Biller is the minimal interface to the external payment-subscription
// provider. It owns the billing lifecycle; the ledger only mirrors it. The
// implementation must bound every outbound call so a hung provider cannot
// hold a user request open, and must validate webhook signatures against the
// raw request bytes to prevent spoofing.
type Biller interface {
	// CreateSubscription creates a billing subscription for the plan and
	// returns the provider's subscription object. It does not mutate the
	// ledger; activation happens only after confirmed payment.
	CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*BillingSubscription, error)

	// PauseSubscription pauses the billing subscription immediately.
	PauseSubscription(ctx context.Context, billingSubID string) error

	// ResumeSubscription resumes a paused billing subscription.
	ResumeSubscription(ctx context.Context, billingSubID string) error

	// CancelSubscription cancels the billing subscription at cycle end.
	CancelSubscription(ctx context.Context, billingSubID string) error

	// ParseWebhook authenticates the raw webhook bytes against the supplied
	// signature and maps the payload to a normalized event. It fails closed:
	// an unconfigured secret yields ErrMissingWebhookSecret, a mismatch
	// ErrWebhookVerificationFailed.
	ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error)
}

// CreateSubscriptionRequest carries the data needed to open a billing
// subscription. UserID travels in the provider's notes so webhook events can
// be mapped back to the ledger.
type CreateSubscriptionRequest struct {
	PlanID string
	UserID string
	Email  string
}

// BillingSubscription is the provider's subscription object.
type BillingSubscription struct {
	ID       string `json:"subscriptionId"`     // provider subscription ID (sub_xxx)
	Status   string `json:"status"`             // provider-side status (created, authenticated, ...)
	ShortURL string `json:"shortUrl,omitempty"` // hosted authorization URL, when the provider returns one
}

// EventType is the normalized billing event type.
type EventType string

const (
	EventSubscriptionActivated EventType = "subscription_activated"
	EventSubscriptionCharged   EventType = "subscription_charged"
	EventSubscriptionCancelled EventType = "subscription_cancelled"
	EventUnknown               EventType = "unknown"
)

// WebhookEvent is a normalized, authenticated billing event.
type WebhookEvent struct {
	Type           EventType
	ProviderEvent  string // original provider event name
	SubscriptionID string // provider subscription ID
	PaymentID      string // provider payment ID, set on charge events
	PlanID         string // provider plan ID
	UserID         string // ledger user ID recovered from the provider notes
	Email          string
}
