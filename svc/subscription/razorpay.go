package subscription

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	razorpay "github.com/razorpay/razorpay-go"
	"github.com/razorpay/razorpay-go/utils"
)

// RazorpayConfig holds configuration for the Razorpay billing provider.
// BaseURL overrides the SDK endpoint; leave it empty for production.
type RazorpayConfig struct {
	KeyID         string        `env:"RAZORPAY_KEY_ID,required"`
	KeySecret     string        `env:"RAZORPAY_KEY_SECRET,required"`
	WebhookSecret string        `env:"RAZORPAY_WEBHOOK_SECRET"`
	BaseURL       string        `env:"RAZORPAY_BASE_URL"`
	Timeout       time.Duration `env:"RAZORPAY_TIMEOUT" envDefault:"10s"`
	TotalCount    int           `env:"RAZORPAY_TOTAL_COUNT" envDefault:"12"` // billing cycles per subscription
}

// RazorpayProvider implements Biller on the official Razorpay SDK.
type RazorpayProvider struct {
	client *razorpay.Client
	cfg    RazorpayConfig
}

// NewRazorpayProvider creates a new Razorpay billing provider.
// The webhook secret may be absent at construction time; ParseWebhook then
// fails closed on every delivery instead of skipping verification.
func NewRazorpayProvider(cfg RazorpayConfig) (*RazorpayProvider, error) {
	if cfg.KeyID == "" || cfg.KeySecret == "" {
		return nil, ErrMissingBillerKeys
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.TotalCount <= 0 {
		cfg.TotalCount = 12
	}

	client := razorpay.NewClient(cfg.KeyID, cfg.KeySecret)
	// All resources share one request object, so configuring it through the
	// Subscription resource applies everywhere. The timeout bounds every
	// outbound call; a hung provider must not hold a user request open.
	client.Subscription.Request.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	if cfg.BaseURL != "" {
		client.Subscription.Request.BaseURL = cfg.BaseURL
	}

	return &RazorpayProvider{
		client: client,
		cfg:    cfg,
	}, nil
}

// CreateSubscription opens a billing subscription for the plan. The user ID
// travels in the subscription notes so webhook events can be mapped back.
func (p *RazorpayProvider) CreateSubscription(ctx context.Context, req CreateSubscriptionRequest) (*BillingSubscription, error) {
	if req.PlanID == "" {
		return nil, ErrPlanNotFound
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	body, err := p.client.Subscription.Create(map[string]interface{}{
		"plan_id":         req.PlanID,
		"total_count":     p.cfg.TotalCount,
		"customer_notify": 1,
		"notes": map[string]interface{}{
			"userId": req.UserID,
			"email":  req.Email,
		},
	}, nil)
	if err != nil {
		return nil, errors.Join(ErrBillerRequestFailed, err)
	}

	return &BillingSubscription{
		ID:       stringField(body, "id"),
		Status:   stringField(body, "status"),
		ShortURL: stringField(body, "short_url"),
	}, nil
}

// PauseSubscription pauses the billing subscription immediately.
func (p *RazorpayProvider) PauseSubscription(ctx context.Context, billingSubID string) error {
	if billingSubID == "" {
		return ErrMissingBillingSubscriptionID
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := p.client.Subscription.Pause(billingSubID,
		map[string]interface{}{"pause_at": "now"}, nil)
	if err != nil {
		return errors.Join(ErrBillerRequestFailed, err)
	}
	return nil
}

// ResumeSubscription resumes a paused billing subscription.
func (p *RazorpayProvider) ResumeSubscription(ctx context.Context, billingSubID string) error {
	if billingSubID == "" {
		return ErrMissingBillingSubscriptionID
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := p.client.Subscription.Resume(billingSubID,
		map[string]interface{}{"resume_at": "now"}, nil)
	if err != nil {
		return errors.Join(ErrBillerRequestFailed, err)
	}
	return nil
}

// CancelSubscription cancels the billing subscription at the end of the
// current cycle, matching the user-facing "cancels at cycle end" promise.
func (p *RazorpayProvider) CancelSubscription(ctx context.Context, billingSubID string) error {
	if billingSubID == "" {
		return ErrMissingBillingSubscriptionID
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := p.client.Subscription.Cancel(billingSubID,
		map[string]interface{}{"cancel_at_cycle_end": 1}, nil)
	if err != nil {
		return errors.Join(ErrBillerRequestFailed, err)
	}
	return nil
}

// ParseWebhook authenticates the raw payload bytes via the SDK's signature
// check and maps the provider event to a normalized WebhookEvent.
func (p *RazorpayProvider) ParseWebhook(ctx context.Context, payload []byte, signature string) (*WebhookEvent, error) {
	if p.cfg.WebhookSecret == "" {
		return nil, ErrMissingWebhookSecret
	}
	if !utils.VerifyWebhookSignature(string(payload), signature, p.cfg.WebhookSecret) {
		return nil, ErrWebhookVerificationFailed
	}

	var envelope razorpayEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, errors.Join(ErrInvalidWebhookPayload, err)
	}
	if envelope.Event == "" {
		return nil, errors.Join(ErrInvalidWebhookPayload, errors.New("missing event field"))
	}

	event := &WebhookEvent{
		ProviderEvent:  envelope.Event,
		SubscriptionID: envelope.Payload.Subscription.Entity.ID,
		PaymentID:      envelope.Payload.Payment.Entity.ID,
		PlanID:         envelope.Payload.Subscription.Entity.PlanID,
		UserID:         envelope.Payload.Subscription.Entity.Notes.UserID,
		Email:          envelope.Payload.Subscription.Entity.Notes.Email,
	}
	if event.UserID == "" {
		event.UserID = envelope.Payload.Payment.Entity.Notes.UserID
	}

	switch envelope.Event {
	case "subscription.activated":
		event.Type = EventSubscriptionActivated
	case "subscription.charged":
		event.Type = EventSubscriptionCharged
	case "subscription.cancelled":
		event.Type = EventSubscriptionCancelled
	default:
		event.Type = EventUnknown
	}

	return event, nil
}

// stringField reads a string out of an SDK response map; absent or non-string
// values yield "".
func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}

type razorpayNotes struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
}

// razorpayEnvelope mirrors the provider's webhook shape: a top-level event
// name plus nested entity payloads for the subscription and, on charge
// events, the payment.
type razorpayEnvelope struct {
	Event   string `json:"event"`
	Payload struct {
		Subscription struct {
			Entity struct {
				ID     string        `json:"id"`
				PlanID string        `json:"plan_id"`
				Status string        `json:"status"`
				Notes  razorpayNotes `json:"notes"`
			} `json:"entity"`
		} `json:"subscription"`
		Payment struct {
			Entity struct {
				ID    string        `json:"id"`
				Notes razorpayNotes `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}
