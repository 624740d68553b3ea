package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/threew1h/converter/modules/api"
	"github.com/threew1h/converter/pkg/webhook"
	"github.com/threew1h/converter/svc/analyzer"
	"github.com/threew1h/converter/svc/auth"
	"github.com/threew1h/converter/svc/subscription"
)

const testWebhookSecret = "whsec_test"

// stubBiller satisfies subscription.Biller without network calls. ParseWebhook
// runs real signature verification and decodes flat JSON payloads straight
// into the normalized event.
type stubBiller struct {
	secret    string
	createErr error
	pauseErr  error
}

func (b *stubBiller) CreateSubscription(ctx context.Context, req subscription.CreateSubscriptionRequest) (*subscription.BillingSubscription, error) {
	if b.createErr != nil {
		return nil, b.createErr
	}
	return &subscription.BillingSubscription{
		ID:       "sub_stub",
		Status:   "created",
		ShortURL: "https://rzp.io/i/stub",
	}, nil
}

func (b *stubBiller) PauseSubscription(ctx context.Context, billingSubID string) error {
	return b.pauseErr
}

func (b *stubBiller) ResumeSubscription(ctx context.Context, billingSubID string) error {
	return nil
}

func (b *stubBiller) CancelSubscription(ctx context.Context, billingSubID string) error {
	return nil
}

func (b *stubBiller) ParseWebhook(ctx context.Context, payload []byte, signature string) (*subscription.WebhookEvent, error) {
	if b.secret == "" {
		return nil, subscription.ErrMissingWebhookSecret
	}
	if err := webhook.Verify(b.secret, payload, signature); err != nil {
		return nil, errors.Join(subscription.ErrWebhookVerificationFailed, err)
	}
	var event subscription.WebhookEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, errors.Join(subscription.ErrInvalidWebhookPayload, err)
	}
	return &event, nil
}

// analyzerFunc adapts a function to the analyzer.Analyzer interface.
type analyzerFunc func(ctx context.Context, text, framework string) (*analyzer.Result, error)

func (f analyzerFunc) AnalyzeText(ctx context.Context, text, framework string) (*analyzer.Result, error) {
	return f(ctx, text, framework)
}

type apiFixture struct {
	handler http.Handler
	token   string
	store   subscription.Store
	biller  *stubBiller
	authSvc *auth.Service
}

func newAPIFixture(t *testing.T, analyze analyzer.Analyzer) *apiFixture {
	t.Helper()

	catalog := subscription.NewCatalog(
		subscription.Plan{ID: "plan_basic", Name: "Basic", Credits: 500},
		subscription.Plan{ID: "plan_pro", Name: "Pro", Credits: 1200},
		subscription.Plan{ID: "plan_premium", Name: "Premium", Credits: subscription.UnlimitedCredits},
	)
	store := subscription.NewMemoryStore()
	biller := &stubBiller{secret: testWebhookSecret}
	svc := subscription.NewService(catalog, store, biller)

	authSvc := auth.NewService(auth.Config{SigningKey: "test-signing-key-0123456789abcdef"})
	token, err := authSvc.IssueToken(auth.User{ID: "user_1", Email: "u@example.com"})
	require.NoError(t, err)

	return &apiFixture{
		handler: api.Router(api.RouterOptions{
			Auth:         authSvc,
			Subscription: svc,
			Analyzer:     analyze,
		}),
		token:   token,
		store:   store,
		biller:  biller,
		authSvc: authSvc,
	}
}

// call performs an authenticated request and decodes the JSON response body.
func (f *apiFixture) call(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewReader(encoded)
	}

	req := httptest.NewRequest(method, path, reqBody)
	req.Header.Set("Authorization", "Bearer "+f.token)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	// Not every response carries JSON; chi answers unmatched routes with a
	// plain-text body.
	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec.Code, decoded
}

func TestHealthEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("liveness without checks", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, nil)

		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ALIVE", rec.Body.String())
	})
}

func TestRequireAuth(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, nil)

	t.Run("missing token", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/subscription/status", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed token", func(t *testing.T) {
		t.Parallel()
		req := httptest.NewRequest(http.MethodGet, "/api/subscription/status", nil)
		req.Header.Set("Authorization", "Bearer not-a-token")
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token resolves the user", func(t *testing.T) {
		t.Parallel()
		status, body := f.call(t, http.MethodGet, "/api/subscription/status", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "user_1", body["userId"])
	})
}

func TestSubscriptionEndpoints(t *testing.T) {
	t.Parallel()

	t.Run("status creates a trial for new users", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, nil)

		status, body := f.call(t, http.MethodGet, "/api/subscription/status", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, subscription.TrialPlanName, body["planName"])
		assert.Equal(t, "ACTIVE", body["status"])
		assert.Equal(t, float64(50), body["remainingCredits"])
	})

	t.Run("create returns the billing subscription", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, nil)

		status, body := f.call(t, http.MethodPost, "/api/subscription/create",
			map[string]string{"planId": "plan_pro"})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "sub_stub", body["subscriptionId"])
		assert.Equal(t, "https://rzp.io/i/stub", body["shortUrl"])
	})

	t.Run("create with unknown plan", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, nil)

		status, _ := f.call(t, http.MethodPost, "/api/subscription/create",
			map[string]string{"planId": "plan_bogus"})
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("create surfaces provider outages", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, nil)
		f.biller.createErr = subscription.ErrBillerRequestFailed

		status, _ := f.call(t, http.MethodPost, "/api/subscription/create",
			map[string]string{"planId": "plan_pro"})
		assert.Equal(t, http.StatusBadGateway, status)
	})

	t.Run("activate applies the paid plan", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, nil)

		status, body := f.call(t, http.MethodPost, "/api/subscription/activate",
			map[string]string{"planId": "plan_pro", "paymentId": "pay_123"})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Pro", body["planName"])
		assert.Equal(t, float64(1200), body["remainingCredits"])
		assert.Equal(t, "pay_123", body["paymentId"])
	})

	t.Run("activate without payment reference", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, nil)

		status, _ := f.call(t, http.MethodPost, "/api/subscription/activate",
			map[string]string{"planId": "plan_pro"})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("deduct credits down to insufficient", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, nil)

		status, body := f.call(t, http.MethodPost, "/api/subscription/deduct-credits",
			map[string]int{"amount": 30})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(20), body["remainingCredits"])
		assert.Equal(t, subscription.TrialPlanName, body["planName"])

		status, body = f.call(t, http.MethodPost, "/api/subscription/deduct-credits",
			map[string]int{"amount": 100})
		assert.Equal(t, http.StatusPaymentRequired, status)
		assert.Equal(t, float64(20), body["remainingCredits"])
	})

	t.Run("deduct rejects non-positive amounts", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, nil)

		status, _ := f.call(t, http.MethodPost, "/api/subscription/deduct-credits",
			map[string]int{"amount": 0})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("pause resume cancel lifecycle", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, nil)

		// Seed the record, then pause with an explicit billing reference.
		status, _ := f.call(t, http.MethodGet, "/api/subscription/status", nil)
		require.Equal(t, http.StatusOK, status)

		status, body := f.call(t, http.MethodPost, "/api/subscription/pause",
			map[string]string{"subscriptionId": "sub_rzp"})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "PAUSED", body["status"])

		status, _ = f.call(t, http.MethodPost, "/api/subscription/pause",
			map[string]string{"subscriptionId": "sub_rzp"})
		assert.Equal(t, http.StatusConflict, status)

		status, body = f.call(t, http.MethodPost, "/api/subscription/resume",
			map[string]string{"subscriptionId": "sub_rzp"})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ACTIVE", body["status"])

		status, body = f.call(t, http.MethodPost, "/api/subscription/cancel",
			map[string]string{"subscriptionId": "sub_rzp"})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "CANCELLED", body["status"])
		assert.Equal(t, subscription.TrialPlanName, body["planName"])

		// The terminal status was reported once; the stored record is a trial.
		status, body = f.call(t, http.MethodGet, "/api/subscription/status", nil)
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ACTIVE", body["status"])
	})

	t.Run("pause without billing reference", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, nil)

		status, _ := f.call(t, http.MethodGet, "/api/subscription/status", nil)
		require.Equal(t, http.StatusOK, status)

		status, _ = f.call(t, http.MethodPost, "/api/subscription/pause", nil)
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

func TestWebhookEndpoint(t *testing.T) {
	t.Parallel()

	sign := func(t *testing.T, payload []byte) string {
		t.Helper()
		sig, err := webhook.Sign(testWebhookSecret, payload)
		require.NoError(t, err)
		return sig
	}

	post := func(f *apiFixture, payload []byte, signature string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/webhook/razorpay", bytes.NewReader(payload))
		if signature != "" {
			req.Header.Set("X-Razorpay-Signature", signature)
		}
		rec := httptest.NewRecorder()
		f.handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing signature", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, nil)
		rec := post(f, []byte(`{}`), "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid signature", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, nil)
		rec := post(f, []byte(`{"type":"subscription_charged"}`), "deadbeef")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unconfigured secret fails closed", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, nil)
		f.biller.secret = ""
		rec := post(f, []byte(`{}`), "deadbeef")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("signed activation event is applied", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, nil)

		payload := []byte(`{
			"type": "subscription_activated",
			"providerEvent": "subscription.activated",
			"subscriptionId": "sub_rzp",
			"paymentId": "pay_123",
			"planId": "plan_pro",
			"userId": "user_1"
		}`)
		rec := post(f, payload, sign(t, payload))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

		sub, err := f.store.Get(context.Background(), "user_1")
		require.NoError(t, err)
		assert.Equal(t, "Pro", sub.PlanName)
		assert.Equal(t, subscription.Credits(1200), sub.RemainingCredits)
		assert.Equal(t, "sub_rzp", sub.BillingSubscriptionID)
	})
}

func TestAnalyzeEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("structured result passes through", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, analyzerFunc(func(ctx context.Context, text, framework string) (*analyzer.Result, error) {
			assert.Equal(t, "3W1H", framework)
			return &analyzer.Result{
				Framework:        framework,
				ConfidenceScore:  95,
				Rows:             []analyzer.Row{{"what": "incident", "when": "today"}},
				DetectedLanguage: "en",
			}, nil
		}))

		status, body := f.call(t, http.MethodPost, "/api/analyze/text",
			map[string]string{"text": "something happened today"})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(95), body["confidenceScore"])
		assert.NotContains(t, body, "message")
	})

	t.Run("empty text is a client error", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, analyzerFunc(func(ctx context.Context, text, framework string) (*analyzer.Result, error) {
			return nil, analyzer.ErrEmptyText
		}))

		status, _ := f.call(t, http.MethodPost, "/api/analyze/text",
			map[string]string{"text": ""})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("pipeline failure degrades to an empty result", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, analyzerFunc(func(ctx context.Context, text, framework string) (*analyzer.Result, error) {
			return nil, errors.New("upstream model crashed")
		}))

		status, body := f.call(t, http.MethodPost, "/api/analyze/text",
			map[string]string{"text": "some text"})
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(20), body["confidenceScore"])
		assert.Equal(t, "failed to structure text", body["message"])
		assert.Empty(t, body["rows"])
	})

	t.Run("route absent without an analyzer", func(t *testing.T) {
		t.Parallel()
		f := newAPIFixture(t, nil)

		status, _ := f.call(t, http.MethodPost, "/api/analyze/text",
			map[string]string{"text": "some text"})
		assert.Equal(t, http.StatusNotFound, status)
	})
}

func TestExportDataEndpoint(t *testing.T) {
	t.Parallel()
	f := newAPIFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/user/export-data", nil)
	req.Header.Set("Authorization", "Bearer "+f.token)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="user-data-user_1.json"`, rec.Header().Get("Content-Disposition"))

	var export struct {
		ExportID     string                     `json:"exportId"`
		Profile      auth.User                  `json:"profile"`
		Subscription *subscription.Subscription `json:"subscription"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &export))
	assert.NotEmpty(t, export.ExportID)
	assert.Equal(t, "u@example.com", export.Profile.Email)
	require.NotNil(t, export.Subscription)
	assert.Equal(t, subscription.TrialPlanName, export.Subscription.PlanName)
}
