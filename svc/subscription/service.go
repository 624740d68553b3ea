package subscription

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"log/slog"
	"time"

	"github.com/threew1h/converter/pkg/logger"
)

// Service owns the per-user subscription ledger: the lifecycle state machine,
// the read-time consistency guard and the credit ledger. User-facing API
// calls and billing webhooks both converge here; no other component mutates
// the stored records.
//
// The service holds no cross-request state of its own. Anything that must be
// consistent under concurrent requests (credit balances, status transitions)
// is pushed down into the Store's atomic per-record primitives, because
// multiple service instances may run at once.
type Service struct {
	catalog *Catalog
	store   Store
	biller  Biller
	dedupe  Deduper
	log     *slog.Logger
	now     func() time.Time
}

// Option configures a Service instance.
type Option func(*Service)

// WithLogger supplies a logger for webhook processing and guard corrections.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

// WithDeduper enables best-effort webhook event deduplication. Correctness
// does not depend on it: all webhook transitions write absolute values, so a
// redelivered event is a no-op either way.
func WithDeduper(d Deduper) Option {
	return func(s *Service) { s.dedupe = d }
}

// WithClock overrides the time source. Intended for tests that exercise
// expiry and renewal behavior at fixed instants.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService creates a Service.
// Panics if catalog, store or biller is nil to fail fast during initialization.
func NewService(catalog *Catalog, store Store, biller Biller, opts ...Option) *Service {
	if catalog == nil {
		panic("subscription: Catalog is required")
	}
	if store == nil {
		panic("subscription: Store is required")
	}
	if biller == nil {
		panic("subscription: Biller is required")
	}

	s := &Service{
		catalog: catalog,
		store:   store,
		biller:  biller,
		log:     slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Status returns the user's subscription record after consistency
// normalization. A user with no record gets a fresh default trial, persisted
// immediately so subsequent reads are stable.
func (s *Service) Status(ctx context.Context, userID string) (*Subscription, error) {
	sub, err := s.store.Get(ctx, userID)
	if errors.Is(err, ErrSubscriptionNotFound) {
		trial := NewTrial(userID, s.now())
		if err := s.store.Save(ctx, trial); err != nil {
			return nil, err
		}
		s.log.InfoContext(ctx, "created trial subscription for new user", logger.UserID(userID))
		return trial, nil
	}
	if err != nil {
		return nil, err
	}
	return s.normalize(ctx, sub)
}

// normalize is the read-time consistency guard. It detects records that are
// not trustworthy (paid plan without a payment reference), stale (past
// expiry) or incomplete (missing expiry), corrects them and persists the
// correction before returning. A read therefore implies a possible write.
func (s *Service) normalize(ctx context.Context, sub *Subscription) (*Subscription, error) {
	now := s.now()
	today := DateOf(now)

	// A paid plan name with no payment reference was never legitimately
	// purchased; treat the record as if it did not exist.
	if s.catalog.IsPaidPlanName(sub.PlanName) && sub.PaymentID == "" {
		trial := NewTrial(sub.UserID, now)
		if err := s.store.Save(ctx, trial); err != nil {
			return nil, err
		}
		s.log.WarnContext(ctx, "reset unpaid subscription record to trial",
			logger.UserID(sub.UserID), slog.String("plan", sub.PlanName))
		return trial, nil
	}

	// Expired paid plans downgrade to a fresh trial. EXPIRED is reported to
	// this caller only; the persisted record is already the active trial.
	if !sub.IsTrial() && sub.IsExpiredAt(today) {
		trial := NewTrial(sub.UserID, now)
		if err := s.store.Save(ctx, trial); err != nil {
			return nil, err
		}
		s.log.InfoContext(ctx, "expired subscription downgraded to trial",
			logger.UserID(sub.UserID), slog.String("plan", sub.PlanName))
		reported := trial.Clone()
		reported.Status = StatusExpired
		return reported, nil
	}

	// Records predating the expiry field get one patched in, nothing else.
	if sub.ExpiryDate.IsZero() {
		expiry := today.AddDays(PlanValidityDays)
		if err := s.store.Update(ctx, sub.UserID, Patch{ExpiryDate: &expiry}); err != nil {
			return nil, err
		}
		sub.ExpiryDate = expiry
		return sub, nil
	}

	return sub, nil
}

// CreateBillingSubscription opens a subscription with the biller so the user
// can authorize payment. It does not touch the ledger; the record changes
// only on confirmed activation.
func (s *Service) CreateBillingSubscription(ctx context.Context, userID, email, planID string) (*BillingSubscription, error) {
	if _, err := s.catalog.Resolve(planID); err != nil {
		return nil, err
	}
	return s.biller.CreateSubscription(ctx, CreateSubscriptionRequest{
		PlanID: planID,
		UserID: userID,
		Email:  email,
	})
}

// Activate moves the user onto a paid plan after confirmed payment. It is
// the only transition allowed to set a non-empty payment reference. Absolute
// values make it naturally idempotent: re-activating with the same inputs
// rewrites the same record.
func (s *Service) Activate(ctx context.Context, userID, planID, paymentID string) (*Subscription, error) {
	return s.activate(ctx, userID, planID, paymentID, "")
}

func (s *Service) activate(ctx context.Context, userID, planID, paymentID, billingSubID string) (*Subscription, error) {
	plan, err := s.catalog.Resolve(planID)
	if err != nil {
		return nil, err
	}
	if paymentID == "" {
		return nil, ErrMissingPaymentID
	}

	now := s.now().UTC()
	sub := &Subscription{
		UserID:                userID,
		PlanID:                plan.ID,
		PlanName:              plan.Name,
		Status:                StatusActive,
		TotalCredits:          plan.Credits,
		RemainingCredits:      plan.Credits,
		ExpiryDate:            DateOf(now).AddDays(PlanValidityDays),
		PaymentID:             paymentID,
		BillingSubscriptionID: billingSubID,
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	// Keep the original creation time and any known billing subscription
	// reference when upgrading an existing record.
	if existing, err := s.store.Get(ctx, userID); err == nil {
		sub.CreatedAt = existing.CreatedAt
		if billingSubID == "" {
			sub.BillingSubscriptionID = existing.BillingSubscriptionID
		}
	} else if !errors.Is(err, ErrSubscriptionNotFound) {
		return nil, err
	}

	if err := s.store.Save(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Pause pauses the billing subscription, then applies ACTIVE -> PAUSED. The
// external call strictly precedes the internal transition: if the biller
// call fails or times out, the ledger is left untouched so it cannot drift
// ahead of the provider's actual state.
func (s *Service) Pause(ctx context.Context, userID, billingSubID string) error {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !sub.IsActive() {
		return ErrStateConflict
	}

	billingSubID, err = resolveBillingSubID(billingSubID, sub)
	if err != nil {
		return err
	}
	if err := s.biller.PauseSubscription(ctx, billingSubID); err != nil {
		return err
	}

	return s.store.TransitionStatus(ctx, userID, StatusPaused, StatusActive)
}

// Resume resumes the billing subscription, then applies PAUSED -> ACTIVE.
func (s *Service) Resume(ctx context.Context, userID, billingSubID string) error {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !sub.IsPaused() {
		return ErrStateConflict
	}

	billingSubID, err = resolveBillingSubID(billingSubID, sub)
	if err != nil {
		return err
	}
	if err := s.biller.ResumeSubscription(ctx, billingSubID); err != nil {
		return err
	}

	return s.store.TransitionStatus(ctx, userID, StatusActive, StatusPaused)
}

// Cancel cancels the billing subscription, then rewrites the record as a
// fresh default trial. CANCELLED is reported to this caller only; the next
// read sees an active trial.
func (s *Service) Cancel(ctx context.Context, userID, billingSubID string) (*Subscription, error) {
	sub, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !sub.IsActive() && !sub.IsPaused() {
		return nil, ErrStateConflict
	}

	billingSubID, err = resolveBillingSubID(billingSubID, sub)
	if err != nil {
		return nil, err
	}
	if err := s.biller.CancelSubscription(ctx, billingSubID); err != nil {
		return nil, err
	}

	return s.downgradeToTrial(ctx, userID, StatusCancelled)
}

// downgradeToTrial rewrites the record in place as a fresh active trial and
// returns a copy reporting the transient terminal status once.
func (s *Service) downgradeToTrial(ctx context.Context, userID string, reported Status) (*Subscription, error) {
	trial := NewTrial(userID, s.now())
	if err := s.store.Save(ctx, trial); err != nil {
		return nil, err
	}
	out := trial.Clone()
	out.Status = reported
	return out, nil
}

// DeductionResult is the outcome of a successful credit deduction.
type DeductionResult struct {
	RemainingCredits Credits `json:"remainingCredits"`
	PlanName         string  `json:"planName"`
}

// DeductCredits atomically consumes credits from the user's balance. The
// record is normalized first, so a stale paid plan cannot spend credits it
// no longer has. Unlimited plans succeed without touching the balance. Two
// concurrent deductions that together would overdraw the balance cannot
// both succeed; the conditional decrement happens inside the store.
func (s *Service) DeductCredits(ctx context.Context, userID string, amount Credits) (*DeductionResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	sub, err := s.Status(ctx, userID)
	if err != nil {
		return nil, err
	}

	if sub.HasUnlimitedCredits() {
		return &DeductionResult{RemainingCredits: UnlimitedCredits, PlanName: sub.PlanName}, nil
	}

	remaining, err := s.store.DeductCredits(ctx, userID, amount)
	if err != nil {
		return nil, err
	}
	return &DeductionResult{RemainingCredits: remaining, PlanName: sub.PlanName}, nil
}

// HandleWebhook authenticates and applies a billing event. Only
// authentication failures (bad signature, unconfigured secret) propagate to
// the caller; every failure after successful authentication is logged and
// swallowed so the sender gets a 200 and does not enter a redelivery storm.
// The transitions themselves write absolute values, so redelivered events
// are harmless.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	event, err := s.biller.ParseWebhook(ctx, payload, signature)
	if err != nil {
		if errors.Is(err, ErrWebhookVerificationFailed) || errors.Is(err, ErrMissingWebhookSecret) {
			return err
		}
		// Authenticated but malformed: acknowledge, manual reconciliation.
		s.log.ErrorContext(ctx, "discarding malformed webhook payload", logger.Error(err))
		return nil
	}

	log := s.log.With(logger.EventType(event.ProviderEvent), logger.UserID(event.UserID))

	if s.dedupe != nil {
		key := payloadDigest(payload)
		if seen, derr := s.dedupe.Seen(ctx, key); derr != nil {
			log.WarnContext(ctx, "webhook dedupe check failed, processing anyway", logger.Error(derr))
		} else if seen {
			log.InfoContext(ctx, "skipping duplicate webhook event")
			return nil
		}
	}

	if event.Type == EventUnknown {
		log.InfoContext(ctx, "ignoring unhandled webhook event")
		return nil
	}
	if event.UserID == "" {
		log.WarnContext(ctx, "webhook event has no user mapping, acknowledging")
		return nil
	}

	switch event.Type {
	case EventSubscriptionActivated:
		s.applyActivated(ctx, log, event)
	case EventSubscriptionCharged:
		s.applyCharged(ctx, log, event)
	case EventSubscriptionCancelled:
		s.applyCancelled(ctx, log, event)
	}
	return nil
}

func (s *Service) applyActivated(ctx context.Context, log *slog.Logger, event *WebhookEvent) {
	// The provider confirmed payment; derive the payment reference from the
	// charge when present, otherwise mark the record as webhook-confirmed
	// via the subscription ID so it never looks like an unpaid record.
	paymentID := event.PaymentID
	if paymentID == "" {
		paymentID = event.SubscriptionID
	}

	if _, err := s.activate(ctx, event.UserID, event.PlanID, paymentID, event.SubscriptionID); err != nil {
		log.ErrorContext(ctx, "failed to apply subscription activation", logger.Error(err))
		return
	}
	log.InfoContext(ctx, "subscription activated", slog.String("plan_id", event.PlanID))
}

// applyCharged handles renewal charges: an idempotent absolute reset of the
// remaining balance to the plan allotment. Duplicate deliveries produce the
// same final record; the provider owns the actual renewal schedule.
func (s *Service) applyCharged(ctx context.Context, log *slog.Logger, event *WebhookEvent) {
	sub, err := s.store.Get(ctx, event.UserID)
	if err != nil {
		log.WarnContext(ctx, "charge event for user without a record, acknowledging", logger.Error(err))
		return
	}
	if sub.IsTrial() {
		log.WarnContext(ctx, "charge event for trial record, acknowledging")
		return
	}

	now := s.now().UTC()
	expiry := DateOf(now).AddDays(PlanValidityDays)
	patch := Patch{
		RemainingCredits: &sub.TotalCredits,
		ExpiryDate:       &expiry,
		LastChargeAt:     &now,
	}
	if event.PaymentID != "" {
		patch.PaymentID = &event.PaymentID
	}

	if err := s.store.Update(ctx, event.UserID, patch); err != nil {
		log.ErrorContext(ctx, "failed to apply renewal charge", logger.Error(err))
		return
	}
	log.InfoContext(ctx, "renewal charge applied", slog.String("payment_id", event.PaymentID))
}

func (s *Service) applyCancelled(ctx context.Context, log *slog.Logger, event *WebhookEvent) {
	sub, err := s.store.Get(ctx, event.UserID)
	if err != nil {
		log.WarnContext(ctx, "cancel event for user without a record, acknowledging", logger.Error(err))
		return
	}
	// Already downgraded; a redelivered cancel must not reset the trial.
	if sub.IsTrial() {
		log.InfoContext(ctx, "cancel event for trial record, nothing to do")
		return
	}

	if _, err := s.downgradeToTrial(ctx, event.UserID, StatusCancelled); err != nil {
		log.ErrorContext(ctx, "failed to apply subscription cancellation", logger.Error(err))
		return
	}
	log.InfoContext(ctx, "subscription cancelled, record downgraded to trial")
}

func resolveBillingSubID(requested string, sub *Subscription) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if sub.BillingSubscriptionID != "" {
		return sub.BillingSubscriptionID, nil
	}
	return "", ErrMissingBillingSubscriptionID
}

func payloadDigest(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}
