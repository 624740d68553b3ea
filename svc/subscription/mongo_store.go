package subscription

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// SubscriptionsCollection is the mongo collection holding one flat document
// per user, keyed by user ID.
const SubscriptionsCollection = "subscriptions"

type mongoStore struct {
	col *mongo.Collection
	now func() time.Time
}

// NewMongoStore returns a Store backed by a mongo collection. The backend's
// native primitives carry the atomicity contract: $set merges for partial
// updates, filtered updates for status CAS, and a filtered $inc for the
// conditional credit decrement, so no caller ever does a read-modify-write
// round trip.
func NewMongoStore(db *mongo.Database) Store {
	return &mongoStore{
		col: db.Collection(SubscriptionsCollection),
		now: time.Now,
	}
}

func (s *mongoStore) Get(ctx context.Context, userID string) (*Subscription, error) {
	var doc subscriptionDoc
	err := s.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSubscriptionNotFound
	}
	if err != nil {
		return nil, errors.Join(ErrStoreUnavailable, err)
	}
	return doc.toSubscription()
}

func (s *mongoStore) Save(ctx context.Context, sub *Subscription) error {
	_, err := s.col.ReplaceOne(ctx,
		bson.M{"_id": sub.UserID},
		newSubscriptionDoc(sub),
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (s *mongoStore) Update(ctx context.Context, userID string, patch Patch) error {
	set := bson.M{"updated_at": s.now().UTC()}
	if patch.PlanID != nil {
		set["plan_id"] = *patch.PlanID
	}
	if patch.PlanName != nil {
		set["plan_name"] = *patch.PlanName
	}
	if patch.Status != nil {
		set["status"] = string(*patch.Status)
	}
	if patch.TotalCredits != nil {
		set["total_credits"] = creditsToBSON(*patch.TotalCredits)
	}
	if patch.RemainingCredits != nil {
		set["remaining_credits"] = creditsToBSON(*patch.RemainingCredits)
	}
	if patch.ExpiryDate != nil {
		set["expiry_date"] = patch.ExpiryDate.String()
	}
	if patch.PaymentID != nil {
		set["payment_id"] = *patch.PaymentID
	}
	if patch.BillingSubscriptionID != nil {
		set["billing_subscription_id"] = *patch.BillingSubscriptionID
	}
	if patch.LastChargeAt != nil {
		set["last_charge_at"] = patch.LastChargeAt.UTC()
	}

	res, err := s.col.UpdateOne(ctx, bson.M{"_id": userID}, bson.M{"$set": set})
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if res.MatchedCount == 0 {
		return ErrSubscriptionNotFound
	}
	return nil
}

func (s *mongoStore) TransitionStatus(ctx context.Context, userID string, to Status, from ...Status) error {
	states := make([]string, len(from))
	for i, st := range from {
		states[i] = string(st)
	}

	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": userID, "status": bson.M{"$in": states}},
		bson.M{"$set": bson.M{"status": string(to), "updated_at": s.now().UTC()}},
	)
	if err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	if res.MatchedCount == 0 {
		// Distinguish a missing record from a state mismatch.
		if _, err := s.Get(ctx, userID); err != nil {
			return err
		}
		return ErrStateConflict
	}
	return nil
}

func (s *mongoStore) DeductCredits(ctx context.Context, userID string, amount Credits) (Credits, error) {
	// The balance precondition lives in the filter, so the decrement is a
	// single server-side conditional write. BSON type bracketing keeps
	// "Unlimited" (a string) from ever matching the numeric $gte.
	var doc subscriptionDoc
	err := s.col.FindOneAndUpdate(ctx,
		bson.M{"_id": userID, "remaining_credits": bson.M{"$gte": int64(amount)}},
		bson.M{
			"$inc": bson.M{"remaining_credits": -int64(amount)},
			"$set": bson.M{"updated_at": s.now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)

	if err == nil {
		return creditsFromBSON(doc.RemainingCredits)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return 0, errors.Join(ErrStoreUnavailable, err)
	}

	// No match: absent record, unlimited plan, or a balance short of amount.
	sub, err := s.Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	if sub.RemainingCredits.IsUnlimited() {
		return UnlimitedCredits, nil
	}
	return 0, &InsufficientCreditsError{Remaining: sub.RemainingCredits}
}

// subscriptionDoc is the flat persisted layout: strings, numbers, the
// literal "Unlimited" sentinel and ISO-8601 date strings. Credit fields
// decode as any because they hold either an integer or the sentinel.
type subscriptionDoc struct {
	UserID                string     `bson:"_id"`
	PlanID                string     `bson:"plan_id,omitempty"`
	PlanName              string     `bson:"plan_name"`
	Status                string     `bson:"status"`
	TotalCredits          any        `bson:"total_credits"`
	RemainingCredits      any        `bson:"remaining_credits"`
	ExpiryDate            string     `bson:"expiry_date,omitempty"`
	PaymentID             string     `bson:"payment_id,omitempty"`
	BillingSubscriptionID string     `bson:"billing_subscription_id,omitempty"`
	LastChargeAt          *time.Time `bson:"last_charge_at,omitempty"`
	CreatedAt             time.Time  `bson:"created_at"`
	UpdatedAt             time.Time  `bson:"updated_at"`
}

func newSubscriptionDoc(sub *Subscription) subscriptionDoc {
	doc := subscriptionDoc{
		UserID:                sub.UserID,
		PlanID:                sub.PlanID,
		PlanName:              sub.PlanName,
		Status:                string(sub.Status),
		TotalCredits:          creditsToBSON(sub.TotalCredits),
		RemainingCredits:      creditsToBSON(sub.RemainingCredits),
		PaymentID:             sub.PaymentID,
		BillingSubscriptionID: sub.BillingSubscriptionID,
		CreatedAt:             sub.CreatedAt.UTC(),
		UpdatedAt:             sub.UpdatedAt.UTC(),
	}
	if !sub.ExpiryDate.IsZero() {
		doc.ExpiryDate = sub.ExpiryDate.String()
	}
	if sub.LastChargeAt != nil {
		t := sub.LastChargeAt.UTC()
		doc.LastChargeAt = &t
	}
	return doc
}

func (d subscriptionDoc) toSubscription() (*Subscription, error) {
	total, err := creditsFromBSON(d.TotalCredits)
	if err != nil {
		return nil, err
	}
	remaining, err := creditsFromBSON(d.RemainingCredits)
	if err != nil {
		return nil, err
	}

	sub := &Subscription{
		UserID:                d.UserID,
		PlanID:                d.PlanID,
		PlanName:              d.PlanName,
		Status:                Status(d.Status),
		TotalCredits:          total,
		RemainingCredits:      remaining,
		PaymentID:             d.PaymentID,
		BillingSubscriptionID: d.BillingSubscriptionID,
		LastChargeAt:          d.LastChargeAt,
		CreatedAt:             d.CreatedAt,
		UpdatedAt:             d.UpdatedAt,
	}
	if d.ExpiryDate != "" {
		expiry, err := ParseDate(d.ExpiryDate)
		if err != nil {
			return nil, err
		}
		sub.ExpiryDate = expiry
	}
	return sub, nil
}

func creditsToBSON(c Credits) any {
	if c.IsUnlimited() {
		return "Unlimited"
	}
	return int64(c)
}

func creditsFromBSON(v any) (Credits, error) {
	switch n := v.(type) {
	case int64:
		return Credits(n), nil
	case int32:
		return Credits(n), nil
	case float64:
		return Credits(n), nil
	case string:
		if n == "Unlimited" {
			return UnlimitedCredits, nil
		}
	}
	return 0, fmt.Errorf("subscription: unexpected credits value %v (%T)", v, v)
}
