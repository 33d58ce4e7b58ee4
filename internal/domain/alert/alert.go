// Package alert turns change events into per-subscriber alerts according to
// each subscriber's notification preferences.
package alert

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/voucher-sync-ledger/internal/domain/event"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
)

// Reason explains why an alert was raised
type Reason string

const (
	ReasonNewVoucher      Reason = "new_voucher"
	ReasonModifiedVoucher Reason = "modified_voucher"
	ReasonLargeAmount     Reason = "large_amount"
)

// Preference is what a subscriber wants to hear about.
// A nil LargeAmountThreshold disables large amount alerts; an empty VoucherTypes matches every type.
type Preference struct {
	SubscriberID         string           `json:"subscriber_id"`
	NotifyNew            bool             `json:"notify_new"`
	NotifyModified       bool             `json:"notify_modified"`
	LargeAmountThreshold *decimal.Decimal `json:"large_amount_threshold,omitempty"`
	VoucherTypes         []voucher.Type   `json:"voucher_types"`
	Active               bool             `json:"active"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

// Alert is stored for later pickup by a delivery channel
type Alert struct {
	ID            uuid.UUID    `json:"id" bson:"_id"`
	SubscriberID  string       `json:"subscriber_id" bson:"subscriber_id"`
	EventID       uuid.UUID    `json:"event_id" bson:"event_id"`
	ExternalID    string       `json:"external_id" bson:"external_id"`
	VoucherNumber string       `json:"voucher_number" bson:"voucher_number"`
	VoucherType   voucher.Type `json:"voucher_type" bson:"voucher_type"`
	PartyName     string       `json:"party_name" bson:"party_name"`
	Amount        string       `json:"amount" bson:"amount"`
	Reasons       []Reason     `json:"reasons" bson:"reasons"`
	CreatedAt     time.Time    `json:"created_at" bson:"created_at"`
}

// Evaluate returns the reasons evt is relevant to pref, or nil
func Evaluate(pref *Preference, evt *event.ChangeEvent) []Reason {
	if pref == nil || !pref.Active {
		return nil
	}
	if len(pref.VoucherTypes) > 0 && !voucher.Allowed(evt.Type, pref.VoucherTypes) {
		return nil
	}

	var reasons []Reason
	if evt.IsNew && pref.NotifyNew {
		reasons = append(reasons, ReasonNewVoucher)
	}
	if !evt.IsNew && pref.NotifyModified {
		reasons = append(reasons, ReasonModifiedVoucher)
	}
	if pref.LargeAmountThreshold != nil && evt.Amount.Abs().GreaterThanOrEqual(*pref.LargeAmountThreshold) {
		reasons = append(reasons, ReasonLargeAmount)
	}
	return reasons
}

// NewAlert builds the stored alert for one subscriber
func NewAlert(subscriberID string, evt *event.ChangeEvent, reasons []Reason) *Alert {
	return &Alert{
		ID:            uuid.New(),
		SubscriberID:  subscriberID,
		EventID:       evt.EventID,
		ExternalID:    evt.ExternalID,
		VoucherNumber: evt.Number,
		VoucherType:   evt.Type,
		PartyName:     evt.PartyName,
		Amount:        evt.Amount.String(),
		Reasons:       reasons,
		CreatedAt:     time.Now().UTC(),
	}
}

// Repository persists alerts. Create is idempotent on (subscriber, event).
type Repository interface {
	Create(ctx context.Context, a *Alert) error
	ListBySubscriber(ctx context.Context, subscriberID string, limit int) ([]*Alert, error)
}

// PreferenceRepository manages subscriber preferences
type PreferenceRepository interface {
	Get(ctx context.Context, subscriberID string) (*Preference, error)
	Upsert(ctx context.Context, pref *Preference) error
	ListActive(ctx context.Context) ([]*Preference, error)
}

// ErrDuplicateAlert is returned when the subscriber was already alerted about the event
type ErrDuplicateAlert struct {
	SubscriberID string
	EventID      uuid.UUID
}

func (e ErrDuplicateAlert) Error() string {
	return "duplicate alert for subscriber " + e.SubscriberID + " and event " + e.EventID.String()
}

// Is matches any ErrDuplicateAlert when the target is zero valued
func (e ErrDuplicateAlert) Is(target error) bool {
	t, ok := target.(ErrDuplicateAlert)
	if !ok {
		return false
	}
	if t.SubscriberID == "" && t.EventID == uuid.Nil {
		return true
	}
	return e.SubscriberID == t.SubscriberID && e.EventID == t.EventID
}

// ErrPreferenceNotFound indicates a subscriber without stored preferences
type ErrPreferenceNotFound struct {
	SubscriberID string
}

func (e ErrPreferenceNotFound) Error() string {
	return "preferences not found for subscriber: " + e.SubscriberID
}

func (e ErrPreferenceNotFound) Is(target error) bool {
	t, ok := target.(ErrPreferenceNotFound)
	if !ok {
		return false
	}
	return t.SubscriberID == "" || t.SubscriberID == e.SubscriberID
}
