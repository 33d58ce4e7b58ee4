// Package event defines the change notification emitted for every new or modified voucher.
package event

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
)

// ChangeEvent is the fan-out contract consumed by the notifier
type ChangeEvent struct {
	EventID       uuid.UUID       `json:"event_id"`
	ExternalID    string          `json:"external_id"`
	Number        string          `json:"number"`
	Type          voucher.Type    `json:"type"`
	PartyName     string          `json:"party_name"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	ChangeCounter int64           `json:"change_counter"`
	IsNew         bool            `json:"is_new"`
	DetectedAt    time.Time       `json:"detected_at"`
}

// NewChangeEvent captures the post-change state of a record
func NewChangeEvent(record *voucher.Record, isNew bool) *ChangeEvent {
	return &ChangeEvent{
		EventID:       uuid.New(),
		ExternalID:    record.ExternalID,
		Number:        record.Number,
		Type:          record.Type,
		PartyName:     record.PartyName,
		Amount:        record.Amount,
		Date:          record.Date,
		ChangeCounter: record.ChangeCounter,
		IsNew:         isNew,
		DetectedAt:    time.Now().UTC(),
	}
}

// Kind returns "new" or "modified"
func (e *ChangeEvent) Kind() string {
	if e.IsNew {
		return "new"
	}
	return "modified"
}
