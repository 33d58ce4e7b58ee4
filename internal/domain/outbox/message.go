// Package outbox holds change events waiting to be published. Rows are written in the
// same transaction as the mirror change that produced them.
package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/voucher-sync-ledger/internal/domain/event"
	"github.com/voucher-sync-ledger/internal/domain/shared"
)

// Message is a pending change event
type Message struct {
	ID            int64               `json:"id"`
	EventID       uuid.UUID           `json:"event_id"`
	ExternalID    string              `json:"external_id"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`

	// Event is Payload decoded; set when the message is read back for publishing
	Event *event.ChangeEvent `json:"-"`
}

// NewMessage wraps evt; the message is as old as the detection it reports
func NewMessage(evt *event.ChangeEvent) (*Message, error) {
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, err
	}

	return &Message{
		EventID:    evt.EventID,
		ExternalID: evt.ExternalID,
		Payload:    payload,
		Status:     shared.OutboxStatusPending,
		CreatedAt:  evt.DetectedAt,
		Event:      evt,
	}, nil
}

// GetChangeEvent decodes the payload
func (m *Message) GetChangeEvent() (*event.ChangeEvent, error) {
	var evt event.ChangeEvent
	if err := json.Unmarshal(m.Payload, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}
