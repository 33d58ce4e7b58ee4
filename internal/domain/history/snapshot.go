// Package history keeps every superseded state of a mirrored voucher and a
// field level log of what changed between consecutive states.
package history

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
)

// Snapshot is an immutable copy of a voucher's prior state.
// ChangeCounter is the counter of the copied state, SupersededBy the counter that replaced it.
type Snapshot struct {
	ID            int64           `json:"id"`
	ExternalID    string          `json:"external_id"`
	Version       int             `json:"version"`
	Number        string          `json:"number"`
	Type          voucher.Type    `json:"type"`
	Date          time.Time       `json:"date"`
	PartyName     string          `json:"party_name"`
	Amount        decimal.Decimal `json:"amount"`
	Narration     string          `json:"narration"`
	ChangeCounter int64           `json:"change_counter"`
	SupersededBy  int64           `json:"superseded_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewSnapshot copies old as of at; Version is assigned by the repository on insert
func NewSnapshot(old *voucher.Record, supersededBy int64, at time.Time) *Snapshot {
	return &Snapshot{
		ExternalID:    old.ExternalID,
		Number:        old.Number,
		Type:          old.Type,
		Date:          old.Date,
		PartyName:     old.PartyName,
		Amount:        old.Amount,
		Narration:     old.Narration,
		ChangeCounter: old.ChangeCounter,
		SupersededBy:  supersededBy,
		CreatedAt:     at,
	}
}

// FieldStat is the number of recorded changes for one tracked field
type FieldStat struct {
	Field string `json:"field"`
	Count int64  `json:"count"`
}
