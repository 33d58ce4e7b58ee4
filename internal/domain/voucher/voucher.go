// Package voucher holds the mirrored document type kept in sync with the remote ledger.
package voucher

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrMissingExternalID    = errors.New("voucher external id cannot be empty")
	ErrInvalidChangeCounter = errors.New("voucher change counter must be positive")
)

// Type is the voucher type tag assigned by the remote ledger
type Type string

const (
	TypeSales        Type = "Sales"
	TypeCreditSales  Type = "Credit Sales"
	TypeReceipt      Type = "Receipt"
	TypePendingSales Type = "Pending Sales Bill"
)

// AmountPlaces is the scale of the NUMERIC(18, 2) amount columns
const AmountPlaces int32 = 2

// NormalizeAmount rounds d to AmountPlaces, half away from zero as Postgres does,
// so an amount read back from the mirror compares equal to the value that was written.
func NormalizeAmount(d decimal.Decimal) decimal.Decimal {
	return d.Round(AmountPlaces)
}

// DefaultTypes is the allow-list used when none is configured
var DefaultTypes = []Type{TypeSales, TypeCreditSales, TypeReceipt, TypePendingSales}

// ParseTypes converts configured names into voucher types, preserving order
func ParseTypes(names []string) []Type {
	types := make([]Type, 0, len(names))
	for _, n := range names {
		types = append(types, Type(n))
	}
	return types
}

// Allowed reports whether t is in the allow-list
func Allowed(t Type, allow []Type) bool {
	for _, a := range allow {
		if a == t {
			return true
		}
	}
	return false
}

// Record represents one mirrored voucher.
// ChangeCounter is the remote system's per-record revision stamp and never decreases.
type Record struct {
	ExternalID    string          `json:"external_id"`
	Number        string          `json:"number"`
	Type          Type            `json:"type"`
	Date          time.Time       `json:"date"`
	PartyName     string          `json:"party_name"`
	Amount        decimal.Decimal `json:"amount"`
	Narration     string          `json:"narration"`
	ChangeCounter int64           `json:"change_counter"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Validate checks the fields the sync engine relies on
func (r *Record) Validate() error {
	if r.ExternalID == "" {
		return ErrMissingExternalID
	}
	if r.ChangeCounter <= 0 {
		return ErrInvalidChangeCounter
	}
	return nil
}

// Supersedes reports whether r carries newer information than stored
func (r *Record) Supersedes(stored *Record) bool {
	return r.ChangeCounter > stored.ChangeCounter
}
