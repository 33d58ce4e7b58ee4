// Package reconciliation merges collector portal payments, bank settlement lines and
// manual adjustments into a single ledger with a running balance.
package reconciliation

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAdjustmentKind   = errors.New("adjustment kind must be missing_collection or service_charge")
	ErrInvalidAdjustmentAmount = errors.New("adjustment amount must be greater than zero")
	ErrMissingAdjustmentDate   = errors.New("adjustment date is required")
)

// Source tags where a ledger entry came from
type Source string

const (
	SourceCollectorPortal  Source = "collector_portal"
	SourceBankStatement    Source = "bank_statement"
	SourceManualAdjustment Source = "manual_adjustment"
)

// AdjustmentKind selects the side and time of a manual adjustment
type AdjustmentKind string

const (
	AdjustmentMissingCollection AdjustmentKind = "missing_collection"
	AdjustmentServiceCharge     AdjustmentKind = "service_charge"
)

func (k AdjustmentKind) Valid() bool {
	return k == AdjustmentMissingCollection || k == AdjustmentServiceCharge
}

// PortalTransaction is one payment recorded by the collector portal
type PortalTransaction struct {
	ID           int64           `json:"id"`
	Reference    string          `json:"reference"`
	Payer        string          `json:"payer"`
	Amount       decimal.Decimal `json:"amount"`
	Status       string          `json:"status"`
	TransactedAt time.Time       `json:"transacted_at"`
}

// BankStatementLine is one bank statement row; it carries a date but no time
type BankStatementLine struct {
	ID          int64           `json:"id"`
	ValueDate   time.Time       `json:"value_date"`
	Description string          `json:"description"`
	Reference   string          `json:"reference"`
	Credit      decimal.Decimal `json:"credit"`
	Debit       decimal.Decimal `json:"debit"`
}

// Adjustment is an operator entered correction
type Adjustment struct {
	ID        uuid.UUID       `json:"id"`
	Kind      AdjustmentKind  `json:"kind"`
	Date      time.Time       `json:"date"`
	Amount    decimal.Decimal `json:"amount"`
	Note      string          `json:"note"`
	CreatedAt time.Time       `json:"created_at"`
}

// NewAdjustment validates input and assigns an ID
func NewAdjustment(kind AdjustmentKind, date time.Time, amount decimal.Decimal, note string) (*Adjustment, error) {
	if !kind.Valid() {
		return nil, ErrInvalidAdjustmentKind
	}
	if date.IsZero() {
		return nil, ErrMissingAdjustmentDate
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAdjustmentAmount
	}
	return &Adjustment{
		ID:        uuid.New(),
		Kind:      kind,
		Date:      date,
		Amount:    amount,
		Note:      strings.TrimSpace(note),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ErrAdjustmentNotFound indicates a missing adjustment
type ErrAdjustmentNotFound struct {
	ID uuid.UUID
}

func (e ErrAdjustmentNotFound) Error() string {
	return "adjustment not found: " + e.ID.String()
}

// Is matches any ErrAdjustmentNotFound when the target ID is nil
func (e ErrAdjustmentNotFound) Is(target error) bool {
	t, ok := target.(ErrAdjustmentNotFound)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}

// IsSettlementLine reports whether a bank description mentions any settlement keyword
func IsSettlementLine(description string, keywords []string) bool {
	desc := strings.ToUpper(description)
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k != "" && strings.Contains(desc, strings.ToUpper(k)) {
			return true
		}
	}
	return false
}

// ParseOpeningBalance parses a stored opening balance. ok is false when raw is
// empty or malformed, in which case zero is returned.
func ParseOpeningBalance(raw string) (balance decimal.Decimal, ok bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}
