package reconciliation

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PortalRepository reads collector portal transactions
type PortalRepository interface {
	// ListByStatus returns rows with TransactedAt in [from, to), oldest first
	ListByStatus(ctx context.Context, from, to time.Time, status string) ([]PortalTransaction, error)
}

// BankRepository reads bank statement lines
type BankRepository interface {
	// ListCredits returns lines with a positive credit and value date in [from, to], in statement order
	ListCredits(ctx context.Context, from, to time.Time) ([]BankStatementLine, error)
}

// AdjustmentRepository manages manual adjustments
type AdjustmentRepository interface {
	Create(ctx context.Context, adj *Adjustment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Adjustment, error)
	List(ctx context.Context, from, to time.Time) ([]Adjustment, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
