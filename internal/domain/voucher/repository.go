package voucher

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository manages the mirror table
type Repository interface {
	GetByExternalID(ctx context.Context, externalID string) (*Record, error)
	// LockForUpdate reads the row with a row lock; only meaningful inside a transaction
	LockForUpdate(ctx context.Context, externalID string) (*Record, error)
	Insert(ctx context.Context, record *Record) error
	Update(ctx context.Context, record *Record) error
	WithTx(tx pgx.Tx) Repository
}

// ErrRecordNotFound indicates a missing mirror row
type ErrRecordNotFound struct {
	ExternalID string
}

func (e ErrRecordNotFound) Error() string {
	return "voucher not found: " + e.ExternalID
}

// Is matches any ErrRecordNotFound when the target has no ExternalID
func (e ErrRecordNotFound) Is(target error) bool {
	t, ok := target.(ErrRecordNotFound)
	if !ok {
		return false
	}
	if t.ExternalID == "" {
		return true
	}
	return e.ExternalID == t.ExternalID
}
