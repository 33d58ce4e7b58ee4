package history

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository stores snapshots and change log entries. Both are append-only.
type Repository interface {
	// CreateSnapshot assigns the next dense version for the identifier and stores s
	CreateSnapshot(ctx context.Context, s *Snapshot) error
	CreateChanges(ctx context.Context, changes []Change) error
	GetHistory(ctx context.Context, externalID string) ([]*Snapshot, error)
	GetChangeLog(ctx context.Context, externalID string) ([]*Change, error)
	GetRecentChanges(ctx context.Context, limit int) ([]*Change, error)
	CountByField(ctx context.Context) ([]FieldStat, error)
	WithTx(tx pgx.Tx) Repository
}
