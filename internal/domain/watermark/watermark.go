// Package watermark tracks the highest change counter mirrored for each sync domain.
package watermark

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/voucher-sync-ledger/internal/domain/shared"
)

// Watermark is the resume point of one domain's incremental fetch
type Watermark struct {
	Domain    shared.SyncDomain `json:"domain"`
	Counter   int64             `json:"counter"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// Repository reads and advances watermarks
type Repository interface {
	// Get returns 0 when the domain has never been synced
	Get(ctx context.Context, domain shared.SyncDomain) (int64, error)
	// Advance moves the watermark to counter only when counter is higher.
	// It reports whether the stored value changed.
	Advance(ctx context.Context, domain shared.SyncDomain, counter int64) (bool, error)
	List(ctx context.Context) ([]*Watermark, error)
	WithTx(tx pgx.Tx) Repository
}
