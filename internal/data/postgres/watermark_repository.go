package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/voucher-sync-ledger/internal/domain/shared"
	"github.com/voucher-sync-ledger/internal/domain/watermark"
	"github.com/voucher-sync-ledger/internal/platform/persistence"
)

// WatermarkRepository implements watermark.Repository for PostgreSQL
type WatermarkRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewWatermarkRepository creates a new PostgreSQL watermark repository
func NewWatermarkRepository(logger *slog.Logger, db *persistence.PostgresDB) watermark.Repository {
	return &WatermarkRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *WatermarkRepository) WithTx(tx pgx.Tx) watermark.Repository {
	return &WatermarkRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Get returns the stored counter, or 0 when the domain has no row yet
func (r *WatermarkRepository) Get(ctx context.Context, domain shared.SyncDomain) (int64, error) {
	query := `SELECT counter FROM sync_watermarks WHERE domain = $1`

	var counter int64
	err := r.querier.QueryRow(ctx, query, string(domain)).Scan(&counter)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		r.logger.Error("Failed to get watermark", "domain", string(domain), "error", err)
		return 0, fmt.Errorf("failed to get watermark: %w", err)
	}

	return counter, nil
}

// Advance upserts the counter. The WHERE clause on the conflict branch makes a
// lower or equal counter a no-op, so the stored value never decreases.
func (r *WatermarkRepository) Advance(ctx context.Context, domain shared.SyncDomain, counter int64) (bool, error) {
	query := `
		INSERT INTO sync_watermarks (domain, counter, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (domain) DO UPDATE
		SET counter = EXCLUDED.counter, updated_at = EXCLUDED.updated_at
		WHERE sync_watermarks.counter < EXCLUDED.counter
	`

	result, err := r.querier.Exec(ctx, query, string(domain), counter)
	if err != nil {
		r.logger.Error("Failed to advance watermark",
			"domain", string(domain),
			"counter", counter,
			"error", err,
		)
		return false, fmt.Errorf("failed to advance watermark: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// List returns all watermarks ordered by domain
func (r *WatermarkRepository) List(ctx context.Context) ([]*watermark.Watermark, error) {
	query := `SELECT domain, counter, updated_at FROM sync_watermarks ORDER BY domain ASC`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list watermarks", "error", err)
		return nil, fmt.Errorf("failed to list watermarks: %w", err)
	}
	defer rows.Close()

	var marks []*watermark.Watermark
	for rows.Next() {
		var (
			w      watermark.Watermark
			domain string
		)
		if err := rows.Scan(&domain, &w.Counter, &w.UpdatedAt); err != nil {
			r.logger.Error("Failed to scan watermark", "error", err)
			return nil, fmt.Errorf("failed to scan watermark: %w", err)
		}
		w.Domain = shared.SyncDomain(domain)
		marks = append(marks, &w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over watermarks: %w", err)
	}

	return marks, nil
}
