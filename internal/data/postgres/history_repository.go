package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/voucher-sync-ledger/internal/domain/history"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
	"github.com/voucher-sync-ledger/internal/platform/persistence"
)

// HistoryRepository implements history.Repository for PostgreSQL
type HistoryRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewHistoryRepository creates a new PostgreSQL history repository
func NewHistoryRepository(logger *slog.Logger, db *persistence.PostgresDB) history.Repository {
	return &HistoryRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *HistoryRepository) WithTx(tx pgx.Tx) history.Repository {
	return &HistoryRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// CreateSnapshot computes the next version inside the insert itself. Callers must
// hold the mirror row lock so two writers cannot read the same MAX(version).
func (r *HistoryRepository) CreateSnapshot(ctx context.Context, s *history.Snapshot) error {
	query := `
		INSERT INTO voucher_history (external_id, version, voucher_number, voucher_type, voucher_date, party_name, amount, narration, change_counter, superseded_by, created_at)
		SELECT $1, COALESCE(MAX(version), 0) + 1, $2, $3, $4, $5, $6, $7, $8, $9, $10
		FROM voucher_history
		WHERE external_id = $1
		RETURNING id, version
	`

	err := r.querier.QueryRow(ctx, query,
		s.ExternalID,
		s.Number,
		string(s.Type),
		s.Date,
		s.PartyName,
		s.Amount,
		s.Narration,
		s.ChangeCounter,
		s.SupersededBy,
		s.CreatedAt,
	).Scan(&s.ID, &s.Version)
	if err != nil {
		r.logger.Error("Failed to create voucher snapshot",
			"external_id", s.ExternalID,
			"superseded_by", s.SupersededBy,
			"error", err,
		)
		return fmt.Errorf("failed to create voucher snapshot: %w", err)
	}

	return nil
}

// CreateChanges appends change log rows
func (r *HistoryRepository) CreateChanges(ctx context.Context, changes []history.Change) error {
	query := `
		INSERT INTO voucher_change_log (external_id, voucher_number, field_name, old_value, new_value, old_counter, new_counter, changed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	for _, c := range changes {
		_, err := r.querier.Exec(ctx, query,
			c.ExternalID,
			c.VoucherNumber,
			c.Field,
			c.OldValue,
			c.NewValue,
			c.OldCounter,
			c.NewCounter,
			c.ChangedAt,
		)
		if err != nil {
			r.logger.Error("Failed to create change log entry",
				"external_id", c.ExternalID,
				"field", c.Field,
				"error", err,
			)
			return fmt.Errorf("failed to create change log entry: %w", err)
		}
	}

	return nil
}

// GetHistory returns snapshots ordered by version
func (r *HistoryRepository) GetHistory(ctx context.Context, externalID string) ([]*history.Snapshot, error) {
	query := `
		SELECT id, external_id, version, voucher_number, voucher_type, voucher_date, party_name, amount, narration, change_counter, superseded_by, created_at
		FROM voucher_history
		WHERE external_id = $1
		ORDER BY version ASC
	`

	rows, err := r.querier.Query(ctx, query, externalID)
	if err != nil {
		r.logger.Error("Failed to get voucher history", "external_id", externalID, "error", err)
		return nil, fmt.Errorf("failed to get voucher history: %w", err)
	}
	defer rows.Close()

	snapshots := []*history.Snapshot{}
	for rows.Next() {
		var (
			s       history.Snapshot
			typeTag string
		)
		err := rows.Scan(
			&s.ID,
			&s.ExternalID,
			&s.Version,
			&s.Number,
			&typeTag,
			&s.Date,
			&s.PartyName,
			&s.Amount,
			&s.Narration,
			&s.ChangeCounter,
			&s.SupersededBy,
			&s.CreatedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan voucher snapshot", "error", err)
			return nil, fmt.Errorf("failed to scan voucher snapshot: %w", err)
		}
		s.Type = voucher.Type(typeTag)
		snapshots = append(snapshots, &s)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over voucher history", "error", err)
		return nil, fmt.Errorf("error iterating over voucher history: %w", err)
	}

	return snapshots, nil
}

// GetChangeLog returns one voucher's changes oldest first
func (r *HistoryRepository) GetChangeLog(ctx context.Context, externalID string) ([]*history.Change, error) {
	query := `
		SELECT id, external_id, voucher_number, field_name, old_value, new_value, old_counter, new_counter, changed_at
		FROM voucher_change_log
		WHERE external_id = $1
		ORDER BY changed_at ASC, id ASC
	`
	return r.queryChanges(ctx, query, externalID)
}

// GetRecentChanges returns the newest changes across all vouchers
func (r *HistoryRepository) GetRecentChanges(ctx context.Context, limit int) ([]*history.Change, error) {
	query := `
		SELECT id, external_id, voucher_number, field_name, old_value, new_value, old_counter, new_counter, changed_at
		FROM voucher_change_log
		ORDER BY changed_at DESC, id DESC
		LIMIT $1
	`
	return r.queryChanges(ctx, query, limit)
}

// CountByField aggregates the change log per tracked field
func (r *HistoryRepository) CountByField(ctx context.Context) ([]history.FieldStat, error) {
	query := `
		SELECT field_name, COUNT(*)
		FROM voucher_change_log
		GROUP BY field_name
		ORDER BY COUNT(*) DESC, field_name ASC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to count changes by field", "error", err)
		return nil, fmt.Errorf("failed to count changes by field: %w", err)
	}
	defer rows.Close()

	stats := []history.FieldStat{}
	for rows.Next() {
		var s history.FieldStat
		if err := rows.Scan(&s.Field, &s.Count); err != nil {
			r.logger.Error("Failed to scan field stat", "error", err)
			return nil, fmt.Errorf("failed to scan field stat: %w", err)
		}
		stats = append(stats, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over field stats: %w", err)
	}

	return stats, nil
}

func (r *HistoryRepository) queryChanges(ctx context.Context, query string, args ...any) ([]*history.Change, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query change log", "error", err)
		return nil, fmt.Errorf("failed to query change log: %w", err)
	}
	defer rows.Close()

	changes := []*history.Change{}
	for rows.Next() {
		var c history.Change
		err := rows.Scan(
			&c.ID,
			&c.ExternalID,
			&c.VoucherNumber,
			&c.Field,
			&c.OldValue,
			&c.NewValue,
			&c.OldCounter,
			&c.NewCounter,
			&c.ChangedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan change log entry", "error", err)
			return nil, fmt.Errorf("failed to scan change log entry: %w", err)
		}
		changes = append(changes, &c)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over change log", "error", err)
		return nil, fmt.Errorf("error iterating over change log: %w", err)
	}

	return changes, nil
}
