// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository can be bound to a transaction with WithTx so the sync engine can
// apply a whole batch atomically.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
	"github.com/voucher-sync-ledger/internal/platform/persistence"
)

const voucherColumns = `external_id, voucher_number, voucher_type, voucher_date, party_name, amount, narration, change_counter, created_at, updated_at`

// VoucherRepository implements the voucher.Repository interface for PostgreSQL
type VoucherRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewVoucherRepository creates a new PostgreSQL voucher repository
func NewVoucherRepository(logger *slog.Logger, db *persistence.PostgresDB) voucher.Repository {
	return &VoucherRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository that runs every statement on tx
func (r *VoucherRepository) WithTx(tx pgx.Tx) voucher.Repository {
	return &VoucherRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// GetByExternalID retrieves the mirrored voucher
func (r *VoucherRepository) GetByExternalID(ctx context.Context, externalID string) (*voucher.Record, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE external_id = $1`

	record, err := scanVoucher(r.querier.QueryRow(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, voucher.ErrRecordNotFound{ExternalID: externalID}
		}
		r.logger.Error("Failed to get voucher", "external_id", externalID, "error", err)
		return nil, fmt.Errorf("failed to get voucher: %w", err)
	}

	return record, nil
}

// LockForUpdate reads the voucher with a row lock held until the transaction ends.
// Snapshot versions are assigned while this lock is held.
func (r *VoucherRepository) LockForUpdate(ctx context.Context, externalID string) (*voucher.Record, error) {
	query := `SELECT ` + voucherColumns + ` FROM vouchers WHERE external_id = $1 FOR UPDATE`

	record, err := scanVoucher(r.querier.QueryRow(ctx, query, externalID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, voucher.ErrRecordNotFound{ExternalID: externalID}
		}
		r.logger.Error("Failed to lock voucher for update", "external_id", externalID, "error", err)
		return nil, fmt.Errorf("failed to lock voucher for update: %w", err)
	}

	return record, nil
}

// Insert stores a voucher seen for the first time
func (r *VoucherRepository) Insert(ctx context.Context, record *voucher.Record) error {
	query := `
		INSERT INTO vouchers (external_id, voucher_number, voucher_type, voucher_date, party_name, amount, narration, change_counter, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	err := r.querier.QueryRow(ctx, query,
		record.ExternalID,
		record.Number,
		string(record.Type),
		record.Date,
		record.PartyName,
		record.Amount,
		record.Narration,
		record.ChangeCounter,
	).Scan(&record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert voucher", "external_id", record.ExternalID, "error", err)
		return fmt.Errorf("failed to insert voucher: %w", err)
	}

	return nil
}

// Update overwrites the mirrored state. The counter guard keeps a stale write
// from replacing a newer row.
func (r *VoucherRepository) Update(ctx context.Context, record *voucher.Record) error {
	query := `
		UPDATE vouchers
		SET voucher_number = $2, voucher_type = $3, voucher_date = $4, party_name = $5,
		    amount = $6, narration = $7, change_counter = $8, updated_at = NOW()
		WHERE external_id = $1 AND change_counter < $8
	`

	result, err := r.querier.Exec(ctx, query,
		record.ExternalID,
		record.Number,
		string(record.Type),
		record.Date,
		record.PartyName,
		record.Amount,
		record.Narration,
		record.ChangeCounter,
	)
	if err != nil {
		r.logger.Error("Failed to update voucher", "external_id", record.ExternalID, "error", err)
		return fmt.Errorf("failed to update voucher: %w", err)
	}

	if result.RowsAffected() == 0 {
		return voucher.ErrRecordNotFound{ExternalID: record.ExternalID}
	}

	return nil
}

func scanVoucher(row pgx.Row) (*voucher.Record, error) {
	var (
		record  voucher.Record
		typeTag string
	)
	err := row.Scan(
		&record.ExternalID,
		&record.Number,
		&typeTag,
		&record.Date,
		&record.PartyName,
		&record.Amount,
		&record.Narration,
		&record.ChangeCounter,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	record.Type = voucher.Type(typeTag)
	return &record, nil
}
