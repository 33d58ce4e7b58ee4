package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/voucher-sync-ledger/internal/domain/master"
	"github.com/voucher-sync-ledger/internal/platform/persistence"
)

// MasterRepository implements master.Repository for PostgreSQL
type MasterRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewMasterRepository creates a new PostgreSQL master data repository
func NewMasterRepository(logger *slog.Logger, db *persistence.PostgresDB) master.Repository {
	return &MasterRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *MasterRepository) WithTx(tx pgx.Tx) master.Repository {
	return &MasterRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// UpsertItem writes the item unless the stored row already has an equal or newer counter
func (r *MasterRepository) UpsertItem(ctx context.Context, item *master.Item) (bool, error) {
	query := `
		INSERT INTO stock_items (name, group_name, base_unit, change_counter, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (name) DO UPDATE
		SET group_name = EXCLUDED.group_name, base_unit = EXCLUDED.base_unit,
		    change_counter = EXCLUDED.change_counter, updated_at = EXCLUDED.updated_at
		WHERE stock_items.change_counter < EXCLUDED.change_counter
	`

	result, err := r.querier.Exec(ctx, query, item.Name, item.Group, item.BaseUnit, item.ChangeCounter)
	if err != nil {
		r.logger.Error("Failed to upsert stock item", "name", item.Name, "error", err)
		return false, fmt.Errorf("failed to upsert stock item: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// UpsertParty writes the party unless the stored row already has an equal or newer counter
func (r *MasterRepository) UpsertParty(ctx context.Context, party *master.Party) (bool, error) {
	query := `
		INSERT INTO parties (name, group_name, email, phone, change_counter, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (name) DO UPDATE
		SET group_name = EXCLUDED.group_name, email = EXCLUDED.email, phone = EXCLUDED.phone,
		    change_counter = EXCLUDED.change_counter, updated_at = EXCLUDED.updated_at
		WHERE parties.change_counter < EXCLUDED.change_counter
	`

	result, err := r.querier.Exec(ctx, query, party.Name, party.Group, party.Email, party.Phone, party.ChangeCounter)
	if err != nil {
		r.logger.Error("Failed to upsert party", "name", party.Name, "error", err)
		return false, fmt.Errorf("failed to upsert party: %w", err)
	}

	return result.RowsAffected() > 0, nil
}
