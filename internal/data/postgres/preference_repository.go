package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/voucher-sync-ledger/internal/domain/alert"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
	"github.com/voucher-sync-ledger/internal/platform/persistence"
)

const preferenceColumns = `subscriber_id, notify_new, notify_modified, large_amount_threshold, voucher_types, active, updated_at`

// PreferenceRepository implements alert.PreferenceRepository for PostgreSQL
type PreferenceRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewPreferenceRepository(logger *slog.Logger, db *persistence.PostgresDB) alert.PreferenceRepository {
	return &PreferenceRepository{querier: db.Pool(), logger: logger}
}

func (r *PreferenceRepository) Get(ctx context.Context, subscriberID string) (*alert.Preference, error) {
	query := `SELECT ` + preferenceColumns + ` FROM subscriber_preferences WHERE subscriber_id = $1`

	pref, err := scanPreference(r.querier.QueryRow(ctx, query, subscriberID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, alert.ErrPreferenceNotFound{SubscriberID: subscriberID}
		}
		r.logger.Error("Failed to get preferences", "subscriber_id", subscriberID, "error", err)
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}

	return pref, nil
}

func (r *PreferenceRepository) Upsert(ctx context.Context, pref *alert.Preference) error {
	query := `
		INSERT INTO subscriber_preferences (subscriber_id, notify_new, notify_modified, large_amount_threshold, voucher_types, active, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (subscriber_id) DO UPDATE
		SET notify_new = EXCLUDED.notify_new, notify_modified = EXCLUDED.notify_modified,
		    large_amount_threshold = EXCLUDED.large_amount_threshold, voucher_types = EXCLUDED.voucher_types,
		    active = EXCLUDED.active, updated_at = EXCLUDED.updated_at
		RETURNING updated_at
	`

	threshold := decimal.NullDecimal{}
	if pref.LargeAmountThreshold != nil {
		threshold = decimal.NewNullDecimal(*pref.LargeAmountThreshold)
	}
	types := make([]string, 0, len(pref.VoucherTypes))
	for _, t := range pref.VoucherTypes {
		types = append(types, string(t))
	}

	err := r.querier.QueryRow(ctx, query,
		pref.SubscriberID,
		pref.NotifyNew,
		pref.NotifyModified,
		threshold,
		types,
		pref.Active,
	).Scan(&pref.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to upsert preferences", "subscriber_id", pref.SubscriberID, "error", err)
		return fmt.Errorf("failed to upsert preferences: %w", err)
	}

	return nil
}

// ListActive returns every active subscriber's preferences
func (r *PreferenceRepository) ListActive(ctx context.Context) ([]*alert.Preference, error) {
	query := `SELECT ` + preferenceColumns + ` FROM subscriber_preferences WHERE active = TRUE ORDER BY subscriber_id ASC`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list active preferences", "error", err)
		return nil, fmt.Errorf("failed to list active preferences: %w", err)
	}
	defer rows.Close()

	var prefs []*alert.Preference
	for rows.Next() {
		pref, err := scanPreference(rows)
		if err != nil {
			r.logger.Error("Failed to scan preferences", "error", err)
			return nil, fmt.Errorf("failed to scan preferences: %w", err)
		}
		prefs = append(prefs, pref)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over preferences: %w", err)
	}

	return prefs, nil
}

func scanPreference(row pgx.Row) (*alert.Preference, error) {
	var (
		pref      alert.Preference
		threshold decimal.NullDecimal
		types     []string
	)
	err := row.Scan(
		&pref.SubscriberID,
		&pref.NotifyNew,
		&pref.NotifyModified,
		&threshold,
		&types,
		&pref.Active,
		&pref.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if threshold.Valid {
		d := threshold.Decimal
		pref.LargeAmountThreshold = &d
	}
	pref.VoucherTypes = voucher.ParseTypes(types)
	return &pref, nil
}
