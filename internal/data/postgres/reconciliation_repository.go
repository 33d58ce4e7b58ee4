package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/voucher-sync-ledger/internal/domain/reconciliation"
	"github.com/voucher-sync-ledger/internal/platform/persistence"
)

// PortalRepository reads collector portal transactions
type PortalRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewPortalRepository(logger *slog.Logger, db *persistence.PostgresDB) reconciliation.PortalRepository {
	return &PortalRepository{querier: db.Pool(), logger: logger}
}

// ListByStatus returns transactions in [from, to) with the given status
func (r *PortalRepository) ListByStatus(ctx context.Context, from, to time.Time, status string) ([]reconciliation.PortalTransaction, error) {
	query := `
		SELECT id, reference, payer, amount, status, transacted_at
		FROM portal_transactions
		WHERE transacted_at >= $1 AND transacted_at < $2 AND status = $3
		ORDER BY transacted_at ASC, id ASC
	`

	rows, err := r.querier.Query(ctx, query, from, to, status)
	if err != nil {
		r.logger.Error("Failed to list portal transactions", "error", err)
		return nil, fmt.Errorf("failed to list portal transactions: %w", err)
	}
	defer rows.Close()

	var txs []reconciliation.PortalTransaction
	for rows.Next() {
		var p reconciliation.PortalTransaction
		if err := rows.Scan(&p.ID, &p.Reference, &p.Payer, &p.Amount, &p.Status, &p.TransactedAt); err != nil {
			r.logger.Error("Failed to scan portal transaction", "error", err)
			return nil, fmt.Errorf("failed to scan portal transaction: %w", err)
		}
		txs = append(txs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over portal transactions: %w", err)
	}

	return txs, nil
}

// BankRepository reads bank statement lines
type BankRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewBankRepository(logger *slog.Logger, db *persistence.PostgresDB) reconciliation.BankRepository {
	return &BankRepository{querier: db.Pool(), logger: logger}
}

// ListCredits returns credit lines dated within [from, to] in statement order
func (r *BankRepository) ListCredits(ctx context.Context, from, to time.Time) ([]reconciliation.BankStatementLine, error) {
	query := `
		SELECT id, value_date, description, reference, credit, debit
		FROM bank_statement_lines
		WHERE value_date >= $1 AND value_date <= $2 AND credit > 0
		ORDER BY value_date ASC, id ASC
	`

	rows, err := r.querier.Query(ctx, query, from, to)
	if err != nil {
		r.logger.Error("Failed to list bank statement lines", "error", err)
		return nil, fmt.Errorf("failed to list bank statement lines: %w", err)
	}
	defer rows.Close()

	var lines []reconciliation.BankStatementLine
	for rows.Next() {
		var b reconciliation.BankStatementLine
		if err := rows.Scan(&b.ID, &b.ValueDate, &b.Description, &b.Reference, &b.Credit, &b.Debit); err != nil {
			r.logger.Error("Failed to scan bank statement line", "error", err)
			return nil, fmt.Errorf("failed to scan bank statement line: %w", err)
		}
		lines = append(lines, b)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over bank statement lines: %w", err)
	}

	return lines, nil
}

// AdjustmentRepository manages manual ledger adjustments
type AdjustmentRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

func NewAdjustmentRepository(logger *slog.Logger, db *persistence.PostgresDB) reconciliation.AdjustmentRepository {
	return &AdjustmentRepository{querier: db.Pool(), logger: logger}
}

func (r *AdjustmentRepository) Create(ctx context.Context, adj *reconciliation.Adjustment) error {
	query := `
		INSERT INTO ledger_adjustments (id, kind, adjustment_date, amount, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.querier.Exec(ctx, query, adj.ID, string(adj.Kind), adj.Date, adj.Amount, adj.Note, adj.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to create adjustment", "id", adj.ID.String(), "error", err)
		return fmt.Errorf("failed to create adjustment: %w", err)
	}

	return nil
}

func (r *AdjustmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*reconciliation.Adjustment, error) {
	query := `
		SELECT id, kind, adjustment_date, amount, note, created_at
		FROM ledger_adjustments
		WHERE id = $1
	`

	adj, err := scanAdjustment(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reconciliation.ErrAdjustmentNotFound{ID: id}
		}
		r.logger.Error("Failed to get adjustment", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get adjustment: %w", err)
	}

	return adj, nil
}

// List returns adjustments dated within [from, to], oldest first
func (r *AdjustmentRepository) List(ctx context.Context, from, to time.Time) ([]reconciliation.Adjustment, error) {
	query := `
		SELECT id, kind, adjustment_date, amount, note, created_at
		FROM ledger_adjustments
		WHERE adjustment_date >= $1 AND adjustment_date <= $2
		ORDER BY adjustment_date ASC, created_at ASC
	`

	rows, err := r.querier.Query(ctx, query, from, to)
	if err != nil {
		r.logger.Error("Failed to list adjustments", "error", err)
		return nil, fmt.Errorf("failed to list adjustments: %w", err)
	}
	defer rows.Close()

	adjustments := []reconciliation.Adjustment{}
	for rows.Next() {
		adj, err := scanAdjustment(rows)
		if err != nil {
			r.logger.Error("Failed to scan adjustment", "error", err)
			return nil, fmt.Errorf("failed to scan adjustment: %w", err)
		}
		adjustments = append(adjustments, *adj)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over adjustments: %w", err)
	}

	return adjustments, nil
}

func (r *AdjustmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.querier.Exec(ctx, `DELETE FROM ledger_adjustments WHERE id = $1`, id)
	if err != nil {
		r.logger.Error("Failed to delete adjustment", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete adjustment: %w", err)
	}

	if result.RowsAffected() == 0 {
		return reconciliation.ErrAdjustmentNotFound{ID: id}
	}

	return nil
}

func scanAdjustment(row pgx.Row) (*reconciliation.Adjustment, error) {
	var (
		adj  reconciliation.Adjustment
		kind string
	)
	if err := row.Scan(&adj.ID, &kind, &adj.Date, &adj.Amount, &adj.Note, &adj.CreatedAt); err != nil {
		return nil, err
	}
	adj.Kind = reconciliation.AdjustmentKind(kind)
	return &adj, nil
}
