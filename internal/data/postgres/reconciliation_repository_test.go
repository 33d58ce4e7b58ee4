package postgres

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voucher-sync-ledger/internal/domain/reconciliation"
)

func TestPortalRepository_ListByStatus(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &PortalRepository{querier: mock, logger: newTestLogger()}
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)
	at := from.Add(9 * time.Hour)

	mock.ExpectQuery(regexp.QuoteMeta("FROM portal_transactions")).
		WithArgs(from, to, "SUCCESS").
		WillReturnRows(pgxmock.NewRows([]string{"id", "reference", "payer", "amount", "status", "transacted_at"}).
			AddRow(int64(1), "R-1", "Jane", "120.50", "SUCCESS", at))

	txs, err := repo.ListByStatus(ctx, from, to, "SUCCESS")
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, "R-1", txs[0].Reference)
	assert.True(t, decimal.RequireFromString("120.5").Equal(txs[0].Amount))
	assert.Equal(t, at, txs[0].TransactedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBankRepository_ListCredits(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &BankRepository{querier: mock, logger: newTestLogger()}
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("credit > 0")).
		WithArgs(from, to).
		WillReturnRows(pgxmock.NewRows([]string{"id", "value_date", "description", "reference", "credit", "debit"}).
			AddRow(int64(7), from, "PAYU SETTLEMENT", "UTR1", "500", "0"))

	lines, err := repo.ListCredits(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.True(t, decimal.NewFromInt(500).Equal(lines[0].Credit))
	assert.True(t, lines[0].Debit.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAdjustmentRepository(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &AdjustmentRepository{querier: mock, logger: newTestLogger()}
	date := time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)
	adj, err := reconciliation.NewAdjustment(reconciliation.AdjustmentServiceCharge, date, decimal.NewFromInt(5), "fee")
	require.NoError(t, err)

	t.Run("create", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("INSERT INTO ledger_adjustments")).
			WithArgs(adj.ID, "service_charge", date, adj.Amount, "fee", adj.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, repo.Create(ctx, adj))
	})

	t.Run("get", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FROM ledger_adjustments")).WithArgs(adj.ID).
			WillReturnRows(pgxmock.NewRows([]string{"id", "kind", "adjustment_date", "amount", "note", "created_at"}).
				AddRow(adj.ID, "service_charge", date, "5.00", "fee", adj.CreatedAt))

		got, err := repo.GetByID(ctx, adj.ID)
		require.NoError(t, err)
		assert.Equal(t, reconciliation.AdjustmentServiceCharge, got.Kind)
		assert.True(t, adj.Amount.Equal(got.Amount))
	})

	t.Run("get missing", func(t *testing.T) {
		id := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta("FROM ledger_adjustments")).WithArgs(id).WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByID(ctx, id)
		assert.ErrorIs(t, err, reconciliation.ErrAdjustmentNotFound{ID: id})
	})

	t.Run("list", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("adjustment_date >= $1")).WithArgs(date, date).
			WillReturnRows(pgxmock.NewRows([]string{"id", "kind", "adjustment_date", "amount", "note", "created_at"}).
				AddRow(adj.ID, "service_charge", date, "5.00", "fee", adj.CreatedAt))

		list, err := repo.List(ctx, date, date)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("delete missing", func(t *testing.T) {
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM ledger_adjustments")).WithArgs(adj.ID).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		assert.ErrorIs(t, repo.Delete(ctx, adj.ID), reconciliation.ErrAdjustmentNotFound{})
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
