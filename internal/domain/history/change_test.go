package history

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
)

func baseRecord() *voucher.Record {
	return &voucher.Record{
		ExternalID:    "V1",
		Number:        "S-1",
		Type:          voucher.TypeSales,
		Date:          time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		PartyName:     "Acme",
		Amount:        decimal.NewFromInt(100),
		Narration:     "a",
		ChangeCounter: 5,
	}
}

func TestRecordChange_SingleAmountChange(t *testing.T) {
	old := baseRecord()
	updated := baseRecord()
	updated.Amount = decimal.NewFromInt(150)
	updated.ChangeCounter = 7

	changes := RecordChange(old, updated)

	require.Len(t, changes, 1)
	assert.Equal(t, FieldAmount, changes[0].Field)
	assert.Equal(t, "100", changes[0].OldValue)
	assert.Equal(t, "150", changes[0].NewValue)
	assert.Equal(t, int64(5), changes[0].OldCounter)
	assert.Equal(t, int64(7), changes[0].NewCounter)
	assert.Equal(t, "V1", changes[0].ExternalID)
	assert.True(t, changes[0].ChangedAt.IsZero())
}

func TestRecordChange_AmountComparedByMagnitude(t *testing.T) {
	old := baseRecord()
	updated := baseRecord()
	updated.Amount = decimal.NewFromInt(-100)

	assert.Empty(t, RecordChange(old, updated))

	scaled := baseRecord()
	scaled.Amount = decimal.RequireFromString("100.00")
	assert.Empty(t, RecordChange(old, scaled), "100 and 100.00 are the same amount")
}

func TestRecordChange_AmountComparedAtStoredScale(t *testing.T) {
	stored := baseRecord()
	stored.Amount = decimal.RequireFromString("100.01")
	incoming := baseRecord()
	incoming.Amount = decimal.RequireFromString("100.005")
	incoming.ChangeCounter = 6

	assert.Empty(t, RecordChange(stored, incoming), "100.005 is stored as 100.01")

	incoming.Amount = decimal.RequireFromString("100.015")
	changes := RecordChange(stored, incoming)
	require.Len(t, changes, 1)
	assert.Equal(t, "100.01", changes[0].OldValue)
	assert.Equal(t, "100.02", changes[0].NewValue)
}

func TestRecordChange_FieldOrder(t *testing.T) {
	old := baseRecord()
	updated := baseRecord()
	updated.Narration = "b"
	updated.PartyName = "Acme Ltd"
	updated.Number = "S-2"
	updated.Date = old.Date.AddDate(0, 0, 1)

	changes := RecordChange(old, updated)

	require.Len(t, changes, 4)
	assert.Equal(t, FieldNumber, changes[0].Field)
	assert.Equal(t, FieldDate, changes[1].Field)
	assert.Equal(t, "2024-01-15", changes[1].OldValue)
	assert.Equal(t, "2024-01-16", changes[1].NewValue)
	assert.Equal(t, FieldPartyName, changes[2].Field)
	assert.Equal(t, FieldNarration, changes[3].Field)
	assert.Equal(t, "S-2", changes[3].VoucherNumber)
}

func TestRecordChange_Identical(t *testing.T) {
	assert.Empty(t, RecordChange(baseRecord(), baseRecord()))
}

func TestTrackedFields(t *testing.T) {
	assert.Equal(t,
		[]string{FieldNumber, FieldType, FieldDate, FieldPartyName, FieldAmount, FieldNarration},
		TrackedFields(),
	)
}

func TestNewSnapshot(t *testing.T) {
	old := baseRecord()
	at := time.Date(2024, 1, 16, 9, 30, 0, 0, time.UTC)
	s := NewSnapshot(old, 7, at)

	assert.Equal(t, "V1", s.ExternalID)
	assert.Equal(t, int64(5), s.ChangeCounter)
	assert.Equal(t, int64(7), s.SupersededBy)
	assert.Zero(t, s.Version)
	assert.True(t, old.Amount.Equal(s.Amount))
	assert.Equal(t, at, s.CreatedAt)
}
