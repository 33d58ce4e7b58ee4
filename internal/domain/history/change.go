package history

import (
	"time"

	"github.com/voucher-sync-ledger/internal/domain/voucher"
)

// Tracked field names, in the order changes are emitted
const (
	FieldNumber    = "number"
	FieldType      = "type"
	FieldDate      = "date"
	FieldPartyName = "party_name"
	FieldAmount    = "amount"
	FieldNarration = "narration"
)

const dateLayout = "2006-01-02"

type trackedField struct {
	name  string
	value func(r *voucher.Record) string
}

var trackedFields = []trackedField{
	{FieldNumber, func(r *voucher.Record) string { return r.Number }},
	{FieldType, func(r *voucher.Record) string { return string(r.Type) }},
	{FieldDate, func(r *voucher.Record) string { return formatDate(r.Date) }},
	{FieldPartyName, func(r *voucher.Record) string { return r.PartyName }},
	// sign conventions differ between debit and credit vouchers, so only magnitude counts
	{FieldAmount, func(r *voucher.Record) string { return voucher.NormalizeAmount(r.Amount).Abs().String() }},
	{FieldNarration, func(r *voucher.Record) string { return r.Narration }},
}

// TrackedFields returns the diffed field names in emission order
func TrackedFields() []string {
	names := make([]string, len(trackedFields))
	for i, f := range trackedFields {
		names[i] = f.name
	}
	return names
}

// Change is one field transition between two consecutive states of a voucher
type Change struct {
	ID            int64     `json:"id"`
	ExternalID    string    `json:"external_id"`
	VoucherNumber string    `json:"voucher_number"`
	Field         string    `json:"field"`
	OldValue      string    `json:"old_value"`
	NewValue      string    `json:"new_value"`
	OldCounter    int64     `json:"old_counter"`
	NewCounter    int64     `json:"new_counter"`
	ChangedAt     time.Time `json:"changed_at"`
}

// RecordChange diffs two states of the same voucher. It returns one Change per
// tracked field whose string form differs, in tracked field order.
// ChangedAt is left for the caller to stamp.
func RecordChange(old, new *voucher.Record) []Change {
	var changes []Change
	for _, f := range trackedFields {
		oldValue, newValue := f.value(old), f.value(new)
		if oldValue == newValue {
			continue
		}
		changes = append(changes, Change{
			ExternalID:    new.ExternalID,
			VoucherNumber: new.Number,
			Field:         f.name,
			OldValue:      oldValue,
			NewValue:      newValue,
			OldCounter:    old.ChangeCounter,
			NewCounter:    new.ChangeCounter,
		})
	}
	return changes
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
