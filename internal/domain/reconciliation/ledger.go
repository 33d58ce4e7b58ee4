package reconciliation

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

const dayLayout = "2006-01-02"

const (
	missingCollectionAt = 12 * time.Hour
	serviceChargeAt     = 23*time.Hour + 59*time.Minute + 59*time.Second
)

// LedgerEntry is one reconciled line. Exactly one of Debit and Credit is nonzero.
type LedgerEntry struct {
	At          time.Time       `json:"at"`
	Date        string          `json:"date"`
	Description string          `json:"description"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Source      Source          `json:"source"`
	Window      string          `json:"window,omitempty"`
	Reference   string          `json:"reference,omitempty"`
	Balance     decimal.Decimal `json:"balance"`
}

// Ledger is the reconciled view, newest entry first
type Ledger struct {
	From           time.Time       `json:"from"`
	To             time.Time       `json:"to"`
	Entries        []LedgerEntry   `json:"entries"`
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	TotalCR        decimal.Decimal `json:"total_cr"`
	TotalDR        decimal.Decimal `json:"total_dr"`
	Balance        decimal.Decimal `json:"balance"`
}

// LedgerInput carries already loaded and filtered rows. Portal rows must be
// successful; bank lines must be settlement credits in date order.
type LedgerInput struct {
	From           time.Time
	To             time.Time
	Location       *time.Location
	Portal         []PortalTransaction
	BankLines      []BankStatementLine
	Adjustments    []Adjustment
	OpeningBalance decimal.Decimal
}

// BuildLedger merges the inputs into one ledger.
//
// Bank lines only carry a date, so each is attributed to a settlement window by
// position: the i-th line of a day settles the i-th window that saw portal
// activity that day. Extra lines stack on the last active window; a day with no
// activity uses all windows in order.
func BuildLedger(in LedgerInput) *Ledger {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}

	var entries []LedgerEntry
	active := make(map[string][]Window)

	for _, p := range in.Portal {
		ts := p.TransactedAt.In(loc)
		day := ts.Format(dayLayout)
		w := WindowFor(ts)
		if !slices.ContainsFunc(active[day], func(a Window) bool { return a.Index == w.Index }) {
			active[day] = append(active[day], w)
		}
		entries = append(entries, LedgerEntry{
			At:          ts,
			Date:        day,
			Description: "Collection: " + p.Payer,
			Credit:      p.Amount.Abs(),
			Source:      SourceCollectorPortal,
			Reference:   p.Reference,
		})
	}
	for day := range active {
		slices.SortFunc(active[day], func(a, b Window) int { return a.Index - b.Index })
	}

	lineOfDay := make(map[string]int)
	for _, b := range in.BankLines {
		day := b.ValueDate.Format(dayLayout)
		windows := active[day]
		if len(windows) == 0 {
			windows = SettlementWindows
		}
		i := lineOfDay[day]
		lineOfDay[day]++
		w := windows[min(i, len(windows)-1)]

		settled := at(b.ValueDate, w.SettlesAt, loc)
		entries = append(entries, LedgerEntry{
			At:          settled,
			Date:        day,
			Description: "Bank settlement: " + b.Description,
			Debit:       b.Credit.Abs(),
			Source:      SourceBankStatement,
			Window:      w.Label,
			Reference:   b.Reference,
		})
	}

	for _, a := range in.Adjustments {
		e := LedgerEntry{
			Date:      a.Date.Format(dayLayout),
			Source:    SourceManualAdjustment,
			Reference: a.ID.String(),
		}
		switch a.Kind {
		case AdjustmentMissingCollection:
			e.At = at(a.Date, missingCollectionAt, loc)
			e.Description = "Missing collection"
			e.Credit = a.Amount.Abs()
		case AdjustmentServiceCharge:
			e.At = at(a.Date, serviceChargeAt, loc)
			e.Description = "Service charge"
			e.Debit = a.Amount.Abs()
		default:
			continue
		}
		if a.Note != "" {
			e.Description += ": " + a.Note
		}
		entries = append(entries, e)
	}

	ledger := &Ledger{
		From:           in.From,
		To:             in.To,
		OpeningBalance: in.OpeningBalance,
		TotalCR:        decimal.Zero,
		TotalDR:        decimal.Zero,
	}

	// running balance walks oldest first
	order := make([]int, len(entries))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return entries[a].At.Compare(entries[b].At)
	})
	balance := in.OpeningBalance
	for _, i := range order {
		balance = balance.Add(entries[i].Credit).Sub(entries[i].Debit)
		entries[i].Balance = balance
		ledger.TotalCR = ledger.TotalCR.Add(entries[i].Credit)
		ledger.TotalDR = ledger.TotalDR.Add(entries[i].Debit)
	}
	ledger.Balance = in.OpeningBalance.Add(ledger.TotalCR).Sub(ledger.TotalDR)

	slices.SortStableFunc(entries, func(a, b LedgerEntry) int {
		return b.At.Compare(a.At)
	})
	if entries == nil {
		entries = []LedgerEntry{}
	}
	ledger.Entries = entries
	return ledger
}
