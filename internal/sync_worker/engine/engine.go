// Package engine keeps the local voucher mirror consistent with the remote ledger.
//
// A run reads the domain watermark, fetches everything the remote reports as changed
// after it, and applies the batch in one transaction: mirror rows, history snapshots,
// change-log rows, outbox events and the watermark advance commit or roll back together.
package engine

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/voucher-sync-ledger/internal/domain/event"
	"github.com/voucher-sync-ledger/internal/domain/history"
	"github.com/voucher-sync-ledger/internal/domain/master"
	"github.com/voucher-sync-ledger/internal/domain/outbox"
	"github.com/voucher-sync-ledger/internal/domain/shared"
	"github.com/voucher-sync-ledger/internal/domain/syncstatus"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
	"github.com/voucher-sync-ledger/internal/domain/watermark"
	"github.com/voucher-sync-ledger/internal/platform/metrics"
)

// Source is the remote ledger as seen by the engine
type Source interface {
	FetchVouchersSince(ctx context.Context, since int64, types []voucher.Type) ([]*voucher.Record, error)
	FetchVouchersInRange(ctx context.Context, from, to time.Time, types []voucher.Type) ([]*voucher.Record, error)
	FetchItemsSince(ctx context.Context, since int64) ([]*master.Item, error)
	FetchPartiesSince(ctx context.Context, since int64) ([]*master.Party, error)
}

// TxRunner runs fn in a transaction that is rolled back when fn fails
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// Repositories bundles the stores a batch writes to
type Repositories struct {
	Vouchers   voucher.Repository
	History    history.Repository
	Watermarks watermark.Repository
	Masters    master.Repository
	Outbox     outbox.Repository
}

func (r Repositories) withTx(tx pgx.Tx) Repositories {
	return Repositories{
		Vouchers:   r.Vouchers.WithTx(tx),
		History:    r.History.WithTx(tx),
		Watermarks: r.Watermarks.WithTx(tx),
		Masters:    r.Masters.WithTx(tx),
		Outbox:     r.Outbox.WithTx(tx),
	}
}

// Result summarises one run
type Result struct {
	Domain     shared.SyncDomain `json:"domain"`
	Fetched    int               `json:"fetched"`
	New        int               `json:"new"`
	Modified   int               `json:"modified"`
	Skipped    int               `json:"skipped"`
	Upserted   int               `json:"upserted,omitempty"` // master domains only
	Watermark  int64             `json:"watermark"`
	Busy       bool              `json:"busy"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
}

type recordOutcome int

const (
	outcomeSkipped recordOutcome = iota
	outcomeNew
	outcomeModified
)

type Engine struct {
	db         TxRunner
	source     Source
	repos      Repositories
	status     syncstatus.Store
	metrics    *metrics.SyncMetrics
	allowTypes []voucher.Type
	guard      *guard
	logger     *slog.Logger
	now        func() time.Time
}

func NewEngine(
	logger *slog.Logger,
	db TxRunner,
	source Source,
	repos Repositories,
	status syncstatus.Store,
	m *metrics.SyncMetrics,
	allowTypes []voucher.Type,
) *Engine {
	if len(allowTypes) == 0 {
		allowTypes = voucher.DefaultTypes
	}
	return &Engine{
		db:         db,
		source:     source,
		repos:      repos,
		status:     status,
		metrics:    m,
		allowTypes: allowTypes,
		guard:      newGuard(shared.AllDomains...),
		logger:     logger.With("component", "sync_engine"),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Sync pulls every voucher changed after the stored watermark
func (e *Engine) Sync(ctx context.Context) (*Result, error) {
	return e.run(ctx, shared.DomainVouchers, func(ctx context.Context, since int64, res *Result) error {
		records, err := e.source.FetchVouchersSince(ctx, since, e.allowTypes)
		if err != nil {
			return err
		}
		return e.applyBatch(ctx, since, e.filterAllowed(records), res)
	})
}

// SyncRange re-reads vouchers dated within [from, to]. The watermark only moves if the
// batch carries counters above it.
func (e *Engine) SyncRange(ctx context.Context, from, to time.Time) (*Result, error) {
	if from.After(to) {
		return nil, ErrInvalidRange{From: from, To: to}
	}
	return e.run(ctx, shared.DomainVouchers, func(ctx context.Context, since int64, res *Result) error {
		records, err := e.source.FetchVouchersInRange(ctx, from, to, e.allowTypes)
		if err != nil {
			return err
		}
		return e.applyBatch(ctx, since, e.filterAllowed(records), res)
	})
}

type batchFunc func(ctx context.Context, since int64, res *Result) error

// run wraps a batch with the domain guard, status bookkeeping and metrics
func (e *Engine) run(ctx context.Context, domain shared.SyncDomain, batch batchFunc) (*Result, error) {
	if !e.guard.acquire(domain) {
		e.logger.Info("Sync already running, rejecting request", "domain", domain)
		e.metrics.ObserveRun(string(domain), metrics.OutcomeBusy, 0)
		return &Result{Domain: domain, Busy: true}, ErrConcurrentSyncRejected{Domain: domain}
	}
	defer e.guard.release(domain)

	logger := e.logger.With("domain", domain)
	res := &Result{Domain: domain, StartedAt: e.now()}

	status := e.loadStatus(ctx, domain)
	status.State = shared.SyncStateSyncing
	status.LastStartedAt = &res.StartedAt
	e.saveStatus(ctx, status)

	err := e.runBatch(ctx, domain, batch, res)
	res.FinishedAt = e.now()
	duration := res.FinishedAt.Sub(res.StartedAt)

	status.LastFinishedAt = &res.FinishedAt
	status.Fetched, status.New, status.Modified, status.Skipped = res.Fetched, res.New, res.Modified, res.Skipped
	if err != nil {
		status.State = shared.SyncStateError
		status.LastError = err.Error()
		e.saveStatus(ctx, status)
		e.metrics.ObserveRun(string(domain), metrics.OutcomeFailure, duration)
		logger.Error("Sync failed", "watermark", res.Watermark, "fetched", res.Fetched, "error", err)
		return res, err
	}

	status.State = shared.SyncStateIdle
	status.LastError = ""
	status.LastSuccessAt = &res.FinishedAt
	status.Watermark = res.Watermark
	e.saveStatus(ctx, status)

	e.metrics.ObserveRun(string(domain), metrics.OutcomeSuccess, duration)
	e.metrics.AddRecords(string(domain), metrics.KindFetched, res.Fetched)
	e.metrics.AddRecords(string(domain), metrics.KindNew, res.New)
	e.metrics.AddRecords(string(domain), metrics.KindModified, res.Modified+res.Upserted)
	e.metrics.AddRecords(string(domain), metrics.KindSkipped, res.Skipped)
	e.metrics.SetWatermark(string(domain), res.Watermark)

	logger.Info("Sync completed",
		"fetched", res.Fetched,
		"new", res.New,
		"modified", res.Modified,
		"skipped", res.Skipped,
		"upserted", res.Upserted,
		"watermark", res.Watermark,
		"duration", duration.String(),
	)
	return res, nil
}

func (e *Engine) runBatch(ctx context.Context, domain shared.SyncDomain, batch batchFunc, res *Result) error {
	since, err := e.repos.Watermarks.Get(ctx, domain)
	if err != nil {
		return ErrPersistenceFailure{Domain: domain, Err: err}
	}
	res.Watermark = since
	return batch(ctx, since, res)
}

func (e *Engine) filterAllowed(records []*voucher.Record) []*voucher.Record {
	kept := records[:0:0]
	for _, r := range records {
		if !voucher.Allowed(r.Type, e.allowTypes) {
			e.logger.Debug("Dropping voucher outside allow-list", "external_id", r.ExternalID, "type", r.Type)
			continue
		}
		kept = append(kept, r)
	}
	return kept
}

// applyBatch writes the records in counter order inside one transaction.
// Counts are copied to res only after commit.
func (e *Engine) applyBatch(ctx context.Context, since int64, records []*voucher.Record, res *Result) error {
	res.Fetched = len(records)
	if len(records) == 0 {
		return nil
	}

	ordered := slices.Clone(records)
	slices.SortStableFunc(ordered, func(a, b *voucher.Record) int {
		return cmp.Compare(a.ChangeCounter, b.ChangeCounter)
	})

	var counts Result
	committed := since
	err := e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		counts = Result{}
		repos := e.repos.withTx(tx)

		maxCounter := since
		for _, rec := range ordered {
			outcome, err := e.applyRecord(ctx, repos, rec)
			if err != nil {
				return err
			}
			switch outcome {
			case outcomeNew:
				counts.New++
			case outcomeModified:
				counts.Modified++
			default:
				counts.Skipped++
			}
			maxCounter = max(maxCounter, rec.ChangeCounter)
		}

		if maxCounter > since {
			if _, err := repos.Watermarks.Advance(ctx, shared.DomainVouchers, maxCounter); err != nil {
				return err
			}
			committed = maxCounter
		}
		return nil
	})
	if err != nil {
		return ErrPersistenceFailure{
			Domain:    shared.DomainVouchers,
			Watermark: since,
			BatchSize: len(records),
			Err:       err,
		}
	}

	res.New, res.Modified, res.Skipped = counts.New, counts.Modified, counts.Skipped
	res.Watermark = committed
	return nil
}

// applyRecord inserts, versions or skips a single record
func (e *Engine) applyRecord(ctx context.Context, repos Repositories, rec *voucher.Record) (recordOutcome, error) {
	stored, err := repos.Vouchers.LockForUpdate(ctx, rec.ExternalID)
	if err != nil && !errors.Is(err, voucher.ErrRecordNotFound{}) {
		return outcomeSkipped, err
	}

	if stored == nil {
		if err := repos.Vouchers.Insert(ctx, rec); err != nil {
			return outcomeSkipped, err
		}
		if err := e.enqueue(ctx, repos, rec, true); err != nil {
			return outcomeSkipped, err
		}
		e.logger.Debug("Voucher inserted", "external_id", rec.ExternalID, "change_counter", rec.ChangeCounter)
		return outcomeNew, nil
	}

	if !rec.Supersedes(stored) {
		e.logger.Debug("Ignoring out-of-order voucher",
			"external_id", rec.ExternalID,
			"incoming_counter", rec.ChangeCounter,
			"stored_counter", stored.ChangeCounter,
		)
		return outcomeSkipped, nil
	}

	changedAt := e.now()
	if err := repos.History.CreateSnapshot(ctx, history.NewSnapshot(stored, rec.ChangeCounter, changedAt)); err != nil {
		return outcomeSkipped, err
	}

	changes := history.RecordChange(stored, rec)
	if len(changes) > 0 {
		for i := range changes {
			changes[i].ChangedAt = changedAt
		}
		if err := repos.History.CreateChanges(ctx, changes); err != nil {
			return outcomeSkipped, err
		}
	}

	if err := repos.Vouchers.Update(ctx, rec); err != nil {
		return outcomeSkipped, err
	}
	if err := e.enqueue(ctx, repos, rec, false); err != nil {
		return outcomeSkipped, err
	}

	e.logger.Debug("Voucher modified",
		"external_id", rec.ExternalID,
		"old_counter", stored.ChangeCounter,
		"new_counter", rec.ChangeCounter,
		"changed_fields", len(changes),
	)
	return outcomeModified, nil
}

func (e *Engine) enqueue(ctx context.Context, repos Repositories, rec *voucher.Record, isNew bool) error {
	_, err := repos.Outbox.Enqueue(ctx, event.NewChangeEvent(rec, isNew))
	return err
}

func (e *Engine) loadStatus(ctx context.Context, domain shared.SyncDomain) *syncstatus.Status {
	status, err := e.status.Get(ctx, domain)
	if err != nil || status == nil {
		if err != nil {
			e.logger.Warn("Failed to read sync status, starting fresh", "domain", domain, "error", err)
		}
		return syncstatus.Idle(domain)
	}
	return status
}

// saveStatus is best effort; a status store outage must not fail the sync
func (e *Engine) saveStatus(ctx context.Context, status *syncstatus.Status) {
	if err := e.status.Save(ctx, status); err != nil {
		e.logger.Warn("Failed to save sync status", "domain", status.Domain, "state", status.State, "error", err)
	}
}
