package engine

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
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
)

var errInjected = errors.New("injected failure")

// memState is everything a transaction can touch
type memState struct {
	vouchers   map[string]voucher.Record
	snapshots  []history.Snapshot
	changes    []history.Change
	watermarks map[shared.SyncDomain]int64
	items      map[string]master.Item
	parties    map[string]master.Party
	outbox     []outbox.Message
}

func (s memState) clone() memState {
	return memState{
		vouchers:   maps.Clone(s.vouchers),
		snapshots:  slices.Clone(s.snapshots),
		changes:    slices.Clone(s.changes),
		watermarks: maps.Clone(s.watermarks),
		items:      maps.Clone(s.items),
		parties:    maps.Clone(s.parties),
		outbox:     slices.Clone(s.outbox),
	}
}

// memDB is an in-memory stand-in for Postgres. ExecuteTx restores the previous
// state when fn fails.
type memDB struct {
	state  memState
	failOn map[string]int // operation -> fail on the nth call (1-based)
	calls  map[string]int
}

func newMemDB() *memDB {
	return &memDB{
		state: memState{
			vouchers:   map[string]voucher.Record{},
			watermarks: map[shared.SyncDomain]int64{},
			items:      map[string]master.Item{},
			parties:    map[string]master.Party{},
		},
		failOn: map[string]int{},
		calls:  map[string]int{},
	}
}

func (db *memDB) ExecuteTx(_ context.Context, fn func(tx pgx.Tx) error) error {
	backup := db.state.clone()
	if err := fn(nil); err != nil {
		db.state = backup
		return err
	}
	return nil
}

func (db *memDB) hit(op string) error {
	db.calls[op]++
	if n, ok := db.failOn[op]; ok && db.calls[op] == n {
		return errInjected
	}
	return nil
}

func (db *memDB) repositories() Repositories {
	return Repositories{
		Vouchers:   &memVouchers{db},
		History:    &memHistory{db},
		Watermarks: &memWatermarks{db},
		Masters:    &memMasters{db},
		Outbox:     &memOutbox{db},
	}
}

func (db *memDB) snapshotsFor(externalID string) []history.Snapshot {
	var out []history.Snapshot
	for _, s := range db.state.snapshots {
		if s.ExternalID == externalID {
			out = append(out, s)
		}
	}
	return out
}

type memVouchers struct{ db *memDB }

func (r *memVouchers) GetByExternalID(_ context.Context, id string) (*voucher.Record, error) {
	rec, ok := r.db.state.vouchers[id]
	if !ok {
		return nil, voucher.ErrRecordNotFound{ExternalID: id}
	}
	return &rec, nil
}

func (r *memVouchers) LockForUpdate(ctx context.Context, id string) (*voucher.Record, error) {
	if err := r.db.hit("vouchers.lock"); err != nil {
		return nil, err
	}
	return r.GetByExternalID(ctx, id)
}

func (r *memVouchers) Insert(_ context.Context, rec *voucher.Record) error {
	if err := r.db.hit("vouchers.insert"); err != nil {
		return err
	}
	if _, ok := r.db.state.vouchers[rec.ExternalID]; ok {
		return errors.New("duplicate key")
	}
	r.db.state.vouchers[rec.ExternalID] = *rec
	return nil
}

func (r *memVouchers) Update(_ context.Context, rec *voucher.Record) error {
	if err := r.db.hit("vouchers.update"); err != nil {
		return err
	}
	stored, ok := r.db.state.vouchers[rec.ExternalID]
	if !ok || stored.ChangeCounter >= rec.ChangeCounter {
		return voucher.ErrRecordNotFound{ExternalID: rec.ExternalID}
	}
	r.db.state.vouchers[rec.ExternalID] = *rec
	return nil
}

func (r *memVouchers) WithTx(pgx.Tx) voucher.Repository { return r }

type memHistory struct{ db *memDB }

func (r *memHistory) CreateSnapshot(_ context.Context, s *history.Snapshot) error {
	if err := r.db.hit("history.snapshot"); err != nil {
		return err
	}
	s.Version = len(r.db.snapshotsFor(s.ExternalID)) + 1
	s.ID = int64(len(r.db.state.snapshots) + 1)
	r.db.state.snapshots = append(r.db.state.snapshots, *s)
	return nil
}

func (r *memHistory) CreateChanges(_ context.Context, changes []history.Change) error {
	if err := r.db.hit("history.changes"); err != nil {
		return err
	}
	r.db.state.changes = append(r.db.state.changes, changes...)
	return nil
}

func (r *memHistory) GetHistory(_ context.Context, id string) ([]*history.Snapshot, error) {
	out := []*history.Snapshot{}
	for _, s := range r.db.snapshotsFor(id) {
		out = append(out, &s)
	}
	return out, nil
}

func (r *memHistory) GetChangeLog(_ context.Context, id string) ([]*history.Change, error) {
	out := []*history.Change{}
	for _, c := range r.db.state.changes {
		if c.ExternalID == id {
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *memHistory) GetRecentChanges(context.Context, int) ([]*history.Change, error) {
	return nil, nil
}

func (r *memHistory) CountByField(context.Context) ([]history.FieldStat, error) {
	return nil, nil
}

func (r *memHistory) WithTx(pgx.Tx) history.Repository { return r }

type memWatermarks struct{ db *memDB }

func (r *memWatermarks) Get(_ context.Context, d shared.SyncDomain) (int64, error) {
	if err := r.db.hit("watermarks.get"); err != nil {
		return 0, err
	}
	return r.db.state.watermarks[d], nil
}

func (r *memWatermarks) Advance(_ context.Context, d shared.SyncDomain, counter int64) (bool, error) {
	if err := r.db.hit("watermarks.advance"); err != nil {
		return false, err
	}
	if counter <= r.db.state.watermarks[d] {
		return false, nil
	}
	r.db.state.watermarks[d] = counter
	return true, nil
}

func (r *memWatermarks) List(context.Context) ([]*watermark.Watermark, error) {
	return nil, nil
}

func (r *memWatermarks) WithTx(pgx.Tx) watermark.Repository { return r }

type memMasters struct{ db *memDB }

func (r *memMasters) UpsertItem(_ context.Context, it *master.Item) (bool, error) {
	if err := r.db.hit("masters.item"); err != nil {
		return false, err
	}
	if stored, ok := r.db.state.items[it.Name]; ok && stored.ChangeCounter >= it.ChangeCounter {
		return false, nil
	}
	r.db.state.items[it.Name] = *it
	return true, nil
}

func (r *memMasters) UpsertParty(_ context.Context, p *master.Party) (bool, error) {
	if err := r.db.hit("masters.party"); err != nil {
		return false, err
	}
	if stored, ok := r.db.state.parties[p.Name]; ok && stored.ChangeCounter >= p.ChangeCounter {
		return false, nil
	}
	r.db.state.parties[p.Name] = *p
	return true, nil
}

func (r *memMasters) WithTx(pgx.Tx) master.Repository { return r }

type memOutbox struct{ db *memDB }

func (r *memOutbox) Enqueue(_ context.Context, evt *event.ChangeEvent) (*outbox.Message, error) {
	if err := r.db.hit("outbox.enqueue"); err != nil {
		return nil, err
	}
	m, err := outbox.NewMessage(evt)
	if err != nil {
		return nil, err
	}
	m.ID = int64(len(r.db.state.outbox) + 1)
	r.db.state.outbox = append(r.db.state.outbox, *m)
	return m, nil
}

func (r *memOutbox) GetPending(context.Context, int) ([]*outbox.Message, error) { return nil, nil }

func (r *memOutbox) MarkPublished(context.Context, int64, time.Time) error { return nil }

func (r *memOutbox) RecordFailure(context.Context, int64, int, time.Time) (shared.OutboxStatus, error) {
	return shared.OutboxStatusPending, nil
}

func (r *memOutbox) Quarantine(context.Context, int64, time.Time) error { return nil }

func (r *memOutbox) PurgeProcessed(context.Context, time.Time) (int64, error) { return 0, nil }

func (r *memOutbox) WithTx(pgx.Tx) outbox.Repository { return r }

// fakeSource serves a configurable snapshot of the remote ledger
type fakeSource struct {
	mu          sync.Mutex
	vouchers    []*voucher.Record
	items       []*master.Item
	parties     []*master.Party
	err         error
	ignoreSince bool // return everything regardless of the requested counter

	sinceCalls []int64
	rangeCalls [][2]time.Time

	entered chan struct{}
	release chan struct{}
}

func (f *fakeSource) set(records ...*voucher.Record) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vouchers = records
}

func (f *fakeSource) block() {
	if f.entered == nil {
		return
	}
	f.entered <- struct{}{}
	<-f.release
}

func (f *fakeSource) FetchVouchersSince(_ context.Context, since int64, types []voucher.Type) ([]*voucher.Record, error) {
	f.block()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sinceCalls = append(f.sinceCalls, since)
	if f.err != nil {
		return nil, f.err
	}
	var out []*voucher.Record
	for _, r := range f.vouchers {
		if f.ignoreSince || r.ChangeCounter > since {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSource) FetchVouchersInRange(_ context.Context, from, to time.Time, _ []voucher.Type) ([]*voucher.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rangeCalls = append(f.rangeCalls, [2]time.Time{from, to})
	if f.err != nil {
		return nil, f.err
	}
	var out []*voucher.Record
	for _, r := range f.vouchers {
		if !r.Date.Before(from) && !r.Date.After(to) {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSource) FetchItemsSince(_ context.Context, since int64) ([]*master.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*master.Item
	for _, it := range f.items {
		if it.ChangeCounter > since {
			out = append(out, it)
		}
	}
	return out, nil
}

func (f *fakeSource) FetchPartiesSince(_ context.Context, since int64) ([]*master.Party, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []*master.Party
	for _, p := range f.parties {
		if p.ChangeCounter > since {
			out = append(out, p)
		}
	}
	return out, nil
}

type memStatus struct {
	mu       sync.Mutex
	statuses map[shared.SyncDomain]syncstatus.Status
	history  []shared.SyncState
}

func newMemStatus() *memStatus {
	return &memStatus{statuses: map[shared.SyncDomain]syncstatus.Status{}}
}

func (s *memStatus) Get(_ context.Context, d shared.SyncDomain) (*syncstatus.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.statuses[d]
	if !ok {
		return syncstatus.Idle(d), nil
	}
	return &st, nil
}

func (s *memStatus) Save(_ context.Context, st *syncstatus.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[st.Domain] = *st
	s.history = append(s.history, st.State)
	return nil
}

func (s *memStatus) List(context.Context) ([]*syncstatus.Status, error) {
	return nil, nil
}
