package engine

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/voucher-sync-ledger/internal/domain/master"
	"github.com/voucher-sync-ledger/internal/domain/shared"
)

// SyncMasters refreshes stock items and parties. Each domain has its own watermark and
// guard; a failure in one does not stop the other.
func (e *Engine) SyncMasters(ctx context.Context) ([]*Result, error) {
	items, itemsErr := e.run(ctx, shared.DomainItems, e.syncItems)
	parties, partiesErr := e.run(ctx, shared.DomainParties, e.syncParties)
	return []*Result{items, parties}, errors.Join(itemsErr, partiesErr)
}

func (e *Engine) syncItems(ctx context.Context, since int64, res *Result) error {
	items, err := e.source.FetchItemsSince(ctx, since)
	if err != nil {
		return err
	}
	res.Fetched = len(items)

	counters := make([]int64, 0, len(items))
	for _, it := range items {
		counters = append(counters, it.ChangeCounter)
	}
	return e.applyMasterBatch(ctx, shared.DomainItems, since, counters, res, func(ctx context.Context, repo master.Repository) (int, int, error) {
		upserted, skipped := 0, 0
		for _, it := range items {
			if err := it.Validate(); err != nil {
				skipped++
				continue
			}
			applied, err := repo.UpsertItem(ctx, it)
			if err != nil {
				return 0, 0, err
			}
			if applied {
				upserted++
			} else {
				skipped++
			}
		}
		return upserted, skipped, nil
	})
}

func (e *Engine) syncParties(ctx context.Context, since int64, res *Result) error {
	parties, err := e.source.FetchPartiesSince(ctx, since)
	if err != nil {
		return err
	}
	res.Fetched = len(parties)

	counters := make([]int64, 0, len(parties))
	for _, p := range parties {
		counters = append(counters, p.ChangeCounter)
	}
	return e.applyMasterBatch(ctx, shared.DomainParties, since, counters, res, func(ctx context.Context, repo master.Repository) (int, int, error) {
		upserted, skipped := 0, 0
		for _, p := range parties {
			if err := p.Validate(); err != nil {
				skipped++
				continue
			}
			applied, err := repo.UpsertParty(ctx, p)
			if err != nil {
				return 0, 0, err
			}
			if applied {
				upserted++
			} else {
				skipped++
			}
		}
		return upserted, skipped, nil
	})
}

type masterUpsertFunc func(ctx context.Context, repo master.Repository) (upserted, skipped int, err error)

func (e *Engine) applyMasterBatch(ctx context.Context, domain shared.SyncDomain, since int64, counters []int64, res *Result, upsert masterUpsertFunc) error {
	if len(counters) == 0 {
		return nil
	}

	maxCounter := since
	for _, c := range counters {
		maxCounter = max(maxCounter, c)
	}

	var upserted, skipped int
	err := e.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		upserted, skipped, err = upsert(ctx, e.repos.Masters.WithTx(tx))
		if err != nil {
			return err
		}
		if maxCounter > since {
			if _, err := e.repos.Watermarks.WithTx(tx).Advance(ctx, domain, maxCounter); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return ErrPersistenceFailure{Domain: domain, Watermark: since, BatchSize: len(counters), Err: err}
	}

	res.Upserted, res.Skipped = upserted, skipped
	res.Watermark = maxCounter
	return nil
}
