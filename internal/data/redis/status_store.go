// Package redis keeps the latest sync status per domain in Redis so every binary
// can read what the sync worker is doing.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/voucher-sync-ledger/internal/domain/shared"
	"github.com/voucher-sync-ledger/internal/domain/syncstatus"
)

const statusKeySegment = "sync_status"

type cmdable interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// StatusStore implements syncstatus.Store
type StatusStore struct {
	store  cmdable
	prefix string
	logger *slog.Logger
}

// NewStatusStore accepts a *redis.Client or any client exposing Get and Set
func NewStatusStore(logger *slog.Logger, client cmdable, prefix string) *StatusStore {
	return &StatusStore{
		store:  client,
		prefix: prefix,
		logger: logger,
	}
}

// Key returns the key holding domain's status, e.g. vsl:sync_status:vouchers
func (s *StatusStore) Key(domain shared.SyncDomain) string {
	if s.prefix == "" {
		return statusKeySegment + ":" + string(domain)
	}
	return s.prefix + ":" + statusKeySegment + ":" + string(domain)
}

func (s *StatusStore) Get(ctx context.Context, domain shared.SyncDomain) (*syncstatus.Status, error) {
	raw, err := s.store.Get(ctx, s.Key(domain)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return syncstatus.Idle(domain), nil
		}
		s.logger.Error("Failed to get sync status", "domain", string(domain), "error", err)
		return nil, fmt.Errorf("failed to get sync status: %w", err)
	}

	var status syncstatus.Status
	if err := json.Unmarshal(raw, &status); err != nil {
		s.logger.Warn("Discarding unreadable sync status", "domain", string(domain), "error", err)
		return syncstatus.Idle(domain), nil
	}

	return &status, nil
}

func (s *StatusStore) Save(ctx context.Context, status *syncstatus.Status) error {
	raw, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal sync status: %w", err)
	}

	if err := s.store.Set(ctx, s.Key(status.Domain), raw, 0).Err(); err != nil {
		s.logger.Error("Failed to save sync status", "domain", string(status.Domain), "error", err)
		return fmt.Errorf("failed to save sync status: %w", err)
	}

	return nil
}

// List returns one status per known domain
func (s *StatusStore) List(ctx context.Context) ([]*syncstatus.Status, error) {
	statuses := make([]*syncstatus.Status, 0, len(shared.AllDomains))
	for _, d := range shared.AllDomains {
		st, err := s.Get(ctx, d)
		if err != nil {
			return nil, err
		}
		statuses = append(statuses, st)
	}
	return statuses, nil
}
