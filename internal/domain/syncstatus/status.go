// Package syncstatus describes the externally visible state of each sync domain.
package syncstatus

import (
	"context"
	"time"

	"github.com/voucher-sync-ledger/internal/domain/shared"
)

// Status is the last known state of one domain's sync loop
type Status struct {
	Domain         shared.SyncDomain `json:"domain"`
	State          shared.SyncState  `json:"state"`
	LastError      string            `json:"last_error,omitempty"`
	LastStartedAt  *time.Time        `json:"last_started_at,omitempty"`
	LastFinishedAt *time.Time        `json:"last_finished_at,omitempty"`
	LastSuccessAt  *time.Time        `json:"last_success_at,omitempty"`
	Fetched        int               `json:"fetched"`
	New            int               `json:"new"`
	Modified       int               `json:"modified"`
	Skipped        int               `json:"skipped"`
	Watermark      int64             `json:"watermark"`
}

// Idle returns the status of a domain that has never run
func Idle(domain shared.SyncDomain) *Status {
	return &Status{Domain: domain, State: shared.SyncStateIdle}
}

// Store keeps the latest status per domain
type Store interface {
	// Get returns Idle(domain) when nothing was saved yet
	Get(ctx context.Context, domain shared.SyncDomain) (*Status, error)
	Save(ctx context.Context, status *Status) error
	List(ctx context.Context) ([]*Status, error)
}
