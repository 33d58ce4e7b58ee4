package engine

import (
	"fmt"
	"time"

	"github.com/voucher-sync-ledger/internal/domain/shared"
)

// ErrPersistenceFailure reports a batch that was rolled back
type ErrPersistenceFailure struct {
	Domain    shared.SyncDomain
	Watermark int64
	BatchSize int
	Err       error
}

func (e ErrPersistenceFailure) Error() string {
	return fmt.Sprintf("persistence failure for %s (watermark %d, batch %d): %v", e.Domain, e.Watermark, e.BatchSize, e.Err)
}

func (e ErrPersistenceFailure) Unwrap() error {
	return e.Err
}

// Is matches any ErrPersistenceFailure when the target has no Domain
func (e ErrPersistenceFailure) Is(target error) bool {
	t, ok := target.(ErrPersistenceFailure)
	if !ok {
		return false
	}
	return t.Domain == "" || t.Domain == e.Domain
}

// ErrConcurrentSyncRejected is returned when a run for the same domain is already in flight
type ErrConcurrentSyncRejected struct {
	Domain shared.SyncDomain
}

func (e ErrConcurrentSyncRejected) Error() string {
	return fmt.Sprintf("sync already running for %s", e.Domain)
}

func (e ErrConcurrentSyncRejected) Is(target error) bool {
	t, ok := target.(ErrConcurrentSyncRejected)
	if !ok {
		return false
	}
	return t.Domain == "" || t.Domain == e.Domain
}

// ErrInvalidRange is returned by SyncRange when from is after to
type ErrInvalidRange struct {
	From, To time.Time
}

func (e ErrInvalidRange) Error() string {
	return fmt.Sprintf("invalid sync range: %s is after %s", e.From.Format(time.DateOnly), e.To.Format(time.DateOnly))
}

func (e ErrInvalidRange) Is(target error) bool {
	_, ok := target.(ErrInvalidRange)
	return ok
}
