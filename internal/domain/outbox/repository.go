package outbox

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/voucher-sync-ledger/internal/domain/event"
	"github.com/voucher-sync-ledger/internal/domain/shared"
)

// Repository is the change event outbox
type Repository interface {
	// Enqueue stores evt as a pending message. Bind the repository to the batch
	// transaction with WithTx so the event commits with the mirror change.
	Enqueue(ctx context.Context, evt *event.ChangeEvent) (*Message, error)
	// GetPending returns up to limit pending messages, oldest first, with Event decoded.
	// A row whose payload does not decode comes back with a nil Event.
	GetPending(ctx context.Context, limit int) ([]*Message, error)
	MarkPublished(ctx context.Context, id int64, at time.Time) error
	// RecordFailure counts one failed publish and parks the row as FAILED_TO_PUBLISH
	// when maxAttempts is reached. It returns the row's resulting status.
	RecordFailure(ctx context.Context, id int64, maxAttempts int, at time.Time) (shared.OutboxStatus, error)
	// Quarantine parks a row that can never be published
	Quarantine(ctx context.Context, id int64, at time.Time) error
	// PurgeProcessed deletes published messages last touched before cutoff
	PurgeProcessed(ctx context.Context, cutoff time.Time) (int64, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrMessageNotFound indicates a missing or no longer pending outbox row
type ErrMessageNotFound struct {
	ID int64
}

func (e ErrMessageNotFound) Error() string {
	return "outbox message not found: " + strconv.FormatInt(e.ID, 10)
}

// Is matches any ErrMessageNotFound when the target has no ID
func (e ErrMessageNotFound) Is(target error) bool {
	t, ok := target.(ErrMessageNotFound)
	if !ok {
		return false
	}
	return t.ID == 0 || t.ID == e.ID
}
