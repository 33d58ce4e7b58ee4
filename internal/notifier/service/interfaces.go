package service

import (
	"context"

	"github.com/voucher-sync-ledger/internal/domain/event"
)

// EventDispatcher turns one change event into alerts
type EventDispatcher interface {
	Dispatch(ctx context.Context, evt *event.ChangeEvent) error
}
