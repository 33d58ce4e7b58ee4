package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidSyncKind  = errors.New("invalid sync kind")
	ErrInvalidSyncRange = errors.New("sync range requires from <= to")
)

// SyncKind selects which engine entry point a request triggers
type SyncKind string

const (
	SyncKindIncremental SyncKind = "incremental"
	SyncKindRange       SyncKind = "range"
	SyncKindMasters     SyncKind = "masters"
)

// SyncRequest defines a Kafka message asking the sync worker to run outside its schedule
type SyncRequest struct {
	RequestID     uuid.UUID `json:"request_id"`
	Kind          SyncKind  `json:"kind"`
	From          time.Time `json:"from,omitempty"`
	To            time.Time `json:"to,omitempty"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	RequestedAt   time.Time `json:"requested_at"`
}

// NewSyncRequest builds a validated request stamped with a fresh ID
func NewSyncRequest(kind SyncKind, from, to time.Time, correlationID string) (*SyncRequest, error) {
	req := &SyncRequest{
		RequestID:     uuid.New(),
		Kind:          kind,
		From:          from,
		To:            to,
		CorrelationID: correlationID,
		RequestedAt:   time.Now().UTC(),
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}

// Validate checks the kind and, for range requests, the bounds
func (r *SyncRequest) Validate() error {
	switch r.Kind {
	case SyncKindIncremental, SyncKindMasters:
		return nil
	case SyncKindRange:
		if r.From.IsZero() || r.To.IsZero() || r.From.After(r.To) {
			return ErrInvalidSyncRange
		}
		return nil
	default:
		return ErrInvalidSyncKind
	}
}
