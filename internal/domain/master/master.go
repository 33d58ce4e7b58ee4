// Package master mirrors the remote ledger's stock item and party masters.
package master

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

var ErrMissingName = errors.New("master record name cannot be empty")

// Item is a stock item master
type Item struct {
	Name          string    `json:"name"`
	Group         string    `json:"group"`
	BaseUnit      string    `json:"base_unit"`
	ChangeCounter int64     `json:"change_counter"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Party is a ledger party master (customer or supplier)
type Party struct {
	Name          string    `json:"name"`
	Group         string    `json:"group"`
	Email         string    `json:"email"`
	Phone         string    `json:"phone"`
	ChangeCounter int64     `json:"change_counter"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Repository upserts master rows. An upsert only applies when the incoming
// counter is higher than the stored one and reports whether it did.
type Repository interface {
	UpsertItem(ctx context.Context, item *Item) (bool, error)
	UpsertParty(ctx context.Context, party *Party) (bool, error)
	WithTx(tx pgx.Tx) Repository
}

func (i *Item) Validate() error {
	if i.Name == "" {
		return ErrMissingName
	}
	return nil
}

func (p *Party) Validate() error {
	if p.Name == "" {
		return ErrMissingName
	}
	return nil
}
