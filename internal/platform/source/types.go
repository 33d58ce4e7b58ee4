package source

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/voucher-sync-ledger/internal/domain/master"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
)

const dateLayout = "2006-01-02"

type listResponse[T any] struct {
	Data []T `json:"data"`
}

// voucherDTO is the bridge's voucher shape. Amounts may arrive as JSON strings or numbers.
type voucherDTO struct {
	ExternalID    string          `json:"external_id"`
	Number        string          `json:"number"`
	Type          string          `json:"type"`
	Date          string          `json:"date"`
	PartyName     string          `json:"party_name"`
	Amount        decimal.Decimal `json:"amount"`
	Narration     string          `json:"narration"`
	ChangeCounter int64           `json:"change_counter"`
	IsCancelled   bool            `json:"is_cancelled"`
	IsOptional    bool            `json:"is_optional"`
}

type itemDTO struct {
	Name          string `json:"name"`
	Group         string `json:"group"`
	BaseUnit      string `json:"base_unit"`
	ChangeCounter int64  `json:"change_counter"`
}

type partyDTO struct {
	Name          string `json:"name"`
	Group         string `json:"group"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	ChangeCounter int64  `json:"change_counter"`
}

// skip reports whether the voucher should never be mirrored
func (d voucherDTO) skip() bool {
	return d.IsCancelled || d.IsOptional
}

func (d voucherDTO) toRecord() (*voucher.Record, error) {
	var date time.Time
	if s := strings.TrimSpace(d.Date); s != "" {
		parsed, err := time.Parse(dateLayout, s)
		if err != nil {
			return nil, err
		}
		date = parsed
	}
	r := &voucher.Record{
		ExternalID:    strings.TrimSpace(d.ExternalID),
		Number:        strings.TrimSpace(d.Number),
		Type:          voucher.Type(strings.TrimSpace(d.Type)),
		Date:          date,
		PartyName:     strings.TrimSpace(d.PartyName),
		Amount:        voucher.NormalizeAmount(d.Amount),
		Narration:     d.Narration,
		ChangeCounter: d.ChangeCounter,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

func (d itemDTO) toItem() *master.Item {
	return &master.Item{
		Name:          strings.TrimSpace(d.Name),
		Group:         d.Group,
		BaseUnit:      d.BaseUnit,
		ChangeCounter: d.ChangeCounter,
	}
}

func (d partyDTO) toParty() *master.Party {
	return &master.Party{
		Name:          strings.TrimSpace(d.Name),
		Group:         d.Group,
		Email:         d.Email,
		Phone:         d.Phone,
		ChangeCounter: d.ChangeCounter,
	}
}
