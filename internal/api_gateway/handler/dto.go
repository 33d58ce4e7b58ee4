package handler

import (
	"github.com/shopspring/decimal"
)

// DateRangeQuery is the from/to pair accepted by list endpoints, both YYYY-MM-DD
type DateRangeQuery struct {
	From string `form:"from" binding:"required"`
	To   string `form:"to" binding:"required"`
}

// RecentChangesQuery limits the recent changes feed
type RecentChangesQuery struct {
	Limit int `form:"limit,default=50" binding:"min=1,max=500"`
}

// AlertsQuery limits a subscriber's alert list
type AlertsQuery struct {
	Limit int `form:"limit,default=50" binding:"min=1,max=200"`
}

// CreateAdjustmentRequest represents a manual ledger adjustment
type CreateAdjustmentRequest struct {
	Kind   string          `json:"kind" binding:"required,oneof=missing_collection service_charge"`
	Date   string          `json:"date" binding:"required"`
	Amount decimal.Decimal `json:"amount"`
	Note   string          `json:"note" binding:"max=500"`
}

// OpeningBalanceRequest sets the ledger's opening balance
type OpeningBalanceRequest struct {
	OpeningBalance *decimal.Decimal `json:"opening_balance"`
}

// OpeningBalanceResponse reports the stored opening balance
type OpeningBalanceResponse struct {
	OpeningBalance decimal.Decimal `json:"opening_balance"`
	Set            bool            `json:"set"`
}

// SyncTriggerRequest asks the sync worker for an out of schedule run
type SyncTriggerRequest struct {
	Kind string `json:"kind" binding:"required,oneof=incremental range masters"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// SyncTriggerResponse acknowledges a queued sync request
type SyncTriggerResponse struct {
	RequestID string `json:"request_id"`
	Kind      string `json:"kind"`
	Status    string `json:"status"`
}

// PreferenceRequest replaces a subscriber's notification preferences
type PreferenceRequest struct {
	NotifyNew            bool             `json:"notify_new"`
	NotifyModified       bool             `json:"notify_modified"`
	LargeAmountThreshold *decimal.Decimal `json:"large_amount_threshold"`
	VoucherTypes         []string         `json:"voucher_types"`
	Active               *bool            `json:"active"`
}
