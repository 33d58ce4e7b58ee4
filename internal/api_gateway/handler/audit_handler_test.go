package handler

import (
	"errors"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/voucher-sync-ledger/internal/domain/history"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
)

func newAuditRouter(svc *MockAuditService) http.Handler {
	h := NewAuditHandler(testLogger, svc)
	r := newTestRouter()
	r.GET("/vouchers/:id", h.GetVoucher)
	r.GET("/vouchers/:id/history", h.GetHistory)
	r.GET("/vouchers/:id/changes", h.GetChanges)
	r.GET("/changes/recent", h.RecentChanges)
	r.GET("/changes/stats", h.ChangeStats)
	return r
}

func TestAuditHandler_GetVoucher(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		svc := &MockAuditService{}
		svc.On("GetVoucher", mock.Anything, "guid-1").Return(&voucher.Record{
			ExternalID: "guid-1", Number: "S-101", Amount: decimal.RequireFromString("150"), ChangeCounter: 7,
		}, nil)

		w := perform(t, newAuditRouter(svc), http.MethodGet, "/vouchers/guid-1", "")
		assert.Equal(t, http.StatusOK, w.Code)
		body := decode[voucher.Record](t, w)
		assert.Equal(t, "S-101", body.Data.Number)
		assert.Equal(t, int64(7), body.Data.ChangeCounter)
	})

	t.Run("not found", func(t *testing.T) {
		svc := &MockAuditService{}
		svc.On("GetVoucher", mock.Anything, "nope").Return(nil, voucher.ErrRecordNotFound{ExternalID: "nope"})

		w := perform(t, newAuditRouter(svc), http.MethodGet, "/vouchers/nope", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "NOT_FOUND", decode[any](t, w).Error.Code)
	})

	t.Run("internal error", func(t *testing.T) {
		svc := &MockAuditService{}
		svc.On("GetVoucher", mock.Anything, "guid-1").Return(nil, errors.New("db down"))

		w := perform(t, newAuditRouter(svc), http.MethodGet, "/vouchers/guid-1", "")
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestAuditHandler_HistoryAndChanges(t *testing.T) {
	svc := &MockAuditService{}
	svc.On("GetHistory", mock.Anything, "guid-1").Return([]*history.Snapshot{
		{ExternalID: "guid-1", Version: 1, Amount: decimal.RequireFromString("100"), ChangeCounter: 5, SupersededBy: 7},
	}, nil)
	svc.On("GetChangeLog", mock.Anything, "guid-1").Return([]*history.Change{
		{ExternalID: "guid-1", Field: "amount", OldValue: "100", NewValue: "150", OldCounter: 5, NewCounter: 7},
	}, nil)
	svc.On("GetChangeLog", mock.Anything, "nope").Return(nil, voucher.ErrRecordNotFound{ExternalID: "nope"})
	router := newAuditRouter(svc)

	w := perform(t, router, http.MethodGet, "/vouchers/guid-1/history", "")
	assert.Equal(t, http.StatusOK, w.Code)
	snapshots := decode[[]history.Snapshot](t, w).Data
	if assert.Len(t, snapshots, 1) {
		assert.Equal(t, 1, snapshots[0].Version)
		assert.Equal(t, int64(7), snapshots[0].SupersededBy)
	}

	w = perform(t, router, http.MethodGet, "/vouchers/guid-1/changes", "")
	assert.Equal(t, http.StatusOK, w.Code)
	changes := decode[[]history.Change](t, w).Data
	if assert.Len(t, changes, 1) {
		assert.Equal(t, "amount", changes[0].Field)
		assert.Equal(t, "150", changes[0].NewValue)
	}

	w = perform(t, router, http.MethodGet, "/vouchers/nope/changes", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuditHandler_RecentChanges(t *testing.T) {
	svc := &MockAuditService{}
	svc.On("RecentChanges", mock.Anything, 50).Return([]*history.Change{}, nil).Once()
	svc.On("RecentChanges", mock.Anything, 5).Return([]*history.Change{{Field: "narration"}}, nil).Once()
	router := newAuditRouter(svc)

	assert.Equal(t, http.StatusOK, perform(t, router, http.MethodGet, "/changes/recent", "").Code)
	assert.Equal(t, http.StatusOK, perform(t, router, http.MethodGet, "/changes/recent?limit=5", "").Code)
	assert.Equal(t, http.StatusBadRequest, perform(t, router, http.MethodGet, "/changes/recent?limit=0", "").Code)
	assert.Equal(t, http.StatusBadRequest, perform(t, router, http.MethodGet, "/changes/recent?limit=abc", "").Code)
	svc.AssertExpectations(t)
}

func TestAuditHandler_ChangeStats(t *testing.T) {
	svc := &MockAuditService{}
	svc.On("ChangeStats", mock.Anything).Return([]history.FieldStat{{Field: "amount", Count: 3}}, nil)

	w := perform(t, newAuditRouter(svc), http.MethodGet, "/changes/stats", "")
	assert.Equal(t, http.StatusOK, w.Code)
	stats := decode[[]history.FieldStat](t, w).Data
	assert.Equal(t, []history.FieldStat{{Field: "amount", Count: 3}}, stats)
}
