package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/voucher-sync-ledger/internal/api_gateway/service"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
)

// AuditHandler exposes the mirror, its history and the change log
type AuditHandler struct {
	auditService service.AuditService
	logger       *slog.Logger
}

func NewAuditHandler(logger *slog.Logger, auditService service.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// GetVoucher returns the current mirrored state of a voucher
func (h *AuditHandler) GetVoucher(c *gin.Context) {
	id := c.Param("id")
	record, err := h.auditService.GetVoucher(c.Request.Context(), id)
	if err != nil {
		h.respondLookupError(c, id, "Failed to get voucher", err)
		return
	}
	RespondOK(c, record)
}

// GetHistory returns the prior versions of a voucher, oldest first
func (h *AuditHandler) GetHistory(c *gin.Context) {
	id := c.Param("id")
	snapshots, err := h.auditService.GetHistory(c.Request.Context(), id)
	if err != nil {
		h.respondLookupError(c, id, "Failed to get voucher history", err)
		return
	}
	RespondList(c, snapshots, 0)
}

// GetChanges returns the field level change log of a voucher
func (h *AuditHandler) GetChanges(c *gin.Context) {
	id := c.Param("id")
	changes, err := h.auditService.GetChangeLog(c.Request.Context(), id)
	if err != nil {
		h.respondLookupError(c, id, "Failed to get voucher changes", err)
		return
	}
	RespondList(c, changes, 0)
}

// RecentChanges returns the newest changes across all vouchers
func (h *AuditHandler) RecentChanges(c *gin.Context) {
	var query RecentChangesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid limit: must be between 1 and 500")
		return
	}

	changes, err := h.auditService.RecentChanges(c.Request.Context(), query.Limit)
	if err != nil {
		h.logger.Error("Failed to get recent changes", "error", err)
		RespondInternalError(c)
		return
	}
	RespondList(c, changes, query.Limit)
}

// ChangeStats returns change counts per tracked field
func (h *AuditHandler) ChangeStats(c *gin.Context) {
	stats, err := h.auditService.ChangeStats(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get change stats", "error", err)
		RespondInternalError(c)
		return
	}
	RespondList(c, stats, 0)
}

func (h *AuditHandler) respondLookupError(c *gin.Context, id, msg string, err error) {
	if errors.Is(err, voucher.ErrRecordNotFound{}) {
		RespondNotFound(c, "Voucher not found")
		return
	}
	h.logger.Error(msg, "external_id", id, "error", err)
	RespondInternalError(c)
}
