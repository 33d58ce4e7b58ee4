package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/voucher-sync-ledger/internal/api_gateway/service"
	"github.com/voucher-sync-ledger/internal/domain/reconciliation"
)

// AdjustmentHandler manages manual ledger adjustments
type AdjustmentHandler struct {
	adjustmentService service.AdjustmentService
	logger            *slog.Logger
}

func NewAdjustmentHandler(logger *slog.Logger, adjustmentService service.AdjustmentService) *AdjustmentHandler {
	return &AdjustmentHandler{
		adjustmentService: adjustmentService,
		logger:            logger,
	}
}

// Create stores a new adjustment
func (h *AdjustmentHandler) Create(c *gin.Context) {
	var req CreateAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	date, err := parseDate("date", req.Date)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	adj, err := h.adjustmentService.CreateAdjustment(c.Request.Context(), reconciliation.AdjustmentKind(req.Kind), date, req.Amount, req.Note)
	if err != nil {
		switch {
		case errors.Is(err, reconciliation.ErrInvalidAdjustmentKind),
			errors.Is(err, reconciliation.ErrInvalidAdjustmentAmount),
			errors.Is(err, reconciliation.ErrMissingAdjustmentDate):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to create adjustment", "error", err)
			RespondInternalError(c)
		}
		return
	}
	RespondCreated(c, adj)
}

// List returns adjustments dated within the query range
func (h *AdjustmentHandler) List(c *gin.Context) {
	var query DateRangeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "from and to are required (YYYY-MM-DD)")
		return
	}
	from, to, err := parseDateRange(query.From, query.To)
	if err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	adjustments, err := h.adjustmentService.ListAdjustments(c.Request.Context(), from, to)
	if err != nil {
		h.logger.Error("Failed to list adjustments", "error", err)
		RespondInternalError(c)
		return
	}
	RespondList(c, adjustments, 0)
}

// Delete removes an adjustment by ID
func (h *AdjustmentHandler) Delete(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid adjustment ID")
		return
	}

	if err := h.adjustmentService.DeleteAdjustment(c.Request.Context(), id); err != nil {
		if errors.Is(err, reconciliation.ErrAdjustmentNotFound{}) {
			RespondNotFound(c, "Adjustment not found")
			return
		}
		h.logger.Error("Failed to delete adjustment", "id", idParam, "error", err)
		RespondInternalError(c)
		return
	}
	RespondNoContent(c)
}
