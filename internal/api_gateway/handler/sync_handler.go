package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voucher-sync-ledger/internal/api_gateway/middleware"
	"github.com/voucher-sync-ledger/internal/api_gateway/service"
	"github.com/voucher-sync-ledger/internal/domain/shared"
)

// SyncHandler triggers out of schedule syncs and reports sync status
type SyncHandler struct {
	syncService service.SyncService
	logger      *slog.Logger
}

func NewSyncHandler(logger *slog.Logger, syncService service.SyncService) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		logger:      logger,
	}
}

// Trigger queues a sync request; the run happens asynchronously in the sync worker
func (h *SyncHandler) Trigger(c *gin.Context) {
	var req SyncTriggerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	var from, to time.Time
	if shared.SyncKind(req.Kind) == shared.SyncKindRange {
		var err error
		if from, to, err = parseDateRange(req.From, req.To); err != nil {
			RespondBadRequest(c, err.Error())
			return
		}
	}

	syncReq, err := h.syncService.RequestSync(c.Request.Context(), shared.SyncKind(req.Kind), from, to, middleware.GetCorrelationID(c))
	if err != nil {
		if errors.Is(err, shared.ErrInvalidSyncKind) || errors.Is(err, shared.ErrInvalidSyncRange) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to request sync", "kind", req.Kind, "error", err)
		RespondInternalError(c)
		return
	}

	RespondAccepted(c, SyncTriggerResponse{
		RequestID: syncReq.RequestID.String(),
		Kind:      string(syncReq.Kind),
		Status:    "QUEUED",
	})
}

// Status returns the last known state of every sync domain
func (h *SyncHandler) Status(c *gin.Context) {
	statuses, err := h.syncService.Status(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get sync status", "error", err)
		RespondInternalError(c)
		return
	}
	RespondOK(c, statuses)
}
