package handler

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/voucher-sync-ledger/internal/api_gateway/service"
	"github.com/voucher-sync-ledger/internal/domain/alert"
	"github.com/voucher-sync-ledger/internal/domain/voucher"
)

// PreferenceHandler manages subscriber preferences and lists stored alerts
type PreferenceHandler struct {
	preferenceService service.PreferenceService
	logger            *slog.Logger
}

func NewPreferenceHandler(logger *slog.Logger, preferenceService service.PreferenceService) *PreferenceHandler {
	return &PreferenceHandler{
		preferenceService: preferenceService,
		logger:            logger,
	}
}

func (h *PreferenceHandler) Get(c *gin.Context) {
	subscriberID := c.Param("subscriber_id")
	pref, err := h.preferenceService.GetPreference(c.Request.Context(), subscriberID)
	if err != nil {
		if errors.Is(err, alert.ErrPreferenceNotFound{}) {
			RespondNotFound(c, "Preferences not found")
			return
		}
		h.logger.Error("Failed to get preferences", "subscriber_id", subscriberID, "error", err)
		RespondInternalError(c)
		return
	}
	RespondOK(c, pref)
}

// Put replaces the subscriber's preferences; active defaults to true
func (h *PreferenceHandler) Put(c *gin.Context) {
	var req PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	pref := &alert.Preference{
		SubscriberID:         c.Param("subscriber_id"),
		NotifyNew:            req.NotifyNew,
		NotifyModified:       req.NotifyModified,
		LargeAmountThreshold: req.LargeAmountThreshold,
		VoucherTypes:         voucher.ParseTypes(req.VoucherTypes),
		Active:               req.Active == nil || *req.Active,
	}

	if err := h.preferenceService.SavePreference(c.Request.Context(), pref); err != nil {
		if errors.Is(err, service.ErrMissingSubscriberID) || errors.Is(err, service.ErrNegativeThreshold) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to save preferences", "subscriber_id", pref.SubscriberID, "error", err)
		RespondInternalError(c)
		return
	}
	RespondOK(c, pref)
}

// ListAlerts returns the subscriber's newest alerts
func (h *PreferenceHandler) ListAlerts(c *gin.Context) {
	var query AlertsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid limit: must be between 1 and 200")
		return
	}

	subscriberID := c.Param("subscriber_id")
	alerts, err := h.preferenceService.ListAlerts(c.Request.Context(), subscriberID, query.Limit)
	if err != nil {
		h.logger.Error("Failed to list alerts", "subscriber_id", subscriberID, "error", err)
		RespondInternalError(c)
		return
	}
	RespondList(c, alerts, query.Limit)
}
