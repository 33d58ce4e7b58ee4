package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/voucher-sync-ledger/internal/api_gateway/service"
)

type SettingsHandler struct {
	settingsService service.SettingsService
	logger          *slog.Logger
}

func NewSettingsHandler(logger *slog.Logger, settingsService service.SettingsService) *SettingsHandler {
	return &SettingsHandler{
		settingsService: settingsService,
		logger:          logger,
	}
}

func (h *SettingsHandler) GetOpeningBalance(c *gin.Context) {
	balance, set, err := h.settingsService.GetOpeningBalance(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get opening balance", "error", err)
		RespondInternalError(c)
		return
	}
	RespondOK(c, OpeningBalanceResponse{OpeningBalance: balance, Set: set})
}

func (h *SettingsHandler) SetOpeningBalance(c *gin.Context) {
	var req OpeningBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if req.OpeningBalance == nil {
		RespondBadRequest(c, "opening_balance is required")
		return
	}

	if err := h.settingsService.SetOpeningBalance(c.Request.Context(), *req.OpeningBalance); err != nil {
		h.logger.Error("Failed to set opening balance", "error", err)
		RespondInternalError(c)
		return
	}
	RespondOK(c, OpeningBalanceResponse{OpeningBalance: *req.OpeningBalance, Set: true})
}
