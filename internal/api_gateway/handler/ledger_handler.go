package handler

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/voucher-sync-ledger/internal/api_gateway/service"
)

// LedgerHandler serves the reconciliation ledger
type LedgerHandler struct {
	ledgerService service.LedgerService
	logger        *slog.Logger
}

func NewLedgerHandler(logger *slog.Logger, ledgerService service.LedgerService) *LedgerHandler {
	return &LedgerHandler{
		ledgerService: ledgerService,
		logger:        logger,
	}
}

// Get builds the ledger for the inclusive date range in the query
func (h *LedgerHandler) Get(c *gin.Context) {
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

	ledger, err := h.ledgerService.BuildLedger(c.Request.Context(), from, to)
	if err != nil {
		h.logger.Error("Failed to build ledger", "from", query.From, "to", query.To, "error", err)
		RespondInternalError(c)
		return
	}
	RespondOK(c, ledger)
}
