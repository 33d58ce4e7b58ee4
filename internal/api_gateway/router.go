package api_gateway

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/voucher-sync-ledger/internal/api_gateway/handler"
	"github.com/voucher-sync-ledger/internal/api_gateway/middleware"
)

// Handlers groups every HTTP handler served by the gateway
type Handlers struct {
	Audit       *handler.AuditHandler
	Ledger      *handler.LedgerHandler
	Adjustments *handler.AdjustmentHandler
	Settings    *handler.SettingsHandler
	Sync        *handler.SyncHandler
	Preferences *handler.PreferenceHandler
}

// ReadinessCheck is one dependency probed by /ready
type ReadinessCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

const readinessTimeout = 2 * time.Second

// setupRouter configures API routes and middleware for the application
func setupRouter(logger *slog.Logger, r *gin.Engine, h Handlers, checks []ReadinessCheck) {
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger, "/health", "/ready"))
	r.Use(middleware.Recovery(logger))

	v1 := r.Group("/api/v1")
	{
		vouchers := v1.Group("/vouchers")
		{
			vouchers.GET("/:id", h.Audit.GetVoucher)
			vouchers.GET("/:id/history", h.Audit.GetHistory)
			vouchers.GET("/:id/changes", h.Audit.GetChanges)
		}

		changes := v1.Group("/changes")
		{
			changes.GET("/recent", h.Audit.RecentChanges)
			changes.GET("/stats", h.Audit.ChangeStats)
		}

		v1.GET("/ledger", h.Ledger.Get)

		adjustments := v1.Group("/adjustments")
		{
			adjustments.GET("", h.Adjustments.List)
			adjustments.POST("", h.Adjustments.Create)
			adjustments.DELETE("/:id", h.Adjustments.Delete)
		}

		v1.GET("/settings/opening-balance", h.Settings.GetOpeningBalance)
		v1.PUT("/settings/opening-balance", h.Settings.SetOpeningBalance)

		v1.POST("/sync", h.Sync.Trigger)
		v1.GET("/sync/status", h.Sync.Status)

		preferences := v1.Group("/preferences")
		{
			preferences.GET("/:subscriber_id", h.Preferences.Get)
			preferences.PUT("/:subscriber_id", h.Preferences.Put)
			preferences.GET("/:subscriber_id/alerts", h.Preferences.ListAlerts)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
	r.GET("/ready", readinessHandler(logger, checks))
}

// readinessHandler answers 503 naming every dependency that failed its ping
func readinessHandler(logger *slog.Logger, checks []ReadinessCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readinessTimeout)
		defer cancel()

		failed := map[string]string{}
		for _, check := range checks {
			if err := check.Ping(ctx); err != nil {
				logger.Warn("Readiness check failed", "dependency", check.Name, "error", err)
				failed[check.Name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
