package api_gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/voucher-sync-ledger/internal/api_gateway/handler"
	"github.com/voucher-sync-ledger/internal/api_gateway/service"
	"github.com/voucher-sync-ledger/internal/config"
)

// Services are the business services behind the HTTP handlers
type Services struct {
	Audit       service.AuditService
	Ledger      service.LedgerService
	Adjustments service.AdjustmentService
	Settings    service.SettingsService
	Sync        service.SyncService
	Preferences service.PreferenceService
}

// Server owns the gateway's HTTP listener
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
}

// NewServer wires handlers for services. checks back the /ready endpoint.
func NewServer(log *slog.Logger, cfg *config.Config, services Services, checks ...ReadinessCheck) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	setupRouter(log, httpRouter, Handlers{
		Audit:       handler.NewAuditHandler(log, services.Audit),
		Ledger:      handler.NewLedgerHandler(log, services.Ledger),
		Adjustments: handler.NewAdjustmentHandler(log, services.Adjustments),
		Settings:    handler.NewSettingsHandler(log, services.Settings),
		Sync:        handler.NewSyncHandler(log, services.Sync),
		Preferences: handler.NewPreferenceHandler(log, services.Preferences),
	}, checks)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, bounded by the server's write timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
