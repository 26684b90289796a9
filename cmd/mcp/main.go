package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/config"
	"github.com/angelahq/angela/internal/google"
	"github.com/angelahq/angela/internal/mcp"
	"github.com/angelahq/angela/internal/pkg/database"
	"github.com/angelahq/angela/internal/pkg/logger"
	"github.com/angelahq/angela/internal/repository/postgres"
	"github.com/angelahq/angela/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format}); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Log
	defer logger.Sync()

	if !cfg.Google.Enabled() {
		log.Fatal("google integration not configured; set google_client_id, google_client_secret and google_refresh_token")
	}

	ctx := context.Background()
	httpClient := google.Credentials{
		ClientID:     cfg.Google.ClientID,
		ClientSecret: cfg.Google.ClientSecret,
		RefreshToken: cfg.Google.RefreshToken,
	}.HTTPClient(ctx)

	server := mcp.NewServer(cfg.MCP, log)

	// Audit trail is best effort here; the toolsets work without it
	if auditDB, err := database.NewSQLX(ctx, cfg.Postgres); err != nil {
		log.Warn("audit trail unavailable, tool calls will not be recorded", zap.Error(err))
	} else {
		defer auditDB.Close()
		server.SetRecorder(service.NewAuditService(postgres.NewAuditRepository(auditDB), log))
	}

	for _, toolset := range cfg.MCP.Toolsets {
		switch toolset {
		case "gmail":
			server.Register(mcp.GmailToolset(google.NewGmailClient(httpClient, cfg.Google.GmailSender))...)
		case "calendar":
			server.Register(mcp.CalendarToolset(google.NewCalendarClient(httpClient), cfg.Google.CalendarID)...)
		default:
			log.Warn("unknown toolset", zap.String("toolset", toolset))
		}
	}

	if len(server.Tools()) == 0 {
		log.Fatal("no toolsets enabled; check mcp_toolsets")
	}

	// Start server
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("shutting down mcp server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("mcp server shutdown error", zap.Error(err))
		}
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("mcp server failed", zap.Error(err))
		}
	}

	log.Info("mcp server stopped")
}
