package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/config"
	"github.com/angelahq/angela/internal/google"
	"github.com/angelahq/angela/internal/ollama"
	"github.com/angelahq/angela/internal/pkg/database"
	"github.com/angelahq/angela/internal/pkg/logger"
	"github.com/angelahq/angela/internal/repository/postgres"
	"github.com/angelahq/angela/internal/service"
	"github.com/angelahq/angela/internal/storage"
	"github.com/angelahq/angela/internal/worker"
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

	log.Info("starting worker service")

	// Initialize dependencies
	deps, cleanup, err := initWorkerDependencies(cfg, log)
	if err != nil {
		log.Fatal("failed to initialize dependencies", zap.Error(err))
	}
	defer cleanup()

	// Create worker server
	workerServer, err := worker.NewServer(log, cfg, deps)
	if err != nil {
		log.Fatal("failed to create worker server", zap.Error(err))
	}

	// Start worker in a goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- workerServer.Start()
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("shutting down worker...")
		workerServer.Stop()
	case err := <-errCh:
		if err != nil {
			log.Error("worker server error", zap.Error(err))
		}
	}

	log.Info("worker stopped")
}

// initWorkerDependencies initializes dependencies for the worker
func initWorkerDependencies(cfg *config.Config, log *zap.Logger) (*worker.WorkerDependencies, func(), error) {
	ctx := context.Background()

	// Initialize PostgreSQL using database wrapper
	pgDB, err := database.NewPostgres(ctx, cfg.Postgres)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize PostgreSQL: %w", err)
	}

	// The audit trail writes through sqlx on its own pool
	auditDB, err := database.NewSQLX(ctx, cfg.Postgres)
	if err != nil {
		_ = pgDB.Close()
		return nil, nil, fmt.Errorf("failed to initialize audit pool: %w", err)
	}

	// Initialize object storage
	store, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		_ = auditDB.Close()
		_ = pgDB.Close()
		return nil, nil, fmt.Errorf("failed to initialize object storage: %w", err)
	}
	if err := store.EnsureBucket(ctx); err != nil {
		log.Warn("artifact bucket unavailable, dataset export will fail until it is back", zap.Error(err))
	}

	llm := service.NewGuardedLLM(ollama.NewClient(cfg.Ollama))

	// Initialize repositories
	conversationRepo := postgres.NewConversationRepository(pgDB)
	meetingRepo := postgres.NewMeetingRepository(pgDB)
	memoryRepo := postgres.NewMemoryRepository(pgDB)
	reminderRepo := postgres.NewReminderRepository(pgDB)
	trainingRepo := postgres.NewTrainingRepository(pgDB)
	skillRepo := postgres.NewSkillRepository(pgDB)
	patternRepo := postgres.NewPatternRepository(pgDB)
	auditRepo := postgres.NewAuditRepository(auditDB)

	// Initialize services
	auditService := service.NewAuditService(auditRepo, log)
	realtimeService := service.NewRealtimeService()
	memoryService := service.NewMemoryService(memoryRepo, llm, cfg.Ollama, cfg.Chat, log)
	meetingService := service.NewMeetingService(meetingRepo, llm, cfg.Ollama)
	reminderService := service.NewReminderService(reminderRepo)
	skillService := service.NewSkillService(skillRepo)
	patternService := service.NewPatternService(patternRepo)
	trainingService := service.NewTrainingService(
		trainingRepo,
		conversationRepo,
		store,
		cfg.Training,
		cfg.Chat,
		log,
	)
	conversationService := service.NewConversationService(
		conversationRepo,
		memoryService,
		patternService,
		llm,
		realtimeService,
		nil, // no followups; the worker never sends chat turns
		cfg.Ollama,
		cfg.Chat,
		log,
	)

	// Google clients, only when the integration is configured
	var gmailClient *google.GmailClient
	var calendarClient *google.CalendarClient
	if cfg.Google.Enabled() {
		httpClient := google.Credentials{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RefreshToken: cfg.Google.RefreshToken,
		}.HTTPClient(ctx)
		gmailClient = google.NewGmailClient(httpClient, cfg.Google.GmailSender)
		calendarClient = google.NewCalendarClient(httpClient)
	}

	deps := &worker.WorkerDependencies{
		Conversations: conversationService,
		Memories:      memoryService,
		Meetings:      meetingService,
		Reminders:     reminderService,
		Training:      trainingService,
		Skills:        skillService,
		Patterns:      patternService,
		Audit:         auditService,
		Realtime:      realtimeService,
		LLM:           llm,

		ConversationRepo: conversationRepo,
		MeetingRepo:      meetingRepo,

		Gmail:    gmailClient,
		Calendar: calendarClient,
	}

	cleanup := func() {
		if err := auditDB.Close(); err != nil {
			log.Error("failed to close audit pool", zap.Error(err))
		}
		if err := pgDB.Close(); err != nil {
			log.Error("failed to close PostgreSQL", zap.Error(err))
		}
	}

	return deps, cleanup, nil
}
