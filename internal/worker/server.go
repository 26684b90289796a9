package worker

import (
	"context"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/config"
	"github.com/angelahq/angela/internal/google"
	"github.com/angelahq/angela/internal/repository/postgres"
	"github.com/angelahq/angela/internal/service"
)

// Queue names used by the enqueue helpers. The config defaults carry
// the same names; the server's priority map follows the config.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Server runs the background task processor: an asynq server consuming
// the three queues plus a scheduler emitting the periodic tasks.
type Server struct {
	logger    *zap.Logger
	config    *config.Config
	server    *asynq.Server
	mux       *asynq.ServeMux
	scheduler *asynq.Scheduler
	client    *asynq.Client
}

// WorkerDependencies holds everything the task handlers need
type WorkerDependencies struct {
	Conversations *service.ConversationService
	Memories      *service.MemoryService
	Meetings      *service.MeetingService
	Reminders     *service.ReminderService
	Training      *service.TrainingService
	Skills        *service.SkillService
	Patterns      *service.PatternService
	Audit         *service.AuditService
	Realtime      *service.RealtimeService
	LLM           service.LLM

	// Repositories for tasks that work below the service layer
	ConversationRepo *postgres.ConversationRepository
	MeetingRepo      *postgres.MeetingRepository

	// Google clients, nil when the integration is not configured
	Gmail    *google.GmailClient
	Calendar *google.CalendarClient
}

// NewServer creates the worker server, wires the task handlers and
// prepares the scheduler. Start runs it.
func NewServer(
	logger *zap.Logger,
	cfg *config.Config,
	deps *WorkerDependencies,
) (*Server, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Worker.Concurrency,
			Queues: map[string]int{
				cfg.Worker.QueueCritical: 6,
				cfg.Worker.QueueDefault:  3,
				cfg.Worker.QueueLow:      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task processing failed",
					zap.String("type", task.Type()),
					zap.Error(err),
				)
			}),
			Logger: &asynqLogger{logger: logger},
		},
	)

	mux := asynq.NewServeMux()
	client := asynq.NewClient(redisOpt)

	chatWorker := NewChatWorker(
		logger,
		deps.ConversationRepo,
		deps.Memories,
		deps.Conversations,
		deps.Training,
		deps.LLM,
		cfg.Ollama.EmbedModel,
	)
	chatWorker.RegisterHandlers(mux)

	var email EmailSender
	if deps.Gmail != nil {
		email = deps.Gmail
	}
	reminderWorker := NewReminderWorker(
		logger,
		deps.Reminders,
		deps.Realtime,
		email,
		cfg.Google.GmailSender,
	)
	reminderWorker.SetEnqueuer(client)
	reminderWorker.RegisterHandlers(mux)

	meetingWorker := NewMeetingWorker(logger, deps.Meetings)
	meetingWorker.RegisterHandlers(mux)

	cleanupWorker := NewCleanupWorker(
		logger,
		deps.Audit,
		deps.ConversationRepo,
		deps.Skills,
		deps.Patterns,
		cfg.Retention,
	)
	cleanupWorker.RegisterHandlers(mux)

	if cfg.Worker.CalendarSync && cfg.Google.Enabled() && deps.Calendar != nil {
		calendarWorker := NewCalendarWorker(
			logger,
			deps.Calendar,
			deps.MeetingRepo,
			cfg.Google.CalendarID,
		)
		calendarWorker.RegisterHandlers(mux)
	}

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{
		Logger: &asynqLogger{logger: logger},
	})

	return &Server{
		logger:    logger,
		config:    cfg,
		server:    server,
		mux:       mux,
		scheduler: scheduler,
		client:    client,
	}, nil
}

// Start registers the periodic tasks and runs the worker until Stop or
// a fatal error. Blocks.
func (s *Server) Start() error {
	if err := s.registerScheduledTasks(); err != nil {
		return fmt.Errorf("failed to register scheduled tasks: %w", err)
	}

	go func() {
		if err := s.scheduler.Run(); err != nil {
			s.logger.Error("scheduler stopped", zap.Error(err))
		}
	}()

	s.logger.Info("starting worker server",
		zap.Int("concurrency", s.config.Worker.Concurrency),
	)

	return s.server.Run(s.mux)
}

// Stop stops the worker server
func (s *Server) Stop() {
	s.server.Shutdown()
	s.scheduler.Shutdown()
	s.client.Close()
}

// Client returns the asynq client for enqueuing tasks
func (s *Server) Client() *asynq.Client {
	return s.client
}

// registerScheduledTasks registers the periodic tasks with the scheduler
func (s *Server) registerScheduledTasks() error {
	cfg := s.config

	// Due-reminder scan, every minute by default
	_, err := s.scheduler.Register(
		cfg.Worker.ReminderCron,
		asynq.NewTask(TypeReminderScan, nil),
		asynq.Queue(cfg.Worker.QueueCritical),
	)
	if err != nil {
		return fmt.Errorf("failed to register reminder scan: %w", err)
	}

	// Embedding backfill picks up messages and facts stored while the
	// model server was down
	_, err = s.scheduler.Register(
		embedBackfillCron,
		asynq.NewTask(TypeEmbedBackfill, nil),
		asynq.Queue(cfg.Worker.QueueLow),
	)
	if err != nil {
		return fmt.Errorf("failed to register embedding backfill: %w", err)
	}

	// Nightly maintenance
	_, err = s.scheduler.Register(
		cfg.Worker.CleanupCron,
		asynq.NewTask(TypeCleanup, nil),
		asynq.Queue(cfg.Worker.QueueLow),
	)
	if err != nil {
		return fmt.Errorf("failed to register cleanup: %w", err)
	}

	if cfg.Worker.CalendarSync && cfg.Google.Enabled() {
		_, err = s.scheduler.Register(
			cfg.Worker.CalendarSyncCron,
			asynq.NewTask(TypeCalendarSync, nil),
			asynq.Queue(cfg.Worker.QueueLow),
		)
		if err != nil {
			return fmt.Errorf("failed to register calendar sync: %w", err)
		}
	}

	return nil
}

// asynqLogger adapts zap.Logger to asynq.Logger
type asynqLogger struct {
	logger *zap.Logger
}

func (l *asynqLogger) Debug(args ...any) {
	l.logger.Debug(fmt.Sprint(args...))
}

func (l *asynqLogger) Info(args ...any) {
	l.logger.Info(fmt.Sprint(args...))
}

func (l *asynqLogger) Warn(args ...any) {
	l.logger.Warn(fmt.Sprint(args...))
}

func (l *asynqLogger) Error(args ...any) {
	l.logger.Error(fmt.Sprint(args...))
}

func (l *asynqLogger) Fatal(args ...any) {
	l.logger.Fatal(fmt.Sprint(args...))
}
