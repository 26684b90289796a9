package main

import (
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/config"
	"github.com/angelahq/angela/internal/pkg/di"
	"github.com/angelahq/angela/internal/service"
)

// Services holds the service layer
type Services struct {
	Audit         *service.AuditService
	Auth          *service.AuthService
	Realtime      *service.RealtimeService
	Projects      *service.ProjectService
	Meetings      *service.MeetingService
	Skills        *service.SkillService
	Patterns      *service.PatternService
	Reminders     *service.ReminderService
	Memory        *service.MemoryService
	Conversations *service.ConversationService
	Training      *service.TrainingService
	Dashboard     *service.DashboardService
}

// registerServices registers the service layer
func registerServices(c *di.Container, cfg *config.Config, logger *zap.Logger) {
	c.MustRegister("services", di.Singleton, func(r di.Resolver) (any, error) {
		dbs, err := di.ResolveAs[*Databases](r, "databases")
		if err != nil {
			return nil, err
		}
		repos, err := di.ResolveAs[*Repositories](r, "repositories")
		if err != nil {
			return nil, err
		}

		svcs := &Services{}

		svcs.Audit = service.NewAuditService(repos.Audit, logger)

		svcs.Auth = service.NewAuthService(cfg, repos.Users, repos.APIKeys)
		svcs.Auth.SetAuditor(svcs.Audit)

		// Every model call goes through the circuit breaker wrapper
		llm := service.NewGuardedLLM(dbs.Ollama)

		svcs.Realtime = service.NewRealtimeService()

		svcs.Projects = service.NewProjectService(repos.Projects)
		svcs.Meetings = service.NewMeetingService(repos.Meetings, llm, cfg.Ollama)
		svcs.Skills = service.NewSkillService(repos.Skills)
		svcs.Patterns = service.NewPatternService(repos.Patterns)
		svcs.Reminders = service.NewReminderService(repos.Reminders)

		svcs.Memory = service.NewMemoryService(repos.Memories, llm, cfg.Ollama, cfg.Chat, logger)

		svcs.Conversations = service.NewConversationService(
			repos.Conversations,
			svcs.Memory,
			svcs.Patterns,
			llm,
			svcs.Realtime,
			dbs.Queue,
			cfg.Ollama,
			cfg.Chat,
			logger,
		)

		svcs.Training = service.NewTrainingService(
			repos.Training,
			repos.Conversations,
			dbs.Storage,
			cfg.Training,
			cfg.Chat,
			logger,
		)

		// Dashboard counters read straight from the repositories
		svcs.Dashboard = service.NewDashboardService(
			repos.Projects,
			repos.Meetings,
			repos.Skills,
			repos.Patterns,
			repos.Reminders,
			repos.Conversations,
			repos.Memories,
			repos.Training,
			dbs.Redis.Client,
			logger,
		)

		return svcs, nil
	})
}
