package main

import (
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/handler"
	"github.com/angelahq/angela/internal/pkg/di"
)

// Handlers holds the HTTP handler layer
type Handlers struct {
	Health        *handler.HealthHandler
	Auth          *handler.AuthHandler
	APIKeys       *handler.APIKeysHandler
	Projects      *handler.ProjectsHandler
	Meetings      *handler.MeetingsHandler
	Skills        *handler.SkillsHandler
	Patterns      *handler.PatternsHandler
	Reminders     *handler.RemindersHandler
	Conversations *handler.ConversationsHandler
	Memory        *handler.MemoryHandler
	Training      *handler.TrainingHandler
	Dashboard     *handler.DashboardHandler
	Events        *handler.EventsHandler
	Audit         *handler.AuditHandler
	Docs          *handler.DocsHandler
}

// registerHandlers registers the HTTP handler layer
func registerHandlers(c *di.Container, logger *zap.Logger, version string) {
	c.MustRegister("handlers", di.Singleton, func(r di.Resolver) (any, error) {
		dbs, err := di.ResolveAs[*Databases](r, "databases")
		if err != nil {
			return nil, err
		}
		svcs, err := di.ResolveAs[*Services](r, "services")
		if err != nil {
			return nil, err
		}

		meetings := handler.NewMeetingsHandler(svcs.Meetings, svcs.Audit, logger)
		meetings.SetScheduler(dbs.Queue)

		return &Handlers{
			Health: handler.NewHealthHandler(
				dbs.Postgres.Pool,
				dbs.Redis.Client,
				dbs.Ollama,
				version,
			),
			Auth:          handler.NewAuthHandler(svcs.Auth, logger),
			APIKeys:       handler.NewAPIKeysHandler(svcs.Auth, logger),
			Projects:      handler.NewProjectsHandler(svcs.Projects, svcs.Audit, logger),
			Meetings:      meetings,
			Skills:        handler.NewSkillsHandler(svcs.Skills, svcs.Audit, logger),
			Patterns:      handler.NewPatternsHandler(svcs.Patterns, svcs.Audit, logger),
			Reminders:     handler.NewRemindersHandler(svcs.Reminders, svcs.Audit, logger),
			Conversations: handler.NewConversationsHandler(svcs.Conversations, svcs.Audit, logger),
			Memory:        handler.NewMemoryHandler(svcs.Memory, svcs.Audit, logger),
			Training:      handler.NewTrainingHandler(svcs.Training, svcs.Audit, logger),
			Dashboard:     handler.NewDashboardHandler(svcs.Dashboard, logger),
			Events:        handler.NewEventsHandler(svcs.Realtime, logger),
			Audit:         handler.NewAuditHandler(svcs.Audit, logger),
			Docs:          handler.NewDocsHandler(),
		}, nil
	})
}
