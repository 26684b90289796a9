package main

import (
	"go.uber.org/zap"

	"github.com/angelahq/angela/internal/config"
	"github.com/angelahq/angela/internal/middleware"
	"github.com/angelahq/angela/internal/pkg/di"
)

// Dependencies holds the assembled application graph
type Dependencies struct {
	Config *config.Config
	Logger *zap.Logger

	Databases    *Databases
	Repositories *Repositories
	Services     *Services
	Handlers     *Handlers

	AuthMiddleware      *middleware.AuthMiddleware
	RateLimitMiddleware *middleware.RateLimitMiddleware

	container *di.Container
}

// initDependencies wires the application through the container. Every
// registration is a singleton; the container tracks creation order and
// Close tears connections down in reverse.
func initDependencies(cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	c := di.New()

	registerDatabases(c, cfg, logger)
	registerRepositories(c)
	registerServices(c, cfg, logger)
	registerHandlers(c, logger, appVersion)

	// Resolving the handler layer pulls the rest of the graph in
	handlers, err := di.ResolveAs[*Handlers](c, "handlers")
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	dbs, err := di.ResolveAs[*Databases](c, "databases")
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	repos, err := di.ResolveAs[*Repositories](c, "repositories")
	if err != nil {
		_ = c.Close()
		return nil, err
	}
	svcs, err := di.ResolveAs[*Services](c, "services")
	if err != nil {
		_ = c.Close()
		return nil, err
	}

	rlCfg := middleware.DefaultRateLimitConfig()
	rlCfg.Max = cfg.RateLimit.RequestsPerMinute + cfg.RateLimit.Burst

	return &Dependencies{
		Config:              cfg,
		Logger:              logger,
		Databases:           dbs,
		Repositories:        repos,
		Services:            svcs,
		Handlers:            handlers,
		AuthMiddleware:      middleware.NewAuthMiddleware(svcs.Auth),
		RateLimitMiddleware: middleware.NewRateLimitMiddleware(dbs.Redis.Client, rlCfg),
		container:           c,
	}, nil
}

// Close shuts the graph down in reverse creation order
func (d *Dependencies) Close() error {
	return d.container.Close()
}
