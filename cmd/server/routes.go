package main

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelahq/angela/internal/middleware"
)

// registerRoutes registers all HTTP routes
func registerRoutes(app *fiber.App, deps *Dependencies) {
	h := deps.Handlers
	auth := deps.AuthMiddleware

	// Health, version, docs and metrics (no auth required)
	h.Health.RegisterRoutes(app)
	h.Docs.RegisterRoutes(app)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Dashboard login plus key management (JWT only)
	h.Auth.RegisterRoutes(app, auth)
	h.APIKeys.RegisterRoutes(app, auth)

	// Dashboard API (JWT). A JWT session passes every scope check, so
	// the per-route scopes below only constrain API keys.
	v1 := app.Group("/api/v1", auth.RequireJWT())
	registerResources(v1, h, auth)

	// App API (API key) used by the phone apps and the MCP servers
	appAPI := app.Group("/api/app", auth.RequireAPIKey())
	if deps.Config.RateLimit.Enabled {
		appAPI.Use(deps.RateLimitMiddleware.Handler())
	}
	registerResources(appAPI, h, auth)
}

// registerResources mounts the resource handlers on a group. The same
// resources serve both auth surfaces.
func registerResources(r fiber.Router, h *Handlers, auth *middleware.AuthMiddleware) {
	h.Projects.RegisterRoutes(r, auth)
	h.Meetings.RegisterRoutes(r, auth)
	h.Skills.RegisterRoutes(r, auth)
	h.Patterns.RegisterRoutes(r, auth)
	h.Reminders.RegisterRoutes(r, auth)
	h.Conversations.RegisterRoutes(r, auth)
	h.Memory.RegisterRoutes(r, auth)
	h.Training.RegisterRoutes(r, auth)
	h.Dashboard.RegisterRoutes(r, auth)
	h.Events.RegisterRoutes(r, auth)
	h.Audit.RegisterRoutes(r, auth)
}
