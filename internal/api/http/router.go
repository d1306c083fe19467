package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/civic-issue-service/internal/api/http/handlers"
	"github.com/spec-kit/civic-issue-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Profiles       *handlers.ProfilesHandler
	Issues         *handlers.IssuesHandler
	Classification *handlers.ClassificationHandler
	Officer        *handlers.OfficerHandler
	Transparency   *handlers.TransparencyHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	api := app.Group("/api/v1")

	authGroup := api.Group("/auth")
	authGroup.Post("/register", cfg.Profiles.Register)
	authGroup.Post("/login", cfg.Profiles.Login)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Profiles.Me)

	api.Get("/transparency", cfg.Transparency.Metrics)
	api.Get("/departments", cfg.Transparency.Departments)

	issues := api.Group("/issues")
	issues.Get("/", cfg.Issues.Feed)
	issues.Get("/near", cfg.Issues.Near)
	issues.Get("/mine", cfg.AuthMiddleware.Handle, cfg.Issues.Mine)
	issues.Get("/voted", cfg.AuthMiddleware.Handle, cfg.Issues.VotedIssues)
	// Detail carries an optional principal so the response can include the
	// caller's vote state.
	issues.Get("/:id", cfg.AuthMiddleware.HandleOptional, cfg.Issues.Get)
	issues.Get("/:id/votes", cfg.Issues.VoteCount)

	issues.Post("/", cfg.AuthMiddleware.Handle, cfg.Issues.Submit)
	issues.Post("/:id/classify", cfg.AuthMiddleware.Handle, cfg.Classification.Classify)
	issues.Post("/:id/vote", cfg.AuthMiddleware.Handle, cfg.Issues.ToggleVote)
	issues.Post("/:id/feedback", cfg.AuthMiddleware.Handle, cfg.Issues.AddFeedback)
	issues.Post("/:id/photo", cfg.AuthMiddleware.Handle, cfg.Issues.AttachPhoto)

	officer := issues.Group("", cfg.AuthMiddleware.Handle, auth.RequireOfficer())
	officer.Patch("/:id/status", cfg.Officer.UpdateStatus)
	officer.Post("/:id/assign", cfg.Officer.Assign)

	api.Get("/officer/queue", cfg.AuthMiddleware.Handle, auth.RequireOfficer(), cfg.Officer.Queue)

	admin := issues.Group("", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	admin.Post("/:id/escalate", cfg.Officer.Escalate)
}
