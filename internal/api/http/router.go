package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-service/internal/api/http/handlers"
	"github.com/spec-kit/incident-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Incidents      *handlers.IncidentsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Post("/request-reset", cfg.Auth.RequestPasswordReset)
	authGroup.Post("/reset", cfg.Auth.ResetPassword)
	authGroup.Get("/me", cfg.AuthMiddleware.Handle, cfg.Auth.Me)
	authGroup.Post("/password/change", cfg.AuthMiddleware.Handle, cfg.Auth.ChangePassword)

	app.Post("/sos", cfg.Incidents.CreateSOS)

	incidents := app.Group("/incidents", cfg.AuthMiddleware.Handle)
	incidents.Get("/meta/categories", cfg.Incidents.Categories)
	incidents.Post("/", cfg.Incidents.CreateIncident)
	incidents.Get("/", cfg.Incidents.ListIncidents)
	incidents.Get("/:id", cfg.Incidents.GetIncident)
	incidents.Put("/:id", cfg.Incidents.UpdateIncident)
	incidents.Post("/:id/claim", auth.RequireStaff(), cfg.Incidents.ClaimIncident)
	incidents.Post("/:id/resolve", auth.RequireStaff(), cfg.Incidents.ResolveIncident)
	incidents.Delete("/:id", auth.RequireStaff(), cfg.Incidents.DeleteIncident)
}

// NewApp builds the fiber application with the JSON error renderer.
func NewApp(appName string) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:               appName,
		ErrorHandler:          ErrorHandler,
		DisableStartupMessage: true,
	})
}
