package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk360/internal/api/http/handlers"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health      *handlers.HealthHandler
	Reports     *handlers.ReportsHandler
	Requests    *handlers.RequestsHandler
	Departments *handlers.DepartmentsHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	reports := api.Group("/reports")
	reports.Get("/monthly", cfg.Reports.Monthly)
	reports.Get("/summary", cfg.Reports.Summary)

	requests := api.Group("/requests")
	requests.Get("/", cfg.Requests.List)
	requests.Get("/search", cfg.Requests.Search)
	requests.Get("/:id", cfg.Requests.Get)
	requests.Post("/", cfg.Requests.Create)
	requests.Put("/:id", cfg.Requests.Update)
	requests.Delete("/:id", cfg.Requests.Delete)

	departments := api.Group("/departments")
	departments.Get("/", cfg.Departments.ListActive)
	departments.Post("/", cfg.Departments.Create)
	departments.Put("/:id", cfg.Departments.Update)
}
