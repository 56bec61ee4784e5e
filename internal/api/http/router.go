package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/servicedesk/internal/api/http/handlers"
	"github.com/spec-kit/servicedesk/internal/auth"
	"github.com/spec-kit/servicedesk/internal/observability"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health            *handlers.HealthHandler
	Tickets           *handlers.TicketsHandler
	Diagnosis         *handlers.DiagnosisHandler
	WorkOrders        *handlers.WorkOrdersHandler
	SparepartRequests *handlers.SparepartRequestsHandler
	Zoom              *handlers.ZoomHandler
	Assignment        *handlers.AssignmentHandler
	AuthMiddleware    *auth.AuthMiddleware
	RateLimiter       *RateLimiter
}

// NewApp builds a fiber app with the error handler, global middlewares and routes.
func NewApp(name string, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration, routes RouteConfig) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               name,
		DisableStartupMessage: true,
		BodyLimit:             12 << 20,
		ErrorHandler:          ErrorHandler(logger, metrics),
	})
	RegisterMiddlewares(app, logger, metrics, timeout)
	RegisterRoutes(app, routes)
	return app
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)
	app.Get("/metrics/prometheus", cfg.Health.Prometheus)

	api := app.Group("/api/v1", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated(), cfg.RateLimiter.Handle)

	tickets := api.Group("/tickets")
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Get("/counts", cfg.Tickets.Counts)
	tickets.Get("/:id", cfg.Tickets.GetTicket)
	tickets.Patch("/:id", cfg.Tickets.UpdateTicket)
	tickets.Get("/:id/timeline", cfg.Tickets.Timeline)
	tickets.Post("/:id/assign", cfg.Tickets.Assign)
	tickets.Post("/:id/status", cfg.Tickets.UpdateStatus)
	tickets.Post("/:id/approve", cfg.Tickets.Approve)
	tickets.Post("/:id/reject", cfg.Tickets.Reject)
	tickets.Post("/:id/zoom/approve", cfg.Tickets.ApproveZoom)
	tickets.Post("/:id/zoom/reject", cfg.Tickets.RejectZoom)
	tickets.Get("/:id/diagnosis", cfg.Diagnosis.Get)
	tickets.Put("/:id/diagnosis", cfg.Diagnosis.Submit)
	tickets.Delete("/:id/diagnosis", cfg.Diagnosis.Delete)
	tickets.Post("/:id/work-orders", cfg.WorkOrders.Create)

	workOrders := api.Group("/work-orders")
	workOrders.Get("/", cfg.WorkOrders.List)
	workOrders.Get("/stats", cfg.WorkOrders.Stats)
	workOrders.Get("/:id", cfg.WorkOrders.Get)
	workOrders.Patch("/:id", cfg.WorkOrders.Update)
	workOrders.Delete("/:id", cfg.WorkOrders.Delete)
	workOrders.Post("/:id/status", cfg.WorkOrders.UpdateStatus)
	workOrders.Post("/:id/sparepart-requests", cfg.SparepartRequests.Create)

	spareparts := api.Group("/sparepart-requests")
	spareparts.Get("/", cfg.SparepartRequests.List)
	spareparts.Get("/stats", cfg.SparepartRequests.Stats)
	spareparts.Get("/:id", cfg.SparepartRequests.Get)
	spareparts.Post("/:id/approve", cfg.SparepartRequests.Approve)
	spareparts.Post("/:id/reject", cfg.SparepartRequests.Reject)
	spareparts.Post("/:id/fulfill", cfg.SparepartRequests.Fulfill)

	zoom := api.Group("/zoom")
	zoom.Get("/availability", cfg.Zoom.Availability)
	zoom.Get("/calendar", cfg.Zoom.Calendar)
	zoom.Get("/accounts", cfg.Zoom.Accounts)

	technicians := api.Group("/technicians")
	technicians.Get("/workload", cfg.Assignment.Workload)
	technicians.Get("/suggestion", cfg.Assignment.Suggest)
}
