package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/foia-tracker/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/foia-tracker/internal/interfaces/http/handlers"
	"github.com/turtacn/foia-tracker/internal/interfaces/http/middleware"
)

// RouterConfig aggregates all handler and middleware dependencies required
// to construct the complete HTTP route tree.  Nil handlers leave their
// routes unmounted.
type RouterConfig struct {
	// Handlers
	RequestHandler  *handlers.RequestHandler
	AlertHandler    *handlers.AlertHandler
	AppealHandler   *handlers.AppealHandler
	CalendarHandler *handlers.CalendarHandler
	HealthHandler   *handlers.HealthHandler

	// Infrastructure
	Logger           logging.Logger
	Logging          middleware.LoggingConfig
	CORS             *middleware.CORSConfig
	Metrics          *prometheus.AppMetrics
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter constructs the complete HTTP route tree from the given configuration.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// --- Global middleware (applied to every request) ---
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	r.Use(middleware.Actor)

	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, cfg.Logging))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	// --- Probes ---
	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/healthz/detail", cfg.HealthHandler.Detailed)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	// --- API v1 ---
	r.Route("/api/v1", func(api chi.Router) {
		registerRequestRoutes(api, cfg.RequestHandler, cfg.AppealHandler)
		registerAppealRoutes(api, cfg.AppealHandler)
		registerAlertRoutes(api, cfg.AlertHandler)
		registerCalendarRoutes(api, cfg.CalendarHandler)
	})

	return r
}

// registerRequestRoutes mounts the request resource under /requests.  Appeal
// generation hangs off the request it appeals.
func registerRequestRoutes(r chi.Router, h *handlers.RequestHandler, ah *handlers.AppealHandler) {
	if h == nil {
		return
	}
	r.Route("/requests", func(rr chi.Router) {
		rr.Get("/", h.List)
		rr.Post("/", h.Create)
		rr.Get("/overdue", h.Overdue)
		rr.Get("/stats", h.Stats)

		rr.Route("/{id}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Get("/document", h.Document)
			item.Post("/status", h.UpdateStatus)
			item.Post("/response", h.RecordResponse)
			item.Post("/confirm", h.ConfirmFiling)
			item.Post("/extension", h.ApplyExtension)
			item.Post("/notes", h.AddNote)

			if ah != nil {
				item.Get("/appeals", ah.List)
				item.Post("/appeals", ah.Generate)
			}
		})
	})
}

func registerAppealRoutes(r chi.Router, h *handlers.AppealHandler) {
	if h == nil {
		return
	}
	r.Route("/appeals/{appealID}", func(ar chi.Router) {
		ar.Get("/", h.Get)
		ar.Post("/status", h.UpdateStatus)
	})
}

func registerAlertRoutes(r chi.Router, h *handlers.AlertHandler) {
	if h == nil {
		return
	}
	r.Route("/alerts", func(ar chi.Router) {
		ar.Get("/", h.List)
		ar.Post("/scan", h.Scan)
		ar.Get("/thresholds", h.Thresholds)
	})
}

func registerCalendarRoutes(r chi.Router, h *handlers.CalendarHandler) {
	if h == nil {
		return
	}
	r.Get("/jurisdictions", h.Jurisdictions)
	r.Route("/calendar", func(cr chi.Router) {
		cr.Get("/deadline", h.Deadline)
		cr.Get("/appeal-deadline", h.AppealDeadline)
		cr.Get("/business-day", h.BusinessDay)
		cr.Get("/holidays", h.Holidays)
	})
}

//Personal.AI order the ending
