package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/cybercaja/cybercaja/internal/auth"
	"github.com/cybercaja/cybercaja/internal/dailylog"
	"github.com/cybercaja/cybercaja/internal/dashboard"
	"github.com/cybercaja/cybercaja/internal/debt"
	"github.com/cybercaja/cybercaja/internal/expense"
	"github.com/cybercaja/cybercaja/internal/history"
	"github.com/cybercaja/cybercaja/internal/observability"
	"github.com/cybercaja/cybercaja/internal/shared"
	"github.com/cybercaja/cybercaja/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	SessionManager   *shared.SessionManager
	AuthHandler      *auth.Handler
	DailyLogHandler  *dailylog.Handler
	ExpenseHandler   *expense.Handler
	DebtHandler      *debt.Handler
	HistoryHandler   *history.Handler
	DashboardHandler *dashboard.Handler
	JobsHandler      *jobs.Handler
	Metrics          *observability.Metrics
}

// NewRouter constructs the chi.Router for the API.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	writers := RequireRoles(shared.RoleAdmin, shared.RoleWorker)
	adminOnly := RequireRoles(shared.RoleAdmin)

	r.Group(func(r chi.Router) {
		r.Use(RequireAuth)

		r.Route("/api/logs", func(r chi.Router) {
			params.DailyLogHandler.MountRoutes(r, writers)
		})
		r.Route("/api/expenses", func(r chi.Router) {
			params.ExpenseHandler.MountRoutes(r, writers, adminOnly)
		})
		r.Route("/api/debts", func(r chi.Router) {
			params.DebtHandler.MountRoutes(r, writers)
		})
		r.Route("/api/history", params.HistoryHandler.MountRoutes)
		r.Route("/api/dashboard", params.DashboardHandler.MountRoutes)
		if params.JobsHandler != nil {
			r.With(adminOnly).Route("/api/jobs", params.JobsHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
