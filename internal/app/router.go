package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/torque-erp/torque-erp/internal/auth"
	"github.com/torque-erp/torque-erp/internal/clients"
	"github.com/torque-erp/torque-erp/internal/invoices"
	"github.com/torque-erp/torque-erp/internal/observability"
	"github.com/torque-erp/torque-erp/internal/orders"
	"github.com/torque-erp/torque-erp/internal/permissions"
	"github.com/torque-erp/torque-erp/internal/settings"
	"github.com/torque-erp/torque-erp/internal/users"
	"github.com/torque-erp/torque-erp/internal/vehicles"
	"github.com/torque-erp/torque-erp/internal/worktimes"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger *slog.Logger
	Config *Config

	AuthMiddleware auth.Middleware
	Gate           permissions.Middleware

	AuthHandler        *auth.Handler
	PermissionsHandler *permissions.Handler
	UsersHandler       *users.Handler
	ClientsHandler     *clients.Handler
	VehiclesHandler    *vehicles.Handler
	OrdersHandler      *orders.Handler
	WorktimesHandler   *worktimes.Handler
	InvoicesHandler    *invoices.Handler
	SettingsHandler    *settings.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with Torque defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		params.AuthHandler.MountPublicRoutes(r)
		r.Group(func(r chi.Router) {
			r.Use(params.AuthMiddleware.Require)
			params.AuthHandler.MountProtectedRoutes(r)
		})
	})

	// Everything below requires a valid identity; each module mounts its
	// own permission gates on top.
	r.Group(func(r chi.Router) {
		r.Use(params.AuthMiddleware.Require)

		if params.PermissionsHandler != nil {
			params.PermissionsHandler.MountRoutes(r)
		}
		if params.UsersHandler != nil {
			params.UsersHandler.MountRoutes(r, params.Gate)
		}
		if params.ClientsHandler != nil {
			params.ClientsHandler.MountRoutes(r, params.Gate)
		}
		if params.VehiclesHandler != nil {
			params.VehiclesHandler.MountRoutes(r, params.Gate)
		}
		if params.OrdersHandler != nil {
			params.OrdersHandler.MountRoutes(r, params.Gate)
		}
		if params.WorktimesHandler != nil {
			params.WorktimesHandler.MountRoutes(r, params.Gate)
		}
		if params.InvoicesHandler != nil {
			params.InvoicesHandler.MountRoutes(r, params.Gate)
		}
		if params.SettingsHandler != nil {
			params.SettingsHandler.MountRoutes(r, params.Gate)
		}
	})

	return r
}
