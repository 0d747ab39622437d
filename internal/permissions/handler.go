package permissions

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/torque-erp/torque-erp/internal/auth"
	"github.com/torque-erp/torque-erp/internal/platform/httpx"
)

// Handler exposes the caller's own permission directory, used by clients
// to build navigation.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes attaches permission routes behind the auth middleware.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/permissions", h.ListOwn)
}

// ListOwn returns the effective permission set of the authenticated user.
func (h *Handler) ListOwn(w http.ResponseWriter, r *http.Request) {
	identity := auth.IdentityFromContext(r.Context())
	records, err := h.service.ListFor(r.Context(), identity)
	if err != nil {
		h.logger.Error("list permissions", slog.Int64("user_id", identity.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	if records == nil {
		records = []Record{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": records})
}
