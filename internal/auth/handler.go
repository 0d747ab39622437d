package auth

import (
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/torque-erp/torque-erp/internal/platform/httpx"
)

// Handler exposes the authentication endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	throttle *Throttle
	validate *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, throttle *Throttle) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		throttle: throttle,
		validate: validator.New(),
	}
}

// MountPublicRoutes attaches routes reachable without a token.
func (h *Handler) MountPublicRoutes(r chi.Router) {
	r.Post("/login", h.Login)
}

// MountProtectedRoutes attaches routes behind the auth middleware.
func (h *Handler) MountProtectedRoutes(r chi.Router) {
	r.Get("/me", h.Me)
	r.Post("/logout", h.Logout)
}

type loginRequest struct {
	Nickname string `json:"nickname" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  *Identity `json:"user"`
}

// Login checks credentials and returns a signed access token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "nickname and password are required")
		return
	}

	ip := clientIP(r)
	if !h.throttle.Allow(r.Context(), req.Nickname, ip) {
		httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "Too many failed login attempts, try again later")
		return
	}

	tok, identity, err := h.service.Login(r.Context(), req.Nickname, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.throttle.RecordFailure(r.Context(), req.Nickname, ip)
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Invalid credentials")
			return
		}
		h.logger.Error("login", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	h.throttle.Reset(r.Context(), req.Nickname, ip)

	httpx.JSON(w, http.StatusOK, loginResponse{Token: tok, User: identity})
}

// Me returns the authenticated identity.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, IdentityFromContext(r.Context()))
}

// Logout revokes every token issued to the caller by bumping the stored
// token version. The presented token stops verifying on the next request.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	identity := IdentityFromContext(r.Context())
	if err := h.service.Logout(r.Context(), identity.ID); err != nil {
		h.logger.Error("logout", slog.Int64("user_id", identity.ID), slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
