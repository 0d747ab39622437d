package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/torque-erp/torque-erp/internal/observability"
	"github.com/torque-erp/torque-erp/internal/platform/httpx"
)

// Middleware authenticates requests and attaches the Identity to context.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Require rejects unauthenticated requests. Each failure kind keeps its
// own status and message: callers distinguish a revoked session (force
// logout on the client) from a plain 401.
func (m Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := m.Service.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			m.respondFailure(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
	})
}

func (m Middleware) respondFailure(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNoToken), errors.Is(err, ErrUserNotFound):
		m.Metrics.RecordAuthFailure("missing")
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
	case errors.Is(err, ErrInvalidToken):
		m.Metrics.RecordAuthFailure("invalid")
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Invalid token")
	case errors.Is(err, ErrTokenRevoked):
		m.Metrics.RecordAuthFailure("revoked")
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Session expired")
	case errors.Is(err, ErrUserInactive):
		m.Metrics.RecordAuthFailure("inactive")
		httpx.Problem(w, http.StatusForbidden, "Forbidden", "Account inactive")
	default:
		// Storage failure. Log it server-side, leak nothing.
		if m.Logger != nil {
			m.Logger.Error("authenticate", slog.String("path", r.URL.Path), slog.Any("error", err))
		}
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// bearerToken extracts the bare token from the Authorization header.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
