package permissions

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/torque-erp/torque-erp/internal/auth"
	"github.com/torque-erp/torque-erp/internal/observability"
	"github.com/torque-erp/torque-erp/internal/platform/httpx"
)

// Middleware wires permission gates for HTTP handlers.
type Middleware struct {
	Service *Service
	Logger  *slog.Logger
	Metrics *observability.Metrics
}

// Require gates a route on (module, action). A deny short-circuits with a
// 403 before the business handler runs; a lookup failure is a 500. Must be
// mounted after the auth middleware.
func (m Middleware) Require(module string, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := auth.IdentityFromContext(r.Context())
			if identity == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "Authentication required")
				return
			}
			decision, err := m.Service.Check(r.Context(), identity, module, action)
			if err != nil {
				if m.Logger != nil {
					m.Logger.Error("permission check", slog.String("module", module), slog.String("action", string(action)), slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
				return
			}
			if !decision.Allowed {
				m.Metrics.RecordPermissionDenial(module)
				httpx.Problem(w, http.StatusForbidden, "Forbidden",
					fmt.Sprintf("No %s permission for module %s", action, module))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
