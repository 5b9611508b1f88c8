package tenantauth

import (
	"errors"
	"net/http"

	"github.com/tenauthkit/tenauth/pkg/ability"
	"github.com/tenauthkit/tenauth/pkg/apitoken"
	"github.com/tenauthkit/tenauth/pkg/guard"
	"github.com/tenauthkit/tenauth/pkg/tenant"
)

// RequireAccess authenticates the request through the session guard and
// verifies the acting user (impersonation included) may act in the current
// tenant. The identity is carried in the request context for downstream
// handlers.
func RequireAccess(m *Manager, g *guard.SessionGuard, errorHandler tenant.ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = DefaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := g.WithRequest(w, r)
			user, err := m.User(r.Context(), scope)
			if err != nil {
				errorHandler(w, r, err)
				return
			}
			if err := m.CheckAccess(r.Context(), user); err != nil {
				errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(guard.WithIdentity(r.Context(), user)))
		})
	}
}

// RequireRole is RequireAccess plus a membership role check.
func RequireRole(m *Manager, g *guard.SessionGuard, errorHandler tenant.ErrorHandler, roles ...string) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = DefaultErrorHandler
	}
	access := RequireAccess(m, g, errorHandler)

	return func(next http.Handler) http.Handler {
		return access(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, _ := guard.IdentityFromContext(r.Context())
			ok, err := m.HasRole(r.Context(), user, roles...)
			if err != nil {
				errorHandler(w, r, err)
				return
			}
			if !ok {
				errorHandler(w, r, guard.ErrAccessDenied)
				return
			}

			next.ServeHTTP(w, r)
		}))
	}
}

// RequireToken authenticates the request through the token guard,
// optionally demanding an ability of the presented token.
func RequireToken(g *guard.TokenGuard, errorHandler tenant.ErrorHandler, abilities ...string) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = DefaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			scope := g.WithRequest(r)
			user, err := scope.User(r.Context())
			if err != nil {
				errorHandler(w, r, err)
				return
			}
			for _, a := range abilities {
				if !scope.TokenCan(a) {
					errorHandler(w, r, ability.ErrNotAllowed)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(guard.WithIdentity(r.Context(), user)))
		})
	}
}

// DefaultErrorHandler maps authentication and access failures to
// conventional status codes.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, guard.ErrUnauthenticated), errors.Is(err, guard.ErrTenantMismatch):
		http.Error(w, "Unauthenticated", http.StatusUnauthorized)
	case errors.Is(err, guard.ErrAccessDenied),
		errors.Is(err, apitoken.ErrWrongTenant),
		errors.Is(err, ability.ErrNotAllowed):
		http.Error(w, "Forbidden", http.StatusForbidden)
	case errors.Is(err, tenant.ErrNotResolved):
		http.Error(w, "Tenant could not be resolved", http.StatusUnprocessableEntity)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
