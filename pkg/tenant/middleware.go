package tenant

import (
	"errors"
	"net/http"
	"strings"
)

// ErrorHandler renders resolution and access failures to the client.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type middlewareConfig struct {
	required     bool
	skipPaths    []string
	errorHandler ErrorHandler
}

// MiddlewareOption configures the Identify middleware.
type MiddlewareOption func(*middlewareConfig)

// WithRequired makes a missing tenant fatal for the request.
func WithRequired(required bool) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.required = required
	}
}

// WithSkipPaths bypasses identification for path prefixes such as /health.
func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skipPaths = paths
	}
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// Identify returns middleware that resolves the tenant for each request,
// binds it to the tenant Context and carries it in the request context.
func Identify(tc *Context, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		required:     true,
		errorHandler: DefaultErrorHandler,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			t, err := tc.Identify(r.Context(), r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}

			if t == nil {
				if cfg.required {
					cfg.errorHandler(w, r, ErrNotResolved)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), t)))
		})
	}
}

// RequireTenant ensures a tenant is carried in the request context.
func RequireTenant(errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = DefaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				errorHandler(w, r, ErrNoTenantInContext)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// PreventTenant guards central-only routes that must be reached without a
// tenant context.
func PreventTenant(tc *Context, errorHandler ErrorHandler) func(http.Handler) http.Handler {
	if errorHandler == nil {
		errorHandler = DefaultErrorHandler
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tc.HasTenant() {
				errorHandler(w, r, ErrTenantForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// DefaultErrorHandler maps resolution failures to conventional status codes.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotResolved), errors.Is(err, ErrTenantNotFound):
		http.Error(w, "Tenant could not be resolved", http.StatusUnprocessableEntity)
	case errors.Is(err, ErrTenantForbidden):
		http.Error(w, "Route cannot be accessed with a tenant context", http.StatusForbidden)
	case errors.Is(err, ErrNoTenantInContext):
		http.Error(w, "No tenant context", http.StatusUnprocessableEntity)
	default:
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}
