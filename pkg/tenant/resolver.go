package tenant

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Built-in resolution strategy names. Strategies are tried strictly in the
// configured order; earlier strategies take precedence.
const (
	StrategySubdomain = "subdomain"
	StrategyDomain    = "domain"
	StrategyPath      = "path"
	StrategyHeader    = "header"
)

// DefaultStrategies is the default resolution order.
var DefaultStrategies = []string{StrategySubdomain, StrategyHeader, StrategyDomain, StrategyPath}

const (
	// DefaultHeaderName carries the tenant id for the header strategy.
	DefaultHeaderName = "X-Tenant-ID"

	// DefaultPathParam names the route parameter holding the tenant slug.
	DefaultPathParam = "tenant"

	// DefaultCacheTTL bounds the staleness window of cached lookups.
	DefaultCacheTTL = time.Hour
)

// StrategyFunc is a custom resolution strategy. It receives the request and
// the resolver (for store-backed lookups) and returns the matched tenant or
// nil when the strategy does not apply.
type StrategyFunc func(r *http.Request, resolver *Resolver) (*Tenant, error)

// Resolver determines the tenant for an inbound request using an ordered,
// pluggable strategy chain. Absence of a match is represented as a nil
// tenant, never as an error; errors are reserved for store/cache failures.
type Resolver struct {
	store Store
	cache Cache

	strategies     []string
	centralDomains []string
	headerName     string
	pathParam      string
	cacheTTL       time.Duration
	logger         *slog.Logger

	mu     sync.RWMutex
	custom map[string]StrategyFunc
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithStrategies sets the resolution order. Unknown names dispatch to
// custom strategies registered with RegisterStrategy.
func WithStrategies(strategies ...string) ResolverOption {
	return func(r *Resolver) {
		if len(strategies) > 0 {
			r.strategies = strategies
		}
	}
}

// WithCentralDomains sets the central domains the subdomain strategy strips.
func WithCentralDomains(domains ...string) ResolverOption {
	return func(r *Resolver) {
		r.centralDomains = domains
	}
}

// WithHeaderName sets the header inspected by the header strategy.
func WithHeaderName(name string) ResolverOption {
	return func(r *Resolver) {
		if name != "" {
			r.headerName = name
		}
	}
}

// WithPathParam sets the route parameter name used by the path strategy.
func WithPathParam(name string) ResolverOption {
	return func(r *Resolver) {
		if name != "" {
			r.pathParam = name
		}
	}
}

// WithResolverCache sets a custom cache implementation. Pass NewNoopCache()
// to disable caching entirely.
func WithResolverCache(cache Cache) ResolverOption {
	return func(r *Resolver) {
		if cache != nil {
			r.cache = cache
		}
	}
}

// WithCacheTTL sets how long lookup results are memoized.
func WithCacheTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		if ttl > 0 {
			r.cacheTTL = ttl
		}
	}
}

// WithResolverLogger sets a custom logger.
func WithResolverLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver backed by the given store.
func NewResolver(store Store, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		store:      store,
		cache:      NewInMemoryCache(),
		strategies: DefaultStrategies,
		headerName: DefaultHeaderName,
		pathParam:  DefaultPathParam,
		cacheTTL:   DefaultCacheTTL,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		custom:     make(map[string]StrategyFunc),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// RegisterStrategy adds or replaces a custom strategy. Built-in strategy
// names cannot be shadowed; attempting to do so returns ErrReservedStrategy.
func (r *Resolver) RegisterStrategy(name string, fn StrategyFunc) error {
	switch name {
	case StrategySubdomain, StrategyDomain, StrategyPath, StrategyHeader:
		return ErrReservedStrategy
	}
	if fn == nil {
		return ErrInvalidIdentifier
	}

	r.mu.Lock()
	r.custom[name] = fn
	r.mu.Unlock()

	return nil
}

// Resolve runs the strategy chain against the request and returns the first
// active tenant found, or nil when no strategy matches. The resolved tenant
// is additionally cached under the "current" key.
func (r *Resolver) Resolve(ctx context.Context, req *http.Request) (*Tenant, error) {
	for _, strategy := range r.strategies {
		t, err := r.resolveUsingStrategy(ctx, strategy, req)
		if err != nil {
			return nil, err
		}
		if t != nil {
			r.cache.Set(ctx, CacheKeyCurrent, t, r.cacheTTL)
			r.logger.DebugContext(ctx, "tenant resolved",
				slog.String("strategy", strategy),
				slog.String("tenant_id", t.ID.String()),
			)
			return t, nil
		}
	}

	return nil, nil
}

// ResolveByID looks up an active tenant by id, consulting the cache.
func (r *Resolver) ResolveByID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	key := CacheKey(ColumnID, id.String())
	if cached, ok := r.cache.Get(ctx, key); ok && cached.IsActive() {
		return cached, nil
	}

	t, err := r.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, nil
		}
		return nil, err
	}

	r.cache.Set(ctx, key, t, r.cacheTTL)
	return t, nil
}

// ClearCache invalidates every tenant lookup entry held by this resolver.
func (r *Resolver) ClearCache(ctx context.Context) {
	r.cache.DeletePrefix(ctx, CacheKeyPrefix)
}

func (r *Resolver) resolveUsingStrategy(ctx context.Context, strategy string, req *http.Request) (*Tenant, error) {
	switch strategy {
	case StrategySubdomain:
		return r.resolveBySubdomain(ctx, req)
	case StrategyDomain:
		return r.resolveByDomain(ctx, req)
	case StrategyPath:
		return r.resolveByPath(ctx, req)
	case StrategyHeader:
		return r.resolveByHeader(ctx, req)
	default:
		return r.resolveByCustom(strategy, req)
	}
}

func (r *Resolver) resolveBySubdomain(ctx context.Context, req *http.Request) (*Tenant, error) {
	host := stripPort(req.Host)

	for _, central := range r.centralDomains {
		if central == "" || !strings.HasSuffix(host, "."+central) {
			continue
		}

		label := strings.TrimSuffix(host, "."+central)
		if label == "" || label == central {
			continue
		}

		return r.findBy(ctx, ColumnSubdomain, label)
	}

	return nil, nil
}

func (r *Resolver) resolveByDomain(ctx context.Context, req *http.Request) (*Tenant, error) {
	host := stripPort(req.Host)
	if host == "" {
		return nil, nil
	}

	return r.findBy(ctx, ColumnDomain, host)
}

func (r *Resolver) resolveByPath(ctx context.Context, req *http.Request) (*Tenant, error) {
	slug := chi.URLParam(req, r.pathParam)
	if slug == "" {
		// Outside a chi routing context the first path segment stands in
		// for the named route parameter.
		slug = firstPathSegment(req.URL.Path)
	}
	if slug == "" {
		return nil, nil
	}

	return r.findBy(ctx, ColumnSlug, slug)
}

func (r *Resolver) resolveByHeader(ctx context.Context, req *http.Request) (*Tenant, error) {
	value := req.Header.Get(r.headerName)
	if value == "" {
		return nil, nil
	}

	id, err := uuid.Parse(value)
	if err != nil {
		// A malformed id is ordinary absence, not a resolution failure.
		return nil, nil
	}

	return r.ResolveByID(ctx, id)
}

func (r *Resolver) resolveByCustom(strategy string, req *http.Request) (*Tenant, error) {
	r.mu.RLock()
	fn, ok := r.custom[strategy]
	r.mu.RUnlock()

	if !ok {
		return nil, nil
	}

	return fn(req, r)
}

// findBy looks up an active tenant by column, consulting the cache first.
// Cached entries that went inactive within the TTL window are re-checked
// against the store.
func (r *Resolver) findBy(ctx context.Context, column Column, value string) (*Tenant, error) {
	key := CacheKey(column, value)
	if cached, ok := r.cache.Get(ctx, key); ok && cached.IsActive() {
		return cached, nil
	}

	t, err := r.store.FindByColumn(ctx, column, value)
	if err != nil {
		if errors.Is(err, ErrTenantNotFound) {
			return nil, nil
		}
		return nil, err
	}

	r.cache.Set(ctx, key, t, r.cacheTTL)
	return t, nil
}

// FindBy exposes column lookups to custom strategies.
func (r *Resolver) FindBy(ctx context.Context, column Column, value string) (*Tenant, error) {
	return r.findBy(ctx, column, value)
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	// Port-less hosts fail SplitHostPort; bracketed IPv6 literals without a
	// port still need unwrapping.
	return strings.Trim(host, "[]")
}

func firstPathSegment(path string) string {
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return ""
	}
	if idx := strings.Index(path, "/"); idx != -1 {
		return path[:idx]
	}
	return path
}
