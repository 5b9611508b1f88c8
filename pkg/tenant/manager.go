package tenant

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"

	"github.com/google/uuid"
)

// Context holds the "current tenant" binding for one logical unit of work
// (a single request or worker task). It is a single-writer, request-local
// state machine: create one instance per unit of work and do not share it
// across concurrently executing units. The internal mutex only protects
// against corrupting the current/previous ordering, not against logical
// races between units sharing an instance.
type Context struct {
	resolver *Resolver
	events   Publisher
	logger   *slog.Logger

	mu       sync.Mutex
	current  *Tenant
	previous *Tenant
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithPublisher sets the event sink for identified/switched notifications.
func WithPublisher(p Publisher) ContextOption {
	return func(c *Context) {
		if p != nil {
			c.events = p
		}
	}
}

// WithContextLogger sets a custom logger.
func WithContextLogger(logger *slog.Logger) ContextOption {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewContext creates a tenant context bound to the given resolver.
func NewContext(resolver *Resolver, opts ...ContextOption) *Context {
	c := &Context{
		resolver: resolver,
		events:   NoopPublisher{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Identify resolves and binds the tenant for the request. Repeat calls are
// no-ops returning the existing binding. A nil result with a nil error
// means no strategy matched; the caller decides whether that is fatal.
func (c *Context) Identify(ctx context.Context, req *http.Request) (*Tenant, error) {
	c.mu.Lock()
	if c.current != nil {
		t := c.current
		c.mu.Unlock()
		return t, nil
	}
	c.mu.Unlock()

	t, err := c.resolver.Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	if t != nil {
		c.SetTenant(t)
		c.events.Publish(ctx, Identified{Tenant: t})
		c.logger.DebugContext(ctx, "tenant identified", slog.String("tenant_id", t.ID.String()))
	}

	return t, nil
}

// SetTenant unconditionally replaces the current binding, moving the prior
// value into previous. This is the only primitive mutator; every other
// transition composes it.
func (c *Context) SetTenant(t *Tenant) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.previous = c.current
	c.current = t
}

// Tenant returns the current binding, or nil when none is bound.
func (c *Context) Tenant() *Tenant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// TenantOrFail returns the current binding or ErrNotResolved when none is bound.
func (c *Context) TenantOrFail() (*Tenant, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current == nil {
		return nil, ErrNotResolved
	}
	return c.current, nil
}

// Switch binds a new tenant and always publishes a Switched event carrying
// the previous and new bindings. Used for explicit user-initiated switches,
// not request-scoped identification.
func (c *Context) Switch(ctx context.Context, t *Tenant) {
	previous := c.Tenant()
	c.SetTenant(t)

	c.events.Publish(ctx, Switched{Previous: previous, Current: t})
}

// ExecuteInTenant resolves ref (a *Tenant, uuid.UUID or uuid string) and
// runs fn with the tenant temporarily bound, both in this Context and in
// the context.Context passed to fn. The prior binding is restored exactly
// once on every exit path, including panics and nested rebinding inside fn.
func (c *Context) ExecuteInTenant(ctx context.Context, ref any, fn func(ctx context.Context) error) error {
	target, err := c.resolveRef(ctx, ref)
	if err != nil {
		return err
	}

	saved := c.Tenant()
	c.SetTenant(target)
	defer c.SetTenant(saved)

	return fn(WithTenant(ctx, target))
}

// HasTenant reports whether a tenant is currently bound.
func (c *Context) HasTenant() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// ClearTenant unbinds the current tenant; previous becomes the prior current.
func (c *Context) ClearTenant() {
	c.SetTenant(nil)
}

// PreviousTenant returns the immediately-prior binding.
func (c *Context) PreviousTenant() *Tenant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.previous
}

// Resolver exposes the underlying resolver for id-based lookups.
func (c *Context) Resolver() *Resolver {
	return c.resolver
}

func (c *Context) resolveRef(ctx context.Context, ref any) (*Tenant, error) {
	switch v := ref.(type) {
	case *Tenant:
		if v == nil {
			return nil, ErrNotResolved
		}
		return v, nil
	case Tenant:
		return &v, nil
	case uuid.UUID:
		return c.resolveRefID(ctx, v)
	case string:
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, &NotResolvedByIDError{ID: v}
		}
		return c.resolveRefID(ctx, id)
	default:
		return nil, ErrInvalidIdentifier
	}
}

func (c *Context) resolveRefID(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	t, err := c.resolver.ResolveByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, &NotResolvedByIDError{ID: id.String()}
	}
	return t, nil
}
