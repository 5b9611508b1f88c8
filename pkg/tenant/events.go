package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Publisher delivers tenancy events to an external sink. Delivery is
// fire-and-forget and best-effort; implementations must not block request
// handling.
type Publisher interface {
	Publish(ctx context.Context, event any)
}

// Identified is published when a tenant is first bound to a request.
type Identified struct {
	Tenant *Tenant
}

// Switched is published on an explicit user-initiated tenant switch.
type Switched struct {
	Previous *Tenant
	Current  *Tenant
}

// Authenticated is published when a user authenticates against a bound tenant.
type Authenticated struct {
	Tenant *Tenant
	UserID uuid.UUID
}

// AccessDenied is published when a user is denied access to a tenant.
type AccessDenied struct {
	UserID   uuid.UUID
	TenantID uuid.UUID
}

// NoopPublisher discards every event.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event any) {}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, event any)

func (f PublisherFunc) Publish(ctx context.Context, event any) { f(ctx, event) }
