package tenantauth

import "time"

// Config carries the tunable policy of the multi-tenant auth layer. Load
// it from the environment with the config package.
type Config struct {
	// Strategies is the tenant resolution order. Empty means the resolver
	// default of subdomain, header, domain, path.
	Strategies []string `env:"TENANT_STRATEGIES" envSeparator:","`

	// CentralDomains are the apex domains whose subdomains identify
	// tenants. Requests to a bare central domain resolve no tenant.
	CentralDomains []string `env:"TENANT_CENTRAL_DOMAINS" envSeparator:","`

	// HeaderName is the header checked by the header resolution strategy.
	HeaderName string `env:"TENANT_HEADER_NAME" envDefault:"X-Tenant-ID"`

	// PathParam is the route parameter checked by the path strategy.
	PathParam string `env:"TENANT_PATH_PARAM" envDefault:"tenant"`

	// CacheTTL bounds how long resolved tenants are served from cache.
	CacheTTL time.Duration `env:"TENANT_CACHE_TTL" envDefault:"1h"`

	// SessionTTL is the lifetime of anonymous sessions.
	SessionTTL time.Duration `env:"AUTH_SESSION_TTL" envDefault:"24h"`

	// AuthenticatedSessionTTL is the lifetime of authenticated sessions.
	AuthenticatedSessionTTL time.Duration `env:"AUTH_SESSION_AUTHENTICATED_TTL" envDefault:"168h"`

	// AllowUnscopedIdentities lets identities without a tenant association
	// act in tenants. Off by default: an identity that cannot name its
	// tenants is denied tenant access.
	AllowUnscopedIdentities bool `env:"AUTH_ALLOW_UNSCOPED_IDENTITIES" envDefault:"false"`

	// AllowCrossTenantTokens lets API tokens scoped to one tenant
	// authenticate requests bound to another. Off by default.
	AllowCrossTenantTokens bool `env:"AUTH_ALLOW_CROSS_TENANT_TOKENS" envDefault:"false"`

	// TokenTTL is the default expiration for new API tokens. Zero means
	// tokens do not expire unless given an explicit expiry.
	TokenTTL time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"0"`

	// TokenAbilities restricts the abilities new API tokens may carry.
	// Empty means any ability string is accepted.
	TokenAbilities []string `env:"AUTH_TOKEN_ABILITIES" envSeparator:","`

	// DisableImpersonation turns the impersonation operations off.
	DisableImpersonation bool `env:"AUTH_DISABLE_IMPERSONATION" envDefault:"false"`
}
