package apitoken

import "github.com/google/uuid"

// Status classifies the outcome of a token lookup.
type Status int

const (
	// StatusNotFound means no record matched the presented token, or the
	// hash comparison failed.
	StatusNotFound Status = iota

	// StatusExpired means the record exists but its expiration has passed.
	StatusExpired

	// StatusRevoked means the record exists but was revoked.
	StatusRevoked

	// StatusWrongTenant means the token is valid but bound to a tenant
	// other than the one it was presented against.
	StatusWrongTenant

	// StatusValid means the token authenticates.
	StatusValid
)

// String implements fmt.Stringer.
func (s Status) String() string {
	switch s {
	case StatusNotFound:
		return "not_found"
	case StatusExpired:
		return "expired"
	case StatusRevoked:
		return "revoked"
	case StatusWrongTenant:
		return "wrong_tenant"
	case StatusValid:
		return "valid"
	default:
		return "unknown"
	}
}

// Resolution is the typed result of a token lookup. Token is populated for
// every status except StatusNotFound, letting callers inspect the record
// behind a rejected credential.
type Resolution struct {
	Status Status
	Token  *Token
}

// Valid reports whether the resolution authenticates.
func (r Resolution) Valid() bool { return r.Status == StatusValid }

// Err maps a non-valid resolution to its sentinel error, or nil for
// StatusValid. StatusWrongTenant maps to ErrWrongTenant, which callers
// typically surface rather than treat as absent credentials.
func (r Resolution) Err() error {
	switch r.Status {
	case StatusValid:
		return nil
	case StatusExpired:
		return ErrTokenExpired
	case StatusRevoked:
		return ErrTokenRevoked
	case StatusWrongTenant:
		return ErrWrongTenant
	default:
		return ErrTokenNotFound
	}
}

// ForTenant applies the tenant restriction to a resolution. A valid token
// bound to a tenant other than boundTenantID is demoted to
// StatusWrongTenant unless cross-tenant use is allowed. Unscoped tokens
// and lookups outside any tenant pass through unchanged.
func (r Resolution) ForTenant(boundTenantID *uuid.UUID, allowCrossTenant bool) Resolution {
	if r.Status != StatusValid || allowCrossTenant {
		return r
	}
	if boundTenantID == nil || r.Token == nil || r.Token.TenantID == nil {
		return r
	}
	if *r.Token.TenantID != *boundTenantID {
		return Resolution{Status: StatusWrongTenant, Token: r.Token}
	}
	return r
}
