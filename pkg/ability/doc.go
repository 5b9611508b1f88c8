// Package ability provides string-based capability matching for API tokens
// and tenant memberships.
//
// An ability is a plain string such as "read" or "invoices.export" that can
// be granted to a token or a membership. The package understands two
// syntactic conventions:
//
//   - Wildcard ("*") grants everything. A token created with abilities
//     ["*"] satisfies every ability check, including abilities that did not
//     exist when the token was created.
//   - Delimiter (".") separates hierarchy levels, so the pattern "admin.*"
//     grants every ability under the "admin." prefix.
//
// # Usage
//
//	import "github.com/tenauthkit/tenauth/pkg/ability"
//
//	granted := []string{"read", "invoices.*"}
//
//	ability.Has(granted, "invoices.export") // true
//	ability.Has(granted, "delete")          // false
//	ability.HasAll(granted, []string{"read", "invoices.create"}) // true
//
// To restrict tokens to a known vocabulary, validate requested abilities
// against an allow-list:
//
//	if !ability.Validate(requested, cfg.TokenAbilities) {
//	    return ability.ErrNotAllowed
//	}
//
// All helpers are allocation-free for read-only checks and safe for
// concurrent use.
package ability
