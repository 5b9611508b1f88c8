package ability

import (
	"slices"
	"strings"
)

const (
	// Wildcard matches every ability.
	Wildcard = "*"

	// Delimiter separates hierarchy levels (e.g. "invoices.export").
	Delimiter = "."
)

// Match reports whether a single granted pattern covers the requested
// ability. Exact matches, the global wildcard and hierarchical suffix
// wildcards ("admin.*") are supported.
func Match(requested, granted string) bool {
	if granted == requested {
		return true
	}

	if granted == Wildcard {
		return true
	}

	if strings.HasSuffix(granted, Wildcard) {
		prefix := strings.TrimSuffix(granted, Wildcard)
		prefix = strings.TrimSuffix(prefix, Delimiter)
		return strings.HasPrefix(requested, prefix+Delimiter)
	}

	return false
}

// Has reports whether any granted ability covers the requested one.
func Has(granted []string, requested string) bool {
	for _, g := range granted {
		if Match(requested, g) {
			return true
		}
	}
	return false
}

// HasAll reports whether every requested ability is covered.
// An empty requested set is always satisfied.
func HasAll(granted, requested []string) bool {
	if len(requested) == 0 {
		return true
	}
	if len(granted) == 0 {
		return false
	}
	if slices.Contains(granted, Wildcard) {
		return true
	}

	for _, req := range requested {
		if !Has(granted, req) {
			return false
		}
	}
	return true
}

// HasAny reports whether at least one requested ability is covered.
// An empty requested set is always satisfied.
func HasAny(granted, requested []string) bool {
	if len(requested) == 0 {
		return true
	}
	if len(granted) == 0 {
		return false
	}
	if slices.Contains(granted, Wildcard) {
		return true
	}

	for _, req := range requested {
		if Has(granted, req) {
			return true
		}
	}
	return false
}

// Normalize trims whitespace, drops empty entries and removes duplicates
// while preserving first-seen order.
func Normalize(abilities []string) []string {
	if len(abilities) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(abilities))
	out := make([]string, 0, len(abilities))
	for _, a := range abilities {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		if _, dup := seen[a]; dup {
			continue
		}
		seen[a] = struct{}{}
		out = append(out, a)
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// Validate reports whether every ability is covered by the allowed
// vocabulary. Empty abilities are valid; an empty vocabulary rejects
// everything except the empty set.
func Validate(abilities, allowed []string) bool {
	if len(abilities) == 0 {
		return true
	}
	if len(allowed) == 0 {
		return false
	}
	if slices.Contains(allowed, Wildcard) {
		return true
	}

	for _, a := range abilities {
		if !Has(allowed, a) {
			return false
		}
	}
	return true
}
