package domain

import "strings"

// Route binds a path pattern to a downstream service.
//
// A Pattern ending in "/*" matches the prefix and anything below it; any
// other Pattern matches only the exact path.
type Route struct {
	Pattern string
	Service string
	BaseURL string
	Methods []string
}

// IsWildcard reports whether the route matches a whole subtree.
func (r Route) IsWildcard() bool {
	return strings.HasSuffix(r.Pattern, "/*")
}

// Prefix returns the literal path the route is anchored at, without the
// trailing wildcard.
func (r Route) Prefix() string {
	if r.IsWildcard() {
		return strings.TrimSuffix(r.Pattern, "/*")
	}
	return r.Pattern
}
