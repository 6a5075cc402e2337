package service

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/colink/gateway/internal/core/domain"
)

var (
	rootMethods    = []string{http.MethodGet, http.MethodPost}
	subtreeMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch}
)

// ServiceURLs holds the base address of every downstream service.
type ServiceURLs struct {
	Channel string
	Message string
	Thread  string
	File    string
}

// DefaultRoutes returns the gateway's fixed routing table.
func DefaultRoutes(urls ServiceURLs) []domain.Route {
	return []domain.Route{
		{Pattern: "/channels", Service: "channel", BaseURL: urls.Channel, Methods: rootMethods},
		{Pattern: "/channels/*", Service: "channel", BaseURL: urls.Channel, Methods: subtreeMethods},
		{Pattern: "/messages", Service: "message", BaseURL: urls.Message, Methods: rootMethods},
		{Pattern: "/messages/*", Service: "message", BaseURL: urls.Message, Methods: subtreeMethods},
		{Pattern: "/threads/*", Service: "thread", BaseURL: urls.Thread, Methods: subtreeMethods},
		{Pattern: "/files/*", Service: "file", BaseURL: urls.File, Methods: subtreeMethods},
	}
}

// RouteTable is an immutable, specificity-ordered set of routes. It is safe
// for concurrent use.
type RouteTable struct {
	routes []domain.Route
}

// NewRouteTable validates routes and orders them most specific first: exact
// patterns before wildcards, then longer prefixes before shorter ones.
func NewRouteTable(routes []domain.Route) (*RouteTable, error) {
	seen := make(map[string]struct{}, len(routes))
	ordered := make([]domain.Route, 0, len(routes))

	for _, r := range routes {
		if !strings.HasPrefix(r.Pattern, "/") {
			return nil, fmt.Errorf("route %q: pattern must start with /", r.Pattern)
		}
		if strings.Contains(strings.TrimSuffix(r.Pattern, "/*"), "*") {
			return nil, fmt.Errorf("route %q: wildcard only allowed as trailing /*", r.Pattern)
		}
		if _, dup := seen[r.Pattern]; dup {
			return nil, fmt.Errorf("route %q: duplicate pattern", r.Pattern)
		}
		seen[r.Pattern] = struct{}{}

		u, err := url.Parse(r.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return nil, fmt.Errorf("route %q: invalid base url %q", r.Pattern, r.BaseURL)
		}
		if len(r.Methods) == 0 {
			return nil, fmt.Errorf("route %q: no methods", r.Pattern)
		}

		r.BaseURL = strings.TrimSuffix(r.BaseURL, "/")
		r.Methods = append([]string(nil), r.Methods...)
		ordered = append(ordered, r)
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return specificity(ordered[i]) > specificity(ordered[j])
	})

	return &RouteTable{routes: ordered}, nil
}

// specificity ranks a route; any exact pattern outranks every wildcard.
func specificity(r domain.Route) int {
	score := len(r.Prefix())
	if !r.IsWildcard() {
		score += 1 << 16
	}
	return score
}

// Routes returns a copy of the ordered entries.
func (t *RouteTable) Routes() []domain.Route {
	out := make([]domain.Route, len(t.routes))
	copy(out, t.routes)
	return out
}

// Resolve finds the most specific route for path and returns it together with
// the downstream path: the route prefix followed by the inbound residual.
func (t *RouteTable) Resolve(path string) (domain.Route, string, error) {
	for _, r := range t.routes {
		prefix := r.Prefix()
		if !r.IsWildcard() {
			if path == prefix {
				return r, prefix, nil
			}
			continue
		}

		if path == prefix || path == prefix+"/" {
			return r, prefix, nil
		}
		if strings.HasPrefix(path, prefix+"/") {
			return r, prefix + path[len(prefix):], nil
		}
	}
	return domain.Route{}, "", fmt.Errorf("%w: %s", domain.ErrRouteNotFound, path)
}
