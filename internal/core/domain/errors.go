package domain

import "errors"

// Admin path failures.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrForbidden      = errors.New("access denied, admin privileges required")
	ErrUserNotFound   = errors.New("user not found")
	ErrSelfDelete     = errors.New("cannot delete your own account")
)

// Forwarding failures.
var (
	ErrRouteNotFound       = errors.New("no route for path")
	ErrUpstreamTimeout     = errors.New("service timeout")
	ErrUpstreamUnavailable = errors.New("proxy error")
)

// ErrSubjectGone is returned by the identity provider client when the subject
// no longer exists upstream.
var ErrSubjectGone = errors.New("subject not found at identity provider")

// UpstreamError describes a forwarding attempt that got no response from the
// downstream service. It matches ErrUpstreamTimeout or ErrUpstreamUnavailable
// under errors.Is, as well as the underlying transport error.
type UpstreamError struct {
	Service string
	Timeout bool
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Timeout {
		return e.Service + ": " + ErrUpstreamTimeout.Error()
	}
	return e.Service + ": " + ErrUpstreamUnavailable.Error() + ": " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() []error {
	if e.Timeout {
		return []error{ErrUpstreamTimeout, e.Err}
	}
	return []error{ErrUpstreamUnavailable, e.Err}
}
