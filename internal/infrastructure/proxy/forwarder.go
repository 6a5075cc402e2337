// Package proxy replays client requests against downstream services.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/colink/gateway/internal/core/domain"
	"github.com/colink/gateway/internal/core/ports"
	"github.com/colink/gateway/internal/metrics"
)

const (
	DefaultTimeout     = 30 * time.Second
	defaultContentType = "application/json"
)

// Forwarder implements ports.Forwarder over a shared, pooled HTTP client.
// It makes exactly one attempt per request.
type Forwarder struct {
	client  *http.Client
	timeout time.Duration
	log     zerolog.Logger
}

// NewForwarder returns a Forwarder. A nil client gets a dedicated pooled
// transport; timeout <= 0 falls back to DefaultTimeout.
func NewForwarder(client *http.Client, timeout time.Duration, log zerolog.Logger) *Forwarder {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = NewHTTPClient()
	}
	return &Forwarder{client: client, timeout: timeout, log: log}
}

// NewHTTPClient returns a client with connection pooling tuned for a handful
// of downstream hosts. Timeouts are applied per request by the callers.
func NewHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = 32
	transport.IdleConnTimeout = 90 * time.Second
	return &http.Client{
		Transport: transport,
		// Downstream redirects are relayed to the client, not followed.
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// Forward sends req downstream. The outbound call is detached from ctx's
// cancellation so a client disconnect does not abort it; only the forwarder
// timeout does. The caller must close the returned body.
func (f *Forwarder) Forward(ctx context.Context, req ports.OutboundRequest) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.timeout)

	target := req.URL
	if req.RawQuery != "" {
		target += "?" + req.RawQuery
	}

	var body io.Reader
	if carriesBody(req.Method) {
		body = req.Body
	}

	out, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		cancel()
		return nil, &domain.UpstreamError{Service: req.Service, Err: fmt.Errorf("build request: %w", err)}
	}
	copyForwardHeaders(out.Header, req.Header)

	f.log.Info().
		Str("service", req.Service).
		Str("method", req.Method).
		Str("target", target).
		Msg("proxying request")

	start := time.Now()
	resp, err := f.client.Do(out)
	metrics.ForwardDuration.WithLabelValues(req.Service).Observe(time.Since(start).Seconds())

	if err != nil {
		cancel()
		upErr := &domain.UpstreamError{Service: req.Service, Timeout: isTimeout(err), Err: err}
		outcome := "error"
		if upErr.Timeout {
			outcome = "timeout"
		}
		metrics.ForwardRequestsTotal.WithLabelValues(req.Service, outcome).Inc()
		f.log.Error().Err(err).
			Str("service", req.Service).
			Str("target", target).
			Bool("timeout", upErr.Timeout).
			Msg("proxy request failed")
		return nil, upErr
	}

	metrics.ForwardRequestsTotal.WithLabelValues(req.Service, "ok").Inc()
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// carriesBody reports whether the method's body is forwarded.
func carriesBody(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// copyForwardHeaders copies the authorization header verbatim and the content
// negotiation headers with a JSON default. Nothing else is forwarded.
func copyForwardHeaders(dst, src http.Header) {
	if auth := src.Get("Authorization"); auth != "" {
		dst.Set("Authorization", auth)
	}
	dst.Set("Content-Type", headerOr(src, "Content-Type", defaultContentType))
	dst.Set("Accept", headerOr(src, "Accept", defaultContentType))
}

func headerOr(h http.Header, key, fallback string) string {
	if v := h.Get(key); v != "" {
		return v
	}
	return fallback
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// cancelOnClose releases the request context once the body is consumed.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
