package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/colink/gateway/internal/core/domain"
	"github.com/colink/gateway/internal/core/ports"
)

type stubResolver struct {
	route domain.Route
	path  string
	err   error
	seen  string
}

func (r *stubResolver) Resolve(path string) (domain.Route, string, error) {
	r.seen = path
	return r.route, r.path, r.err
}

type stubForwarder struct {
	forwardFn func(ctx context.Context, req ports.OutboundRequest) (*http.Response, error)
}

func (f *stubForwarder) Forward(ctx context.Context, req ports.OutboundRequest) (*http.Response, error) {
	return f.forwardFn(ctx, req)
}

func TestProxyHandler_RelaysDownstreamResponse(t *testing.T) {
	resolver := &stubResolver{
		route: domain.Route{Service: "channel", BaseURL: "http://channel:8003"},
		path:  "/channels/42",
	}
	fwd := &stubForwarder{forwardFn: func(_ context.Context, req ports.OutboundRequest) (*http.Response, error) {
		if req.URL != "http://channel:8003/channels/42" || req.RawQuery != "x=1" || req.Method != http.MethodPost {
			t.Fatalf("unexpected outbound request: %+v", req)
		}
		if req.Header.Get("Authorization") != "Bearer tok" {
			t.Fatalf("authorization not passed through")
		}
		h := http.Header{}
		h.Set("Content-Type", "application/json")
		h.Set("X-Downstream", "1")
		h.Set("Connection", "close")
		return &http.Response{
			StatusCode: http.StatusUnprocessableEntity,
			Header:     h,
			Body:       io.NopCloser(strings.NewReader(`{"detail":"bad"}`)),
		}, nil
	}}
	h := NewProxyHandler(resolver, fwd, zerolog.Nop())

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/channels/42?x=1", strings.NewReader(`{}`))
	req.Header.Set("Authorization", "Bearer tok")
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Forward(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 relayed, got %d", rec.Code)
	}
	if rec.Body.String() != `{"detail":"bad"}` {
		t.Fatalf("unexpected body: %q", rec.Body.String())
	}
	if rec.Header().Get("X-Downstream") != "1" || rec.Header().Get("Connection") != "" {
		t.Fatalf("unexpected headers: %v", rec.Header())
	}
	if resolver.seen != "/channels/42" {
		t.Fatalf("resolver saw %q", resolver.seen)
	}
}

func TestProxyHandler_ResolvesEscapedPath(t *testing.T) {
	resolver := &stubResolver{err: domain.ErrRouteNotFound}
	h := NewProxyHandler(resolver, &stubForwarder{}, zerolog.Nop())

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/files/a%2Fb", nil), httptest.NewRecorder())

	if err := h.Forward(c); !errors.Is(err, domain.ErrRouteNotFound) {
		t.Fatalf("expected ErrRouteNotFound, got %v", err)
	}
	if resolver.seen != "/files/a%2Fb" {
		t.Fatalf("resolver saw %q, want escaped path", resolver.seen)
	}
}

func TestProxyHandler_ReturnsUpstreamError(t *testing.T) {
	resolver := &stubResolver{route: domain.Route{Service: "thread", BaseURL: "http://threads"}, path: "/threads/t"}
	upErr := &domain.UpstreamError{Service: "thread", Timeout: true, Err: context.DeadlineExceeded}
	fwd := &stubForwarder{forwardFn: func(context.Context, ports.OutboundRequest) (*http.Response, error) {
		return nil, upErr
	}}
	h := NewProxyHandler(resolver, fwd, zerolog.Nop())

	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/threads/t", nil), rec)

	if err := h.Forward(c); !errors.Is(err, domain.ErrUpstreamTimeout) {
		t.Fatalf("expected ErrUpstreamTimeout, got %v", err)
	}
	if rec.Body.Len() != 0 {
		t.Fatalf("handler wrote a body on failure")
	}
}
