package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/colink/gateway/internal/api/handler"
	"github.com/colink/gateway/internal/core/domain"
	"github.com/colink/gateway/internal/core/ports"
	"github.com/colink/gateway/internal/core/service"
	"github.com/colink/gateway/internal/infrastructure/proxy"
)

type stubGuard struct {
	user *domain.User
	err  error
}

func (g *stubGuard) AuthorizeAdmin(context.Context, string) (*domain.User, error) {
	return g.user, g.err
}

type stubDirectory struct{}

func (stubDirectory) ListUsers(context.Context) ([]*domain.User, error) {
	return []*domain.User{{ID: "u1", Username: "alice", Role: domain.RoleMember, Status: domain.StatusActive}}, nil
}

func (stubDirectory) DeleteUser(context.Context, string, string) (*domain.User, error) {
	return nil, domain.ErrUserNotFound
}

func (stubDirectory) PendingSyncs(context.Context) ([]ports.PendingSync, error) {
	return []ports.PendingSync{}, nil
}

type testGateway struct {
	t       *testing.T
	handler http.Handler
}

func newTestGateway(t *testing.T, downstream string, timeout time.Duration, guard ports.AdminGuard) *testGateway {
	t.Helper()
	routes, err := service.NewRouteTable(service.DefaultRoutes(service.ServiceURLs{
		Channel: downstream,
		Message: downstream,
		Thread:  downstream,
		File:    downstream,
	}))
	if err != nil {
		t.Fatalf("NewRouteTable: %v", err)
	}

	e := NewRouter(Deps{
		Log:        zerolog.Nop(),
		Routes:     routes,
		Forwarder:  proxy.NewForwarder(nil, timeout, zerolog.Nop()),
		Guard:      guard,
		Directory:  stubDirectory{},
		Registerer: prometheus.NewRegistry(),
	})
	return &testGateway{t: t, handler: e}
}

func (g *testGateway) do(method, target, auth string, body io.Reader) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	g.handler.ServeHTTP(rec, req)
	return rec
}

func detailOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp handler.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
	return resp.Detail
}

func TestRouter_ProxiesToDownstream(t *testing.T) {
	var gotPath, gotQuery, gotAuth string
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotQuery, gotAuth = r.URL.Path, r.URL.RawQuery, r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"42"}`)
	}))
	defer downstream.Close()

	gw := newTestGateway(t, downstream.URL, time.Second, &stubGuard{})
	rec := gw.do(http.MethodGet, "/channels/42?x=1", "Bearer abc", nil)

	if rec.Code != http.StatusOK || rec.Body.String() != `{"id":"42"}` {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
	if gotPath != "/channels/42" || gotQuery != "x=1" || gotAuth != "Bearer abc" {
		t.Fatalf("downstream saw path=%q query=%q auth=%q", gotPath, gotQuery, gotAuth)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Fatalf("request id not set")
	}
}

func TestRouter_RelaysDownstreamErrors(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = io.WriteString(w, `{"detail":"not a member"}`)
	}))
	defer downstream.Close()

	gw := newTestGateway(t, downstream.URL, time.Second, &stubGuard{})
	rec := gw.do(http.MethodPost, "/messages", "", strings.NewReader(`{"text":"hi"}`))

	if rec.Code != http.StatusForbidden || detailOf(t, rec) != "not a member" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouter_DownstreamTimeout(t *testing.T) {
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer downstream.Close()

	gw := newTestGateway(t, downstream.URL, 50*time.Millisecond, &stubGuard{})
	rec := gw.do(http.MethodGet, "/threads/t1", "", nil)

	if rec.Code != http.StatusGatewayTimeout || detailOf(t, rec) != "Service timeout" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouter_DownstreamUnreachable(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	addr := dead.URL
	dead.Close()

	gw := newTestGateway(t, addr, time.Second, &stubGuard{})
	rec := gw.do(http.MethodGet, "/files/f1", "", nil)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if d := detailOf(t, rec); !strings.HasPrefix(d, "Proxy error: ") || len(d) == len("Proxy error: ") {
		t.Fatalf("unexpected detail: %q", d)
	}
}

func TestRouter_UnroutedAndWrongMethod(t *testing.T) {
	gw := newTestGateway(t, "http://127.0.0.1:1", time.Second, &stubGuard{})

	if rec := gw.do(http.MethodGet, "/users", "", nil); rec.Code != http.StatusNotFound {
		t.Fatalf("/users: expected 404, got %d", rec.Code)
	}
	if rec := gw.do(http.MethodDelete, "/channels", "", nil); rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("DELETE /channels: expected 405, got %d", rec.Code)
	}
}

func TestRouter_AdminRequiresBearer(t *testing.T) {
	gw := newTestGateway(t, "http://127.0.0.1:1", time.Second, &stubGuard{err: domain.ErrAuthentication})

	rec := gw.do(http.MethodGet, "/admin/users", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}

	rec = gw.do(http.MethodGet, "/admin/users", "Bearer stale", nil)
	if rec.Code != http.StatusUnauthorized || detailOf(t, rec) != "Authentication failed" {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouter_AdminForbiddenAndAllowed(t *testing.T) {
	forbidden := newTestGateway(t, "http://127.0.0.1:1", time.Second, &stubGuard{err: domain.ErrForbidden})
	if rec := forbidden.do(http.MethodGet, "/admin/users", "Bearer member", nil); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	admin := &domain.User{ID: "65a1b2c3d4e5f60718293a4b", Username: "root", Role: domain.RoleAdmin}
	gw := newTestGateway(t, "http://127.0.0.1:1", time.Second, &stubGuard{user: admin})

	rec := gw.do(http.MethodGet, "/admin/users", "Bearer admin", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"total":1`) {
		t.Fatalf("unexpected response %d %q", rec.Code, rec.Body.String())
	}

	rec = gw.do(http.MethodDelete, "/admin/users/"+admin.ID, "Bearer admin", nil)
	if rec.Code != http.StatusBadRequest || detailOf(t, rec) != "Cannot delete your own account" {
		t.Fatalf("self delete: unexpected response %d %q", rec.Code, rec.Body.String())
	}

	rec = gw.do(http.MethodDelete, "/admin/users/65a1b2c3d4e5f60718293a4c", "Bearer admin", nil)
	if rec.Code != http.StatusNotFound || detailOf(t, rec) != "User not found" {
		t.Fatalf("missing user: unexpected response %d %q", rec.Code, rec.Body.String())
	}
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	gw := newTestGateway(t, "http://127.0.0.1:1", time.Second, &stubGuard{})

	if rec := gw.do(http.MethodGet, "/health", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("/health: expected 200, got %d", rec.Code)
	}
	if rec := gw.do(http.MethodGet, "/health/ready", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("/health/ready: expected 200, got %d", rec.Code)
	}
	if rec := gw.do(http.MethodGet, "/metrics", "", nil); rec.Code != http.StatusOK {
		t.Fatalf("/metrics: expected 200, got %d", rec.Code)
	}
}
