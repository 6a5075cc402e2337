package api

import (
	"github.com/google/uuid"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/colink/gateway/docs"
	"github.com/colink/gateway/internal/api/handler"
	"github.com/colink/gateway/internal/api/middleware"
	"github.com/colink/gateway/internal/core/domain"
	"github.com/colink/gateway/internal/core/ports"
)

// Routes is the read-only routing table the proxy routes are registered from.
type Routes interface {
	handler.RouteResolver
	Routes() []domain.Route
}

// Deps carries everything the HTTP layer needs. All fields except Checks,
// CORSOrigins and Registerer are required.
type Deps struct {
	Log         zerolog.Logger
	Routes      Routes
	Forwarder   ports.Forwarder
	Guard       ports.AdminGuard
	Directory   ports.DirectoryService
	Checks      []handler.DependencyCheck
	CORSOrigins []string
	// Registerer receives the HTTP request metrics. Defaults to the
	// Prometheus default registerer.
	Registerer prometheus.Registerer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	registerer := d.Registerer
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "gateway",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	if len(d.CORSOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins:     d.CORSOrigins,
			AllowCredentials: true,
		}))
	}

	// --- Health checks, metrics and docs (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(d.Checks...)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Admin routes ---
	adminHandler := handler.NewAdminHandler(d.Directory, d.Log)
	admin := e.Group("/admin", middleware.AdminOnly(d.Guard))
	admin.GET("/users", adminHandler.ListUsers)
	admin.DELETE("/users/:id", adminHandler.DeleteUser)
	admin.GET("/sync/pending", adminHandler.PendingSyncs)

	// --- Pass-through routes, one per routing table entry ---
	proxyHandler := handler.NewProxyHandler(d.Routes, d.Forwarder, d.Log)
	for _, r := range d.Routes.Routes() {
		e.Match(r.Methods, r.Pattern, proxyHandler.Forward)
	}

	return e
}
