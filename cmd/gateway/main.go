// Command gateway is the colink edge gateway.
//
// @title                       colink gateway API
// @version                     1.0
// @description                 Edge gateway: request forwarding to internal services and admin user management.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/colink/gateway/internal/api"
	"github.com/colink/gateway/internal/api/handler"
	"github.com/colink/gateway/internal/core/service"
	"github.com/colink/gateway/internal/infrastructure/config"
	mongodb "github.com/colink/gateway/internal/infrastructure/db/mongo"
	redisdb "github.com/colink/gateway/internal/infrastructure/db/redis"
	"github.com/colink/gateway/internal/infrastructure/identity"
	"github.com/colink/gateway/internal/infrastructure/proxy"
	"github.com/colink/gateway/internal/infrastructure/queue"
	"github.com/colink/gateway/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "gateway",
	})
	log.Info().Str("env", cfg.Env).Str("port", cfg.Port).Msg("starting gateway")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		AppName:  "colink-gateway",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongo")
	}
	defer func() {
		dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongoClient.Disconnect(dctx)
	}()

	userRepo := mongodb.NewUserRepository(db)
	if err := userRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to ensure user indexes")
	}

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer rdb.Close()
	ledger := redisdb.NewSyncLedger(rdb)

	// --- Outbound clients ---
	httpClient := proxy.NewHTTPClient()

	keycloak := identity.NewKeycloakClient(identity.Config{
		BaseURL:       cfg.Keycloak.URL,
		Realm:         cfg.Keycloak.Realm,
		AdminRealm:    cfg.Keycloak.AdminRealm,
		AdminClientID: cfg.Keycloak.AdminClientID,
		AdminUser:     cfg.Keycloak.AdminUser,
		AdminPassword: cfg.Keycloak.AdminPassword,
		Timeout:       cfg.Keycloak.Timeout,
	}, &http.Client{Transport: httpClient.Transport, Timeout: cfg.Keycloak.Timeout})

	routes, err := service.NewRouteTable(service.DefaultRoutes(service.ServiceURLs{
		Channel: cfg.Services.Channel,
		Message: cfg.Services.Message,
		Thread:  cfg.Services.Thread,
		File:    cfg.Services.File,
	}))
	if err != nil {
		log.Fatal().Err(err).Msg("invalid routing table")
	}
	forwarder := proxy.NewForwarder(httpClient, cfg.ForwardTimeout, logger.Component("proxy"))

	// --- Core services ---
	validator := service.NewTokenValidator(keycloak)
	resolver := service.NewIdentityResolver(userRepo)
	guard := service.NewAdminGuard(validator, resolver, logger.Component("admin_guard"))
	directory := service.NewDirectoryService(userRepo, keycloak, ledger, logger.Component("directory"))

	if cfg.Sync.RetryInterval > 0 {
		reconciler := queue.NewReconciler(cfg.Sync.Workers, cfg.Sync.RetryInterval, ledger, keycloak, logger.Component("reconciler"))
		reconciler.Start(ctx)
	}

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Log:         log,
		Routes:      routes,
		Forwarder:   forwarder,
		Guard:       guard,
		Directory:   directory,
		CORSOrigins: cfg.CORSOrigins,
		Checks: []handler.DependencyCheck{
			{Name: "mongodb", Check: func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) }},
			{Name: "redis", Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() }},
			{Name: "keycloak", Check: keycloak.Ping},
		},
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()
	log.Info().Str("addr", ":"+cfg.Port).Int("routes", len(routes.Routes())).Msg("gateway listening")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	log.Info().Msg("gateway stopped")
}
