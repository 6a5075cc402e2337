package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config is loaded once at startup and never reloaded.
type Config struct {
	Port     string `env:"PORT,      default=8001"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	ForwardTimeout time.Duration `env:"FORWARD_TIMEOUT, default=30s"`
	CORSOrigins    []string      `env:"CORS_ORIGINS,    default=http://localhost:3000"`

	Mongo    MongoConfig
	Redis    RedisConfig
	Services ServicesConfig
	Keycloak KeycloakConfig
	Sync     SyncConfig
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=colink"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// ServicesConfig holds the base address of each downstream service.
type ServicesConfig struct {
	Channel string `env:"CHANNEL_SERVICE_URL, default=http://channel:8003"`
	Message string `env:"MESSAGE_SERVICE_URL, default=http://message:8002"`
	Thread  string `env:"THREAD_SERVICE_URL,  default=http://threads:8005"`
	File    string `env:"FILE_SERVICE_URL,    default=http://files:8007"`
}

type KeycloakConfig struct {
	URL           string        `env:"KEYCLOAK_URL,             default=http://keycloak:8080"`
	Realm         string        `env:"KEYCLOAK_REALM,           default=colink"`
	AdminRealm    string        `env:"KEYCLOAK_ADMIN_REALM,     default=master"`
	AdminClientID string        `env:"KEYCLOAK_ADMIN_CLIENT_ID, default=admin-cli"`
	AdminUser     string        `env:"KEYCLOAK_ADMIN_USER,      default=admin"`
	AdminPassword string        `env:"KEYCLOAK_ADMIN_PASSWORD"`
	Timeout       time.Duration `env:"KEYCLOAK_TIMEOUT,         default=10s"`
}

// SyncConfig controls retries of identity-provider deletions.
// An interval of 0 disables the background reconciler.
type SyncConfig struct {
	RetryInterval time.Duration `env:"SYNC_RETRY_INTERVAL, default=1m"`
	Workers       int           `env:"SYNC_WORKERS,        default=4"`
}

// IsDevelopment reports whether the process runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	cfg, err := LoadWith(context.Background(), envconfig.OsLookuper())
	if err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return cfg
}

// LoadWith reads configuration from an arbitrary lookuper.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, err
	}
	if cfg.ForwardTimeout <= 0 {
		return nil, fmt.Errorf("FORWARD_TIMEOUT must be positive")
	}
	return &cfg, nil
}
