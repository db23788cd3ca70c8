// Package config provides configuration management for the bundle service.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds the complete application configuration.
type Config struct {
	Server     ServerConfig
	Log        LogConfig
	Cache      CacheConfig
	Redis      RedisConfig
	Auth       AuthConfig
	Database   DatabaseConfig
	Storefront StorefrontConfig
	Catalog    CatalogConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port        string
	RateLimit   int
	RateWindow  time.Duration
	CORSOrigins []string
	SwaggerUser string
	SwaggerPass string
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string
	Pretty bool
}

// CacheConfig holds quote and bundle cache configuration.
type CacheConfig struct {
	Size      int
	TTL       time.Duration
	BundleTTL time.Duration
}

// RedisConfig holds the optional shared Redis used for quotes, sessions and
// in-flight flags. Without it those live in process memory.
type RedisConfig struct {
	Enabled    bool
	Addr       string
	Password   string
	DB         int
	KeyPrefix  string
	SessionTTL time.Duration
}

// AuthConfig holds authentication configuration for the storefront-facing API.
type AuthConfig struct {
	Enabled      bool
	APIKeys      map[string]bool
	JWTSecretKey string
	JWTIssuer    string
}

// DatabaseConfig holds MongoDB configuration.
type DatabaseConfig struct {
	URI          string
	DatabaseName string
	LogsTTL      time.Duration
	Enabled      bool
	// MaxPoolSize caps open connections; zero keeps the driver setup default.
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
	Compression    bool
	// CircuitBreaker configuration
	CircuitBreakerFailureThreshold int
	CircuitBreakerSuccessThreshold int
	CircuitBreakerTimeout          time.Duration
}

// StorefrontConfig holds the external prepare and cart endpoints.
type StorefrontConfig struct {
	PrepareURL          string
	CartURL             string
	CartRedirectURL     string
	CheckoutRedirectURL string
	Timeout             time.Duration
	// AccessToken is sent as X-Storefront-Access-Token when set.
	AccessToken string
}

// CatalogConfig points at the bundle seed file.
type CatalogConfig struct {
	File string
}

// Load creates a Config from environment variables. Values from an optional
// .env file in the working directory are applied first and never override
// variables already set in the environment. Malformed values and invalid
// combinations are reported together.
func Load() (Config, error) {
	_ = godotenv.Load()

	var e env
	cfg := Config{
		Server: ServerConfig{
			Port:        e.getString("PORT", "8080"),
			RateLimit:   e.getInt("RATE_LIMIT", 100),
			RateWindow:  e.getDuration("RATE_WINDOW", time.Minute),
			CORSOrigins: e.getList("CORS_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:9292"}),
			SwaggerUser: e.getString("SWAGGER_USER", ""),
			SwaggerPass: e.getString("SWAGGER_PASS", ""),
		},
		Log: LogConfig{
			Level:  e.getString("LOG_LEVEL", "info"),
			Pretty: e.getBool("LOG_PRETTY", false),
		},
		Cache: CacheConfig{
			Size:      e.getInt("CACHE_SIZE", 1000),
			TTL:       e.getDuration("CACHE_TTL", 5*time.Minute),
			BundleTTL: e.getDuration("BUNDLE_CACHE_TTL", 30*time.Second),
		},
		Redis: RedisConfig{
			Enabled:    e.getBool("REDIS_ENABLED", false),
			Addr:       e.getString("REDIS_ADDR", "localhost:6379"),
			Password:   e.getString("REDIS_PASSWORD", ""),
			DB:         e.getInt("REDIS_DB", 0),
			KeyPrefix:  e.getString("REDIS_KEY_PREFIX", "bundle-service:"),
			SessionTTL: e.getDuration("SESSION_TTL", 30*time.Minute),
		},
		Auth: AuthConfig{
			Enabled:      e.getBool("AUTH_ENABLED", false),
			APIKeys:      apiKeySet(e.getList("API_KEYS", nil)),
			JWTSecretKey: e.getString("JWT_SECRET_KEY", ""),
			JWTIssuer:    e.getString("JWT_ISSUER", ""),
		},
		Database: DatabaseConfig{
			URI:                            e.getString("MONGODB_URI", "mongodb://localhost:27017"),
			DatabaseName:                   e.getString("MONGODB_DATABASE", "bundle_service"),
			LogsTTL:                        e.getDuration("MONGODB_LOGS_TTL", 30*24*time.Hour),
			Enabled:                        e.getBool("MONGODB_ENABLED", false),
			MaxPoolSize:                    uint64(max(0, e.getInt("MONGODB_MAX_POOL_SIZE", 50))),
			ConnectTimeout:                 e.getDuration("MONGODB_CONNECT_TIMEOUT", 10*time.Second),
			Compression:                    e.getBool("MONGODB_COMPRESSION", true),
			CircuitBreakerFailureThreshold: e.getInt("CIRCUIT_BREAKER_FAILURE_THRESHOLD", 5),
			CircuitBreakerSuccessThreshold: e.getInt("CIRCUIT_BREAKER_SUCCESS_THRESHOLD", 2),
			CircuitBreakerTimeout:          e.getDuration("CIRCUIT_BREAKER_TIMEOUT", 30*time.Second),
		},
		Storefront: StorefrontConfig{
			PrepareURL:          e.getString("CART_PREPARE_URL", ""),
			CartURL:             e.getString("CART_ADD_URL", ""),
			CartRedirectURL:     e.getString("CART_REDIRECT_URL", "/cart"),
			CheckoutRedirectURL: e.getString("CHECKOUT_REDIRECT_URL", "/checkout"),
			Timeout:             e.getDuration("CART_TIMEOUT", 10*time.Second),
			AccessToken:         e.getString("STOREFRONT_ACCESS_TOKEN", ""),
		},
		Catalog: CatalogConfig{
			File: e.getString("CATALOG_FILE", "config/bundles.yaml"),
		},
	}

	return cfg, errors.Join(append(e.errs, cfg.Validate())...)
}

// Validate reports settings that cannot work together.
func (c Config) Validate() error {
	var errs []error
	if port, err := strconv.Atoi(c.Server.Port); err != nil || port < 0 || port > 65535 {
		errs = append(errs, fmt.Errorf("PORT: %q is not a port number", c.Server.Port))
	}
	if c.Server.RateLimit > 0 && c.Server.RateWindow <= 0 {
		errs = append(errs, errors.New("RATE_WINDOW must be positive when RATE_LIMIT is set"))
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.Cache.Size <= 0 {
		errs = append(errs, errors.New("CACHE_SIZE must be positive"))
	}
	if c.Auth.Enabled && len(c.Auth.APIKeys) == 0 && c.Auth.JWTSecretKey == "" {
		errs = append(errs, errors.New("AUTH_ENABLED needs API_KEYS or JWT_SECRET_KEY"))
	}
	if c.Database.CircuitBreakerFailureThreshold < 1 || c.Database.CircuitBreakerSuccessThreshold < 1 {
		errs = append(errs, errors.New("circuit breaker thresholds must be at least 1"))
	}
	for name, raw := range map[string]string{"CART_PREPARE_URL": c.Storefront.PrepareURL, "CART_ADD_URL": c.Storefront.CartURL} {
		if raw == "" {
			continue
		}
		if u, err := url.Parse(raw); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s: %q is not an absolute http(s) URL", name, raw))
		}
	}
	return errors.Join(errs...)
}

// env reads typed variables and keeps every parse failure. Unset or empty
// variables take the default.
type env struct {
	errs []error
}

func (e *env) getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (e *env) parse(key string, parse func(string) error) {
	v := os.Getenv(key)
	if v == "" {
		return
	}
	if err := parse(v); err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
	}
}

func (e *env) getInt(key string, def int) int {
	out := def
	e.parse(key, func(v string) (err error) {
		out, err = strconv.Atoi(v)
		if err != nil {
			out = def
		}
		return err
	})
	return out
}

func (e *env) getBool(key string, def bool) bool {
	out := def
	e.parse(key, func(v string) (err error) {
		out, err = strconv.ParseBool(v)
		if err != nil {
			out = def
		}
		return err
	})
	return out
}

func (e *env) getDuration(key string, def time.Duration) time.Duration {
	out := def
	e.parse(key, func(v string) (err error) {
		out, err = time.ParseDuration(v)
		if err != nil {
			out = def
		}
		return err
	})
	return out
}

// getList splits a comma separated variable, dropping blanks. A variable with
// only blanks yields def.
func (e *env) getList(key string, def []string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

func apiKeySet(keys []string) map[string]bool {
	if len(keys) == 0 {
		return nil
	}
	set := make(map[string]bool, len(keys))
	for _, k := range keys {
		set[k] = true
	}
	return set
}
