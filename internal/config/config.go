// Package config loads the environment configuration of the storefront
// and the mock backend.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
	"github.com/utafrali/storefront/pkg/httpclient"
)

// Config holds all configuration for the storefront process.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"STOREFRONT_HTTP_PORT" envDefault:"8080"`

	// Member backend
	BackendURL            string `env:"BACKEND_URL" envDefault:"http://localhost:8090"`
	BackendRegisterPath   string `env:"BACKEND_REGISTER_PATH" envDefault:"/register"`
	BackendLoginPath      string `env:"BACKEND_LOGIN_PATH" envDefault:"/login"`
	BackendLogoutPath     string `env:"BACKEND_LOGOUT_PATH" envDefault:"/logout"`
	BackendAccountPath    string `env:"BACKEND_ACCOUNT_PATH" envDefault:"/users"`
	BackendProductsPath   string `env:"BACKEND_PRODUCTS_PATH" envDefault:"/products"`
	BackendTimeoutSeconds int    `env:"BACKEND_TIMEOUT_SECONDS" envDefault:"30"`

	// Session policy
	RemoteLogout      bool `env:"REMOTE_LOGOUT" envDefault:"false"`
	ClearCartOnLogout bool `env:"CLEAR_CART_ON_LOGOUT" envDefault:"false"`

	// Catalog cache TTL in seconds; 0 keeps the list until a lookup misses.
	CatalogTTLSeconds int `env:"CATALOG_TTL_SECONDS" envDefault:"300"`
	// Extra attempts for the catalog GET. Member calls are never retried.
	CatalogMaxRetries int `env:"CATALOG_MAX_RETRIES" envDefault:"2"`

	// Circuit breaker
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BackendTimeout is the per-request transport timeout. Zero disables it.
func (c *Config) BackendTimeout() time.Duration {
	return time.Duration(c.BackendTimeoutSeconds) * time.Second
}

// CatalogTTL is how long a fetched catalog is served before refreshing.
func (c *Config) CatalogTTL() time.Duration {
	return time.Duration(c.CatalogTTLSeconds) * time.Second
}

// BreakerConfig returns the circuit breaker settings for the named client.
func (c *Config) BreakerConfig(name string) httpclient.CircuitBreakerConfig {
	cb := httpclient.DefaultCircuitBreakerConfig(name)
	if c.CBMaxRequests > 0 {
		cb.MaxRequests = c.CBMaxRequests
	}
	if c.CBInterval > 0 {
		cb.Interval = time.Duration(c.CBInterval) * time.Second
	}
	if c.CBTimeout > 0 {
		cb.Timeout = time.Duration(c.CBTimeout) * time.Second
	}
	if c.CBMinRequests > 0 {
		cb.MinRequests = c.CBMinRequests
	}
	if c.CBFailureRatio > 0 {
		cb.FailureRatio = c.CBFailureRatio
	}
	return cb
}

// ProductsURL is the absolute catalog endpoint.
func (c *Config) ProductsURL() string {
	return strings.TrimRight(c.BackendURL, "/") + c.BackendProductsPath
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("BACKEND_URL must be an absolute http(s) URL, got %q", c.BackendURL)
	}
	for name, p := range map[string]string{
		"BACKEND_REGISTER_PATH": c.BackendRegisterPath,
		"BACKEND_LOGIN_PATH":    c.BackendLoginPath,
		"BACKEND_LOGOUT_PATH":   c.BackendLogoutPath,
		"BACKEND_ACCOUNT_PATH":  c.BackendAccountPath,
		"BACKEND_PRODUCTS_PATH": c.BackendProductsPath,
	} {
		if !strings.HasPrefix(p, "/") {
			return fmt.Errorf("%s must start with '/', got %q", name, p)
		}
	}
	if c.BackendTimeoutSeconds < 0 {
		return fmt.Errorf("BACKEND_TIMEOUT_SECONDS must not be negative")
	}
	if c.CatalogTTLSeconds < 0 {
		return fmt.Errorf("CATALOG_TTL_SECONDS must not be negative")
	}
	if c.CatalogMaxRetries < 0 {
		return fmt.Errorf("CATALOG_MAX_RETRIES must not be negative")
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1 {
		return fmt.Errorf("CB_FAILURE_RATIO must be in (0.0, 1.0], got %v", c.CBFailureRatio)
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is true")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %v", c.OTELSampleRate)
	}
	if c.OTELEnabled && c.OTELEndpoint == "" {
		return fmt.Errorf("OTEL_EXPORTER_OTLP_ENDPOINT is required when OTEL_ENABLED is true")
	}
	return nil
}

// MockBackendConfig holds the configuration of the local mock backend.
type MockBackendConfig struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	HTTPPort int `env:"MOCK_BACKEND_HTTP_PORT" envDefault:"8090"`

	JWTSecret          string `env:"MOCK_BACKEND_JWT_SECRET" envDefault:"dev-secret-change-me"`
	TokenTTLMinutes    int    `env:"MOCK_BACKEND_TOKEN_TTL_MINUTES" envDefault:"60"`
	MemberDiscount     int    `env:"MEMBER_DISCOUNT_PERCENT" envDefault:"10"`
	LoginRatePerMinute int    `env:"MOCK_BACKEND_LOGIN_RATE_PER_MINUTE" envDefault:"10"`
	BcryptCost         int    `env:"MOCK_BACKEND_BCRYPT_COST" envDefault:"10"`
}

// LoadMockBackend reads the mock backend configuration.
func LoadMockBackend() (*MockBackendConfig, error) {
	cfg := &MockBackendConfig{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load mock backend config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// TokenTTL is the lifetime of issued access tokens.
func (c *MockBackendConfig) TokenTTL() time.Duration {
	return time.Duration(c.TokenTTLMinutes) * time.Minute
}

func (c *MockBackendConfig) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("MOCK_BACKEND_JWT_SECRET is required")
	}
	if c.Environment == "production" && c.JWTSecret == "dev-secret-change-me" {
		return fmt.Errorf("MOCK_BACKEND_JWT_SECRET must be changed outside development")
	}
	if c.TokenTTLMinutes < 1 {
		return fmt.Errorf("MOCK_BACKEND_TOKEN_TTL_MINUTES must be positive")
	}
	if c.MemberDiscount < 0 || c.MemberDiscount > 100 {
		return fmt.Errorf("MEMBER_DISCOUNT_PERCENT must be between 0 and 100, got %d", c.MemberDiscount)
	}
	if c.LoginRatePerMinute < 1 {
		return fmt.Errorf("MOCK_BACKEND_LOGIN_RATE_PER_MINUTE must be positive")
	}
	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("MOCK_BACKEND_BCRYPT_COST must be between 4 and 31")
	}
	return nil
}
