package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/utafrali/storefront/pkg/config"
	"github.com/utafrali/storefront/pkg/logger"
)

// DefaultJWTSecret is the signing secret json-server-auth ships with.
const DefaultJWTSecret = "json-server-auth-123456"

// Config holds all configuration for the storefront service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"STOREFRONT_HTTP_PORT" envDefault:"8090"`

	// Backends
	RecommendAPIURL   string        `env:"RECOMMEND_API_URL" envDefault:"http://localhost:8000"`
	AuthAPIURL        string        `env:"AUTH_API_URL" envDefault:"http://localhost:3000"`
	BackendTimeout    time.Duration `env:"BACKEND_TIMEOUT" envDefault:"30s"`
	BackendMaxRetries int           `env:"BACKEND_MAX_RETRIES" envDefault:"0"`

	// Catalog
	Brands          []string      `env:"CATALOG_BRANDS" envSeparator:"," envDefault:"Stradivarius,Asos Petite,Topshop,Bershka,Asos Curve,Collusion,Miss Selfridge,New Look,Asyou,River Island,Asos Tall,Adidas Originals,Asos Edition,Monki"`
	Colors          []string      `env:"CATALOG_COLORS" envSeparator:"," envDefault:"WHITE,PINK,GREEN,BLUE,BROWN,RED,KHAKI,CREAME"`
	CatalogCacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"5m"`
	MaxUploadBytes  int64         `env:"MAX_UPLOAD_BYTES" envDefault:"10485760"`

	// Redis
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Sessions
	SessionTTL time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	JWTSecret  string        `env:"JWT_SECRET" envDefault:"json-server-auth-123456"`

	// Activity events; no brokers disables publishing.
	KafkaBrokers      []string `env:"KAFKA_BROKERS" envSeparator:","`
	EventsTopicPrefix string   `env:"EVENTS_TOPIC_PREFIX" envDefault:"storefront"`

	// Rate limiting
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"100"`

	// HTTP edge
	CORSAllowedOrigins  []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	MetricsAllowedCIDRs []string `env:"METRICS_ALLOWED_CIDRS" envSeparator:"," envDefault:"127.0.0.1/32,::1/128,10.0.0.0/8,172.16.0.0/12,192.168.0.0/16"`
	PprofAllowedCIDRs   []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:"," envDefault:"127.0.0.1/32,::1/128"`

	// Tracing
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	cfg.Brands = trimAll(cfg.Brands)
	cfg.Colors = trimAll(cfg.Colors)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsDevelopment reports whether the service runs in the development environment.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("STOREFRONT_HTTP_PORT %d out of range", c.HTTPPort)
	}
	if c.RedisEnabled && (c.RedisPort <= 0 || c.RedisPort > 65535) {
		return fmt.Errorf("REDIS_PORT %d out of range", c.RedisPort)
	}
	if len(c.Brands) == 0 {
		return fmt.Errorf("CATALOG_BRANDS must list at least one brand")
	}
	if c.RecommendAPIURL == "" || c.AuthAPIURL == "" {
		return fmt.Errorf("RECOMMEND_API_URL and AUTH_API_URL are required")
	}
	if c.BackendMaxRetries < 0 {
		return fmt.Errorf("BACKEND_MAX_RETRIES must not be negative")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("MAX_UPLOAD_BYTES must be positive")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("LOG_LEVEL: %w", err)
	}
	if !c.IsDevelopment() && c.JWTSecret == DefaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be changed from default value in %s environment", c.Environment)
	}
	return nil
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
