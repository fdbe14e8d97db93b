package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/ulule/limiter/v3"
)

const (
	defaultServerPort     = "8000"
	defaultFrontendURL    = "http://localhost:8000"
	defaultRateLimit      = "100-S"
	defaultRequestTimeout = 30 * time.Second
	defaultMaxRequestSize = int64(1 << 20)
	defaultPrefetch       = 10
	defaultEventsQueue    = "todo_events.activity"
	defaultWorkerMetrics  = "9101"
)

// Config holds application configuration
type Config struct {
	ServerPort      string
	ServerDebugMode bool
	FrontendURL     string
	EnableHSTS      bool
	RateLimit       string
	RedisURL        string
	RabbitMQURL     string
	MetricsEnabled  bool
	OTELEnabled     bool
	OTELEndpoint    string
	RequestTimeout  time.Duration
	MaxRequestSize  int64

	// Activity worker
	RabbitMQPrefetch  int
	EventsQueue       string
	WorkerMetricsPort string
}

// NewViper returns a viper instance with defaults and environment bindings applied
func NewViper() *viper.Viper {
	v := viper.New()
	ApplyDefaults(v)
	return v
}

// ApplyDefaults registers defaults and reads configuration from the environment
func ApplyDefaults(v *viper.Viper) {
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", defaultServerPort)
	v.SetDefault("SERVER_DEBUG_MODE", false)
	v.SetDefault("FRONTEND_URL", defaultFrontendURL)
	v.SetDefault("ENABLE_HSTS", false)
	v.SetDefault("RATE_LIMIT", defaultRateLimit)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("OTEL_ENABLED", false)
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("REQUEST_TIMEOUT", defaultRequestTimeout)
	v.SetDefault("MAX_REQUEST_SIZE", defaultMaxRequestSize)
	v.SetDefault("RABBITMQ_PREFETCH", defaultPrefetch)
	v.SetDefault("EVENTS_QUEUE", defaultEventsQueue)
	v.SetDefault("WORKER_METRICS_PORT", defaultWorkerMetrics)
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return FromViper(NewViper())
}

// FromViper builds and validates a Config from v
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		ServerPort:      strings.TrimSpace(v.GetString("SERVER_PORT")),
		ServerDebugMode: v.GetBool("SERVER_DEBUG_MODE"),
		FrontendURL:     v.GetString("FRONTEND_URL"),
		EnableHSTS:      v.GetBool("ENABLE_HSTS"),
		RateLimit:       strings.TrimSpace(v.GetString("RATE_LIMIT")),
		RedisURL:        strings.TrimSpace(v.GetString("REDIS_URL")),
		RabbitMQURL:     strings.TrimSpace(v.GetString("RABBITMQ_URL")),
		MetricsEnabled:  v.GetBool("METRICS_ENABLED"),
		OTELEnabled:     v.GetBool("OTEL_ENABLED"),
		OTELEndpoint:    v.GetString("OTEL_EXPORTER_OTLP_ENDPOINT"),
		RequestTimeout:  v.GetDuration("REQUEST_TIMEOUT"),
		MaxRequestSize:  v.GetInt64("MAX_REQUEST_SIZE"),

		RabbitMQPrefetch:  v.GetInt("RABBITMQ_PREFETCH"),
		EventsQueue:       strings.TrimSpace(v.GetString("EVENTS_QUEUE")),
		WorkerMetricsPort: strings.TrimSpace(v.GetString("WORKER_METRICS_PORT")),
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = defaultServerPort
	}
	if cfg.RateLimit == "" {
		cfg.RateLimit = defaultRateLimit
	}
	if cfg.EventsQueue == "" {
		cfg.EventsQueue = defaultEventsQueue
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if !validPort(c.ServerPort) {
		return fmt.Errorf("SERVER_PORT must be a port number between 1 and 65535, got %q", c.ServerPort)
	}
	if c.WorkerMetricsPort != "" && !validPort(c.WorkerMetricsPort) {
		return fmt.Errorf("WORKER_METRICS_PORT must be empty or a port number between 1 and 65535, got %q", c.WorkerMetricsPort)
	}

	if _, err := limiter.NewRateFromFormatted(c.RateLimit); err != nil {
		return fmt.Errorf("RATE_LIMIT %q is invalid: %w", c.RateLimit, err)
	}

	if c.RedisURL != "" {
		if err := checkURL(c.RedisURL, "redis", "rediss"); err != nil {
			return fmt.Errorf("REDIS_URL is invalid: %w", err)
		}
	}
	if c.RabbitMQURL != "" {
		if err := checkURL(c.RabbitMQURL, "amqp", "amqps"); err != nil {
			return fmt.Errorf("RABBITMQ_URL is invalid: %w", err)
		}
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %s", c.RequestTimeout)
	}
	if c.MaxRequestSize <= 0 {
		return fmt.Errorf("MAX_REQUEST_SIZE must be positive, got %d", c.MaxRequestSize)
	}
	if c.RabbitMQPrefetch <= 0 {
		return fmt.Errorf("RABBITMQ_PREFETCH must be positive, got %d", c.RabbitMQPrefetch)
	}

	return nil
}

// AllowedOrigins splits FrontendURL into a de-duplicated origin list
func (c *Config) AllowedOrigins() []string {
	var origins []string
	seen := make(map[string]bool)
	for _, o := range strings.Split(c.FrontendURL, ",") {
		o = strings.TrimSpace(o)
		if o == "" || seen[o] {
			continue
		}
		seen[o] = true
		origins = append(origins, o)
	}
	return origins
}

func validPort(raw string) bool {
	port, err := strconv.Atoi(raw)
	return err == nil && port > 0 && port <= 65535
}

func checkURL(raw string, schemes ...string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	for _, s := range schemes {
		if u.Scheme == s {
			return nil
		}
	}
	return fmt.Errorf("scheme must be one of %v, got %q", schemes, u.Scheme)
}
