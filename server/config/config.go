package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config holds all server configuration
type Config struct {
	AgentName         string // Build-time metadata, not configurable via environment
	AgentDescription  string // Build-time metadata, not configurable via environment
	AgentVersion      string // Build-time metadata, not configurable via environment
	AgentURL          string `env:"AGENT_URL"`
	AgentCardFilePath string `env:"AGENT_CARD_FILE_PATH" description:"Path to JSON file containing static agent card definition"`
	Debug             bool   `env:"DEBUG,default=false"`
	Timezone          string `env:"TIMEZONE,default=UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York, Europe/London)"`

	CapabilitiesConfig CapabilitiesConfig `env:",prefix=CAPABILITIES_"`
	AuthConfig         AuthConfig         `env:",prefix=AUTH_"`
	QueueConfig        QueueConfig        `env:",prefix=QUEUE_"`
	StorageConfig      StorageConfig      `env:",prefix=STORAGE_"`
	ServerConfig       ServerConfig       `env:",prefix=SERVER_"`
	TelemetryConfig    TelemetryConfig    `env:",prefix=TELEMETRY_"`
}

// Provider names accepted by the queue and storage configurations.
const (
	ProviderMemory = "memory"
	ProviderRedis  = "redis"
)

// CapabilitiesConfig defines the capabilities advertised on the agent card
type CapabilitiesConfig struct {
	Streaming              bool `env:"STREAMING,default=true" description:"Enable streaming support"`
	PushNotifications      bool `env:"PUSH_NOTIFICATIONS,default=true" description:"Enable push notifications"`
	StateTransitionHistory bool `env:"STATE_TRANSITION_HISTORY,default=false" description:"Enable state transition history"`
}

// AuthConfig holds OIDC authentication configuration
type AuthConfig struct {
	Enable       bool   `env:"ENABLE,default=false"`
	IssuerURL    string `env:"ISSUER_URL,default=http://keycloak:8080/realms/a2a-realm"`
	ClientID     string `env:"CLIENT_ID,default=a2a-agent"`
	ClientSecret string `env:"CLIENT_SECRET"`
}

// QueueConfig holds event queue configuration
type QueueConfig struct {
	Provider string `env:"PROVIDER,default=memory" description:"Queue provider (memory, redis)"`
	URL      string `env:"URL" description:"Connection URL for the redis provider"`
	MaxSize  int    `env:"MAX_SIZE,default=1024" description:"Per-task queue buffer size"`
}

// StorageConfig holds task store configuration
type StorageConfig struct {
	Provider string `env:"PROVIDER,default=memory" description:"Task store provider (memory, redis)"`
	URL      string `env:"URL" description:"Connection URL for the redis provider"`
}

// TLSConfig holds TLS configuration
type TLSConfig struct {
	Enable   bool   `env:"ENABLE,default=false"`
	CertPath string `env:"CERT_PATH" description:"TLS certificate path"`
	KeyPath  string `env:"KEY_PATH" description:"TLS key path"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port                  string        `env:"PORT,default=8080" description:"HTTP server port"`
	ReadTimeout           time.Duration `env:"READ_TIMEOUT,default=120s" description:"HTTP server read timeout"`
	WriteTimeout          time.Duration `env:"WRITE_TIMEOUT,default=120s" description:"HTTP server write timeout"`
	IdleTimeout           time.Duration `env:"IDLE_TIMEOUT,default=120s" description:"HTTP server idle timeout"`
	DisableHealthcheckLog bool          `env:"DISABLE_HEALTHCHECK_LOG,default=true" description:"Disable logging for health check requests"`
	GRPCPort              string        `env:"GRPC_PORT" description:"gRPC listener port (empty disables the gRPC transport)"`
	TLSConfig             TLSConfig     `env:",prefix=TLS_"`
}

// MetricsConfig holds metrics server configuration
type MetricsConfig struct {
	Port         string        `env:"PORT,default=9090" description:"Metrics server port"`
	Host         string        `env:"HOST,default=" description:"Metrics server host (empty for all interfaces)"`
	ReadTimeout  time.Duration `env:"READ_TIMEOUT,default=30s" description:"Metrics server read timeout"`
	WriteTimeout time.Duration `env:"WRITE_TIMEOUT,default=30s" description:"Metrics server write timeout"`
	IdleTimeout  time.Duration `env:"IDLE_TIMEOUT,default=60s" description:"Metrics server idle timeout"`
}

// TelemetryConfig holds telemetry configuration
type TelemetryConfig struct {
	Enable        bool          `env:"ENABLE,default=false" description:"Enable telemetry collection"`
	MetricsConfig MetricsConfig `env:",prefix=METRICS_"`
}

// Load loads configuration from environment variables, merging with the provided base config.
func Load(ctx context.Context, baseConfig *Config) (*Config, error) {
	return LoadWithLookuper(ctx, baseConfig, envconfig.OsLookuper())
}

// LoadWithLookuper creates and loads configuration using a custom lookuper and merges with user config
func LoadWithLookuper(ctx context.Context, baseConfig *Config, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config

	if baseConfig != nil {
		cfg = *baseConfig
	}

	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: lookuper,
	})
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// NewWithDefaults creates a new config with defaults applied from struct tags.
func NewWithDefaults(ctx context.Context, baseConfig *Config) (*Config, error) {
	return LoadWithLookuper(ctx, baseConfig, &emptyLookuper{})
}

// emptyLookuper ensures that only default values from struct tags are used
type emptyLookuper struct{}

func (e *emptyLookuper) Lookup(key string) (string, bool) {
	return "", false
}

// Validate validates the configuration and applies corrections for invalid values
func (c *Config) Validate() error {
	if c.QueueConfig.MaxSize < 1 {
		c.QueueConfig.MaxSize = 1
	}

	switch c.QueueConfig.Provider {
	case ProviderMemory, ProviderRedis:
	default:
		return fmt.Errorf("unsupported queue provider '%s'", c.QueueConfig.Provider)
	}

	switch c.StorageConfig.Provider {
	case ProviderMemory, ProviderRedis:
	default:
		return fmt.Errorf("unsupported storage provider '%s'", c.StorageConfig.Provider)
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", c.Timezone, err)
	}

	return nil
}

// GetTimezone returns the timezone location for timestamps
func (c *Config) GetTimezone() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// GetCurrentTime returns the current time in the configured timezone
func (c *Config) GetCurrentTime() (time.Time, error) {
	loc, err := c.GetTimezone()
	if err != nil {
		return time.Time{}, err
	}
	return time.Now().In(loc), nil
}
