package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/platinummonkey/tenantadmin/pkg/observability"
	"github.com/platinummonkey/tenantadmin/pkg/rbac"
)

// Config holds all application configuration
type Config struct {
	// Tenant API connection
	API APIConfig `yaml:"api"`

	// In-process and shared caching
	Cache CacheConfig `yaml:"cache"`
	Redis RedisConfig `yaml:"redis"`

	Observability ObservabilityConfig `yaml:"observability"`
}

// APIConfig holds tenant API client settings
type APIConfig struct {
	BaseURL  string `yaml:"base_url"`
	TenantID string `yaml:"tenant_id"`
	Token    string `yaml:"token"`

	// OAuth2 client credentials, used instead of Token when ClientID is set
	OAuth2ClientID     string   `yaml:"oauth2_client_id"`
	OAuth2ClientSecret string   `yaml:"oauth2_client_secret"`
	OAuth2TokenURL     string   `yaml:"oauth2_token_url"`
	OAuth2Scopes       []string `yaml:"oauth2_scopes"`

	Timeout         time.Duration `yaml:"timeout"`
	ActivityRetries int           `yaml:"activity_retries"`
	RetryBaseDelay  time.Duration `yaml:"retry_base_delay"`

	// Status given to users whose status the backend omits or garbles
	DefaultUserStatus string `yaml:"default_user_status"`
}

// CacheConfig holds per-key cache sizing and the refresh schedule
type CacheConfig struct {
	KeyedSize int           `yaml:"keyed_size"`
	KeyedTTL  time.Duration `yaml:"keyed_ttl"`

	// Cron expression; empty disables scheduled refreshes
	RefreshSchedule string `yaml:"refresh_schedule"`
}

// RedisConfig holds the shared snapshot tier settings
type RedisConfig struct {
	Enabled  bool          `yaml:"enabled"`
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel string `yaml:"log_level"`

	MetricsEnabled bool `yaml:"metrics_enabled"`

	OTelEnabled        bool    `yaml:"otel_enabled"`
	OTelEndpoint       string  `yaml:"otel_endpoint"`
	OTelServiceName    string  `yaml:"otel_service_name"`
	OTelServiceVersion string  `yaml:"otel_service_version"`
	OTelInsecure       bool    `yaml:"otel_insecure"`
	OTelSampleRatio    float64 `yaml:"otel_sample_ratio"`
}

// Level returns the parsed log level
func (o ObservabilityConfig) Level() observability.LogLevel {
	return parseLogLevel(o.LogLevel)
}

// OTel returns the tracer settings in the form StartTracing expects
func (o ObservabilityConfig) OTel() observability.OTelConfig {
	return observability.OTelConfig{
		Enabled:        o.OTelEnabled,
		Endpoint:       o.OTelEndpoint,
		ServiceName:    o.OTelServiceName,
		ServiceVersion: o.OTelServiceVersion,
		Insecure:       o.OTelInsecure,
		SampleRatio:    o.OTelSampleRatio,
	}
}

// Default returns the configuration used when nothing is set
func Default() *Config {
	return &Config{
		API: APIConfig{
			Timeout:           30 * time.Second,
			ActivityRetries:   2,
			RetryBaseDelay:    200 * time.Millisecond,
			DefaultUserStatus: string(rbac.StatusActive),
		},
		Cache: CacheConfig{
			KeyedSize: 512,
			KeyedTTL:  5 * time.Minute,
		},
		Redis: RedisConfig{
			URL: "redis://localhost:6379/0",
			TTL: 5 * time.Minute,
		},
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "tenantadmin",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
			OTelSampleRatio:    1,
		},
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file named
// by TENANTADMIN_CONFIG, then TENANTADMIN_* environment variables. With
// TENANTADMIN_ENV=dev a local .env file is loaded first.
func LoadConfig() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom is LoadConfig with a YAML path that takes precedence over
// TENANTADMIN_CONFIG when not empty
func LoadFrom(path string, overrides ...func(*Config)) (*Config, error) {
	if os.Getenv("TENANTADMIN_ENV") == "dev" {
		_ = godotenv.Load()
	}
	if path == "" {
		path = os.Getenv("TENANTADMIN_CONFIG")
	}
	return Load(path, overrides...)
}

// Load is LoadConfig with an explicit YAML path. An empty path skips the file.
// Overrides run after the environment is applied and before validation.
func Load(path string, overrides ...func(*Config)) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	for _, override := range overrides {
		override(cfg)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	api := &c.API
	api.BaseURL = getEnv("TENANTADMIN_API_URL", api.BaseURL)
	api.TenantID = getEnv("TENANTADMIN_TENANT_ID", api.TenantID)
	api.Token = getEnv("TENANTADMIN_TOKEN", api.Token)
	api.OAuth2ClientID = getEnv("TENANTADMIN_OAUTH2_CLIENT_ID", api.OAuth2ClientID)
	api.OAuth2ClientSecret = getEnv("TENANTADMIN_OAUTH2_CLIENT_SECRET", api.OAuth2ClientSecret)
	api.OAuth2TokenURL = getEnv("TENANTADMIN_OAUTH2_TOKEN_URL", api.OAuth2TokenURL)
	if scopes := getEnv("TENANTADMIN_OAUTH2_SCOPES", ""); scopes != "" {
		api.OAuth2Scopes = splitList(scopes)
	}
	api.Timeout = getEnvDuration("TENANTADMIN_API_TIMEOUT", api.Timeout)
	api.ActivityRetries = getEnvInt("TENANTADMIN_ACTIVITY_RETRIES", api.ActivityRetries)
	api.RetryBaseDelay = getEnvDuration("TENANTADMIN_RETRY_BASE_DELAY", api.RetryBaseDelay)
	api.DefaultUserStatus = getEnv("TENANTADMIN_DEFAULT_USER_STATUS", api.DefaultUserStatus)

	c.Cache.KeyedSize = getEnvInt("TENANTADMIN_CACHE_SIZE", c.Cache.KeyedSize)
	c.Cache.KeyedTTL = getEnvDuration("TENANTADMIN_CACHE_TTL", c.Cache.KeyedTTL)
	c.Cache.RefreshSchedule = getEnv("TENANTADMIN_REFRESH_SCHEDULE", c.Cache.RefreshSchedule)

	c.Redis.Enabled = getEnvBool("TENANTADMIN_REDIS_ENABLED", c.Redis.Enabled)
	c.Redis.URL = getEnv("TENANTADMIN_REDIS_URL", c.Redis.URL)
	c.Redis.Password = getEnv("TENANTADMIN_REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = getEnvInt("TENANTADMIN_REDIS_DB", c.Redis.DB)
	c.Redis.TTL = getEnvDuration("TENANTADMIN_REDIS_TTL", c.Redis.TTL)

	o := &c.Observability
	o.LogLevel = getEnv("TENANTADMIN_LOG_LEVEL", o.LogLevel)
	o.MetricsEnabled = getEnvBool("TENANTADMIN_METRICS_ENABLED", o.MetricsEnabled)
	o.OTelEnabled = getEnvBool("TENANTADMIN_OTEL_ENABLED", o.OTelEnabled)
	o.OTelEndpoint = getEnv("TENANTADMIN_OTEL_ENDPOINT", o.OTelEndpoint)
	o.OTelServiceName = getEnv("TENANTADMIN_OTEL_SERVICE_NAME", o.OTelServiceName)
	o.OTelServiceVersion = getEnv("TENANTADMIN_OTEL_SERVICE_VERSION", o.OTelServiceVersion)
	o.OTelInsecure = getEnvBool("TENANTADMIN_OTEL_INSECURE", o.OTelInsecure)
	o.OTelSampleRatio = getEnvFloat("TENANTADMIN_OTEL_SAMPLE_RATIO", o.OTelSampleRatio)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API base URL is required")
	}
	if u, err := url.Parse(c.API.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid API base URL: %s", c.API.BaseURL)
	}
	if c.API.TenantID == "" {
		return fmt.Errorf("tenant ID is required")
	}
	if c.API.OAuth2ClientID != "" && c.API.OAuth2TokenURL == "" {
		return fmt.Errorf("OAuth2 token URL is required when a client ID is set")
	}
	if c.API.ActivityRetries < 0 {
		return fmt.Errorf("activity retries must not be negative")
	}

	switch rbac.UserStatus(c.API.DefaultUserStatus) {
	case rbac.StatusActive, rbac.StatusUnknown:
	default:
		return fmt.Errorf("invalid default user status: %s (must be active or unknown)", c.API.DefaultUserStatus)
	}

	if c.Redis.Enabled && c.Redis.URL == "" {
		return fmt.Errorf("redis URL is required when the snapshot tier is enabled")
	}

	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			return fmt.Errorf("OpenTelemetry endpoint is required when OTel is enabled")
		}
		if c.Observability.OTelServiceName == "" {
			return fmt.Errorf("OpenTelemetry service name is required when OTel is enabled")
		}
		if r := c.Observability.OTelSampleRatio; r < 0 || r > 1 {
			return fmt.Errorf("OpenTelemetry sample ratio must be between 0 and 1, got %v", r)
		}
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
