package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/jrjohn/arcana-auth-client/internal/observability"
	"github.com/jrjohn/arcana-auth-client/internal/resilience"
	tlsconfig "github.com/jrjohn/arcana-auth-client/internal/security/tls"
	"github.com/jrjohn/arcana-auth-client/pkg/logger"
)

// EnvPrefix is the prefix of every environment override, e.g. ARCANA_AUTH_CLIENT_BASE_URL
const EnvPrefix = "ARCANA_AUTH"

// Config holds all application configuration
type Config struct {
	App            AppConfig                       `mapstructure:"app"`
	Client         ClientConfig                    `mapstructure:"client"`
	Log            logger.Config                   `mapstructure:"log"`
	Tracing        observability.TracingConfig     `mapstructure:"tracing"`
	Metrics        observability.MetricsConfig     `mapstructure:"metrics"`
	CircuitBreaker resilience.CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Stub           StubConfig                      `mapstructure:"stub"`

	// File is the configuration file that was read, if any
	File string `mapstructure:"-"`
}

// AppConfig holds application-level settings
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ClientConfig holds the auth backend connection settings
type ClientConfig struct {
	BaseURL     string            `mapstructure:"base_url"`
	APIPrefix   string            `mapstructure:"api_prefix"`
	Timeout     time.Duration     `mapstructure:"timeout"`
	UserAgent   string            `mapstructure:"user_agent"`
	Headers     map[string]string `mapstructure:"headers"`
	AccessToken string            `mapstructure:"access_token"`
	TLS         tlsconfig.Config  `mapstructure:"tls"`
}

// StubConfig holds the development backend settings
type StubConfig struct {
	Host                 string               `mapstructure:"host"`
	Port                 int                  `mapstructure:"port"`
	APIPrefix            string               `mapstructure:"api_prefix"`
	JWTSecret            string               `mapstructure:"jwt_secret"`
	Issuer               string               `mapstructure:"issuer"`
	AccessTokenDuration  time.Duration        `mapstructure:"access_token_duration"`
	RefreshTokenDuration time.Duration        `mapstructure:"refresh_token_duration"`
	PasswordCost         int                  `mapstructure:"password_cost"`
	ReadTimeout          time.Duration        `mapstructure:"read_timeout"`
	WriteTimeout         time.Duration        `mapstructure:"write_timeout"`
	Organizations        []OrganizationConfig `mapstructure:"organizations"`
	WatchConfig          bool                 `mapstructure:"watch_config"`
	TLS                  tlsconfig.Config     `mapstructure:"tls"`
}

// OrganizationConfig is one organization known to the stub backend
type OrganizationConfig struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// Load reads configuration from an optional file, .env and environment variables.
// An empty path searches the default locations for authclient.yaml.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("authclient")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.arcana")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// App defaults
	v.SetDefault("app.name", "arcana-auth-client")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.environment", "development")

	// Client defaults
	v.SetDefault("client.base_url", "http://localhost:8080")
	v.SetDefault("client.api_prefix", "/api/v1")
	v.SetDefault("client.timeout", 30*time.Second)
	v.SetDefault("client.user_agent", "arcana-auth-client/1.0.0")
	v.SetDefault("client.headers", map[string]string{})
	v.SetDefault("client.access_token", "")
	setTLSDefaults(v, "client.tls")

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.output", "stderr")

	// Tracing defaults
	tracing := observability.DefaultTracingConfig()
	v.SetDefault("tracing.enabled", tracing.Enabled)
	v.SetDefault("tracing.service_name", tracing.ServiceName)
	v.SetDefault("tracing.service_version", tracing.ServiceVersion)
	v.SetDefault("tracing.environment", tracing.Environment)
	v.SetDefault("tracing.exporter_type", tracing.ExporterType)
	v.SetDefault("tracing.otlp_endpoint", tracing.OTLPEndpoint)
	v.SetDefault("tracing.otlp_insecure", tracing.OTLPInsecure)
	v.SetDefault("tracing.sampling_rate", tracing.SamplingRate)

	// Metrics defaults
	metrics := observability.DefaultMetricsConfig()
	v.SetDefault("metrics.enabled", metrics.Enabled)
	v.SetDefault("metrics.service_name", metrics.ServiceName)
	v.SetDefault("metrics.prometheus_path", metrics.PrometheusPath)

	// Circuit breaker defaults
	cb := resilience.DefaultCircuitBreakerConfig("auth-backend")
	v.SetDefault("circuit_breaker.enabled", cb.Enabled)
	v.SetDefault("circuit_breaker.name", cb.Name)
	v.SetDefault("circuit_breaker.failure_threshold", cb.FailureThreshold)
	v.SetDefault("circuit_breaker.success_threshold", cb.SuccessThreshold)
	v.SetDefault("circuit_breaker.timeout", cb.Timeout)
	v.SetDefault("circuit_breaker.max_half_open_requests", cb.MaxHalfOpenRequests)

	// Stub backend defaults
	v.SetDefault("stub.host", "127.0.0.1")
	v.SetDefault("stub.port", 8080)
	v.SetDefault("stub.api_prefix", "/api/v1")
	v.SetDefault("stub.jwt_secret", os.Getenv("JWT_SECRET"))
	v.SetDefault("stub.issuer", "arcana-auth-stub")
	v.SetDefault("stub.access_token_duration", time.Hour)
	v.SetDefault("stub.refresh_token_duration", 30*24*time.Hour)
	v.SetDefault("stub.password_cost", 10)
	v.SetDefault("stub.read_timeout", 15*time.Second)
	v.SetDefault("stub.write_timeout", 15*time.Second)
	v.SetDefault("stub.watch_config", false)
	setTLSDefaults(v, "stub.tls")
	v.SetDefault("stub.organizations", []map[string]string{
		{"id": "org-default", "name": "Default Organization"},
	})
}

func setTLSDefaults(v *viper.Viper, prefix string) {
	v.SetDefault(prefix+".enabled", false)
	v.SetDefault(prefix+".cert_file", "")
	v.SetDefault(prefix+".key_file", "")
	v.SetDefault(prefix+".ca_file", "")
	v.SetDefault(prefix+".server_name", "")
	v.SetDefault(prefix+".insecure_skip_verify", false)
}

// Validate checks the client settings
func (c *Config) Validate() error {
	if err := c.Client.Validate(); err != nil {
		return err
	}
	return c.CircuitBreaker.Validate()
}

// Validate checks that the backend can be addressed
func (c *ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("client base_url is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("client base_url is invalid: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("client base_url must be an absolute http(s) URL, got %q", c.BaseURL)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("client timeout must be positive")
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return fmt.Errorf("client tls cert_file and key_file must be set together")
	}
	return nil
}

// Endpoint joins the base URL, API prefix and an operation path
func (c *ClientConfig) Endpoint(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + normalizePrefix(c.APIPrefix) + path
}

// Validate checks the stub backend settings
func (c *StubConfig) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("stub jwt_secret is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("stub port %d is out of range", c.Port)
	}
	if len(c.Organizations) == 0 {
		return fmt.Errorf("stub needs at least one organization")
	}
	if c.TLS.Enabled && (c.TLS.CertFile == "" || c.TLS.KeyFile == "") {
		return fmt.Errorf("stub tls requires cert_file and key_file")
	}
	for _, org := range c.Organizations {
		if org.ID == "" {
			return fmt.Errorf("stub organization id is required")
		}
	}
	return nil
}

// Address returns the listen address of the stub backend
func (c *StubConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Prefix returns the normalized API prefix of the stub backend
func (c *StubConfig) Prefix() string {
	return normalizePrefix(c.APIPrefix)
}

func normalizePrefix(prefix string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return ""
	}
	return "/" + prefix
}
