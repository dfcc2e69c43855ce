// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.pathwise/config.yaml or ./config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - AI: provider, primary/fallback model, per-agent temperature table
//   - Storage: PostgreSQL + pgvector connection
//   - RAG: embedder model, chunk size/overlap, retrieval depth
//   - RateLimit: declared request/token budgets (see ratelimit.go)
//   - Telemetry: OTLP trace export
//
// Error Handling:
//   - Sentinel errors support errors.Is checks; wrap with
//     fmt.Errorf("%w: details", ErrXxx) when adding context.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/pathwise/pathwise/internal/state"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrMissingAPIKey indicates a required API key is missing.
	ErrMissingAPIKey = errors.New("missing API key")

	// ErrInvalidModelName indicates a model name is empty or malformed.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates a temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidChunking indicates the chunk size/overlap pair is unusable.
	ErrInvalidChunking = errors.New("invalid chunking configuration")

	// ErrInvalidPostgres indicates the PostgreSQL connection settings are
	// incomplete or out of range.
	ErrInvalidPostgres = errors.New("invalid PostgreSQL configuration")

	// ErrInvalidRateLimit indicates a declared rate-limit budget is negative.
	ErrInvalidRateLimit = errors.New("invalid rate limit")
)

const (
	// DefaultEmbedderModel is the Gemini embedder used for content vectors.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultChunkSize is the fixed chunk size for content indexing, in
	// characters.
	DefaultChunkSize = 1000

	// DefaultChunkOverlap is the fixed overlap between adjacent chunks.
	DefaultChunkOverlap = 200

	// DefaultMaxChunks is the default top-K for scoped retrieval.
	DefaultMaxChunks = 5
)

// Config stores application configuration.
type Config struct {
	// AI model configuration
	ModelName         string  `mapstructure:"model_name"`
	FallbackModelName string  `mapstructure:"fallback_model_name"`
	MaxTokens         int     `mapstructure:"max_tokens"`
	DefaultTemp       float32 `mapstructure:"default_temperature"`

	// AgentTemperatures maps agent identifiers to sampling temperatures.
	// Missing agents fall back to DefaultTemp.
	AgentTemperatures map[string]float32 `mapstructure:"agent_temperatures"`

	// FallbackAgents lists agent identifiers served by the fallback model
	// instead of the primary one.
	FallbackAgents []string `mapstructure:"fallback_agents"`

	// Storage configuration
	PostgresHost     string `mapstructure:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password"`
	PostgresDBName   string `mapstructure:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode"`

	// RAG configuration
	EmbedderModel string `mapstructure:"embedder_model"`
	ChunkSize     int    `mapstructure:"chunk_size"`
	ChunkOverlap  int    `mapstructure:"chunk_overlap"`
	MaxChunks     int    `mapstructure:"max_chunks"`

	// RateLimit budgets are declared here but enforced by the gateway in
	// front of this service, not by this core. See ratelimit.go.
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// Telemetry configuration
	Telemetry TelemetryConfig `mapstructure:"telemetry"`

	// HTTP server bind address for serve mode.
	ListenAddr string `mapstructure:"listen_addr"`
}

// TelemetryConfig configures OTLP trace export.
type TelemetryConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
	Environment  string `mapstructure:"environment"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".pathwise")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	// AI defaults
	v.SetDefault("model_name", "gemini-2.5-pro")
	v.SetDefault("fallback_model_name", "gemini-2.5-flash")
	v.SetDefault("max_tokens", 4096)
	v.SetDefault("default_temperature", 0.7)
	v.SetDefault("agent_temperatures", map[string]float32{
		string(state.AgentTutor):         0.7,
		string(state.AgentAssessor):      0.3,
		string(state.AgentCodeReview):    0.2,
		string(state.AgentMentor):        0.8,
		string(state.AgentProjectGuide):  0.4,
		string(state.AgentQuizGenerator): 0.5,
	})
	// Conversational agents run on the cheaper fallback model; agents that
	// must emit precise JSON stay on the primary one.
	v.SetDefault("fallback_agents", []string{
		string(state.AgentTutor),
		string(state.AgentMentor),
	})

	// PostgreSQL defaults for local development
	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "pathwise")
	v.SetDefault("postgres_password", "pathwise_dev_password")
	v.SetDefault("postgres_db_name", "pathwise")
	v.SetDefault("postgres_ssl_mode", "disable")

	// RAG defaults
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("chunk_size", DefaultChunkSize)
	v.SetDefault("chunk_overlap", DefaultChunkOverlap)
	v.SetDefault("max_chunks", DefaultMaxChunks)

	// Rate limit budgets (declared only; see ratelimit.go)
	v.SetDefault("rate_limit.max_requests_per_minute", 60)
	v.SetDefault("rate_limit.max_tokens_per_minute", 100_000)

	// Telemetry defaults
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.otlp_endpoint", "localhost:4318")
	v.SetDefault("telemetry.service_name", "pathwise")
	v.SetDefault("telemetry.environment", "dev")

	// Server defaults
	v.SetDefault("listen_addr", "127.0.0.1:3500")
}

// bindEnvVariables binds environment overrides explicitly.
// GEMINI_API_KEY is read directly by Genkit, not via viper; Validate only
// checks its presence.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("model_name", "PATHWISE_MODEL_NAME")
	mustBind("fallback_model_name", "PATHWISE_FALLBACK_MODEL_NAME")
	mustBind("embedder_model", "PATHWISE_EMBEDDER_MODEL")
	mustBind("listen_addr", "PATHWISE_LISTEN_ADDR")
	mustBind("postgres_host", "PATHWISE_POSTGRES_HOST")
	mustBind("postgres_port", "PATHWISE_POSTGRES_PORT")
	mustBind("postgres_user", "PATHWISE_POSTGRES_USER")
	mustBind("postgres_password", "PATHWISE_POSTGRES_PASSWORD")
	mustBind("postgres_db_name", "PATHWISE_POSTGRES_DB_NAME")
	mustBind("telemetry.otlp_endpoint", "PATHWISE_OTLP_ENDPOINT")
}

// Validate performs fail-fast validation of the loaded configuration.
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name is empty", ErrInvalidModelName)
	}
	if c.FallbackModelName == "" {
		return fmt.Errorf("%w: fallback_model_name is empty", ErrInvalidModelName)
	}
	if c.DefaultTemp < 0 || c.DefaultTemp > 2 {
		return fmt.Errorf("%w: default_temperature %.2f outside [0, 2]", ErrInvalidTemperature, c.DefaultTemp)
	}
	for agent, temp := range c.AgentTemperatures {
		if temp < 0 || temp > 2 {
			return fmt.Errorf("%w: agent %q temperature %.2f outside [0, 2]", ErrInvalidTemperature, agent, temp)
		}
	}

	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive, got %d", ErrInvalidChunking, c.ChunkSize)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkSize {
		return fmt.Errorf("%w: chunk_overlap %d must be in [0, chunk_size)", ErrInvalidChunking, c.ChunkOverlap)
	}
	if c.MaxChunks <= 0 {
		return fmt.Errorf("%w: max_chunks must be positive, got %d", ErrInvalidChunking, c.MaxChunks)
	}

	if c.PostgresHost == "" || c.PostgresDBName == "" || c.PostgresUser == "" {
		return fmt.Errorf("%w: host, user and db name are required", ErrInvalidPostgres)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: port %d outside [1, 65535]", ErrInvalidPostgres, c.PostgresPort)
	}

	if err := c.RateLimit.validate(); err != nil {
		return err
	}

	return nil
}

// Temperature returns the sampling temperature for the given agent,
// falling back to DefaultTemp when the agent has no explicit entry.
func (c *Config) Temperature(agent state.AgentID) float32 {
	if temp, ok := c.AgentTemperatures[string(agent)]; ok {
		return temp
	}
	return c.DefaultTemp
}

// ModelFor resolves the model name serving the given agent type.
// Agents listed in FallbackAgents resolve to the fallback model.
func (c *Config) ModelFor(agent state.AgentID) string {
	for _, name := range c.FallbackAgents {
		if name == string(agent) {
			return c.FallbackModelName
		}
	}
	return c.ModelName
}

// DatabaseURL composes the PostgreSQL connection URL.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPassword,
		c.PostgresHost, c.PostgresPort,
		c.PostgresDBName, c.PostgresSSLMode)
}
