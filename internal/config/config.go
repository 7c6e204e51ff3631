package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Oracle    OracleConfig    `yaml:"oracle" mapstructure:"oracle"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Ollama    OllamaConfig    `yaml:"ollama" mapstructure:"ollama"`
	Directory DirectoryConfig `yaml:"directory" mapstructure:"directory"`
	Lock      LockConfig      `yaml:"lock" mapstructure:"lock"`
	Pipeline  PipelineConfig  `yaml:"pipeline" mapstructure:"pipeline"`
	Batch     BatchConfig     `yaml:"batch" mapstructure:"batch"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// OracleConfig selects and tunes the classification backend.
type OracleConfig struct {
	Provider         string `yaml:"provider" mapstructure:"provider"`
	TimeoutSecs      int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxAttempts      int    `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int    `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int    `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	FailureThreshold int    `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int    `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OllamaConfig holds local Ollama server settings.
type OllamaConfig struct {
	ServerURL string `yaml:"server_url" mapstructure:"server_url"`
	Model     string `yaml:"model" mapstructure:"model"`
}

// DirectoryConfig configures the professional-directory browser session.
type DirectoryConfig struct {
	BaseURL            string  `yaml:"base_url" mapstructure:"base_url"`
	UserDataDir        string  `yaml:"user_data_dir" mapstructure:"user_data_dir"`
	Headless           bool    `yaml:"headless" mapstructure:"headless"`
	ExecPath           string  `yaml:"exec_path" mapstructure:"exec_path"`
	NavTimeoutSecs     int     `yaml:"nav_timeout_secs" mapstructure:"nav_timeout_secs"`
	SettleMs           int     `yaml:"settle_ms" mapstructure:"settle_ms"`
	ResultsSettleMs    int     `yaml:"results_settle_ms" mapstructure:"results_settle_ms"`
	LoginTimeoutSecs   int     `yaml:"login_timeout_secs" mapstructure:"login_timeout_secs"`
	LoginPollSecs      int     `yaml:"login_poll_secs" mapstructure:"login_poll_secs"`
	InspectHoldSecs    int     `yaml:"inspect_hold_secs" mapstructure:"inspect_hold_secs"`
	DiagnosticsDir     string  `yaml:"diagnostics_dir" mapstructure:"diagnostics_dir"`
	NavigationsPerMin  float64 `yaml:"navigations_per_min" mapstructure:"navigations_per_min"`
	MaxResults         int     `yaml:"max_results" mapstructure:"max_results"`
	VerifyRoles        bool    `yaml:"verify_roles" mapstructure:"verify_roles"`
	MinFitScore        float64 `yaml:"min_fit_score" mapstructure:"min_fit_score"`
	ViewportWidth      int     `yaml:"viewport_width" mapstructure:"viewport_width"`
	ViewportHeight     int     `yaml:"viewport_height" mapstructure:"viewport_height"`
	CompanyMappingFile string  `yaml:"company_mapping_file" mapstructure:"company_mapping_file"`
}

// Durations converts the integer config fields into time.Durations.
func (d DirectoryConfig) Durations() DirectoryDurations {
	return DirectoryDurations{
		NavTimeout:    time.Duration(d.NavTimeoutSecs) * time.Second,
		Settle:        time.Duration(d.SettleMs) * time.Millisecond,
		ResultsSettle: time.Duration(d.ResultsSettleMs) * time.Millisecond,
		LoginTimeout:  time.Duration(d.LoginTimeoutSecs) * time.Second,
		LoginPoll:     time.Duration(d.LoginPollSecs) * time.Second,
		InspectHold:   time.Duration(d.InspectHoldSecs) * time.Second,
	}
}

// DirectoryDurations is the time.Duration view of DirectoryConfig.
type DirectoryDurations struct {
	NavTimeout    time.Duration
	Settle        time.Duration
	ResultsSettle time.Duration
	LoginTimeout  time.Duration
	LoginPoll     time.Duration
	InspectHold   time.Duration
}

// LockConfig configures the directory session lock. An empty RedisURL keeps
// the lock in-process.
type LockConfig struct {
	RedisURL    string `yaml:"redis_url" mapstructure:"redis_url"`
	Key         string `yaml:"key" mapstructure:"key"`
	TTLSecs     int    `yaml:"ttl_secs" mapstructure:"ttl_secs"`
	WaitSecs    int    `yaml:"wait_secs" mapstructure:"wait_secs"`
	RetryMillis int    `yaml:"retry_ms" mapstructure:"retry_ms"`
}

// PipelineConfig configures the orchestrator.
type PipelineConfig struct {
	GenerateEmails bool `yaml:"generate_emails" mapstructure:"generate_emails"`
}

// BatchConfig configures batch event processing.
type BatchConfig struct {
	MaxConcurrentEvents int `yaml:"max_concurrent_events" mapstructure:"max_concurrent_events"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADSCOUT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "data/leadscout.db")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("oracle.provider", "ollama")
	v.SetDefault("oracle.timeout_secs", 60)
	v.SetDefault("oracle.max_attempts", 2)
	v.SetDefault("oracle.initial_backoff_ms", 500)
	v.SetDefault("oracle.max_backoff_ms", 5000)
	v.SetDefault("oracle.failure_threshold", 5)
	v.SetDefault("oracle.reset_timeout_secs", 30)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("ollama.server_url", "http://localhost:11434")
	v.SetDefault("ollama.model", "llama3.2")
	v.SetDefault("directory.base_url", "https://www.linkedin.com")
	v.SetDefault("directory.user_data_dir", "./linkedin-session")
	v.SetDefault("directory.headless", false)
	v.SetDefault("directory.exec_path", "")
	v.SetDefault("directory.company_mapping_file", "")
	v.SetDefault("directory.nav_timeout_secs", 30)
	v.SetDefault("directory.settle_ms", 3000)
	v.SetDefault("directory.results_settle_ms", 5000)
	v.SetDefault("directory.login_timeout_secs", 120)
	v.SetDefault("directory.login_poll_secs", 2)
	v.SetDefault("directory.inspect_hold_secs", 30)
	v.SetDefault("directory.diagnostics_dir", "diagnostics")
	v.SetDefault("directory.navigations_per_min", 20)
	v.SetDefault("directory.max_results", 15)
	v.SetDefault("directory.verify_roles", true)
	v.SetDefault("directory.min_fit_score", 0.5)
	v.SetDefault("directory.viewport_width", 1280)
	v.SetDefault("directory.viewport_height", 800)
	v.SetDefault("lock.redis_url", "")
	v.SetDefault("lock.key", "directory-session")
	v.SetDefault("lock.ttl_secs", 900)
	v.SetDefault("lock.wait_secs", 0)
	v.SetDefault("lock.retry_ms", 500)
	v.SetDefault("pipeline.generate_emails", true)
	v.SetDefault("batch.max_concurrent_events", 4)
	v.SetDefault("server.port", 3001)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields required by the given command mode:
// "read", "process", "enrich" or "serve". Read mode only needs the store.
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "read", "process", "enrich", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
	default:
		problems = append(problems, fmt.Sprintf("store.driver %q must be sqlite or postgres", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}

	switch {
	case mode == "read":
	case c.Oracle.Provider == "anthropic":
		if c.Anthropic.Key == "" {
			problems = append(problems, "anthropic.key is required when oracle.provider is anthropic")
		}
	case c.Oracle.Provider == "ollama":
		if c.Ollama.ServerURL == "" {
			problems = append(problems, "ollama.server_url is required when oracle.provider is ollama")
		}
	default:
		problems = append(problems, fmt.Sprintf("oracle.provider %q must be anthropic or ollama", c.Oracle.Provider))
	}

	if mode == "enrich" || mode == "serve" {
		if c.Directory.UserDataDir == "" {
			problems = append(problems, "directory.user_data_dir is required")
		}
		if c.Directory.MinFitScore < 0 || c.Directory.MinFitScore > 1 {
			problems = append(problems, "directory.min_fit_score must be between 0 and 1")
		}
		if c.Directory.MaxResults <= 0 {
			problems = append(problems, "directory.max_results must be > 0")
		}
	}

	if mode == "process" && (c.Batch.MaxConcurrentEvents < 1 || c.Batch.MaxConcurrentEvents > 32) {
		problems = append(problems, "batch.max_concurrent_events must be between 1 and 32")
	}

	if mode == "serve" && c.Server.Port <= 0 {
		problems = append(problems, "server.port must be > 0")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
