package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	LLM         LLMConfig       `toml:"llm"`
	SAGE        SAGEConfig      `toml:"sage"`
	CRM         CRMConfig       `toml:"crm"`
	IMAP        IMAPConfig      `toml:"imap"`
	Transfer    TransferConfig  `toml:"transfer"`
	Scrape      ScrapeConfig    `toml:"scrape"`
	Pipeline    PipelineConfig  `toml:"pipeline"`
	WebSocket   WebSocketConfig `toml:"websocket"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
}

type ServerConfig struct {
	Port int    `toml:"port" validate:"gt=0,lte=65535"`
	Host string `toml:"host" validate:"required"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
	// OutputDir holds per-job state files, thought logs and unified
	// output JSON. The dashboard polls files in this directory.
	OutputDir string `toml:"output_dir" validate:"required"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path" validate:"required"` // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"`         // Delete database on startup for clean test runs
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

// LLMProvider represents the document extraction provider type
type LLMProvider string

const (
	LLMProviderClaude LLMProvider = "claude"
	LLMProviderGemini LLMProvider = "gemini"
)

// LLMConfig contains configuration for the document extraction providers
type LLMConfig struct {
	DefaultProvider LLMProvider  `toml:"default_provider"` // "claude" (default) or "gemini"
	Claude          ClaudeConfig `toml:"claude"`
	Gemini          GeminiConfig `toml:"gemini"`
}

// ClaudeConfig contains Anthropic API configuration
type ClaudeConfig struct {
	APIKey    string `toml:"api_key"`
	Model     string `toml:"model"`      // default: "claude-sonnet-4-20250514"
	MaxTokens int    `toml:"max_tokens"` // default: 8192
	Timeout   string `toml:"timeout"`    // duration string, default: "5m"
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey  string `toml:"api_key"`
	Model   string `toml:"model"`   // default: "gemini-2.5-flash"
	Timeout string `toml:"timeout"` // duration string, default: "5m"
}

// SAGEConfig contains SAGE Connect API credentials
type SAGEConfig struct {
	Endpoint  string `toml:"endpoint"`
	AcctID    int    `toml:"acct_id"`
	LoginID   string `toml:"login_id"`
	APIKey    string `toml:"api_key"`
	RateLimit string `toml:"rate_limit"` // minimum interval between calls, default: "1s"
	Timeout   string `toml:"timeout"`    // HTTP timeout, default: "60s"
}

// CRMConfig contains the spreadsheet/CRM REST integration credentials.
// Tokens are obtained via OAuth2 client credentials.
type CRMConfig struct {
	BaseURL      string `toml:"base_url"`
	TokenURL     string `toml:"token_url"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	OrgID        string `toml:"org_id"`
	RateLimit    string `toml:"rate_limit"` // default: "500ms"
}

// IMAPConfig configures the email trigger watcher
type IMAPConfig struct {
	Enabled      bool   `toml:"enabled"`
	Server       string `toml:"server"` // host:port, TLS assumed
	Username     string `toml:"username"`
	Password     string `toml:"password"`
	Folder       string `toml:"folder"`        // default: "INBOX"
	PollInterval string `toml:"poll_interval"` // default: "1m"
}

// TransferConfig configures the file relay that moves documents between
// the browser automation environment and local disk.
type TransferConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	Timeout string `toml:"timeout"` // per-transfer HTTP timeout, default: "120s"
}

// ScrapeConfig configures rendered-page fetching for the ESP portal
type ScrapeConfig struct {
	UserAgent          string `toml:"user_agent"`
	RequestTimeout     string `toml:"request_timeout"`      // default: "30s"
	JavaScriptWaitTime string `toml:"javascript_wait_time"` // default: "3s"
	Headless           bool   `toml:"headless"`
}

// PipelineConfig carries job-level defaults
type PipelineConfig struct {
	// Default feature flags applied when a submission doesn't specify them
	CRMUpload  bool `toml:"crm_upload"`
	CRMQuote   bool `toml:"crm_quote"`
	Calculator bool `toml:"calculator"`
	// WorkDir holds downloaded presentation and product PDFs
	WorkDir string `toml:"work_dir"`
}

// WebSocketConfig contains configuration for live thought streaming
type WebSocketConfig struct {
	// Whitelist of event types to broadcast. Empty list allows all.
	AllowedEvents []string `toml:"allowed_events"`
	// Throttle intervals for high-frequency events, e.g. {"checkpoint": "500ms"}
	ThrottleIntervals map[string]string `toml:"throttle_intervals"`
}

// SchedulerConfig configures the stale-job sweeper
type SchedulerConfig struct {
	Enabled       bool   `toml:"enabled"`
	Schedule      string `toml:"schedule"`       // cron format, default: every 5 minutes
	StaleDeadline string `toml:"stale_deadline"` // duration string, default: "30m"
}

// NewDefaultConfig creates a configuration with default values.
// Technical parameters are hardcoded here for production stability;
// only user-facing settings need to appear in promoparse.toml.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8080,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/badger",
			},
			OutputDir: "./data/output",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout", "file"},
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderClaude,
			Claude: ClaudeConfig{
				Model:     "claude-sonnet-4-20250514",
				MaxTokens: 8192,
				Timeout:   "5m",
			},
			Gemini: GeminiConfig{
				Model:   "gemini-2.5-flash",
				Timeout: "5m",
			},
		},
		SAGE: SAGEConfig{
			Endpoint:  "https://www.promoplace.com/ws/ws.dll/ConnectAPI",
			RateLimit: "1s",
			Timeout:   "60s",
		},
		CRM: CRMConfig{
			RateLimit: "500ms",
		},
		IMAP: IMAPConfig{
			Folder:       "INBOX",
			PollInterval: "1m",
		},
		Transfer: TransferConfig{
			Timeout: "120s",
		},
		Scrape: ScrapeConfig{
			UserAgent:          "Mozilla/5.0 (compatible; promoparse/1.0)",
			RequestTimeout:     "30s",
			JavaScriptWaitTime: "3s",
			Headless:           true,
		},
		Pipeline: PipelineConfig{
			WorkDir: "./data/work",
		},
		Scheduler: SchedulerConfig{
			Enabled:       true,
			Schedule:      "0 */5 * * * *",
			StaleDeadline: "30m",
		},
	}
}

// LoadFromFile loads configuration from a single TOML file
func LoadFromFile(path string) (*Config, error) {
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration by layering TOML files over defaults;
// later files override earlier ones, environment variables override all.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration for structural problems
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	switch c.LLM.DefaultProvider {
	case LLMProviderClaude, LLMProviderGemini:
	default:
		return fmt.Errorf("invalid configuration: unknown llm provider %q", c.LLM.DefaultProvider)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("PROMOPARSE_ENV"); env != "" {
		config.Environment = env
	}
	if port := os.Getenv("PROMOPARSE_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if host := os.Getenv("PROMOPARSE_SERVER_HOST"); host != "" {
		config.Server.Host = host
	}
	if badgerPath := os.Getenv("PROMOPARSE_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if outputDir := os.Getenv("PROMOPARSE_OUTPUT_DIR"); outputDir != "" {
		config.Storage.OutputDir = outputDir
	}
	if level := os.Getenv("PROMOPARSE_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("PROMOPARSE_LOG_OUTPUT"); output != "" {
		config.Logging.Output = strings.Split(output, ",")
	}
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" && config.LLM.Claude.APIKey == "" {
		config.LLM.Claude.APIKey = key
	}
	if key := os.Getenv("GEMINI_API_KEY"); key != "" && config.LLM.Gemini.APIKey == "" {
		config.LLM.Gemini.APIKey = key
	}
	if key := os.Getenv("SAGE_API_KEY"); key != "" && config.SAGE.APIKey == "" {
		config.SAGE.APIKey = key
	}
	if secret := os.Getenv("PROMOPARSE_CRM_CLIENT_SECRET"); secret != "" {
		config.CRM.ClientSecret = secret
	}
	if password := os.Getenv("PROMOPARSE_IMAP_PASSWORD"); password != "" {
		config.IMAP.Password = password
	}
	if key := os.Getenv("PROMOPARSE_TRANSFER_API_KEY"); key != "" {
		config.Transfer.APIKey = key
	}
}
