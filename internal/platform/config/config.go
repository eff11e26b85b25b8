package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	DefaultLowThreshold  = 0.15
	DefaultHighThreshold = 0.30
	DefaultDebounce      = 300 * time.Millisecond
	DefaultPollInterval  = time.Second
	DefaultMaxContent    = 5000
	DefaultHTTPAddr      = "127.0.0.1:7878"
)

// DefaultAllowedOrigins admits any browser extension origin. A trailing
// "://" entry matches every origin with that scheme.
var DefaultAllowedOrigins = []string{"chrome-extension://", "moz-extension://"}

type Config struct {
	DataDir       string `yaml:"data_dir" env:"LOCKIN_DATA_DIR"`
	DBPath        string `yaml:"db_path" env:"LOCKIN_DB_PATH"`
	SocketPath    string `yaml:"socket_path" env:"LOCKIN_SOCKET"`
	HTTPAddr      string `yaml:"http_addr" env:"LOCKIN_HTTP_ADDR"`
	JournalDir    string `yaml:"journal_dir" env:"LOCKIN_JOURNAL_DIR"`
	NotifyCommand string `yaml:"notify_command" env:"LOCKIN_NOTIFY_COMMAND"`
	OTLPEndpoint  string `yaml:"otlp_endpoint" env:"LOCKIN_OTLP_ENDPOINT"`

	// AllowedOrigins lists the Origin values the HTTP gateway accepts.
	AllowedOrigins []string `yaml:"allowed_origins" env:"LOCKIN_ALLOWED_ORIGINS" envSeparator:","`

	Log         LogConfig         `yaml:"log" envPrefix:"LOCKIN_LOG_"`
	Embedder    EmbedderConfig    `yaml:"embedder" envPrefix:"LOCKIN_EMBEDDER_"`
	Enforcement EnforcementConfig `yaml:"enforcement" envPrefix:"LOCKIN_"`
	Scheduler   SchedulerConfig   `yaml:"scheduler" envPrefix:"LOCKIN_SCHEDULER_"`

	Path string `yaml:"-"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type EmbedderConfig struct {
	// Provider is one of hash, ollama, genai, plugin.
	Provider       string `yaml:"provider" env:"PROVIDER"`
	Dimensions     int    `yaml:"dimensions" env:"DIMENSIONS"`
	OllamaEndpoint string `yaml:"ollama_endpoint" env:"OLLAMA_ENDPOINT"`
	OllamaModel    string `yaml:"ollama_model" env:"OLLAMA_MODEL"`
	GenAIAPIKey    string `yaml:"genai_api_key" env:"GENAI_API_KEY"`
	GenAIModel     string `yaml:"genai_model" env:"GENAI_MODEL"`
	PluginBinary   string `yaml:"plugin_binary" env:"PLUGIN_BINARY"`
	CacheSize      int    `yaml:"cache_size" env:"CACHE_SIZE"`
}

type EnforcementConfig struct {
	LowThreshold    float64       `yaml:"low_threshold" env:"LOW_THRESHOLD"`
	HighThreshold   float64       `yaml:"high_threshold" env:"HIGH_THRESHOLD"`
	MaxContentRunes int           `yaml:"max_content_runes" env:"MAX_CONTENT_RUNES"`
	Debounce        time.Duration `yaml:"debounce" env:"DEBOUNCE"`
}

type SchedulerConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" env:"POLL_INTERVAL"`
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() Config {
	dataDir := filepath.Join(XDGDataHome(), "lockin")
	return Config{
		DataDir:        dataDir,
		HTTPAddr:       DefaultHTTPAddr,
		AllowedOrigins: append([]string(nil), DefaultAllowedOrigins...),
		Log:            LogConfig{Level: "info", Format: "json"},
		Embedder: EmbedderConfig{
			Provider:       "hash",
			Dimensions:     384,
			OllamaEndpoint: "http://localhost:11434",
			OllamaModel:    "all-minilm",
			GenAIModel:     "gemini-embedding-001",
			CacheSize:      512,
		},
		Enforcement: EnforcementConfig{
			LowThreshold:    DefaultLowThreshold,
			HighThreshold:   DefaultHighThreshold,
			MaxContentRunes: DefaultMaxContent,
			Debounce:        DefaultDebounce,
		},
		Scheduler: SchedulerConfig{PollInterval: DefaultPollInterval},
	}
}

// Load layers the YAML file at path (missing file is not an error) and LOCKIN_* environment
// variables over Default, then derives unset paths from the data dir.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultConfigPath()
	}
	cfg.Path = path
	if err := decodeFile(path, &cfg); err != nil {
		return Config{}, err
	}
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	cfg.resolvePaths()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// WithDataDir re-roots every derived path under dataDir.
func (c Config) WithDataDir(dataDir string) Config {
	c.DataDir = dataDir
	c.DBPath = ""
	c.SocketPath = ""
	c.resolvePaths()
	return c
}

func (c *Config) resolvePaths() {
	if c.DataDir == "" {
		c.DataDir = filepath.Join(XDGDataHome(), "lockin")
	}
	if c.DBPath == "" {
		c.DBPath = filepath.Join(c.DataDir, "lockin.db")
	}
	if c.SocketPath == "" {
		c.SocketPath = filepath.Join(c.DataDir, "daemon.sock")
	}
}

func (c Config) Validate() error {
	e := c.Enforcement
	if e.LowThreshold < -1 || e.HighThreshold > 1 {
		return fmt.Errorf("thresholds must lie within [-1, 1]")
	}
	if e.LowThreshold > e.HighThreshold {
		return fmt.Errorf("low_threshold %.2f must not exceed high_threshold %.2f", e.LowThreshold, e.HighThreshold)
	}
	if e.MaxContentRunes <= 0 {
		return fmt.Errorf("max_content_runes must be positive")
	}
	if e.Debounce <= 0 {
		return fmt.Errorf("debounce must be positive")
	}
	if c.Scheduler.PollInterval <= 0 {
		return fmt.Errorf("scheduler poll_interval must be positive")
	}
	switch strings.ToLower(c.Embedder.Provider) {
	case "hash", "ollama", "genai", "plugin":
	default:
		return fmt.Errorf("unsupported embedder provider %q (use hash, ollama, genai or plugin)", c.Embedder.Provider)
	}
	return nil
}

func decodeFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("decode config %s: %w", path, err)
	}
	return nil
}
