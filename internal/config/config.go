package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
type Interface interface {
	Logger() LoggerConfig
	Agent() AgentConfig
	Providers() ProvidersConfig
	Capture() CaptureConfig
	Executor() ExecutorConfig
	Speech() SpeechConfig
	Usage() UsageConfig
}

// Config holds the entire application configuration. Sections are exported so
// viper can decode into them; callers go through the Interface getters.
type Config struct {
	LoggerCfg    LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	AgentCfg     AgentConfig     `mapstructure:"agent" yaml:"agent"`
	ProvidersCfg ProvidersConfig `mapstructure:"providers" yaml:"providers"`
	CaptureCfg   CaptureConfig   `mapstructure:"capture" yaml:"capture"`
	ExecutorCfg  ExecutorConfig  `mapstructure:"executor" yaml:"executor"`
	SpeechCfg    SpeechConfig    `mapstructure:"speech" yaml:"speech"`
	UsageCfg     UsageConfig     `mapstructure:"usage" yaml:"usage"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig       { return c.LoggerCfg }
func (c *Config) Agent() AgentConfig         { return c.AgentCfg }
func (c *Config) Providers() ProvidersConfig { return c.ProvidersCfg }
func (c *Config) Capture() CaptureConfig     { return c.CaptureCfg }
func (c *Config) Executor() ExecutorConfig   { return c.ExecutorCfg }
func (c *Config) Speech() SpeechConfig       { return c.SpeechCfg }
func (c *Config) Usage() UsageConfig         { return c.UsageCfg }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color settings for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// AgentConfig controls the capture/infer/execute loop.
type AgentConfig struct {
	Provider    LLMProvider `mapstructure:"provider" yaml:"provider"`
	Model       string      `mapstructure:"model" yaml:"model"`
	TutorialURL string      `mapstructure:"tutorial_url" yaml:"tutorial_url"`
	// TutorialMaxElapsed bounds the total time spent retrying the tutorial fetch.
	TutorialMaxElapsed time.Duration `mapstructure:"tutorial_max_elapsed" yaml:"tutorial_max_elapsed"`
	PacingInterval     time.Duration `mapstructure:"pacing_interval" yaml:"pacing_interval"`
	// RequestsPerMinute overrides the price table limit. Zero uses the table,
	// a negative value disables the limiter.
	RequestsPerMinute int `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	// MaxIterations stops the loop after that many iterations. Zero means unbounded.
	MaxIterations int `mapstructure:"max_iterations" yaml:"max_iterations"`
}

// LLMProvider identifies one of the supported vision model vendors.
type LLMProvider string

const (
	ProviderGemini     LLMProvider = "gemini"
	ProviderOpenRouter LLMProvider = "openrouter"
	ProviderOpenAI     LLMProvider = "openai"
	ProviderClaude     LLMProvider = "claude"
	ProviderOllama     LLMProvider = "ollama"
)

// KnownProviders lists the providers in the order they are presented to operators.
var KnownProviders = []LLMProvider{
	ProviderGemini,
	ProviderOpenRouter,
	ProviderOpenAI,
	ProviderClaude,
	ProviderOllama,
}

// ParseProvider normalizes a provider name.
func ParseProvider(name string) (LLMProvider, error) {
	p := LLMProvider(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range KnownProviders {
		if p == known {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", name)
}

// ProviderConfig holds the per-vendor connection settings.
type ProviderConfig struct {
	APIKey     string        `mapstructure:"api_key" yaml:"api_key"`
	Endpoint   string        `mapstructure:"endpoint" yaml:"endpoint"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxTokens  int           `mapstructure:"max_tokens" yaml:"max_tokens"`
	Models     []string      `mapstructure:"models" yaml:"models"`
	APIVersion string        `mapstructure:"api_version" yaml:"api_version"`
	// ContextWindow is passed to local runtimes that accept one (num_ctx).
	ContextWindow int `mapstructure:"context_window" yaml:"context_window"`
}

// ProvidersConfig groups the vendor settings. APIKey is a shared fallback
// credential used when a provider has none of its own.
type ProvidersConfig struct {
	APIKey     string         `mapstructure:"api_key" yaml:"api_key"`
	Gemini     ProviderConfig `mapstructure:"gemini" yaml:"gemini"`
	OpenRouter ProviderConfig `mapstructure:"openrouter" yaml:"openrouter"`
	OpenAI     ProviderConfig `mapstructure:"openai" yaml:"openai"`
	Claude     ProviderConfig `mapstructure:"claude" yaml:"claude"`
	Ollama     ProviderConfig `mapstructure:"ollama" yaml:"ollama"`
}

// Get returns the settings for a provider with the shared credential applied.
func (p ProvidersConfig) Get(provider LLMProvider) (ProviderConfig, bool) {
	var pc ProviderConfig
	switch provider {
	case ProviderGemini:
		pc = p.Gemini
	case ProviderOpenRouter:
		pc = p.OpenRouter
	case ProviderOpenAI:
		pc = p.OpenAI
	case ProviderClaude:
		pc = p.Claude
	case ProviderOllama:
		pc = p.Ollama
	default:
		return ProviderConfig{}, false
	}
	if pc.APIKey == "" {
		pc.APIKey = p.APIKey
	}
	return pc, true
}

// CaptureConfig controls screenshot files and cursor compositing.
type CaptureConfig struct {
	Dir             string `mapstructure:"dir" yaml:"dir"`
	CursorImage     string `mapstructure:"cursor_image" yaml:"cursor_image"`
	ReferenceWidth  int    `mapstructure:"reference_width" yaml:"reference_width"`
	ReferenceHeight int    `mapstructure:"reference_height" yaml:"reference_height"`
}

// ExecutorConfig holds the timing of simulated input.
type ExecutorConfig struct {
	ActionDelay   time.Duration `mapstructure:"action_delay" yaml:"action_delay"`
	MoveDuration  time.Duration `mapstructure:"move_duration" yaml:"move_duration"`
	TypeInterval  time.Duration `mapstructure:"type_interval" yaml:"type_interval"`
	MultiClickGap time.Duration `mapstructure:"multi_click_gap" yaml:"multi_click_gap"`
	ClickHold     time.Duration `mapstructure:"click_hold" yaml:"click_hold"`
	MaxKeyHold    time.Duration `mapstructure:"max_key_hold" yaml:"max_key_hold"`
	Humanoid      HumanoidConfig `mapstructure:"humanoid" yaml:"humanoid"`
}

// SpeechConfig controls the speak action.
type SpeechConfig struct {
	Enabled  bool          `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string        `mapstructure:"endpoint" yaml:"endpoint"`
	Player   []string      `mapstructure:"player" yaml:"player"`
	Dir      string        `mapstructure:"dir" yaml:"dir"`
	Timeout  time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// UsageConfig points at the persisted cost ledger.
type UsageConfig struct {
	LedgerPath string `mapstructure:"ledger_path" yaml:"ledger_path"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Unmarshal on defaults alone cannot fail.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// SetDefaults sets the default values for all configuration parameters in Viper.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "aiport")
	v.SetDefault("logger.log_file", "aiport.log")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Agent --
	v.SetDefault("agent.provider", string(ProviderGemini))
	v.SetDefault("agent.model", "gemini-2.5-flash")
	v.SetDefault("agent.tutorial_url", "")
	v.SetDefault("agent.tutorial_max_elapsed", "30s")
	v.SetDefault("agent.pacing_interval", "2s")
	v.SetDefault("agent.requests_per_minute", 0)
	v.SetDefault("agent.max_iterations", 0)

	// -- Providers --
	v.SetDefault("providers.api_key", "")
	v.SetDefault("providers.gemini.endpoint", "https://generativelanguage.googleapis.com/")
	v.SetDefault("providers.gemini.timeout", "120s")
	v.SetDefault("providers.gemini.models", []string{
		"gemini-2.5-flash", "gemini-2.0-flash", "gemini-1.5-flash", "gemini-1.5-pro", "gemini-1.0-pro",
	})
	v.SetDefault("providers.openrouter.endpoint", "https://openrouter.ai/api/v1/chat/completions")
	v.SetDefault("providers.openrouter.timeout", "120s")
	v.SetDefault("providers.openrouter.models", []string{
		"openrouter/cinematika-7b", "google/gemini-flash-1.5-preview", "mistralai/mixtral-8x7b-instruct",
	})
	v.SetDefault("providers.openai.endpoint", "https://api.openai.com/v1/chat/completions")
	v.SetDefault("providers.openai.timeout", "120s")
	v.SetDefault("providers.openai.max_tokens", 4096)
	v.SetDefault("providers.openai.models", []string{"gpt-4o", "gpt-4o-mini", "gpt-4-turbo"})
	v.SetDefault("providers.claude.endpoint", "https://api.anthropic.com/")
	v.SetDefault("providers.claude.timeout", "120s")
	v.SetDefault("providers.claude.max_tokens", 4096)
	v.SetDefault("providers.claude.api_version", "2023-06-01")
	v.SetDefault("providers.claude.models", []string{
		"claude-3-5-sonnet-20240620", "claude-3-opus-20240229", "claude-3-sonnet-20240229", "claude-3-haiku-20240307",
	})
	v.SetDefault("providers.ollama.endpoint", "http://localhost:11434/api/generate")
	v.SetDefault("providers.ollama.timeout", "120s")
	v.SetDefault("providers.ollama.context_window", 4096)
	v.SetDefault("providers.ollama.models", []string{"llama3", "phi3"})

	// -- Capture --
	v.SetDefault("capture.dir", "")
	v.SetDefault("capture.cursor_image", "")
	v.SetDefault("capture.reference_width", 1920)
	v.SetDefault("capture.reference_height", 1080)

	// -- Executor --
	v.SetDefault("executor.action_delay", "500ms")
	v.SetDefault("executor.move_duration", "500ms")
	v.SetDefault("executor.type_interval", "50ms")
	v.SetDefault("executor.multi_click_gap", "50ms")
	v.SetDefault("executor.click_hold", "40ms")
	v.SetDefault("executor.max_key_hold", "10s")
	setHumanoidDefaults(v)

	// -- Speech --
	v.SetDefault("speech.enabled", true)
	v.SetDefault("speech.endpoint", "https://translate.google.com/translate_tts")
	v.SetDefault("speech.player", defaultPlayer())
	v.SetDefault("speech.dir", "")
	v.SetDefault("speech.timeout", "30s")

	// -- Usage --
	v.SetDefault("usage.ledger_path", "money_usage.json")
}

func defaultPlayer() []string {
	switch {
	case fileExists("/usr/bin/mpg123"):
		return []string{"mpg123", "-q"}
	case fileExists("/usr/bin/ffplay"):
		return []string{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"}
	default:
		return []string{"afplay"}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// NewConfigFromViper unmarshals, expands and validates the configuration.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// The shared credential has a short, well-known name.
	_ = v.BindEnv("providers.api_key", "AIPORT_API_KEY")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{
		&c.LoggerCfg.LogFile,
		&c.CaptureCfg.Dir,
		&c.CaptureCfg.CursorImage,
		&c.SpeechCfg.Dir,
		&c.UsageCfg.LedgerPath,
	} {
		expanded, err := homedir.Expand(*p)
		if err != nil {
			return fmt.Errorf("failed to expand path %q: %w", *p, err)
		}
		*p = expanded
	}
	return nil
}

// Validate checks the configuration for values the agent cannot run with.
func (c *Config) Validate() error {
	if _, err := ParseProvider(string(c.AgentCfg.Provider)); err != nil {
		return fmt.Errorf("agent.provider: %w", err)
	}
	if c.AgentCfg.PacingInterval <= 0 {
		return fmt.Errorf("agent.pacing_interval must be positive")
	}
	if c.AgentCfg.MaxIterations < 0 {
		return fmt.Errorf("agent.max_iterations must not be negative")
	}
	if c.ExecutorCfg.ActionDelay < 0 || c.ExecutorCfg.MoveDuration < 0 ||
		c.ExecutorCfg.TypeInterval < 0 || c.ExecutorCfg.MultiClickGap < 0 {
		return fmt.Errorf("executor timings must not be negative")
	}
	if c.ExecutorCfg.MaxKeyHold <= 0 {
		return fmt.Errorf("executor.max_key_hold must be positive")
	}
	if c.CaptureCfg.ReferenceWidth <= 0 || c.CaptureCfg.ReferenceHeight <= 0 {
		return fmt.Errorf("capture.reference_width and capture.reference_height must be positive")
	}
	if err := c.ExecutorCfg.Humanoid.Validate(); err != nil {
		return fmt.Errorf("executor.humanoid configuration invalid: %w", err)
	}
	return nil
}
