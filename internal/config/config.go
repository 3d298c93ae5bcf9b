package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"github.com/MimeLyc/subtitle-batch-translator/internal/llm"
	"github.com/MimeLyc/subtitle-batch-translator/internal/service"
	"github.com/MimeLyc/subtitle-batch-translator/internal/subtitle"
	"github.com/MimeLyc/subtitle-batch-translator/internal/translator"
	"github.com/MimeLyc/subtitle-batch-translator/pkg/icron"
	"github.com/MimeLyc/subtitle-batch-translator/pkg/log"
)

// Config holds all application configuration.
// Values come from environment variables (a .env file in the working
// directory is loaded first), then from an optional YAML settings file,
// then from Options such as command line flags.
//
// Environment Variables:
// Backend:
// - LLM_PROVIDER: gemini or openai (default: gemini)
// - LLM_API_KEY: API key for the provider (required; GEMINI_API_KEY is used as a fallback)
// - LLM_API_URL: OpenAI-compatible endpoint (default: https://openrouter.ai/api/v1)
// - LLM_BASE_URL: Gemini endpoint override (optional)
// - LLM_MODEL: Model name (default: gemini-2.0-flash)
// - LLM_MAX_TOKENS: Maximum output tokens (default: 8192)
// - LLM_TEMPERATURE: Sampling temperature (default: 0.3)
// - LLM_TIMEOUT: Request timeout in seconds (default: 120)
// - LLM_SITE_URL / LLM_APP_NAME: optional OpenRouter headers
//
// Translation:
// - SOURCE_LANGUAGE: language name, BCP 47 tag or "auto" (default: English)
// - TARGET_LANGUAGE: language name or BCP 47 tag (required)
// - INSTRUCTIONS: free-text guidance added to every batch prompt
// - BATCH_SIZE: units per request, 1-500 (default: 20)
// - MEMORY_ENABLED / MEMORY_TAIL: echo previous translations (default: true / 3)
// - ANALYSIS_ENABLED / ANALYSIS_NOTES / ANALYSIS_BUDGET: whole-file analysis pass
// - REVISION_ENABLED / REVISION_NOTES: polish pass over the finished draft
// - MAX_RETRIES: attempts per batch (default: 3)
// - BATCH_DELAY_MS: pause between requests (default: 500)
// - COOLDOWN_ENABLED / COOLDOWN_SECONDS / MAX_COOLDOWNS: rate limit handling (default: true / 90 / 3)
// - GLOSSARY_FILE: JSON or YAML glossary (default: nearest glossary file above the input)
//
// Watch:
// - INPUT_DIR / OUTPUT_DIR: folder to scan and where trans_ files go
// - CRON_EXPR: schedule with seconds field or descriptor (default: @every 10m)
// - ALLOW_PARTIAL: write incomplete translations too (default: false)
// - SKIP_FILES: comma separated file names to leave untouched
//
// System:
// - DATA_DIR: where the job database lives (default: ./data)
// - LOG_LEVEL: DEBUG, INFO, WARN or ERROR (default: INFO)
// - LOG_FILE: write logs to this file instead of stdout (optional)
// - SETTINGS_FILE: YAML settings file (optional)
type Config struct {
	LLM       llm.Config      `yaml:"llm"`
	Translate TranslateConfig `yaml:"translate"`
	Watch     WatchConfig     `yaml:"watch"`
	System    SystemConfig    `yaml:"system"`
}

type TranslateConfig struct {
	SourceLanguage  string `yaml:"source_language"`
	TargetLanguage  string `yaml:"target_language"`
	Instructions    string `yaml:"instructions"`
	BatchSize       int    `yaml:"batch_size"`
	MemoryEnabled   bool   `yaml:"memory_enabled"`
	MemoryTail      int    `yaml:"memory_tail"`
	AnalysisEnabled bool   `yaml:"analysis_enabled"`
	AnalysisNotes   string `yaml:"analysis_notes"`
	AnalysisBudget  int    `yaml:"analysis_budget"`
	RevisionEnabled bool   `yaml:"revision_enabled"`
	RevisionNotes   string `yaml:"revision_notes"`
	MaxRetries      int    `yaml:"max_retries"`
	BatchDelayMs    int    `yaml:"batch_delay_ms"`
	CooldownEnabled bool   `yaml:"cooldown_enabled"`
	CooldownSeconds int    `yaml:"cooldown_seconds"`
	MaxCooldowns    int    `yaml:"max_cooldowns"`
	GlossaryFile    string `yaml:"glossary_file"`
}

type WatchConfig struct {
	InputDir     string   `yaml:"input_dir"`
	OutputDir    string   `yaml:"output_dir"`
	CronExpr     string   `yaml:"cron_expr"`
	AllowPartial bool     `yaml:"allow_partial"`
	SkipFiles    []string `yaml:"skip_files"`
}

type SystemConfig struct {
	DataDir      string `yaml:"data_dir"`
	LogLevel     string `yaml:"log_level"`
	LogFile      string `yaml:"log_file"`
	SettingsFile string `yaml:"-"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// NewFromEnv builds the configuration from the environment and the settings
// file named by SETTINGS_FILE.
func NewFromEnv(opts ...Option) (*Config, error) {
	return Load("", opts...)
}

// Load is NewFromEnv with an explicit settings file, which takes precedence
// over SETTINGS_FILE.
func Load(settingsFile string, opts ...Option) (*Config, error) {
	if err := loadDotEnv(".env"); err != nil {
		return nil, err
	}

	config := fromEnv()
	if settingsFile != "" {
		config.System.SettingsFile = settingsFile
	}
	if path := config.System.SettingsFile; path != "" {
		if err := LoadSettingsFile(path, config); err != nil {
			return nil, err
		}
		log.Debug("Loaded settings from %s", path)
	}

	for _, opt := range opts {
		opt(config)
	}

	config.Translate.SourceLanguage = normalizeLanguage(config.Translate.SourceLanguage)
	config.Translate.TargetLanguage = normalizeLanguage(config.Translate.TargetLanguage)

	if err := config.validateSettings(); err != nil {
		return nil, err
	}
	log.Debug("Config: provider=%s model=%s target=%q batch=%d", config.LLM.Provider, config.LLM.Model,
		config.Translate.TargetLanguage, config.Translate.BatchSize)
	return config, nil
}

func fromEnv() *Config {
	defaults := service.DefaultSettings()

	return &Config{
		LLM: llm.Config{
			Provider:    strings.ToLower(getEnvString("LLM_PROVIDER", llm.ProviderGemini)),
			APIKey:      getEnvString("LLM_API_KEY", getEnvString("GEMINI_API_KEY", "")),
			APIURL:      getEnvString("LLM_API_URL", "https://openrouter.ai/api/v1"),
			BaseURL:     getEnvString("LLM_BASE_URL", ""),
			Model:       getEnvString("LLM_MODEL", defaults.Model),
			MaxTokens:   getEnvInt("LLM_MAX_TOKENS", defaults.MaxOutputTokens),
			Temperature: getEnvFloat("LLM_TEMPERATURE", defaults.Temperature),
			Timeout:     getEnvInt("LLM_TIMEOUT", 120),
			SiteURL:     getEnvString("LLM_SITE_URL", ""),
			AppName:     getEnvString("LLM_APP_NAME", ""),
		},
		Translate: TranslateConfig{
			SourceLanguage:  getEnvString("SOURCE_LANGUAGE", defaults.SourceLanguage),
			TargetLanguage:  getEnvString("TARGET_LANGUAGE", ""),
			Instructions:    getEnvString("INSTRUCTIONS", ""),
			BatchSize:       getEnvInt("BATCH_SIZE", defaults.BatchSize),
			MemoryEnabled:   getEnvBool("MEMORY_ENABLED", defaults.MemoryEnabled),
			MemoryTail:      getEnvInt("MEMORY_TAIL", defaults.MemoryTail),
			AnalysisEnabled: getEnvBool("ANALYSIS_ENABLED", false),
			AnalysisNotes:   getEnvString("ANALYSIS_NOTES", ""),
			AnalysisBudget:  getEnvInt("ANALYSIS_BUDGET", defaults.AnalysisBudget),
			RevisionEnabled: getEnvBool("REVISION_ENABLED", false),
			RevisionNotes:   getEnvString("REVISION_NOTES", ""),
			MaxRetries:      getEnvInt("MAX_RETRIES", defaults.MaxRetries),
			BatchDelayMs:    getEnvInt("BATCH_DELAY_MS", int(defaults.BatchDelay/time.Millisecond)),
			CooldownEnabled: getEnvBool("COOLDOWN_ENABLED", defaults.CooldownEnabled),
			CooldownSeconds: getEnvInt("COOLDOWN_SECONDS", int(defaults.Cooldown/time.Second)),
			MaxCooldowns:    getEnvInt("MAX_COOLDOWNS", defaults.MaxCooldowns),
			GlossaryFile:    getEnvString("GLOSSARY_FILE", ""),
		},
		Watch: WatchConfig{
			InputDir:     getEnvString("INPUT_DIR", ""),
			OutputDir:    getEnvString("OUTPUT_DIR", ""),
			CronExpr:     getEnvString("CRON_EXPR", "@every 10m"),
			AllowPartial: getEnvBool("ALLOW_PARTIAL", false),
			SkipFiles:    getEnvList("SKIP_FILES"),
		},
		System: SystemConfig{
			DataDir:      getEnvString("DATA_DIR", "data"),
			LogLevel:     getEnvString("LOG_LEVEL", "INFO"),
			LogFile:      getEnvString("LOG_FILE", ""),
			SettingsFile: getEnvString("SETTINGS_FILE", ""),
		},
	}
}

func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// validateSettings checks the values that must be sane for any command.
func (c *Config) validateSettings() error {
	if c.LLM.Provider != llm.ProviderGemini && c.LLM.Provider != llm.ProviderOpenAI {
		return fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", llm.ProviderGemini, llm.ProviderOpenAI, c.LLM.Provider)
	}
	if c.Translate.BatchSize < translator.MinBatchSize || c.Translate.BatchSize > translator.MaxBatchSize {
		return fmt.Errorf("BATCH_SIZE must be between %d and %d, got %d",
			translator.MinBatchSize, translator.MaxBatchSize, c.Translate.BatchSize)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return fmt.Errorf("LLM_TEMPERATURE must be between 0 and 2, got %g", c.LLM.Temperature)
	}
	if c.LLM.MaxTokens < 1 {
		return fmt.Errorf("LLM_MAX_TOKENS must be at least 1, got %d", c.LLM.MaxTokens)
	}
	if c.Translate.MaxRetries < 1 {
		return fmt.Errorf("MAX_RETRIES must be at least 1, got %d", c.Translate.MaxRetries)
	}
	if c.Translate.MaxCooldowns < 0 || c.Translate.CooldownSeconds < 0 || c.Translate.BatchDelayMs < 0 {
		return fmt.Errorf("cooldown and delay settings must not be negative")
	}
	if c.Watch.CronExpr != "" {
		if err := icron.Validate(c.Watch.CronExpr); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks everything a translation run needs, including the
// backend credentials and the target language.
func (c *Config) Validate() error {
	if err := c.validateSettings(); err != nil {
		return err
	}
	if c.LLM.APIKey == "" {
		return fmt.Errorf("LLM_API_KEY is required")
	}
	if strings.TrimSpace(c.Translate.TargetLanguage) == "" {
		return fmt.Errorf("TARGET_LANGUAGE is required")
	}
	return c.LLM.Validate()
}

// BackendConfig returns a copy of the backend configuration.
func (c *Config) BackendConfig() *llm.Config {
	cfg := c.LLM
	return &cfg
}

// Settings maps the configuration onto the controller's settings.
func (c *Config) Settings() service.Settings {
	s := service.DefaultSettings()
	t := c.Translate

	s.Model = c.LLM.Model
	s.Temperature = c.LLM.Temperature
	s.MaxOutputTokens = c.LLM.MaxTokens
	s.SourceLanguage = t.SourceLanguage
	s.TargetLanguage = t.TargetLanguage
	s.Instructions = t.Instructions
	s.BatchSize = t.BatchSize
	s.MemoryEnabled = t.MemoryEnabled
	s.MemoryTail = t.MemoryTail
	s.AnalysisEnabled = t.AnalysisEnabled
	s.AnalysisNotes = t.AnalysisNotes
	s.AnalysisBudget = t.AnalysisBudget
	s.RevisionEnabled = t.RevisionEnabled
	s.RevisionNotes = t.RevisionNotes
	s.MaxRetries = t.MaxRetries
	s.BatchDelay = time.Duration(t.BatchDelayMs) * time.Millisecond
	s.CooldownEnabled = t.CooldownEnabled
	s.Cooldown = time.Duration(t.CooldownSeconds) * time.Second
	s.MaxCooldowns = t.MaxCooldowns
	return s
}

// WatchSettings maps the watch section onto the watcher's configuration.
func (c *Config) WatchSettings() service.WatchConfig {
	skip := make(map[string]bool, len(c.Watch.SkipFiles))
	for _, name := range c.Watch.SkipFiles {
		skip[name] = true
	}
	return service.WatchConfig{
		InputDir:     c.Watch.InputDir,
		OutputDir:    c.Watch.OutputDir,
		CronExpr:     c.Watch.CronExpr,
		AllowPartial: c.Watch.AllowPartial,
		Skip:         skip,
	}
}

// DBPath is the SQLite file holding resumable jobs.
func (c *Config) DBPath() string {
	return filepath.Join(c.System.DataDir, "jobs.db")
}

// normalizeLanguage turns a BCP 47 tag such as "fr" or "pt-BR" into its
// English name and leaves names and "auto" as they are.
func normalizeLanguage(s string) string {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, service.AutoLanguage) {
		return s
	}
	tag, err := language.Parse(s)
	if err != nil {
		return s
	}
	if name := subtitle.LanguageName(tag); name != "" {
		return name
	}
	return s
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn("Ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Warn("Ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
		log.Warn("Ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

func getEnvList(key string) []string {
	var ret []string
	for _, item := range strings.Split(os.Getenv(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			ret = append(ret, item)
		}
	}
	return ret
}
