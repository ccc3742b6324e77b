// Package config loads the planqa service configuration from per-environment
// YAML files with ${VAR} environment expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/citydesk/planqa/internal/retrieval"
)

// Config holds the planqa API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Cache      CacheConfig      `yaml:"cache"`
	RateLimit  RateLimitConfig  `yaml:"ratelimit"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CorpusConfig locates the passage corpus.
type CorpusConfig struct {
	Path string `yaml:"path"`
}

// RetrievalConfig holds boundary limits, ranking depth, and lexical tuning
// data. Stopwords and synonyms are domain tuning, swappable per deployment.
type RetrievalConfig struct {
	Limits retrieval.Limits `yaml:"limits"`
	TopN   int              `yaml:"top_n"`
	Tuning retrieval.Tuning `yaml:"tuning"`
}

// EmbeddingConfig holds the embedding collaborator settings.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
	BatchSize  int    `yaml:"batch_size"`
}

// Enabled reports whether the embedding collaborator is configured at all.
// Without it the service serves lexical-order answers only.
func (c EmbeddingConfig) Enabled() bool { return c.APIKey != "" }

// GenerationConfig holds the text-generation collaborator settings.
type GenerationConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
	System      string  `yaml:"system"`
}

// CacheConfig holds the optional Redis-backed embedding cache settings.
type CacheConfig struct {
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	TTLHours int      `yaml:"ttl_hours"`
}

// Enabled reports whether a cache store is configured.
func (c CacheConfig) Enabled() bool { return len(c.Addrs) > 0 }

// RateLimitConfig holds admission-control settings. Driver "memory" keeps
// per-process counters; "redis" shares counters through the cache store.
type RateLimitConfig struct {
	Driver    string `yaml:"driver"`
	Limit     int    `yaml:"limit"`
	WindowSec int    `yaml:"window_sec"`
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: by env)
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		// Generation calls dominate response time.
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Corpus.Path == "" {
		c.Corpus.Path = filepath.Join("data", "corpus.json")
	}

	def := retrieval.DefaultLimits()
	if c.Retrieval.Limits.MaxQuestionChars <= 0 {
		c.Retrieval.Limits.MaxQuestionChars = def.MaxQuestionChars
	}
	if c.Retrieval.Limits.MaxCandidates <= 0 {
		c.Retrieval.Limits.MaxCandidates = def.MaxCandidates
	}
	if c.Retrieval.Limits.MaxIDChars <= 0 {
		c.Retrieval.Limits.MaxIDChars = def.MaxIDChars
	}
	if c.Retrieval.Limits.MaxTitleChars <= 0 {
		c.Retrieval.Limits.MaxTitleChars = def.MaxTitleChars
	}
	if c.Retrieval.Limits.MaxTextChars <= 0 {
		c.Retrieval.Limits.MaxTextChars = def.MaxTextChars
	}
	if c.Retrieval.TopN <= 0 {
		c.Retrieval.TopN = 25
	}
	defTuning := retrieval.DefaultTuning()
	if len(c.Retrieval.Tuning.Stopwords) == 0 {
		c.Retrieval.Tuning.Stopwords = defTuning.Stopwords
	}
	if len(c.Retrieval.Tuning.Synonyms) == 0 {
		c.Retrieval.Tuning.Synonyms = defTuning.Synonyms
	}

	if c.Embedding.Model == "" {
		c.Embedding.Model = "all-MiniLM-L6-v2"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 384
	}
	if c.Embedding.BatchSize <= 0 {
		c.Embedding.BatchSize = 100
	}

	if c.Generation.Model == "" {
		c.Generation.Model = "gpt-4o-mini"
	}
	if c.Generation.MaxTokens <= 0 {
		c.Generation.MaxTokens = 1024
	}

	if c.Cache.TTLHours <= 0 {
		c.Cache.TTLHours = 24 * 7
	}

	if c.RateLimit.Driver == "" {
		c.RateLimit.Driver = "memory"
	}
	if c.RateLimit.Limit <= 0 {
		c.RateLimit.Limit = 30
	}
	if c.RateLimit.WindowSec <= 0 {
		c.RateLimit.WindowSec = 60
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.RateLimit.Driver {
	case "memory", "redis":
	default:
		return fmt.Errorf("ratelimit.driver must be \"memory\" or \"redis\", got %q",
			c.RateLimit.Driver)
	}
	if c.RateLimit.Driver == "redis" && !c.Cache.Enabled() {
		return fmt.Errorf("ratelimit.driver \"redis\" requires cache.addrs")
	}
	if c.Generation.APIKey == "" {
		return fmt.Errorf("generation.api_key is required")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
