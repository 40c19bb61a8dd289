package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Ranking providers.
const (
	RankingProviderOpenAI = "openai"
	RankingProviderGemini = "gemini"
	RankingProviderNone   = "none"
)

// Config holds the serendip API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Ranking    RankingConfig    `yaml:"ranking"`
	Matching   MatchingConfig   `yaml:"matching"`
	Impression ImpressionConfig `yaml:"impression"`
	Index      IndexConfig      `yaml:"index"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Valkey connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// IndexConfig holds HNSW settings for the profile vector index.
type IndexConfig struct {
	HNSWM           int `yaml:"hnsw_m"`
	HNSWEFConstruct int `yaml:"hnsw_ef_construction"`
}

// EmbeddingConfig holds the OpenAI-compatible embedding provider settings.
type EmbeddingConfig struct {
	Provider            string  `yaml:"provider"` // label for metrics
	APIKey              string  `yaml:"api_key"`
	BaseURL             string  `yaml:"base_url"`
	Model               string  `yaml:"model"`
	Dimensions          int     `yaml:"dimensions"`
	DocumentInstruction string  `yaml:"document_instruction"`
	QueryInstruction    string  `yaml:"query_instruction"`
	Cache               bool    `yaml:"cache"`
	CacheTTLSec         int     `yaml:"cache_ttl_sec"` // 0 = no expiry
	RatePerSec          float64 `yaml:"rate_per_sec"`  // 0 = unlimited
	Burst               int     `yaml:"burst"`
}

// RankingConfig holds the AI ranking oracle settings.
type RankingConfig struct {
	Provider    string  `yaml:"provider"` // openai, gemini, none
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	TimeoutMs   int     `yaml:"timeout_ms"`
	RatePerSec  float64 `yaml:"rate_per_sec"` // 0 = unlimited
	Burst       int     `yaml:"burst"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

// MatchingConfig holds shortlist sizing.
type MatchingConfig struct {
	DefaultTopK int `yaml:"default_top_k"`
	MaxTopK     int `yaml:"max_top_k"`
}

// ImpressionConfig holds reputation summary settings.
type ImpressionConfig struct {
	CacheTTLSec int `yaml:"cache_ttl_sec"`
	TimeoutMs   int `yaml:"timeout_ms"` // bound on one summary generation
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse expands ${VAR} references, decodes YAML, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(expandEnvVars(data), &cfg); err != nil {
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
		c.HTTP.WriteTimeoutSec = 60 // opportunity creation waits for ranking
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Index.HNSWM <= 0 {
		c.Index.HNSWM = 16
	}
	if c.Index.HNSWEFConstruct <= 0 {
		c.Index.HNSWEFConstruct = 200
	}
	if c.Embedding.Provider == "" {
		c.Embedding.Provider = "openai"
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1536
	}
	if c.Embedding.Burst <= 0 {
		c.Embedding.Burst = 1
	}
	if c.Ranking.Provider == "" {
		c.Ranking.Provider = RankingProviderNone
	}
	if c.Ranking.TimeoutMs <= 0 {
		c.Ranking.TimeoutMs = 20000
	}
	if c.Ranking.Burst <= 0 {
		c.Ranking.Burst = 1
	}
	if c.Ranking.MaxTokens <= 0 {
		c.Ranking.MaxTokens = 2048
	}
	if c.Matching.DefaultTopK <= 0 {
		c.Matching.DefaultTopK = 5
	}
	if c.Matching.MaxTopK <= 0 {
		c.Matching.MaxTopK = 50
	}
	if c.Impression.CacheTTLSec <= 0 {
		c.Impression.CacheTTLSec = 24 * 3600
	}
	if c.Impression.TimeoutMs <= 0 {
		c.Impression.TimeoutMs = 30000
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	switch c.Ranking.Provider {
	case RankingProviderOpenAI, RankingProviderGemini:
		if c.Ranking.Model == "" {
			return fmt.Errorf("ranking.model is required for provider %q", c.Ranking.Provider)
		}
	case RankingProviderNone:
	default:
		return fmt.Errorf("ranking.provider must be %q, %q or %q, got %q",
			RankingProviderOpenAI, RankingProviderGemini, RankingProviderNone, c.Ranking.Provider)
	}
	if c.Embedding.RatePerSec < 0 {
		return fmt.Errorf("embedding.rate_per_sec must not be negative")
	}
	if c.Ranking.RatePerSec < 0 {
		return fmt.Errorf("ranking.rate_per_sec must not be negative")
	}
	if c.Matching.DefaultTopK > c.Matching.MaxTopK {
		return fmt.Errorf("matching.default_top_k (%d) exceeds matching.max_top_k (%d)",
			c.Matching.DefaultTopK, c.Matching.MaxTopK)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to this source file, for tests and `go run` from subdirectories.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b)))
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
