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

// Config holds the flowdex configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Logging   LoggingConfig   `yaml:"logging"`
	Corpus    CorpusConfig    `yaml:"corpus"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Search    SearchConfig    `yaml:"search"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// CorpusConfig holds corpus source settings.
type CorpusConfig struct {
	Dir         string `yaml:"dir"`
	Watch       bool   `yaml:"watch"`
	DebounceMs  int    `yaml:"debounce_ms"`
	WarmOnLoad  bool   `yaml:"warm_on_load"`
	WarmWorkers int    `yaml:"warm_workers"`
}

// EmbeddingConfig holds embedding provider settings. An empty provider disables
// the semantic signal and search runs lexical-only.
type EmbeddingConfig struct {
	Provider            string      `yaml:"provider"`
	APIKey              string      `yaml:"api_key"`
	BaseURL             string      `yaml:"base_url"`
	Model               string      `yaml:"model"`
	Dimensions          int         `yaml:"dimensions"`
	TimeoutMs           int         `yaml:"timeout_ms"`
	Concurrency         int         `yaml:"concurrency"`
	QueryCacheSize      int         `yaml:"query_cache_size"`
	DocumentInstruction string      `yaml:"document_instruction"`
	QueryInstruction    string      `yaml:"query_instruction"`
	Cache               CacheConfig `yaml:"cache"`
}

// Enabled reports whether an embedding provider is configured.
func (e EmbeddingConfig) Enabled() bool { return e.Provider != "" }

// CacheConfig holds the optional KV embedding cache settings.
type CacheConfig struct {
	Driver           string   `yaml:"driver"` // none, valkey, redis (default: none)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	TTLHours         int      `yaml:"ttl_hours"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// SearchConfig holds ranking parameters.
type SearchConfig struct {
	LexicalPool      int           `yaml:"lexical_pool"`
	SemanticPool     int           `yaml:"semantic_pool"`
	LexicalThreshold *float64      `yaml:"lexical_threshold"`
	FieldWeights     FieldWeights  `yaml:"field_weights"`
	Fusion           FusionWeights `yaml:"fusion"`
}

// FieldWeights holds per-field lexical weights.
type FieldWeights struct {
	Title       float64 `yaml:"title"`
	Description float64 `yaml:"description"`
	Services    float64 `yaml:"services"`
	Actions     float64 `yaml:"actions"`
	Keywords    float64 `yaml:"keywords"`
}

// FusionWeights holds the lexical/semantic blend.
type FusionWeights struct {
	Lexical  float64 `yaml:"lexical"`
	Semantic float64 `yaml:"semantic"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
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

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
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
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Corpus.DebounceMs <= 0 {
		c.Corpus.DebounceMs = 500
	}
	if c.Embedding.TimeoutMs <= 0 {
		c.Embedding.TimeoutMs = 5000
	}
	if c.Embedding.Concurrency <= 0 {
		c.Embedding.Concurrency = 8
	}
	if c.Embedding.QueryCacheSize <= 0 {
		c.Embedding.QueryCacheSize = 1024
	}
	if c.Embedding.Cache.Driver == "" {
		c.Embedding.Cache.Driver = "none"
	}
	if c.Embedding.Cache.TTLHours <= 0 {
		c.Embedding.Cache.TTLHours = 24 * 30
	}
	if c.Embedding.Cache.ReadinessTimeout <= 0 {
		c.Embedding.Cache.ReadinessTimeout = 10
	}
	if c.Search.LexicalPool <= 0 {
		c.Search.LexicalPool = 20
	}
	if c.Search.SemanticPool <= 0 {
		c.Search.SemanticPool = 20
	}
	if c.Search.LexicalThreshold == nil {
		t := 0.3
		c.Search.LexicalThreshold = &t
	}
	if c.Search.FieldWeights == (FieldWeights{}) {
		c.Search.FieldWeights = FieldWeights{Title: 0.4, Description: 0.3, Services: 0.15, Actions: 0.1, Keywords: 0.05}
	}
	if c.Search.Fusion == (FusionWeights{}) {
		c.Search.Fusion = FusionWeights{Lexical: 0.6, Semantic: 0.4}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Corpus.Dir == "" {
		return fmt.Errorf("corpus.dir is required")
	}
	switch c.Embedding.Cache.Driver {
	case "none":
	case "valkey", "redis":
		if len(c.Embedding.Cache.Addrs) == 0 {
			return fmt.Errorf("embedding.cache.addrs is required for driver %q", c.Embedding.Cache.Driver)
		}
	default:
		return fmt.Errorf("embedding.cache.driver must be \"none\", \"valkey\" or \"redis\", got %q",
			c.Embedding.Cache.Driver)
	}
	if c.Embedding.Enabled() && c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required when embedding.provider is set")
	}
	if t := c.Search.LexicalThreshold; t != nil && (*t < 0 || *t > 1) {
		return fmt.Errorf("search.lexical_threshold must be within [0, 1], got %v", *t)
	}
	w := c.Search.FieldWeights
	for name, v := range map[string]float64{
		"title": w.Title, "description": w.Description, "services": w.Services,
		"actions": w.Actions, "keywords": w.Keywords,
	} {
		if v < 0 {
			return fmt.Errorf("search.field_weights.%s must not be negative, got %v", name, v)
		}
	}
	if w.Title+w.Description+w.Services+w.Actions+w.Keywords <= 0 {
		return fmt.Errorf("search.field_weights must sum to a positive number")
	}
	f := c.Search.Fusion
	if f.Lexical < 0 || f.Semantic < 0 || f.Lexical+f.Semantic <= 0 {
		return fmt.Errorf("search.fusion weights must be non-negative with a positive sum, got %v/%v",
			f.Lexical, f.Semantic)
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
