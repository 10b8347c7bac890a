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

// Config holds the kepler API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	Auth      AuthConfig      `yaml:"auth"`
	Routing   RoutingConfig   `yaml:"routing"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	WebSearch WebSearchConfig `yaml:"websearch"`
	Combine   CombineConfig   `yaml:"combine"`
	Domain    DomainConfig    `yaml:"domain"`
	Logging   LoggingConfig   `yaml:"logging"`
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

// DatabaseConfig holds cache-store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, memory (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// EmbeddingConfig holds embedding provider settings. An empty APIKey disables
// the semantic paths; the lexical fallbacks are used instead.
type EmbeddingConfig struct {
	APIKey     string `yaml:"api_key"`
	BaseURL    string `yaml:"base_url"`
	Model      string `yaml:"model"`
	Dimensions int    `yaml:"dimensions"`
}

// RoutingConfig holds the decision thresholds.
type RoutingConfig struct {
	LowThreshold  float64 `yaml:"low_threshold"`
	HighThreshold float64 `yaml:"high_threshold"`
	DomainFloor   float64 `yaml:"domain_floor"`
}

// RetrievalConfig holds local knowledge-base settings.
type RetrievalConfig struct {
	MaxLocalResults int     `yaml:"max_local_results"`
	MinSimilarity   float64 `yaml:"min_similarity"`
	CorpusPath      string  `yaml:"corpus_path"`
}

// WebSearchConfig holds external search provider settings.
type WebSearchConfig struct {
	InstantURL        string `yaml:"instant_url"`
	HTMLURL           string `yaml:"html_url"`
	UserAgent         string `yaml:"user_agent"`
	MaxResults        int    `yaml:"max_results"`
	CacheTTLHours     int    `yaml:"cache_ttl_hours"`
	MinRequestDelayMS int    `yaml:"min_request_delay_ms"`
	FetchTimeoutSec   int    `yaml:"fetch_timeout_sec"`
	MaxContentChars   int    `yaml:"max_content_chars"`
}

// CombineConfig holds result combination settings.
type CombineConfig struct {
	MaxResults  int     `yaml:"max_results"`
	ResultFloor float64 `yaml:"result_floor"`
}

// DomainConfig points at the domain phrase table.
type DomainConfig struct {
	PhrasesPath string `yaml:"phrases_path"`
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
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "memory"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Routing.LowThreshold <= 0 {
		c.Routing.LowThreshold = 0.6
	}
	if c.Routing.HighThreshold <= 0 {
		c.Routing.HighThreshold = 0.8
	}
	if c.Routing.DomainFloor <= 0 {
		c.Routing.DomainFloor = 0.3
	}
	if c.Retrieval.MaxLocalResults <= 0 {
		c.Retrieval.MaxLocalResults = 5
	}
	if c.Retrieval.MinSimilarity <= 0 {
		c.Retrieval.MinSimilarity = 0.3
	}
	if c.WebSearch.InstantURL == "" {
		c.WebSearch.InstantURL = "https://api.duckduckgo.com/"
	}
	if c.WebSearch.HTMLURL == "" {
		c.WebSearch.HTMLURL = "https://html.duckduckgo.com/html/"
	}
	if c.WebSearch.UserAgent == "" {
		c.WebSearch.UserAgent = "kepler/1.0 (+https://github.com/keplerlabs/kepler)"
	}
	if c.WebSearch.MaxResults <= 0 {
		c.WebSearch.MaxResults = 5
	}
	if c.WebSearch.CacheTTLHours <= 0 {
		c.WebSearch.CacheTTLHours = 24
	}
	if c.WebSearch.MinRequestDelayMS <= 0 {
		c.WebSearch.MinRequestDelayMS = 1000
	}
	if c.WebSearch.FetchTimeoutSec <= 0 {
		c.WebSearch.FetchTimeoutSec = 10
	}
	if c.WebSearch.MaxContentChars <= 0 {
		c.WebSearch.MaxContentChars = 5000
	}
	if c.Combine.MaxResults <= 0 {
		c.Combine.MaxResults = 5
	}
	if c.Combine.ResultFloor <= 0 {
		c.Combine.ResultFloor = 0.3
	}
	if c.Domain.PhrasesPath == "" {
		c.Domain.PhrasesPath = filepath.Join("config", "domain.yaml")
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "memory":
	case "redis":
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("database.driver must be \"redis\" or \"memory\", got %q", c.Database.Driver)
	}
	if c.Routing.LowThreshold >= c.Routing.HighThreshold {
		return fmt.Errorf("routing.low_threshold (%.2f) must be below routing.high_threshold (%.2f)",
			c.Routing.LowThreshold, c.Routing.HighThreshold)
	}
	if c.Routing.LowThreshold >= 1 || c.Routing.HighThreshold >= 1 {
		return fmt.Errorf("routing thresholds must lie in (0,1)")
	}
	if c.Routing.DomainFloor >= 1 {
		return fmt.Errorf("routing.domain_floor must lie in (0,1), got %.2f", c.Routing.DomainFloor)
	}
	if c.Combine.ResultFloor >= 1 {
		return fmt.Errorf("combine.result_floor must lie in (0,1), got %.2f", c.Combine.ResultFloor)
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
