package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the reformhub API configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Weaviate   WeaviateConfig   `yaml:"weaviate"`
	Cache      CacheConfig      `yaml:"cache"`
	Search     SearchConfig     `yaml:"search"`
	Fetch      FetchConfig      `yaml:"fetch"`
	R2         R2Config         `yaml:"r2"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Resilience ResilienceConfig `yaml:"resilience"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings for write endpoints.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// WeaviateConfig holds document store settings.
type WeaviateConfig struct {
	Host             string `yaml:"host"` // host[:port], optionally with scheme
	Scheme           string `yaml:"scheme"`
	APIKey           string `yaml:"api_key"`
	Class            string `yaml:"class"`
	OpenAIKey        string `yaml:"openai_key"` // forwarded to a text2vec-openai vectorizer
	TimeoutSec       int    `yaml:"timeout_sec"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
}

// CacheConfig holds the key-value backend and entry lifetimes.
type CacheConfig struct {
	Driver   string   `yaml:"driver"` // memory, redis (default: memory)
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`

	FacetsTTLSec   int `yaml:"facets_ttl_sec"`
	FacetsStaleSec int `yaml:"facets_stale_sec"`
	SessionTTLSec  int `yaml:"session_ttl_sec"`
	PreviewTTLSec  int `yaml:"preview_ttl_sec"`
}

// SearchConfig holds query settings.
type SearchConfig struct {
	TimeoutSec         int `yaml:"timeout_sec"`
	FacetSampleSize    int `yaml:"facet_sample_size"`
	RelatedConcurrency int `yaml:"related_concurrency"`
}

// FetchConfig holds outbound page fetch settings.
type FetchConfig struct {
	TimeoutSec    int     `yaml:"timeout_sec"`
	MaxBytes      int64   `yaml:"max_bytes"`
	UserAgent     string  `yaml:"user_agent"`
	RatePerSecond float64 `yaml:"rate_per_second"`
	Burst         int     `yaml:"burst"`
	// BrowserURL is a DevTools websocket URL for the headless fallback; empty disables it.
	BrowserURL string `yaml:"browser_url"`
}

// R2Config holds object storage settings. Uploads are disabled when incomplete.
type R2Config struct {
	Endpoint        string `yaml:"endpoint"`
	AccountID       string `yaml:"account_id"` // derives endpoint when endpoint is empty
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	Bucket          string `yaml:"bucket"`
	PublicBaseURL   string `yaml:"public_base_url"`
}

// EmbeddingConfig holds the optional query embedder. Disabled without an API key.
type EmbeddingConfig struct {
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Provider         string `yaml:"provider"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
	CacheTTLHours    int    `yaml:"cache_ttl_hours"`
}

// ResilienceConfig holds retry and breaker settings for store calls.
type ResilienceConfig struct {
	RetryMaxAttempts      int     `yaml:"retry_max_attempts"`
	RetryInitialBackoffMs int     `yaml:"retry_initial_backoff_ms"`
	RetryMaxBackoffMs     int     `yaml:"retry_max_backoff_ms"`
	BreakerEnabled        *bool   `yaml:"breaker_enabled"`
	BreakerMinRequests    uint32  `yaml:"breaker_min_requests"`
	BreakerFailureRatio   float64 `yaml:"breaker_failure_ratio"`
	BreakerOpenSec        int     `yaml:"breaker_open_sec"`
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

// Parse expands environment references in data and decodes it.
func Parse(data []byte) (Config, error) {
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

// LoadDotEnv loads variables from .env files into the process environment
// without overriding ones already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
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
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 1 << 20
	}
	if c.Weaviate.Scheme == "" {
		c.Weaviate.Scheme = "https"
	}
	if c.Weaviate.Class == "" {
		c.Weaviate.Class = "Resource"
	}
	if c.Weaviate.TimeoutSec <= 0 {
		c.Weaviate.TimeoutSec = 15
	}
	if c.Weaviate.ReadinessTimeout <= 0 {
		c.Weaviate.ReadinessTimeout = 10
	}
	if c.Cache.Driver == "" {
		c.Cache.Driver = "memory"
	}
	if c.Cache.FacetsTTLSec <= 0 {
		c.Cache.FacetsTTLSec = 300
	}
	if c.Cache.FacetsStaleSec <= 0 {
		c.Cache.FacetsStaleSec = 3600
	}
	if c.Cache.SessionTTLSec <= 0 {
		c.Cache.SessionTTLSec = 1800
	}
	if c.Cache.PreviewTTLSec <= 0 {
		c.Cache.PreviewTTLSec = 86400
	}
	if c.Search.TimeoutSec <= 0 {
		c.Search.TimeoutSec = 15
	}
	if c.Search.FacetSampleSize <= 0 {
		c.Search.FacetSampleSize = 500
	}
	if c.Search.RelatedConcurrency <= 0 {
		c.Search.RelatedConcurrency = 4
	}
	if c.Fetch.TimeoutSec <= 0 {
		c.Fetch.TimeoutSec = 10
	}
	if c.Fetch.Burst <= 0 {
		c.Fetch.Burst = 5
	}
	if c.R2.Region == "" {
		c.R2.Region = "auto"
	}
	if c.R2.Endpoint == "" && c.R2.AccountID != "" {
		c.R2.Endpoint = "https://" + c.R2.AccountID + ".r2.cloudflarestorage.com"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.CacheTTLHours <= 0 {
		c.Embedding.CacheTTLHours = 168
	}
	// A single attempt by default: a failed search degrades to an empty page.
	if c.Resilience.RetryMaxAttempts <= 0 {
		c.Resilience.RetryMaxAttempts = 1
	}
	if c.Resilience.RetryInitialBackoffMs <= 0 {
		c.Resilience.RetryInitialBackoffMs = 100
	}
	if c.Resilience.RetryMaxBackoffMs <= 0 {
		c.Resilience.RetryMaxBackoffMs = 1000
	}
	if c.Resilience.BreakerEnabled == nil {
		enabled := true
		c.Resilience.BreakerEnabled = &enabled
	}
	if c.Resilience.BreakerOpenSec <= 0 {
		c.Resilience.BreakerOpenSec = 30
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if strings.TrimSpace(c.Weaviate.Host) == "" {
		return fmt.Errorf("weaviate.host is required")
	}
	switch c.Weaviate.Scheme {
	case "http", "https":
	default:
		return fmt.Errorf("weaviate.scheme must be \"http\" or \"https\", got %q", c.Weaviate.Scheme)
	}
	switch c.Cache.Driver {
	case "memory":
	case "redis":
		if len(c.Cache.Addrs) == 0 {
			return fmt.Errorf("cache.addrs is required for the redis driver")
		}
	default:
		return fmt.Errorf("cache.driver must be \"memory\" or \"redis\", got %q", c.Cache.Driver)
	}
	if c.Fetch.RatePerSecond < 0 {
		return fmt.Errorf("fetch.rate_per_second must not be negative")
	}
	if r := c.Resilience.BreakerFailureRatio; r < 0 || r > 1 {
		return fmt.Errorf("resilience.breaker_failure_ratio must be within [0, 1], got %g", r)
	}
	return nil
}

// R2Enabled reports whether image uploads are configured.
func (c *Config) R2Enabled() bool {
	r := c.R2
	return r.Endpoint != "" && r.AccessKeyID != "" && r.SecretAccessKey != "" && r.Bucket != "" && r.PublicBaseURL != ""
}

// EmbeddingEnabled reports whether hybrid queries carry a client-side vector.
func (c *Config) EmbeddingEnabled() bool {
	return c.Embedding.APIKey != ""
}

// Seconds converts a whole-second setting to a duration.
func Seconds(n int) time.Duration { return time.Duration(n) * time.Second }

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
