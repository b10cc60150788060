package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/vecfuse/internal/domain/pipeline"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/request"
	"github.com/kailas-cloud/vecfuse/internal/domain/search/technique"
)

// envPrefix prefixes environment overrides (VECFUSE_NORMALIZATION, ...).
const envPrefix = "vecfuse"

// Database drivers.
const (
	DriverValkey = "valkey"
	DriverRedis  = "redis"
	// DriverMemory keeps pipelines in process memory.
	DriverMemory = "memory"
)

// Config holds the vecfuse API configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Storage   StorageConfig   `yaml:"storage"`
	Fusion    FusionConfig    `yaml:"fusion"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level" envconfig:"LOG_LEVEL"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int   `yaml:"port" envconfig:"PORT"`
	ReadTimeoutSec  int   `yaml:"read_timeout_sec"`
	WriteTimeoutSec int   `yaml:"write_timeout_sec"`
	ShutdownSec     int   `yaml:"shutdown_timeout_sec"`
	MaxBodyBytes    int64 `yaml:"max_body_bytes"`
}

// DatabaseConfig holds pipeline store connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis, memory (default: memory)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// FusionConfig holds the default pipeline and request limits.
type FusionConfig struct {
	Normalization   string    `yaml:"normalization" envconfig:"NORMALIZATION"`
	Combination     string    `yaml:"combination" envconfig:"COMBINATION"`
	Weights         []float32 `yaml:"weights" envconfig:"WEIGHTS"`
	RankConstant    int       `yaml:"rank_constant" envconfig:"RANK_CONSTANT"`
	MaxShards       int       `yaml:"max_shards" envconfig:"MAX_SHARDS"`
	MaxHitsPerShard int       `yaml:"max_hits_per_shard" envconfig:"MAX_HITS_PER_SHARD"`
}

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	Enabled           bool    `yaml:"enabled" envconfig:"RATE_LIMIT_ENABLED"`
	RequestsPerSecond float64 `yaml:"requests_per_second" envconfig:"RATE_LIMIT_RPS"`
	Burst             int     `yaml:"burst" envconfig:"RATE_LIMIT_BURST"`
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

// Parse builds a configuration from YAML bytes, then applies environment
// overrides, defaults and validation.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, fmt.Errorf("failed to apply env overrides: %w", err)
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

func (c *Config) applyEnv() error {
	for _, section := range []any{&c.HTTP, &c.Fusion, &c.RateLimit, &c.Logging} {
		if err := envconfig.Process(envPrefix, section); err != nil {
			return err
		}
	}
	return nil
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
	if c.HTTP.MaxBodyBytes <= 0 {
		c.HTTP.MaxBodyBytes = 32 << 20
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMemory
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "vecfuse:"
	}
	if c.Fusion.Normalization == "" {
		c.Fusion.Normalization = string(technique.MinMax)
	}
	if c.Fusion.Combination == "" {
		c.Fusion.Combination = string(technique.ArithmeticMean)
	}
	if c.Fusion.MaxShards <= 0 {
		c.Fusion.MaxShards = request.MaxShards
	}
	if c.Fusion.MaxHitsPerShard <= 0 {
		c.Fusion.MaxHitsPerShard = request.MaxHitsPerShard
	}
	if c.RateLimit.RequestsPerSecond <= 0 {
		c.RateLimit.RequestsPerSecond = 100
	}
	if c.RateLimit.Burst <= 0 {
		c.RateLimit.Burst = 200
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case DriverValkey, DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required for driver %q", c.Database.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be one of valkey, redis, memory, got %q", c.Database.Driver)
	}
	if _, err := c.Fusion.DefaultPipeline(); err != nil {
		return fmt.Errorf("fusion: %w", err)
	}
	if c.Fusion.MaxShards > request.MaxShards {
		return fmt.Errorf("fusion.max_shards must not exceed %d, got %d", request.MaxShards, c.Fusion.MaxShards)
	}
	if c.Fusion.MaxHitsPerShard > request.MaxHitsPerShard {
		return fmt.Errorf(
			"fusion.max_hits_per_shard must not exceed %d, got %d",
			request.MaxHitsPerShard, c.Fusion.MaxHitsPerShard,
		)
	}
	return nil
}

// DefaultPipeline builds the pipeline used when a request names none.
func (f FusionConfig) DefaultPipeline() (pipeline.Pipeline, error) {
	norm, err := technique.ParseNormalization(f.Normalization)
	if err != nil {
		return pipeline.Pipeline{}, err
	}
	comb, err := technique.ParseCombination(f.Combination)
	if err != nil {
		return pipeline.Pipeline{}, err
	}
	return pipeline.New("default", "configured default", norm, f.RankConstant, comb, f.Weights, 0)
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
