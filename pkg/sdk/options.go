package vecfuse

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver    string // "valkey", "redis" or "" for memory
	addrs     []string
	password  string
	keyPrefix string

	normalization string
	combination   string
	rankConstant  int
	weights       []float32

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithValkey stores pipelines in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithRedis stores pipelines in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix sets the key prefix of stored pipelines. Default: "vecfuse:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithDefaults sets the techniques used when a fusion names no pipeline.
// Defaults: min_max and arithmetic_mean.
func WithDefaults(normalization, combination string) Option {
	return optionFunc(func(c *clientConfig) {
		c.normalization = normalization
		c.combination = combination
	})
}

// WithDefaultWeights sets the per-sub-query weights of the default pipeline.
func WithDefaultWeights(weights ...float32) Option {
	return optionFunc(func(c *clientConfig) {
		c.weights = weights
	})
}

// WithDefaultRankConstant sets the rank constant of a default rrf pipeline.
func WithDefaultRankConstant(k int) Option {
	return optionFunc(func(c *clientConfig) {
		c.rankConstant = k
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// FuseOption configures one Fuse call.
type FuseOption func(*fuseConfig)

type fuseConfig struct {
	pipeline      string
	normalization string
	combination   string
	rankConstant  int
	weights       []float32
	from          int
	explain       bool
}

// UsePipeline fuses with a stored named pipeline.
func UsePipeline(name string) FuseOption {
	return func(c *fuseConfig) { c.pipeline = name }
}

// WithTechniques fuses with inline techniques instead of a named pipeline.
func WithTechniques(normalization, combination string, weights ...float32) FuseOption {
	return func(c *fuseConfig) {
		c.normalization = normalization
		c.combination = combination
		c.weights = weights
	}
}

// WithRankConstant sets the rank constant of inline rrf normalization.
func WithRankConstant(k int) FuseOption {
	return func(c *fuseConfig) { c.rankConstant = k }
}

// From sets the global pagination offset that must lie within the fused results.
func From(n int) FuseOption {
	return func(c *fuseConfig) { c.from = n }
}

// Explain records per-document explanation trails.
func Explain() FuseOption {
	return func(c *fuseConfig) { c.explain = true }
}
