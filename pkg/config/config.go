// Package config provides the configuration surface for Relay.
//
// A single Config structure covers the pooling defaults, the demo engine
// workload, logging and metrics. Configurations load from YAML with
// ${ENV_VAR} substitution.
package config

import (
	"runtime"

	"github.com/relayforge/relay/pkg/errors"
)

// Config is the root configuration structure.
type Config struct {
	// Pool holds the exchange pooling defaults.
	Pool PoolConfig `yaml:"pool" json:"pool"`

	// Engine configures the routing engine workload.
	Engine EngineConfig `yaml:"engine" json:"engine"`

	// Logging configures structured logging.
	Logging LoggingConfig `yaml:"logging" json:"logging"`

	// Metrics configures Prometheus metrics exposure.
	Metrics MetricsConfig `yaml:"metrics" json:"metrics"`

	// Tracing configures OpenTelemetry tracing of routed exchanges.
	Tracing TracingConfig `yaml:"tracing" json:"tracing"`
}

// PoolConfig holds the exchange pooling defaults inherited by each
// per-consumer factory as initial values.
type PoolConfig struct {
	// Enabled selects the pooled strategy; when false every exchange is
	// freshly allocated.
	Enabled bool `yaml:"enabled" json:"enabled"`
	// Capacity is the per-consumer pool capacity. Zero disables retention;
	// negative values are rejected.
	Capacity int `yaml:"capacity" json:"capacity"`
	// StatisticsEnabled controls whether utilization counters are recorded.
	StatisticsEnabled bool `yaml:"statistics_enabled" json:"statistics_enabled"`
}

// EngineConfig configures the consumers driven by the engine.
type EngineConfig struct {
	// Consumers is the number of concurrent consuming endpoints.
	Consumers int `yaml:"consumers" json:"consumers"`
	// WorkersPerConsumer is the number of goroutines driving each consumer.
	WorkersPerConsumer int `yaml:"workers_per_consumer" json:"workers_per_consumer"`
	// Exchanges is the number of exchanges each worker processes.
	Exchanges int `yaml:"exchanges" json:"exchanges"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	Development bool   `yaml:"development" json:"development"`
	Encoding    string `yaml:"encoding" json:"encoding"`
}

// MetricsConfig configures Prometheus metrics exposure.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Address string `yaml:"address" json:"address"`
}

// TracingConfig configures OpenTelemetry tracing of routed exchanges.
type TracingConfig struct {
	Enabled      bool    `yaml:"enabled" json:"enabled"`
	Exporter     string  `yaml:"exporter" json:"exporter"`
	SamplingRate float64 `yaml:"sampling_rate" json:"sampling_rate"`
}

// NewDefaultConfig returns a configuration with sensible defaults: pooled
// allocation with capacity 100, statistics on, one consumer per CPU.
func NewDefaultConfig() *Config {
	return &Config{
		Pool: PoolConfig{
			Enabled:           true,
			Capacity:          100,
			StatisticsEnabled: true,
		},
		Engine: EngineConfig{
			Consumers:          runtime.NumCPU(),
			WorkersPerConsumer: 4,
			Exchanges:          1000,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Encoding: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Address: ":9090",
		},
		Tracing: TracingConfig{
			Enabled:      false,
			Exporter:     "stdout",
			SamplingRate: 1.0,
		},
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Pool.Capacity < 0 {
		return errors.Newf(errors.ErrorTypeConfig, "pool capacity must not be negative, got %d", c.Pool.Capacity)
	}
	if c.Engine.Consumers <= 0 {
		return errors.Newf(errors.ErrorTypeConfig, "engine consumers must be positive, got %d", c.Engine.Consumers)
	}
	if c.Engine.WorkersPerConsumer <= 0 {
		return errors.Newf(errors.ErrorTypeConfig, "engine workers per consumer must be positive, got %d", c.Engine.WorkersPerConsumer)
	}
	if c.Engine.Exchanges < 0 {
		return errors.Newf(errors.ErrorTypeConfig, "engine exchanges must not be negative, got %d", c.Engine.Exchanges)
	}
	if c.Logging.Encoding != "" && c.Logging.Encoding != "json" && c.Logging.Encoding != "console" {
		return errors.Newf(errors.ErrorTypeConfig, "logging encoding must be json or console, got %q", c.Logging.Encoding)
	}
	if c.Tracing.SamplingRate < 0 || c.Tracing.SamplingRate > 1 {
		return errors.Newf(errors.ErrorTypeConfig, "tracing sampling rate must be within [0, 1], got %v", c.Tracing.SamplingRate)
	}
	if c.Tracing.Exporter != "" && c.Tracing.Exporter != "stdout" {
		return errors.Newf(errors.ErrorTypeConfig, "tracing exporter must be stdout, got %q", c.Tracing.Exporter)
	}
	return nil
}
