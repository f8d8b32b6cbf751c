package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete aura pipeline configuration.
type Config struct {
	InstanceID       string `yaml:"instance_id"`
	TargetFPS        int    `yaml:"target_fps"`
	ShutdownTimeoutS int    `yaml:"shutdown_timeout_s"`

	// FallbackMode names the alternate visualization path the supervisor
	// should start when this pipeline enters degraded mode. The pipeline
	// itself only reports it; it never runs the fallback.
	FallbackMode string `yaml:"fallback_mode"`

	// SnapshotSource selects where world snapshots come from: "mqtt"
	// subscribes to the sensor fleet's telemetry topics, "static" runs the
	// built-in synthetic generator (development machines, demos).
	SnapshotSource string `yaml:"snapshot_source"`

	Model         ModelConfig         `yaml:"model"`
	Features      FeaturesConfig      `yaml:"features"`
	Interpolation InterpolationConfig `yaml:"interpolation"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	MQTT          MQTTConfig          `yaml:"mqtt"`
}

// ModelConfig locates the accelerator and its compiled artifact.
type ModelConfig struct {
	ArtifactPath string `yaml:"artifact_path"`
	// DevicePath is the accelerator device node. Empty selects the
	// software simulator (development machines without the hardware).
	DevicePath    string `yaml:"device_path"`
	ParticleCount int    `yaml:"particle_count"`
	WarmupRuns    int    `yaml:"warmup_runs"`
}

// FeaturesConfig selects the feature profile.
type FeaturesConfig struct {
	Profile    string `yaml:"profile"`      // standard (68) or extended (120)
	CacheTTLMS int    `yaml:"cache_ttl_ms"` // system-load cache TTL
}

// InterpolationConfig tunes frame smoothing.
type InterpolationConfig struct {
	// Alpha in (0,1]: lower is smoother and slower, higher more
	// responsive.
	Alpha float64 `yaml:"alpha"`
}

// MetricsConfig controls the rolling window and periodic reporting.
type MetricsConfig struct {
	Enabled         bool `yaml:"enabled"`
	ReportIntervalS int  `yaml:"report_interval_s"`
	Window          int  `yaml:"window"`
}

// MQTTConfig contains broker settings.
type MQTTConfig struct {
	Broker string          `yaml:"broker"`
	Topics MQTTTopics      `yaml:"topics"`
	QoS    map[string]byte `yaml:"qos"`
}

// MQTTTopics contains topic templates.
type MQTTTopics struct {
	// Particles carries the binary particle/metadata/heartbeat messages.
	Particles string `yaml:"particles"`
	// Telemetry is the base topic the sensor subsystems publish snapshot
	// sections under; the provider subscribes to Telemetry + "/#".
	Telemetry string `yaml:"telemetry"`
	Control   string `yaml:"control"`
	Health    string `yaml:"health"`
}

// Load reads and parses a YAML configuration file, applying defaults and
// validating the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// defaults pre-seeds the values yaml's zero values cannot express
// (enabled-by-default booleans). Everything else defaults in Validate.
func defaults() *Config {
	return &Config{
		Metrics: MetricsConfig{Enabled: true},
	}
}

// FrameBudget is the per-cycle wall-clock budget derived from the target
// frame rate.
func (c *Config) FrameBudget() time.Duration {
	return time.Second / time.Duration(c.TargetFPS)
}

// ShutdownTimeout returns the graceful shutdown timeout.
func (c *Config) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownTimeoutS) * time.Second
}
