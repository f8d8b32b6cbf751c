package config

import (
	"fmt"
	"regexp"
)

var instanceIDPattern = regexp.MustCompile(`^[a-z0-9\-]+$`)

// Validate checks the configuration and fills defaults for optional fields.
func Validate(cfg *Config) error {
	if cfg.InstanceID == "" {
		return fmt.Errorf("instance_id is required")
	}
	if !instanceIDPattern.MatchString(cfg.InstanceID) {
		return fmt.Errorf("instance_id must match pattern [a-z0-9-]+")
	}

	if cfg.TargetFPS == 0 {
		cfg.TargetFPS = 60
	}
	if cfg.TargetFPS < 0 || cfg.TargetFPS > 240 {
		return fmt.Errorf("target_fps must be in 1..240, got %d", cfg.TargetFPS)
	}
	if cfg.ShutdownTimeoutS == 0 {
		cfg.ShutdownTimeoutS = 5
	}

	if cfg.Model.ArtifactPath == "" {
		return fmt.Errorf("model.artifact_path is required")
	}
	if cfg.Model.ParticleCount <= 0 {
		return fmt.Errorf("model.particle_count must be > 0")
	}
	if cfg.Model.WarmupRuns == 0 {
		cfg.Model.WarmupRuns = 5
	}

	switch cfg.SnapshotSource {
	case "":
		cfg.SnapshotSource = "mqtt"
	case "mqtt", "static":
	default:
		return fmt.Errorf("snapshot_source must be 'mqtt' or 'static', got %q", cfg.SnapshotSource)
	}

	switch cfg.Features.Profile {
	case "":
		cfg.Features.Profile = "standard"
	case "standard", "extended":
	default:
		return fmt.Errorf("features.profile must be 'standard' or 'extended', got %q", cfg.Features.Profile)
	}
	if cfg.Features.CacheTTLMS == 0 {
		cfg.Features.CacheTTLMS = 100
	}

	if cfg.Interpolation.Alpha == 0 {
		cfg.Interpolation.Alpha = 0.3
	}
	if cfg.Interpolation.Alpha < 0 || cfg.Interpolation.Alpha > 1 {
		return fmt.Errorf("interpolation.alpha must be in (0,1], got %v", cfg.Interpolation.Alpha)
	}

	if cfg.Metrics.ReportIntervalS == 0 {
		cfg.Metrics.ReportIntervalS = 5
	}
	if cfg.Metrics.Window == 0 {
		cfg.Metrics.Window = 300
	}

	if cfg.MQTT.Broker == "" {
		return fmt.Errorf("mqtt.broker is required")
	}

	// Default topics derive from the instance id.
	if cfg.MQTT.Topics.Particles == "" {
		cfg.MQTT.Topics.Particles = fmt.Sprintf("aura/particles/%s", cfg.InstanceID)
	}
	if cfg.MQTT.Topics.Telemetry == "" {
		cfg.MQTT.Topics.Telemetry = fmt.Sprintf("aura/telemetry/%s", cfg.InstanceID)
	}
	if cfg.MQTT.Topics.Control == "" {
		cfg.MQTT.Topics.Control = fmt.Sprintf("aura/control/%s", cfg.InstanceID)
	}
	if cfg.MQTT.Topics.Health == "" {
		cfg.MQTT.Topics.Health = fmt.Sprintf("aura/health/%s", cfg.InstanceID)
	}

	if cfg.MQTT.QoS == nil {
		cfg.MQTT.QoS = map[string]byte{
			"particles": 0,
			"telemetry": 0,
			"control":   1,
			"health":    0,
		}
	}

	return nil
}
