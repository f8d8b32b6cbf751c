package core

import (
	"fmt"
	"log/slog"
	"time"
)

// Control-plane callbacks. All of them run on the control handler's
// goroutine, so anything touching loop-owned state goes through the mutex
// and is applied by the loop between cycles.

// getStatus backs the get_status command.
func (a *Aura) getStatus() map[string]interface{} {
	snap := a.window.Snapshot()
	stats := a.emitter.Stats()

	a.mu.RLock()
	defer a.mu.RUnlock()

	return map[string]interface{}{
		"instance_id":      a.cfg.InstanceID,
		"state":            a.state.String(),
		"uptime_s":         time.Since(a.started).Seconds(),
		"paused":           a.controlHandler != nil && a.controlHandler.IsPaused(),
		"profile":          a.layout.Name,
		"particle_count":   a.cfg.Model.ParticleCount,
		"target_fps":       a.cfg.TargetFPS,
		"fps":              snap.FPS,
		"avg_frame_ms":     snap.AvgFrameMS,
		"avg_inference_ms": snap.AvgInferenceMS,
		"total_frames":     snap.TotalFrames,
		"cycle_errors":     snap.CycleErrors,
		"overruns":         snap.Overruns,
		"published":        stats.Published,
		"dropped":          stats.Dropped,
	}
}

// pausePipeline backs the pause command. The loop switches to heartbeats on
// its next iteration.
func (a *Aura) pausePipeline() error {
	slog.Info("pipeline paused via control plane")
	return nil
}

// resumePipeline backs the resume command.
func (a *Aura) resumePipeline() error {
	slog.Info("pipeline resumed via control plane")
	return nil
}

// setAlpha validates and stages a smoothing retune; the loop applies it
// between cycles.
func (a *Aura) setAlpha(alpha float64) error {
	if alpha <= 0 || alpha > 1 {
		return fmt.Errorf("alpha must be in (0, 1], got %v", alpha)
	}

	a.mu.Lock()
	a.pendingAlpha = &alpha
	a.mu.Unlock()
	return nil
}

// shutdownViaControl backs the shutdown command by cancelling the run
// context; main then executes the normal graceful shutdown path.
func (a *Aura) shutdownViaControl() error {
	a.mu.RLock()
	cancel := a.cancelRun
	a.mu.RUnlock()

	if cancel == nil {
		return fmt.Errorf("pipeline is not running")
	}
	cancel()
	return nil
}
