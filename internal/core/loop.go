package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/emitter"
	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/protocol"
	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/types"
)

const (
	// transientBackoff is how long the loop pauses after a per-cycle fault
	// before retrying.
	transientBackoff = 100 * time.Millisecond

	// heartbeatInterval paces heartbeat messages while the pipeline is
	// paused or starved of telemetry. During normal frame flow no
	// heartbeats are sent: every particle frame already proves liveness.
	heartbeatInterval = time.Second

	// severeOverrunLimit is how many consecutive cycles above 1.5× budget
	// trigger the escalated warning.
	severeOverrunLimit = 3
)

// stageTimings breaks one cycle down by sub-stage for overrun diagnostics.
type stageTimings struct {
	extract   time.Duration
	inference time.Duration
	smoothing time.Duration
	broadcast time.Duration
}

// loop runs the fixed-rate cycle until the context ends. It is the only
// goroutine that touches the extractor, adapter, and smoother.
func (a *Aura) loop(ctx context.Context) {
	budget := a.cfg.FrameBudget()
	reportEvery := time.Duration(a.cfg.Metrics.ReportIntervalS) * time.Second
	lastReport := time.Now()

	var lastHeartbeat time.Time
	severeOverruns := 0

	var t stageTimings
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if a.paused() {
			// Drop smoothing history so the first frame after resume
			// renders immediately instead of easing from a stale field.
			a.smoother.Reset()
			lastHeartbeat = a.maybeHeartbeat(lastHeartbeat)
			sleepCtx(ctx, budget)
			continue
		}

		snap := a.provider.Latest()
		if snap.Timestamp.IsZero() {
			// No telemetry has arrived yet. Keep viewers alive with
			// heartbeats instead of rendering an all-defaults field.
			lastHeartbeat = a.maybeHeartbeat(lastHeartbeat)
			sleepCtx(ctx, budget)
			continue
		}

		a.applyPendingAlpha()

		cycleStart := time.Now()
		err := a.cycle(cycleStart, &snap, &t)
		elapsed := time.Since(cycleStart)

		if err != nil {
			a.window.RecordError()
			slog.Error("cycle failed, backing off",
				"error", err,
				"backoff", transientBackoff,
			)
			sleepCtx(ctx, transientBackoff)
			continue
		}

		a.window.RecordCycle(elapsed, t.inference)

		if a.cfg.Metrics.Enabled && time.Since(lastReport) >= reportEvery {
			a.logReport()
			lastReport = time.Now()
		}

		if sleep := planSleep(budget, elapsed); sleep > 0 {
			severeOverruns = 0
			sleepCtx(ctx, sleep)
			continue
		}

		a.window.RecordOverrun()
		slog.Warn("frame budget overrun",
			"budget", budget,
			"elapsed", elapsed,
			"extract", t.extract,
			"inference", t.inference,
			"smoothing", t.smoothing,
			"broadcast", t.broadcast,
		)

		if elapsed > budget+budget/2 {
			severeOverruns++
			if severeOverruns >= severeOverrunLimit {
				slog.Warn("pipeline cannot hold target rate",
					"consecutive_severe_overruns", severeOverruns,
					"target_fps", a.cfg.TargetFPS,
					"budget", budget,
				)
				severeOverruns = 0
			}
		} else {
			severeOverruns = 0
		}
	}
}

// cycle executes one extract → infer → smooth → encode → send pass. Any
// panic inside a stage is converted to a transient error; a cycle may fail
// but must never take the daemon down.
func (a *Aura) cycle(start time.Time, snap *types.WorldSnapshot, t *stageTimings) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()

	s := time.Now()
	vec := a.extractor.Extract(snap)
	t.extract = time.Since(s)

	s = time.Now()
	frame, err := a.adapter.Infer(vec)
	t.inference = time.Since(s)
	if err != nil {
		return err
	}

	s = time.Now()
	smoothed := a.smoother.Update(frame)
	t.smoothing = time.Since(s)

	s = time.Now()
	meta := protocol.FrameMeta{
		FrameID:     a.nextFrameID(),
		TimestampMS: uint64(time.Now().UnixMilli()),
		FPS:         float32(a.window.Snapshot().FPS),
		InferenceMS: float32(t.inference.Seconds() * 1000),
		TotalMS:     float32(time.Since(start).Seconds() * 1000),
	}
	a.sink.Send(protocol.EncodeParticles(smoothed, meta))
	t.broadcast = time.Since(s)

	return nil
}

// maybeHeartbeat sends a heartbeat if one is due and returns the time of the
// last heartbeat sent.
func (a *Aura) maybeHeartbeat(last time.Time) time.Time {
	if time.Since(last) < heartbeatInterval {
		return last
	}
	a.sink.Send(protocol.EncodeHeartbeat(uint64(time.Now().UnixMilli())))
	return time.Now()
}

// logReport emits the periodic aggregated metrics line.
func (a *Aura) logReport() {
	snap := a.window.Snapshot()
	var stats emitter.Stats
	if a.emitter != nil {
		stats = a.emitter.Stats()
	}
	slog.Info("pipeline report",
		"fps", fmt.Sprintf("%.1f", snap.FPS),
		"avg_frame_ms", fmt.Sprintf("%.2f", snap.AvgFrameMS),
		"avg_inference_ms", fmt.Sprintf("%.2f", snap.AvgInferenceMS),
		"total_frames", snap.TotalFrames,
		"cycle_errors", snap.CycleErrors,
		"overruns", snap.Overruns,
		"published", stats.Published,
		"dropped", stats.Dropped,
	)
}

// paused reports whether the control plane has paused the pipeline.
func (a *Aura) paused() bool {
	return a.controlHandler != nil && a.controlHandler.IsPaused()
}

// applyPendingAlpha applies a control-plane smoothing retune between cycles.
func (a *Aura) applyPendingAlpha() {
	a.mu.Lock()
	pending := a.pendingAlpha
	a.pendingAlpha = nil
	a.mu.Unlock()

	if pending == nil {
		return
	}
	if err := a.smoother.SetAlpha(*pending); err != nil {
		slog.Error("failed to apply smoothing alpha", "alpha", *pending, "error", err)
		return
	}
	slog.Info("smoothing alpha applied", "alpha", *pending)
}

// planSleep returns the remaining frame budget. Zero or negative means the
// cycle overran and the loop proceeds immediately.
func planSleep(budget, elapsed time.Duration) time.Duration {
	return budget - elapsed
}

// sleepCtx sleeps for d or until the context ends, whichever is first.
func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
