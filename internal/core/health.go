package core

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/metrics"
	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/types"
)

// Check results. A warn does not make the service unready; a fail does.
const (
	CheckPass = "pass"
	CheckWarn = "warn"
	CheckFail = "fail"
)

// HealthStatus is the aggregated health record external monitoring consumes.
type HealthStatus struct {
	Status         string            `json:"status"` // "healthy", "degraded", "unhealthy"
	State          string            `json:"state"`
	UptimeSeconds  int64             `json:"uptime_seconds"`
	Checks         map[string]string `json:"checks"`
	Metrics        metrics.Snapshot  `json:"metrics"`
	FallbackMode   string            `json:"fallback_mode,omitempty"`
	DegradedReason string            `json:"degraded_reason,omitempty"`
}

// HealthCheck evaluates the four pipeline checks: accelerator prepared,
// model artifact present, measured frame rate at least 80% of target, and
// transport sink connectivity.
func (a *Aura) HealthCheck() HealthStatus {
	snap := a.window.Snapshot()

	// HealthCheck runs on the HTTP server goroutine while Run writes these
	// fields; snapshot them under the lock so the read is tear-free.
	a.mu.RLock()
	state := a.state
	started := a.started
	prepared := a.adapter != nil
	degradedReason := a.degradedReason
	a.mu.RUnlock()

	status := HealthStatus{
		Status:        "healthy",
		State:         state.String(),
		UptimeSeconds: int64(time.Since(started).Seconds()),
		Checks:        make(map[string]string, 4),
		Metrics:       snap,
	}

	if prepared {
		status.Checks["accelerator"] = CheckPass
	} else {
		status.Checks["accelerator"] = CheckFail
	}

	if _, err := os.Stat(a.cfg.Model.ArtifactPath); err == nil {
		status.Checks["artifact"] = CheckPass
	} else {
		status.Checks["artifact"] = CheckFail
	}

	// Frame rate only means something once the window has samples; an
	// empty window right after startup is a warn, not a failure.
	switch {
	case snap.WindowSize == 0:
		status.Checks["frame_rate"] = CheckWarn
	case snap.FPS >= 0.8*float64(a.cfg.TargetFPS):
		status.Checks["frame_rate"] = CheckPass
	default:
		status.Checks["frame_rate"] = CheckFail
	}

	if a.sink != nil && a.sink.IsConnected() {
		status.Checks["sink"] = CheckPass
	} else {
		status.Checks["sink"] = CheckFail
	}

	for _, result := range status.Checks {
		switch result {
		case CheckFail:
			status.Status = "unhealthy"
		case CheckWarn:
			if status.Status == "healthy" {
				status.Status = "degraded"
			}
		}
	}

	if state == types.StateDegraded {
		status.Status = "unhealthy"
		status.FallbackMode = a.cfg.FallbackMode
		status.DegradedReason = degradedReason
	}

	return status
}

// LivenessHandler handles /health: returns 200 whenever the process is
// alive.
func (a *Aura) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	a.mu.RLock()
	started := a.started
	a.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "alive",
		"uptime": int64(time.Since(started).Seconds()),
	})
}

// ReadinessHandler handles /readiness: 200 while the pipeline can serve
// frames, 503 once any check fails.
func (a *Aura) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := a.HealthCheck()
	statusCode := http.StatusOK
	if health.Status == "unhealthy" {
		statusCode = http.StatusServiceUnavailable
	}

	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(health)
}

// MetricsHandler handles /metrics with a plain-text snapshot.
func (a *Aura) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	snap := a.window.Snapshot()
	a.mu.RLock()
	started := a.started
	a.mu.RUnlock()

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "aura_fps %.2f\n", snap.FPS)
	fmt.Fprintf(w, "aura_avg_frame_ms %.3f\n", snap.AvgFrameMS)
	fmt.Fprintf(w, "aura_avg_inference_ms %.3f\n", snap.AvgInferenceMS)
	fmt.Fprintf(w, "aura_total_frames %d\n", snap.TotalFrames)
	fmt.Fprintf(w, "aura_cycle_errors %d\n", snap.CycleErrors)
	fmt.Fprintf(w, "aura_overruns %d\n", snap.Overruns)
	fmt.Fprintf(w, "aura_uptime_seconds %d\n", int64(time.Since(started).Seconds()))
}

// StartHealthServer starts the HTTP health server on the given port. It
// returns immediately; the server runs on its own goroutine.
func (a *Aura) StartHealthServer(port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", a.LivenessHandler)
	mux.HandleFunc("/readiness", a.ReadinessHandler)
	mux.HandleFunc("/metrics", a.MetricsHandler)

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	slog.Info("starting health check server",
		"port", port,
		"endpoints", []string{"/health", "/readiness", "/metrics"},
	)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("health check server failed", "error", err)
		}
	}()

	return nil
}
