// Package core contains the pipeline orchestrator: the state machine that
// initializes the accelerator, runs the fixed-rate cycle loop, answers
// health checks, and degrades cleanly when the hardware is absent.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/accel"
	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/config"
	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/control"
	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/emitter"
	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/features"
	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/interp"
	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/metrics"
	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/protocol"
	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/snapshot"
	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/types"
)

// Aura is the pipeline orchestrator.
type Aura struct {
	cfg    *config.Config
	layout features.Layout

	// Pipeline stages. All of them run on the single loop goroutine.
	extractor FeatureSource
	adapter   Inferencer
	smoother  Smoother
	window    *metrics.Window
	provider  snapshot.Provider
	sink      Sink

	// Concrete transport components, owned for lifecycle and health.
	emitter        *emitter.Emitter
	mqttProvider   *snapshot.MQTTProvider
	controlHandler *control.Handler

	started time.Time
	frameID uint32

	mu             sync.RWMutex
	state          types.PipelineState
	degradedReason string
	pendingAlpha   *float64
	isRunning      bool
	cancelRun      context.CancelFunc
}

// New builds the orchestrator from configuration. The accelerator is not
// touched until Run; construction only fails on configuration problems.
func New(cfg *config.Config) (*Aura, error) {
	layout, err := features.LayoutByName(cfg.Features.Profile)
	if err != nil {
		return nil, fmt.Errorf("feature layout: %w", err)
	}

	smoother, err := interp.New(cfg.Interpolation.Alpha)
	if err != nil {
		return nil, err
	}

	em := emitter.New(cfg)

	a := &Aura{
		cfg:    cfg,
		layout: layout,
		extractor: features.New(layout,
			features.WithCacheTTL(time.Duration(cfg.Features.CacheTTLMS)*time.Millisecond)),
		smoother: smoother,
		window:   metrics.NewWindow(cfg.Metrics.Window),
		emitter:  em,
		sink:     em,
		state:    types.StateInitializing,
	}
	return a, nil
}

// Run initializes the pipeline and blocks in the cycle loop until the
// context is cancelled or initialization fails. An initialization failure
// transitions to degraded mode and returns a structured reason; the caller
// is expected to start the configured fallback path.
func (a *Aura) Run(ctx context.Context) error {
	a.mu.Lock()
	if a.isRunning {
		a.mu.Unlock()
		return fmt.Errorf("pipeline is already running")
	}
	a.isRunning = true
	a.started = time.Now()
	a.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	a.mu.Lock()
	a.cancelRun = cancel // for the MQTT shutdown command
	a.mu.Unlock()

	slog.Info("aura pipeline starting",
		"instance_id", a.cfg.InstanceID,
		"profile", a.layout.Name,
		"features", a.layout.Length,
		"particles", a.cfg.Model.ParticleCount,
		"target_fps", a.cfg.TargetFPS,
	)

	if err := a.initialize(ctx); err != nil {
		a.enterDegraded(err)
		return fmt.Errorf("degraded (%s): fallback %q should take over: %w",
			a.DegradedReason(), a.cfg.FallbackMode, err)
	}

	a.setState(types.StateRunning)
	slog.Info("aura pipeline running",
		"frame_budget", a.cfg.FrameBudget(),
		"snapshot_source", a.cfg.SnapshotSource,
	)

	a.loop(ctx)

	slog.Info("aura pipeline loop exiting")
	return nil
}

// initialize probes the accelerator, prepares the model, connects the
// transport, and wires the telemetry and control planes. Any failure here
// is fatal for the run.
func (a *Aura) initialize(ctx context.Context) error {
	var dev accel.Device
	if a.cfg.Model.DevicePath == "" {
		dev = accel.NewSimDevice()
		slog.Info("using simulated accelerator (no device_path configured)")
	} else {
		dev = accel.OpenNode(a.cfg.Model.DevicePath)
		slog.Info("using accelerator device node", "path", a.cfg.Model.DevicePath)
	}

	adapter, err := accel.Prepare(dev, a.cfg.Model.ArtifactPath,
		a.layout.Length, a.cfg.Model.ParticleCount, a.cfg.Model.WarmupRuns)
	if err != nil {
		return err
	}
	// The health server reads adapter concurrently; publish it under the
	// lock. The loop goroutine reads it unlocked, which is safe: it only
	// starts after initialize returns on the same goroutine.
	a.mu.Lock()
	a.adapter = adapter
	a.mu.Unlock()

	desc, err := protocol.EncodeMetadata(uint64(time.Now().UnixMilli()), a.descriptor())
	if err != nil {
		return err
	}
	a.emitter.SetDescriptor(desc)

	if err := a.emitter.Connect(ctx); err != nil {
		return fmt.Errorf("connect transport: %w", err)
	}

	if a.cfg.SnapshotSource == "static" {
		a.provider = snapshot.NewStaticProvider()
	} else {
		a.mqttProvider = snapshot.NewMQTTProvider(a.cfg, a.emitter.Client)
		if err := a.mqttProvider.Start(); err != nil {
			return err
		}
		a.provider = a.mqttProvider
	}

	a.controlHandler = control.NewHandler(a.cfg, a.emitter.Client, control.Callbacks{
		OnGetStatus: a.getStatus,
		OnPause:     a.pausePipeline,
		OnResume:    a.resumePipeline,
		OnSetAlpha:  a.setAlpha,
		OnShutdown:  a.shutdownViaControl,
	})
	if err := a.controlHandler.Start(ctx); err != nil {
		return err
	}

	return nil
}

// descriptor builds the stream descriptor announced to viewers.
func (a *Aura) descriptor() protocol.StreamDescriptor {
	segs := a.layout.SegmentInfos()
	infos := make([]protocol.SegmentInfo, len(segs))
	for i, s := range segs {
		infos[i] = protocol.SegmentInfo{Name: s.Name, Start: s.Start, End: s.End}
	}
	return protocol.StreamDescriptor{
		InstanceID:    a.cfg.InstanceID,
		ParticleCount: a.cfg.Model.ParticleCount,
		FeatureCount:  a.layout.Length,
		TargetFPS:     a.cfg.TargetFPS,
		Segments:      infos,
	}
}

// Shutdown performs the graceful teardown sequence.
func (a *Aura) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	if !a.isRunning {
		a.mu.Unlock()
		return nil
	}
	a.mu.Unlock()

	slog.Info("shutting down aura pipeline")

	// Teardown order: control plane first (no new commands), then telemetry
	// intake, then the accelerator, then the transport.
	if a.controlHandler != nil {
		if err := a.controlHandler.Stop(); err != nil {
			slog.Error("failed to stop control handler", "error", err)
		}
	}
	if a.mqttProvider != nil {
		if err := a.mqttProvider.Stop(); err != nil {
			slog.Error("failed to stop telemetry provider", "error", err)
		}
	}
	if a.adapter != nil {
		if err := a.adapter.Close(); err != nil {
			slog.Error("failed to close accelerator", "error", err)
		}
	}
	if a.emitter != nil {
		if err := a.emitter.Disconnect(); err != nil {
			slog.Error("failed to disconnect mqtt", "error", err)
		}
	}

	a.mu.Lock()
	uptime := time.Since(a.started)
	a.isRunning = false
	a.mu.Unlock()

	slog.Info("aura pipeline shutdown complete", "uptime", uptime)
	return nil
}

// State returns the current pipeline state.
func (a *Aura) State() types.PipelineState {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// DegradedReason returns why the pipeline degraded, empty otherwise.
func (a *Aura) DegradedReason() string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.degradedReason
}

func (a *Aura) setState(s types.PipelineState) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// enterDegraded records the terminal degraded state and its reason.
func (a *Aura) enterDegraded(cause error) {
	a.mu.Lock()
	a.state = types.StateDegraded
	a.degradedReason = cause.Error()
	a.mu.Unlock()

	slog.Error("pipeline degraded, not starting",
		"reason", cause.Error(),
		"fallback_mode", a.cfg.FallbackMode,
	)
}

// nextFrameID returns the monotonically increasing frame id. Only the loop
// goroutine calls it.
func (a *Aura) nextFrameID() uint32 {
	a.frameID++
	return a.frameID
}
