package accel

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/types"
)

// DefaultWarmupRuns is how many throwaway invocations Prepare issues. First
// invocations on these accelerators are measurably slower while the graph
// and parameters migrate onto the device.
const DefaultWarmupRuns = 5

// Adapter owns a prepared model on a device and performs the per-cycle
// quantize → invoke → dequantize sequence. Not safe for concurrent use; the
// orchestrator thread is its only caller.
type Adapter struct {
	dev Device
	art *Artifact

	inBuf  []int8
	outBuf []int8
	frame  types.ParticleFrame
}

// Prepare loads the artifact, validates its tensor shapes against the
// configured feature length and particle count, probes and programs the
// device, and runs warm-up invocations. Any failure aborts startup: shape
// errors wrap ErrShapeMismatch and are raised before the device is ever
// invoked; a missing accelerator or artifact wraps ErrUnavailable.
func Prepare(dev Device, artifactPath string, featureLen, particleCount, warmupRuns int) (*Adapter, error) {
	art, err := LoadArtifact(artifactPath)
	if err != nil {
		return nil, err
	}

	if art.InputLen != featureLen {
		return nil, fmt.Errorf("%w: artifact input length %d, configured features %d",
			ErrShapeMismatch, art.InputLen, featureLen)
	}
	if art.OutputLen != particleCount*3 {
		return nil, fmt.Errorf("%w: artifact output length %d, configured particles %d need %d",
			ErrShapeMismatch, art.OutputLen, particleCount, particleCount*3)
	}

	if err := dev.Probe(); err != nil {
		return nil, fmt.Errorf("%w: probe: %v", ErrUnavailable, err)
	}
	if err := dev.Program(art.Graph); err != nil {
		return nil, fmt.Errorf("%w: program graph: %v", ErrUnavailable, err)
	}

	a := &Adapter{
		dev:    dev,
		art:    art,
		inBuf:  make([]int8, art.InputLen),
		outBuf: make([]int8, art.OutputLen),
		frame:  make(types.ParticleFrame, art.OutputLen),
	}

	if warmupRuns <= 0 {
		warmupRuns = DefaultWarmupRuns
	}
	start := time.Now()
	for i := 0; i < warmupRuns; i++ {
		if err := dev.Invoke(a.inBuf, a.outBuf); err != nil {
			return nil, fmt.Errorf("warm-up invocation %d: %w", i+1, err)
		}
	}
	slog.Info("model prepared",
		"input_len", art.InputLen,
		"output_len", art.OutputLen,
		"particles", art.OutputLen/3,
		"warmup_runs", warmupRuns,
		"warmup_duration", time.Since(start),
	)
	return a, nil
}

// Infer quantizes the feature vector, invokes the accelerator synchronously,
// and dequantizes the raw output into a particle frame. This is the single
// latency-dominant step of a cycle. The returned frame is the adapter's
// reused buffer, valid until the next Infer call.
func (a *Adapter) Infer(features types.FeatureVector) (types.ParticleFrame, error) {
	if len(features) != a.art.InputLen {
		return nil, fmt.Errorf("%w: got %d features, model wants %d",
			ErrShapeMismatch, len(features), a.art.InputLen)
	}

	for i, x := range features {
		a.inBuf[i] = Quantize(x, a.art.InputQ)
	}

	if err := a.dev.Invoke(a.inBuf, a.outBuf); err != nil {
		return nil, fmt.Errorf("accel: invoke: %w", err)
	}

	for i, q := range a.outBuf {
		a.frame[i] = Dequantize(q, a.art.OutputQ)
	}
	return a.frame, nil
}

// Artifact returns the loaded artifact metadata.
func (a *Adapter) Artifact() *Artifact {
	return a.art
}

// ParticleCount returns the model's output particle count.
func (a *Adapter) ParticleCount() int {
	return a.art.OutputLen / 3
}

// Close releases the device.
func (a *Adapter) Close() error {
	return a.dev.Close()
}

// Quantize maps a real value to its INT8 representation:
// q = round(x/scale + zero_point), clamped to the signed 8-bit range.
func Quantize(x float32, p types.QuantParams) int8 {
	q := int32(math.Round(float64(x)/float64(p.Scale))) + p.ZeroPoint
	if q < math.MinInt8 {
		q = math.MinInt8
	}
	if q > math.MaxInt8 {
		q = math.MaxInt8
	}
	return int8(q)
}

// Dequantize recovers the real value: x = (q - zero_point) * scale.
func Dequantize(q int8, p types.QuantParams) float32 {
	return (float32(int32(q)) - float32(p.ZeroPoint)) * p.Scale
}
