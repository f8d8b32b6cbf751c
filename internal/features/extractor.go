// Package features turns a world snapshot into the fixed-length normalized
// feature vector the model consumes.
//
// Every segment mapping is a pure function of the snapshot except the system
// segment, whose CPU and memory gauges are expensive to read and therefore
// cached behind a short TTL. The whole extraction has to finish in a small
// fraction of the frame budget, so the extractor reuses one output buffer
// across calls and allocates nothing on the hot path.
package features

import (
	"log/slog"
	"math"
	"time"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/types"
)

// DefaultCacheTTL is how long a CPU/memory sample stays fresh.
const DefaultCacheTTL = 100 * time.Millisecond

// Extractor assembles feature vectors for one layout. Not safe for
// concurrent use; the orchestrator thread is its only caller.
type Extractor struct {
	layout   Layout
	sampler  SysSampler
	cacheTTL time.Duration
	now      func() time.Time

	buf types.FeatureVector

	// cached system load sample
	sampledAt time.Time
	cpuLoad   float64
	memLoad   float64

	clampScratch []int
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithSampler replaces the /proc-backed system sampler. Tests use this to
// count sampler calls and to feed synthetic loads.
func WithSampler(s SysSampler) Option {
	return func(e *Extractor) { e.sampler = s }
}

// WithCacheTTL overrides the system-load cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(e *Extractor) { e.cacheTTL = ttl }
}

// WithClock overrides the wall clock used for time-of-day features.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) { e.now = now }
}

// New creates an extractor for the given layout. The layout must already be
// validated.
func New(layout Layout, opts ...Option) *Extractor {
	e := &Extractor{
		layout:   layout,
		sampler:  NewProcSampler(),
		cacheTTL: DefaultCacheTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Layout returns the extractor's layout.
func (e *Extractor) Layout() Layout {
	return e.layout
}

// Extract produces the feature vector for the snapshot. Missing snapshot
// sections stay at their zero values and map through the same normalizers
// as real readings. The returned vector is the extractor's reused buffer,
// valid until the next Extract call.
func (e *Extractor) Extract(snap *types.WorldSnapshot) types.FeatureVector {
	if e.buf == nil {
		e.buf = make(types.FeatureVector, e.layout.Length)
	}

	for i := range e.layout.Segments {
		seg := &e.layout.Segments[i]
		seg.fill(e, snap, e.buf[seg.Start:seg.End])
	}

	e.clampVector()
	return e.buf
}

// clampVector forces every element into [0,1] and logs the offending
// indices. Out-of-range values are tolerated rather than rejected: noisy
// sensors are a fact of life and the visualization must keep moving.
func (e *Extractor) clampVector() {
	e.clampScratch = e.clampScratch[:0]
	for i, v := range e.buf {
		if v >= 0 && v <= 1 {
			continue
		}
		e.clampScratch = append(e.clampScratch, i)
		switch {
		case math.IsNaN(float64(v)):
			e.buf[i] = 0
		case v < 0:
			e.buf[i] = 0
		default:
			e.buf[i] = 1
		}
	}
	if len(e.clampScratch) > 0 {
		slog.Warn("feature values out of range, clamped",
			"indices", e.clampScratch,
			"layout", e.layout.Name,
		)
	}
}

// sysLoad returns the cached CPU and memory load, refreshing when the TTL
// has lapsed.
func (e *Extractor) sysLoad() (cpu, mem float64) {
	now := e.now()
	if e.sampledAt.IsZero() || now.Sub(e.sampledAt) >= e.cacheTTL {
		cpu, mem, err := e.sampler.Sample()
		if err != nil {
			slog.Debug("system load sample failed", "error", err)
		} else {
			e.cpuLoad, e.memLoad = cpu, mem
		}
		e.sampledAt = now
	}
	return e.cpuLoad, e.memLoad
}
