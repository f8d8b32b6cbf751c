package core

import "github.com/thotsl4yer69/sentient-aura-system-sub001/internal/types"

// The orchestrator talks to its stages through small interfaces so the loop
// can be exercised with stubbed stage timings.

// FeatureSource turns a world snapshot into a normalized feature vector.
type FeatureSource interface {
	Extract(snap *types.WorldSnapshot) types.FeatureVector
}

// Inferencer runs one prepared model invocation per cycle.
type Inferencer interface {
	Infer(features types.FeatureVector) (types.ParticleFrame, error)
	ParticleCount() int
	Close() error
}

// Smoother eases successive particle frames.
type Smoother interface {
	Update(current types.ParticleFrame) types.ParticleFrame
	SetAlpha(alpha float64) error
	Reset()
}

// Sink accepts encoded wire messages without blocking the caller.
type Sink interface {
	Send(msg []byte)
	IsConnected() bool
}
