package types

// FeatureVector is a fixed-length vector of normalized scalars in [0,1].
// Its length and segment boundaries are fixed for the lifetime of a loaded
// model. The extractor reuses one backing buffer across calls, so a vector
// is only valid until the next extraction.
type FeatureVector []float32

// ParticleFrame is a flat sequence of particle positions, three float32
// scalars (x, y, z) per particle in row-major order. Frames are per-cycle
// values: the producer hands ownership to the consumer each cycle and never
// reads the frame again.
type ParticleFrame []float32

// Count returns the number of particles in the frame.
func (f ParticleFrame) Count() int {
	return len(f) / 3
}

// QuantParams holds the affine quantization parameters for one tensor,
// supplied by the model artifact at load time and immutable afterwards.
// Real value x maps to q = round(x/Scale) + ZeroPoint.
type QuantParams struct {
	Scale     float32
	ZeroPoint int32
}
