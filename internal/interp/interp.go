// Package interp smooths successive particle frames with an exponential
// moving average so the visualization eases between states instead of
// snapping.
package interp

import (
	"fmt"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/types"
)

// Interpolator applies per-scalar exponential smoothing across frames. It is
// stateful and not safe for concurrent use; the orchestrator is its only
// caller.
type Interpolator struct {
	alpha float32

	// previous is the smoothed output of the last Update call. Nil until
	// the first frame arrives.
	previous types.ParticleFrame
	out      types.ParticleFrame
}

// New creates an interpolator. alpha must be in (0, 1]: lower values are
// smoother and slower, higher values more responsive. alpha = 1 disables
// smoothing entirely.
func New(alpha float64) (*Interpolator, error) {
	if alpha <= 0 || alpha > 1 {
		return nil, fmt.Errorf("interp: alpha must be in (0, 1], got %v", alpha)
	}
	return &Interpolator{alpha: float32(alpha)}, nil
}

// SetAlpha retunes the smoothing factor. Used by the control plane; the
// orchestrator applies it between cycles.
func (it *Interpolator) SetAlpha(alpha float64) error {
	if alpha <= 0 || alpha > 1 {
		return fmt.Errorf("interp: alpha must be in (0, 1], got %v", alpha)
	}
	it.alpha = float32(alpha)
	return nil
}

// Update returns the smoothed frame for the given input. The first call
// returns its input unchanged and seeds the history; subsequent calls blend
// smoothed[i] = alpha*current[i] + (1-alpha)*previous[i]. Fed a constant
// target the output converges geometrically with ratio (1 - alpha).
//
// The returned frame is owned by the interpolator and valid until the next
// Update call.
func (it *Interpolator) Update(current types.ParticleFrame) types.ParticleFrame {
	if it.previous == nil || len(it.previous) != len(current) {
		it.previous = append(types.ParticleFrame(nil), current...)
		return it.previous
	}

	if it.out == nil || len(it.out) != len(current) {
		it.out = make(types.ParticleFrame, len(current))
	}

	a := it.alpha
	for i, v := range current {
		it.out[i] = a*v + (1-a)*it.previous[i]
	}

	// Swap buffers: the fresh output becomes the new history, and the old
	// history is recycled as the next output buffer.
	it.previous, it.out = it.out, it.previous
	return it.previous
}

// Reset drops the smoothing history. The next Update returns its input
// unchanged.
func (it *Interpolator) Reset() {
	it.previous = nil
	it.out = nil
}
