package interp

import (
	"math"
	"testing"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/types"
)

func constantFrame(n int, v float32) types.ParticleFrame {
	frame := make(types.ParticleFrame, n*3)
	for i := range frame {
		frame[i] = v
	}
	return frame
}

// TestAlphaValidation verifies constructor bounds on the smoothing factor.
func TestAlphaValidation(t *testing.T) {
	for _, alpha := range []float64{-0.1, 0, 1.0001, 2} {
		if _, err := New(alpha); err == nil {
			t.Errorf("New(%v) accepted out-of-range alpha", alpha)
		}
	}
	for _, alpha := range []float64{0.001, 0.3, 1} {
		if _, err := New(alpha); err != nil {
			t.Errorf("New(%v) rejected valid alpha: %v", alpha, err)
		}
	}
}

// TestFirstFrameIdentity verifies the very first update returns its input
// unchanged.
func TestFirstFrameIdentity(t *testing.T) {
	it, _ := New(0.3)

	input := types.ParticleFrame{1.5, -2.25, 3.75, 0, 100, -100}
	got := it.Update(input)

	if len(got) != len(input) {
		t.Fatalf("length %d, want %d", len(got), len(input))
	}
	for i := range input {
		if got[i] != input[i] {
			t.Errorf("scalar %d = %v, want %v", i, got[i], input[i])
		}
	}
}

// TestConvergence feeds a constant target from a zero-initialized state and
// checks geometric convergence with ratio (1 - alpha).
func TestConvergence(t *testing.T) {
	const alpha = 0.3
	it, _ := New(alpha)

	zero := constantFrame(10, 0)
	target := constantFrame(10, 1)

	it.Update(zero)

	// (1-alpha)^n drops below 1e-4 at n = 26 for alpha = 0.3.
	steps := 0
	for math.Pow(1-alpha, float64(steps)) >= 1e-4 {
		steps++
	}

	var got types.ParticleFrame
	for i := 0; i < steps; i++ {
		got = it.Update(target)
	}

	for i := range got {
		if diff := math.Abs(float64(got[i] - 1)); diff > 1e-4 {
			t.Fatalf("scalar %d after %d steps: off target by %v", i, steps, diff)
		}
	}
}

// TestSingleStepBlend pins the blend arithmetic for one step.
func TestSingleStepBlend(t *testing.T) {
	it, _ := New(0.25)

	it.Update(types.ParticleFrame{0, 4})
	got := it.Update(types.ParticleFrame{8, 0})

	// 0.25*8 + 0.75*0 = 2 ; 0.25*0 + 0.75*4 = 3
	if got[0] != 2 || got[1] != 3 {
		t.Errorf("blend = %v, want [2 3]", got)
	}
}

// TestAlphaOnePassthrough verifies alpha = 1 disables smoothing.
func TestAlphaOnePassthrough(t *testing.T) {
	it, _ := New(1)

	it.Update(types.ParticleFrame{5, 5, 5})
	got := it.Update(types.ParticleFrame{-1, 0, 1})

	want := types.ParticleFrame{-1, 0, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("scalar %d = %v, want %v", i, got[i], want[i])
		}
	}
}

// TestResetDropsHistory verifies Reset makes the next frame pass through.
func TestResetDropsHistory(t *testing.T) {
	it, _ := New(0.3)

	it.Update(constantFrame(2, 10))
	it.Reset()

	got := it.Update(constantFrame(2, 1))
	for i := range got {
		if got[i] != 1 {
			t.Errorf("scalar %d after reset = %v, want 1", i, got[i])
		}
	}
}

// TestFrameSizeChange verifies a changed particle count reseeds instead of
// blending mismatched buffers.
func TestFrameSizeChange(t *testing.T) {
	it, _ := New(0.3)

	it.Update(constantFrame(4, 9))
	got := it.Update(constantFrame(2, 1))

	if len(got) != 6 {
		t.Fatalf("length %d, want 6", len(got))
	}
	for i := range got {
		if got[i] != 1 {
			t.Errorf("scalar %d = %v, want 1 (identity after reseed)", i, got[i])
		}
	}
}

// TestSetAlpha verifies live retuning validates its input.
func TestSetAlpha(t *testing.T) {
	it, _ := New(0.3)

	if err := it.SetAlpha(0); err == nil {
		t.Error("SetAlpha(0) accepted")
	}
	if err := it.SetAlpha(0.9); err != nil {
		t.Errorf("SetAlpha(0.9) rejected: %v", err)
	}
}
