package accel

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/types"
)

// recordingDevice counts driver calls and can simulate absence.
type recordingDevice struct {
	probes   int
	programs int
	invokes  int
	probeErr error
}

func (d *recordingDevice) Probe() error {
	d.probes++
	return d.probeErr
}

func (d *recordingDevice) Program(graph []byte) error {
	d.programs++
	return nil
}

func (d *recordingDevice) Invoke(input, output []int8) error {
	d.invokes++
	return nil
}

func (d *recordingDevice) Close() error { return nil }

func writeArtifact(t *testing.T, art *Artifact) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.aura")
	if err := os.WriteFile(path, EncodeArtifact(art), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}
	return path
}

func standardArtifact() *Artifact {
	return &Artifact{
		InputLen:  68,
		OutputLen: 300, // 100 particles
		InputQ:    types.QuantParams{Scale: 1.0 / 255, ZeroPoint: -128},
		OutputQ:   types.QuantParams{Scale: 0.05, ZeroPoint: 0},
		Graph:     []byte{0xde, 0xad, 0xbe, 0xef},
	}
}

// TestQuantizeRoundTrip verifies dequantize(quantize(x)) recovers x within
// one quantization step across the representable range.
func TestQuantizeRoundTrip(t *testing.T) {
	params := []types.QuantParams{
		{Scale: 1.0 / 255, ZeroPoint: -128}, // [0,1] input tensor
		{Scale: 0.05, ZeroPoint: 0},         // symmetric output tensor
		{Scale: 0.1, ZeroPoint: 10},
	}

	for _, p := range params {
		lo := Dequantize(math.MinInt8, p)
		hi := Dequantize(math.MaxInt8, p)

		for i := 0; i <= 1000; i++ {
			x := lo + (hi-lo)*float32(i)/1000
			recovered := Dequantize(Quantize(x, p), p)
			if diff := math.Abs(float64(recovered - x)); diff > float64(p.Scale) {
				t.Fatalf("params %+v: x=%v recovered=%v, off by %v > scale %v",
					p, x, recovered, diff, p.Scale)
			}
		}
	}
}

// TestQuantizeClamps verifies values beyond the representable range pin to
// the int8 extremes instead of wrapping.
func TestQuantizeClamps(t *testing.T) {
	p := types.QuantParams{Scale: 1.0 / 255, ZeroPoint: -128}

	if q := Quantize(50, p); q != math.MaxInt8 {
		t.Errorf("Quantize(50) = %d, want %d", q, math.MaxInt8)
	}
	if q := Quantize(-50, p); q != math.MinInt8 {
		t.Errorf("Quantize(-50) = %d, want %d", q, math.MinInt8)
	}
}

// TestPrepareShapeMismatch verifies shape validation fails fast and never
// touches the device.
func TestPrepareShapeMismatch(t *testing.T) {
	path := writeArtifact(t, standardArtifact())

	cases := []struct {
		name      string
		features  int
		particles int
	}{
		{"wrong input", 120, 100},
		{"wrong output", 68, 128},
	}

	for _, tc := range cases {
		dev := &recordingDevice{}
		_, err := Prepare(dev, path, tc.features, tc.particles, 1)
		if !errors.Is(err, ErrShapeMismatch) {
			t.Errorf("%s: got %v, want ErrShapeMismatch", tc.name, err)
		}
		if dev.probes != 0 || dev.programs != 0 || dev.invokes != 0 {
			t.Errorf("%s: device touched before shape validation (%d/%d/%d)",
				tc.name, dev.probes, dev.programs, dev.invokes)
		}
	}
}

// TestPrepareUnavailable verifies both missing-artifact and absent-device
// failures surface as ErrUnavailable.
func TestPrepareUnavailable(t *testing.T) {
	dev := &recordingDevice{}
	if _, err := Prepare(dev, "/nonexistent/model.aura", 68, 100, 1); !errors.Is(err, ErrUnavailable) {
		t.Errorf("missing artifact: got %v, want ErrUnavailable", err)
	}

	path := writeArtifact(t, standardArtifact())
	absent := &recordingDevice{probeErr: errors.New("no device at /dev/apex_0")}
	if _, err := Prepare(absent, path, 68, 100, 1); !errors.Is(err, ErrUnavailable) {
		t.Errorf("absent device: got %v, want ErrUnavailable", err)
	}
	if absent.programs != 0 {
		t.Error("device programmed despite failed probe")
	}
}

// TestPrepareWarmup verifies the configured number of throwaway invocations.
func TestPrepareWarmup(t *testing.T) {
	path := writeArtifact(t, standardArtifact())

	dev := NewSimDevice()
	if _, err := Prepare(dev, path, 68, 100, 5); err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	if dev.Invocations() != 5 {
		t.Errorf("warm-up ran %d invocations, want 5", dev.Invocations())
	}
}

// TestInferDeterministic verifies identical feature vectors produce
// identical frames through the simulator.
func TestInferDeterministic(t *testing.T) {
	path := writeArtifact(t, standardArtifact())
	adapter, err := Prepare(NewSimDevice(), path, 68, 100, 1)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	features := make(types.FeatureVector, 68)
	for i := range features {
		features[i] = float32(i) / 68
	}

	first, err := adapter.Infer(features)
	if err != nil {
		t.Fatalf("Infer failed: %v", err)
	}
	if first.Count() != 100 {
		t.Fatalf("frame has %d particles, want 100", first.Count())
	}
	snapshot := append(types.ParticleFrame(nil), first...)

	second, err := adapter.Infer(features)
	if err != nil {
		t.Fatalf("second Infer failed: %v", err)
	}
	for i := range snapshot {
		if second[i] != snapshot[i] {
			t.Fatalf("scalar %d differs across identical inferences", i)
		}
	}
}

// TestInferWrongLength verifies a mis-sized vector is rejected before the
// device sees it.
func TestInferWrongLength(t *testing.T) {
	path := writeArtifact(t, standardArtifact())
	adapter, err := Prepare(NewSimDevice(), path, 68, 100, 1)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}

	if _, err := adapter.Infer(make(types.FeatureVector, 67)); !errors.Is(err, ErrShapeMismatch) {
		t.Errorf("got %v, want ErrShapeMismatch", err)
	}
}

// TestArtifactParseErrors verifies malformed artifacts are rejected with
// ErrBadArtifact.
func TestArtifactParseErrors(t *testing.T) {
	good := EncodeArtifact(standardArtifact())

	mutate := func(f func(b []byte)) []byte {
		b := append([]byte(nil), good...)
		f(b)
		return b
	}

	cases := []struct {
		name string
		data []byte
	}{
		{"truncated header", good[:20]},
		{"bad magic", mutate(func(b []byte) { b[0] = 'X' })},
		{"bad version", mutate(func(b []byte) { b[4] = 9 })},
		{"graph length mismatch", good[:len(good)-1]},
		{"zero input scale", mutate(func(b []byte) { b[16], b[17], b[18], b[19] = 0, 0, 0, 0 })},
	}

	for _, tc := range cases {
		if _, err := ParseArtifact(tc.data); !errors.Is(err, ErrBadArtifact) {
			t.Errorf("%s: got %v, want ErrBadArtifact", tc.name, err)
		}
	}
}
