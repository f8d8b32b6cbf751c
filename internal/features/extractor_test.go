package features

import (
	"math"
	"testing"
	"time"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/types"
)

// fakeSampler counts calls and returns fixed loads.
type fakeSampler struct {
	calls int
	cpu   float64
	mem   float64
}

func (f *fakeSampler) Sample() (float64, float64, error) {
	f.calls++
	return f.cpu, f.mem, nil
}

// fakeClock is a manually advanced wall clock.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestExtractor(layout Layout, sampler SysSampler, clock *fakeClock) *Extractor {
	return New(layout,
		WithSampler(sampler),
		WithClock(clock.now),
	)
}

// TestLayoutContiguity verifies both profiles tile their full range with
// named segments.
func TestLayoutContiguity(t *testing.T) {
	cases := []struct {
		name   string
		layout Layout
		length int
	}{
		{"standard", StandardLayout(), 68},
		{"extended", ExtendedLayout(), 120},
	}

	for _, tc := range cases {
		if err := tc.layout.Validate(); err != nil {
			t.Errorf("%s: validation failed: %v", tc.name, err)
		}
		if tc.layout.Length != tc.length {
			t.Errorf("%s: length %d, want %d", tc.name, tc.layout.Length, tc.length)
		}
	}
}

// TestLayoutByName resolves configured profile names.
func TestLayoutByName(t *testing.T) {
	if l, err := LayoutByName(""); err != nil || l.Name != "standard" {
		t.Errorf("empty name: got %q, %v", l.Name, err)
	}
	if l, err := LayoutByName("extended"); err != nil || l.Length != 120 {
		t.Errorf("extended: got length %d, %v", l.Length, err)
	}
	if _, err := LayoutByName("mega"); err == nil {
		t.Error("unknown profile accepted")
	}
}

// extremeSnapshot returns a snapshot with wildly out-of-range sensor
// readings in every section.
func extremeSnapshot() *types.WorldSnapshot {
	snap := &types.WorldSnapshot{}
	snap.Cognitive = types.CognitiveState{
		Mode: "transcendent", Arousal: 99, Valence: -37, Attention: -1,
		Novelty: 2, Confidence: 1e9, SocialDrive: -5, Fatigue: 3,
	}
	snap.Environment = types.EnvironmentState{
		TemperatureC: 999, Humidity: 500, PressureHPa: 2, LightLux: -40,
		NoiseFloorDB: 1e6, MotionLevel: -9, AirQualityIndex: 99999, UptimeHours: -3,
	}
	for i := range snap.RF.Bands {
		snap.RF.Bands[i] = 500
	}
	snap.RF.WifiAPCount = -3
	snap.RF.StrongestRSSI = 40
	snap.RF.ChannelUtilization = 77
	snap.Vision = types.VisionState{
		PersonCount: -1, FaceCount: 9000, MotionLevel: math.Inf(1),
		Brightness: -2, CameraFPS: 100000,
	}
	snap.Audio = types.AudioState{RMSLevel: 88, PitchHz: -200, OnsetRate: 1e6}
	snap.Interaction = types.InteractionState{
		ActiveConversations: -2, MessagesPerMinute: 1e9,
		LastInteractionS: -100, Sentiment: -40,
	}
	snap.Network = types.NetworkState{TxKBps: -1, LatencyMS: 1e7, PacketLossPct: 300}
	snap.System = types.SystemState{DiskUsagePct: 400, CPUTempC: -40}
	snap.Security = types.SecurityState{AuthFailures: -3, AnomalyScore: 9}
	for i := range snap.Peripheral.ThermalZones {
		snap.Peripheral.ThermalZones[i] = 9999
	}
	snap.Peripheral.Power = types.PowerState{BatteryPct: -40, VoltageV: 900}
	return snap
}

// TestFeatureBounds verifies every extracted element is in [0,1] for both
// an empty snapshot and one full of out-of-range readings.
func TestFeatureBounds(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 8, 23, 14, 30, 0, 0, time.UTC)}

	for _, layout := range []Layout{StandardLayout(), ExtendedLayout()} {
		for name, snap := range map[string]*types.WorldSnapshot{
			"empty":   {},
			"extreme": extremeSnapshot(),
		} {
			e := newTestExtractor(layout, &fakeSampler{cpu: 2.5, mem: -0.3}, clock)
			vec := e.Extract(snap)

			if len(vec) != layout.Length {
				t.Fatalf("%s/%s: length %d, want %d", layout.Name, name, len(vec), layout.Length)
			}
			for i, v := range vec {
				if v < 0 || v > 1 || math.IsNaN(float64(v)) {
					t.Errorf("%s/%s: feature %d = %v, out of [0,1]", layout.Name, name, i, v)
				}
			}
		}
	}
}

// TestCognitiveModeLookup verifies categorical mapping with explicit default.
func TestCognitiveModeLookup(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	e := newTestExtractor(StandardLayout(), &fakeSampler{}, clock)

	alert := e.Extract(&types.WorldSnapshot{Cognitive: types.CognitiveState{Mode: "alert"}})[0]
	if alert != 1 {
		t.Errorf("alert mode = %v, want 1", alert)
	}

	unknown := e.Extract(&types.WorldSnapshot{Cognitive: types.CognitiveState{Mode: "???"}})[0]
	if unknown != cognitiveModeDefault {
		t.Errorf("unknown mode = %v, want default %v", unknown, cognitiveModeDefault)
	}
}

// TestTemperatureClampAndScale pins the 0-40°C linear mapping.
func TestTemperatureClampAndScale(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	e := newTestExtractor(StandardLayout(), &fakeSampler{}, clock)

	cases := []struct {
		tempC float64
		want  float32
	}{
		{-10, 0},
		{0, 0},
		{20, 0.5},
		{40, 1},
		{999, 1}, // clamped, never propagated
	}
	for _, tc := range cases {
		snap := &types.WorldSnapshot{}
		snap.Environment.TemperatureC = tc.tempC
		got := e.Extract(snap)[8] // first environment feature
		if got != tc.want {
			t.Errorf("temp %v°C → %v, want %v", tc.tempC, got, tc.want)
		}
	}
}

// TestSysLoadCache verifies the expensive sampler is consulted once per TTL.
func TestSysLoadCache(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	sampler := &fakeSampler{cpu: 0.5, mem: 0.25}
	e := newTestExtractor(StandardLayout(), sampler, clock)

	snap := &types.WorldSnapshot{}

	// Three extractions inside one TTL: one sample.
	e.Extract(snap)
	clock.advance(10 * time.Millisecond)
	e.Extract(snap)
	clock.advance(10 * time.Millisecond)
	vec := e.Extract(snap)

	if sampler.calls != 1 {
		t.Errorf("sampler called %d times within TTL, want 1", sampler.calls)
	}
	if vec[59] != 0.5 || vec[60] != 0.25 {
		t.Errorf("system features = %v %v, want 0.5 0.25", vec[59], vec[60])
	}

	// Crossing the TTL refreshes.
	clock.advance(DefaultCacheTTL)
	e.Extract(snap)
	if sampler.calls != 2 {
		t.Errorf("sampler called %d times after TTL, want 2", sampler.calls)
	}
}

// TestBufferReuse verifies the hot path reuses one output buffer.
func TestBufferReuse(t *testing.T) {
	clock := &fakeClock{t: time.Now()}
	e := newTestExtractor(StandardLayout(), &fakeSampler{}, clock)

	a := e.Extract(&types.WorldSnapshot{})
	b := e.Extract(&types.WorldSnapshot{})

	if &a[0] != &b[0] {
		t.Error("extractor allocated a new buffer per call")
	}
}

// TestClampNamesIndices verifies the safety-net clamp catches a broken fill
// function and fixes the vector in place.
func TestClampNamesIndices(t *testing.T) {
	layout := Layout{
		Name:   "broken",
		Length: 3,
		Segments: []Segment{
			{Name: "bad", Start: 0, End: 3, fill: func(e *Extractor, s *types.WorldSnapshot, out []float32) {
				out[0] = 2
				out[1] = -0.5
				out[2] = float32(math.NaN())
			}},
		},
	}
	if err := layout.Validate(); err != nil {
		t.Fatalf("layout invalid: %v", err)
	}

	e := New(layout, WithSampler(&fakeSampler{}))
	vec := e.Extract(&types.WorldSnapshot{})

	if vec[0] != 1 || vec[1] != 0 || vec[2] != 0 {
		t.Errorf("clamped vector = %v, want [1 0 0]", vec)
	}
}

// TestTimeOfDayCircle verifies the two clock features are antipodal across
// twelve hours.
func TestTimeOfDayCircle(t *testing.T) {
	noon := &fakeClock{t: time.Date(2026, 8, 23, 12, 0, 0, 0, time.UTC)}
	midnight := &fakeClock{t: time.Date(2026, 8, 23, 0, 0, 0, 0, time.UTC)}

	vNoon := newTestExtractor(StandardLayout(), &fakeSampler{}, noon).Extract(&types.WorldSnapshot{})
	vMid := newTestExtractor(StandardLayout(), &fakeSampler{}, midnight).Extract(&types.WorldSnapshot{})

	// cos feature: midnight → 1, noon → 0.
	if math.Abs(float64(vMid[17])-1) > 1e-6 {
		t.Errorf("midnight cos feature = %v, want 1", vMid[17])
	}
	if math.Abs(float64(vNoon[17])) > 1e-6 {
		t.Errorf("noon cos feature = %v, want 0", vNoon[17])
	}
}
