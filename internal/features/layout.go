package features

import (
	"fmt"
	"math"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/types"
)

// Segment is one named, index-contiguous slice of the feature vector. The
// fill function writes exactly End-Start normalized scalars computed from
// the snapshot. All index mapping lives in the layout tables below; nothing
// else in the pipeline hardcodes feature positions.
type Segment struct {
	Name  string
	Start int
	End   int

	fill func(e *Extractor, snap *types.WorldSnapshot, out []float32)
}

// Layout is an ordered set of segments covering [0, Length) without gaps.
type Layout struct {
	Name     string
	Length   int
	Segments []Segment
}

// Validate checks the segments tile [0, Length) contiguously. Run once at
// startup; a broken table is a programming error, not a runtime condition.
func (l Layout) Validate() error {
	next := 0
	for _, seg := range l.Segments {
		if seg.Start != next {
			return fmt.Errorf("features: segment %q starts at %d, want %d", seg.Name, seg.Start, next)
		}
		if seg.End <= seg.Start {
			return fmt.Errorf("features: segment %q is empty", seg.Name)
		}
		if seg.fill == nil {
			return fmt.Errorf("features: segment %q has no fill function", seg.Name)
		}
		next = seg.End
	}
	if next != l.Length {
		return fmt.Errorf("features: segments cover %d of %d features", next, l.Length)
	}
	return nil
}

// LayoutByName resolves a configured profile name.
func LayoutByName(name string) (Layout, error) {
	switch name {
	case "", "standard":
		return StandardLayout(), nil
	case "extended":
		return ExtendedLayout(), nil
	default:
		return Layout{}, fmt.Errorf("features: unknown profile %q (want standard or extended)", name)
	}
}

// cognitiveModeScale maps the cognitive engine's free-text mode to a scalar.
// Unknown modes take the explicit default rather than failing: the engine is
// an external producer and its vocabulary drifts.
var cognitiveModeScale = map[string]float32{
	"resting": 0.1,
	"idle":    0.25,
	"curious": 0.5,
	"engaged": 0.75,
	"alert":   1.0,
}

const cognitiveModeDefault float32 = 0.25

// StandardLayout is the 68-feature profile matching the deployed standard
// model artifact.
func StandardLayout() Layout {
	return Layout{
		Name:   "standard",
		Length: 68,
		Segments: []Segment{
			{Name: "cognitive", Start: 0, End: 8, fill: fillCognitive},
			{Name: "environment", Start: 8, End: 18, fill: fillEnvironment},
			{Name: "rf", Start: 18, End: 30, fill: fillRF},
			{Name: "vision", Start: 30, End: 40, fill: fillVision},
			{Name: "audio", Start: 40, End: 46, fill: fillAudio},
			{Name: "interaction", Start: 46, End: 53, fill: fillInteraction},
			{Name: "network", Start: 53, End: 59, fill: fillNetwork},
			{Name: "system", Start: 59, End: 63, fill: fillSystem},
			{Name: "security", Start: 63, End: 68, fill: fillSecurity},
		},
	}
}

// ExtendedLayout is the 120-feature profile: the standard segments plus
// peripheral sensor categories for builds with the expansion board.
func ExtendedLayout() Layout {
	std := StandardLayout()
	segs := append(std.Segments,
		Segment{Name: "thermal", Start: 68, End: 76, fill: fillThermal},
		Segment{Name: "imu", Start: 76, End: 88, fill: fillIMU},
		Segment{Name: "lidar", Start: 88, End: 104, fill: fillLidar},
		Segment{Name: "power", Start: 104, End: 112, fill: fillPower},
		Segment{Name: "bus", Start: 112, End: 120, fill: fillBus},
	)
	return Layout{Name: "extended", Length: 120, Segments: segs}
}

// SegmentInfos returns the layout as plain name/range records for the
// stream descriptor.
func (l Layout) SegmentInfos() []SegmentRange {
	infos := make([]SegmentRange, len(l.Segments))
	for i, seg := range l.Segments {
		infos[i] = SegmentRange{Name: seg.Name, Start: seg.Start, End: seg.End}
	}
	return infos
}

// SegmentRange is the exported shape of a segment boundary.
type SegmentRange struct {
	Name  string
	Start int
	End   int
}

// clamp01 clamps to the closed unit interval. NaN maps to 0.
func clamp01(v float64) float32 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return float32(v)
	}
}

// unit normalizes a non-negative magnitude against an expected maximum.
func unit(v, max float64) float32 {
	return clamp01(v / max)
}

// span linearly maps [lo, hi] onto [0, 1] with clamping.
func span(v, lo, hi float64) float32 {
	return clamp01((v - lo) / (hi - lo))
}

// bipolar maps [-1, 1] onto [0, 1].
func bipolar(v float64) float32 {
	return clamp01((v + 1) / 2)
}

func fillCognitive(e *Extractor, snap *types.WorldSnapshot, out []float32) {
	c := &snap.Cognitive
	mode, ok := cognitiveModeScale[c.Mode]
	if !ok {
		mode = cognitiveModeDefault
	}
	out[0] = mode
	out[1] = clamp01(c.Arousal)
	out[2] = bipolar(c.Valence)
	out[3] = clamp01(c.Attention)
	out[4] = clamp01(c.Novelty)
	out[5] = clamp01(c.Confidence)
	out[6] = clamp01(c.SocialDrive)
	out[7] = clamp01(c.Fatigue)
}

func fillEnvironment(e *Extractor, snap *types.WorldSnapshot, out []float32) {
	env := &snap.Environment
	out[0] = span(env.TemperatureC, 0, 40)
	out[1] = unit(env.Humidity, 100)
	out[2] = span(env.PressureHPa, 950, 1050)
	out[3] = clamp01(math.Log10(1+math.Max(env.LightLux, 0)) / 5) // 0 lux → 0, 100k lux → 1
	out[4] = span(env.NoiseFloorDB, 30, 90)
	out[5] = clamp01(env.MotionLevel)
	out[6] = unit(env.AirQualityIndex, 500)
	out[7] = unit(env.UptimeHours, 720)

	// Time of day as a point on the unit circle so midnight and 23:59 sit
	// next to each other in feature space.
	now := e.now()
	dayFrac := float64(now.Hour()*3600+now.Minute()*60+now.Second()) / 86400
	out[8] = float32((math.Sin(2*math.Pi*dayFrac) + 1) / 2)
	out[9] = float32((math.Cos(2*math.Pi*dayFrac) + 1) / 2)
}

func fillRF(e *Extractor, snap *types.WorldSnapshot, out []float32) {
	rf := &snap.RF
	for i, band := range rf.Bands {
		out[i] = span(band, -100, -20)
	}
	out[8] = unit(float64(rf.WifiAPCount), 50)
	out[9] = unit(float64(rf.BTDeviceCount), 20)
	out[10] = span(rf.StrongestRSSI, -100, -20)
	out[11] = clamp01(rf.ChannelUtilization)
}

func fillVision(e *Extractor, snap *types.WorldSnapshot, out []float32) {
	v := &snap.Vision
	out[0] = unit(float64(v.PersonCount), 10)
	out[1] = unit(float64(v.FaceCount), 10)
	out[2] = unit(float64(v.VehicleCount), 10)
	out[3] = unit(float64(v.AnimalCount), 5)
	out[4] = clamp01(v.MotionLevel)
	out[5] = clamp01(v.Brightness)
	out[6] = clamp01(v.Contrast)
	out[7] = clamp01(v.SceneChange)
	out[8] = clamp01(v.FocusScore)
	out[9] = unit(v.CameraFPS, 60)
}

func fillAudio(e *Extractor, snap *types.WorldSnapshot, out []float32) {
	a := &snap.Audio
	out[0] = clamp01(a.RMSLevel)
	out[1] = clamp01(a.PeakLevel)
	out[2] = span(a.PitchHz, 50, 2000)
	out[3] = clamp01(a.SpeechProb)
	out[4] = clamp01(a.MusicProb)
	out[5] = unit(a.OnsetRate, 10)
}

func fillInteraction(e *Extractor, snap *types.WorldSnapshot, out []float32) {
	in := &snap.Interaction
	out[0] = unit(float64(in.ActiveConversations), 8)
	out[1] = unit(in.MessagesPerMinute, 60)
	out[2] = clamp01(1 - in.LastInteractionS/3600) // recency: 1 = just now
	out[3] = unit(float64(in.TouchEvents), 20)
	if in.PresenceDetected {
		out[4] = 1
	} else {
		out[4] = 0
	}
	out[5] = clamp01(in.Engagement)
	out[6] = bipolar(in.Sentiment)
}

func fillNetwork(e *Extractor, snap *types.WorldSnapshot, out []float32) {
	n := &snap.Network
	out[0] = unit(n.TxKBps, 10240)
	out[1] = unit(n.RxKBps, 10240)
	out[2] = unit(float64(n.ConnCount), 200)
	out[3] = span(n.LatencyMS, 0, 500)
	out[4] = unit(n.PacketLossPct, 100)
	out[5] = unit(float64(n.DNSFailures), 20)
}

func fillSystem(e *Extractor, snap *types.WorldSnapshot, out []float32) {
	cpu, mem := e.sysLoad()
	out[0] = clamp01(cpu)
	out[1] = clamp01(mem)
	out[2] = unit(snap.System.DiskUsagePct, 100)
	out[3] = span(snap.System.CPUTempC, 20, 95)
}

func fillSecurity(e *Extractor, snap *types.WorldSnapshot, out []float32) {
	s := &snap.Security
	out[0] = unit(float64(s.AuthFailures), 20)
	out[1] = unit(float64(s.PortScans), 10)
	out[2] = unit(float64(s.NewDevices), 10)
	out[3] = clamp01(s.AnomalyScore)
	out[4] = unit(float64(s.FirewallDrops), 100)
}

func fillThermal(e *Extractor, snap *types.WorldSnapshot, out []float32) {
	for i, zone := range snap.Peripheral.ThermalZones {
		out[i] = span(zone, 10, 100)
	}
}

func fillIMU(e *Extractor, snap *types.WorldSnapshot, out []float32) {
	imu := &snap.Peripheral.IMU
	for i := 0; i < 3; i++ {
		out[i] = span(imu.Accel[i], -20, 20)
		out[3+i] = span(imu.Gyro[i], -10, 10)
		out[6+i] = span(imu.Mag[i], -100, 100)
	}
	out[9] = span(imu.Pitch, -math.Pi, math.Pi)
	out[10] = span(imu.Roll, -math.Pi, math.Pi)
	out[11] = span(imu.Yaw, -math.Pi, math.Pi)
}

func fillLidar(e *Extractor, snap *types.WorldSnapshot, out []float32) {
	for i, r := range snap.Peripheral.LidarSectors {
		out[i] = unit(r, 10)
	}
}

func fillPower(e *Extractor, snap *types.WorldSnapshot, out []float32) {
	p := &snap.Peripheral.Power
	out[0] = unit(p.BatteryPct, 100)
	out[1] = span(p.VoltageV, 0, 24)
	out[2] = unit(p.CurrentA, 10)
	out[3] = unit(p.PowerW, 120)
	out[4] = span(p.ChargeRateW, -60, 60)
	out[5] = span(p.TempC, 20, 95)
	out[6] = unit(p.FanRPM, 8000)
	out[7] = unit(float64(p.ThrottleEvents), 10)
}

func fillBus(e *Extractor, snap *types.WorldSnapshot, out []float32) {
	b := &snap.Peripheral.Bus
	out[0] = unit(float64(b.USBDevices), 16)
	out[1] = unit(float64(b.I2CErrors), 50)
	out[2] = unit(b.SPIKBps, 10240)
	out[3] = unit(float64(b.GPIOEvents), 1000)
	out[4] = unit(float64(b.UARTErrors), 50)
	out[5] = unit(float64(b.CANMessages), 5000)
	out[6] = clamp01(b.PWMDuty)
	out[7] = clamp01(b.ServoLoad)
}
