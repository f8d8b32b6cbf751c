package snapshot

import (
	"math"
	"time"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/types"
)

// StaticProvider synthesizes a slowly breathing world snapshot for bench
// runs and demos with no sensor fleet attached. Values are derived from
// wall time, so consecutive frames vary smoothly and the particle field
// visibly moves.
type StaticProvider struct {
	start time.Time
	clock func() time.Time
}

// NewStaticProvider creates a synthetic snapshot source.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{start: time.Now(), clock: time.Now}
}

// Latest computes the snapshot for the current instant.
func (p *StaticProvider) Latest() types.WorldSnapshot {
	now := p.clock()
	t := now.Sub(p.start).Seconds()

	// Several incommensurate periods so sections drift independently.
	slow := 0.5 + 0.5*math.Sin(t/13)
	med := 0.5 + 0.5*math.Sin(t/3.7)
	fast := 0.5 + 0.5*math.Sin(t*1.9)

	s := types.WorldSnapshot{Timestamp: now}

	s.Cognitive = types.CognitiveState{
		Mode:        "curious",
		Arousal:     med,
		Valence:     2*slow - 1,
		Attention:   0.6 + 0.3*math.Sin(t/7),
		Novelty:     fast,
		Confidence:  0.8,
		SocialDrive: slow,
		Fatigue:     0.1 + 0.1*med,
	}

	s.Environment = types.EnvironmentState{
		TemperatureC:    21 + 2*math.Sin(t/31),
		Humidity:        45 + 10*slow,
		PressureHPa:     1013,
		LightLux:        300 + 200*med,
		NoiseFloorDB:    35 + 10*fast,
		MotionLevel:     fast * 0.4,
		AirQualityIndex: 40,
		UptimeHours:     t / 3600,
	}

	for i := range s.RF.Bands {
		s.RF.Bands[i] = -80 + 30*math.Sin(t/2+float64(i))
	}
	s.RF.WifiAPCount = 12 + int(5*med)
	s.RF.BTDeviceCount = 6 + int(3*fast)
	s.RF.StrongestRSSI = -42
	s.RF.ChannelUtilization = 0.2 + 0.3*med

	s.Vision = types.VisionState{
		PersonCount: int(2 * med),
		FaceCount:   int(1.2 * med),
		MotionLevel: fast,
		Brightness:  0.4 + 0.3*slow,
		Contrast:    0.5,
		SceneChange: 0.2 * fast,
		FocusScore:  0.9,
		CameraFPS:   30,
	}

	s.Audio = types.AudioState{
		RMSLevel:   0.1 + 0.2*fast,
		PeakLevel:  0.3 + 0.2*fast,
		PitchHz:    180 + 60*med,
		SpeechProb: 0.3 * med,
		MusicProb:  0.1,
		OnsetRate:  1 + 2*fast,
	}

	s.Interaction = types.InteractionState{
		ActiveConversations: 1,
		MessagesPerMinute:   2 * med,
		LastInteractionS:    30 + 120*slow,
		PresenceDetected:    med > 0.3,
		Engagement:          med,
		Sentiment:           2*med - 1,
	}

	s.Network = types.NetworkState{
		TxKBps:    400 + 300*fast,
		RxKBps:    900 + 500*fast,
		ConnCount: 24,
		LatencyMS: 8 + 4*med,
	}

	s.System = types.SystemState{
		DiskUsagePct: 37,
		CPUTempC:     48 + 8*med,
	}

	s.Security = types.SecurityState{
		AnomalyScore: 0.1 * fast,
	}

	for i := range s.Peripheral.ThermalZones {
		s.Peripheral.ThermalZones[i] = 40 + 6*math.Sin(t/5+float64(i))
	}
	s.Peripheral.IMU = types.IMUState{
		Accel: [3]float64{0.02 * math.Sin(t*3), 0.02 * math.Cos(t*3), 9.81},
		Gyro:  [3]float64{0.05 * fast, 0, 0},
		Pitch: 0.02 * math.Sin(t / 9),
	}
	for i := range s.Peripheral.LidarSectors {
		s.Peripheral.LidarSectors[i] = 2 + 1.5*math.Sin(t/4+float64(i)/2.5)
	}
	s.Peripheral.Power = types.PowerState{
		BatteryPct: 100 - math.Mod(t/60, 100),
		VoltageV:   12.1,
		CurrentA:   1 + 0.3*med,
		PowerW:     12 + 4*med,
		TempC:      35 + 3*med,
		FanRPM:     2400 + 600*med,
	}
	s.Peripheral.Bus = types.BusState{
		USBDevices:  4,
		SPIKBps:     180 + 60*fast,
		CANMessages: int(200 * fast),
		PWMDuty:     0.3 + 0.2*med,
		ServoLoad:   0.1 + 0.1*fast,
	}

	return s
}
