package types

import "time"

// WorldSnapshot is the merged view of all sensor subsystems at one instant.
// Producers (RF scanner, vision, audio, network monitors, cognitive engine)
// each own one section; missing sections are legal and stay at their zero
// values, which the extractor treats as explicit defaults.
type WorldSnapshot struct {
	// Timestamp is when the newest contributing reading arrived.
	Timestamp time.Time

	Cognitive   CognitiveState   `json:"cognitive"`
	Environment EnvironmentState `json:"environment"`
	RF          RFState          `json:"rf"`
	Vision      VisionState      `json:"vision"`
	Audio       AudioState       `json:"audio"`
	Interaction InteractionState `json:"interaction"`
	Network     NetworkState     `json:"network"`
	System      SystemState      `json:"system"`
	Security    SecurityState    `json:"security"`

	// Peripheral is only populated when the extended feature profile is
	// active; the standard profile ignores it.
	Peripheral PeripheralState `json:"peripheral"`
}

// CognitiveState comes from the personality/cognitive-state engine.
type CognitiveState struct {
	Mode        string  `json:"mode"` // idle, curious, engaged, alert, resting
	Arousal     float64 `json:"arousal"`
	Valence     float64 `json:"valence"` // -1..1
	Attention   float64 `json:"attention"`
	Novelty     float64 `json:"novelty"`
	Confidence  float64 `json:"confidence"`
	SocialDrive float64 `json:"social_drive"`
	Fatigue     float64 `json:"fatigue"`
}

// EnvironmentState aggregates ambient environmental sensors.
type EnvironmentState struct {
	TemperatureC    float64 `json:"temperature_c"`
	Humidity        float64 `json:"humidity"` // percent
	PressureHPa     float64 `json:"pressure_hpa"`
	LightLux        float64 `json:"light_lux"`
	NoiseFloorDB    float64 `json:"noise_floor_db"`
	MotionLevel     float64 `json:"motion_level"` // 0..1 from PIR/radar
	AirQualityIndex float64 `json:"air_quality_index"`
	UptimeHours     float64 `json:"uptime_hours"`
}

// RFState summarizes the RF spectrum scan.
type RFState struct {
	// Bands holds per-band energy in dBm, lowest band first.
	Bands              [8]float64 `json:"bands"`
	WifiAPCount        int        `json:"wifi_ap_count"`
	BTDeviceCount      int        `json:"bt_device_count"`
	StrongestRSSI      float64    `json:"strongest_rssi"` // dBm
	ChannelUtilization float64    `json:"channel_utilization"`
}

// VisionState summarizes the vision subsystem's scene analysis.
type VisionState struct {
	PersonCount  int     `json:"person_count"`
	FaceCount    int     `json:"face_count"`
	VehicleCount int     `json:"vehicle_count"`
	AnimalCount  int     `json:"animal_count"`
	MotionLevel  float64 `json:"motion_level"`
	Brightness   float64 `json:"brightness"`
	Contrast     float64 `json:"contrast"`
	SceneChange  float64 `json:"scene_change"`
	FocusScore   float64 `json:"focus_score"`
	CameraFPS    float64 `json:"camera_fps"`
}

// AudioState summarizes the audio front-end analysis.
type AudioState struct {
	RMSLevel   float64 `json:"rms_level"`
	PeakLevel  float64 `json:"peak_level"`
	PitchHz    float64 `json:"pitch_hz"`
	SpeechProb float64 `json:"speech_prob"`
	MusicProb  float64 `json:"music_prob"`
	OnsetRate  float64 `json:"onset_rate"` // onsets per second
}

// InteractionState tracks user-facing activity.
type InteractionState struct {
	ActiveConversations int     `json:"active_conversations"`
	MessagesPerMinute   float64 `json:"messages_per_minute"`
	LastInteractionS    float64 `json:"last_interaction_s"`
	TouchEvents         int     `json:"touch_events"`
	PresenceDetected    bool    `json:"presence_detected"`
	Engagement          float64 `json:"engagement"`
	Sentiment           float64 `json:"sentiment"` // -1..1
}

// NetworkState comes from the network monitor.
type NetworkState struct {
	TxKBps        float64 `json:"tx_kbps"`
	RxKBps        float64 `json:"rx_kbps"`
	ConnCount     int     `json:"conn_count"`
	LatencyMS     float64 `json:"latency_ms"`
	PacketLossPct float64 `json:"packet_loss_pct"`
	DNSFailures   int     `json:"dns_failures"`
}

// SystemState holds host readings that arrive with the snapshot. CPU and
// memory load are deliberately absent: they are sampled locally by the
// extractor through a TTL cache because reading them is expensive relative
// to the frame budget.
type SystemState struct {
	DiskUsagePct float64 `json:"disk_usage_pct"`
	CPUTempC     float64 `json:"cpu_temp_c"`
}

// SecurityState comes from the security monitor.
type SecurityState struct {
	AuthFailures  int     `json:"auth_failures"`
	PortScans     int     `json:"port_scans"`
	NewDevices    int     `json:"new_devices"`
	AnomalyScore  float64 `json:"anomaly_score"`
	FirewallDrops int     `json:"firewall_drops"`
}

// PeripheralState backs the extended 120-feature profile.
type PeripheralState struct {
	ThermalZones [8]float64  `json:"thermal_zones"` // °C per zone
	IMU          IMUState    `json:"imu"`
	LidarSectors [16]float64 `json:"lidar_sectors"` // range in meters per sector
	Power        PowerState  `json:"power"`
	Bus          BusState    `json:"bus"`
}

// IMUState holds inertial readings.
type IMUState struct {
	Accel [3]float64 `json:"accel"` // m/s²
	Gyro  [3]float64 `json:"gyro"`  // rad/s
	Mag   [3]float64 `json:"mag"`   // µT
	Pitch float64    `json:"pitch"` // rad
	Roll  float64    `json:"roll"`
	Yaw   float64    `json:"yaw"`
}

// PowerState holds the power subsystem readings.
type PowerState struct {
	BatteryPct     float64 `json:"battery_pct"`
	VoltageV       float64 `json:"voltage_v"`
	CurrentA       float64 `json:"current_a"`
	PowerW         float64 `json:"power_w"`
	ChargeRateW    float64 `json:"charge_rate_w"`
	TempC          float64 `json:"temp_c"`
	FanRPM         float64 `json:"fan_rpm"`
	ThrottleEvents int     `json:"throttle_events"`
}

// BusState counts peripheral-bus activity since the last snapshot.
type BusState struct {
	USBDevices  int     `json:"usb_devices"`
	I2CErrors   int     `json:"i2c_errors"`
	SPIKBps     float64 `json:"spi_kbps"`
	GPIOEvents  int     `json:"gpio_events"`
	UARTErrors  int     `json:"uart_errors"`
	CANMessages int     `json:"can_messages"`
	PWMDuty     float64 `json:"pwm_duty"`
	ServoLoad   float64 `json:"servo_load"`
}
