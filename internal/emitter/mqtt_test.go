package emitter

import (
	"testing"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/config"
)

func testConfig() *config.Config {
	cfg := &config.Config{InstanceID: "aura-test"}
	cfg.MQTT.Broker = "localhost:1883"
	cfg.MQTT.Topics.Particles = "aura/particles/aura-test"
	cfg.MQTT.QoS = map[string]byte{"particles": 0}
	return cfg
}

// TestSendNeverBlocks fills the buffer well past capacity with no delivery
// goroutine draining it; every call must return immediately.
func TestSendNeverBlocks(t *testing.T) {
	e := New(testConfig())

	for i := 0; i < sendBuffer*10; i++ {
		e.Send([]byte{byte(i)})
	}

	if got := len(e.sendCh); got != sendBuffer {
		t.Errorf("queued = %d, want %d", got, sendBuffer)
	}
}

// TestSendDropsOldest verifies a full buffer evicts the oldest queued frame
// so the freshest frames are the ones delivered.
func TestSendDropsOldest(t *testing.T) {
	e := New(testConfig())

	total := sendBuffer + 3
	for i := 0; i < total; i++ {
		e.Send([]byte{byte(i)})
	}

	stats := e.Stats()
	if want := uint64(total - sendBuffer); stats.Dropped != want {
		t.Errorf("dropped = %d, want %d", stats.Dropped, want)
	}

	// The queue must hold the newest frames in order, oldest evicted.
	for i := total - sendBuffer; i < total; i++ {
		msg := <-e.sendCh
		if msg[0] != byte(i) {
			t.Fatalf("queued frame = %d, want %d", msg[0], i)
		}
	}
}

// TestStatsBeforeConnect verifies the zero-value counters and connectivity.
func TestStatsBeforeConnect(t *testing.T) {
	e := New(testConfig())

	if e.IsConnected() {
		t.Error("emitter connected before Connect")
	}
	stats := e.Stats()
	if stats.Published != 0 || stats.Dropped != 0 || stats.Errors != 0 {
		t.Errorf("fresh emitter stats = %+v", stats)
	}
}
