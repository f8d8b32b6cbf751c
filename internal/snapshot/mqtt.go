package snapshot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/config"
	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/types"
)

// MQTTProvider merges per-subsystem telemetry messages into one snapshot.
// Each sensor subsystem publishes its section as JSON under
// <telemetry>/<section>; the provider overwrites that section in place.
type MQTTProvider struct {
	cfg    *config.Config
	client mqtt.Client

	mu       sync.RWMutex
	snap     types.WorldSnapshot
	received uint64
	rejected uint64
}

// NewMQTTProvider creates a provider on an already-connected client. The
// process holds a single broker connection shared with the emitter.
func NewMQTTProvider(cfg *config.Config, client mqtt.Client) *MQTTProvider {
	return &MQTTProvider{cfg: cfg, client: client}
}

// Start subscribes to the telemetry topic tree.
func (p *MQTTProvider) Start() error {
	topic := p.cfg.MQTT.Topics.Telemetry + "/#"
	qos := p.cfg.MQTT.QoS["telemetry"]

	slog.Info("subscribing to telemetry", "topic", topic, "qos", qos)

	token := p.client.Subscribe(topic, qos, p.messageHandler)
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("telemetry subscription timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("telemetry subscription failed: %w", err)
	}
	return nil
}

// Stop unsubscribes from the telemetry tree.
func (p *MQTTProvider) Stop() error {
	if p.client != nil && p.client.IsConnected() {
		token := p.client.Unsubscribe(p.cfg.MQTT.Topics.Telemetry + "/#")
		token.Wait()
	}
	return nil
}

// Latest returns a copy of the merged snapshot.
func (p *MQTTProvider) Latest() types.WorldSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snap
}

// Stats reports message counters for health reporting.
func (p *MQTTProvider) Stats() (received, rejected uint64) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.received, p.rejected
}

// messageHandler merges one section update.
func (p *MQTTProvider) messageHandler(client mqtt.Client, msg mqtt.Message) {
	section := sectionName(p.cfg.MQTT.Topics.Telemetry, msg.Topic())

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.mergeSection(section, msg.Payload()); err != nil {
		p.rejected++
		slog.Debug("telemetry message rejected",
			"topic", msg.Topic(),
			"section", section,
			"error", err,
		)
		return
	}
	p.snap.Timestamp = time.Now()
	p.received++
}

// mergeSection unmarshals a payload into its snapshot section. Caller holds
// the write lock.
func (p *MQTTProvider) mergeSection(section string, payload []byte) error {
	switch section {
	case "cognitive":
		return json.Unmarshal(payload, &p.snap.Cognitive)
	case "environment":
		return json.Unmarshal(payload, &p.snap.Environment)
	case "rf":
		return json.Unmarshal(payload, &p.snap.RF)
	case "vision":
		return json.Unmarshal(payload, &p.snap.Vision)
	case "audio":
		return json.Unmarshal(payload, &p.snap.Audio)
	case "interaction":
		return json.Unmarshal(payload, &p.snap.Interaction)
	case "network":
		return json.Unmarshal(payload, &p.snap.Network)
	case "system":
		return json.Unmarshal(payload, &p.snap.System)
	case "security":
		return json.Unmarshal(payload, &p.snap.Security)
	case "peripheral":
		return json.Unmarshal(payload, &p.snap.Peripheral)
	default:
		return fmt.Errorf("unknown section %q", section)
	}
}

// sectionName extracts the section from a topic under the telemetry base.
func sectionName(base, topic string) string {
	rest := strings.TrimPrefix(topic, base)
	rest = strings.TrimPrefix(rest, "/")
	// Producers may nest deeper (aura/telemetry/<id>/rf/scanner-2); the
	// first element names the section.
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		rest = rest[:i]
	}
	return rest
}
