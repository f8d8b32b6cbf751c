// Package emitter delivers encoded wire messages to the viewer fan-out
// layer over MQTT.
//
// The orchestrator must never wait on the network, so Send only enqueues
// into a small buffer and a dedicated delivery goroutine owns the broker
// client. When the buffer is full the oldest queued message is dropped and
// counted: each frame fully supersedes the previous one, so the freshest
// frame always wins over a stale queued one.
package emitter

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/thotsl4yer69/sentient-aura-system-sub001/internal/config"
)

// sendBuffer bounds how many undelivered messages queue before drops begin.
const sendBuffer = 4

// Emitter publishes binary frames to the particles topic.
type Emitter struct {
	cfg    *config.Config
	Client mqtt.Client // exported for the control plane

	sendCh chan []byte
	wg     sync.WaitGroup

	mu         sync.RWMutex
	connected  bool
	descriptor []byte // metadata message re-sent on every (re)connect
	published  uint64
	dropped    uint64
	errors     uint64
}

// New creates an emitter. Connect must be called before Send.
func New(cfg *config.Config) *Emitter {
	return &Emitter{
		cfg:    cfg,
		sendCh: make(chan []byte, sendBuffer),
	}
}

// SetDescriptor stores the encoded metadata message announced to viewers on
// every broker (re)connect, so late joiners learn the stream shape.
func (e *Emitter) SetDescriptor(msg []byte) {
	e.mu.Lock()
	e.descriptor = msg
	e.mu.Unlock()
}

// Connect establishes the broker connection and starts the delivery
// goroutine.
func (e *Emitter) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", e.cfg.MQTT.Broker))
	opts.SetClientID(fmt.Sprintf("%s-%s", e.cfg.InstanceID, uuid.New().String()[:8]))
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		e.mu.Lock()
		e.connected = true
		desc := e.descriptor
		e.mu.Unlock()
		slog.Info("mqtt connection established",
			"broker", e.cfg.MQTT.Broker,
			"auto_reconnect", "enabled",
		)
		if desc != nil {
			e.publish(desc)
		}
	}

	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		e.mu.Lock()
		e.connected = false
		e.mu.Unlock()
		slog.Warn("mqtt connection lost, will auto-reconnect",
			"error", err,
			"broker", e.cfg.MQTT.Broker,
		)
	}

	e.Client = mqtt.NewClient(opts)

	slog.Info("connecting to mqtt broker", "broker", e.cfg.MQTT.Broker)

	token := e.Client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	e.mu.Lock()
	e.connected = true
	e.mu.Unlock()

	e.wg.Add(1)
	go e.deliver(ctx)

	return nil
}

// Send hands a wire message to the delivery goroutine. It never blocks: a
// full buffer evicts the oldest queued message in favor of the fresh one
// and increments the drop counter.
func (e *Emitter) Send(msg []byte) {
	select {
	case e.sendCh <- msg:
		return
	default:
	}

	// Buffer full: drain one stale entry so the fresh frame supersedes it.
	select {
	case <-e.sendCh:
	default:
	}
	e.mu.Lock()
	e.dropped++
	e.mu.Unlock()
	slog.Debug("stale frame dropped, send buffer full")

	select {
	case e.sendCh <- msg:
	default:
		// A concurrent Send won the freed slot.
	}
}

// deliver publishes queued messages until the context ends.
func (e *Emitter) deliver(ctx context.Context) {
	defer e.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-e.sendCh:
			e.publish(msg)
		}
	}
}

// publish sends one message synchronously on the delivery goroutine.
func (e *Emitter) publish(msg []byte) {
	if !e.IsConnected() {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		return
	}

	topic := e.cfg.MQTT.Topics.Particles
	qos := e.cfg.MQTT.QoS["particles"]

	token := e.Client.Publish(topic, qos, false, msg)
	if !token.WaitTimeout(2 * time.Second) {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		slog.Warn("frame publish timeout", "topic", topic)
		return
	}
	if err := token.Error(); err != nil {
		e.mu.Lock()
		e.errors++
		e.mu.Unlock()
		slog.Warn("frame publish failed", "topic", topic, "error", err)
		return
	}

	e.mu.Lock()
	e.published++
	e.mu.Unlock()
}

// PublishHealth publishes a health/ack payload on the health topic.
func (e *Emitter) PublishHealth(payload []byte) error {
	if !e.IsConnected() {
		return fmt.Errorf("mqtt not connected")
	}

	token := e.Client.Publish(e.cfg.MQTT.Topics.Health, e.cfg.MQTT.QoS["health"], false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		return fmt.Errorf("publish timeout")
	}
	return token.Error()
}

// Disconnect stops delivery and closes the broker connection.
func (e *Emitter) Disconnect() error {
	if e.Client != nil && e.Client.IsConnected() {
		e.Client.Disconnect(250) // 250ms grace period
		slog.Info("mqtt disconnected")
	}

	e.mu.Lock()
	e.connected = false
	e.mu.Unlock()

	e.wg.Wait()
	return nil
}

// IsConnected reports broker connectivity.
func (e *Emitter) IsConnected() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.connected
}

// Stats contains emitter statistics.
type Stats struct {
	Connected bool
	Published uint64
	Dropped   uint64
	Errors    uint64
}

// Stats returns a snapshot of emitter counters.
func (e *Emitter) Stats() Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Stats{
		Connected: e.connected,
		Published: e.published,
		Dropped:   e.dropped,
		Errors:    e.errors,
	}
}
