// Package telemetry publishes pipeline events to an MQTT broker.
//
// The Lumen base station and fleet tooling subscribe to these topics to
// track device health and recognition quality in the field. Publishing is
// best effort: a broker outage must never slow the perception loop down.
package telemetry

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/lumenlabs/go-lumen/internal/log"
	"github.com/lumenlabs/go-lumen/pkg/percept"
)

// Topic layout: lumen/<device_id>/<stream>.
const (
	streamResults = "results"
	streamMetrics = "metrics"
)

// Config holds broker connection settings.
type Config struct {
	BrokerURL string
	ClientID  string
	Username  string
	Password  string
	DeviceID  string
	QoS       byte
}

// client is the slice of mqtt.Client the publisher uses, narrowed for
// testability.
type client interface {
	Connect() mqtt.Token
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
	IsConnected() bool
}

// Publisher sends pipeline telemetry to the broker.
type Publisher struct {
	client   client
	deviceID string
	qos      byte
}

// NewPublisher connects to the broker and returns a publisher.
func NewPublisher(cfg Config) (*Publisher, error) {
	logger := log.Component("telemetry")

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL)
	opts.SetClientID(cfg.ClientID)
	opts.SetUsername(cfg.Username)
	opts.SetPassword(cfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("broker connection lost", "error", err)
	})
	opts.SetOnConnectHandler(func(_ mqtt.Client) {
		logger.Info("connected to broker", "broker", cfg.BrokerURL)
	})

	c := mqtt.NewClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("telemetry: connect to %s: %w", cfg.BrokerURL, token.Error())
	}

	return &Publisher{client: c, deviceID: cfg.DeviceID, qos: cfg.QoS}, nil
}

// resultEvent is the wire shape of a published result. Skips are collapsed
// to reason only; full payloads stay on the device.
type resultEvent struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Mode         string    `json:"mode"`
	SignLabel    string    `json:"sign_label,omitempty"`
	Detections   int       `json:"detections,omitempty"`
	AlertsSpoken int       `json:"alerts_spoken,omitempty"`
	SkipReason   string    `json:"skip_reason,omitempty"`
	Error        string    `json:"error,omitempty"`
	ProcessingMs int64     `json:"processing_ms"`
	Timestamp    time.Time `json:"timestamp"`
}

// PublishResult publishes a perception result summary.
func (p *Publisher) PublishResult(res percept.Result) error {
	event := resultEvent{
		ID:           res.ID,
		Kind:         string(res.Kind),
		Mode:         res.Mode.String(),
		Detections:   len(res.Detections),
		AlertsSpoken: res.Alerts.Spoken,
		SkipReason:   string(res.SkipReason),
		Error:        res.ErrString(),
		ProcessingMs: res.ProcessingTime.Milliseconds(),
		Timestamp:    res.Timestamp,
	}
	if res.Sign != nil {
		event.SignLabel = res.Sign.Label
	}
	return p.publish(streamResults, event)
}

// PublishMetrics publishes a metrics snapshot.
func (p *Publisher) PublishMetrics(metrics map[string]any) error {
	return p.publish(streamMetrics, metrics)
}

func (p *Publisher) publish(stream string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("telemetry: marshal %s: %w", stream, err)
	}
	topic := fmt.Sprintf("lumen/%s/%s", p.deviceID, stream)

	// Fire and forget: the paho client queues the publish; errors surface
	// through the lost-connection handler.
	p.client.Publish(topic, p.qos, false, payload)
	return nil
}

// Connected reports whether the broker connection is up.
func (p *Publisher) Connected() bool {
	return p.client.IsConnected()
}

// Close disconnects from the broker, allowing queued messages to flush.
func (p *Publisher) Close() {
	p.client.Disconnect(250)
}
