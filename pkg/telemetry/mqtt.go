// Package telemetry republishes controller readings to an MQTT broker.
package telemetry

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/itohio/gofan/pkg/config"
	"github.com/itohio/gofan/pkg/link"
)

// publishTimeout bounds how long a single publish may wait for the broker.
const publishTimeout = 2 * time.Second

// Message is the JSON payload published for every reading.
type Message struct {
	Timestamp time.Time `json:"timestamp"`
	Celsius   int       `json:"celsius"`
}

// publisher is the part of mqtt.Client the Publisher uses.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// Publisher sends readings to one topic.
type Publisher struct {
	client publisher
	topic  string
	qos    byte
	close  func()
}

// Connect dials the broker from cfg and returns a Publisher for cfg.Topic.
func Connect(cfg config.MQTTConfig) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, fmt.Errorf("no broker configured")
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID(cfg.ClientID)).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	client := mqtt.NewClient(opts)

	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("timed out connecting to %s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Broker, err)
	}

	p := newPublisher(client, cfg.Topic, cfg.QoS)
	p.close = func() { client.Disconnect(250) }
	return p, nil
}

// clientID appends a random suffix so several monitors can share a broker.
func clientID(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

func newPublisher(client publisher, topic string, qos byte) *Publisher {
	return &Publisher{
		client: client,
		topic:  topic,
		qos:    qos,
	}
}

// Publish sends one reading and waits for the broker to accept it.
func (p *Publisher) Publish(r link.Reading) error {
	payload, err := json.Marshal(Message{
		Timestamp: r.Timestamp,
		Celsius:   r.Celsius,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}

	token := p.client.Publish(p.topic, p.qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish to %s timed out", p.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", p.topic, err)
	}

	return nil
}

// Forward publishes every reading from in until in closes or ctx is done.
// Failed publishes are logged and skipped.
func (p *Publisher) Forward(ctx context.Context, in <-chan link.Reading) {
	for {
		select {
		case <-ctx.Done():
			return
		case r, ok := <-in:
			if !ok {
				return
			}
			if err := p.Publish(r); err != nil {
				log.Printf("Failed to publish reading: %v", err)
			}
		}
	}
}

// Close disconnects from the broker.
func (p *Publisher) Close() {
	if p.close != nil {
		p.close()
	}
}
