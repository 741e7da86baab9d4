//go:build !no_mqtt

// Package mqtt publishes deploy events to an MQTT broker.
package mqtt

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"mashupctl/internal/events"
)

// Publisher forwards deploy events from a bus to MQTT.
type Publisher struct {
	client pahomqtt.Client
	bus    *events.Bus
	prefix string
	logger *slog.Logger
	unsub  func()

	mu     sync.Mutex
	states map[string]entityState // entity name -> last outcome
}

// NewPublisher creates and connects an MQTT publisher.
func NewPublisher(bus *events.Bus, cfg Config, logger *slog.Logger) (*Publisher, error) {
	p := &Publisher{
		bus:    bus,
		prefix: cfg.TopicPrefix,
		logger: logger.With("component", "mqtt"),
		states: make(map[string]entityState),
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "mashupctl"
	}

	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetWill(bridgeStateTopic(cfg.TopicPrefix), "offline", 1, true).
		SetOnConnectHandler(func(_ pahomqtt.Client) {
			p.logger.Info("MQTT connected")
			p.publish(bridgeStateTopic(p.prefix), []byte("online"), true)
		}).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			p.logger.Warn("MQTT connection lost", "err", err)
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	client := pahomqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}

	p.client = client
	return p, nil
}

// Start subscribes to deploy events.
func (p *Publisher) Start() {
	p.unsub = p.bus.Subscribe(p.handleEvent)
	p.logger.Info("MQTT publisher started", "prefix", p.prefix)
}

// Stop publishes offline state, unsubscribes, and disconnects.
func (p *Publisher) Stop() {
	if p.unsub != nil {
		p.unsub()
	}
	p.publish(bridgeStateTopic(p.prefix), []byte("offline"), true)
	p.client.Disconnect(1000)
	p.logger.Info("MQTT publisher stopped")
}

func (p *Publisher) handleEvent(ev events.Event) {
	p.publish(eventTopic(p.prefix, ev), mustJSON(ev), false)

	p.mu.Lock()
	st := applyEvent(p.states[ev.Name], ev)
	p.states[ev.Name] = st
	payload := mustJSON(st)
	p.mu.Unlock()

	p.publish(stateTopic(p.prefix, ev.Name), payload, true)
}

func (p *Publisher) publish(topic string, payload []byte, retained bool) {
	token := p.client.Publish(topic, 1, retained, payload)
	go func() {
		if !token.WaitTimeout(5 * time.Second) {
			p.logger.Warn("MQTT publish timeout", "topic", topic)
		} else if err := token.Error(); err != nil {
			p.logger.Warn("MQTT publish error", "topic", topic, "err", err)
		}
	}()
}
