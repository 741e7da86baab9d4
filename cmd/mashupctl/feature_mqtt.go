//go:build !no_mqtt

package main

import (
	"log/slog"

	mqttpub "mashupctl/internal/mqtt"

	"mashupctl/internal/events"
)

type mqttStopper struct {
	publisher *mqttpub.Publisher
}

func (m *mqttStopper) Stop() {
	if m.publisher != nil {
		m.publisher.Stop()
	}
}

func initMQTT(bus *events.Bus, cfg *Config, logger *slog.Logger) *mqttStopper {
	if !cfg.MQTT.Enabled {
		return &mqttStopper{}
	}
	pub, err := mqttpub.NewPublisher(bus, mqttpub.Config{
		Broker:      cfg.MQTT.Broker,
		Username:    cfg.MQTT.Username,
		Password:    cfg.MQTT.Password,
		TopicPrefix: cfg.MQTT.TopicPrefix,
	}, logger)
	if err != nil {
		logger.Error("mqtt publisher", "err", err)
		return &mqttStopper{}
	}
	pub.Start()
	return &mqttStopper{publisher: pub}
}
