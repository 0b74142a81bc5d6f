package hass

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/angas/otesensor-go/config"
	"github.com/angas/otesensor-go/sensor"
)

const publishTimeout = 10 * time.Second

// Publisher exposes the price sensor to Home Assistant through MQTT
// discovery. The broker keeps the last state retained, and the will message
// marks the sensor offline when the process disappears.
type Publisher struct {
	client   mqtt.Client
	logger   *slog.Logger
	topics   Topics
	name     string
	objectId string
	version  string
	mu       sync.Mutex
}

func New(cnfg config.AppConfigMqtt, name string, objectId string, version string) *Publisher {
	logger := slog.Default().With("module", "hass")
	topics := NewTopics(cnfg.GetDiscoveryPrefix(), cnfg.GetTopicPrefix(), objectId)

	p := &Publisher{
		logger:   logger,
		topics:   topics,
		name:     name,
		objectId: objectId,
		version:  version,
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s:%d", cnfg.Host, cnfg.GetPort()))
	opts.SetClientID(cnfg.GetClientId())
	opts.SetUsername(cnfg.Username)
	opts.SetPassword(cnfg.Password)
	opts.SetAutoReconnect(true)
	opts.SetWill(topics.Availability, PayloadOffline, 1, true)
	opts.OnConnect = func(client mqtt.Client) {
		logger.Info("MQTT connected")
		// Home Assistant may have lost the retained config if the broker restarted
		if err := p.announce(); err != nil {
			logger.Error("failed to publish discovery config", slog.Any("error", err))
		}
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Warn("MQTT connection lost", slog.Any("error", err))
	}

	mqttLog := slog.Default().With("module", "mqtt")
	mqtt.CRITICAL = newMqttLogger(mqttLog, slog.LevelError)
	mqtt.ERROR = newMqttLogger(mqttLog, slog.LevelError)
	mqtt.WARN = newMqttLogger(mqttLog, slog.LevelWarn)

	p.client = mqtt.NewClient(opts)
	return p
}

func (p *Publisher) Connect() error {
	p.logger.Debug("connecting MQTT client")
	if token := p.client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	return nil
}

func (p *Publisher) Disconnect() {
	p.logger.Info("disconnecting MQTT client")
	if p.client.IsConnected() {
		if err := p.publish(AvailabilityMessage(p.topics, false)); err != nil {
			p.logger.Warn("failed to publish offline state", slog.Any("error", err))
		}
	}
	p.client.Disconnect(250)
}

// OnSensorUpdate is registered as a sensor listener.
func (p *Publisher) OnSensorUpdate(state sensor.State) {
	if !p.client.IsConnected() {
		p.logger.Debug("MQTT not connected, skipping state publish")
		return
	}

	msgs, err := StateMessages(p.topics, state)
	if err != nil {
		p.logger.Error("failed to build state messages", slog.Any("error", err))
		return
	}

	var errs []error
	for _, msg := range msgs {
		errs = append(errs, p.publish(msg))
	}
	if err := errors.Join(errs...); err != nil {
		p.logger.Error("failed to publish sensor state", slog.Any("error", err))
	}
}

func (p *Publisher) announce() error {
	msg, err := DiscoveryMessage(p.topics, p.name, p.objectId, p.version)
	if err != nil {
		return err
	}
	return p.publish(msg)
}

func (p *Publisher) publish(msg Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	token := p.client.Publish(msg.Topic, msg.QoS, msg.Retain, msg.Payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("timeout publishing to %s", msg.Topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", msg.Topic, err)
	}
	return nil
}
