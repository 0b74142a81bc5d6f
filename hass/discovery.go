package hass

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/angas/otesensor-go/sensor"
)

const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// Message is a single MQTT publication.
type Message struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

type Topics struct {
	Config       string
	State        string
	Attributes   string
	Availability string
}

func NewTopics(discoveryPrefix, topicPrefix, objectId string) Topics {
	base := fmt.Sprintf("%s/%s", topicPrefix, objectId)
	return Topics{
		Config:       fmt.Sprintf("%s/sensor/%s/config", discoveryPrefix, objectId),
		State:        base + "/state",
		Attributes:   base + "/attributes",
		Availability: base + "/availability",
	}
}

type discoveryDevice struct {
	Identifiers  []string `json:"identifiers"`
	Name         string   `json:"name"`
	Manufacturer string   `json:"manufacturer,omitempty"`
	Model        string   `json:"model,omitempty"`
	SwVersion    string   `json:"sw_version,omitempty"`
}

type discoveryConfig struct {
	Name                string          `json:"name"`
	UniqueId            string          `json:"unique_id"`
	ObjectId            string          `json:"object_id"`
	DeviceClass         string          `json:"device_class"`
	UnitOfMeasurement   string          `json:"unit_of_measurement"`
	StateTopic          string          `json:"state_topic"`
	JsonAttributesTopic string          `json:"json_attributes_topic"`
	AvailabilityTopic   string          `json:"availability_topic"`
	PayloadAvailable    string          `json:"payload_available"`
	PayloadNotAvailable string          `json:"payload_not_available"`
	DisplayPrecision    int             `json:"suggested_display_precision"`
	Device              discoveryDevice `json:"device"`
}

// DiscoveryMessage announces the sensor to Home Assistant. It is retained so
// Home Assistant picks it up after its own restarts.
func DiscoveryMessage(topics Topics, name, objectId, version string) (Message, error) {
	cnfg := discoveryConfig{
		Name:                name,
		UniqueId:            objectId,
		ObjectId:            objectId,
		DeviceClass:         sensor.DeviceClass,
		UnitOfMeasurement:   sensor.NativeUnitOfMeasurement,
		StateTopic:          topics.State,
		JsonAttributesTopic: topics.Attributes,
		AvailabilityTopic:   topics.Availability,
		PayloadAvailable:    PayloadOnline,
		PayloadNotAvailable: PayloadOffline,
		DisplayPrecision:    2,
		Device: discoveryDevice{
			Identifiers:  []string{objectId},
			Name:         "OTE day-ahead market",
			Manufacturer: "OTE, a.s.",
			Model:        "Day-ahead electricity price",
			SwVersion:    version,
		},
	}

	payload, err := json.Marshal(cnfg)
	if err != nil {
		return Message{}, fmt.Errorf("marshal discovery config: %w", err)
	}
	return Message{Topic: topics.Config, Payload: payload, QoS: 1, Retain: true}, nil
}

// StateMessages returns what to publish after an update cycle. Value and
// attributes are only sent when there is a reading, so a failed cycle
// leaves the last retained ones in place and only flips availability.
func StateMessages(topics Topics, state sensor.State) ([]Message, error) {
	var msgs []Message

	if state.Value.IsValid() {
		msgs = append(msgs, Message{
			Topic:   topics.State,
			Payload: []byte(strconv.FormatFloat(state.Value.Value(), 'f', -1, 64)),
			QoS:     1,
			Retain:  true,
		})

		attrs, err := json.Marshal(state.Attributes)
		if err != nil {
			return nil, fmt.Errorf("marshal attributes: %w", err)
		}
		msgs = append(msgs, Message{Topic: topics.Attributes, Payload: attrs, QoS: 1, Retain: true})
	}

	msgs = append(msgs, AvailabilityMessage(topics, state.Available))
	return msgs, nil
}

func AvailabilityMessage(topics Topics, available bool) Message {
	payload := PayloadOffline
	if available {
		payload = PayloadOnline
	}
	return Message{Topic: topics.Availability, Payload: []byte(payload), QoS: 1, Retain: true}
}
