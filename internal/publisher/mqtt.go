package publisher

import (
	"context"
	"encoding/json"
	"fmt"

	"wisefido-vitalsim/internal/models"
)

const DefaultTopicPrefix = "vitalsim"

// Publisher the MQTT publish call; *mqtt.Client satisfies it
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
}

// MQTTSink publishes each reading to {prefix}/{session}/data
type MQTTSink struct {
	pub    Publisher
	prefix string
	qos    byte
}

func NewMQTTSink(pub Publisher, prefix string, qos byte) *MQTTSink {
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return &MQTTSink{pub: pub, prefix: prefix, qos: qos}
}

// Topic for a session's readings
func (s *MQTTSink) Topic(sessionID string) string {
	return fmt.Sprintf("%s/%s/data", s.prefix, sessionID)
}

func (s *MQTTSink) Publish(_ context.Context, r models.Reading) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal reading: %w", err)
	}
	if err := s.pub.Publish(s.Topic(r.SessionID), s.qos, false, payload); err != nil {
		return fmt.Errorf("failed to publish to mqtt: %w", err)
	}
	return nil
}
