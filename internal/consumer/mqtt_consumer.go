package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	mqttcommon "wisefido-vitalsim/common/mqtt"
	"wisefido-vitalsim/internal/models"
	"wisefido-vitalsim/internal/signal"
)

const (
	DefaultPlaybackTopic = "vitalsim/+/playback"
	DefaultControlTopic  = "vitalsim/+/control"
)

// Subscriber the MQTT calls the consumer needs; *mqtt.Client satisfies it
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// Controller the monitor operations reachable over MQTT
type Controller interface {
	Start() bool
	Stop() bool
	ClearData()
	SetHidden(hidden bool)
	StartExcursion(kind signal.ExcursionKind) error
	HandlePlayback(ev models.PlaybackEvent) error
}

// MQTTConsumer turns playback and control messages into monitor calls
type MQTTConsumer struct {
	sub           Subscriber
	monitor       Controller
	playbackTopic string
	controlTopic  string
	qos           byte
	logger        *zap.Logger
}

func NewMQTTConsumer(sub Subscriber, monitor Controller, playbackTopic, controlTopic string, qos byte, logger *zap.Logger) *MQTTConsumer {
	if playbackTopic == "" {
		playbackTopic = DefaultPlaybackTopic
	}
	if controlTopic == "" {
		controlTopic = DefaultControlTopic
	}
	return &MQTTConsumer{
		sub:           sub,
		monitor:       monitor,
		playbackTopic: playbackTopic,
		controlTopic:  controlTopic,
		qos:           qos,
		logger:        logger,
	}
}

// Start subscribes to both topics
func (c *MQTTConsumer) Start(ctx context.Context) error {
	if err := c.sub.Subscribe(c.playbackTopic, c.qos, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to playback topic: %w", err)
	}
	if err := c.sub.Subscribe(c.controlTopic, c.qos, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to control topic: %w", err)
	}

	c.logger.Info("MQTT consumer started",
		zap.String("playback_topic", c.playbackTopic),
		zap.String("control_topic", c.controlTopic),
	)
	return nil
}

func (c *MQTTConsumer) Stop(ctx context.Context) error {
	if err := c.sub.Unsubscribe(c.playbackTopic, c.controlTopic); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.Error(err))
	}
	c.logger.Info("MQTT consumer stopped")
	return nil
}

// handleMessage topic format: vitalsim/{session}/{playback|control}
func (c *MQTTConsumer) handleMessage(topic string, payload []byte) error {
	c.logger.Debug("Received MQTT message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return fmt.Errorf("invalid topic format: %s", topic)
	}

	switch kind := parts[len(parts)-1]; kind {
	case "playback":
		var ev models.PlaybackEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("failed to unmarshal playback event: %w", err)
		}
		return c.monitor.HandlePlayback(ev)
	case "control":
		var cmd models.ControlCommand
		if err := json.Unmarshal(payload, &cmd); err != nil {
			return fmt.Errorf("failed to unmarshal control command: %w", err)
		}
		return c.handleControl(cmd)
	default:
		return fmt.Errorf("unsupported topic kind %q", kind)
	}
}

func (c *MQTTConsumer) handleControl(cmd models.ControlCommand) error {
	switch cmd.Action {
	case "start":
		c.monitor.Start()
	case "stop":
		c.monitor.Stop()
	case "clear":
		c.monitor.ClearData()
	case "visibility":
		if cmd.Hidden == nil {
			return fmt.Errorf("visibility command without hidden")
		}
		c.monitor.SetHidden(*cmd.Hidden)
	case "excursion":
		kind, err := signal.ParseExcursionKind(cmd.Kind)
		if err != nil {
			return err
		}
		return c.monitor.StartExcursion(kind)
	default:
		return fmt.Errorf("unknown control action %q", cmd.Action)
	}

	c.logger.Info("Control command applied", zap.String("action", cmd.Action))
	return nil
}
