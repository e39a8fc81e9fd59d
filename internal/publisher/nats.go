package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"wisefido-vitalsim/common/config"
	"wisefido-vitalsim/internal/models"
)

const DefaultNATSSubject = "vitals.params"

// NATSConn the publish call; *nats.Conn satisfies it
type NATSConn interface {
	Publish(subject string, data []byte) error
}

// ConnectNATS dials the server with reconnect logging
func ConnectNATS(cfg *config.NATSConfig, logger *zap.Logger) (*nats.Conn, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", zap.Error(err))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}
	return nc, nil
}

// NATSSink publishes the compact parameter message for each reading
type NATSSink struct {
	conn    NATSConn
	subject string
}

func NewNATSSink(conn NATSConn, subject string) *NATSSink {
	if subject == "" {
		subject = DefaultNATSSubject
	}
	return &NATSSink{conn: conn, subject: subject}
}

func (s *NATSSink) Publish(_ context.Context, r models.Reading) error {
	data, err := json.Marshal(models.NewParamMessage(s.subject, r))
	if err != nil {
		return fmt.Errorf("failed to marshal param message: %w", err)
	}
	if err := s.conn.Publish(s.subject, data); err != nil {
		return fmt.Errorf("failed to publish to nats: %w", err)
	}
	return nil
}
