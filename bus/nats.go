package bus

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/healthq/healthq/logger"
)

const (
	connectTimeout = 5 * time.Second
	reconnectWait  = 1 * time.Second
	maxReconnects  = 10
)

// NATS publishes events to a NATS broker.
type NATS struct {
	conn *nats.Conn
	log  *logger.Logger
}

// ConnectNATS establishes the broker connection.
func ConnectNATS(url string, log *logger.Logger) (*NATS, error) {
	conn, err := nats.Connect(url,
		nats.Name("healthq"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to nats: %w", err)
	}

	return &NATS{conn: conn, log: log}, nil
}

// Publish marshals the payload and sends it. Failures are logged only.
func (b *NATS) Publish(subject string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		b.log.Error("failed to marshal event", "subject", subject, "error", err)
		return
	}

	if err := b.conn.Publish(subject, data); err != nil {
		b.log.Error("failed to publish event", "subject", subject, "error", err)
	}
}

// ConsumeAlerts subscribes to the alert subjects and logs inbound events.
// Analytics only; no processing happens here.
func (b *NATS) ConsumeAlerts() error {
	_, err := b.conn.Subscribe("healthq.alert.>", func(msg *nats.Msg) {
		b.log.Info("alert event received", "subject", msg.Subject, "payload", string(msg.Data))
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to alerts: %w", err)
	}
	return nil
}

func (b *NATS) Close() {
	b.conn.Drain()
}
