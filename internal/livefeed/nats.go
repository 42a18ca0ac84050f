package livefeed

import (
	"fmt"

	"github.com/nats-io/nats.go"
)

// Publisher republishes decoded ITCH ticks on a NATS subject,
// grounded on the nats.go client listed in the teacher's go.mod
// (never wired into its own WebSocket/Kafka fan-out) — here used as
// the actual transport for itchyserv's --nats-subject live fan-out.
type Publisher struct {
	conn    *nats.Conn
	subject string
}

// Connect dials url and returns a Publisher bound to subject.
func Connect(url, subject string) (*Publisher, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("livefeed: nats connect: %w", err)
	}
	return &Publisher{conn: conn, subject: subject}, nil
}

// Publish sends payload on the configured subject.
func (p *Publisher) Publish(payload []byte) error {
	return p.conn.Publish(p.subject, payload)
}

// Close flushes pending publishes and closes the connection.
func (p *Publisher) Close() {
	p.conn.Flush()
	p.conn.Close()
}
