package contact

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dipan-dev/portfolio/internal/store"
	"github.com/nats-io/nats.go"
)

// Publisher announces messages on a NATS subject as JSON.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

func NewPublisher(url, subject string) (*Publisher, error) {
	nc, err := nats.Connect(url, nats.Name("portfolio"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return &Publisher{nc: nc, subject: subject}, nil
}

func (p *Publisher) Notify(_ context.Context, m store.Message) error {
	m.HashedIP = ""
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("failed to publish to NATS: %w", err)
	}
	return nil
}

func (p *Publisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
	}
}
