package contact

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dipan-dev/portfolio/internal/store"
	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"
)

func runTestNATSServer(t *testing.T) *natsserver.Server {
	t.Helper()
	server, err := natsserver.NewServer(&natsserver.Options{Host: "127.0.0.1", Port: -1})
	if err != nil {
		t.Fatalf("failed to create NATS server: %v", err)
	}
	go server.Start()
	if !server.ReadyForConnections(5 * time.Second) {
		t.Fatal("NATS server not ready")
	}
	t.Cleanup(server.Shutdown)
	return server
}

func TestPublisherNotify(t *testing.T) {
	server := runTestNATSServer(t)

	sub, err := nats.Connect(server.ClientURL())
	if err != nil {
		t.Fatalf("failed to connect subscriber: %v", err)
	}
	defer sub.Close()
	msgs := make(chan *nats.Msg, 1)
	if _, err := sub.ChanSubscribe("portfolio.contact", msgs); err != nil {
		t.Fatalf("failed to subscribe: %v", err)
	}
	if err := sub.Flush(); err != nil {
		t.Fatal(err)
	}

	p, err := NewPublisher(server.ClientURL(), "portfolio.contact")
	if err != nil {
		t.Fatalf("NewPublisher() error = %v", err)
	}
	defer p.Close()

	in := store.Message{ID: "m1", Name: "Ana", Email: "ana@example.com", Body: "hi", HashedIP: "abcd", CreatedAt: time.Unix(1718452800, 0).UTC()}
	if err := p.Notify(context.Background(), in); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	select {
	case msg := <-msgs:
		var got store.Message
		if err := json.Unmarshal(msg.Data, &got); err != nil {
			t.Fatalf("failed to decode payload: %v", err)
		}
		if got.ID != "m1" || got.Body != "hi" || got.HashedIP != "" {
			t.Errorf("published %+v", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestNewPublisherUnreachable(t *testing.T) {
	if _, err := NewPublisher("nats://127.0.0.1:1", "x"); err == nil {
		t.Error("NewPublisher() error = nil for an unreachable server")
	}
}
