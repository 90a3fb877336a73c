package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// Message is a contact form submission.
type Message struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Body      string    `json:"message"`
	HashedIP  string    `json:"hashed_ip,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *Store) SaveMessage(ctx context.Context, m Message) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Store.SaveMessage")
	defer span.End()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, name, email, body, hashed_ip, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Name, m.Email, m.Body, m.HashedIP, m.CreatedAt.Unix())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to save message: %w", err)
	}
	return nil
}

func (s *Store) GetMessage(ctx context.Context, id string) (*Message, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Store.GetMessage")
	defer span.End()
	var (
		m  Message
		ts int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, body, COALESCE(hashed_ip, ''), created_at FROM messages WHERE id = ?`, id).
		Scan(&m.ID, &m.Name, &m.Email, &m.Body, &m.HashedIP, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	m.CreatedAt = time.Unix(ts, 0)
	return &m, nil
}

// ListMessages returns the newest messages first.
func (s *Store) ListMessages(ctx context.Context, limit int) ([]Message, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Store.ListMessages")
	defer span.End()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, body, COALESCE(hashed_ip, ''), created_at
		FROM messages
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var (
			m  Message
			ts int64
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Body, &m.HashedIP, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.CreatedAt = time.Unix(ts, 0)
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
