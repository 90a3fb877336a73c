package store

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// Visit is one tracked page view. The client address is only kept hashed.
type Visit struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// RecordVisit stores a page view.
func (s *Store) RecordVisit(ctx context.Context, v Visit) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Store.RecordVisit")
	defer span.End()
	if v.Timestamp.IsZero() {
		v.Timestamp = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO visitors (hashed_ip, user_agent, path, created_at) VALUES (?, ?, ?, ?)`,
		v.HashedIP, v.UserAgent, v.Path, v.Timestamp.Unix())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to record visit: %w", err)
	}
	return nil
}

// PruneVisits deletes visits older than cutoff and reports how many were removed.
func (s *Store) PruneVisits(ctx context.Context, cutoff time.Time) (int64, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Store.PruneVisits")
	defer span.End()
	res, err := s.db.ExecContext(ctx, `DELETE FROM visitors WHERE created_at < ?`, cutoff.Unix())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return 0, fmt.Errorf("failed to prune visitors: %w", err)
	}
	n, _ := res.RowsAffected()
	span.SetAttributes(attribute.Int64("rows_deleted", n))
	return n, nil
}

// RecentVisits returns the newest visits first.
func (s *Store) RecentVisits(ctx context.Context, limit int) ([]Visit, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Store.RecentVisits")
	defer span.End()
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, hashed_ip, COALESCE(user_agent, ''), COALESCE(path, ''), created_at
		FROM visitors
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query visitors: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var (
			v  Visit
			ts int64
		)
		if err := rows.Scan(&v.ID, &v.HashedIP, &v.UserAgent, &v.Path, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan visitor: %w", err)
		}
		v.Timestamp = time.Unix(ts, 0)
		visits = append(visits, v)
	}
	return visits, rows.Err()
}
