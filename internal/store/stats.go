package store

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
)

// Stats summarises traffic and messages for the admin dashboard.
type Stats struct {
	TotalVisitors    int64     `json:"total_visitors"`
	UniqueVisitors   int64     `json:"unique_visitors"`
	VisitorsToday    int64     `json:"visitors_today"`
	VisitorsThisWeek int64     `json:"visitors_this_week"`
	TotalMessages    int64     `json:"total_messages"`
	TopPaths         []Path    `json:"top_paths"`
	RecentVisitors   []Visit   `json:"recent_visitors"`
	RecentMessages   []Message `json:"recent_messages"`
}

// Path is a page and its view count.
type Path struct {
	Path  string `json:"path"`
	Views int64  `json:"views"`
}

// Stats computes dashboard figures relative to now.
func (s *Store) Stats(ctx context.Context, now time.Time) (*Stats, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "Store.Stats")
	defer span.End()

	stats := &Stats{}
	y, m, d := now.Date()
	startOfDay := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	weekAgo := now.Add(-7 * 24 * time.Hour)

	counts := []struct {
		dst   *int64
		query string
		args  []any
	}{
		{&stats.TotalVisitors, `SELECT COUNT(*) FROM visitors`, nil},
		{&stats.UniqueVisitors, `SELECT COUNT(DISTINCT hashed_ip) FROM visitors`, nil},
		{&stats.VisitorsToday, `SELECT COUNT(*) FROM visitors WHERE created_at >= ?`, []any{startOfDay.Unix()}},
		{&stats.VisitorsThisWeek, `SELECT COUNT(*) FROM visitors WHERE created_at >= ?`, []any{weekAgo.Unix()}},
		{&stats.TotalMessages, `SELECT COUNT(*) FROM messages`, nil},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dst); err != nil {
			return nil, fmt.Errorf("failed to compute stats: %w", err)
		}
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(path, ''), COUNT(*) AS views
		FROM visitors
		GROUP BY path
		ORDER BY views DESC, path ASC
		LIMIT 10`)
	if err != nil {
		return nil, fmt.Errorf("failed to query top paths: %w", err)
	}
	for rows.Next() {
		var p Path
		if err := rows.Scan(&p.Path, &p.Views); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan path: %w", err)
		}
		stats.TopPaths = append(stats.TopPaths, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if stats.RecentVisitors, err = s.RecentVisits(ctx, 50); err != nil {
		return nil, err
	}
	if stats.RecentMessages, err = s.ListMessages(ctx, 10); err != nil {
		return nil, err
	}
	return stats, nil
}
