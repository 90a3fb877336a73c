package contact

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dipan-dev/portfolio/internal/store"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"k8s.io/utils/clock"
)

var (
	ErrInvalid     = errors.New("invalid contact form")
	ErrRateLimited = errors.New("too many contact messages")
)

const maxTrackedClients = 4096

// Saver persists contact messages.
type Saver interface {
	SaveMessage(ctx context.Context, m store.Message) error
}

// Notifier is told about every accepted message.
type Notifier interface {
	Notify(ctx context.Context, m store.Message) error
}

type Option func(*Service)

// WithClock replaces the clock used for throttling and timestamps.
func WithClock(clk clock.PassiveClock) Option {
	return func(s *Service) { s.clk = clk }
}

// WithLimit sets the per-client refill interval and burst.
func WithLimit(interval time.Duration, burst int) Option {
	return func(s *Service) {
		if interval > 0 {
			s.interval = interval
		}
		if burst > 0 {
			s.burst = burst
		}
	}
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) {
		if n != nil {
			s.notifiers = append(s.notifiers, n)
		}
	}
}

// Service accepts contact submissions.
type Service struct {
	saver     Saver
	notifiers []Notifier
	clk       clock.PassiveClock
	interval  time.Duration
	burst     int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewService(saver Saver, opts ...Option) *Service {
	s := &Service{
		saver:    saver,
		clk:      clock.RealClock{},
		interval: 10 * time.Minute,
		burst:    3,
		limiters: make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates, throttles, stores and announces a message from clientKey.
// Notification failures are logged and do not fail the submission.
func (s *Service) Submit(ctx context.Context, clientKey string, f Form) (store.Message, error) {
	f = f.Normalize()
	if err := f.Validate(); err != nil {
		return store.Message{}, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	now := s.clk.Now()
	if !s.allow(clientKey, now) {
		return store.Message{}, ErrRateLimited
	}

	m := store.Message{
		ID:        uuid.NewString(),
		Name:      f.Name,
		Email:     f.Email,
		Body:      f.Message,
		HashedIP:  clientKey,
		CreatedAt: now,
	}
	if err := s.saver.SaveMessage(ctx, m); err != nil {
		return store.Message{}, err
	}
	for _, n := range s.notifiers {
		if err := n.Notify(ctx, m); err != nil {
			slog.Error("Failed to deliver contact notification", "id", m.ID, "notifier", fmt.Sprintf("%T", n), "error", err)
		}
	}
	slog.Info("Contact message accepted", "id", m.ID)
	return m, nil
}

func (s *Service) allow(key string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[key]
	if !ok {
		if len(s.limiters) >= maxTrackedClients {
			s.forgetIdle(now)
		}
		l = rate.NewLimiter(rate.Every(s.interval), s.burst)
		s.limiters[key] = l
	}
	return l.AllowN(now, 1)
}

// forgetIdle drops limiters that have refilled completely. Callers hold s.mu.
func (s *Service) forgetIdle(now time.Time) {
	for k, l := range s.limiters {
		if l.TokensAt(now) >= float64(s.burst) {
			delete(s.limiters, k)
		}
	}
}
