package lobby

import (
	"context"
	"time"

	"github.com/hilthontt/duelrooms/internal/domain"
	"github.com/hilthontt/duelrooms/internal/infrastructure/logging"
)

// Observer receives lifecycle events once the room lock has been released.
// Observers run on the caller's goroutine.
type Observer interface {
	Observe(ctx context.Context, ev domain.RoomEvent)
}

type ObserverFunc func(ctx context.Context, ev domain.RoomEvent)

func (f ObserverFunc) Observe(ctx context.Context, ev domain.RoomEvent) { f(ctx, ev) }

type Option func(*Engine)

func WithTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithCodeGenerator(gen func() (string, error)) Option {
	return func(e *Engine) { e.newCode = gen }
}

func WithLogger(logger logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

func WithObservers(observers ...Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, observers...) }
}
