package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultAsyncBuffer  = 256
	asyncPublishTimeout = 2 * time.Second
)

var ErrPublisherClosed = errors.New("event publisher closed")

// Async hands events to next from a single background goroutine so callers
// never wait on a slow broker or database. When the buffer is full the event
// is dropped and logged.
type Async struct {
	next  Publisher
	queue chan Event
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

func NewAsync(next Publisher, buffer int) *Async {
	if buffer <= 0 {
		buffer = DefaultAsyncBuffer
	}
	a := &Async{
		next:  next,
		queue: make(chan Event, buffer),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *Async) Publish(_ context.Context, event Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrPublisherClosed
	}
	select {
	case a.queue <- event:
		return nil
	default:
		log.Warn().Str("event", event.Type).Str("game_code", event.GameCode).Msg("event buffer full, dropping")
		return nil
	}
}

func (a *Async) run() {
	defer close(a.done)
	for event := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), asyncPublishTimeout)
		if err := a.next.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Str("event", event.Type).Str("game_code", event.GameCode).Msg("event publish failed")
		}
		cancel()
	}
}

// Close stops accepting events and waits for the queued ones to be delivered
// or for ctx to end.
func (a *Async) Close(ctx context.Context) error {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	select {
	case <-a.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
