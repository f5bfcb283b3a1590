package kiosk

import (
	"context"
	"errors"
	"sync"
)

var ErrNoSubscriber = errors.New("no kiosk session is listening for this game")

// ScanHandler receives a wristband id tapped at a terminal.
type ScanHandler func(ctx context.Context, wristbandID string) error

// ScanSource delivers wristband taps to the session owning a game code.
// The returned function removes the subscription.
type ScanSource interface {
	Subscribe(gameCode string, handler ScanHandler) (unsubscribe func())
}

// Bridge is the in-process ScanSource fed by the terminal host application.
type Bridge struct {
	mu       sync.RWMutex
	next     int
	handlers map[string]map[int]ScanHandler
}

func NewBridge() *Bridge {
	return &Bridge{handlers: make(map[string]map[int]ScanHandler)}
}

func (b *Bridge) Subscribe(gameCode string, handler ScanHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.next
	b.next++
	group := b.handlers[gameCode]
	if group == nil {
		group = make(map[int]ScanHandler)
		b.handlers[gameCode] = group
	}
	group[id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.handlers[gameCode], id)
			if len(b.handlers[gameCode]) == 0 {
				delete(b.handlers, gameCode)
			}
		})
	}
}

// Publish hands a tap to every subscriber of gameCode and joins their errors.
func (b *Bridge) Publish(ctx context.Context, gameCode, wristbandID string) error {
	b.mu.RLock()
	handlers := make([]ScanHandler, 0, len(b.handlers[gameCode]))
	for _, handler := range b.handlers[gameCode] {
		handlers = append(handlers, handler)
	}
	b.mu.RUnlock()
	if len(handlers) == 0 {
		return ErrNoSubscriber
	}
	var errs []error
	for _, handler := range handlers {
		if err := handler(ctx, wristbandID); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Subscribers reports how many handlers listen on gameCode.
func (b *Bridge) Subscribers(gameCode string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[gameCode])
}
