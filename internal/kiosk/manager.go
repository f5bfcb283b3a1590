package kiosk

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
)

var ErrInvalidGameCode = errors.New("game code is required")

type managedPoller struct {
	poller *Poller
	cancel context.CancelFunc
}

// Manager runs one Poller per game code.
type Manager struct {
	api  API
	opts Options

	mu      sync.Mutex
	base    context.Context
	stop    context.CancelFunc
	pollers map[string]*managedPoller
}

func NewManager(api API, opts Options) *Manager {
	base, stop := context.WithCancel(context.Background())
	return &Manager{
		api:     api,
		opts:    opts,
		base:    base,
		stop:    stop,
		pollers: make(map[string]*managedPoller),
	}
}

// Open returns the running poller for gameCode, starting one if needed.
func (m *Manager) Open(gameCode string) (*Poller, error) {
	gameCode = strings.TrimSpace(gameCode)
	if gameCode == "" {
		return nil, ErrInvalidGameCode
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.base.Err() != nil {
		return nil, ErrSessionClosed
	}
	if existing, ok := m.pollers[gameCode]; ok {
		switch {
		case stopped(existing.poller):
			delete(m.pollers, gameCode)
		case loadFailed(existing.poller):
			// Reopening a kiosk whose game lookup failed retries the lookup.
			existing.cancel()
			<-existing.poller.Done()
			delete(m.pollers, gameCode)
			log.Info().Str("game_code", gameCode).Msg("retrying kiosk session after failed load")
		default:
			return existing.poller, nil
		}
	}

	ctx, cancel := context.WithCancel(m.base)
	poller := NewPoller(gameCode, m.api, m.opts)
	m.pollers[gameCode] = &managedPoller{poller: poller, cancel: cancel}
	go func() {
		if err := poller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Str("game_code", gameCode).Msg("kiosk session stopped")
		}
	}()
	log.Info().Str("game_code", gameCode).Msg("kiosk session opened")
	return poller, nil
}

func stopped(p *Poller) bool {
	select {
	case <-p.Done():
		return true
	default:
		return false
	}
}

func loadFailed(p *Poller) bool {
	select {
	case <-p.Ready():
		return p.Snapshot().Error != ""
	default:
		return false
	}
}

func (m *Manager) Get(gameCode string) (*Poller, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.pollers[gameCode]
	if !ok {
		return nil, false
	}
	return entry.poller, true
}

// Close tears down the session for gameCode and waits for its resources to
// be released.
func (m *Manager) Close(ctx context.Context, gameCode string) bool {
	m.mu.Lock()
	entry, ok := m.pollers[gameCode]
	if ok {
		delete(m.pollers, gameCode)
	}
	m.mu.Unlock()
	if !ok {
		return false
	}
	entry.cancel()
	select {
	case <-entry.poller.Done():
	case <-ctx.Done():
	}
	return true
}

func (m *Manager) GameCodes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	codes := make([]string, 0, len(m.pollers))
	for code := range m.pollers {
		codes = append(codes, code)
	}
	return codes
}

// Shutdown stops every session and waits until they are gone or ctx ends.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.stop()
	entries := make([]*managedPoller, 0, len(m.pollers))
	for code, entry := range m.pollers {
		entries = append(entries, entry)
		delete(m.pollers, code)
	}
	m.mu.Unlock()
	for _, entry := range entries {
		select {
		case <-entry.poller.Done():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
