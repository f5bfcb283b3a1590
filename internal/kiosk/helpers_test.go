package kiosk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gameroom-kiosk/internal/gameroom"

	"github.com/jonboulle/clockwork"
)

var errNetwork = errors.New("connection refused")

type fakeAPI struct {
	mu          sync.Mutex
	game        gameroom.Game
	gameErr     error
	lookupErr   error
	status      string
	statusErr   error
	statusPanic bool
	statusCalls int
	startErr    error
	starts      []string
	loads       int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{game: testGame()}
}

func (f *fakeAPI) FindGame(ctx context.Context, gameCode string) (gameroom.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.gameErr != nil {
		return gameroom.Game{}, f.gameErr
	}
	return f.game, nil
}

func (f *fakeAPI) PlaySummary(ctx context.Context, wristbandID string) (gameroom.PlayerSummary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.lookupErr != nil {
		return gameroom.PlayerSummary{}, f.lookupErr
	}
	return gameroom.PlayerSummary{
		Player:     &gameroom.Player{FirstName: "Player", LastName: wristbandID},
		TimeLeft:   "10:00",
		TotalScore: "100",
	}, nil
}

func (f *fakeAPI) GameStatus(ctx context.Context, gameCode string, addr gameroom.Address) (gameroom.GameStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.statusPanic {
		panic("controller exploded")
	}
	if f.statusErr != nil {
		return gameroom.GameStatus{}, f.statusErr
	}
	return gameroom.GameStatus{Status: f.status}, nil
}

func (f *fakeAPI) StartGame(ctx context.Context, gameCode, variantCode string, addr gameroom.Address) (gameroom.StartResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return gameroom.StartResult{}, f.startErr
	}
	f.starts = append(f.starts, variantCode)
	return gameroom.StartResult{Message: "started " + variantCode}, nil
}

func (f *fakeAPI) HighestScores(ctx context.Context) (gameroom.HighScores, error) {
	return gameroom.HighScores{HighestToday: "900", Highest90Days: "1200"}, nil
}

func (f *fakeAPI) set(update func(f *fakeAPI)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	update(f)
}

func (f *fakeAPI) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusCalls
}

type fakeSocket struct {
	mu     sync.Mutex
	closed bool
}

func (s *fakeSocket) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSocket) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func startPoller(t *testing.T, api API, opts Options) (*Poller, *clockwork.FakeClock, context.CancelFunc) {
	t.Helper()
	clock := clockwork.NewFakeClock()
	opts.Clock = clock
	if opts.Dial == nil {
		opts.Dial = func(ctx context.Context, url string) (Socket, error) {
			return nil, errNetwork
		}
	}
	poller := NewPoller("LASER1", api, opts)
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = poller.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-poller.Done()
	})
	select {
	case <-poller.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("poller never became ready")
	}
	return poller, clock, cancel
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// tickUntil advances the fake clock one poll interval at a time until cond holds.
func tickUntil(t *testing.T, clock *clockwork.FakeClock, what string, cond func() bool) {
	t.Helper()
	waitFor(t, what, func() bool {
		if cond() {
			return true
		}
		clock.Advance(DefaultPollInterval)
		return cond()
	})
}
