package kiosk

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"gameroom-kiosk/internal/events"
)

type recordingSink struct {
	mu    sync.Mutex
	types []string
}

func (s *recordingSink) Publish(ctx context.Context, event events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types = append(s.types, event.Type)
	return nil
}

func (s *recordingSink) has(eventType string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, seen := range s.types {
		if seen == eventType {
			return true
		}
	}
	return false
}

func TestPollerScanThenDuplicate(t *testing.T) {
	poller, _, _ := startPoller(t, newFakeAPI(), Options{})
	ctx := context.Background()

	if _, err := poller.Scan(ctx, "W1"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	snap := poller.Snapshot()
	if len(snap.Players) != 1 || snap.Players[0].WristbandID != "W1" {
		t.Fatalf("unexpected players %#v", snap.Players)
	}
	if !snap.StartEnabled {
		t.Fatal("expected start enabled after scan")
	}
	if snap.Players[0].Name != "Player W1" {
		t.Fatalf("unexpected player name %q", snap.Players[0].Name)
	}

	if _, err := poller.Scan(ctx, "W1"); !errors.Is(err, ErrDuplicateScan) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	if got := len(poller.Snapshot().Players); got != 1 {
		t.Fatalf("expected scan list unchanged, got %d", got)
	}
}

func TestPollerRejectsSixthScan(t *testing.T) {
	poller, _, _ := startPoller(t, newFakeAPI(), Options{})
	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		if _, err := poller.Scan(ctx, fmt.Sprintf("W%d", i)); err != nil {
			t.Fatalf("scan %d: %v", i, err)
		}
	}
	if _, err := poller.Scan(ctx, "W6"); !errors.Is(err, ErrSessionFull) {
		t.Fatalf("expected full, got %v", err)
	}
	if got := len(poller.Snapshot().Players); got != 5 {
		t.Fatalf("expected five players, got %d", got)
	}
}

func TestPollerLookupFailureKeepsState(t *testing.T) {
	api := newFakeAPI()
	api.lookupErr = errNetwork
	poller, _, _ := startPoller(t, api, Options{})

	if _, err := poller.Scan(context.Background(), "W1"); !errors.Is(err, errNetwork) {
		t.Fatalf("expected network error, got %v", err)
	}
	snap := poller.Snapshot()
	if len(snap.Players) != 0 || snap.State != StateAwaitingScan {
		t.Fatalf("expected untouched session, got %#v", snap)
	}
}

func TestPollerLoadFailureShowsInlineError(t *testing.T) {
	api := newFakeAPI()
	api.gameErr = fmt.Errorf("lookup: %w", errNetwork)
	poller, _, _ := startPoller(t, api, Options{})

	snap := poller.Snapshot()
	if snap.Error == "" {
		t.Fatal("expected inline load error")
	}
	if snap.HighScores.Today != "900" {
		t.Fatalf("expected high scores to load independently, got %#v", snap.HighScores)
	}
	if _, err := poller.Scan(context.Background(), "W1"); !errors.Is(err, ErrGameNotLoaded) {
		t.Fatalf("expected game not loaded, got %v", err)
	}
}

func TestPollerStartRunFinishReload(t *testing.T) {
	api := newFakeAPI()
	sink := &recordingSink{}
	poller, clock, _ := startPoller(t, api, Options{Events: sink})
	ctx := context.Background()

	reloads := make(chan Snapshot, 4)
	unsubscribe := poller.Subscribe(func(snap Snapshot) {
		if snap.Reload {
			reloads <- snap
		}
	})
	t.Cleanup(unsubscribe)

	if _, err := poller.Scan(ctx, "W1"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	firstSession := poller.Snapshot().SessionID

	result, err := poller.Start(ctx)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if result.Message != "started Classic" {
		t.Fatalf("unexpected start message %q", result.Message)
	}
	if snap := poller.Snapshot(); snap.State != StateRunning || snap.StartEnabled {
		t.Fatalf("expected running with start disabled, got %#v", snap)
	}
	if _, err := poller.Start(ctx); !errors.Is(err, ErrStartDisabled) {
		t.Fatalf("expected second start to be refused, got %v", err)
	}

	api.set(func(f *fakeAPI) { f.status = "Running" })
	tickUntil(t, clock, "running status", func() bool {
		return poller.Snapshot().Status == StatusRunning
	})
	if poller.Snapshot().StartEnabled {
		t.Fatal("expected start disabled while game runs")
	}

	api.set(func(f *fakeAPI) { f.status = "Finished" })
	tickUntil(t, clock, "finished state", func() bool {
		return poller.Snapshot().State == StateFinished
	})
	finished := poller.Snapshot()
	if finished.ReloadAt == nil {
		t.Fatal("expected reload deadline")
	}
	remaining := finished.ReloadAt.Sub(clock.Now())
	if remaining <= 0 || remaining > DefaultReloadDelay {
		t.Fatalf("unexpected reload countdown %s", remaining)
	}

	clock.Advance(remaining - time.Millisecond)
	if poller.Snapshot().SessionID != firstSession {
		t.Fatal("session reloaded before the delay elapsed")
	}
	clock.Advance(time.Millisecond)

	select {
	case snap := <-reloads:
		if snap.SessionID == firstSession {
			t.Fatal("expected a fresh session after reload")
		}
		if len(snap.Players) != 0 || snap.State != StateAwaitingScan {
			t.Fatalf("expected empty session after reload, got %#v", snap)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("expected reload after the delay")
	}
	for _, eventType := range []string{events.TypeScanAccepted, events.TypeGameStarted, events.TypeGameFinished, events.TypeSessionReloaded} {
		if !sink.has(eventType) {
			t.Fatalf("expected %s event", eventType)
		}
	}
}

func TestPollerStatusFailureKeepsPolling(t *testing.T) {
	api := newFakeAPI()
	api.statusErr = errNetwork
	poller, clock, _ := startPoller(t, api, Options{})

	if _, err := poller.Scan(context.Background(), "W1"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	before := poller.Snapshot()
	tickUntil(t, clock, "repeated failing polls", func() bool {
		return api.calls() >= 3
	})
	after := poller.Snapshot()
	if after.State != before.State || after.Status != before.Status || !after.StartEnabled {
		t.Fatalf("expected state unchanged after failed polls, got %#v", after)
	}

	api.set(func(f *fakeAPI) {
		f.statusErr = nil
		f.status = "Running"
	})
	tickUntil(t, clock, "recovery", func() bool {
		return poller.Snapshot().Status == StatusRunning
	})
}

func TestPollerSurvivesPanickingStatusCall(t *testing.T) {
	api := newFakeAPI()
	api.statusPanic = true
	poller, clock, _ := startPoller(t, api, Options{})

	if _, err := poller.Scan(context.Background(), "W1"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	tickUntil(t, clock, "panicking polls", func() bool {
		return api.calls() >= 2
	})
	if _, err := poller.Scan(context.Background(), "W2"); err != nil {
		t.Fatalf("expected loop to keep serving, got %v", err)
	}
}

func TestPollerStartFailureReenablesStart(t *testing.T) {
	api := newFakeAPI()
	api.startErr = errNetwork
	poller, _, _ := startPoller(t, api, Options{})
	ctx := context.Background()

	if _, err := poller.Scan(ctx, "W1"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if _, err := poller.Start(ctx); !errors.Is(err, errNetwork) {
		t.Fatalf("expected start failure, got %v", err)
	}
	snap := poller.Snapshot()
	if snap.State == StateRunning || !snap.StartEnabled {
		t.Fatalf("expected start to remain available, got %#v", snap)
	}
}

func TestPollerSelectVariant(t *testing.T) {
	api := newFakeAPI()
	poller, _, _ := startPoller(t, api, Options{})
	ctx := context.Background()

	if _, err := poller.Scan(ctx, "W1"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	variant, err := poller.SelectVariant(ctx, 2)
	if err != nil || variant.Name != "Hardcore" {
		t.Fatalf("unexpected variant %#v err=%v", variant, err)
	}
	snap := poller.Snapshot()
	selected, ok := snap.SelectedVariant()
	if !ok || selected.ID != 2 || snap.State != StateReadyToStart {
		t.Fatalf("unexpected snapshot %#v", snap)
	}
	if _, err := poller.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	api.set(func(f *fakeAPI) {
		if len(f.starts) != 1 || f.starts[0] != "Hardcore" {
			t.Errorf("unexpected starts %#v", f.starts)
		}
	})
}

func TestPollerTeardownReleasesResources(t *testing.T) {
	bridge := NewBridge()
	socket := &fakeSocket{}
	poller, _, cancel := startPoller(t, newFakeAPI(), Options{
		Source:    bridge,
		SocketURL: "ws://10.0.0.250:8080",
		Dial: func(ctx context.Context, url string) (Socket, error) {
			return socket, nil
		},
	})

	if err := bridge.Publish(context.Background(), "LASER1", "W1"); err != nil {
		t.Fatalf("publish scan: %v", err)
	}
	if err := bridge.Publish(context.Background(), "LASER1", "W1"); !errors.Is(err, ErrDuplicateScan) {
		t.Fatalf("expected duplicate through bridge, got %v", err)
	}
	if got := len(poller.Snapshot().Players); got != 1 {
		t.Fatalf("expected one player, got %d", got)
	}

	cancel()
	select {
	case <-poller.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("poller did not stop")
	}
	if bridge.Subscribers("LASER1") != 0 {
		t.Fatal("expected scan subscription removed on teardown")
	}
	if !socket.isClosed() {
		t.Fatal("expected signal socket closed on teardown")
	}
	if _, err := poller.Scan(context.Background(), "W2"); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected closed session, got %v", err)
	}
	if err := bridge.Publish(context.Background(), "LASER1", "W2"); !errors.Is(err, ErrNoSubscriber) {
		t.Fatalf("expected no subscriber, got %v", err)
	}
}

func TestPollerForeignRunKeepsWaitingPlayers(t *testing.T) {
	api := newFakeAPI()
	api.status = "Running"
	poller, clock, _ := startPoller(t, api, Options{})
	ctx := context.Background()

	if _, err := poller.Scan(ctx, "W1"); err != nil {
		t.Fatalf("scan: %v", err)
	}
	session := poller.Snapshot().SessionID
	tickUntil(t, clock, "foreign running status", func() bool {
		return poller.Snapshot().Status == StatusRunning
	})
	snap := poller.Snapshot()
	if snap.State != StateScanning || snap.StartEnabled {
		t.Fatalf("expected scanning with start disabled, got %s start=%v", snap.State, snap.StartEnabled)
	}

	api.set(func(f *fakeAPI) { f.status = "Idle" })
	tickUntil(t, clock, "idle status", func() bool {
		return poller.Snapshot().Status == StatusIdle
	})
	snap = poller.Snapshot()
	if snap.State != StateScanning || snap.ReloadAt != nil {
		t.Fatalf("expected no finish for a game this kiosk never started, got %s reload=%v", snap.State, snap.ReloadAt)
	}
	if !snap.StartEnabled {
		t.Fatal("expected start enabled once the other game ended")
	}

	clock.Advance(DefaultReloadDelay + time.Second)
	if _, err := poller.SelectVariant(ctx, 1); err != nil {
		t.Fatalf("select variant: %v", err)
	}
	snap = poller.Snapshot()
	if snap.SessionID != session || len(snap.Players) != 1 {
		t.Fatalf("expected the same session with its player, got %s with %d players", snap.SessionID, len(snap.Players))
	}
	if _, err := poller.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
}
