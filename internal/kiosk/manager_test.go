package kiosk

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

func TestManagerOpenReusesSession(t *testing.T) {
	bridge := NewBridge()
	manager := NewManager(newFakeAPI(), Options{Source: bridge, Clock: clockwork.NewFakeClock()})
	t.Cleanup(func() { _ = manager.Shutdown(context.Background()) })

	first, err := manager.Open("LASER1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	second, err := manager.Open("LASER1")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if first != second {
		t.Fatal("expected the same poller for one game code")
	}
	if _, err := manager.Open(" "); !errors.Is(err, ErrInvalidGameCode) {
		t.Fatalf("expected invalid code, got %v", err)
	}
	<-first.Ready()
	if bridge.Subscribers("LASER1") != 1 {
		t.Fatalf("expected one subscriber, got %d", bridge.Subscribers("LASER1"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if !manager.Close(ctx, "LASER1") {
		t.Fatal("expected close to find the session")
	}
	select {
	case <-first.Done():
	default:
		t.Fatal("expected poller stopped after close")
	}
	if bridge.Subscribers("LASER1") != 0 {
		t.Fatal("expected subscription released")
	}
	if manager.Close(ctx, "LASER1") {
		t.Fatal("expected second close to report missing session")
	}
}

func TestManagerShutdownStopsAll(t *testing.T) {
	manager := NewManager(newFakeAPI(), Options{Clock: clockwork.NewFakeClock()})
	a, _ := manager.Open("LASER1")
	b, _ := manager.Open("ARCADE2")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := manager.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
	for _, poller := range []*Poller{a, b} {
		select {
		case <-poller.Done():
		default:
			t.Fatalf("expected %s stopped", poller.GameCode())
		}
	}
	if _, err := manager.Open("LASER1"); !errors.Is(err, ErrSessionClosed) {
		t.Fatalf("expected open after shutdown to fail, got %v", err)
	}
}

func TestManagerReopenRetriesFailedLoad(t *testing.T) {
	api := newFakeAPI()
	api.gameErr = errNetwork
	manager := NewManager(api, Options{Clock: clockwork.NewFakeClock()})
	t.Cleanup(func() { _ = manager.Shutdown(context.Background()) })

	failed, err := manager.Open("LASER1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	<-failed.Ready()
	if failed.Snapshot().Error == "" {
		t.Fatal("expected load error on first open")
	}

	api.set(func(f *fakeAPI) { f.gameErr = nil })
	retried, err := manager.Open("LASER1")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if retried == failed {
		t.Fatal("expected a failed session to be replaced on reopen")
	}
	select {
	case <-failed.Done():
	default:
		t.Fatal("expected the failed session stopped")
	}
	<-retried.Ready()
	if msg := retried.Snapshot().Error; msg != "" {
		t.Fatalf("expected clean load, got %q", msg)
	}
	if _, err := retried.Scan(context.Background(), "W1"); err != nil {
		t.Fatalf("scan after retry: %v", err)
	}
	api.set(func(f *fakeAPI) {
		if f.loads != 2 {
			t.Errorf("expected two game lookups, got %d", f.loads)
		}
	})

	again, err := manager.Open("LASER1")
	if err != nil || again != retried {
		t.Fatalf("expected a healthy session to be reused, got %v", err)
	}
}
