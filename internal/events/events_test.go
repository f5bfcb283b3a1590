package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"gameroom-kiosk/internal/db"
)

type recorder struct {
	events []Event
	err    error
}

func (r *recorder) Publish(ctx context.Context, event Event) error {
	r.events = append(r.events, event)
	return r.err
}

func TestNewAssignsIdentity(t *testing.T) {
	a := New(TypeScanAccepted, "LASER1", "s1", nil)
	b := New(TypeScanAccepted, "LASER1", "s1", nil)
	if a.ID == "" || a.ID == b.ID {
		t.Fatalf("expected unique ids, got %q and %q", a.ID, b.ID)
	}
	if a.At.IsZero() {
		t.Fatal("expected timestamp")
	}
}

func TestMultiDeliversPastFailures(t *testing.T) {
	failing := &recorder{err: errors.New("broker down")}
	healthy := &recorder{}
	multi := Multi{failing, nil, healthy}

	if err := multi.Publish(context.Background(), New(TypeGameStarted, "LASER1", "s1", nil)); err != nil {
		t.Fatalf("expected failures to be swallowed, got %v", err)
	}
	if len(failing.events) != 1 || len(healthy.events) != 1 {
		t.Fatalf("expected both publishers called, got %d and %d", len(failing.events), len(healthy.events))
	}
}

func TestNATSSubject(t *testing.T) {
	publisher := NewNATSPublisher(nil, "")
	if got := publisher.Subject(TypeGameFinished); got != "kiosk.game_finished" {
		t.Fatalf("unexpected subject %q", got)
	}
	publisher = NewNATSPublisher(nil, "arcade.kiosk")
	if got := publisher.Subject(TypeScanAccepted); got != "arcade.kiosk.scan_accepted" {
		t.Fatalf("unexpected subject %q", got)
	}
}

func TestStorePublisherWithoutDatabase(t *testing.T) {
	if err := NewStorePublisher(nil).Publish(context.Background(), New(TypeSessionOpened, "LASER1", "s1", nil)); err != nil {
		t.Fatalf("expected nil-db publish to be a no-op, got %v", err)
	}
}

func TestStorePublisherPersistsEvent(t *testing.T) {
	conn, err := db.Open("sqlite", "file:events_store?mode=memory&cache=shared")
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Skipf("sqlite migrate failed: %v", err)
	}
	ctx := context.Background()
	event := New(TypeScanAccepted, "LASER1", "s1", map[string]any{"wristband_id": "W1"})
	if err := NewStorePublisher(conn).Publish(ctx, event); err != nil {
		t.Fatalf("publish: %v", err)
	}
	records, err := db.RecentKioskEvents(ctx, conn, "LASER1", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 1 || records[0].EventID != event.ID || records[0].SessionID != "s1" {
		t.Fatalf("unexpected records %#v", records)
	}
	var payload map[string]string
	if err := json.Unmarshal(records[0].Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["wristband_id"] != "W1" {
		t.Fatalf("unexpected payload %#v", payload)
	}
}

type blockingPublisher struct {
	release chan struct{}
	mu      sync.Mutex
	count   int
}

func (b *blockingPublisher) Publish(ctx context.Context, event Event) error {
	<-b.release
	b.mu.Lock()
	b.count++
	b.mu.Unlock()
	return nil
}

func TestAsyncDeliversInOrderAndDrainsOnClose(t *testing.T) {
	next := &recorder{}
	async := NewAsync(next, 8)
	for _, eventType := range []string{TypeSessionOpened, TypeScanAccepted, TypeSessionClosed} {
		if err := async.Publish(context.Background(), New(eventType, "LASER1", "s1", nil)); err != nil {
			t.Fatalf("publish %s: %v", eventType, err)
		}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := async.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	if len(next.events) != 3 || next.events[2].Type != TypeSessionClosed {
		t.Fatalf("expected three events in order, got %#v", next.events)
	}
	if err := async.Publish(context.Background(), New(TypeScanAccepted, "LASER1", "s1", nil)); !errors.Is(err, ErrPublisherClosed) {
		t.Fatalf("expected closed publisher error, got %v", err)
	}
	if err := async.Close(ctx); err != nil {
		t.Fatalf("second close: %v", err)
	}
}

func TestAsyncNeverBlocksCaller(t *testing.T) {
	next := &blockingPublisher{release: make(chan struct{})}
	async := NewAsync(next, 1)

	returned := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			_ = async.Publish(context.Background(), New(TypeScanAccepted, "LASER1", "s1", nil))
		}
		close(returned)
	}()
	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a stalled downstream publisher")
	}

	close(next.release)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := async.Close(ctx); err != nil {
		t.Fatalf("close: %v", err)
	}
	next.mu.Lock()
	defer next.mu.Unlock()
	if next.count < 1 || next.count > 5 {
		t.Fatalf("unexpected delivered count %d", next.count)
	}
}
