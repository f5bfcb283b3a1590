package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestKioskWebsocketPushesSnapshots(t *testing.T) {
	_, ts := startServer(t, nil, newFakeAPI())

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/kiosk/LASER1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	var first map[string]any
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}
	if first["game_code"] != "LASER1" {
		t.Fatalf("unexpected initial snapshot %#v", first)
	}

	expectStatus(t, scan(t, ts, "LASER1", "W1"), http.StatusOK)

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		_ = conn.SetReadDeadline(deadline)
		_, data, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read update: %v", err)
		}
		var snap map[string]any
		if err := json.Unmarshal(data, &snap); err != nil {
			t.Fatalf("decode update: %v", err)
		}
		if players, ok := snap["players"].([]any); ok && len(players) == 1 {
			return
		}
	}
	t.Fatal("expected a pushed snapshot with the scanned player")
}

func TestKioskWebsocketRequiresGameCode(t *testing.T) {
	_, ts := startServer(t, nil, newFakeAPI())
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/kiosk/%20"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected dial to be refused")
	}
	if resp != nil && resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func hasSession(srv *Server, gameCode string) bool {
	_, ok := srv.manager.Get(gameCode)
	return ok
}

func TestKioskSessionClosedWhenLastBrowserLeaves(t *testing.T) {
	srv, ts := startServerWith(t, nil, newFakeAPI(), func(srv *Server) {
		srv.idleAfter = 50 * time.Millisecond
	})

	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/kiosk/LASER1"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var first map[string]any
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read initial snapshot: %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	if !hasSession(srv, "LASER1") {
		t.Fatal("expected session kept while a browser is attached")
	}

	_ = conn.Close()
	waitFor(t, "idle session teardown", func() bool {
		return !hasSession(srv, "LASER1") && srv.Bridge().Subscribers("LASER1") == 0
	})
}

func TestKioskSessionOpenedWithoutBrowserIsReaped(t *testing.T) {
	srv, ts := startServerWith(t, nil, newFakeAPI(), func(srv *Server) {
		srv.idleAfter = 50 * time.Millisecond
	})

	expectStatus(t, doRequest(t, ts, http.MethodGet, "/api/kiosk/LASER1", nil), http.StatusOK)
	waitFor(t, "idle session teardown", func() bool {
		return !hasSession(srv, "LASER1")
	})
}

func TestDefaultKioskSessionIsNeverReaped(t *testing.T) {
	srv, ts := startServerWith(t, nil, newFakeAPI(), func(srv *Server) {
		srv.idleAfter = 50 * time.Millisecond
		srv.cfg.DefaultGameCode = "LASER1"
	})

	expectStatus(t, doRequest(t, ts, http.MethodGet, "/api/kiosk/LASER1", nil), http.StatusOK)
	time.Sleep(200 * time.Millisecond)
	if !hasSession(srv, "LASER1") {
		t.Fatal("expected the terminal's default session to stay open")
	}
}
