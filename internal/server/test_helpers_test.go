package server

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"gameroom-kiosk/internal/config"
	"gameroom-kiosk/internal/events"

	"gorm.io/gorm"
)

func newTestServer(t *testing.T, handler http.Handler) *httptest.Server {
	t.Helper()
	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	if err != nil {
		t.Skipf("skipping test; listen unavailable: %v", err)
	}
	ts := &httptest.Server{
		Listener: listener,
		Config:   &http.Server{Handler: handler},
	}
	ts.Start()
	return ts
}

// startServer runs a Server against api and tears it down with the test.
func startServer(t *testing.T, conn *gorm.DB, api *fakeAPI) (*Server, *httptest.Server) {
	t.Helper()
	return startServerWith(t, conn, api, nil)
}

// startServerWith lets configure adjust the Server before it starts serving.
func startServerWith(t *testing.T, conn *gorm.DB, api *fakeAPI, configure func(*Server)) (*Server, *httptest.Server) {
	t.Helper()
	cfg := config.Default()
	cfg.ReloadDelaySeconds = 1
	srv := New(conn, cfg, api, events.Discard{})
	if configure != nil {
		configure(srv)
	}
	ts := newTestServer(t, srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv, ts
}
