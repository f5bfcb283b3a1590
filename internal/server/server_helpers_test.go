package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"gameroom-kiosk/internal/db"
	"gameroom-kiosk/internal/gameroom"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const testSignature = "data:image/png;base64,iVBORw0KGgoAAAANSUhEUgAAAAEAAAABCAQAAAC1HAwCAAAAC0lEQVR42mP8/x8AAwMBAp4pWZkAAAAASUVORK5CYII="

type fakeAPI struct {
	mu       sync.Mutex
	games    map[string]gameroom.Game
	status   string
	startErr error
	starts   []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		games: map[string]gameroom.Game{
			"LASER1": {
				ID:        1,
				GameCode:  "LASER1",
				GameName:  "Laser Maze",
				IPAddress: "10.0.0.7",
				LocalPort: "9100",
				Variants: []gameroom.Variant{
					{ID: 1, Name: "Classic", Instructions: "Avoid the beams"},
					{ID: 2, Name: "Hardcore", Instructions: "No second chances"},
				},
			},
		},
	}
}

func (f *fakeAPI) FindGame(ctx context.Context, gameCode string) (gameroom.Game, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	game, ok := f.games[gameCode]
	if !ok {
		return gameroom.Game{}, gameroom.ErrNotFound
	}
	return game, nil
}

func (f *fakeAPI) PlaySummary(ctx context.Context, wristbandID string) (gameroom.PlayerSummary, error) {
	if strings.HasPrefix(wristbandID, "UNKNOWN") {
		return gameroom.PlayerSummary{}, gameroom.ErrNotFound
	}
	return gameroom.PlayerSummary{
		Player:     &gameroom.Player{FirstName: "Player", LastName: wristbandID},
		TimeLeft:   "15:00",
		TotalScore: "250",
	}, nil
}

func (f *fakeAPI) GameStatus(ctx context.Context, gameCode string, addr gameroom.Address) (gameroom.GameStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return gameroom.GameStatus{Status: f.status}, nil
}

func (f *fakeAPI) StartGame(ctx context.Context, gameCode, variantCode string, addr gameroom.Address) (gameroom.StartResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return gameroom.StartResult{}, f.startErr
	}
	f.starts = append(f.starts, variantCode)
	return gameroom.StartResult{Message: "Game started"}, nil
}

func (f *fakeAPI) HighestScores(ctx context.Context) (gameroom.HighScores, error) {
	return gameroom.HighScores{HighestToday: "1200"}, nil
}

var errControllerDown = errors.New("controller offline")

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	conn, err := db.Open("sqlite", dsn)
	if err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Skipf("sqlite migrate failed: %v", err)
	}
	return conn
}

func doRequest(t *testing.T, ts *httptest.Server, method, path string, payload any) *http.Response {
	t.Helper()
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	t.Cleanup(func() {
		_ = resp.Body.Close()
	})
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(data)
}

func expectStatus(t *testing.T, resp *http.Response, want int) {
	t.Helper()
	if resp.StatusCode != want {
		t.Fatalf("expected status %d, got %d", want, resp.StatusCode)
	}
}

func scan(t *testing.T, ts *httptest.Server, gameCode, wristbandID string) *http.Response {
	t.Helper()
	return doRequest(t, ts, http.MethodPost, "/api/kiosk/"+gameCode+"/scan", map[string]string{
		"wristband_id": wristbandID,
	})
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// captureLogs routes the global logger into a buffer for the test.
func captureLogs(t *testing.T) *syncBuffer {
	t.Helper()
	out := &syncBuffer{}
	previous := log.Logger
	log.Logger = zerolog.New(out)
	t.Cleanup(func() { log.Logger = previous })
	return out
}
