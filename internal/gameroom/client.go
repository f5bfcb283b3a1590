package gameroom

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound reports a missing game or player record.
var ErrNotFound = errors.New("record not found")

// StatusError is returned when the gameroom API answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gameroom api returned status %d: %s", e.Code, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Code == http.StatusNotFound
}

type Client struct {
	baseURL string
	http    *http.Client
	headers map[string]string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		headers: map[string]string{"Accept": "application/json"},
	}
}

func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

func (c *Client) getJSON(ctx context.Context, endpoint string, query url.Values, dest any) error {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

// FindGame looks up a game descriptor by its code. The endpoint answers with
// an array; the first entry wins.
func (c *Client) FindGame(ctx context.Context, gameCode string) (Game, error) {
	var games []Game
	err := c.getJSON(ctx, "/game/findByGameCode/", url.Values{"gameCode": {gameCode}}, &games)
	if err != nil {
		return Game{}, err
	}
	if len(games) == 0 {
		return Game{}, fmt.Errorf("game %s: %w", gameCode, ErrNotFound)
	}
	return games[0], nil
}

func (c *Client) PlaySummary(ctx context.Context, wristbandID string) (PlayerSummary, error) {
	var summary PlayerSummary
	err := c.getJSON(ctx, "/wristbandtran/getplaysummary", url.Values{"wristbanduid": {wristbandID}}, &summary)
	if err != nil {
		return PlayerSummary{}, err
	}
	if summary.Player == nil {
		return PlayerSummary{}, fmt.Errorf("wristband %s: %w", wristbandID, ErrNotFound)
	}
	return summary, nil
}

func (c *Client) GameStatus(ctx context.Context, gameCode string, addr Address) (GameStatus, error) {
	var status GameStatus
	err := c.getJSON(ctx, "/game-status", url.Values{
		"gameCode":  {gameCode},
		"IpAddress": {addr.IP},
		"port":      {addr.Port},
	}, &status)
	return status, err
}

func (c *Client) StartGame(ctx context.Context, gameCode, variantCode string, addr Address) (StartResult, error) {
	var result StartResult
	err := c.getJSON(ctx, "/start-game", url.Values{
		"gameCode":    {gameCode},
		"variantCode": {variantCode},
		"ip":          {addr.IP},
		"port":        {addr.Port},
	}, &result)
	return result, err
}

func (c *Client) HighestScores(ctx context.Context) (HighScores, error) {
	var scores HighScores
	err := c.getJSON(ctx, "/stats/highestScores", nil, &scores)
	return scores, err
}
