package events

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	TypeSessionOpened   = "session_opened"
	TypeScanAccepted    = "scan_accepted"
	TypeScanRejected    = "scan_rejected"
	TypeVariantSelected = "variant_selected"
	TypeGameStarted     = "game_started"
	TypeGameFinished    = "game_finished"
	TypeSessionReloaded = "session_reloaded"
	TypeSessionClosed   = "session_closed"
)

// Event is a kiosk session lifecycle record.
type Event struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	GameCode  string         `json:"game_code"`
	SessionID string         `json:"session_id"`
	Payload   map[string]any `json:"payload,omitempty"`
	At        time.Time      `json:"at"`
}

func New(eventType, gameCode, sessionID string, payload map[string]any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		GameCode:  gameCode,
		SessionID: sessionID,
		Payload:   payload,
		At:        time.Now().UTC(),
	}
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Discard drops every event.
type Discard struct{}

func (Discard) Publish(context.Context, Event) error { return nil }

// Multi fans an event out to every publisher. Failures are logged and do not
// stop delivery to the remaining publishers.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	for _, publisher := range m {
		if publisher == nil {
			continue
		}
		if err := publisher.Publish(ctx, event); err != nil {
			log.Warn().Err(err).Str("event", event.Type).Str("game_code", event.GameCode).Msg("event publish failed")
		}
	}
	return nil
}
