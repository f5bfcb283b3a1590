package events

import (
	"context"
	"encoding/json"
	"fmt"

	"gameroom-kiosk/internal/db"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// StorePublisher persists events as kiosk_events rows.
type StorePublisher struct {
	conn *gorm.DB
}

func NewStorePublisher(conn *gorm.DB) *StorePublisher {
	return &StorePublisher{conn: conn}
}

func (p *StorePublisher) Publish(ctx context.Context, event Event) error {
	if p.conn == nil {
		return nil
	}
	data := event.Payload
	if data == nil {
		data = map[string]any{}
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	record := db.KioskEvent{
		EventID:   event.ID,
		GameCode:  event.GameCode,
		SessionID: event.SessionID,
		Type:      event.Type,
		Payload:   datatypes.JSON(payload),
		CreatedAt: event.At,
	}
	return db.CreateKioskEvent(ctx, p.conn, &record)
}
