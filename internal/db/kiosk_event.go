package db

import (
	"context"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type KioskEvent struct {
	ID        uint           `gorm:"primaryKey"`
	EventID   string         `gorm:"size:36;uniqueIndex;not null"`
	GameCode  string         `gorm:"size:64;index;not null"`
	SessionID string         `gorm:"size:36;index"`
	Type      string         `gorm:"size:64;not null"`
	Payload   datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time      `gorm:"not null"`
}

func CreateKioskEvent(ctx context.Context, conn *gorm.DB, event *KioskEvent) error {
	if conn == nil {
		return ErrNotConfigured
	}
	return conn.WithContext(ctx).Create(event).Error
}

// RecentKioskEvents returns the newest events for a game code.
func RecentKioskEvents(ctx context.Context, conn *gorm.DB, gameCode string, limit int) ([]KioskEvent, error) {
	if conn == nil {
		return nil, ErrNotConfigured
	}
	if limit <= 0 {
		limit = 50
	}
	var records []KioskEvent
	err := conn.WithContext(ctx).
		Where("game_code = ?", gameCode).
		Order("id desc").
		Limit(limit).
		Find(&records).Error
	return records, err
}
