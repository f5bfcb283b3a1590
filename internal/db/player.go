package db

import (
	"strings"
	"time"
)

type Player struct {
	PlayerID   uint      `gorm:"primaryKey" json:"player_id"`
	FirstName  string    `gorm:"size:100;not null" json:"first_name"`
	LastName   string    `gorm:"size:100" json:"last_name"`
	Email      string    `gorm:"size:200;index" json:"email,omitempty"`
	Phone      string    `gorm:"size:50" json:"phone,omitempty"`
	Signature  string    `gorm:"type:text" json:"signature,omitempty"`
	WaiverHTML string    `gorm:"type:text" json:"waiver_html,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time `gorm:"not null" json:"updated_at"`
}

func (p Player) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}
