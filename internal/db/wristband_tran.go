package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
)

var ErrWristbandNotFound = errors.New("wristband transaction not found")

// WristbandTran is one wristband issue for a player.
type WristbandTran struct {
	WristbandTranID     uint       `gorm:"primaryKey;autoIncrement" json:"wristband_tran_id"`
	Src                 string     `gorm:"size:50" json:"src"`
	WristbandCode       string     `gorm:"size:200;index" json:"wristband_code"`
	PosBookingID        *int       `json:"pos_booking_id,omitempty"`
	WristbandTranDate   time.Time  `json:"wristband_tran_date"`
	WristbandStatusFlag string     `gorm:"size:1" json:"wristband_status_flag"`
	CreatedDate         time.Time  `json:"created_date"`
	PlayerStartDate     *time.Time `json:"player_start_date,omitempty"`
	PlayerEndDate       *time.Time `json:"player_end_date,omitempty"`
	GameroomTypeID      int        `json:"gameroom_type_id"`
	UpdateDateTime      time.Time  `json:"update_date_time"`
	PlayerID            *uint      `gorm:"index" json:"player_id,omitempty"`
	Player              *Player    `gorm:"foreignKey:PlayerID;references:PlayerID" json:"player,omitempty"`
}

// BeforeCreate fills the bookkeeping timestamps the terminal never sends.
func (w *WristbandTran) BeforeCreate(tx *gorm.DB) error {
	now := time.Now().UTC()
	if w.CreatedDate.IsZero() {
		w.CreatedDate = now
	}
	if w.WristbandTranDate.IsZero() {
		w.WristbandTranDate = now
	}
	if w.UpdateDateTime.IsZero() {
		w.UpdateDateTime = now
	}
	return nil
}

func (w *WristbandTran) BeforeUpdate(tx *gorm.DB) error {
	w.UpdateDateTime = time.Now().UTC()
	return nil
}

func CreateWristbandTran(ctx context.Context, conn *gorm.DB, tran *WristbandTran) error {
	if conn == nil {
		return ErrNotConfigured
	}
	tran.WristbandCode = strings.TrimSpace(tran.WristbandCode)
	return conn.WithContext(ctx).Create(tran).Error
}

// FindWristbandTranByCode returns the latest transaction for a wristband code.
func FindWristbandTranByCode(ctx context.Context, conn *gorm.DB, code string) (WristbandTran, error) {
	if conn == nil {
		return WristbandTran{}, ErrNotConfigured
	}
	var tran WristbandTran
	err := conn.WithContext(ctx).
		Preload("Player").
		Where("wristband_code = ?", strings.TrimSpace(code)).
		Order("wristband_tran_id desc").
		First(&tran).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return WristbandTran{}, ErrWristbandNotFound
	}
	return tran, err
}

var wristbandSortColumns = map[string]string{
	"id":          "wristband_tran_id",
	"code":        "wristband_code",
	"src":         "src",
	"status":      "wristband_status_flag",
	"date":        "wristband_tran_date",
	"created":     "created_date",
	"start":       "player_start_date",
	"end":         "player_end_date",
	"player":      "player_id",
	"gameroom":    "gameroom_type_id",
	"updated":     "update_date_time",
	"pos_booking": "pos_booking_id",
}

func ListWristbandTrans(ctx context.Context, conn *gorm.DB, query TableQuery) (Page[WristbandTran], error) {
	return list[WristbandTran](ctx, conn, query, wristbandSortColumns, "wristband_tran_id", "Player")
}
