package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"gameroom-kiosk/internal/db"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type createWristbandRequest struct {
	WristbandCode   string     `json:"wristband_code" binding:"required,wristband"`
	Src             string     `json:"src" binding:"max=50"`
	PlayerID        *uint      `json:"player_id" binding:"omitempty,gt=0"`
	PosBookingID    *int       `json:"pos_booking_id"`
	StatusFlag      string     `json:"wristband_status_flag" binding:"statusflag"`
	GameroomTypeID  int        `json:"gameroom_type_id" binding:"gte=0"`
	PlayerStartDate *time.Time `json:"player_start_date"`
	PlayerEndDate   *time.Time `json:"player_end_date"`
}

type wristbandURI struct {
	Code string `uri:"code" binding:"required,wristband"`
}

var wristbandMessages = bindMessages{
	"WristbandCode": {
		"required":  "wristband_code is required",
		"wristband": "wristband_code must be a single token of at most 200 characters",
	},
	"Src": {
		"max": "src must be at most 50 characters",
	},
	"StatusFlag": {
		"statusflag": "wristband_status_flag must be a single uppercase letter",
	},
	"GameroomTypeID": {
		"gte": "gameroom_type_id must not be negative",
	},
}

func (s *Server) handleCreateWristband(c *gin.Context) {
	if s.db == nil {
		writeErr(c, db.ErrNotConfigured)
		return
	}
	var req createWristbandRequest
	if !bindJSON(c, &req, wristbandMessages, "invalid wristband") {
		return
	}
	if req.PlayerStartDate != nil && req.PlayerEndDate != nil && req.PlayerEndDate.Before(*req.PlayerStartDate) {
		writeError(c, http.StatusBadRequest, "player_end_date must not be before player_start_date")
		return
	}
	ctx := c.Request.Context()
	if req.PlayerID != nil {
		var player db.Player
		err := s.db.WithContext(ctx).First(&player, "player_id = ?", *req.PlayerID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeError(c, http.StatusNotFound, "player not found")
			return
		}
		if err != nil {
			writeErr(c, err)
			return
		}
	}

	status := req.StatusFlag
	if status == "" {
		status = "A"
	}
	tran := db.WristbandTran{
		Src:                 strings.TrimSpace(req.Src),
		WristbandCode:       req.WristbandCode,
		PosBookingID:        req.PosBookingID,
		WristbandStatusFlag: status,
		PlayerStartDate:     req.PlayerStartDate,
		PlayerEndDate:       req.PlayerEndDate,
		GameroomTypeID:      req.GameroomTypeID,
		PlayerID:            req.PlayerID,
	}
	if err := db.CreateWristbandTran(ctx, s.db, &tran); err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			writeError(c, http.StatusNotFound, "player not found")
			return
		}
		log.Error().Err(err).Str("wristband_code", tran.WristbandCode).Msg("failed to save wristband")
		writeError(c, http.StatusInternalServerError, "failed to save wristband")
		return
	}
	c.JSON(http.StatusCreated, tran)
}

func (s *Server) handleGetWristband(c *gin.Context) {
	var uri wristbandURI
	if !bindURI(c, &uri) {
		return
	}
	tran, err := db.FindWristbandTranByCode(c.Request.Context(), s.db, uri.Code)
	if err != nil {
		if errorStatus(err) == http.StatusBadGateway {
			log.Error().Err(err).Str("wristband_code", uri.Code).Msg("failed to load wristband")
			writeError(c, http.StatusInternalServerError, "failed to load wristband")
			return
		}
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, tran)
}
