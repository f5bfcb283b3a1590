package server

import (
	"errors"
	"net/http"

	"gameroom-kiosk/internal/db"
	"gameroom-kiosk/internal/gameroom"
	"gameroom-kiosk/internal/kiosk"

	"github.com/a-h/templ"
	"github.com/gin-gonic/gin"
)

func writeError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"error": message,
	})
}

// errorStatus maps kiosk, collaborator and storage errors to HTTP codes.
// Anything unrecognised came from an upstream call.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, kiosk.ErrEmptyWristband),
		errors.Is(err, kiosk.ErrUnknownVariant),
		errors.Is(err, kiosk.ErrInvalidGameCode):
		return http.StatusBadRequest
	case errors.Is(err, kiosk.ErrDuplicateScan),
		errors.Is(err, kiosk.ErrSessionFull),
		errors.Is(err, kiosk.ErrStartDisabled),
		errors.Is(err, kiosk.ErrNoVariant),
		errors.Is(err, kiosk.ErrGameNotLoaded),
		errors.Is(err, kiosk.ErrSessionReset):
		return http.StatusConflict
	case errors.Is(err, kiosk.ErrSessionClosed), errors.Is(err, kiosk.ErrNoSubscriber):
		return http.StatusGone
	case errors.Is(err, gameroom.ErrNotFound), errors.Is(err, db.ErrWristbandNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func writeErr(c *gin.Context, err error) {
	_ = c.Error(err)
	writeError(c, errorStatus(err), err.Error())
}

func render(c *gin.Context, status int, component templ.Component) {
	templ.Handler(component, templ.WithStatus(status)).ServeHTTP(c.Writer, c.Request)
}
