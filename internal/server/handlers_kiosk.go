package server

import (
	"errors"
	"net/http"

	"gameroom-kiosk/internal/kiosk"
	"gameroom-kiosk/internal/web"

	"github.com/gin-gonic/gin"
)

type kioskURI struct {
	GameCode string `uri:"gameCode" binding:"required,max=64"`
}

type scanRequest struct {
	WristbandID string `json:"wristband_id" binding:"required,wristband"`
}

type variantRequest struct {
	VariantID int `json:"variant_id" binding:"required,gt=0"`
}

var scanMessages = bindMessages{
	"WristbandID": {
		"required":  "wristband_id is required",
		"wristband": "wristband_id must be a single token of at most 200 characters",
	},
}

var variantMessages = bindMessages{
	"VariantID": {
		"required": "variant_id is required",
		"gt":       "variant_id must be positive",
	},
}

// openKiosk resolves the session named in the path and waits until its game
// lookup has finished.
func (s *Server) openKiosk(c *gin.Context) (*kiosk.Poller, bool) {
	var uri kioskURI
	if !bindURI(c, &uri) {
		return nil, false
	}
	poller, err := s.OpenKiosk(uri.GameCode)
	if err != nil {
		writeErr(c, err)
		return nil, false
	}
	select {
	case <-poller.Ready():
		return poller, true
	case <-c.Request.Context().Done():
		writeError(c, http.StatusGatewayTimeout, "kiosk session is still loading")
		return nil, false
	}
}

func (s *Server) handleKioskView(c *gin.Context) {
	var uri kioskURI
	if err := c.ShouldBindUri(&uri); err != nil {
		render(c, http.StatusNotFound, web.ErrorPage("Kiosk not found", "A game code is required."))
		return
	}
	poller, err := s.OpenKiosk(uri.GameCode)
	if err != nil {
		render(c, errorStatus(err), web.ErrorPage("Kiosk unavailable", err.Error()))
		return
	}
	select {
	case <-poller.Ready():
	case <-c.Request.Context().Done():
		return
	}
	render(c, http.StatusOK, web.KioskPage(poller.Snapshot()))
}

func (s *Server) handleKioskSnapshot(c *gin.Context) {
	poller, ok := s.openKiosk(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, poller.Snapshot())
}

func (s *Server) handleKioskClose(c *gin.Context) {
	var uri kioskURI
	if !bindURI(c, &uri) {
		return
	}
	s.forgetKiosk(uri.GameCode)
	if !s.manager.Close(c.Request.Context(), uri.GameCode) {
		writeError(c, http.StatusNotFound, "no kiosk session for "+uri.GameCode)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleKioskScan(c *gin.Context) {
	var req scanRequest
	if !bindJSON(c, &req, scanMessages, "invalid scan") {
		return
	}
	poller, ok := s.openKiosk(c)
	if !ok {
		return
	}
	if err := s.bridge.Publish(c.Request.Context(), poller.GameCode(), req.WristbandID); err != nil {
		writeErr(c, scanError(err))
		return
	}
	c.JSON(http.StatusOK, poller.Snapshot())
}

// scanError picks the most specific rejection when several sessions answered.
func scanError(err error) error {
	for _, known := range []error{kiosk.ErrDuplicateScan, kiosk.ErrSessionFull, kiosk.ErrGameNotLoaded, kiosk.ErrEmptyWristband} {
		if errors.Is(err, known) {
			return known
		}
	}
	return err
}

func (s *Server) handleKioskVariant(c *gin.Context) {
	var req variantRequest
	if !bindJSON(c, &req, variantMessages, "invalid variant") {
		return
	}
	poller, ok := s.openKiosk(c)
	if !ok {
		return
	}
	variant, err := poller.SelectVariant(c.Request.Context(), req.VariantID)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"variant":  variant,
		"snapshot": poller.Snapshot(),
	})
}

func (s *Server) handleKioskStart(c *gin.Context) {
	poller, ok := s.openKiosk(c)
	if !ok {
		return
	}
	result, err := poller.Start(c.Request.Context())
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  result.Message,
		"snapshot": poller.Snapshot(),
	})
}
