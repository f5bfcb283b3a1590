package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"gameroom-kiosk/internal/config"
	"gameroom-kiosk/internal/events"
	"gameroom-kiosk/internal/kiosk"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

type Server struct {
	db      *gorm.DB
	cfg     config.Config
	bridge  *kiosk.Bridge
	manager *kiosk.Manager
	hub     *snapshotHub
	events  *events.Async

	forwardMu sync.Mutex
	forwarded map[*kiosk.Poller]struct{}

	idleAfter time.Duration
	idleMu    sync.Mutex
	idle      map[string]*idleTimer
}

type idleTimer struct {
	timer *time.Timer
}

// New wires the kiosk sessions to api. conn may be nil, in which case the
// wristband and admin routes report the database as unavailable.
func New(conn *gorm.DB, cfg config.Config, api kiosk.API, publisher events.Publisher) *Server {
	registerValidators()
	bridge := kiosk.NewBridge()
	if publisher == nil {
		publisher = events.Discard{}
	}
	async := events.NewAsync(publisher, events.DefaultAsyncBuffer)
	opts := kiosk.Options{
		PollInterval: cfg.PollInterval(),
		ReloadDelay:  cfg.ReloadDelay(),
		MaxPlayers:   cfg.MaxPlayers,
		SocketURL:    cfg.SocketURL,
		Source:       bridge,
		Events:       async,
	}
	return &Server{
		db:        conn,
		cfg:       cfg,
		bridge:    bridge,
		manager:   kiosk.NewManager(api, opts),
		hub:       newSnapshotHub(),
		events:    async,
		forwarded: make(map[*kiosk.Poller]struct{}),
		idleAfter: cfg.SessionIdle(),
		idle:      make(map[string]*idleTimer),
	}
}

// Bridge is the scan source hosts feed wristband taps into.
func (s *Server) Bridge() *kiosk.Bridge {
	return s.bridge
}

// OpenKiosk starts (or returns) the session for gameCode and begins pushing
// its snapshots to connected browsers.
func (s *Server) OpenKiosk(gameCode string) (*kiosk.Poller, error) {
	poller, err := s.manager.Open(gameCode)
	if err != nil {
		return nil, err
	}
	s.forward(poller)
	s.touchKiosk(poller.GameCode())
	return poller, nil
}

// Shutdown tears down every kiosk session, disconnects browsers and flushes
// pending events.
func (s *Server) Shutdown(ctx context.Context) error {
	s.idleMu.Lock()
	for code, entry := range s.idle {
		entry.timer.Stop()
		delete(s.idle, code)
	}
	s.idleMu.Unlock()
	err := s.manager.Shutdown(ctx)
	s.hub.CloseAll()
	if flushErr := s.events.Close(ctx); err == nil {
		err = flushErr
	}
	return err
}

// touchKiosk restarts the idle countdown for gameCode. The terminal's default
// game code is never reaped.
func (s *Server) touchKiosk(gameCode string) {
	if s.idleAfter <= 0 || gameCode == s.cfg.DefaultGameCode {
		return
	}
	s.idleMu.Lock()
	defer s.idleMu.Unlock()
	if existing, ok := s.idle[gameCode]; ok {
		existing.timer.Stop()
	}
	entry := &idleTimer{}
	s.idle[gameCode] = entry
	entry.timer = time.AfterFunc(s.idleAfter, func() { s.reapKiosk(gameCode, entry) })
}

func (s *Server) forgetKiosk(gameCode string) {
	s.idleMu.Lock()
	defer s.idleMu.Unlock()
	if existing, ok := s.idle[gameCode]; ok {
		existing.timer.Stop()
		delete(s.idle, gameCode)
	}
}

// reapKiosk closes the session for gameCode once no browser is attached.
// A browser that disconnects later restarts the countdown.
func (s *Server) reapKiosk(gameCode string, entry *idleTimer) {
	s.idleMu.Lock()
	if s.idle[gameCode] != entry {
		s.idleMu.Unlock()
		return
	}
	delete(s.idle, gameCode)
	s.idleMu.Unlock()
	if s.hub.Count(gameCode) > 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if !s.manager.Close(ctx, gameCode) {
		return
	}
	log.Info().Str("game_code", gameCode).Dur("idle", s.idleAfter).Msg("idle kiosk session closed")

	// A browser attached while the session was closing gets a fresh one.
	if s.hub.Count(gameCode) == 0 {
		return
	}
	poller, err := s.OpenKiosk(gameCode)
	if err != nil {
		return
	}
	select {
	case <-poller.Ready():
		snap := poller.Snapshot()
		snap.Reload = true
		s.hub.Broadcast(gameCode, snap)
	case <-ctx.Done():
	}
}

func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", s.handleHealth)
	r.GET("/kiosk/:gameCode", s.handleKioskView)
	r.GET("/ws/kiosk/:gameCode", s.handleKioskWebsocket)

	api := r.Group("/api")
	api.GET("/kiosk/:gameCode", s.handleKioskSnapshot)
	api.DELETE("/kiosk/:gameCode", s.handleKioskClose)
	api.POST("/kiosk/:gameCode/scan", s.handleKioskScan)
	api.POST("/kiosk/:gameCode/variant", s.handleKioskVariant)
	api.POST("/kiosk/:gameCode/start", s.handleKioskStart)
	api.POST("/wristbands", s.handleCreateWristband)
	api.GET("/wristbands/:code", s.handleGetWristband)

	admin := r.Group("/admin")
	admin.GET("", func(c *gin.Context) { c.Redirect(http.StatusFound, "/admin/wristbands") })
	admin.GET("/wristbands", s.handleAdminWristbands)
	admin.GET("/players", s.handleAdminPlayers)

	return corsPolicy(s.cfg.CORSOrigins).Handler(r)
}

func corsPolicy(origins []string) *cors.Cors {
	opts := cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         300,
	}
	for _, origin := range origins {
		if strings.TrimSpace(origin) == "*" {
			return cors.New(opts)
		}
	}
	if len(origins) > 0 {
		opts.AllowedOrigins = origins
		opts.AllowCredentials = true
	}
	return cors.New(opts)
}

func (s *Server) handleHealth(c *gin.Context) {
	status := gin.H{
		"status":   "ok",
		"sessions": len(s.manager.GameCodes()),
		"database": "disabled",
	}
	if s.db != nil {
		status["database"] = "ok"
		if sqlDB, err := s.db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status["database"] = "unreachable"
		}
	}
	c.JSON(http.StatusOK, status)
}
