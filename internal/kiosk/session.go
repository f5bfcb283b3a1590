package kiosk

import (
	"errors"
	"strings"
	"time"

	"gameroom-kiosk/internal/gameroom"

	"github.com/google/uuid"
)

// DefaultMaxPlayers is the number of wristbands one kiosk session accepts.
const DefaultMaxPlayers = 5

var (
	ErrEmptyWristband  = errors.New("wristband id is required")
	ErrDuplicateScan   = errors.New("wristband already tapped")
	ErrSessionFull     = errors.New("maximum number of players reached")
	ErrGameNotLoaded   = errors.New("game not loaded")
	ErrUnknownVariant  = errors.New("unknown variant")
	ErrNoVariant       = errors.New("no variant selected")
	ErrStartDisabled   = errors.New("start is not available")
	ErrGameUnreachable = errors.New("game has no controller address")
	ErrSessionClosed   = errors.New("kiosk session closed")
)

type State string

const (
	StateAwaitingScan State = "awaiting_scan"
	StateScanning     State = "scanning"
	StateReadyToStart State = "ready_to_start"
	StateRunning      State = "running"
	StateFinished     State = "finished"
)

type RunStatus string

const (
	StatusIdle    RunStatus = "Idle"
	StatusRunning RunStatus = "Running"
	StatusUnknown RunStatus = "Unknown"
)

// ParseRunStatus maps the controller's free-form status. Anything other than
// "Running" counts as idle; an empty status is unknown.
func ParseRunStatus(raw string) RunStatus {
	switch strings.TrimSpace(raw) {
	case "":
		return StatusUnknown
	case string(StatusRunning):
		return StatusRunning
	default:
		return StatusIdle
	}
}

type PlayerScan struct {
	WristbandID string
	Summary     gameroom.PlayerSummary
	ScannedAt   time.Time
}

// Session is the state of one kiosk session. It performs no I/O; the Poller
// owns it and applies every mutation from a single goroutine.
type Session struct {
	ID         string
	GameCode   string
	Game       *gameroom.Game
	Variant    *gameroom.Variant
	Scans      []PlayerScan
	Status     RunStatus
	State      State
	HighScores gameroom.HighScores
	LoadError  string
	ReloadAt   time.Time

	maxPlayers    int
	variantChosen bool
	starting      bool
	sawRunning    bool
}

func NewSession(gameCode string, maxPlayers int) *Session {
	if maxPlayers <= 0 {
		maxPlayers = DefaultMaxPlayers
	}
	return &Session{
		ID:         uuid.NewString(),
		GameCode:   gameCode,
		Status:     StatusUnknown,
		State:      StateAwaitingScan,
		maxPlayers: maxPlayers,
	}
}

// Load attaches the game descriptor and preselects its first variant.
func (s *Session) Load(game gameroom.Game) {
	s.Game = &game
	s.LoadError = ""
	s.Variant = nil
	if len(game.Variants) > 0 {
		variant := game.Variants[0]
		s.Variant = &variant
	}
}

func (s *Session) CheckScan(wristbandID string) error {
	if strings.TrimSpace(wristbandID) == "" {
		return ErrEmptyWristband
	}
	if s.Game == nil {
		return ErrGameNotLoaded
	}
	for _, scan := range s.Scans {
		if scan.WristbandID == wristbandID {
			return ErrDuplicateScan
		}
	}
	if len(s.Scans) >= s.maxPlayers {
		return ErrSessionFull
	}
	return nil
}

// RecordScan re-validates and appends a scan whose summary has arrived.
func (s *Session) RecordScan(scan PlayerScan) error {
	if err := s.CheckScan(scan.WristbandID); err != nil {
		return err
	}
	s.Scans = append(s.Scans, scan)
	s.advance()
	return nil
}

func (s *Session) SelectVariant(id int) (gameroom.Variant, error) {
	if s.Game == nil {
		return gameroom.Variant{}, ErrGameNotLoaded
	}
	variant, ok := s.Game.Variant(id)
	if !ok {
		return gameroom.Variant{}, ErrUnknownVariant
	}
	s.Variant = &variant
	s.variantChosen = true
	s.advance()
	return variant, nil
}

func (s *Session) advance() {
	switch s.State {
	case StateAwaitingScan, StateScanning, StateReadyToStart:
	default:
		return
	}
	switch {
	case len(s.Scans) == 0:
		s.State = StateAwaitingScan
	case s.variantChosen:
		s.State = StateReadyToStart
	default:
		s.State = StateScanning
	}
}

func (s *Session) StartEnabled() bool {
	return len(s.Scans) > 0 &&
		s.Variant != nil &&
		s.Status != StatusRunning &&
		s.State != StateRunning &&
		!s.starting
}

// BeginStart validates the start action and marks it in flight.
func (s *Session) BeginStart() (gameroom.Variant, gameroom.Address, error) {
	if s.Game == nil {
		return gameroom.Variant{}, gameroom.Address{}, ErrGameNotLoaded
	}
	if s.Variant == nil {
		return gameroom.Variant{}, gameroom.Address{}, ErrNoVariant
	}
	if !s.StartEnabled() {
		return gameroom.Variant{}, gameroom.Address{}, ErrStartDisabled
	}
	addr, ok := s.Game.Address()
	if !ok {
		return gameroom.Variant{}, gameroom.Address{}, ErrGameUnreachable
	}
	s.starting = true
	return *s.Variant, addr, nil
}

func (s *Session) StartFailed() {
	s.starting = false
}

func (s *Session) MarkStarted() {
	s.starting = false
	s.State = StateRunning
	s.sawRunning = false
	s.ReloadAt = time.Time{}
}

// ApplyStatus records a polled status and reports whether the session just
// finished: a non-running status observed after this session's game was seen
// running. Outside StateRunning only Status changes, so a game started by
// someone else never moves the session.
func (s *Session) ApplyStatus(raw string) bool {
	status := ParseRunStatus(raw)
	s.Status = status
	if s.State != StateRunning {
		return false
	}
	switch status {
	case StatusRunning:
		s.sawRunning = true
	case StatusIdle:
		if s.sawRunning {
			s.State = StateFinished
			s.sawRunning = false
			return true
		}
	}
	return false
}
