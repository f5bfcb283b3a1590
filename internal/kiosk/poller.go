package kiosk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"gameroom-kiosk/internal/events"
	"gameroom-kiosk/internal/gameroom"
	"gameroom-kiosk/internal/signal"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPollInterval = time.Second
	DefaultReloadDelay  = 10 * time.Second
)

// ErrSessionReset is returned when the session was reloaded while a call
// made on its behalf was still in flight.
var ErrSessionReset = errors.New("kiosk session was reset")

// API is the set of gameroom collaborator calls the kiosk consumes.
type API interface {
	FindGame(ctx context.Context, gameCode string) (gameroom.Game, error)
	PlaySummary(ctx context.Context, wristbandID string) (gameroom.PlayerSummary, error)
	GameStatus(ctx context.Context, gameCode string, addr gameroom.Address) (gameroom.GameStatus, error)
	StartGame(ctx context.Context, gameCode, variantCode string, addr gameroom.Address) (gameroom.StartResult, error)
	HighestScores(ctx context.Context) (gameroom.HighScores, error)
}

type Socket interface {
	Close() error
}

type DialFunc func(ctx context.Context, url string) (Socket, error)

type Options struct {
	PollInterval time.Duration
	ReloadDelay  time.Duration
	MaxPlayers   int
	SocketURL    string
	Clock        clockwork.Clock
	Source       ScanSource
	Events       events.Publisher
	Dial         DialFunc
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.ReloadDelay <= 0 {
		o.ReloadDelay = DefaultReloadDelay
	}
	if o.MaxPlayers <= 0 {
		o.MaxPlayers = DefaultMaxPlayers
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Events == nil {
		o.Events = events.Discard{}
	}
	if o.Dial == nil {
		o.Dial = dialSignal
	}
	return o
}

func dialSignal(ctx context.Context, url string) (Socket, error) {
	conn, err := signal.Dial(ctx, url)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Poller owns one kiosk session. Every session mutation, timer tick and
// collaborator completion runs on the goroutine executing Run.
type Poller struct {
	api      API
	opts     Options
	clock    clockwork.Clock
	gameCode string

	cmds      chan func()
	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}

	// Owned by the Run goroutine.
	runCtx       context.Context
	session      *Session
	pollInFlight bool
	ticker       clockwork.Ticker
	reloadTimer  clockwork.Timer
	socket       Socket

	mu        sync.RWMutex
	latest    Snapshot
	listeners map[int]func(Snapshot)
	nextID    int
}

func NewPoller(gameCode string, api API, opts Options) *Poller {
	opts = opts.withDefaults()
	session := NewSession(gameCode, opts.MaxPlayers)
	return &Poller{
		api:       api,
		opts:      opts,
		clock:     opts.Clock,
		gameCode:  gameCode,
		cmds:      make(chan func()),
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
		runCtx:    context.Background(),
		session:   session,
		latest:    session.Snapshot(),
		listeners: make(map[int]func(Snapshot)),
	}
}

func (p *Poller) GameCode() string {
	return p.gameCode
}

// Ready is closed once the initial game lookup has completed.
func (p *Poller) Ready() <-chan struct{} {
	return p.ready
}

// Done is closed when Run has returned and every resource was released.
func (p *Poller) Done() <-chan struct{} {
	return p.done
}

// Run loads the session and serves it until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	defer close(p.done)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	p.runCtx = ctx

	p.load(ctx)
	p.openSocket(ctx)
	unsubscribe := func() {}
	if p.opts.Source != nil {
		unsubscribe = p.opts.Source.Subscribe(p.gameCode, func(ctx context.Context, wristbandID string) error {
			_, err := p.Scan(ctx, wristbandID)
			return err
		})
	}
	defer p.teardown(unsubscribe)

	p.emit(p.session.ID, events.TypeSessionOpened, nil)
	p.publish(false)
	p.readyOnce.Do(func() { close(p.ready) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-p.cmds:
			fn()
		case <-p.tickC():
			p.pollStatus()
		case <-p.reloadC():
			p.reload(ctx)
		}
	}
}

func (p *Poller) teardown(unsubscribe func()) {
	unsubscribe()
	p.stopPolling()
	p.cancelReload()
	if p.socket != nil {
		if err := p.socket.Close(); err != nil {
			log.Debug().Err(err).Str("game_code", p.gameCode).Msg("signal socket close failed")
		}
		p.socket = nil
	}
	p.readyOnce.Do(func() { close(p.ready) })
	p.emit(p.session.ID, events.TypeSessionClosed, nil)
	log.Info().Str("game_code", p.gameCode).Str("session_id", p.session.ID).Msg("kiosk session closed")
}

func (p *Poller) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest
}

// Subscribe registers fn for every published snapshot. Listeners are called
// on the session goroutine and must not block.
func (p *Poller) Subscribe(fn func(Snapshot)) func() {
	p.mu.Lock()
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	p.mu.Unlock()
	return func() {
		p.mu.Lock()
		delete(p.listeners, id)
		p.mu.Unlock()
	}
}

// Scan validates a tap, fetches the player's summary and records it.
func (p *Poller) Scan(ctx context.Context, wristbandID string) (PlayerScan, error) {
	wristbandID = strings.TrimSpace(wristbandID)
	var checkErr error
	var sessionID string
	if err := p.do(ctx, func() {
		sessionID = p.session.ID
		checkErr = p.session.CheckScan(wristbandID)
	}); err != nil {
		return PlayerScan{}, err
	}
	if checkErr != nil {
		p.rejectScan(sessionID, wristbandID, checkErr)
		return PlayerScan{}, checkErr
	}

	res := call(ctx, func(ctx context.Context) (gameroom.PlayerSummary, error) {
		return p.api.PlaySummary(ctx, wristbandID)
	})
	if !res.OK() {
		log.Warn().Err(res.Err).Str("game_code", p.gameCode).Str("wristband_id", wristbandID).Msg("player lookup failed")
		return PlayerScan{}, fmt.Errorf("lookup wristband %s: %w", wristbandID, res.Err)
	}

	scan := PlayerScan{WristbandID: wristbandID, Summary: res.Value, ScannedAt: p.clock.Now()}
	var recordErr error
	var players int
	if err := p.do(context.WithoutCancel(ctx), func() {
		if p.session.ID != sessionID {
			recordErr = ErrSessionReset
			return
		}
		if recordErr = p.session.RecordScan(scan); recordErr != nil {
			return
		}
		players = len(p.session.Scans)
		p.startPolling()
		p.emit(sessionID, events.TypeScanAccepted, map[string]any{
			"wristband_id": wristbandID,
			"players":      players,
		})
		p.publish(false)
	}); err != nil {
		return PlayerScan{}, err
	}
	if recordErr != nil {
		p.rejectScan(sessionID, wristbandID, recordErr)
		return PlayerScan{}, recordErr
	}
	log.Info().Str("game_code", p.gameCode).Str("wristband_id", wristbandID).Int("players", players).Msg("wristband scanned")
	return scan, nil
}

func (p *Poller) rejectScan(sessionID, wristbandID string, reason error) {
	log.Info().Str("game_code", p.gameCode).Str("wristband_id", wristbandID).Str("reason", reason.Error()).Msg("wristband rejected")
	p.emit(sessionID, events.TypeScanRejected, map[string]any{
		"wristband_id": wristbandID,
		"reason":       reason.Error(),
	})
}

func (p *Poller) SelectVariant(ctx context.Context, variantID int) (gameroom.Variant, error) {
	var variant gameroom.Variant
	var selectErr error
	if err := p.do(ctx, func() {
		variant, selectErr = p.session.SelectVariant(variantID)
		if selectErr != nil {
			return
		}
		p.emit(p.session.ID, events.TypeVariantSelected, map[string]any{
			"variant_id": variant.ID,
			"variant":    variant.Name,
		})
		p.publish(false)
	}); err != nil {
		return gameroom.Variant{}, err
	}
	return variant, selectErr
}

// Start asks the game controller to run the selected variant.
func (p *Poller) Start(ctx context.Context) (gameroom.StartResult, error) {
	var (
		variant   gameroom.Variant
		addr      gameroom.Address
		sessionID string
		beginErr  error
	)
	if err := p.do(ctx, func() {
		sessionID = p.session.ID
		variant, addr, beginErr = p.session.BeginStart()
		if beginErr == nil {
			p.publish(false)
		}
	}); err != nil {
		return gameroom.StartResult{}, err
	}
	if beginErr != nil {
		return gameroom.StartResult{}, beginErr
	}

	res := call(ctx, func(ctx context.Context) (gameroom.StartResult, error) {
		return p.api.StartGame(ctx, p.gameCode, variant.Name, addr)
	})

	if err := p.do(context.WithoutCancel(ctx), func() {
		if p.session.ID != sessionID {
			return
		}
		if !res.OK() {
			p.session.StartFailed()
			p.publish(false)
			return
		}
		p.session.MarkStarted()
		p.cancelReload()
		p.startPolling()
		p.emit(sessionID, events.TypeGameStarted, map[string]any{
			"variant": variant.Name,
			"message": res.Value.Message,
		})
		p.publish(false)
	}); err != nil {
		return gameroom.StartResult{}, err
	}
	if !res.OK() {
		log.Error().Err(res.Err).Str("game_code", p.gameCode).Str("variant", variant.Name).Msg("start game failed")
		return gameroom.StartResult{}, fmt.Errorf("start game %s: %w", p.gameCode, res.Err)
	}
	log.Info().Str("game_code", p.gameCode).Str("variant", variant.Name).Str("message", res.Value.Message).Msg("game started")
	return res.Value, nil
}

func (p *Poller) load(ctx context.Context) {
	game := call(ctx, func(ctx context.Context) (gameroom.Game, error) {
		return p.api.FindGame(ctx, p.gameCode)
	})
	if game.OK() {
		p.session.Load(game.Value)
	} else {
		p.session.LoadError = loadErrorMessage(p.gameCode, game.Err)
		log.Error().Err(game.Err).Str("game_code", p.gameCode).Msg("game lookup failed")
	}

	scores := call(ctx, func(ctx context.Context) (gameroom.HighScores, error) {
		return p.api.HighestScores(ctx)
	})
	if scores.OK() {
		p.session.HighScores = scores.Value
	} else {
		log.Warn().Err(scores.Err).Str("game_code", p.gameCode).Msg("high score lookup failed")
	}
}

func loadErrorMessage(gameCode string, err error) string {
	if errors.Is(err, gameroom.ErrNotFound) {
		return "No data found for game code: " + gameCode
	}
	return "Error fetching game " + gameCode + ": " + err.Error()
}

func (p *Poller) openSocket(ctx context.Context) {
	if p.opts.SocketURL == "" {
		return
	}
	socket, err := p.opts.Dial(ctx, p.opts.SocketURL)
	if err != nil {
		log.Warn().Err(err).Str("game_code", p.gameCode).Str("url", p.opts.SocketURL).Msg("signal socket unavailable")
		return
	}
	p.socket = socket
}

func (p *Poller) pollStatus() {
	if p.pollInFlight || p.session.Game == nil {
		return
	}
	addr, ok := p.session.Game.Address()
	if !ok {
		return
	}
	p.pollInFlight = true
	sessionID := p.session.ID
	dispatch(p, func(ctx context.Context) (gameroom.GameStatus, error) {
		return p.api.GameStatus(ctx, p.gameCode, addr)
	}, func(res Result[gameroom.GameStatus]) {
		if sessionID != p.session.ID {
			return
		}
		p.pollInFlight = false
		p.applyStatus(res)
	})
}

func (p *Poller) applyStatus(res Result[gameroom.GameStatus]) {
	if !res.OK() {
		log.Warn().Err(res.Err).Str("game_code", p.gameCode).Msg("game status poll failed")
		return
	}
	state, status := p.session.State, p.session.Status
	finished := p.session.ApplyStatus(res.Value.Status)
	if finished {
		p.stopPolling()
		p.scheduleReload()
		p.emit(p.session.ID, events.TypeGameFinished, map[string]any{
			"status": res.Value.Status,
		})
		log.Info().Str("game_code", p.gameCode).Str("status", res.Value.Status).Dur("reload_in", p.opts.ReloadDelay).Msg("game finished")
	}
	if finished || state != p.session.State || status != p.session.Status {
		p.publish(false)
	}
}

func (p *Poller) reload(ctx context.Context) {
	p.reloadTimer = nil
	p.stopPolling()
	p.pollInFlight = false
	previous := p.session.ID
	p.emit(previous, events.TypeSessionReloaded, nil)

	p.session = NewSession(p.gameCode, p.opts.MaxPlayers)
	p.load(ctx)
	p.publish(true)
	log.Info().Str("game_code", p.gameCode).Str("previous_session_id", previous).Str("session_id", p.session.ID).Msg("kiosk session reloaded")
}

func (p *Poller) startPolling() {
	if p.ticker != nil {
		return
	}
	p.ticker = p.clock.NewTicker(p.opts.PollInterval)
}

func (p *Poller) stopPolling() {
	if p.ticker == nil {
		return
	}
	p.ticker.Stop()
	p.ticker = nil
}

func (p *Poller) scheduleReload() {
	p.cancelReload()
	p.reloadTimer = p.clock.NewTimer(p.opts.ReloadDelay)
	p.session.ReloadAt = p.clock.Now().Add(p.opts.ReloadDelay)
}

func (p *Poller) cancelReload() {
	if p.reloadTimer == nil {
		return
	}
	p.reloadTimer.Stop()
	p.reloadTimer = nil
	p.session.ReloadAt = time.Time{}
}

func (p *Poller) tickC() <-chan time.Time {
	if p.ticker == nil {
		return nil
	}
	return p.ticker.Chan()
}

func (p *Poller) reloadC() <-chan time.Time {
	if p.reloadTimer == nil {
		return nil
	}
	return p.reloadTimer.Chan()
}

func (p *Poller) publish(reload bool) {
	snap := p.session.Snapshot()
	p.mu.Lock()
	p.latest = snap
	listeners := make([]func(Snapshot), 0, len(p.listeners))
	for _, fn := range p.listeners {
		listeners = append(listeners, fn)
	}
	p.mu.Unlock()
	snap.Reload = reload
	for _, fn := range listeners {
		fn(snap)
	}
}

func (p *Poller) emit(sessionID, eventType string, payload map[string]any) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	event := events.New(eventType, p.gameCode, sessionID, payload)
	if err := p.opts.Events.Publish(ctx, event); err != nil {
		log.Warn().Err(err).Str("game_code", p.gameCode).Str("event", eventType).Msg("kiosk event dropped")
	}
}

// do runs fn on the session goroutine and waits for it to finish.
func (p *Poller) do(ctx context.Context, fn func()) error {
	finished := make(chan struct{})
	select {
	case p.cmds <- func() { fn(); close(finished) }:
	case <-p.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-finished:
		return nil
	case <-p.done:
		select {
		case <-finished:
			return nil
		default:
			return ErrSessionClosed
		}
	}
}

// post queues fn for the session goroutine without waiting.
func (p *Poller) post(fn func()) {
	select {
	case p.cmds <- fn:
	case <-p.done:
	}
}
