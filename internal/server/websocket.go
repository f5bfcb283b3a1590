package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"gameroom-kiosk/internal/kiosk"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type wsClient struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// snapshotHub fans kiosk snapshots out to browsers grouped by game code.
type snapshotHub struct {
	mu     sync.Mutex
	groups map[string]map[*wsClient]struct{}
}

func newSnapshotHub() *snapshotHub {
	return &snapshotHub{
		groups: make(map[string]map[*wsClient]struct{}),
	}
}

func (h *snapshotHub) Add(gameCode string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[gameCode]
	if group == nil {
		group = make(map[*wsClient]struct{})
		h.groups[gameCode] = group
	}
	group[client] = struct{}{}
}

func (h *snapshotHub) Remove(gameCode string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[gameCode]
	if group == nil {
		return
	}
	delete(group, client)
	_ = client.conn.Close()
	if len(group) == 0 {
		delete(h.groups, gameCode)
	}
}

func (h *snapshotHub) Count(gameCode string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.groups[gameCode])
}

func (h *snapshotHub) Send(client *wsClient, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return client.write(data)
}

func (h *snapshotHub) Broadcast(gameCode string, payload any) {
	h.mu.Lock()
	group := h.groups[gameCode]
	clients := make([]*wsClient, 0, len(group))
	for client := range group {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, client := range clients {
		if err := client.write(data); err != nil {
			h.Remove(gameCode, client)
		}
	}
}

func (h *snapshotHub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for code, group := range h.groups {
		for client := range group {
			_ = client.conn.Close()
		}
		delete(h.groups, code)
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

func (s *Server) handleKioskWebsocket(c *gin.Context) {
	var uri kioskURI
	if !bindURI(c, &uri) {
		return
	}
	poller, err := s.OpenKiosk(uri.GameCode)
	if err != nil {
		writeErr(c, err)
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	client := &wsClient{conn: conn}
	log.Debug().Str("game_code", uri.GameCode).Str("remote", c.ClientIP()).Msg("kiosk ws connected")
	s.hub.Add(uri.GameCode, client)
	if err := s.hub.Send(client, poller.Snapshot()); err != nil {
		s.hub.Remove(uri.GameCode, client)
		return
	}
	go s.readWS(uri.GameCode, client)
}

func (s *Server) readWS(gameCode string, client *wsClient) {
	defer func() {
		s.hub.Remove(gameCode, client)
		if s.hub.Count(gameCode) == 0 {
			s.touchKiosk(gameCode)
		}
	}()
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			log.Debug().Err(err).Str("game_code", gameCode).Msg("kiosk ws disconnected")
			return
		}
	}
}

// forward pushes every snapshot of p to the hub until p stops. Listeners
// run on the session goroutine, so delivery goes through a small buffer that
// drops the oldest pending snapshot instead of blocking.
func (s *Server) forward(p *kiosk.Poller) {
	s.forwardMu.Lock()
	if _, ok := s.forwarded[p]; ok {
		s.forwardMu.Unlock()
		return
	}
	s.forwarded[p] = struct{}{}
	s.forwardMu.Unlock()

	updates := make(chan kiosk.Snapshot, 16)
	unsubscribe := p.Subscribe(func(snap kiosk.Snapshot) {
		for {
			select {
			case updates <- snap:
				return
			default:
			}
			select {
			case <-updates:
			default:
			}
		}
	})
	go func() {
		defer func() {
			unsubscribe()
			s.forwardMu.Lock()
			delete(s.forwarded, p)
			s.forwardMu.Unlock()
		}()
		for {
			select {
			case snap := <-updates:
				s.hub.Broadcast(p.GameCode(), snap)
			case <-p.Done():
				return
			}
		}
	}()
}
