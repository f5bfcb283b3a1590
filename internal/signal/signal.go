// Package signal holds the kiosk's raw socket to the gameroom controller.
// Inbound messages are logged only; nothing in the kiosk session reacts to them.
package signal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var ErrClosed = errors.New("signal connection closed")

type Conn struct {
	url     string
	ws      *websocket.Conn
	writeMu sync.Mutex
	once    sync.Once
	done    chan struct{}
}

func Dial(ctx context.Context, url string) (*Conn, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	conn := &Conn{
		url:  url,
		ws:   ws,
		done: make(chan struct{}),
	}
	log.Info().Str("url", url).Msg("signal socket connected")
	go conn.readLoop()
	return conn, nil
}

func (c *Conn) readLoop() {
	defer c.Close()
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.done:
			default:
				log.Warn().Err(err).Str("url", c.url).Msg("signal socket read failed")
			}
			return
		}
		log.Info().Str("url", c.url).Str("message", string(data)).Msg("signal message received")
	}
}

func (c *Conn) Send(text string) error {
	select {
	case <-c.done:
		return ErrClosed
	default:
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteMessage(websocket.TextMessage, []byte(text))
}

// Done is closed once the connection is closed from either side.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

func (c *Conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
		log.Info().Str("url", c.url).Msg("signal socket closed")
	})
	return err
}
