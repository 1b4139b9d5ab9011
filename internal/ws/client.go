package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var errNotAccepted = errors.New("websocket handshake not completed")

// ErrFrameTooLarge is returned by read for a frame over Options.ReadLimit.
// The frame is discarded and the connection stays usable.
var ErrFrameTooLarge = fmt.Errorf("text must be at most %d characters", MaxTextLength)

// frames beyond ReadLimit*hardLimitFactor make gorilla close the socket (1009)
const hardLimitFactor = 16

// clientConn is the gorilla implementation of Channel. It holds on to the
// HTTP exchange until Accept upgrades it.
type clientConn struct {
	upgrader *websocket.Upgrader
	w        http.ResponseWriter
	r        *http.Request
	opts     Options

	mu      sync.Mutex // one writer at a time
	rawConn *websocket.Conn
}

func newClientConn(w http.ResponseWriter, r *http.Request, upgrader *websocket.Upgrader, opts Options) *clientConn {
	return &clientConn{upgrader: upgrader, w: w, r: r, opts: opts}
}

func (c *clientConn) Accept() error {
	raw, err := c.upgrader.Upgrade(c.w, c.r, nil)
	if err != nil {
		return err
	}
	raw.SetReadLimit(c.opts.ReadLimit * hardLimitFactor)
	_ = raw.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	raw.SetPongHandler(func(string) error {
		return raw.SetReadDeadline(time.Now().Add(c.opts.PongWait))
	})

	c.mu.Lock()
	c.rawConn = raw
	c.mu.Unlock()
	return nil
}

func (c *clientConn) accepted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rawConn != nil
}

func (c *clientConn) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rawConn == nil {
		return errNotAccepted
	}

	_ = c.rawConn.SetWriteDeadline(time.Now().Add(c.opts.WriteWait))
	return c.rawConn.WriteMessage(websocket.TextMessage, payload)
}

func (c *clientConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Send(b)
}

// read blocks for the next data frame. Must only be called by the session's
// reader goroutine, after Accept.
func (c *clientConn) read() ([]byte, error) {
	_, r, err := c.rawConn.NextReader()
	if err != nil {
		return nil, err
	}
	data, err := io.ReadAll(io.LimitReader(r, c.opts.ReadLimit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > c.opts.ReadLimit {
		if _, err := io.Copy(io.Discard, r); err != nil {
			return nil, err
		}
		return nil, ErrFrameTooLarge
	}
	return data, nil
}

// ping may run concurrently with Send: gorilla allows WriteControl alongside
// other writers.
func (c *clientConn) ping() error {
	return c.rawConn.WriteControl(websocket.PingMessage, nil, time.Now().Add(c.opts.WriteWait))
}

// Close sends a close frame and tears the socket down. Safe to call more than
// once; only the first call reaches the peer.
func (c *clientConn) Close(code int, reason string) error {
	c.mu.Lock()
	raw := c.rawConn
	c.mu.Unlock()
	if raw == nil {
		return nil
	}

	_ = raw.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(c.opts.WriteWait),
	)
	return raw.Close()
}
