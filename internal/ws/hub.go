package ws

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"roomchatgo/internal/audit"
	"roomchatgo/internal/metrics"

	"go.uber.org/zap"
)

var (
	ErrConnRetired = errors.New("connection already left its room")
	ErrHubClosed   = errors.New("hub is shutting down")
)

// Hub is the room registry: room name -> member set. A room key exists only
// while its set is non-empty. Membership changes, and the gauges mirroring
// them, are short critical sections under mu; handshakes and sends never run
// while mu is held.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]room
	closed bool

	metrics *metrics.Metrics
	audit   audit.Recorder
}

type Option func(*Hub)

func WithMetrics(m *metrics.Metrics) Option { return func(h *Hub) { h.metrics = m } }

func WithAudit(r audit.Recorder) Option { return func(h *Hub) { h.audit = r } }

func NewHub(opts ...Option) *Hub {
	h := &Hub{
		rooms: make(map[string]room),
		audit: audit.Nop{},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Connect accepts the connection's channel and adds it to its room.
// Connecting an already registered Conn is a no-op; a Conn that has left
// cannot come back.
func (h *Hub) Connect(c *Conn) error {
	h.mu.Lock()
	closed := h.closed
	h.mu.Unlock()
	if closed {
		return ErrHubClosed
	}
	if c.state.Load() == stateRetired {
		return ErrConnRetired
	}

	if err := c.accept(); err != nil {
		c.markDead()
		return fmt.Errorf("accept %s: %w", c.identity, err)
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.markDead()
		return ErrHubClosed
	}
	switch c.state.Load() {
	case stateRegistered:
		h.mu.Unlock()
		return nil
	case stateRetired:
		h.mu.Unlock()
		return ErrConnRetired
	}
	r, ok := h.rooms[c.room]
	if !ok {
		r = room{}
		h.rooms[c.room] = r
	}
	r.add(c)
	c.state.Store(stateRegistered)
	members := len(r)
	h.metrics.RoomSize(c.room, members, len(h.rooms))
	h.mu.Unlock()

	zap.L().Info("ws.connected",
		zap.String("conn_id", c.id.String()),
		zap.String("user", c.identity),
		zap.String("room", c.room),
		zap.Int("members", members),
	)
	h.record(c, audit.KindJoined, members)
	return nil
}

// Disconnect removes c from its room and prunes the room once empty.
// It never closes the channel and is a no-op for a Conn that is not
// registered.
func (h *Hub) Disconnect(c *Conn) {
	h.leave(c, audit.KindLeft)
}

func (h *Hub) leave(c *Conn, kind audit.Kind) bool {
	h.mu.Lock()
	r, ok := h.rooms[c.room]
	if !ok || c.state.Load() != stateRegistered || !r.remove(c) {
		h.mu.Unlock()
		return false
	}
	c.state.Store(stateRetired)
	members := len(r)
	if members == 0 {
		delete(h.rooms, c.room)
	}
	h.metrics.RoomSize(c.room, members, len(h.rooms))
	h.mu.Unlock()

	zap.L().Info("ws.disconnected",
		zap.String("conn_id", c.id.String()),
		zap.String("user", c.identity),
		zap.String("room", c.room),
		zap.String("reason", string(kind)),
		zap.Int("members", members),
	)
	h.record(c, kind, members)
	return true
}

func (h *Hub) record(c *Conn, kind audit.Kind, members int) {
	h.audit.Record(audit.Event{
		ConnID:   c.id,
		Identity: c.identity,
		Room:     c.room,
		Kind:     kind,
		Members:  members,
		At:       time.Now().UTC(),
	})
}

type sendOutcome int

const (
	sendDelivered sendOutcome = iota
	sendSkipped
	sendFailed
)

// deliver is the per-recipient send step. Members that left after the
// snapshot was taken are skipped; transport panics are reported as failures.
func deliver(c *Conn, payload []byte) (outcome sendOutcome, err error) {
	if !c.Registered() || !c.Alive() {
		return sendSkipped, nil
	}
	defer func() {
		if r := recover(); r != nil {
			outcome, err = sendFailed, fmt.Errorf("send panicked: %v", r)
		}
	}()
	if err := c.channel.Send(payload); err != nil {
		return sendFailed, err
	}
	return sendDelivered, nil
}

// Broadcast sends payload to every member of roomName as of the call. A
// failing recipient is evicted on the spot and never affects the others.
func (h *Hub) Broadcast(roomName string, payload []byte) {
	conns := h.Members(roomName)

	var delivered, failed int
	for _, c := range conns {
		outcome, err := deliver(c, payload)
		switch outcome {
		case sendDelivered:
			delivered++
		case sendFailed:
			failed++
			zap.L().Warn("ws.send_failed",
				zap.String("conn_id", c.id.String()),
				zap.String("user", c.identity),
				zap.String("room", roomName),
				zap.Error(err),
			)
			c.markDead()
			if h.leave(c, audit.KindEvicted) {
				h.metrics.Evicted()
			}
		}
	}
	h.metrics.Broadcast(delivered, failed)
}

// Members returns a snapshot of the connections currently in roomName.
func (h *Hub) Members(roomName string) []*Conn {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[roomName]
	if !ok {
		return nil
	}
	return r.snapshot()
}

// Rooms returns the member count of every non-empty room.
func (h *Hub) Rooms() map[string]int {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make(map[string]int, len(h.rooms))
	for name, r := range h.rooms {
		out[name] = len(r)
	}
	return out
}

// Shutdown refuses new connections and marks every member dead so the
// transports close them. Members leave the registry as their sessions end.
// It returns the number of members signalled.
func (h *Hub) Shutdown() int {
	h.mu.Lock()
	h.closed = true
	var conns []*Conn
	for _, r := range h.rooms {
		conns = append(conns, r.snapshot()...)
	}
	h.mu.Unlock()

	for _, c := range conns {
		c.markDead()
	}
	zap.L().Info("ws.hub_shutdown", zap.Int("connections", len(conns)))
	return len(conns)
}
