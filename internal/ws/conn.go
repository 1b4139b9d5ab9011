package ws

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Channel is one bidirectional message transport. Accept performs the
// transport handshake and must succeed before the first Send. Send and Close
// may block on I/O and must be safe for concurrent use.
type Channel interface {
	Accept() error
	Send(payload []byte) error
	Close(code int, reason string) error
}

var (
	ErrEmptyIdentity = errors.New("identity must not be empty")
	ErrEmptyRoom     = errors.New("room must not be empty")
)

// registry membership of a Conn; written under Hub.mu only.
const (
	stateUnregistered int32 = iota
	stateRegistered
	stateRetired
)

// Conn ties one Channel to an identity and a room for its whole lifetime.
// Two Conns with the same identity and room are distinct members.
type Conn struct {
	id       uuid.UUID
	channel  Channel
	identity string
	room     string

	acceptOnce sync.Once
	acceptErr  error

	state atomic.Int32

	deadOnce sync.Once
	dead     chan struct{}
}

func NewConn(ch Channel, identity, room string) (*Conn, error) {
	if strings.TrimSpace(identity) == "" {
		return nil, ErrEmptyIdentity
	}
	if strings.TrimSpace(room) == "" {
		return nil, ErrEmptyRoom
	}
	return &Conn{
		id:       uuid.New(),
		channel:  ch,
		identity: identity,
		room:     room,
		dead:     make(chan struct{}),
	}, nil
}

func (c *Conn) ID() uuid.UUID       { return c.id }
func (c *Conn) Identity() string    { return c.identity }
func (c *Conn) Room() string        { return c.room }
func (c *Conn) Channel() Channel    { return c.channel }
func (c *Conn) Registered() bool    { return c.state.Load() == stateRegistered }
func (c *Conn) Send(b []byte) error { return c.channel.Send(b) }

// Dead is closed once the connection was found unable to receive, or the
// registry is shutting down. The transport owning the channel should close it.
func (c *Conn) Dead() <-chan struct{} { return c.dead }

func (c *Conn) Alive() bool {
	select {
	case <-c.dead:
		return false
	default:
		return true
	}
}

func (c *Conn) markDead() {
	c.deadOnce.Do(func() { close(c.dead) })
}

// accept runs the channel handshake exactly once; concurrent callers wait for
// the first one and share its result.
func (c *Conn) accept() error {
	c.acceptOnce.Do(func() {
		c.acceptErr = c.channel.Accept()
	})
	return c.acceptErr
}
