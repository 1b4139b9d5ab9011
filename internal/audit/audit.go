// Package audit records room membership transitions (joins, departures and
// evictions). Chat text is never recorded.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindJoined  Kind = "joined"
	KindLeft    Kind = "left"
	KindEvicted Kind = "evicted"
)

// Event is one membership transition. Members is the room size right after it.
type Event struct {
	ConnID   uuid.UUID
	Identity string
	Room     string
	Kind     Kind
	Members  int
	At       time.Time
}

// Recorder accepts events. Record must not block the caller.
type Recorder interface {
	Record(ev Event)
}

// Store persists batches of events.
type Store interface {
	InsertBatch(ctx context.Context, events []Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Record(Event) {}
