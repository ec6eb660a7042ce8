// Package event provides the append-only event log interface handlers
// may emit side effects to. Appends are durability writes to an
// external log; a failed append must never fail the execution that
// produced it, so the Emitter wraps every Appender with log-and-drop
// semantics.
package event

import (
	"time"

	"github.com/evercron/evercron/id"
)

// Event is one appended record in a named event log.
type Event struct {
	ID        id.EventID `json:"id"`
	LogName   string     `json:"log_name"`
	Data      []byte     `json:"data,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// New creates an event for the given log.
func New(logName string, data []byte) *Event {
	return &Event{
		ID:        id.NewEventID(),
		LogName:   logName,
		Data:      data,
		CreatedAt: time.Now().UTC(),
	}
}
