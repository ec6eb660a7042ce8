package event

import "context"

// Appender defines the persistence contract for the append-only event
// log.
type Appender interface {
	// AppendEvent durably appends an event to its named log.
	AppendEvent(ctx context.Context, evt *Event) error

	// ListEvents returns all events in a log in append order.
	ListEvents(ctx context.Context, logName string) ([]*Event, error)
}
