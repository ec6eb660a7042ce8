package postgres

import (
	"context"
	"fmt"

	"github.com/evercron/evercron/event"
	"github.com/evercron/evercron/id"
)

// AppendEvent appends an event to its named log.
func (s *Store) AppendEvent(ctx context.Context, evt *event.Event) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO evercron_event_log (id, log_name, data, created_at)
		VALUES ($1, $2, $3, $4)`,
		evt.ID.String(), evt.LogName, evt.Data, evt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("evercron/postgres: append event: %w", err)
	}
	return nil
}

// ListEvents returns all events in a log in append order.
func (s *Store) ListEvents(ctx context.Context, logName string) ([]*event.Event, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, log_name, data, created_at
		FROM evercron_event_log
		WHERE log_name = $1
		ORDER BY created_at ASC, id ASC`,
		logName,
	)
	if err != nil {
		return nil, fmt.Errorf("evercron/postgres: list events: %w", err)
	}
	defer rows.Close()

	var events []*event.Event
	for rows.Next() {
		var (
			evt   event.Event
			idStr string
		)
		if scanErr := rows.Scan(&idStr, &evt.LogName, &evt.Data, &evt.CreatedAt); scanErr != nil {
			return nil, fmt.Errorf("evercron/postgres: scan event row: %w", scanErr)
		}
		parsedID, parseErr := id.ParseEventID(idStr)
		if parseErr != nil {
			return nil, fmt.Errorf("evercron/postgres: parse event id %q: %w", idStr, parseErr)
		}
		evt.ID = parsedID
		events = append(events, &evt)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("evercron/postgres: iterate event rows: %w", err)
	}
	return events, nil
}
