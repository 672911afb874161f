package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/LuminaFi/zap-service/internal/journal"
)

const eventsSchema = `
CREATE TABLE IF NOT EXISTS events (
	id BIGSERIAL PRIMARY KEY,
	time TIMESTAMPTZ NOT NULL,
	type TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	data JSONB
);
CREATE INDEX IF NOT EXISTS events_type_time_idx ON events (type, time);
`

// Postgres persists engine events with JSONB payloads.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(connStr string, maxOpen, maxIdle int) (*Postgres, error) {
	database, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	database.SetMaxOpenConns(maxOpen)
	database.SetMaxIdleConns(maxIdle)

	if err := database.Ping(); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	if _, err := database.Exec(eventsSchema); err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to apply events schema: %w", err)
	}

	return &Postgres{db: database}, nil
}

func (p *Postgres) GetDB() *sql.DB { return p.db }

func (p *Postgres) Close() error { return p.db.Close() }

func (p *Postgres) LogEvent(ctx context.Context, event journal.Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to encode event data: %w", err)
	}

	_, err = p.db.ExecContext(ctx, `
		INSERT INTO events (time, type, description, data)
		VALUES ($1,$2,$3,$4)`,
		event.Time.UTC(), event.Type, event.Description, data)
	if err != nil {
		return fmt.Errorf("failed to save %s event: %w", event.Type, err)
	}
	return nil
}

func (p *Postgres) GetEvents(ctx context.Context, eventType string, start, end time.Time) ([]journal.Event, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT time, type, description, data FROM events
		WHERE type = $1 AND time >= $2 AND time < $3
		ORDER BY time`,
		eventType, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []journal.Event
	for rows.Next() {
		var e journal.Event
		var data []byte
		if err := rows.Scan(&e.Time, &e.Type, &e.Description, &data); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if len(data) > 0 {
			if err := json.Unmarshal(data, &e.Data); err != nil {
				return nil, fmt.Errorf("failed to decode event data: %w", err)
			}
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
