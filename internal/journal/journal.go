// Package journal
package journal

import (
	"context"
	"time"
)

// Event represents a journaled engine event.
type Event struct {
	Time        time.Time
	Type        string // e.g., "fee", "volatility", "rate", "error"
	Description string
	Data        map[string]any
}

// Journaler interface for journaling events.
type Journaler interface {
	LogEvent(ctx context.Context, event Event) error
	GetEvents(ctx context.Context, eventType string, start, end time.Time) ([]Event, error)
}

// Nop discards all events.
type Nop struct{}

func (Nop) LogEvent(context.Context, Event) error { return nil }

func (Nop) GetEvents(context.Context, string, time.Time, time.Time) ([]Event, error) {
	return nil, nil
}
