package db

import (
	"context"
	"database/sql"
	"sync"
	"time"

	"github.com/LuminaFi/zap-service/internal/journal"
)

// MemoryStorage is the in-process Storage used by tests and
// journal-less deployments.
type MemoryStorage struct {
	mu sync.RWMutex

	// Events (append-only)
	events []journal.Event
}

func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		events: make([]journal.Event, 0, 1024),
	}
}

// GetDB returns nil for in-memory storage (no SQL database)
func (m *MemoryStorage) GetDB() *sql.DB { return nil }

func (m *MemoryStorage) Close() error { return nil }

func (m *MemoryStorage) LogEvent(ctx context.Context, event journal.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	event.Time = event.Time.UTC()
	m.events = append(m.events, event)
	return nil
}

func (m *MemoryStorage) GetEvents(ctx context.Context, eventType string, start, end time.Time) ([]journal.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []journal.Event
	for _, e := range m.events {
		if e.Type != eventType {
			continue
		}
		if e.Time.Before(start.UTC()) || !e.Time.Before(end.UTC()) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
