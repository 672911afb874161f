// Package db
package db

import (
	"database/sql"

	"github.com/LuminaFi/zap-service/internal/journal"
)

// Storage is the interface for all persistent storage.
type Storage interface {
	GetDB() *sql.DB
	journal.Journaler
	Close() error
}

// New returns a Postgres-backed Storage when connStr is set, otherwise
// an in-memory one.
func New(connStr string, maxOpen, maxIdle int) (Storage, error) {
	if connStr == "" {
		return NewMemory(), nil
	}
	return NewPostgres(connStr, maxOpen, maxIdle)
}
