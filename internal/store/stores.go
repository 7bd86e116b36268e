package store

import (
	"database/sql"

	"github.com/google/uuid"
)

// Stores is the top-level container for all storage backends.
type Stores struct {
	Memory MemoryStore
	// DB is the shared handle, exposed for schema checks.
	DB *sql.DB
	// Close releases the underlying database handle.
	Close func() error
}

// StoreConfig selects and configures a backend.
type StoreConfig struct {
	PostgresDSN string // managed mode when set
	SQLitePath  string // standalone mode
}

// GenNewID returns a time-ordered UUID v7 so newer rows sort last by id.
func GenNewID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
