// Package upgrade decides whether a managed-mode Postgres database can serve
// the memory endpoints: the golang-migrate version must match this binary and
// the memory tables must be present.
package upgrade

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SchemaVersion is the newest migration under migrations/.
const SchemaVersion uint = 1

// RequiredTables must exist once SchemaVersion is applied.
var RequiredTables = []string{"documents"}

const checkTimeout = 5 * time.Second

// State classifies a database against SchemaVersion.
type State int

const (
	StateCurrent    State = iota
	StateFresh            // never migrated
	StateBehind           // older migration applied
	StateAhead            // migrated by a newer binary
	StateDirty            // a migration failed partway
	StateIncomplete       // version matches but a memory table is gone
)

func (s State) String() string {
	switch s {
	case StateCurrent:
		return "current"
	case StateFresh:
		return "fresh"
	case StateBehind:
		return "behind"
	case StateAhead:
		return "ahead"
	case StateDirty:
		return "dirty"
	case StateIncomplete:
		return "incomplete"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

var (
	ErrSchemaOutdated   = errors.New("memory schema is outdated")
	ErrSchemaDirty      = errors.New("memory schema is dirty (failed migration)")
	ErrSchemaAhead      = errors.New("memory schema is newer than this binary")
	ErrSchemaIncomplete = errors.New("memory schema is missing tables")
)

// Status is the outcome of Check.
type Status struct {
	Version       uint
	State         State
	MissingTables []string
	Documents     int64 // stored memories, -1 when not counted
}

// NeedsMigration reports whether `agency migrate up` would fix the database.
func (s *Status) NeedsMigration() bool {
	return s.State == StateFresh || s.State == StateBehind
}

// Err maps the state to a sentinel error, nil when the store is usable.
func (s *Status) Err() error {
	switch s.State {
	case StateCurrent:
		return nil
	case StateFresh, StateBehind:
		return ErrSchemaOutdated
	case StateDirty:
		return ErrSchemaDirty
	case StateAhead:
		return ErrSchemaAhead
	default:
		return ErrSchemaIncomplete
	}
}

// Check pings the database, then reads golang-migrate's schema_migrations
// row. A missing table or row is a fresh database, not an error. Table
// presence and the memory count are only checked at the current version.
func Check(ctx context.Context, db *sql.DB) (*Status, error) {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := &Status{Documents: -1}
	var dirty bool
	if err := db.QueryRowContext(ctx, "SELECT version, dirty FROM schema_migrations LIMIT 1").Scan(&s.Version, &dirty); err != nil {
		s.State = StateFresh
		return s, nil
	}

	switch {
	case dirty:
		s.State = StateDirty
	case s.Version < SchemaVersion:
		s.State = StateBehind
	case s.Version > SchemaVersion:
		s.State = StateAhead
	default:
		missing, err := missingTables(ctx, db)
		if err != nil {
			return nil, err
		}
		s.MissingTables = missing
		if len(missing) > 0 {
			s.State = StateIncomplete
			return s, nil
		}
		if err := db.QueryRowContext(ctx, "SELECT count(*) FROM documents").Scan(&s.Documents); err != nil {
			s.Documents = -1
		}
	}
	return s, nil
}

func missingTables(ctx context.Context, db *sql.DB) ([]string, error) {
	var missing []string
	for _, t := range RequiredTables {
		var present bool
		if err := db.QueryRowContext(ctx, "SELECT to_regclass($1) IS NOT NULL", t).Scan(&present); err != nil {
			return nil, fmt.Errorf("look up table %s: %w", t, err)
		}
		if !present {
			missing = append(missing, t)
		}
	}
	return missing, nil
}

// Report returns operator instructions for an unusable status.
func Report(s *Status) string {
	switch s.State {
	case StateCurrent:
		return fmt.Sprintf("Memory schema v%d is current.\n", s.Version)
	case StateFresh:
		return "Database has no memory schema yet.\n\n  Run: agency migrate up\n"
	case StateBehind:
		return fmt.Sprintf("Memory schema is outdated: current v%d, required v%d.\n\n  Run: agency upgrade\n", s.Version, SchemaVersion)
	case StateAhead:
		return fmt.Sprintf("Memory schema (v%d) is newer than this binary (requires v%d).\n  Fix: upgrade the agency binary.\n", s.Version, SchemaVersion)
	case StateDirty:
		prev := uint(0)
		if s.Version > 0 {
			prev = s.Version - 1
		}
		return fmt.Sprintf("Memory schema is dirty at v%d (a migration failed partway).\n\n  Fix:  agency migrate force %d\n  Then: agency migrate up\n", s.Version, prev)
	default:
		return fmt.Sprintf("Memory schema v%d is missing tables: %s.\n\n  Fix:  agency migrate force %d\n  Then: agency migrate up\n",
			s.Version, strings.Join(s.MissingTables, ", "), SchemaVersion-1)
	}
}
