// Package sqlite is the standalone-mode store, backed by an embedded
// pure-Go SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/egopanda/agency/internal/store"
)

// timeLayout is fixed width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	client_id  TEXT NOT NULL,
	source     TEXT NOT NULL,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	agent_id   TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_documents_agent_created ON documents (agent_id, created_at DESC);
`

// OpenDB opens (creating if needed) the database at path and applies the schema.
// Use ":memory:" for an ephemeral database.
func OpenDB(path string) (*sql.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// modernc connections do not share an in-memory database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return db, nil
}

// NewSQLiteStores creates all stores backed by SQLite (standalone mode).
func NewSQLiteStores(cfg store.StoreConfig) (*store.Stores, error) {
	db, err := OpenDB(cfg.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	return &store.Stores{
		Memory: NewMemoryStore(db),
		DB:     db,
		Close:  db.Close,
	}, nil
}

// MemoryStore keeps agent memories in a local documents table.
type MemoryStore struct {
	db *sql.DB
}

func NewMemoryStore(db *sql.DB) *MemoryStore {
	return &MemoryStore{db: db}
}

func (s *MemoryStore) Insert(ctx context.Context, m *store.Memory) error {
	store.PrepareInsert(m)
	meta, err := json.Marshal(m.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, client_id, source, title, content, metadata, agent_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID.String(), m.ClientID.String(), m.Source, m.Title, m.Content, string(meta),
		m.Metadata.AgentID, m.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *MemoryStore) List(ctx context.Context, q store.MemoryQuery) ([]store.Memory, error) {
	query := `SELECT id, client_id, source, title, content, metadata, created_at FROM documents`
	var args []any
	if len(q.AgentIDs) > 0 {
		query += ` WHERE agent_id IN (?` + strings.Repeat(", ?", len(q.AgentIDs)-1) + `)`
		for _, id := range q.AgentIDs {
			args = append(args, id)
		}
	}
	// id is a UUIDv7, so it breaks ties between rows written in the same instant.
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, q.Limit, q.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	out := []store.Memory{}
	for rows.Next() {
		var (
			m                     store.Memory
			id, clientID, created string
			meta                  string
		)
		if err := rows.Scan(&id, &clientID, &m.Source, &m.Title, &m.Content, &meta, &created); err != nil {
			return nil, err
		}
		if err := m.ID.UnmarshalText([]byte(id)); err != nil {
			return nil, fmt.Errorf("bad id %q: %w", id, err)
		}
		_ = m.ClientID.UnmarshalText([]byte(clientID))
		_ = json.Unmarshal([]byte(meta), &m.Metadata)
		m.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, m)
	}
	return out, rows.Err()
}
