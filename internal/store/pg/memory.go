package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/lib/pq"

	"github.com/egopanda/agency/internal/store"
)

// PGMemoryStore keeps agent memories in the documents table.
type PGMemoryStore struct {
	db *sql.DB
}

func NewPGMemoryStore(db *sql.DB) *PGMemoryStore {
	return &PGMemoryStore{db: db}
}

func (s *PGMemoryStore) Insert(ctx context.Context, m *store.Memory) error {
	store.PrepareInsert(m)
	meta, err := json.Marshal(m.Metadata)
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO documents (id, client_id, source, title, content, metadata, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		m.ID, m.ClientID, m.Source, m.Title, m.Content, meta, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *PGMemoryStore) List(ctx context.Context, q store.MemoryQuery) ([]store.Memory, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if len(q.AgentIDs) > 0 {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, client_id, source, title, content, metadata, created_at
			 FROM documents
			 WHERE metadata->>'agent_id' = ANY($1)
			 ORDER BY created_at DESC
			 LIMIT $2 OFFSET $3`,
			pq.Array(q.AgentIDs), q.Limit, q.Offset)
	} else {
		rows, err = s.db.QueryContext(ctx,
			`SELECT id, client_id, source, title, content, metadata, created_at
			 FROM documents
			 ORDER BY created_at DESC
			 LIMIT $1 OFFSET $2`,
			q.Limit, q.Offset)
	}
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()
	return scanMemoryRows(rows)
}

func scanMemoryRows(rows *sql.Rows) ([]store.Memory, error) {
	out := []store.Memory{}
	for rows.Next() {
		var (
			m    store.Memory
			meta []byte
		)
		if err := rows.Scan(&m.ID, &m.ClientID, &m.Source, &m.Title, &m.Content, &meta, &m.CreatedAt); err != nil {
			return nil, err
		}
		if len(meta) > 0 {
			_ = json.Unmarshal(meta, &m.Metadata)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
