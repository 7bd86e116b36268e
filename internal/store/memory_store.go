package store

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Memory sources.
const (
	SourceConversation = "agent-conversation"
	SourceMemory       = "agent-memory"
)

// Memory types stored in metadata.
const (
	TypeConversation = "conversation"
	TypeMemory       = "memory"
)

// NilClientID is the client id used for rows not owned by a client.
var NilClientID = uuid.Nil

// MemoryMetadata is the JSON metadata column of a memory row.
type MemoryMetadata struct {
	AgentID       string `json:"agent_id"`
	Type          string `json:"type"`
	UserMessage   string `json:"user_message,omitempty"`
	AgentResponse string `json:"agent_response,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// Memory is a persisted text snippet associated with an agent.
type Memory struct {
	ID        uuid.UUID      `json:"id"`
	ClientID  uuid.UUID      `json:"client_id"`
	Source    string         `json:"source"`
	Title     string         `json:"title"`
	Content   string         `json:"content"`
	Metadata  MemoryMetadata `json:"metadata"`
	CreatedAt time.Time      `json:"created_at"`
}

// MemoryQuery filters memory reads. Empty AgentIDs matches every agent.
// Results are ordered newest first.
type MemoryQuery struct {
	AgentIDs []string
	Limit    int
	Offset   int
}

// MemoryStore persists agent memories.
type MemoryStore interface {
	// Insert assigns ID and CreatedAt when zero and writes the row.
	Insert(ctx context.Context, m *Memory) error
	List(ctx context.Context, q MemoryQuery) ([]Memory, error)
}

// PrepareInsert fills the id and timestamp of a new row.
func PrepareInsert(m *Memory) {
	if m.ID == uuid.Nil {
		m.ID = GenNewID()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	if m.Metadata.Timestamp == "" {
		m.Metadata.Timestamp = m.CreatedAt.Format(time.RFC3339Nano)
	}
}

// NormalizeQuery clamps limit and offset.
func NormalizeQuery(q MemoryQuery, defLimit, maxLimit int) MemoryQuery {
	if q.Limit <= 0 {
		q.Limit = defLimit
	}
	if maxLimit > 0 && q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}
