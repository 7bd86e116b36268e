package triggers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/egopanda/agency/internal/store"
)

// Memory types written by store-backed collaborators.
const (
	TypeDelegation = "delegation"
	TypeDataUpdate = "data-update"
)

// MemoryDelegator hands events to another agent by writing a memory row under
// the target's id, so the event shows up in that agent's next chat context.
type MemoryDelegator struct {
	Store   store.MemoryStore
	Timeout time.Duration
}

func (d MemoryDelegator) Delegate(ctx context.Context, from, to string, ev Event) error {
	data, err := json.Marshal(ev.Data)
	if err != nil {
		return fmt.Errorf("encode delegated event: %w", err)
	}
	m := &store.Memory{
		ClientID: store.NilClientID,
		Source:   store.SourceMemory,
		Title:    fmt.Sprintf("%s-delegation-%d", to, time.Now().UnixMilli()),
		Content:  fmt.Sprintf("Delegated by %s: %s.%s %s", from, ev.Source, ev.Event, data),
		Metadata: store.MemoryMetadata{AgentID: to, Type: TypeDelegation},
	}
	return store.WriteWithTimeout(ctx, d.Timeout, func(ctx context.Context) error {
		return d.Store.Insert(ctx, m)
	})
}

// MemoryUpdater records trigger data updates as memory rows for the agent.
type MemoryUpdater struct {
	Store   store.MemoryStore
	Timeout time.Duration
}

func (u MemoryUpdater) UpdateData(ctx context.Context, agentID string, details any, ev Event) error {
	payload, err := json.Marshal(map[string]any{"details": details, "data": ev.Data})
	if err != nil {
		return fmt.Errorf("encode data update: %w", err)
	}
	m := &store.Memory{
		ClientID: store.NilClientID,
		Source:   store.SourceMemory,
		Title:    fmt.Sprintf("%s-update-%d", agentID, time.Now().UnixMilli()),
		Content:  fmt.Sprintf("%s.%s: %s", ev.Source, ev.Event, payload),
		Metadata: store.MemoryMetadata{AgentID: agentID, Type: TypeDataUpdate},
	}
	return store.WriteWithTimeout(ctx, u.Timeout, func(ctx context.Context) error {
		return u.Store.Insert(ctx, m)
	})
}
