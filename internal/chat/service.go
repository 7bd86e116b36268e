package chat

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/egopanda/agency/internal/agents"
	"github.com/egopanda/agency/internal/config"
	"github.com/egopanda/agency/internal/providers"
	"github.com/egopanda/agency/internal/store"
	"github.com/egopanda/agency/internal/telemetry"
	"github.com/egopanda/agency/internal/triggers"
)

const (
	defaultMood     = "focused"
	memoryReadDelay = 200 * time.Millisecond
)

// Completer runs a prepared LLM call. *providers.Client implements it.
type Completer interface {
	Complete(ctx context.Context, spec providers.CallSpec) (providers.Reply, error)
}

// Service runs complete chat turns: memories, LLM call, conversation log and
// keyword workflows.
type Service struct {
	cfg      *config.Config
	catalog  *agents.Catalog
	llm      Completer
	memories store.MemoryStore // nil disables memory reads and writes
	exec     *triggers.Executor
}

func NewService(cfg *config.Config, catalog *agents.Catalog, llm Completer, memories store.MemoryStore, exec *triggers.Executor) *Service {
	return &Service{cfg: cfg, catalog: catalog, llm: llm, memories: memories, exec: exec}
}

// Response is the chat endpoint reply.
type Response struct {
	Response           string                    `json:"response"`
	Agent              string                    `json:"agent"`
	ModelUsed          string                    `json:"model_used"`
	EndpointUsed       string                    `json:"endpoint_used"`
	MemoriesLoaded     int                       `json:"memories_loaded"`
	WorkflowsTriggered int                       `json:"workflows_triggered"`
	Workflows          []triggers.WorkflowResult `json:"workflows,omitempty"`
	Success            bool                      `json:"success"`
	Metadata           Metadata                  `json:"metadata"`
}

// Metadata describes the context the reply was generated with.
type Metadata struct {
	ContextTokens  int    `json:"context_tokens"`
	AgentMood      string `json:"agent_mood"`
	AgentWorkload  int    `json:"agent_workload"`
	ActiveProjects int    `json:"active_projects"`
	Timestamp      string `json:"timestamp"`
}

// Chat runs one turn. Upstream failures come back as *providers.HTTPError and
// unparseable replies as providers.ErrInvalidResponseFormat; memory store
// failures are logged and never fail the turn.
func (s *Service) Chat(ctx context.Context, req Request) (*Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	slog.Info("chat turn", "agent", req.AgentID)

	memories := s.recentMemories(ctx, req.AgentID)
	spec, agent, systemContext, err := Dispatch(s.cfg, s.catalog, req, memories)
	if err != nil {
		return nil, err
	}
	matches := triggers.MatchKeywords(req.AgentID, req.Message)

	reply, err := s.complete(ctx, spec)
	if err != nil {
		return nil, err
	}

	s.storeConversation(ctx, req.AgentID, req.Message, reply.Text)
	// Capability-gated keywords only fire for catalog agents, not the fallback.
	known, _ := s.catalog.Lookup(req.AgentID)
	workflows := s.exec.ExecuteKeywords(ctx, known, matches, reply.Text)

	mood := agent.Mood
	if mood == "" {
		mood = defaultMood
	}
	return &Response{
		Response:           reply.Text,
		Agent:              req.AgentID,
		ModelUsed:          spec.Model,
		EndpointUsed:       spec.Endpoint,
		MemoriesLoaded:     len(memories),
		WorkflowsTriggered: len(workflows),
		Workflows:          workflows,
		Success:            true,
		Metadata: Metadata{
			ContextTokens:  utf8.RuneCountInString(systemContext),
			AgentMood:      mood,
			AgentWorkload:  agent.Workload,
			ActiveProjects: len(agent.ActiveProjects()),
			Timestamp:      time.Now().UTC().Format(time.RFC3339Nano),
		},
	}, nil
}

func (s *Service) complete(ctx context.Context, spec providers.CallSpec) (providers.Reply, error) {
	start := time.Now()
	reply, err := s.llm.Complete(ctx, spec)
	outcome := "ok"
	var he *providers.HTTPError
	switch {
	case err == nil:
	case errors.As(err, &he):
		outcome = "upstream_error"
	case errors.Is(err, providers.ErrInvalidResponseFormat):
		outcome = "invalid_response"
	default:
		outcome = "error"
	}
	telemetry.RecordLLMCall(ctx, spec.Model, outcome, time.Since(start))
	return reply, err
}

func (s *Service) recentMemories(ctx context.Context, agentID string) []store.Memory {
	if s.memories == nil {
		return nil
	}
	limit := s.cfg.Agents.MemoryLimit
	if limit <= 0 {
		limit = 5
	}
	ms, err := store.ReadWithRetry(ctx, s.cfg.Database.Timeout(), memoryReadDelay, func(ctx context.Context) ([]store.Memory, error) {
		return s.memories.List(ctx, store.MemoryQuery{AgentIDs: []string{agentID}, Limit: limit})
	})
	if err != nil {
		slog.Warn("recent memories unavailable", "agent", agentID, "error", err)
		telemetry.RecordMemoryStoreError(ctx, "read")
		return nil
	}
	return ms
}

// storeConversation is best effort and never retried: a retry could write the
// same exchange twice.
func (s *Service) storeConversation(ctx context.Context, agentID, userMessage, agentResponse string) {
	if s.memories == nil {
		return
	}
	now := time.Now().UTC()
	m := &store.Memory{
		ClientID:  store.NilClientID,
		Source:    store.SourceConversation,
		Title:     agentID + "-conversation-" + strconv.FormatInt(now.UnixMilli(), 10),
		Content:   "User: " + userMessage + "\n\n" + agents.DisplayName(agentID) + ": " + agentResponse,
		CreatedAt: now,
		Metadata: store.MemoryMetadata{
			AgentID:       agentID,
			Type:          store.TypeConversation,
			UserMessage:   userMessage,
			AgentResponse: agentResponse,
		},
	}
	err := store.WriteWithTimeout(ctx, s.cfg.Database.Timeout(), func(ctx context.Context) error {
		return s.memories.Insert(ctx, m)
	})
	if err != nil {
		slog.Warn("conversation not stored", "agent", agentID, "error", err)
		telemetry.RecordMemoryStoreError(ctx, "write")
	}
}
