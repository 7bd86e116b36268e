package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/egopanda/agency/internal/store"
	"github.com/egopanda/agency/internal/telemetry"
	"github.com/egopanda/agency/pkg/protocol"
)

const (
	defaultMemoryLimit = 10
	maxMemoryLimit     = 100
	memoryRetryDelay   = 200 * time.Millisecond
)

// MemoryHandler serves the raw memory read and write endpoints.
type MemoryHandler struct {
	store   store.MemoryStore
	timeout time.Duration
}

func NewMemoryHandler(s store.MemoryStore, timeout time.Duration) *MemoryHandler {
	return &MemoryHandler{store: s, timeout: timeout}
}

// RegisterRoutes registers the memory routes on mux.
func (h *MemoryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(protocol.RouteMemoryRead, allowMethods(h.handleRead, http.MethodGet, http.MethodPost))
	mux.HandleFunc(protocol.RouteMemoryWrite, allowMethods(h.handleWrite, http.MethodPost))
}

// memoryReadParams accepts numbers or numeric strings for limit and offset.
type memoryReadParams struct {
	AgentID string      `json:"agent_id"`
	Limit   json.Number `json:"limit"`
	Offset  json.Number `json:"offset"`
}

func (h *MemoryHandler) handleRead(w http.ResponseWriter, r *http.Request) {
	var p memoryReadParams
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		p = memoryReadParams{AgentID: q.Get("agent_id"), Limit: json.Number(q.Get("limit")), Offset: json.Number(q.Get("offset"))}
	} else if !decodeBody(w, r, &p) {
		return
	}

	limit, err := intParam(p.Limit, defaultMemoryLimit)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a number"})
		return
	}
	offset, err := intParam(p.Offset, 0)
	if err != nil {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "offset must be a number"})
		return
	}
	query := store.NormalizeQuery(store.MemoryQuery{
		AgentIDs: splitAgentIDs(p.AgentID),
		Limit:    limit,
		Offset:   offset,
	}, defaultMemoryLimit, maxMemoryLimit)

	memories, err := store.ReadWithRetry(r.Context(), h.timeout, memoryRetryDelay, func(ctx context.Context) ([]store.Memory, error) {
		return h.store.List(ctx, query)
	})
	if err != nil {
		telemetry.RecordMemoryStoreError(r.Context(), "read")
		writeError(w, err, "Failed to read memories")
		return
	}
	if memories == nil {
		memories = []store.Memory{}
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    memories,
		"count":   len(memories),
		"message": "Memories retrieved successfully",
	})
}

type memoryWriteRequest struct {
	Content  string `json:"content"`
	Title    string `json:"title"`
	AgentID  string `json:"agent_id"`
	ClientID string `json:"client_id"`
}

func (h *MemoryHandler) handleWrite(w http.ResponseWriter, r *http.Request) {
	var req memoryWriteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Content == "" {
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "content is required"})
		return
	}

	clientID := store.NilClientID
	if req.ClientID != "" {
		id, err := uuid.Parse(req.ClientID)
		if err != nil {
			WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "client_id must be a UUID"})
			return
		}
		clientID = id
	}

	now := time.Now().UTC()
	m := &store.Memory{
		ClientID:  clientID,
		Source:    store.SourceMemory,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: now,
		Metadata: store.MemoryMetadata{
			AgentID: req.AgentID,
			Type:    store.TypeMemory,
		},
	}
	if m.Title == "" {
		prefix := req.AgentID
		if prefix == "" {
			prefix = "agent"
		}
		m.Title = prefix + "-memory-" + strconv.FormatInt(now.UnixMilli(), 10)
	}
	if m.Metadata.AgentID == "" {
		m.Metadata.AgentID = "unknown"
	}

	err := store.WriteWithTimeout(r.Context(), h.timeout, func(ctx context.Context) error {
		return h.store.Insert(ctx, m)
	})
	if err != nil {
		telemetry.RecordMemoryStoreError(r.Context(), "write")
		writeError(w, err, "Failed to store memory")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"data":    []*store.Memory{m},
		"message": "Memory stored successfully",
	})
}

func intParam(n json.Number, def int) (int, error) {
	if n == "" {
		return def, nil
	}
	v, err := strconv.Atoi(string(n))
	if err != nil {
		return 0, err
	}
	return v, nil
}

// splitAgentIDs parses a comma-separated agent id filter.
func splitAgentIDs(s string) []string {
	var out []string
	for _, id := range strings.Split(s, ",") {
		if id = strings.TrimSpace(id); id != "" {
			out = append(out, id)
		}
	}
	return out
}
