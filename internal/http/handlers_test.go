package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/egopanda/agency/internal/agents"
	"github.com/egopanda/agency/internal/channels"
	"github.com/egopanda/agency/internal/chat"
	"github.com/egopanda/agency/internal/config"
	"github.com/egopanda/agency/internal/providers"
	"github.com/egopanda/agency/internal/store"
	"github.com/egopanda/agency/internal/store/sqlite"
	"github.com/egopanda/agency/internal/triggers"
	"github.com/egopanda/agency/internal/webhook"
)

type stubLLM struct {
	reply providers.Reply
	err   error
}

func (s stubLLM) Complete(context.Context, providers.CallSpec) (providers.Reply, error) {
	return s.reply, s.err
}

type testEnv struct {
	mux    *http.ServeMux
	memory store.MemoryStore
}

func newEnv(t *testing.T, llm stubLLM) *testEnv {
	t.Helper()
	cfg := config.Default()
	cfg.LLM.APIKey = "sk-test"

	catalog, err := agents.Load("")
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	db, err := sqlite.OpenDB(filepath.Join(t.TempDir(), "memory.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	memories := sqlite.NewMemoryStore(db)

	exec := triggers.NewExecutor(triggers.Collaborators{Notifier: channels.LogNotifier{}}, time.Second)
	svc := chat.NewService(cfg, catalog, llm, memories, exec)
	dispatcher := channels.NewDispatcher(catalog, "EgoPanda Creative", channels.NewWebhookSender(time.Second))

	mux := http.NewServeMux()
	NewChatHandler(svc).RegisterRoutes(mux)
	NewMemoryHandler(memories, time.Second).RegisterRoutes(mux)
	NewMessagesHandler(dispatcher).RegisterRoutes(mux)
	NewWebhookHandler(webhook.NewRouter(catalog, exec, 2)).RegisterRoutes(mux)
	return &testEnv{mux: mux, memory: memories}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)

	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("%s %s: invalid JSON body %q", method, path, rec.Body.String())
	}
	return rec.Code, out
}

func TestChatEndpoint(t *testing.T) {
	env := newEnv(t, stubLLM{reply: providers.Reply{Text: "Hello from Charlie"}})

	code, body := env.do(t, http.MethodPost, "/api/chat-agent", map[string]any{"agentId": "charlie", "message": "hi"})
	if code != http.StatusOK {
		t.Fatalf("status = %d, body = %v", code, body)
	}
	if body["response"] != "Hello from Charlie" || body["agent"] != "charlie" || body["model_used"] != "gpt-4o" || body["success"] != true {
		t.Errorf("body = %v", body)
	}

	code, body = env.do(t, http.MethodPost, "/api/chat-agent", map[string]any{"agentId": "charlie"})
	if code != http.StatusBadRequest || body["error"] != "Missing required fields: message" {
		t.Errorf("missing message: %d %v", code, body)
	}

	code, body = env.do(t, http.MethodGet, "/api/chat-agent", nil)
	if code != http.StatusMethodNotAllowed || body["error"] != "Method not allowed" {
		t.Errorf("GET: %d %v", code, body)
	}
}

func TestChatEndpointUpstreamError(t *testing.T) {
	env := newEnv(t, stubLLM{err: &providers.HTTPError{Status: 401, Body: `{"error":"bad key"}`}})

	code, body := env.do(t, http.MethodPost, "/api/chat-agent", map[string]any{"agentId": "vanessa", "message": "hi"})
	if code != http.StatusBadGateway {
		t.Fatalf("status = %d, body = %v", code, body)
	}
	if body["upstream_status"] != float64(401) || body["upstream_body"] != `{"error":"bad key"}` {
		t.Errorf("body = %v", body)
	}
}

func TestChatEndpointInvalidFormat(t *testing.T) {
	env := newEnv(t, stubLLM{err: providers.ErrInvalidResponseFormat})
	code, body := env.do(t, http.MethodPost, "/api/chat-agent", map[string]any{"agentId": "rory", "message": "hi"})
	if code != http.StatusInternalServerError || body["error"] == nil || body["message"] == nil {
		t.Errorf("%d %v", code, body)
	}
}

func TestMemoryWriteThenRead(t *testing.T) {
	env := newEnv(t, stubLLM{})

	code, body := env.do(t, http.MethodPost, "/api/memory-write", map[string]any{"content": ""})
	if code != http.StatusBadRequest || !strings.Contains(body["error"].(string), "content") {
		t.Errorf("empty content: %d %v", code, body)
	}

	for _, w := range []map[string]any{
		{"content": "likes green", "agent_id": "charlie"},
		{"content": "Q3 goals", "agent_id": "vanessa", "title": "goals"},
		{"content": "orphan"},
	} {
		if code, body := env.do(t, http.MethodPost, "/api/memory-write", w); code != http.StatusOK {
			t.Fatalf("write %v: %d %v", w, code, body)
		}
	}

	code, body = env.do(t, http.MethodGet, "/api/memory-read?agent_id=charlie,vanessa&limit=10", nil)
	if code != http.StatusOK || body["count"] != float64(2) {
		t.Fatalf("read: %d %v", code, body)
	}
	data := body["data"].([]any)
	newest := data[0].(map[string]any)
	if newest["title"] != "goals" {
		t.Errorf("newest = %v", newest)
	}

	code, body = env.do(t, http.MethodPost, "/api/memory-read", map[string]any{"agent_id": "unknown"})
	if code != http.StatusOK || body["count"] != float64(1) {
		t.Fatalf("read unknown: %d %v", code, body)
	}
	row := body["data"].([]any)[0].(map[string]any)
	if !strings.HasPrefix(row["title"].(string), "agent-memory-") || row["source"] != store.SourceMemory {
		t.Errorf("default title/source = %v", row)
	}

	code, body = env.do(t, http.MethodGet, "/api/memory-read?limit=1&offset=1", nil)
	if code != http.StatusOK || body["count"] != float64(1) {
		t.Errorf("paged read: %d %v", code, body)
	}

	code, _ = env.do(t, http.MethodDelete, "/api/memory-read", nil)
	if code != http.StatusMethodNotAllowed {
		t.Errorf("DELETE status = %d", code)
	}
}

func TestSendMessageEndpoint(t *testing.T) {
	var got map[string]any
	dest := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusAccepted)
	}))
	defer dest.Close()

	env := newEnv(t, stubLLM{})
	code, body := env.do(t, http.MethodPost, "/api/send-message", map[string]any{
		"agentId":     "marsha",
		"destination": dest.URL,
		"messageType": "webhook",
		"payload":     map[string]any{"text": "launch"},
	})
	if code != http.StatusOK || body["success"] != true || body["messageType"] != "webhook" {
		t.Fatalf("send: %d %v", code, body)
	}
	if got["source"] != channels.EnvelopeSource {
		t.Errorf("destination received %v", got)
	}

	code, body = env.do(t, http.MethodPost, "/api/send-message", map[string]any{"agentId": "marsha", "destination": dest.URL, "messageType": "fax"})
	if code != http.StatusBadRequest || !strings.Contains(body["error"].(string), "unknown message type") {
		t.Errorf("unknown type: %d %v", code, body)
	}

	code, _ = env.do(t, http.MethodPost, "/api/send-message", map[string]any{"agentId": "marsha"})
	if code != http.StatusBadRequest {
		t.Errorf("missing fields status = %d", code)
	}
}

func TestWebhookEndpoint(t *testing.T) {
	env := newEnv(t, stubLLM{})

	code, body := env.do(t, http.MethodPost, "/api/webhook-handler", map[string]any{
		"source": "stripe",
		"event":  "payment.success",
		"data":   map[string]any{"customer_email": "x@y.z", "amount": 10},
	})
	if code != http.StatusOK || body["success"] != true {
		t.Fatalf("webhook: %d %v", code, body)
	}
	agentResp := body["agentResponse"].(map[string]any)
	if agentResp["processed"] != true || agentResp["agentsNotified"] != float64(1) {
		t.Errorf("agentResponse = %v", agentResp)
	}

	for _, data := range []any{[]any{1, 2}, "raw-string", 42} {
		code, body = env.do(t, http.MethodPost, "/api/webhook-handler", map[string]any{
			"source": "stripe",
			"event":  "payment.success",
			"data":   data,
		})
		if code != http.StatusOK || body["success"] != true {
			t.Errorf("webhook with data %v: %d %v", data, code, body)
		}
	}

	code, body = env.do(t, http.MethodPost, "/api/webhook-handler", map[string]any{"source": "nobody", "event": "x"})
	agentResp = body["agentResponse"].(map[string]any)
	if code != http.StatusOK || agentResp["processed"] != false || agentResp["message"] != webhook.MsgNoAgents {
		t.Errorf("no targets: %d %v", code, body)
	}

	code, _ = env.do(t, http.MethodPost, "/api/webhook-handler", map[string]any{"source": "stripe"})
	if code != http.StatusBadRequest {
		t.Errorf("missing event status = %d", code)
	}
}

func TestSupportEndpointFallsBack(t *testing.T) {
	env := newEnv(t, stubLLM{err: &providers.HTTPError{Status: 500}})
	code, body := env.do(t, http.MethodPost, "/api/support-assistant", map[string]any{"message": "how do I set up n8n"})
	if code != http.StatusOK || body["fallback"] != true {
		t.Errorf("support: %d %v", code, body)
	}
}

func TestDiagnosticTextTruncates(t *testing.T) {
	long := strings.Repeat("é", maxDiagnostic)
	got := DiagnosticText(long)
	if len(got) > maxDiagnostic+3 || !strings.HasSuffix(got, "...") {
		t.Errorf("len = %d", len(got))
	}
	if DiagnosticText("short") != "short" {
		t.Error("short text changed")
	}
}
