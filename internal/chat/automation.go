package chat

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/egopanda/agency/internal/providers"
)

const automationNote = "This message is coming from n8n workflow automation."

// AutomationFallback is returned when the model answers with no usable text.
const AutomationFallback = "I apologize, but I encountered an issue processing your request."

// AutomationRequest is a message from a workflow automation tool.
type AutomationRequest struct {
	Message string `json:"message"`
	Source  string `json:"source,omitempty"`
	AgentID string `json:"agentId,omitempty"`
}

// AutomationResponse is the automation endpoint reply.
type AutomationResponse struct {
	Success   bool   `json:"success"`
	Agent     string `json:"agent"`
	Response  string `json:"response"`
	Source    string `json:"source"`
	Timestamp string `json:"timestamp"`
	ModelUsed string `json:"model_used"`
}

// Automation answers a workflow-automation message as the requested agent,
// or the default agent when none is named. No memories are loaded or stored.
func (s *Service) Automation(ctx context.Context, req AutomationRequest) (*AutomationResponse, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, &MissingFieldError{Fields: []string{"message"}}
	}
	if req.Source == "" {
		req.Source = "n8n"
	}
	agentID := req.AgentID
	if agentID == "" {
		agentID = s.catalog.Default().ID
	}
	agent := s.catalog.Resolve(agentID)
	systemContext := BuildContext(agent, nil, s.cfg.Agents.SnippetWidth) + "\n\n" + automationNote

	spec, err := PrepareRequest(s.cfg, SelectRoute(s.cfg, agentID), systemContext, nil, req.Message)
	if err != nil {
		return nil, err
	}

	text := AutomationFallback
	reply, err := s.complete(ctx, spec)
	switch {
	case err == nil:
		text = reply.Text
	case errors.Is(err, providers.ErrInvalidResponseFormat):
		slog.Warn("automation reply unusable, sending fallback", "agent", agentID, "error", err)
	default:
		return nil, err
	}

	return &AutomationResponse{
		Success:   true,
		Agent:     agentID,
		Response:  text,
		Source:    req.Source,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		ModelUsed: spec.Model,
	}, nil
}

var (
	//go:embed prompts/support.txt
	supportPrompt string
	//go:embed prompts/fallback_n8n.txt
	fallbackN8N string
	//go:embed prompts/fallback_api.txt
	fallbackAPI string
	//go:embed prompts/fallback_default.txt
	fallbackDefault string
)

const supportMaxTokens = 1000

// SupportResponse is the support assistant reply.
type SupportResponse struct {
	Success   bool   `json:"success"`
	Response  string `json:"response"`
	Timestamp string `json:"timestamp"`
	Fallback  bool   `json:"fallback,omitempty"`
}

// Support answers integration questions. Any failure to get a model answer,
// missing credentials included, yields a canned reply chosen by keyword.
func (s *Service) Support(ctx context.Context, message string) (*SupportResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, &MissingFieldError{Fields: []string{"message"}}
	}
	resp := &SupportResponse{Success: true, Timestamp: time.Now().UTC().Format(time.RFC3339Nano)}

	route := SelectRoute(s.cfg, "")
	route.MaxTokens = supportMaxTokens
	spec, err := PrepareRequest(s.cfg, route, s.supportContext(), nil, message)
	if err == nil {
		var reply providers.Reply
		if reply, err = s.complete(ctx, spec); err == nil {
			resp.Response = reply.Text
			return resp, nil
		}
	}

	slog.Warn("support assistant falling back", "error", err)
	resp.Response = SupportFallback(message)
	resp.Fallback = true
	return resp, nil
}

func (s *Service) supportContext() string {
	var b strings.Builder
	for _, a := range s.catalog.All() {
		fmt.Fprintf(&b, "- %s\n", a.Name)
	}
	return strings.Replace(supportPrompt, "{{agents}}", strings.TrimRight(b.String(), "\n"), 1)
}

// SupportFallback picks the canned reply for message.
func SupportFallback(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "n8n"):
		return strings.TrimSpace(fallbackN8N)
	case strings.Contains(lower, "api"), strings.Contains(lower, "endpoint"):
		return strings.TrimSpace(fallbackAPI)
	default:
		return strings.TrimSpace(fallbackDefault)
	}
}
