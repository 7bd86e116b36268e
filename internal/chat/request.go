// Package chat is the chat-path dispatcher: it turns an agent id and a user
// message into an LLM call specification, runs it, and records the exchange.
package chat

import (
	"strings"

	"github.com/egopanda/agency/internal/providers"
)

// Request is one inbound chat message.
type Request struct {
	AgentID string              `json:"agentId"`
	Message string              `json:"message"`
	History []providers.Message `json:"conversationHistory,omitempty"`
}

// MissingFieldError names required input that was absent or blank.
type MissingFieldError struct {
	Fields []string
}

func (e *MissingFieldError) Error() string {
	return "Missing required fields: " + strings.Join(e.Fields, " and ")
}

// Validate reports blank agentId or message as a *MissingFieldError.
func (r Request) Validate() error {
	var missing []string
	if strings.TrimSpace(r.AgentID) == "" {
		missing = append(missing, "agentId")
	}
	if strings.TrimSpace(r.Message) == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return &MissingFieldError{Fields: missing}
	}
	return nil
}
