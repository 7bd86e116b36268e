// Package channels delivers outbound agent messages to external platforms
// (Slack, Discord, Microsoft Teams, generic webhooks and APIs, email) and
// provides the notifiers used by trigger actions.
package channels

import (
	"context"
	"errors"
	"time"

	"github.com/egopanda/agency/internal/agents"
)

// Message types.
const (
	TypeSlack   = "slack"
	TypeDiscord = "discord"
	TypeWebhook = "webhook"
	TypeEmail   = "email"
	TypeTeams   = "teams"
	TypeAPI     = "api"
)

// ErrUnknownMessageType is returned for a message type with no sender.
var ErrUnknownMessageType = errors.New("unknown message type")

// Message is one outbound send request.
type Message struct {
	AgentID     string
	Destination string // webhook URL, API URL or email address
	Type        string
	Payload     map[string]any
	Headers     map[string]string
	Template    string
}

// Outbound is what a Sender receives: the resolved persona and the final payload.
type Outbound struct {
	Persona     agents.Persona
	Brand       string
	Destination string
	Payload     map[string]any
	Headers     map[string]string
}

// Result describes one delivery attempt. A non-2xx reply is a failed Result,
// not an error.
type Result struct {
	Platform string `json:"platform"`
	URL      string `json:"url,omitempty"`
	To       string `json:"to,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Status   int    `json:"status,omitempty"`
	Success  bool   `json:"success"`
	MockSent bool   `json:"mockSent,omitempty"`
	Response any    `json:"response,omitempty"`
	Sent     any    `json:"sent,omitempty"`
}

// Sender delivers to one platform. Errors mean the request could not be made
// at all (bad destination, transport failure).
type Sender interface {
	Type() string
	Send(ctx context.Context, out Outbound) (Result, error)
}

// payloadString returns payload[key] when it is a non-empty string.
func payloadString(p map[string]any, key string) string {
	if s, ok := p[key].(string); ok {
		return s
	}
	return ""
}

func nowRFC3339() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}
