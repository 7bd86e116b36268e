package channels

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/egopanda/agency/internal/agents"
)

const brandColorHex = "ff6b35"

// SlackSender posts attachment messages to Slack incoming webhooks.
type SlackSender struct {
	p poster
}

func NewSlackSender(timeout time.Duration) *SlackSender {
	return &SlackSender{p: newPoster(timeout)}
}

func (s *SlackSender) Type() string { return TypeSlack }

func (s *SlackSender) Send(ctx context.Context, out Outbound) (Result, error) {
	msg := map[string]any{
		"username":   out.Persona.Name + " (" + out.Brand + " AI Agent)",
		"icon_emoji": out.Persona.Emoji,
		"attachments": []map[string]any{{
			"color":  "#" + brandColorHex,
			"title":  titleOr(out.Payload, "Agent Update"),
			"text":   messageOrJSON(out.Payload),
			"fields": fieldsOf(out.Payload),
			"footer": out.Persona.Name + " • " + out.Brand,
			"ts":     time.Now().Unix(),
		}},
	}
	reply, err := s.p.postJSON(ctx, out.Destination, msg, nil)
	if err != nil {
		return Result{}, err
	}
	return Result{Platform: TypeSlack, Status: reply.status, Success: reply.ok, Sent: msg}, nil
}

// SlackNotifier sends plain-text trigger notifications to one Slack webhook,
// signed with the agent's persona.
type SlackNotifier struct {
	p          poster
	webhookURL string
	catalog    *agents.Catalog
}

func NewSlackNotifier(webhookURL string, catalog *agents.Catalog, timeout time.Duration) *SlackNotifier {
	return &SlackNotifier{p: newPoster(timeout), webhookURL: webhookURL, catalog: catalog}
}

func (n *SlackNotifier) Notify(ctx context.Context, agentID, text string) error {
	persona := n.catalog.Persona(agentID)
	reply, err := n.p.postJSON(ctx, n.webhookURL, map[string]any{
		"text":       text,
		"username":   persona.Name,
		"icon_emoji": persona.Emoji,
	}, nil)
	if err != nil {
		return err
	}
	if !reply.ok {
		return fmt.Errorf("slack webhook returned %d", reply.status)
	}
	return nil
}

func titleOr(p map[string]any, def string) string {
	if t := payloadString(p, "title"); t != "" {
		return t
	}
	return def
}

func messageOrJSON(p map[string]any) string {
	if m := payloadString(p, "message"); m != "" {
		return m
	}
	b, _ := json.MarshalIndent(p, "", "  ")
	return string(b)
}

func fieldsOf(p map[string]any) []any {
	if f, ok := p["fields"].([]any); ok {
		return f
	}
	return []any{}
}
