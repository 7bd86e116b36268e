// Package discord delivers agent messages through Discord webhooks.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/egopanda/agency/internal/channels"
)

// brandColor is #ff6b35 as a Discord embed colour.
const brandColor = 16746549

// webhookExecutor is the slice of *discordgo.Session the sender uses.
type webhookExecutor interface {
	WebhookExecute(webhookID, token string, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Sender executes Discord webhooks. Webhook execution needs no bot token.
type Sender struct {
	session webhookExecutor
}

// New creates a token-less session whose HTTP calls are bounded by timeout.
func New(timeout time.Duration) (*Sender, error) {
	session, err := discordgo.New("")
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Client = &http.Client{Timeout: timeout}
	session.MaxRestRetries = 1
	return &Sender{session: session}, nil
}

func (s *Sender) Type() string { return channels.TypeDiscord }

func (s *Sender) Send(ctx context.Context, out channels.Outbound) (channels.Result, error) {
	id, token, err := ParseWebhookURL(out.Destination)
	if err != nil {
		return channels.Result{}, err
	}

	params := &discordgo.WebhookParams{
		Username:  out.Persona.Name,
		AvatarURL: out.Persona.Avatar,
		Embeds: []*discordgo.MessageEmbed{{
			Title:       stringOr(out.Payload, "title", "Agent Update"),
			Description: stringOr(out.Payload, "message", "Update from AI Agent"),
			Color:       brandColor,
			Fields:      embedFields(out.Payload),
			Footer: &discordgo.MessageEmbedFooter{
				Text:    out.Persona.Name + " • " + out.Brand,
				IconURL: out.Persona.Avatar,
			},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	}

	_, err = s.session.WebhookExecute(id, token, false, params, discordgo.WithContext(ctx))
	if err != nil {
		var rest *discordgo.RESTError
		if errors.As(err, &rest) && rest.Response != nil {
			return channels.Result{Platform: channels.TypeDiscord, Status: rest.Response.StatusCode, Success: false, Sent: params}, nil
		}
		return channels.Result{}, err
	}
	return channels.Result{Platform: channels.TypeDiscord, Status: http.StatusNoContent, Success: true, Sent: params}, nil
}

// ParseWebhookURL extracts id and token from
// https://discord.com/api/webhooks/<id>/<token>.
func ParseWebhookURL(raw string) (id, token string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid discord webhook url: %w", err)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := 0; i+2 < len(parts); i++ {
		if parts[i] == "webhooks" && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("invalid discord webhook url %q: want .../webhooks/<id>/<token>", raw)
}

func stringOr(p map[string]any, key, def string) string {
	if s, ok := p[key].(string); ok && s != "" {
		return s
	}
	return def
}

func embedFields(p map[string]any) []*discordgo.MessageEmbedField {
	raw, ok := p["fields"].([]any)
	if !ok {
		return nil
	}
	var out []*discordgo.MessageEmbedField
	for _, f := range raw {
		m, ok := f.(map[string]any)
		if !ok {
			continue
		}
		name, _ := m["name"].(string)
		if name == "" {
			name, _ = m["title"].(string)
		}
		value := fmt.Sprint(m["value"])
		inline, _ := m["inline"].(bool)
		out = append(out, &discordgo.MessageEmbedField{Name: name, Value: value, Inline: inline})
	}
	return out
}
