package channels

import (
	"context"
	"encoding/json"
	"time"
)

// EnvelopeSource tags outbound webhook envelopes.
const EnvelopeSource = "egopanda-agent"

// WebhookSender posts an agent envelope to an arbitrary webhook URL.
type WebhookSender struct {
	p poster
}

func NewWebhookSender(timeout time.Duration) *WebhookSender {
	return &WebhookSender{p: newPoster(timeout)}
}

func (s *WebhookSender) Type() string { return TypeWebhook }

func (s *WebhookSender) Send(ctx context.Context, out Outbound) (Result, error) {
	env := map[string]any{
		"agent":     out.Persona,
		"data":      out.Payload,
		"timestamp": nowRFC3339(),
		"source":    EnvelopeSource,
	}
	headers := map[string]string{"User-Agent": "EgoPanda-Agent-" + out.Persona.Name}
	for k, v := range out.Headers {
		headers[k] = v
	}
	reply, err := s.p.postJSON(ctx, out.Destination, env, headers)
	if err != nil {
		return Result{}, err
	}
	return Result{Platform: TypeWebhook, URL: out.Destination, Status: reply.status, Success: reply.ok, Sent: env}, nil
}

// APISender posts to a generic JSON API and decodes its reply.
type APISender struct {
	p poster
}

func NewAPISender(timeout time.Duration) *APISender {
	return &APISender{p: newPoster(timeout)}
}

func (s *APISender) Type() string { return TypeAPI }

func (s *APISender) Send(ctx context.Context, out Outbound) (Result, error) {
	body := map[string]any{
		"agent_id":   out.Persona.ID,
		"agent_name": out.Persona.Name,
		"data":       out.Payload,
		"timestamp":  nowRFC3339(),
	}
	headers := map[string]string{
		"X-Agent-ID":   out.Persona.ID,
		"X-Agent-Name": out.Persona.Name,
	}
	for k, v := range out.Headers {
		headers[k] = v
	}
	reply, err := s.p.postJSON(ctx, out.Destination, body, headers)
	if err != nil {
		return Result{}, err
	}

	var decoded any
	if err := json.Unmarshal(reply.body, &decoded); err != nil {
		decoded = map[string]any{"text": string(reply.body)}
	}
	return Result{
		Platform: TypeAPI,
		URL:      out.Destination,
		Status:   reply.status,
		Success:  reply.ok,
		Response: decoded,
		Sent:     body,
	}, nil
}
