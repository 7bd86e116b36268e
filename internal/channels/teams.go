package channels

import (
	"context"
	"time"
)

// TeamsSender posts MessageCards to Microsoft Teams incoming webhooks.
type TeamsSender struct {
	p poster
}

func NewTeamsSender(timeout time.Duration) *TeamsSender {
	return &TeamsSender{p: newPoster(timeout)}
}

func (s *TeamsSender) Type() string { return TypeTeams }

func (s *TeamsSender) Send(ctx context.Context, out Outbound) (Result, error) {
	card := map[string]any{
		"@type":      "MessageCard",
		"@context":   "https://schema.org/extensions",
		"summary":    titleOr(out.Payload, "Agent Update"),
		"themeColor": brandColorHex,
		"sections": []map[string]any{{
			"activityTitle":    out.Persona.Name + " (AI Agent)",
			"activitySubtitle": out.Brand,
			"activityImage":    out.Persona.Avatar,
			"facts":            fieldsOf(out.Payload),
			"text":             messageOrJSON(out.Payload),
		}},
	}
	reply, err := s.p.postJSON(ctx, out.Destination, card, nil)
	if err != nil {
		return Result{}, err
	}
	return Result{Platform: TypeTeams, Status: reply.status, Success: reply.ok, Sent: card}, nil
}
