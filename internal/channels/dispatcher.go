package channels

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/egopanda/agency/internal/agents"
	"github.com/egopanda/agency/internal/telemetry"
)

// Dispatcher routes messages to the Sender registered for their type.
type Dispatcher struct {
	catalog *agents.Catalog
	brand   string
	senders map[string]Sender
}

func NewDispatcher(catalog *agents.Catalog, brand string, senders ...Sender) *Dispatcher {
	d := &Dispatcher{catalog: catalog, brand: brand, senders: make(map[string]Sender, len(senders))}
	for _, s := range senders {
		d.senders[s.Type()] = s
	}
	return d
}

// Types lists the registered message types.
func (d *Dispatcher) Types() []string {
	out := make([]string, 0, len(d.senders))
	for t := range d.senders {
		out = append(out, t)
	}
	return out
}

// Send renders the template (if any), resolves the persona and delivers msg.
func (d *Dispatcher) Send(ctx context.Context, msg Message) (Result, error) {
	s, ok := d.senders[msg.Type]
	if !ok {
		return Result{}, fmt.Errorf("%w: %s", ErrUnknownMessageType, msg.Type)
	}

	payload := msg.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	if msg.Template != "" {
		data := make(map[string]any, len(payload)+1)
		data["agentId"] = msg.AgentID
		for k, v := range payload {
			data[k] = v
		}
		payload = ApplyTemplate(msg.Template, data)
	}

	slog.Info("sending agent message", "agent", msg.AgentID, "type", msg.Type, "destination", msg.Destination)
	res, err := s.Send(ctx, Outbound{
		Persona:     d.catalog.Persona(msg.AgentID),
		Brand:       d.brand,
		Destination: msg.Destination,
		Payload:     payload,
		Headers:     msg.Headers,
	})
	if err != nil {
		telemetry.RecordMessageSent(ctx, msg.Type, false)
		return Result{}, fmt.Errorf("%s send failed: %w", msg.Type, err)
	}
	telemetry.RecordMessageSent(ctx, msg.Type, res.Success)
	if !res.Success {
		slog.Warn("agent message rejected", "agent", msg.AgentID, "type", msg.Type, "status", res.Status)
	}
	return res, nil
}
