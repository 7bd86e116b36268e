// Package webhook routes inbound third-party webhooks to the agents that
// subscribe to them and runs their incoming triggers.
package webhook

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/egopanda/agency/internal/agents"
	"github.com/egopanda/agency/internal/telemetry"
	"github.com/egopanda/agency/internal/triggers"
)

const defaultFanout = 4

// MsgNoAgents is reported when nothing subscribes to an event.
const MsgNoAgents = "No agents configured for this webhook"

// ErrMissingFields rejects an event without source or event name.
var ErrMissingFields = errors.New("Missing required fields: source, event")

// ErrNoSubscription fails a target that was named explicitly but does not
// subscribe to the event.
var ErrNoSubscription = errors.New("No matching webhook configuration found")

// Event is one inbound webhook.
type Event struct {
	Source    string `json:"source"`
	Event     string `json:"event"`
	Data      any    `json:"data,omitempty"` // free-form payload, any JSON value
	AgentID   string `json:"agentId,omitempty"`
	Signature string `json:"signature,omitempty"`
}

// Validate reports the missing required fields.
func (e Event) Validate() error {
	if e.Source == "" || e.Event == "" {
		return ErrMissingFields
	}
	return nil
}

// Outcome is the routing result. When no agent matched, Processed is false
// and Message says why.
type Outcome struct {
	Processed      bool           `json:"processed"`
	Message        string         `json:"message,omitempty"`
	AgentsNotified int            `json:"agentsNotified,omitempty"`
	Results        []TargetResult `json:"results,omitempty"`
}

// TargetResult is one agent's share of the outcome.
type TargetResult struct {
	AgentID string        `json:"agentId"`
	Success bool          `json:"success"`
	Result  *AgentOutcome `json:"result,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// AgentOutcome is what processing did for one agent.
type AgentOutcome struct {
	WebhookConfig  string                   `json:"webhookConfig"`
	ActionResult   map[string]any           `json:"actionResult"`
	TriggerResults []triggers.TriggerResult `json:"triggerResults"`
	ProcessedAt    string                   `json:"processedAt"`
}

// Router matches events to subscribed agents. It is safe for concurrent use.
type Router struct {
	catalog *agents.Catalog
	exec    *triggers.Executor
	fanout  int
}

// NewRouter creates a router processing at most fanout targets at once.
func NewRouter(catalog *agents.Catalog, exec *triggers.Executor, fanout int) *Router {
	if fanout <= 0 {
		fanout = defaultFanout
	}
	return &Router{catalog: catalog, exec: exec, fanout: fanout}
}

// Targets returns the agents an event is delivered to. A known explicit
// AgentID is the only target; otherwise every subscriber in catalog order.
func (r *Router) Targets(ev Event) []*agents.Config {
	if ev.AgentID != "" {
		if a, ok := r.catalog.Lookup(ev.AgentID); ok {
			return []*agents.Config{a}
		}
	}
	return r.catalog.Subscribers(ev.Source, ev.Event)
}

// Route processes ev for every target. Targets run concurrently but results
// keep target order, and one target failing never affects the others.
func (r *Router) Route(ctx context.Context, ev Event) (*Outcome, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	slog.Info("webhook received", "source", ev.Source, "event", ev.Event, "agent", ev.AgentID)

	targets := r.Targets(ev)
	if len(targets) == 0 {
		slog.Info("no agents configured for webhook", "source", ev.Source, "event", ev.Event)
		telemetry.RecordWebhookEvent(ctx, ev.Source, ev.Event, false)
		return &Outcome{Processed: false, Message: MsgNoAgents}, nil
	}

	results := make([]TargetResult, len(targets))
	var g errgroup.Group
	g.SetLimit(r.fanout)
	for i, agent := range targets {
		g.Go(func() error {
			results[i] = r.runTarget(ctx, agent, ev)
			return nil
		})
	}
	_ = g.Wait()

	telemetry.RecordWebhookEvent(ctx, ev.Source, ev.Event, true)
	return &Outcome{Processed: true, AgentsNotified: len(targets), Results: results}, nil
}

func (r *Router) runTarget(ctx context.Context, agent *agents.Config, ev Event) (res TargetResult) {
	ctx, span := otel.Tracer("agency/webhook").Start(ctx, "webhook.target")
	span.SetAttributes(
		attribute.String("agent", agent.ID),
		attribute.String("source", ev.Source),
		attribute.String("event", ev.Event),
	)
	defer span.End()

	res.AgentID = agent.ID
	defer func() {
		if p := recover(); p != nil {
			slog.Error("webhook target panicked", "agent", agent.ID, "panic", p)
			res = TargetResult{AgentID: agent.ID, Error: fmt.Sprintf("panic: %v", p)}
			span.SetStatus(codes.Error, res.Error)
		}
	}()

	out, err := r.process(ctx, agent, ev)
	if err != nil {
		slog.Warn("webhook target failed", "agent", agent.ID, "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		res.Error = err.Error()
		return res
	}
	res.Success = true
	res.Result = out
	return res
}

func (r *Router) process(ctx context.Context, agent *agents.Config, ev Event) (*AgentOutcome, error) {
	sub, ok := agent.MatchSubscription(ev.Source, ev.Event)
	if !ok {
		return nil, ErrNoSubscription
	}

	tev := triggers.Event{Source: ev.Source, Event: ev.Event, Data: ev.Data}
	incoming := agent.IncomingTriggers()
	matches := make([]triggers.Match, len(incoming))
	for i, t := range incoming {
		matches[i] = triggers.Match{AgentID: agent.ID, Trigger: t, Event: tev}
	}

	return &AgentOutcome{
		WebhookConfig:  sub.Name,
		TriggerResults: r.exec.ExecuteAll(ctx, matches),
		ActionResult:   handle(agent.ID, ev),
		ProcessedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	}, nil
}
