package triggers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/egopanda/agency/internal/agents"
	"github.com/egopanda/agency/internal/telemetry"
)

// Action kinds.
const (
	KindNotify   = "notify"
	KindExecute  = "execute"
	KindDelegate = "delegate"
	KindUpdate   = "update"
)

// ReasonNoHandler is the skip reason for unrecognised action kinds.
const ReasonNoHandler = "no handler configured"

// Event is the inbound context a trigger fires for.
type Event struct {
	Source string `json:"source"`
	Event  string `json:"event"`
	Data   any    `json:"data,omitempty"` // any JSON value
}

// Match pairs a trigger with the event and agent it fired for.
type Match struct {
	AgentID string
	Trigger agents.Trigger
	Event   Event
}

// Notifier delivers a human-readable notification on behalf of an agent.
type Notifier interface {
	Notify(ctx context.Context, agentID, text string) error
}

// WorkflowRunner starts a named automation workflow and returns its status.
type WorkflowRunner interface {
	RunWorkflow(ctx context.Context, workflow string, input map[string]any) (string, error)
}

// Delegator hands an event over to another agent.
type Delegator interface {
	Delegate(ctx context.Context, fromAgent, toAgent string, ev Event) error
}

// DataUpdater records structured data produced by a trigger.
type DataUpdater interface {
	UpdateData(ctx context.Context, agentID string, details any, ev Event) error
}

// Collaborators are the external systems actions call into. Nil members make
// the matching action kind resolve to Skipped.
type Collaborators struct {
	Notifier  Notifier
	Runner    WorkflowRunner
	Delegator Delegator
	Updater   DataUpdater
}

// Executor runs trigger actions. It holds no per-request state and is safe
// for concurrent use.
type Executor struct {
	c       Collaborators
	timeout time.Duration
}

func NewExecutor(c Collaborators, timeout time.Duration) *Executor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Executor{c: c, timeout: timeout}
}

// Execute runs one trigger. It never returns an error or panics: every
// outcome, including a collaborator panic, is an ActionResult.
func (e *Executor) Execute(ctx context.Context, m Match) (res ActionResult) {
	ctx, span := otel.Tracer("agency/triggers").Start(ctx, "trigger.execute")
	span.SetAttributes(
		attribute.String("agent", m.AgentID),
		attribute.String("trigger", m.Trigger.Name),
		attribute.String("action", m.Trigger.Action),
	)
	defer func() {
		if r := recover(); r != nil {
			slog.Error("trigger action panicked", "agent", m.AgentID, "trigger", m.Trigger.Name, "panic", r)
			res = Errored(fmt.Errorf("action panicked: %v", r))
		}
		span.SetAttributes(attribute.String("status", string(res.Status)))
		span.End()
		telemetry.RecordTriggerAction(ctx, m.Trigger.Action, string(res.Status))
	}()

	actx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	switch m.Trigger.Action {
	case KindNotify:
		return e.notify(actx, m)
	case KindExecute:
		return e.execute(actx, m)
	case KindDelegate:
		return e.delegate(actx, m)
	case KindUpdate:
		return e.update(actx, m)
	default:
		return Skipped(ReasonNoHandler)
	}
}

// ExecuteAll runs matches in order; the result slice lines up with matches.
func (e *Executor) ExecuteAll(ctx context.Context, matches []Match) []TriggerResult {
	out := make([]TriggerResult, 0, len(matches))
	for _, m := range matches {
		out = append(out, TriggerResult{TriggerID: m.Trigger.Name, Result: e.Execute(ctx, m)})
	}
	return out
}

func (e *Executor) notify(ctx context.Context, m Match) ActionResult {
	if e.c.Notifier == nil {
		return Skipped("notifier not configured")
	}
	text := detailString(m.Trigger.Details)
	if text == "" {
		text = fmt.Sprintf("%s: %s.%s", m.Trigger.Name, m.Event.Source, m.Event.Event)
	}
	if err := e.c.Notifier.Notify(ctx, m.AgentID, text); err != nil {
		return Errored(fmt.Errorf("notify: %w", err))
	}
	return Completed(map[string]any{"notificationSent": true, "details": m.Trigger.Details})
}

func (e *Executor) execute(ctx context.Context, m Match) ActionResult {
	if e.c.Runner == nil {
		return Skipped("workflow runner not configured")
	}
	workflow := detailString(m.Trigger.Details)
	if workflow == "" {
		return Errored(fmt.Errorf("trigger %q names no workflow", m.Trigger.Name))
	}
	status, err := e.c.Runner.RunWorkflow(ctx, workflow, map[string]any{
		"agent_id": m.AgentID,
		"trigger":  m.Trigger.Name,
		"source":   m.Event.Source,
		"event":    m.Event.Event,
		"data":     m.Event.Data,
	})
	if err != nil {
		return Errored(fmt.Errorf("run workflow %s: %w", workflow, err))
	}
	return Completed(map[string]any{"workflowExecuted": workflow, "status": status})
}

func (e *Executor) delegate(ctx context.Context, m Match) ActionResult {
	if e.c.Delegator == nil {
		return Skipped("delegator not configured")
	}
	to := detailString(m.Trigger.Details)
	if to == "" {
		return Errored(fmt.Errorf("trigger %q names no delegate", m.Trigger.Name))
	}
	if err := e.c.Delegator.Delegate(ctx, m.AgentID, to, m.Event); err != nil {
		return Errored(fmt.Errorf("delegate to %s: %w", to, err))
	}
	return Completed(map[string]any{"delegatedTo": to, "status": "delegated"})
}

func (e *Executor) update(ctx context.Context, m Match) ActionResult {
	if e.c.Updater == nil {
		return Skipped("data updater not configured")
	}
	if err := e.c.Updater.UpdateData(ctx, m.AgentID, m.Trigger.Details, m.Event); err != nil {
		return Errored(fmt.Errorf("update data: %w", err))
	}
	return Completed(map[string]any{"dataUpdated": true, "details": m.Trigger.Details})
}

// detailString returns string details as-is, or the "target"/"workflow"/
// "message" entry of mapping details.
func detailString(d any) string {
	switch v := d.(type) {
	case string:
		return v
	case map[string]any:
		for _, k := range []string{"target", "workflow", "message"} {
			if s, ok := v[k].(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}
