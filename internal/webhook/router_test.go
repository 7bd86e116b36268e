package webhook

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/egopanda/agency/internal/agents"
	"github.com/egopanda/agency/internal/triggers"
	"github.com/egopanda/agency/pkg/protocol"
)

type recorder struct {
	mu        sync.Mutex
	notified  []string
	workflows []string
	failOn    string
}

func (r *recorder) Notify(_ context.Context, agentID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified = append(r.notified, agentID+": "+text)
	return nil
}

func (r *recorder) RunWorkflow(_ context.Context, workflow string, _ map[string]any) (string, error) {
	if workflow == r.failOn {
		panic("workflow exploded")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.workflows = append(r.workflows, workflow)
	return "started", nil
}

func newRouter(t *testing.T, cat *agents.Catalog, rec *recorder) *Router {
	t.Helper()
	if cat == nil {
		var err error
		if cat, err = agents.Load(""); err != nil {
			t.Fatalf("load catalog: %v", err)
		}
	}
	exec := triggers.NewExecutor(triggers.Collaborators{Notifier: rec, Runner: rec}, time.Second)
	return NewRouter(cat, exec, 2)
}

func TestRoutePaymentToSubscriber(t *testing.T) {
	rec := &recorder{}
	r := newRouter(t, nil, rec)

	out, err := r.Route(context.Background(), Event{
		Source: "stripe",
		Event:  "payment.success",
		Data:   map[string]any{"customer_email": "a@b.co", "amount": float64(4900)},
	})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if !out.Processed || out.AgentsNotified != 1 || len(out.Results) != 1 {
		t.Fatalf("outcome = %+v", out)
	}
	res := out.Results[0]
	if res.AgentID != "vanessa" || !res.Success {
		t.Fatalf("result = %+v", res)
	}
	if res.Result.WebhookConfig != "Revenue Tracking" {
		t.Errorf("WebhookConfig = %q", res.Result.WebhookConfig)
	}
	action := res.Result.ActionResult
	if action["action"] != "payment_processed" || action["customer"] != "a@b.co" || action["amount"] != float64(4900) || action["agentNotified"] != "vanessa" {
		t.Errorf("actionResult = %v", action)
	}
	if len(res.Result.TriggerResults) != 1 {
		t.Fatalf("triggerResults = %+v", res.Result.TriggerResults)
	}
	tr := res.Result.TriggerResults[0]
	if tr.TriggerID != "Revenue Alert" || tr.Result.Status != triggers.StatusCompleted {
		t.Errorf("trigger result = %+v", tr)
	}
	if len(rec.notified) != 1 || !strings.HasPrefix(rec.notified[0], "vanessa: New payment received") {
		t.Errorf("notified = %v", rec.notified)
	}
}

func TestRouteHandlerDefaults(t *testing.T) {
	r := newRouter(t, nil, &recorder{})

	out, err := r.Route(context.Background(), Event{Source: "square", Event: "payment.success"})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	action := out.Results[0].Result.ActionResult
	if action["customer"] != "Unknown" || action["amount"] != 0 {
		t.Errorf("payment defaults = %v", action)
	}

	out, _ = r.Route(context.Background(), Event{Source: "github", Event: "push", Data: map[string]any{
		"repository": "site",
		"commits":    []any{"a", "b", "c"},
	}})
	action = out.Results[0].Result.ActionResult
	if out.Results[0].AgentID != "william" || action["commits"] != 3 || action["repository"] != "site" {
		t.Errorf("code push = %+v", out.Results[0])
	}
}

func TestRouteNonObjectData(t *testing.T) {
	r := newRouter(t, nil, &recorder{})

	for _, data := range []any{[]any{float64(1), float64(2)}, "raw-string", float64(42)} {
		out, err := r.Route(context.Background(), Event{Source: "stripe", Event: "payment.success", Data: data})
		if err != nil {
			t.Fatalf("Route(%v): %v", data, err)
		}
		if len(out.Results) != 1 || !out.Results[0].Success {
			t.Fatalf("Route(%v) = %+v", data, out)
		}
		action := out.Results[0].Result.ActionResult
		if action["customer"] != "Unknown" || action["amount"] != 0 {
			t.Errorf("Route(%v) action = %v", data, action)
		}
	}

	generic := handle("zen", Event{Source: "zapier", Event: "zap.fired", Data: "raw-string"})
	if generic["action"] != protocol.ActionGenericWebhook || generic["dataReceived"] != true {
		t.Errorf("generic = %v", generic)
	}
	if empty := handle("zen", Event{Source: "zapier", Event: "zap.fired"}); empty["dataReceived"] != false {
		t.Errorf("generic without data = %v", empty)
	}
}

func TestRouteNoSubscribers(t *testing.T) {
	r := newRouter(t, nil, &recorder{})
	out, err := r.Route(context.Background(), Event{Source: "shopify", Event: "order.created"})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if out.Processed || out.Message != MsgNoAgents || out.Results != nil {
		t.Errorf("outcome = %+v", out)
	}
}

func TestRouteExplicitAgent(t *testing.T) {
	r := newRouter(t, nil, &recorder{})

	// A known agent is the sole target even without a subscription.
	out, err := r.Route(context.Background(), Event{Source: "stripe", Event: "payment.success", AgentID: "william"})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if !out.Processed || len(out.Results) != 1 {
		t.Fatalf("outcome = %+v", out)
	}
	if res := out.Results[0]; res.AgentID != "william" || res.Success || res.Error != ErrNoSubscription.Error() {
		t.Errorf("result = %+v", res)
	}

	// An unknown agent falls back to the subscription scan.
	out, _ = r.Route(context.Background(), Event{Source: "stripe", Event: "payment.success", AgentID: "ghost"})
	if len(out.Results) != 1 || out.Results[0].AgentID != "vanessa" {
		t.Errorf("fallback outcome = %+v", out)
	}
}

func TestRouteMissingFields(t *testing.T) {
	r := newRouter(t, nil, &recorder{})
	if _, err := r.Route(context.Background(), Event{Source: "stripe"}); !errors.Is(err, ErrMissingFields) {
		t.Errorf("err = %v, want ErrMissingFields", err)
	}
}

func fanoutCatalog(t *testing.T, n int) *agents.Catalog {
	t.Helper()
	var b strings.Builder
	b.WriteString("agents:\n")
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "  - id: agent%02d\n    preamble: p\n    webhooks:\n      - { service: ci, event: all, name: CI %d }\n", i, i)
		fmt.Fprintf(&b, "    triggers:\n      - { name: Run, when: incoming, action: execute, details: wf%02d }\n", i)
	}
	cat, err := agents.Parse([]byte(b.String()))
	if err != nil {
		t.Fatalf("parse catalog: %v", err)
	}
	return cat
}

func TestRouteKeepsOrderAndIsolatesFailures(t *testing.T) {
	const n = 9
	rec := &recorder{failOn: "wf04"}
	r := newRouter(t, fanoutCatalog(t, n), rec)

	out, err := r.Route(context.Background(), Event{Source: "ci", Event: "build.finished"})
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if out.AgentsNotified != n || len(out.Results) != n {
		t.Fatalf("outcome = %+v", out)
	}
	for i, res := range out.Results {
		if want := fmt.Sprintf("agent%02d", i); res.AgentID != want {
			t.Fatalf("results[%d].AgentID = %q, want %q", i, res.AgentID, want)
		}
		if !res.Success {
			t.Errorf("results[%d] failed: %s", i, res.Error)
			continue
		}
		if res.Result.ActionResult["action"] != "generic_webhook_processed" || res.Result.ActionResult["dataReceived"] != false {
			t.Errorf("results[%d].actionResult = %v", i, res.Result.ActionResult)
		}
		want := triggers.StatusCompleted
		if i == 4 {
			want = triggers.StatusError
		}
		if got := res.Result.TriggerResults[0].Result.Status; got != want {
			t.Errorf("results[%d] trigger status = %s, want %s", i, got, want)
		}
	}
	if len(rec.workflows) != n-1 {
		t.Errorf("workflows run = %d, want %d", len(rec.workflows), n-1)
	}
}
