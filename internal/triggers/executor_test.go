package triggers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/egopanda/agency/internal/agents"
)

type fakeNotifier struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeNotifier) Notify(ctx context.Context, agentID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, agentID+": "+text)
	return f.err
}

type fakeRunner struct {
	workflows []string
	err       error
	panicOn   string
}

func (f *fakeRunner) RunWorkflow(ctx context.Context, workflow string, input map[string]any) (string, error) {
	if workflow == f.panicOn {
		panic("runner exploded")
	}
	f.workflows = append(f.workflows, workflow)
	if f.err != nil {
		return "", f.err
	}
	return "started", nil
}

type fakeDelegator struct{ to string }

func (f *fakeDelegator) Delegate(ctx context.Context, from, to string, ev Event) error {
	f.to = to
	return nil
}

type slowUpdater struct{}

func (slowUpdater) UpdateData(ctx context.Context, agentID string, details any, ev Event) error {
	<-ctx.Done()
	return ctx.Err()
}

func match(action string, details any) Match {
	return Match{
		AgentID: "vanessa",
		Trigger: agents.Trigger{Name: "t-" + action, When: agents.WhenIncoming, Action: action, Details: details},
		Event:   Event{Source: "stripe", Event: "payment.success"},
	}
}

func TestExecuteByKind(t *testing.T) {
	n := &fakeNotifier{}
	r := &fakeRunner{}
	d := &fakeDelegator{}
	e := NewExecutor(Collaborators{Notifier: n, Runner: r, Delegator: d, Updater: slowUpdater{}}, 50*time.Millisecond)

	tests := []struct {
		name    string
		m       Match
		want    Status
		checkFn func(t *testing.T, res ActionResult)
	}{
		{"notify", match(KindNotify, "New payment received"), StatusCompleted, func(t *testing.T, res ActionResult) {
			if len(n.texts) != 1 || n.texts[0] != "vanessa: New payment received" {
				t.Errorf("notifier got %v", n.texts)
			}
		}},
		{"execute", match(KindExecute, "deployment_workflow"), StatusCompleted, func(t *testing.T, res ActionResult) {
			d := res.Details.(map[string]any)
			if d["workflowExecuted"] != "deployment_workflow" || d["status"] != "started" {
				t.Errorf("details = %v", d)
			}
		}},
		{"delegate map details", match(KindDelegate, map[string]any{"target": "charlie"}), StatusCompleted, func(t *testing.T, res ActionResult) {
			if d.to != "charlie" {
				t.Errorf("delegated to %q, want charlie", d.to)
			}
		}},
		{"update times out", match(KindUpdate, "x"), StatusError, nil},
		{"unknown kind", match("teleport", nil), StatusSkipped, func(t *testing.T, res ActionResult) {
			if res.Reason != ReasonNoHandler {
				t.Errorf("reason = %q", res.Reason)
			}
		}},
		{"execute without workflow", match(KindExecute, nil), StatusError, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Execute(context.Background(), tt.m)
			if res.Status != tt.want {
				t.Fatalf("Execute(%s) status = %q (%+v), want %q", tt.m.Trigger.Action, res.Status, res, tt.want)
			}
			if tt.checkFn != nil {
				tt.checkFn(t, res)
			}
		})
	}
}

func TestExecuteMissingCollaboratorSkips(t *testing.T) {
	e := NewExecutor(Collaborators{}, time.Second)
	for _, kind := range []string{KindNotify, KindExecute, KindDelegate, KindUpdate} {
		if res := e.Execute(context.Background(), match(kind, "x")); res.Status != StatusSkipped {
			t.Errorf("Execute(%s) with no collaborator = %q, want skipped", kind, res.Status)
		}
	}
}

func TestExecuteAllIsolatesFailures(t *testing.T) {
	r := &fakeRunner{panicOn: "boom"}
	n := &fakeNotifier{err: errors.New("channel down")}
	e := NewExecutor(Collaborators{Notifier: n, Runner: r}, time.Second)

	matches := []Match{
		match(KindExecute, "boom"),
		match("unknown", nil),
		match(KindNotify, "hello"),
		match(KindExecute, "ok_workflow"),
	}
	got := e.ExecuteAll(context.Background(), matches)
	if len(got) != len(matches) {
		t.Fatalf("got %d results, want %d", len(got), len(matches))
	}
	want := []Status{StatusError, StatusSkipped, StatusError, StatusCompleted}
	for i, w := range want {
		if got[i].Result.Status != w {
			t.Errorf("result[%d] = %q, want %q", i, got[i].Result.Status, w)
		}
		if got[i].TriggerID != matches[i].Trigger.Name {
			t.Errorf("result[%d].TriggerID = %q, want %q", i, got[i].TriggerID, matches[i].Trigger.Name)
		}
	}
}
