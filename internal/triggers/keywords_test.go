package triggers

import (
	"context"
	"testing"
	"time"

	"github.com/egopanda/agency/internal/agents"
)

func TestMatchKeywords(t *testing.T) {
	tests := []struct {
		msg  string
		want []string
	}{
		{"What's our REVENUE today?", []string{CategoryRevenue}},
		{"Please remember to alert the team about profit", []string{CategoryRevenue, CategoryAgents, CategoryMemory, CategoryWebhook}},
		{"hello there", nil},
		{"Save this", []string{CategoryMemory}},
	}
	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			got := MatchKeywords("vanessa", tt.msg)
			if len(got) != len(tt.want) {
				t.Fatalf("MatchKeywords(%q) = %d matches, want %d", tt.msg, len(got), len(tt.want))
			}
			for i, m := range got {
				if m.Category != tt.want[i] {
					t.Errorf("match[%d] = %q, want %q", i, m.Category, tt.want[i])
				}
			}
		})
	}
}

func TestExecuteKeywordsCapabilityGate(t *testing.T) {
	r := &fakeRunner{}
	e := NewExecutor(Collaborators{Runner: r}, time.Second)
	vp := &agents.Config{ID: "vanessa", Capabilities: []string{"revenue-analysis", "agent-coordination"}}
	writer := &agents.Config{ID: "charlie", Capabilities: []string{"text-generation"}}
	msg := "record revenue for the team and send a webhook"

	got := e.ExecuteKeywords(context.Background(), vp, MatchKeywords("vanessa", msg), "ok")
	want := []Status{StatusCompleted, StatusCompleted, StatusCompleted, StatusCompleted}
	for i, w := range want {
		if got[i].Status != w {
			t.Errorf("vanessa result[%d] %s = %q, want %q", i, got[i].Type, got[i].Status, w)
		}
	}
	if len(r.workflows) != 1 || r.workflows[0] != ChatWorkflow {
		t.Errorf("runner workflows = %v, want [%s]", r.workflows, ChatWorkflow)
	}

	got = e.ExecuteKeywords(context.Background(), writer, MatchKeywords("charlie", msg), "ok")
	if got[0].Type != CategoryRevenue || got[0].Status != StatusSkipped {
		t.Errorf("charlie revenue = %+v, want skipped", got[0])
	}
	if got[1].Type != CategoryAgents || got[1].Status != StatusSkipped {
		t.Errorf("charlie agents = %+v, want skipped", got[1])
	}
}
