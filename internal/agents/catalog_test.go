package agents

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestBuiltinCatalog(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.Default().ID != "vanessa" {
		t.Errorf("Default().ID = %q, want vanessa", c.Default().ID)
	}
	for _, id := range []string{"vanessa", "charlie", "auto", "aurelius", "marsha", "william"} {
		if _, ok := c.Lookup(id); !ok {
			t.Errorf("Lookup(%q) missing", id)
		}
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	c, _ := Load("")
	if got := c.Resolve("nobody").ID; got != "vanessa" {
		t.Errorf("Resolve(nobody) = %q, want vanessa", got)
	}
	if got := c.Resolve("charlie").ID; got != "charlie" {
		t.Errorf("Resolve(charlie) = %q, want charlie", got)
	}
}

func TestSubscribers(t *testing.T) {
	c, _ := Load("")
	tests := []struct {
		source, event string
		want          []string
	}{
		{"stripe", "payment.success", []string{"vanessa"}},
		{"square", "payment.success", []string{"vanessa"}},
		{"discord", "message.received", []string{"marsha"}},
		{"github", "push", []string{"william"}},
		{"github", "issue.opened", nil},
		{"unknown", "x", nil},
	}
	for _, tt := range tests {
		t.Run(tt.source+"."+tt.event, func(t *testing.T) {
			got := c.Subscribers(tt.source, tt.event)
			if len(got) != len(tt.want) {
				t.Fatalf("Subscribers(%q, %q) returned %d agents, want %d", tt.source, tt.event, len(got), len(tt.want))
			}
			for i, a := range got {
				if a.ID != tt.want[i] {
					t.Errorf("Subscribers[%d] = %q, want %q", i, a.ID, tt.want[i])
				}
			}
		})
	}
}

func TestSubscriptionAllMatchesAnyEvent(t *testing.T) {
	c, err := Parse([]byte(`
agents:
  - id: ops
    webhooks:
      - { service: github, event: all, name: Everything }
  - id: dev
    webhooks:
      - { service: github, event: push, name: Pushes }
`))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got := c.Subscribers("github", "push")
	if len(got) != 2 || got[0].ID != "ops" || got[1].ID != "dev" {
		t.Errorf("Subscribers(github, push) = %v, want [ops dev] in catalog order", ids(got))
	}
	if got := c.Subscribers("github", "release"); len(got) != 1 || got[0].ID != "ops" {
		t.Errorf("Subscribers(github, release) = %v, want [ops]", ids(got))
	}
	if c.Default().ID != "ops" {
		t.Errorf("Default() without explicit default = %q, want first agent", c.Default().ID)
	}
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"empty":       `agents: []`,
		"no id":       "agents:\n  - name: X\n",
		"duplicate":   "agents:\n  - id: a\n  - id: a\n",
		"bad default": "default: zed\nagents:\n  - id: a\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(doc)); err == nil {
				t.Errorf("Parse(%q) succeeded, want error", doc)
			}
		})
	}
}

func TestPersona(t *testing.T) {
	c, _ := Load("")
	p := c.Persona("charlie")
	if p.Name != "Charlie" || p.Emoji != ":writing_hand:" {
		t.Errorf("Persona(charlie) = %+v", p)
	}
	p = c.Persona("zed")
	if p.Name != "Zed" || p.Emoji != ":robot_face:" {
		t.Errorf("Persona(zed) = %+v, want generated persona", p)
	}
	if !strings.Contains(p.Avatar, "seed=zed") {
		t.Errorf("Persona(zed).Avatar = %q, want seed=zed", p.Avatar)
	}
}

func TestActiveProjectsAndCapabilities(t *testing.T) {
	c, _ := Load("")
	v, _ := c.Lookup("vanessa")
	if n := len(v.ActiveProjects()); n != 3 {
		t.Errorf("len(ActiveProjects) = %d, want 3", n)
	}
	if !v.HasCapability("revenue-analysis") {
		t.Error("vanessa should have revenue-analysis")
	}
	ch, _ := c.Lookup("charlie")
	if ch.HasCapability("agent-coordination") {
		t.Error("charlie should not have agent-coordination")
	}
	if trig := v.IncomingTriggers(); len(trig) != 1 || trig[0].Action != "notify" {
		t.Errorf("vanessa IncomingTriggers = %+v", trig)
	}
}

func ids(cs []*Config) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"vanessa", "Vanessa"},
		{"élodie", "Élodie"},
		{"東京", "東京"},
	}
	for _, tt := range tests {
		got := DisplayName(tt.in)
		if got != tt.want || !utf8.ValidString(got) {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
