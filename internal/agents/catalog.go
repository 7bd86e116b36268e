// Package agents holds the static agent catalog: personas, prompt preambles,
// webhook subscriptions and triggers. A Catalog is built once at start and is
// read-only afterwards, so it is safe to share across requests.
package agents

import (
	_ "embed"
	"fmt"
	"os"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// SubscriptionAll matches every event from a service.
const SubscriptionAll = "all"

// WhenIncoming marks triggers that fire on incoming webhooks.
const WhenIncoming = "incoming"

// Project is a unit of work an agent mentions in its prompt.
type Project struct {
	Title  string `yaml:"title" json:"title"`
	Status string `yaml:"status" json:"status"`
}

// Subscription declares interest in a (service, event) webhook pair.
type Subscription struct {
	Service string `yaml:"service" json:"service"`
	Event   string `yaml:"event" json:"event"`
	Name    string `yaml:"name" json:"name"`
}

// Matches reports whether the subscription accepts source/event.
func (s Subscription) Matches(source, event string) bool {
	return s.Service == source && (s.Event == event || s.Event == SubscriptionAll)
}

// Trigger maps an activation point to an action kind with static details.
// Details is either a string or a decoded YAML mapping.
type Trigger struct {
	Name    string `yaml:"name" json:"name"`
	When    string `yaml:"when" json:"when"`
	Action  string `yaml:"action" json:"action"`
	Details any    `yaml:"details" json:"details,omitempty"`
}

// Config is one agent's static configuration.
type Config struct {
	ID           string         `yaml:"id" json:"id"`
	Name         string         `yaml:"name" json:"name"`
	Emoji        string         `yaml:"emoji" json:"emoji,omitempty"`
	Avatar       string         `yaml:"avatar" json:"avatar,omitempty"`
	Preamble     string         `yaml:"preamble" json:"preamble"`
	Mood         string         `yaml:"mood" json:"mood,omitempty"`
	Workload     int            `yaml:"workload" json:"workload"`
	Personality  string         `yaml:"personality" json:"personality,omitempty"`
	Directive    string         `yaml:"directive" json:"directive,omitempty"`
	Projects     []Project      `yaml:"projects" json:"projects,omitempty"`
	Capabilities []string       `yaml:"capabilities" json:"capabilities,omitempty"`
	Webhooks     []Subscription `yaml:"webhooks" json:"webhooks,omitempty"`
	Triggers     []Trigger      `yaml:"triggers" json:"triggers,omitempty"`
}

// ActiveProjects returns projects with status "active", in catalog order.
func (c *Config) ActiveProjects() []Project {
	var out []Project
	for _, p := range c.Projects {
		if p.Status == "active" {
			out = append(out, p)
		}
	}
	return out
}

// HasCapability reports whether the agent lists capability.
func (c *Config) HasCapability(capability string) bool {
	for _, cp := range c.Capabilities {
		if cp == capability {
			return true
		}
	}
	return false
}

// MatchSubscription returns the first subscription accepting source/event.
func (c *Config) MatchSubscription(source, event string) (Subscription, bool) {
	for _, s := range c.Webhooks {
		if s.Matches(source, event) {
			return s, true
		}
	}
	return Subscription{}, false
}

// IncomingTriggers returns triggers marked to fire on incoming webhooks.
func (c *Config) IncomingTriggers() []Trigger {
	var out []Trigger
	for _, t := range c.Triggers {
		if t.When == WhenIncoming {
			out = append(out, t)
		}
	}
	return out
}

type catalogFile struct {
	Default string    `yaml:"default"`
	Agents  []*Config `yaml:"agents"`
}

// Catalog is an immutable, ordered set of agent configurations.
type Catalog struct {
	agents []*Config
	byID   map[string]*Config
	def    *Config
}

// Load reads a catalog from a YAML file, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(builtinCatalog)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read agent catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML.
func Parse(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse agent catalog: %w", err)
	}
	if len(f.Agents) == 0 {
		return nil, fmt.Errorf("agent catalog is empty")
	}

	c := &Catalog{byID: make(map[string]*Config, len(f.Agents))}
	for _, a := range f.Agents {
		if a == nil || a.ID == "" {
			return nil, fmt.Errorf("agent catalog: entry without id")
		}
		if _, dup := c.byID[a.ID]; dup {
			return nil, fmt.Errorf("agent catalog: duplicate id %q", a.ID)
		}
		if a.Name == "" {
			a.Name = DisplayName(a.ID)
		}
		if a.Avatar == "" {
			a.Avatar = avatarURL(a.ID)
		}
		c.agents = append(c.agents, a)
		c.byID[a.ID] = a
	}

	if f.Default == "" {
		c.def = c.agents[0]
	} else if d, ok := c.byID[f.Default]; ok {
		c.def = d
	} else {
		return nil, fmt.Errorf("agent catalog: default agent %q not defined", f.Default)
	}
	return c, nil
}

// Lookup returns the configuration for id, if any.
func (c *Catalog) Lookup(id string) (*Config, bool) {
	a, ok := c.byID[id]
	return a, ok
}

// Resolve returns the configuration for id, falling back to the default agent.
// It never fails: unknown ids always get the default configuration.
func (c *Catalog) Resolve(id string) *Config {
	if a, ok := c.byID[id]; ok {
		return a
	}
	return c.def
}

// Default returns the designated default agent.
func (c *Catalog) Default() *Config { return c.def }

// All returns every agent in catalog order.
func (c *Catalog) All() []*Config {
	out := make([]*Config, len(c.agents))
	copy(out, c.agents)
	return out
}

// Subscribers returns every agent with a subscription matching source/event,
// in catalog order.
func (c *Catalog) Subscribers(source, event string) []*Config {
	var out []*Config
	for _, a := range c.agents {
		if _, ok := a.MatchSubscription(source, event); ok {
			out = append(out, a)
		}
	}
	return out
}

// Persona is the public identity an agent signs outbound messages with.
type Persona struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Emoji  string `json:"emoji"`
	Avatar string `json:"avatar"`
}

// Persona returns the identity for id. Unknown ids get a generated persona
// rather than the default agent's, so messages are never signed by someone else.
func (c *Catalog) Persona(id string) Persona {
	if a, ok := c.byID[id]; ok {
		emoji := a.Emoji
		if emoji == "" {
			emoji = ":robot_face:"
		}
		return Persona{ID: a.ID, Name: a.Name, Emoji: emoji, Avatar: a.Avatar}
	}
	return Persona{ID: id, Name: DisplayName(id), Emoji: ":robot_face:", Avatar: avatarURL(id)}
}

func avatarURL(id string) string {
	return "https://api.dicebear.com/7.x/avataaars/svg?seed=" + id + "&backgroundColor=ff6b35"
}

// DisplayName capitalizes an agent id for display.
func DisplayName(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}
