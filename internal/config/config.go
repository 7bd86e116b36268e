package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// FlexibleStringSlice accepts both ["str"] and [123] in JSON.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

// Config is the root configuration for the agency gateway.
// It is loaded once at start and treated as read-only afterwards.
type Config struct {
	Gateway   GatewayConfig   `json:"gateway"`
	LLM       LLMConfig       `json:"llm"`
	Agents    AgentsConfig    `json:"agents"`
	Database  DatabaseConfig  `json:"database,omitempty"`
	Channels  ChannelsConfig  `json:"channels"`
	Workflows WorkflowsConfig `json:"workflows"`
	Triggers  TriggersConfig  `json:"triggers"`
	Telemetry TelemetryConfig `json:"telemetry,omitempty"`
}

// GatewayConfig controls the HTTP listener.
type GatewayConfig struct {
	Host          string `json:"host"`
	Port          int    `json:"port"`
	RateLimitRPM  int    `json:"rate_limit_rpm,omitempty"` // per client IP, 0 = disabled
	MaxBodyBytes  int64  `json:"max_body_bytes,omitempty"` // default 1 MiB
	WebhookFanout int    `json:"webhook_fanout,omitempty"` // concurrent webhook targets (default 4)
	MetricsPath   string `json:"metrics_path,omitempty"`   // default "/metrics", "-" disables
}

// Addr returns the listen address.
func (g GatewayConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// LLMConfig configures the OpenAI-compatible model API.
// APIKey is NEVER read from the config file, only from env AGENCY_OPENAI_API_KEY.
type LLMConfig struct {
	APIKey     string        `json:"-"`
	OrgID      string        `json:"org_id,omitempty"`
	ProjectID  string        `json:"project_id,omitempty"`
	APIBase    string        `json:"api_base,omitempty"`    // default "https://api.openai.com/v1"
	TimeoutSec int           `json:"timeout_sec,omitempty"` // per call (default 60)
	Advanced   AdvancedRoute `json:"advanced"`
	Standard   StandardRoute `json:"standard"`
}

// AdvancedRoute is the Responses-API route used by a designated subset of agents.
type AdvancedRoute struct {
	Model                  string              `json:"model"`
	Path                   string              `json:"path"`
	Agents                 FlexibleStringSlice `json:"agents"`
	Verbosity              string              `json:"verbosity,omitempty"`
	ReasoningEffort        map[string]string   `json:"reasoning_effort,omitempty"` // agent id → effort
	DefaultReasoningEffort string              `json:"default_reasoning_effort,omitempty"`
}

// StandardRoute is the Chat-Completions route used by every other agent.
type StandardRoute struct {
	Model       string  `json:"model"`
	Path        string  `json:"path"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// Timeout returns the per-call LLM timeout.
func (c LLMConfig) Timeout() time.Duration {
	return seconds(c.TimeoutSec, 60)
}

// RequireAPIKey returns the API key or a *MissingCredentialError.
func (c LLMConfig) RequireAPIKey() (string, error) {
	if c.APIKey == "" {
		return "", &MissingCredentialError{Name: "OpenAI API key", Env: "AGENCY_OPENAI_API_KEY"}
	}
	return c.APIKey, nil
}

// AgentsConfig controls how the agent catalog is loaded and how much memory
// is folded into each prompt.
type AgentsConfig struct {
	CatalogFile  string `json:"catalog_file,omitempty"`  // YAML file replacing the built-in catalog
	MemoryLimit  int    `json:"memory_limit,omitempty"`  // recent memories per prompt (default 5)
	SnippetWidth int    `json:"snippet_width,omitempty"` // memory snippet width in columns (default 100)
}

// DatabaseConfig configures memory persistence.
// PostgresDSN is NEVER read from the config file, only from env AGENCY_POSTGRES_DSN.
type DatabaseConfig struct {
	PostgresDSN string `json:"-"`
	Mode        string `json:"mode,omitempty"`        // "standalone" (default, SQLite) or "managed" (Postgres)
	SQLitePath  string `json:"sqlite_path,omitempty"` // default "~/.agency/memory.db"
	TimeoutSec  int    `json:"timeout_sec,omitempty"` // per query (default 5)
}

// IsManagedMode returns true if memories live in Postgres.
func (c *Config) IsManagedMode() bool {
	return c.Database.Mode == "managed" && c.Database.PostgresDSN != ""
}

// Timeout returns the per-query store timeout.
func (d DatabaseConfig) Timeout() time.Duration {
	return seconds(d.TimeoutSec, 5)
}

// WorkflowsConfig points at the workflow runner (an n8n instance).
type WorkflowsConfig struct {
	BaseURL    string `json:"base_url,omitempty"` // e.g. "https://example.app.n8n.cloud/webhook"; empty = log only
	TimeoutSec int    `json:"timeout_sec,omitempty"`
}

// Timeout returns the per-call workflow timeout.
func (w WorkflowsConfig) Timeout() time.Duration {
	return seconds(w.TimeoutSec, 15)
}

// TriggersConfig controls trigger action collaborators.
type TriggersConfig struct {
	Notify           string `json:"notify,omitempty"`            // "log" (default), "telegram", "slack"
	SlackWebhookURL  string `json:"slack_webhook_url,omitempty"` // used when notify = "slack"
	ActionTimeoutSec int    `json:"action_timeout_sec,omitempty"`
}

// ActionTimeout returns the per-action timeout.
func (t TriggersConfig) ActionTimeout() time.Duration {
	return seconds(t.ActionTimeoutSec, 10)
}

// TelemetryConfig configures OpenTelemetry export for traces and spans.
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty"` // OTLP endpoint (e.g. "localhost:4317")
	Protocol    string            `json:"protocol,omitempty"` // "grpc" (default) or "http"
	Insecure    bool              `json:"insecure,omitempty"`
	ServiceName string            `json:"service_name,omitempty"` // default "agency-gateway"
	Headers     map[string]string `json:"headers,omitempty"`
}

// MissingCredentialError reports a secret that must be supplied at start.
type MissingCredentialError struct {
	Name string
	Env  string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("%s not configured (set %s)", e.Name, e.Env)
}

func seconds(v, def int) time.Duration {
	if v <= 0 {
		v = def
	}
	return time.Duration(v) * time.Second
}
