package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Gateway: GatewayConfig{
			Host:          "0.0.0.0",
			Port:          8787,
			RateLimitRPM:  120,
			MaxBodyBytes:  1 << 20,
			WebhookFanout: 4,
			MetricsPath:   "/metrics",
		},
		LLM: LLMConfig{
			APIBase:    "https://api.openai.com/v1",
			TimeoutSec: 60,
			Advanced: AdvancedRoute{
				Model:                  "gpt-5",
				Path:                   "/responses",
				Agents:                 FlexibleStringSlice{"vanessa", "aurelius"},
				Verbosity:              "medium",
				ReasoningEffort:        map[string]string{"vanessa": "high"},
				DefaultReasoningEffort: "minimal",
			},
			Standard: StandardRoute{
				Model:       "gpt-4o",
				Path:        "/chat/completions",
				MaxTokens:   800,
				Temperature: 0.7,
			},
		},
		Agents: AgentsConfig{
			MemoryLimit:  5,
			SnippetWidth: 100,
		},
		Database: DatabaseConfig{
			Mode:       "standalone",
			SQLitePath: "~/.agency/memory.db",
			TimeoutSec: 5,
		},
		Channels: ChannelsConfig{
			Outbound: OutboundConfig{TimeoutSec: 15, Brand: "EgoPanda Creative"},
			Email:    EmailConfig{Port: 587, Domain: "egopandacreative.com"},
		},
		Workflows: WorkflowsConfig{TimeoutSec: 15},
		Triggers:  TriggersConfig{Notify: "log", ActionTimeoutSec: 10},
		Telemetry: TelemetryConfig{Protocol: "grpc", ServiceName: "agency-gateway"},
	}
}

// Load reads config from a JSON5 file, then overlays env vars.
// A missing file is not an error: defaults plus env are used.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := json5.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envInt := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				*dst = n
			}
		}
	}

	// Secrets
	envStr("AGENCY_OPENAI_API_KEY", &c.LLM.APIKey)
	envStr("AGENCY_POSTGRES_DSN", &c.Database.PostgresDSN)
	envStr("AGENCY_TELEGRAM_TOKEN", &c.Channels.Telegram.Token)
	envStr("AGENCY_SMTP_PASSWORD", &c.Channels.Email.Password)

	// LLM
	envStr("AGENCY_OPENAI_ORG_ID", &c.LLM.OrgID)
	envStr("AGENCY_OPENAI_PROJECT_ID", &c.LLM.ProjectID)
	envStr("AGENCY_OPENAI_API_BASE", &c.LLM.APIBase)
	if v := os.Getenv("AGENCY_ADVANCED_AGENTS"); v != "" {
		c.LLM.Advanced.Agents = splitList(v)
	}

	// Gateway host/port
	envStr("AGENCY_HOST", &c.Gateway.Host)
	envInt("AGENCY_PORT", &c.Gateway.Port)
	envInt("AGENCY_RATE_LIMIT_RPM", &c.Gateway.RateLimitRPM)

	// Database
	envStr("AGENCY_MODE", &c.Database.Mode)
	envStr("AGENCY_SQLITE_PATH", &c.Database.SQLitePath)

	// Catalog, workflows, triggers
	envStr("AGENCY_CATALOG_FILE", &c.Agents.CatalogFile)
	envStr("AGENCY_WORKFLOW_BASE_URL", &c.Workflows.BaseURL)
	envStr("AGENCY_NOTIFY", &c.Triggers.Notify)
	envStr("AGENCY_NOTIFY_SLACK_WEBHOOK_URL", &c.Triggers.SlackWebhookURL)
	if v := os.Getenv("AGENCY_TELEGRAM_CHAT_ID"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Channels.Telegram.ChatID = id
		}
	}

	// Email
	envStr("AGENCY_SMTP_HOST", &c.Channels.Email.Host)
	envStr("AGENCY_SMTP_USERNAME", &c.Channels.Email.Username)

	// Telemetry
	envStr("AGENCY_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("AGENCY_TELEMETRY_PROTOCOL", &c.Telemetry.Protocol)
	envStr("AGENCY_TELEMETRY_SERVICE_NAME", &c.Telemetry.ServiceName)
	if v := os.Getenv("AGENCY_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("AGENCY_TELEMETRY_INSECURE"); v != "" {
		c.Telemetry.Insecure = v == "true" || v == "1"
	}
}

// IsAdvancedAgent reports whether agentID routes to the advanced model.
func (c *Config) IsAdvancedAgent(agentID string) bool {
	for _, id := range c.LLM.Advanced.Agents {
		if id == agentID {
			return true
		}
	}
	return false
}

// ExpandHome replaces leading ~ with the user home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}

func splitList(v string) FlexibleStringSlice {
	var out FlexibleStringSlice
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
