package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.Standard.Model != "gpt-4o" {
		t.Errorf("standard model = %q, want gpt-4o", cfg.LLM.Standard.Model)
	}
	if cfg.Gateway.Port != 8787 {
		t.Errorf("port = %d, want 8787", cfg.Gateway.Port)
	}
}

func TestLoad_JSON5AndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	body := `{
  // comments are allowed
  gateway: { port: 9000 },
  llm: { advanced: { agents: ["rory", "dana"] } },
}`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("AGENCY_PORT", "9100")
	t.Setenv("AGENCY_OPENAI_API_KEY", "sk-test")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Gateway.Port != 9100 {
		t.Errorf("env should win: port = %d", cfg.Gateway.Port)
	}
	if !cfg.IsAdvancedAgent("rory") || !cfg.IsAdvancedAgent("dana") {
		t.Errorf("advanced agents = %v", cfg.LLM.Advanced.Agents)
	}
	if cfg.IsAdvancedAgent("vanessa") {
		t.Error("file value should replace the default advanced list")
	}
	if key, err := cfg.LLM.RequireAPIKey(); err != nil || key != "sk-test" {
		t.Errorf("RequireAPIKey = %q, %v", key, err)
	}
}

func TestRequireAPIKey_Missing(t *testing.T) {
	_, err := LLMConfig{}.RequireAPIKey()
	var mc *MissingCredentialError
	if !errors.As(err, &mc) {
		t.Fatalf("want *MissingCredentialError, got %v", err)
	}
	if mc.Env != "AGENCY_OPENAI_API_KEY" {
		t.Errorf("env = %q", mc.Env)
	}
}

func TestSecretsNeverReadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"llm":{"APIKey":"leaked"},"database":{"PostgresDSN":"x"}}`), 0600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("AGENCY_OPENAI_API_KEY", "")
	t.Setenv("AGENCY_POSTGRES_DSN", "")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.LLM.APIKey != "" || cfg.Database.PostgresDSN != "" {
		t.Errorf("secrets must come from env only, got %q / %q", cfg.LLM.APIKey, cfg.Database.PostgresDSN)
	}
}
