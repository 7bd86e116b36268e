// Package workflows starts automation workflows on an n8n instance through
// its webhook trigger URLs.
package workflows

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Source tags payloads sent by the gateway.
const Source = "egopanda-agency"

// Workflow statuses.
const (
	StatusStarted = "started"
	StatusLogged  = "logged"
)

// N8NRunner POSTs workflow input to <BaseURL>/<workflow>. With no base URL it
// only logs the request.
type N8NRunner struct {
	baseURL string
	client  *http.Client
}

func NewN8NRunner(baseURL string, timeout time.Duration) *N8NRunner {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &N8NRunner{baseURL: strings.TrimRight(baseURL, "/"), client: &http.Client{Timeout: timeout}}
}

func (r *N8NRunner) RunWorkflow(ctx context.Context, workflow string, input map[string]any) (string, error) {
	if r.baseURL == "" {
		slog.Info("workflow runner not configured, logging only", "workflow", workflow)
		return StatusLogged, nil
	}

	body := make(map[string]any, len(input)+3)
	for k, v := range input {
		body[k] = v
	}
	body["workflow"] = workflow
	body["timestamp"] = time.Now().UTC().Format(time.RFC3339Nano)
	body["source"] = Source

	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal workflow input: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/"+workflow, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("workflow %s returned %d: %s", workflow, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	slog.Debug("workflow started", "workflow", workflow, "status", resp.StatusCode)
	return StatusStarted, nil
}
