package providers

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

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const maxReplyBytes = 4 << 20

// Client executes CallSpecs against an OpenAI-compatible API.
// Calls are never retried: a completion is a non-idempotent write.
type Client struct {
	name    string
	client  *http.Client
	timeout time.Duration
}

// NewClient returns a client that bounds every call by timeout.
func NewClient(name string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		name:    name,
		client:  &http.Client{Timeout: timeout + 5*time.Second},
		timeout: timeout,
	}
}

// WithHTTPClient swaps the underlying HTTP client (tests, proxies).
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.client = hc
	return c
}

func (c *Client) Name() string { return c.name }

// Complete performs the call and extracts the assistant text.
// Non-2xx replies return *HTTPError; unknown shapes return ErrInvalidResponseFormat.
func (c *Client) Complete(ctx context.Context, spec CallSpec) (Reply, error) {
	ctx, span := otel.Tracer("agency/providers").Start(ctx, "llm.complete", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.provider", c.name),
		attribute.String("llm.model", spec.Model),
		attribute.String("llm.endpoint", spec.Endpoint),
	)

	body, err := c.do(ctx, spec)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Reply{}, err
	}

	reply, err := ParseReply(body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid response format")
		slog.Warn("llm reply not understood", "provider", c.name, "model", spec.Model, "body", truncate(string(body), 200))
		return Reply{}, err
	}
	span.SetAttributes(attribute.String("llm.reply_shape", reply.Shape.String()))
	return reply, nil
}

func (c *Client) do(ctx context.Context, spec CallSpec) ([]byte, error) {
	data, err := json.Marshal(spec.Payload)
	if err != nil {
		return nil, fmt.Errorf("%s: marshal request: %w", c.name, err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, spec.Endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: create request: %w", c.name, err)
	}
	for k, v := range spec.Headers {
		httpReq.Header.Set(k, v)
	}
	if httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s: read response: %w", c.name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &HTTPError{
			Status:     resp.StatusCode,
			Body:       string(respBody),
			RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return respBody, nil
}

// OpenAIHeaders builds request headers. Organization and project are optional.
func OpenAIHeaders(apiKey, orgID, projectID string) map[string]string {
	h := map[string]string{
		"Authorization": "Bearer " + apiKey,
		"Content-Type":  "application/json",
	}
	if orgID != "" {
		h["OpenAI-Organization"] = orgID
	}
	if projectID != "" {
		h["OpenAI-Project"] = projectID
	}
	return h
}

// ResponsesBody builds a Responses API body; the conversation goes under "input".
func ResponsesBody(model string, msgs []Message, verbosity, reasoningEffort string) map[string]interface{} {
	body := map[string]interface{}{
		"model": model,
		"input": msgs,
	}
	if verbosity != "" {
		body[OptVerbosity] = verbosity
	}
	if reasoningEffort != "" {
		body[OptReasoningEffort] = reasoningEffort
	}
	return body
}

// ChatCompletionsBody builds a Chat Completions body.
func ChatCompletionsBody(model string, msgs []Message, maxTokens int, temperature float64) map[string]interface{} {
	body := map[string]interface{}{
		"model":    model,
		"messages": msgs,
	}
	if maxTokens > 0 {
		body[OptMaxTokens] = maxTokens
	}
	body[OptTemperature] = temperature
	return body
}

// JoinURL joins an API base and a path without doubling slashes.
func JoinURL(base, path string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
