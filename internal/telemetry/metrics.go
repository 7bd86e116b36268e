package telemetry

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

const meterName = "github.com/egopanda/agency"

var (
	initMetricsOnce   sync.Once
	httpRequests      metric.Int64Counter
	llmCalls          metric.Int64Counter
	llmCallDuration   metric.Float64Histogram
	triggerActions    metric.Int64Counter
	webhookEvents     metric.Int64Counter
	messagesSent      metric.Int64Counter
	memoryStoreErrors metric.Int64Counter
)

// InitMeterProvider installs a global MeterProvider backed by a Prometheus
// registry and returns the /metrics handler. Call once at start.
func InitMeterProvider(ctx context.Context, serviceName string) (http.Handler, error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return nil, err
	}
	res, err := resource.New(ctx, resource.WithAttributes(semconv.ServiceName(serviceName)))
	if err != nil {
		return nil, err
	}
	otel.SetMeterProvider(sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	))
	if err := InitMetrics(); err != nil {
		return nil, err
	}
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true}), nil
}

// InitMetrics creates the instruments on the global meter. Safe to call more
// than once. Record* functions are no-ops until it has run.
func InitMetrics() error {
	var err error
	initMetricsOnce.Do(func() {
		m := otel.Meter(meterName)
		if httpRequests, err = m.Int64Counter("agency_http_requests_total",
			metric.WithDescription("HTTP requests by route and status")); err != nil {
			return
		}
		if llmCalls, err = m.Int64Counter("agency_llm_calls_total",
			metric.WithDescription("LLM calls by model and outcome")); err != nil {
			return
		}
		if llmCallDuration, err = m.Float64Histogram("agency_llm_call_duration_seconds",
			metric.WithDescription("LLM call latency in seconds")); err != nil {
			return
		}
		if triggerActions, err = m.Int64Counter("agency_trigger_actions_total",
			metric.WithDescription("Trigger actions by kind and terminal status")); err != nil {
			return
		}
		if webhookEvents, err = m.Int64Counter("agency_webhook_events_total",
			metric.WithDescription("Inbound webhook events by source, event and processed flag")); err != nil {
			return
		}
		if messagesSent, err = m.Int64Counter("agency_messages_sent_total",
			metric.WithDescription("Outbound messages by channel type and success")); err != nil {
			return
		}
		memoryStoreErrors, err = m.Int64Counter("agency_memory_store_errors_total",
			metric.WithDescription("Memory store failures by operation"))
	})
	return err
}

// RecordHTTPRequest counts one served request.
func RecordHTTPRequest(ctx context.Context, route string, status int) {
	if httpRequests == nil {
		return
	}
	httpRequests.Add(ctx, 1, metric.WithAttributes(
		attribute.String("route", route),
		attribute.String("status", strconv.Itoa(status)),
	))
}

// RecordLLMCall counts one LLM call and its latency.
func RecordLLMCall(ctx context.Context, model, outcome string, d time.Duration) {
	attrs := metric.WithAttributes(attribute.String("model", model), attribute.String("outcome", outcome))
	if llmCalls != nil {
		llmCalls.Add(ctx, 1, attrs)
	}
	if llmCallDuration != nil {
		llmCallDuration.Record(ctx, d.Seconds(), attrs)
	}
}

// RecordTriggerAction counts one executed trigger action.
func RecordTriggerAction(ctx context.Context, kind, status string) {
	if triggerActions == nil {
		return
	}
	triggerActions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	))
}

// RecordWebhookEvent counts one inbound webhook.
func RecordWebhookEvent(ctx context.Context, source, event string, processed bool) {
	if webhookEvents == nil {
		return
	}
	webhookEvents.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", source),
		attribute.String("event", event),
		attribute.Bool("processed", processed),
	))
}

// RecordMessageSent counts one outbound message attempt.
func RecordMessageSent(ctx context.Context, messageType string, success bool) {
	if messagesSent == nil {
		return
	}
	messagesSent.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", messageType),
		attribute.Bool("success", success),
	))
}

// RecordMemoryStoreError counts a failed memory read or write.
func RecordMemoryStoreError(ctx context.Context, op string) {
	if memoryStoreErrors == nil {
		return
	}
	memoryStoreErrors.Add(ctx, 1, metric.WithAttributes(attribute.String("op", op)))
}
