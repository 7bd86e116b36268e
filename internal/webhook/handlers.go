package webhook

import "github.com/egopanda/agency/pkg/protocol"

// handler builds the action result for one known source.event pair.
type handler func(agentID string, ev Event) map[string]any

var handlers = map[string]handler{
	protocol.WebhookKey(protocol.SourceStripe, protocol.EventPaymentSuccess):   paymentSuccess,
	protocol.WebhookKey(protocol.SourceSquare, protocol.EventPaymentSuccess):   paymentSuccess,
	protocol.WebhookKey(protocol.SourceDiscord, protocol.EventMessageReceived): messageReceived,
	protocol.WebhookKey(protocol.SourceSlack, protocol.EventMessageReceived):   messageReceived,
	protocol.WebhookKey(protocol.SourceGitHub, protocol.EventPush):             codePush,
}

func handle(agentID string, ev Event) map[string]any {
	if h, ok := handlers[protocol.WebhookKey(ev.Source, ev.Event)]; ok {
		return h(agentID, ev)
	}
	return genericWebhook(agentID, ev)
}

func paymentSuccess(agentID string, ev Event) map[string]any {
	return map[string]any{
		"action":        protocol.ActionPaymentProcessed,
		"customer":      stringOr(ev.Data, "customer_email", "Unknown"),
		"amount":        valueOr(ev.Data, "amount", 0),
		"agentNotified": agentID,
	}
}

func messageReceived(agentID string, ev Event) map[string]any {
	return map[string]any{
		"action":          protocol.ActionMessageProcessed,
		"from":            stringOr(ev.Data, "user", "Unknown"),
		"message":         stringOr(ev.Data, "text", ""),
		"agentResponding": agentID,
	}
}

func codePush(agentID string, ev Event) map[string]any {
	commits := 0
	if list, ok := fields(ev.Data)["commits"].([]any); ok {
		commits = len(list)
	}
	return map[string]any{
		"action":        protocol.ActionCodePushed,
		"repository":    valueOr(ev.Data, "repository", "Unknown"),
		"commits":       commits,
		"agentHandling": agentID,
	}
}

func genericWebhook(agentID string, ev Event) map[string]any {
	return map[string]any{
		"action":        protocol.ActionGenericWebhook,
		"source":        ev.Source,
		"event":         ev.Event,
		"dataReceived":  ev.Data != nil,
		"agentHandling": agentID,
	}
}

// fields returns the payload as an object, or nil for any other JSON value.
func fields(data any) map[string]any {
	m, _ := data.(map[string]any)
	return m
}

func stringOr(data any, key, def string) string {
	if s, ok := fields(data)[key].(string); ok && s != "" {
		return s
	}
	return def
}

// valueOr returns data[key] unless it is missing or a zero value.
func valueOr(data any, key string, def any) any {
	v := fields(data)[key]
	switch v := v.(type) {
	case nil:
		return def
	case string:
		if v == "" {
			return def
		}
	case float64:
		if v == 0 {
			return def
		}
	case bool:
		if !v {
			return def
		}
	}
	return v
}
