// Package protocol holds the public wire names of the agent gateway: HTTP
// routes, webhook sources and events, and the API version.
package protocol

// APIVersion is bumped on breaking changes to request or response shapes.
const APIVersion = 1

// HTTP routes.
const (
	RouteChatAgent        = "/api/chat-agent"
	RouteMemoryRead       = "/api/memory-read"
	RouteMemoryWrite      = "/api/memory-write"
	RouteSendMessage      = "/api/send-message"
	RouteWebhookHandler   = "/api/webhook-handler"
	RouteAutomation       = "/api/n8n"
	RouteSupportAssistant = "/api/support-assistant"
	RouteHealth           = "/health"
)
