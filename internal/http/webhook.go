package http

import (
	"net/http"

	"github.com/egopanda/agency/internal/webhook"
	"github.com/egopanda/agency/pkg/protocol"
)

// WebhookHandler receives third-party webhooks and routes them to agents.
type WebhookHandler struct {
	router *webhook.Router
}

func NewWebhookHandler(r *webhook.Router) *WebhookHandler {
	return &WebhookHandler{router: r}
}

// RegisterRoutes registers the webhook route on mux.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(protocol.RouteWebhookHandler, allowMethods(h.handleWebhook, http.MethodPost))
}

func (h *WebhookHandler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var ev webhook.Event
	if !decodeBody(w, r, &ev) {
		return
	}
	out, err := h.router.Route(r.Context(), ev)
	if err != nil {
		writeError(w, err, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Webhook processed successfully",
		"agentResponse": out,
	})
}
