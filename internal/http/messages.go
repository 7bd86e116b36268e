package http

import (
	"net/http"
	"time"

	"github.com/egopanda/agency/internal/channels"
	"github.com/egopanda/agency/pkg/protocol"
)

// MessagesHandler serves the outbound send-message endpoint.
type MessagesHandler struct {
	dispatcher *channels.Dispatcher
}

func NewMessagesHandler(d *channels.Dispatcher) *MessagesHandler {
	return &MessagesHandler{dispatcher: d}
}

// RegisterRoutes registers the send-message route on mux.
func (h *MessagesHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(protocol.RouteSendMessage, allowMethods(h.handleSend, http.MethodPost))
}

type sendMessageRequest struct {
	AgentID     string            `json:"agentId"`
	Destination string            `json:"destination"`
	MessageType string            `json:"messageType"`
	Payload     map[string]any    `json:"payload"`
	Headers     map[string]string `json:"headers"`
	Template    string            `json:"template"`
}

func (h *MessagesHandler) handleSend(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.AgentID == "" || req.Destination == "" || req.MessageType == "" {
		WriteJSON(w, http.StatusBadRequest, map[string]string{
			"error": "Missing required fields: agentId, destination, messageType",
		})
		return
	}

	res, err := h.dispatcher.Send(r.Context(), channels.Message{
		AgentID:     req.AgentID,
		Destination: req.Destination,
		Type:        req.MessageType,
		Payload:     req.Payload,
		Headers:     req.Headers,
		Template:    req.Template,
	})
	if err != nil {
		writeError(w, err, "Failed to send message")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"message":     "JSON message sent successfully",
		"agentId":     req.AgentID,
		"destination": req.Destination,
		"messageType": req.MessageType,
		"result":      res,
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
	})
}
