package http

import (
	"net/http"

	"github.com/egopanda/agency/internal/chat"
	"github.com/egopanda/agency/pkg/protocol"
)

// ChatHandler serves the agent chat, automation and support endpoints.
type ChatHandler struct {
	svc *chat.Service
}

func NewChatHandler(svc *chat.Service) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// RegisterRoutes registers the chat routes on mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc(protocol.RouteChatAgent, allowMethods(h.handleChat, http.MethodPost))
	mux.HandleFunc(protocol.RouteAutomation, allowMethods(h.handleAutomation, http.MethodPost))
	mux.HandleFunc(protocol.RouteSupportAssistant, allowMethods(h.handleSupport, http.MethodPost))
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chat.Request
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.svc.Chat(r.Context(), req)
	if err != nil {
		writeError(w, err, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) handleAutomation(w http.ResponseWriter, r *http.Request) {
	var req chat.AutomationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.svc.Automation(r.Context(), req)
	if err != nil {
		writeError(w, err, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}

func (h *ChatHandler) handleSupport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Message string `json:"message"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	resp, err := h.svc.Support(r.Context(), req.Message)
	if err != nil {
		writeError(w, err, "Internal server error")
		return
	}
	WriteJSON(w, http.StatusOK, resp)
}
