// Package http holds the JSON API handlers. Routing, middleware and the
// listener live in internal/gateway.
package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/egopanda/agency/internal/channels"
	"github.com/egopanda/agency/internal/chat"
	"github.com/egopanda/agency/internal/config"
	"github.com/egopanda/agency/internal/providers"
	"github.com/egopanda/agency/internal/webhook"
)

// maxDiagnostic bounds error text echoed back to clients.
const maxDiagnostic = 500

// WriteJSON writes data as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeMethodNotAllowed(w http.ResponseWriter) {
	WriteJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
}

// allowMethods wraps h so that any other method gets a JSON 405.
func allowMethods(h http.HandlerFunc, methods ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		for _, m := range methods {
			if r.Method == m {
				h(w, r)
				return
			}
		}
		w.Header().Set("Allow", strings.Join(methods, ", "))
		writeMethodNotAllowed(w)
	}
}

// decodeBody decodes a JSON request body into v. An empty body leaves v untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.Body == nil {
		return true
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		WriteJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
		return false
	}
	WriteJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
	return false
}

// writeError maps a service error onto the HTTP error taxonomy. fallback is
// the top-level error label for 500 replies.
func writeError(w http.ResponseWriter, err error, fallback string) {
	var (
		missing  *chat.MissingFieldError
		upstream *providers.HTTPError
		cred     *config.MissingCredentialError
	)
	switch {
	case errors.As(err, &missing),
		errors.Is(err, webhook.ErrMissingFields),
		errors.Is(err, channels.ErrUnknownMessageType):
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.As(err, &upstream):
		slog.Warn("upstream model error", "status", upstream.Status)
		WriteJSON(w, http.StatusBadGateway, map[string]any{
			"success":         false,
			"error":           "Upstream model API error",
			"message":         Diagnostic(err),
			"upstream_status": upstream.Status,
			"upstream_body":   upstream.Body,
		})
	case errors.As(err, &cred):
		slog.Error("configuration error", "error", err)
		WriteJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Server configuration error",
			"message": err.Error(),
		})
	default:
		slog.Error(fallback, "error", err)
		WriteJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   fallback,
			"message": Diagnostic(err),
		})
	}
}

// Diagnostic returns err's text cut to a client-safe length.
func Diagnostic(err error) string {
	return DiagnosticText(err.Error())
}

// DiagnosticText cuts s to a client-safe length on a rune boundary.
func DiagnosticText(s string) string {
	if len(s) <= maxDiagnostic {
		return s
	}
	cut := maxDiagnostic
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
