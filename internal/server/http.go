// Package server exposes the assistant over HTTP: the three webhook routes
// the chat platform delivers events on, plus readiness.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"focusflow/backend/internal/assistant"
	"focusflow/backend/internal/chat"
	healthhandler "focusflow/backend/internal/health/handler"
	"focusflow/backend/internal/telemetry/producer"
)

// commandTimeout is the response deadline for the slash-command route; the
// platform abandons the request at 3 seconds.
const commandTimeout = 3 * time.Second

// Deps holds optional dependencies for the HTTP handlers.
type Deps struct {
	// Dispatcher handles all webhook events. Required.
	Dispatcher *assistant.Dispatcher
	// HealthPinger is used by /healthz for readiness (e.g. *sql.DB). If nil, the DB check is skipped.
	HealthPinger healthhandler.Pinger
	// HealthPolicyChecker is used by /healthz for readiness (e.g. the OPA evaluator). If nil, the policy check is skipped.
	HealthPolicyChecker healthhandler.PolicyChecker
	// TelemetryProducer receives one http_request event per webhook request. If nil, no request events are emitted.
	TelemetryProducer producer.Producer
}

// NewHandler returns the HTTP handler tree.
//
// Route → handler mapping:
//   - POST /webhook/command     → dispatcher (command transport, 3s deadline)
//   - POST /webhook/message     → dispatcher (free-text transport)
//   - POST /webhook/interaction → dispatcher (callback transport)
//   - GET  /healthz             → internal/health/handler
func NewHandler(deps Deps) http.Handler {
	s := &webhookServer{dispatcher: deps.Dispatcher}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /webhook/command", s.handleCommand)
	mux.HandleFunc("POST /webhook/message", s.handleMessage)
	mux.HandleFunc("POST /webhook/interaction", s.handleInteraction)
	mux.Handle("GET /healthz", healthhandler.NewServer(deps.HealthPinger, deps.HealthPolicyChecker))

	h := RequestTelemetry(deps.TelemetryProducer, map[string]bool{"/healthz": true})(mux)
	return otelhttp.NewHandler(h, "focusflow.webhook")
}

type webhookServer struct {
	dispatcher *assistant.Dispatcher
}

type commandPayload struct {
	TeamID  string `json:"team_id"`
	UserID  string `json:"user_id"`
	Command string `json:"command"`
	Text    string `json:"text"`
}

type messagePayload struct {
	TeamID string `json:"team_id"`
	UserID string `json:"user_id"`
	Text   string `json:"text"`
}

type interactionPayload struct {
	TeamID   string `json:"team_id"`
	UserID   string `json:"user_id"`
	ActionID string `json:"action_id"`
	Value    string `json:"value"`
}

func (s *webhookServer) handleCommand(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
	defer cancel()

	var p commandPayload
	if !decode(w, r, &p) {
		return
	}
	s.dispatch(ctx, w, assistant.Event{
		Kind:           assistant.KindCommand,
		TeamID:         p.TeamID,
		PlatformUserID: p.UserID,
		Command:        p.Command,
		Text:           p.Text,
	})
}

func (s *webhookServer) handleMessage(w http.ResponseWriter, r *http.Request) {
	var p messagePayload
	if !decode(w, r, &p) {
		return
	}
	s.dispatch(r.Context(), w, assistant.Event{
		Kind:           assistant.KindMessage,
		TeamID:         p.TeamID,
		PlatformUserID: p.UserID,
		Text:           p.Text,
	})
}

func (s *webhookServer) handleInteraction(w http.ResponseWriter, r *http.Request) {
	var p interactionPayload
	if !decode(w, r, &p) {
		return
	}
	s.dispatch(r.Context(), w, assistant.Event{
		Kind:           assistant.KindInteraction,
		TeamID:         p.TeamID,
		PlatformUserID: p.UserID,
		ActionID:       p.ActionID,
		Value:          p.Value,
	})
}

func (s *webhookServer) dispatch(ctx context.Context, w http.ResponseWriter, ev assistant.Event) {
	resp, err := s.dispatcher.Dispatch(ctx, ev)
	if err != nil {
		if errors.Is(err, assistant.ErrMissingIdentity) {
			writeError(w, http.StatusBadRequest, "team_id and user_id are required")
			return
		}
		log.Printf("server: dispatch: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("server: encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, chat.Response{Text: msg})
}
