// Package telemetry defines the assistant usage event stream: an Event type,
// emitter interfaces, and a fire-and-forget async helper. Events flow to OTel
// Logs in-process and to Kafka for the worker pipeline.
package telemetry

import (
	"context"
	"encoding/json"
	"time"
)

// Event is one assistant usage event (e.g. a dispatched command or a break
// decision). Metadata is free-form JSON specific to the event type.
type Event struct {
	TeamID    string          `json:"teamId,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	EventType string          `json:"eventType"`
	Source    string          `json:"source,omitempty"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// EventEmitter emits telemetry events (e.g. to OTel Logs or Kafka). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}
