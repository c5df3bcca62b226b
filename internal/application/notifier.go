package application

import (
	"context"
	"time"

	"vision-assistant/internal/domain"
)

type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type NoopNotifier struct{}

func (n *NoopNotifier) Notify(_ context.Context, _ string) error {
	return nil
}

type EventType string

const (
	EventSessionStarted EventType = "session_started"
	EventPrompt         EventType = "prompt"
	EventNarration      EventType = "narration"
	EventFailure        EventType = "failure"
	EventReady          EventType = "ready"
)

// Event describes session progress for observers such as a web UI.
type Event struct {
	Type    EventType          `json:"type"`
	Session string             `json:"session,omitempty"`
	Mode    domain.CaptureMode `json:"mode,omitempty"`
	Text    string             `json:"text,omitempty"`
	Time    time.Time          `json:"time"`
}

type EventSink interface {
	Publish(e Event)
}

type NoopEvents struct{}

func (NoopEvents) Publish(Event) {}
