package events

import "context"

// StreamAuth is the channel login events are published on.
const StreamAuth = "events:auth"

// Event types
const (
	EventLoginCompleted = "login_completed"
	EventCodeRedeemed   = "code_redeemed"
)

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

// NopPublisher drops every event. Used when no Redis is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, string, Event) error { return nil }
