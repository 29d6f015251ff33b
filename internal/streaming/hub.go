package streaming

import (
	"context"

	"github.com/formforge/formforge/pkg/schema"
)

// BuilderEvent is emitted whenever a builder's document changes. Snapshot
// is the full post-change document; snapshots are immutable, so the
// pointer can be shared with any number of subscribers.
type BuilderEvent struct {
	ProjectID string          `json:"project_id"`
	EventType string          `json:"event_type"`
	Command   string          `json:"command,omitempty"`
	Snapshot  *schema.Project `json:"snapshot,omitempty"`
}

// EventFilter specifies which events a subscriber wants to receive.
type EventFilter struct {
	ProjectID  string   `json:"project_id,omitempty"`
	EventTypes []string `json:"event_types,omitempty"`
}

// EventHub provides pub/sub for builder document events.
type EventHub interface {
	Publish(ctx context.Context, event BuilderEvent) error
	Subscribe(ctx context.Context, filter EventFilter) (<-chan BuilderEvent, func(), error)
}
