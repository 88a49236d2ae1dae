// Package events publishes change events for committed resource writes.
//
// An event is sent after the write's transaction commits. Publishers are
// synchronous; a failed publish is reported to the caller, who decides
// whether it matters (the REST engine logs it and moves on).
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Op is the kind of change an event reports.
type Op string

const (
	OpCreated Op = "created"
	OpUpdated Op = "updated"
	OpDeleted Op = "deleted"
)

// Event describes one committed change of a resource.
type Event struct {
	ID       string          `json:"id"`
	Resource string          `json:"resource"`
	Op       Op              `json:"op"`
	EntityID string          `json:"entityId"`
	Data     json.RawMessage `json:"data,omitempty"`
	Time     time.Time       `json:"time"`
}

// New builds an event for entity. data may be nil, as for deletes.
func New(resource string, op Op, entityID string, data any) (Event, error) {
	e := Event{
		ID:       uuid.NewString(),
		Resource: resource,
		Op:       op,
		EntityID: entityID,
		Time:     time.Now().UTC(),
	}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return Event{}, fmt.Errorf("marshal %s event data: %w", resource, err)
		}
		e.Data = raw
	}
	return e, nil
}

// Publisher sends events to a broker.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
