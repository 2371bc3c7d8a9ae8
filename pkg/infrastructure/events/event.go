package events

import (
	"time"
)

// Event is one notification emitted during a pipeline run
type Event struct {
	Type     string    `json:"type"`
	RunID    string    `json:"run_id"`
	Sequence int       `json:"sequence"`
	Time     time.Time `json:"time"`
	Data     any       `json:"data,omitempty"`
}

// Publisher accepts events from a running pipeline
type Publisher interface {
	Publish(event Event) error
}

// Handler reacts to a published event
type Handler func(event Event) error

// NewEvent stamps an event for a run. The store assigns the sequence.
func NewEvent(eventType, runID string, data any) Event {
	return Event{
		Type:  eventType,
		RunID: runID,
		Time:  time.Now(),
		Data:  data,
	}
}

// Discard is a publisher that drops everything
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(Event) error { return nil }
