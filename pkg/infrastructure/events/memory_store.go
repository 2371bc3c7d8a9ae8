package events

import (
	"errors"
	"sync"
)

// InMemoryEventStore keeps every event of the process, grouped by run
type InMemoryEventStore struct {
	streams     map[string][]Event
	subscribers map[string][]Handler
	wildcard    []Handler
	mutex       sync.RWMutex
}

// NewInMemoryEventStore creates an empty store
func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{
		streams:     make(map[string][]Event),
		subscribers: make(map[string][]Handler),
	}
}

var _ Publisher = (*InMemoryEventStore)(nil)

// Publish appends the event to its run stream and notifies subscribers
// synchronously, in subscription order.
func (s *InMemoryEventStore) Publish(event Event) error {
	s.mutex.Lock()
	event.Sequence = len(s.streams[event.RunID]) + 1
	s.streams[event.RunID] = append(s.streams[event.RunID], event)
	handlers := make([]Handler, 0, len(s.subscribers[event.Type])+len(s.wildcard))
	handlers = append(handlers, s.subscribers[event.Type]...)
	handlers = append(handlers, s.wildcard...)
	s.mutex.Unlock()

	var errs []error
	for _, h := range handlers {
		if err := h(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Stream returns the events of one run from the given sequence onwards
func (s *InMemoryEventStore) Stream(runID string, fromSequence int) []Event {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	events := s.streams[runID]
	if fromSequence < 1 {
		fromSequence = 1
	}
	if fromSequence > len(events) {
		return []Event{}
	}
	out := make([]Event, len(events)-fromSequence+1)
	copy(out, events[fromSequence-1:])
	return out
}

// Subscribe registers a handler for the given event types, or for every
// event when no type is given.
func (s *InMemoryEventStore) Subscribe(handler Handler, eventTypes ...string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if len(eventTypes) == 0 {
		s.wildcard = append(s.wildcard, handler)
		return
	}
	for _, eventType := range eventTypes {
		s.subscribers[eventType] = append(s.subscribers[eventType], handler)
	}
}
