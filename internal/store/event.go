package store

import (
	"sync"

	"github.com/efreitasn/stocktrade/internal/domain"
)

// EventStore is a thread-safe append-only store for audit events,
// indexed by username. Events are chronological per user.
type EventStore struct {
	mu     sync.RWMutex
	events []*domain.Event
	byUser map[string][]*domain.Event
}

// NewEventStore creates an empty EventStore.
func NewEventStore() *EventStore {
	return &EventStore{
		byUser: make(map[string][]*domain.Event),
	}
}

// Append adds an event to the log.
func (s *EventStore) Append(e *domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, e)
	if e.UserName != "" {
		s.byUser[e.UserName] = append(s.byUser[e.UserName], e)
	}
}

// ListByUser returns all events for a user in chronological order.
// Returns an empty slice if the user has no events.
func (s *EventStore) ListByUser(userName string) []*domain.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.byUser[userName]
	result := make([]*domain.Event, len(events))
	copy(result, events)
	return result
}

// Len returns the total number of recorded events.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}
