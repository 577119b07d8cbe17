package events

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore keeps events in process memory.
type MemoryStore struct {
	mu     sync.RWMutex
	events map[string]Event
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{events: make(map[string]Event)}
}

func (s *MemoryStore) Create(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[e.ID] = *e
	return nil
}

func (s *MemoryStore) Find(_ context.Context, id string) (Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.events[id]
	if !ok {
		return Event{}, ErrEventNotFound
	}
	return e, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Event, error) {
	return s.filter(func(Event) bool { return true }), nil
}

func (s *MemoryStore) ListByOrganizer(_ context.Context, organizerID string) ([]Event, error) {
	return s.filter(func(e Event) bool { return e.OrganizerID == organizerID }), nil
}

func (s *MemoryStore) ListStartingAfter(_ context.Context, t time.Time) ([]Event, error) {
	return s.filter(func(e Event) bool { return e.Start.After(t) }), nil
}

func (s *MemoryStore) Update(_ context.Context, e *Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[e.ID]; !ok {
		return ErrEventNotFound
	}
	s.events[e.ID] = *e
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.events[id]; !ok {
		return ErrEventNotFound
	}
	delete(s.events, id)
	return nil
}

func (s *MemoryStore) filter(keep func(Event) bool) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Event, 0, len(s.events))
	for _, e := range s.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Start.Equal(out[j].Start) {
			return out[i].ID < out[j].ID
		}
		return out[i].Start.Before(out[j].Start)
	})
	return out
}
