package participants

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

type regKey struct{ eventID, userID string }

// MemoryStore keeps registrations in process memory. One lock covers the
// capacity check and the insert.
type MemoryStore struct {
	mu   sync.RWMutex
	regs map[regKey]Registration
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{regs: make(map[regKey]Registration)}
}

func (s *MemoryStore) Register(_ context.Context, r *Registration, capacity *int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := regKey{r.EventID, r.UserID}
	if _, ok := s.regs[key]; ok {
		return ErrAlreadyRegistered
	}
	if capacity != nil && s.countLocked(r.EventID) >= *capacity {
		return ErrEventFull
	}
	s.regs[key] = *r
	return nil
}

func (s *MemoryStore) Find(_ context.Context, eventID, userID string) (Registration, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.regs[regKey{eventID, userID}]
	if !ok {
		return Registration{}, ErrRegistrationNotFound
	}
	return r, nil
}

func (s *MemoryStore) Delete(_ context.Context, eventID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := regKey{eventID, userID}
	if _, ok := s.regs[key]; !ok {
		return ErrRegistrationNotFound
	}
	delete(s.regs, key)
	return nil
}

func (s *MemoryStore) CheckIn(_ context.Context, eventID, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := regKey{eventID, userID}
	r, ok := s.regs[key]
	if !ok {
		return ErrRegistrationNotFound
	}
	if r.Attended {
		return ErrAlreadyCheckedIn
	}
	r.Attended = true
	r.CheckedInAt = &at
	s.regs[key] = r
	return nil
}

func (s *MemoryStore) ListByEvent(_ context.Context, eventID string, attendedOnly bool) ([]Registration, error) {
	return s.filter(func(r Registration) bool {
		return r.EventID == eventID && (!attendedOnly || r.Attended)
	}), nil
}

func (s *MemoryStore) ListByUser(_ context.Context, userID string) ([]Registration, error) {
	return s.filter(func(r Registration) bool { return r.UserID == userID }), nil
}

func (s *MemoryStore) Count(_ context.Context, eventID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countLocked(eventID), nil
}

// RemoveUser drops every registration of userID once the account is gone.
func (s *MemoryStore) RemoveUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.regs {
		if key.userID == userID {
			delete(s.regs, key)
		}
	}
	return nil
}

func (s *MemoryStore) countLocked(eventID string) int {
	n := 0
	for key := range s.regs {
		if key.eventID == eventID {
			n++
		}
	}
	return n
}

func (s *MemoryStore) filter(keep func(Registration) bool) []Registration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Registration
	for _, r := range s.regs {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RegisteredAt.Equal(out[j].RegisteredAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].RegisteredAt.Before(out[j].RegisteredAt)
	})
	return out
}
