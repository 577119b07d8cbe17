package admins

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

type grantKey struct{ eventID, userID string }

// MemoryStore keeps grants in process memory with the same uniqueness rule as the database.
type MemoryStore struct {
	mu     sync.RWMutex
	grants map[grantKey]Grant
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{grants: make(map[grantKey]Grant)}
}

func (s *MemoryStore) Create(_ context.Context, g *Grant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := grantKey{g.EventID, g.UserID}
	if _, ok := s.grants[key]; ok {
		return ErrDuplicateGrant
	}
	s.grants[key] = *g
	return nil
}

func (s *MemoryStore) Find(_ context.Context, eventID, userID string) (Grant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[grantKey{eventID, userID}]
	if !ok {
		return Grant{}, ErrGrantNotFound
	}
	return g, nil
}

func (s *MemoryStore) Exists(_ context.Context, eventID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.grants[grantKey{eventID, userID}]
	return ok, nil
}

func (s *MemoryStore) ExistsAccepted(_ context.Context, eventID, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.grants[grantKey{eventID, userID}]
	return ok && g.Accepted, nil
}

func (s *MemoryStore) Accept(_ context.Context, eventID, userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := grantKey{eventID, userID}
	g, ok := s.grants[key]
	if !ok {
		return ErrGrantNotFound
	}
	if g.Accepted {
		return ErrAlreadyAccepted
	}
	g.Accepted = true
	g.AcceptedAt = &at
	s.grants[key] = g
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, eventID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := grantKey{eventID, userID}
	if _, ok := s.grants[key]; !ok {
		return ErrGrantNotFound
	}
	delete(s.grants, key)
	return nil
}

func (s *MemoryStore) ListAccepted(_ context.Context, eventID string) ([]Grant, error) {
	return s.filter(func(g Grant) bool { return g.EventID == eventID && g.Accepted }), nil
}

func (s *MemoryStore) ListPending(_ context.Context, userID string) ([]Grant, error) {
	return s.filter(func(g Grant) bool { return g.UserID == userID && !g.Accepted }), nil
}

// RemoveUser drops the grants held by a deleted account.
func (s *MemoryStore) RemoveUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.grants {
		if key.userID == userID {
			delete(s.grants, key)
		}
	}
	return nil
}

func (s *MemoryStore) filter(keep func(Grant) bool) []Grant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Grant
	for _, g := range s.grants {
		if keep(g) {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
