package auth

import (
	"context"
	"sort"
	"sync"
)

var _ IdentityStore = (*MemoryIdentityStore)(nil)

// MemoryIdentityStore keeps identities in process memory. Used when no database is configured and in tests.
type MemoryIdentityStore struct {
	mu      sync.RWMutex
	byID    map[string]Identity
	byEmail map[string]string
}

func NewMemoryIdentityStore() *MemoryIdentityStore {
	return &MemoryIdentityStore{
		byID:    make(map[string]Identity),
		byEmail: make(map[string]string),
	}
}

func (s *MemoryIdentityStore) Create(_ context.Context, identity *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byEmail[identity.Email]; ok {
		return ErrDuplicateIdentity
	}
	if _, ok := s.byID[identity.ID]; ok {
		return ErrDuplicateIdentity
	}
	s.byID[identity.ID] = *identity
	s.byEmail[identity.Email] = identity.ID
	return nil
}

func (s *MemoryIdentityStore) FindByID(_ context.Context, id string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	identity, ok := s.byID[id]
	if !ok {
		return Identity{}, ErrIdentityNotFound
	}
	return identity, nil
}

func (s *MemoryIdentityStore) FindByEmail(_ context.Context, email string) (Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[email]
	if !ok {
		return Identity{}, ErrIdentityNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryIdentityStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byEmail[email]
	return ok, nil
}

// List returns every identity ordered by creation time.
func (s *MemoryIdentityStore) List(_ context.Context) ([]Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Identity, 0, len(s.byID))
	for _, identity := range s.byID {
		out = append(out, identity)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Update replaces a stored identity. Moving to an email held by another identity
// yields ErrDuplicateIdentity.
func (s *MemoryIdentityStore) Update(_ context.Context, identity *Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byID[identity.ID]
	if !ok {
		return ErrIdentityNotFound
	}
	if owner, taken := s.byEmail[identity.Email]; taken && owner != identity.ID {
		return ErrDuplicateIdentity
	}
	delete(s.byEmail, current.Email)
	s.byID[identity.ID] = *identity
	s.byEmail[identity.Email] = identity.ID
	return nil
}

// Delete removes an identity. Tokens issued for it stop authenticating.
func (s *MemoryIdentityStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	identity, ok := s.byID[id]
	if !ok {
		return ErrIdentityNotFound
	}
	delete(s.byID, id)
	delete(s.byEmail, identity.Email)
	return nil
}
