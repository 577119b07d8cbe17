package coupons

import (
	"context"
	"sort"
	"sync"
	"time"
)

var _ Store = (*MemoryStore)(nil)

type MemoryStore struct {
	mu     sync.RWMutex
	byCode map[string]Coupon
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byCode: make(map[string]Coupon)}
}

func (s *MemoryStore) Create(_ context.Context, c *Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byCode[c.Code]; ok {
		return ErrDuplicateCoupon
	}
	s.byCode[c.Code] = *c
	return nil
}

func (s *MemoryStore) FindByCode(_ context.Context, code string) (Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.byCode[code]
	if !ok {
		return Coupon{}, ErrCouponNotFound
	}
	return c, nil
}

func (s *MemoryStore) ListValidAfter(_ context.Context, eventID string, t time.Time) ([]Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Coupon
	for _, c := range s.byCode {
		if c.EventID == eventID && c.ValidUntil.After(t) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}
