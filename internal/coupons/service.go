package coupons

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"meetix.org/internal/audit"
	"meetix.org/internal/events"
)

const ActionCreate = "coupon.create"

// Service issues and checks discount coupons.
type Service struct {
	store Store
	authz events.Authorizer
	now   func() time.Time
}

// Option configures Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(fn func() time.Time) Option {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

func NewService(store Store, authz events.Authorizer, opts ...Option) *Service {
	s := &Service{store: store, authz: authz, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthorizeCreate fails unless the acting identity may issue coupons for eventID.
func (s *Service) AuthorizeCreate(ctx context.Context, eventID string) error {
	return s.authz.RequireOwnerOrAdmin(ctx, eventID, ActionCreate)
}

// Create attaches a new coupon to an event. The organizer and accepted admins may create coupons.
func (s *Service) Create(ctx context.Context, eventID string, in Input) (Coupon, error) {
	if err := s.authz.RequireOwnerOrAdmin(ctx, eventID, ActionCreate); err != nil {
		return Coupon{}, err
	}
	if err := in.Validate(); err != nil {
		return Coupon{}, err
	}
	c := Coupon{
		ID:         uuid.NewString(),
		Code:       strings.TrimSpace(in.Code),
		Discount:   in.Discount,
		ValidUntil: time.UnixMilli(in.Valid).UTC(),
		EventID:    eventID,
	}
	if err := s.store.Create(ctx, &c); err != nil {
		return Coupon{}, err
	}
	_ = audit.LogEvent(ctx, "coupon.created", map[string]any{
		"event_id":  eventID,
		"coupon_id": c.ID,
		"discount":  c.Discount,
	})
	return c, nil
}

// Apply returns the coupon when code is usable for eventID right now.
func (s *Service) Apply(ctx context.Context, req ApplyRequest) (Coupon, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" || strings.TrimSpace(req.EventID) == "" {
		return Coupon{}, fmt.Errorf("%w: code and event id are required", ErrInvalidCoupon)
	}
	c, err := s.store.FindByCode(ctx, code)
	if err != nil {
		return Coupon{}, err
	}
	if c.EventID != req.EventID {
		return Coupon{}, ErrCouponEventMismatch
	}
	if c.ValidUntil.Before(s.now()) {
		return Coupon{}, ErrCouponExpired
	}
	return c, nil
}

// ListValid returns the event's coupons that are still valid.
func (s *Service) ListValid(ctx context.Context, eventID string) ([]Coupon, error) {
	return s.store.ListValidAfter(ctx, eventID, s.now().UTC())
}
