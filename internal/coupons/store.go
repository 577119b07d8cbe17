package coupons

import (
	"context"
	"time"
)

// Store persists coupons. Codes are unique: Create reports a reused code as ErrDuplicateCoupon.
type Store interface {
	Create(ctx context.Context, c *Coupon) error
	FindByCode(ctx context.Context, code string) (Coupon, error)
	ListValidAfter(ctx context.Context, eventID string, t time.Time) ([]Coupon, error)
}
