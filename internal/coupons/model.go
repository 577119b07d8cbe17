package coupons

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrCouponNotFound      = errors.New("coupons: coupon not found")
	ErrCouponEventMismatch = errors.New("coupons: coupon is not valid for this event")
	ErrCouponExpired       = errors.New("coupons: coupon expired")
	ErrDuplicateCoupon     = errors.New("coupons: code already in use")
	ErrInvalidCoupon       = errors.New("coupons: invalid coupon")
)

const (
	minCodeLength = 3
	maxCodeLength = 50
	minDiscount   = 1
	maxDiscount   = 100
)

// Coupon grants a percentage discount on one event until ValidUntil.
type Coupon struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Discount   int       `json:"discount"`
	ValidUntil time.Time `json:"valid"`
	EventID    string    `json:"eventId"`
}

// Input is a coupon creation request. Valid is a Unix timestamp in milliseconds.
type Input struct {
	Code     string `json:"code"`
	Discount int    `json:"discount"`
	Valid    int64  `json:"valid"`
}

func (in Input) Validate() error {
	code := strings.TrimSpace(in.Code)
	switch {
	case len([]rune(code)) < minCodeLength || len([]rune(code)) > maxCodeLength:
		return fmt.Errorf("%w: code must have between %d and %d characters", ErrInvalidCoupon, minCodeLength, maxCodeLength)
	case in.Discount < minDiscount || in.Discount > maxDiscount:
		return fmt.Errorf("%w: discount must be between %d and %d", ErrInvalidCoupon, minDiscount, maxDiscount)
	case in.Valid <= 0:
		return fmt.Errorf("%w: validity date is required", ErrInvalidCoupon)
	}
	return nil
}

// ApplyRequest asks whether a code may be used for an event.
type ApplyRequest struct {
	Code    string `json:"code"`
	EventID string `json:"eventId"`
}
