package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"meetix.org/internal/coupons"
	"meetix.org/internal/events"
)

var _ coupons.Store = (*CouponStore)(nil)

type CouponStore struct {
	db *sql.DB
}

func (s *CouponStore) Create(ctx context.Context, c *coupons.Coupon) error {
	_, err := s.db.ExecContext(ctx, `
		insert into coupon(id, code, discount, valid_until, event_id)
		values ($1,$2,$3,$4,$5)
	`, c.ID, c.Code, c.Discount, c.ValidUntil, c.EventID)
	if err != nil {
		switch {
		case isPgCode(err, pgErrUniqueViolation):
			return coupons.ErrDuplicateCoupon
		case isPgCode(err, pgErrForeignKeyViolation):
			return events.ErrEventNotFound
		}
		return err
	}
	return nil
}

func (s *CouponStore) FindByCode(ctx context.Context, code string) (coupons.Coupon, error) {
	var c coupons.Coupon
	err := s.db.QueryRowContext(ctx,
		`select id, code, discount, valid_until, event_id from coupon where code = $1`, code,
	).Scan(&c.ID, &c.Code, &c.Discount, &c.ValidUntil, &c.EventID)
	if errors.Is(err, sql.ErrNoRows) {
		return coupons.Coupon{}, coupons.ErrCouponNotFound
	}
	if err != nil {
		return coupons.Coupon{}, err
	}
	return c, nil
}

func (s *CouponStore) ListValidAfter(ctx context.Context, eventID string, t time.Time) ([]coupons.Coupon, error) {
	if !validID(eventID) {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, code, discount, valid_until, event_id
		from coupon
		where event_id = $1 and valid_until > $2
		order by code
	`, eventID, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []coupons.Coupon
	for rows.Next() {
		var c coupons.Coupon
		if err := rows.Scan(&c.ID, &c.Code, &c.Discount, &c.ValidUntil, &c.EventID); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
