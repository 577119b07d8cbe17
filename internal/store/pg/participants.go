package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"meetix.org/internal/auth"
	"meetix.org/internal/events"
	"meetix.org/internal/participants"
)

var _ participants.Store = (*ParticipantStore)(nil)

type ParticipantStore struct {
	db *sql.DB
}

const participantColumns = `id, event_id, user_id, registered_at, attended, checked_in_at`

// Register locks the event row, so concurrent registrations for one event
// queue behind each other and the seat count cannot be overrun.
func (s *ParticipantStore) Register(ctx context.Context, r *participants.Registration, capacity *int) error {
	if !validID(r.EventID) {
		return events.ErrEventNotFound
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	var locked string
	err = tx.QueryRowContext(ctx, `select id from event where id = $1 for update`, r.EventID).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return events.ErrEventNotFound
	}
	if err != nil {
		return err
	}

	var registered bool
	if err := tx.QueryRowContext(ctx,
		`select exists(select 1 from event_participant where event_id = $1 and user_id = $2)`,
		r.EventID, r.UserID).Scan(&registered); err != nil {
		return err
	}
	if registered {
		return participants.ErrAlreadyRegistered
	}
	if capacity != nil {
		var n int
		if err := tx.QueryRowContext(ctx,
			`select count(*) from event_participant where event_id = $1`, r.EventID).Scan(&n); err != nil {
			return err
		}
		if n >= *capacity {
			return participants.ErrEventFull
		}
	}

	_, err = tx.ExecContext(ctx, `
		insert into event_participant(`+participantColumns+`)
		values ($1,$2,$3,$4,$5,$6)
	`, r.ID, r.EventID, r.UserID, r.RegisteredAt, r.Attended, r.CheckedInAt)
	if err != nil {
		switch {
		case isPgCode(err, pgErrUniqueViolation):
			return participants.ErrAlreadyRegistered
		case isPgCode(err, pgErrForeignKeyViolation):
			return auth.ErrIdentityNotFound
		}
		return err
	}
	return tx.Commit()
}

func (s *ParticipantStore) Find(ctx context.Context, eventID, userID string) (participants.Registration, error) {
	if !validID(eventID) || !validID(userID) {
		return participants.Registration{}, participants.ErrRegistrationNotFound
	}
	r, err := scanRegistration(s.db.QueryRowContext(ctx,
		`select `+participantColumns+` from event_participant where event_id = $1 and user_id = $2`, eventID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return participants.Registration{}, participants.ErrRegistrationNotFound
	}
	return r, err
}

func (s *ParticipantStore) Delete(ctx context.Context, eventID, userID string) error {
	if !validID(eventID) || !validID(userID) {
		return participants.ErrRegistrationNotFound
	}
	res, err := s.db.ExecContext(ctx, `delete from event_participant where event_id = $1 and user_id = $2`, eventID, userID)
	if err != nil {
		return err
	}
	return expectOneRow(res, participants.ErrRegistrationNotFound)
}

// CheckIn only flips rows not yet attended, so a repeat check-in updates nothing.
func (s *ParticipantStore) CheckIn(ctx context.Context, eventID, userID string, at time.Time) error {
	if !validID(eventID) || !validID(userID) {
		return participants.ErrRegistrationNotFound
	}
	res, err := s.db.ExecContext(ctx, `
		update event_participant set attended = true, checked_in_at = $3
		where event_id = $1 and user_id = $2 and not attended
	`, eventID, userID, at)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	if _, err := s.Find(ctx, eventID, userID); err != nil {
		return err
	}
	return participants.ErrAlreadyCheckedIn
}

func (s *ParticipantStore) ListByEvent(ctx context.Context, eventID string, attendedOnly bool) ([]participants.Registration, error) {
	if !validID(eventID) {
		return nil, nil
	}
	query := `select ` + participantColumns + ` from event_participant where event_id = $1`
	if attendedOnly {
		query += ` and attended`
	}
	return s.query(ctx, query+` order by registered_at, id`, eventID)
}

func (s *ParticipantStore) ListByUser(ctx context.Context, userID string) ([]participants.Registration, error) {
	if !validID(userID) {
		return nil, nil
	}
	return s.query(ctx, `select `+participantColumns+` from event_participant where user_id = $1 order by registered_at, id`, userID)
}

func (s *ParticipantStore) Count(ctx context.Context, eventID string) (int, error) {
	if !validID(eventID) {
		return 0, nil
	}
	var n int
	err := s.db.QueryRowContext(ctx, `select count(*) from event_participant where event_id = $1`, eventID).Scan(&n)
	return n, err
}

func (s *ParticipantStore) query(ctx context.Context, query, arg string) ([]participants.Registration, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []participants.Registration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanRegistration(row rowScanner) (participants.Registration, error) {
	var (
		r           participants.Registration
		checkedInAt sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.EventID, &r.UserID, &r.RegisteredAt, &r.Attended, &checkedInAt); err != nil {
		return participants.Registration{}, err
	}
	if checkedInAt.Valid {
		t := checkedInAt.Time
		r.CheckedInAt = &t
	}
	return r, nil
}
