package pg

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"meetix.org/internal/admins"
	"meetix.org/internal/auth"
	"meetix.org/internal/events"
)

var _ admins.Store = (*GrantStore)(nil)

type GrantStore struct {
	db *sql.DB
}

const (
	grantColumns = `id, event_id, user_id, invited_by, invited_at, accepted, accepted_at`
	grantEventFK = "event_admin_event_fk"
)

func (s *GrantStore) Create(ctx context.Context, g *admins.Grant) error {
	_, err := s.db.ExecContext(ctx, `
		insert into event_admin(`+grantColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7)
	`, g.ID, g.EventID, g.UserID, g.InvitedBy, g.InvitedAt, g.Accepted, g.AcceptedAt)
	if err != nil {
		switch {
		case isPgCode(err, pgErrUniqueViolation):
			return admins.ErrDuplicateGrant
		case isPgCode(err, pgErrForeignKeyViolation):
			return grantFKError(err)
		}
		return err
	}
	return nil
}

// grantFKError maps a foreign key violation to the missing side: the event for
// event_admin_event_fk, a user account for the invitee and inviter keys.
func grantFKError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.ConstraintName == grantEventFK {
		return events.ErrEventNotFound
	}
	return auth.ErrIdentityNotFound
}

func (s *GrantStore) Find(ctx context.Context, eventID, userID string) (admins.Grant, error) {
	if !validID(eventID) || !validID(userID) {
		return admins.Grant{}, admins.ErrGrantNotFound
	}
	g, err := scanGrant(s.db.QueryRowContext(ctx,
		`select `+grantColumns+` from event_admin where event_id = $1 and user_id = $2`, eventID, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return admins.Grant{}, admins.ErrGrantNotFound
	}
	return g, err
}

func (s *GrantStore) Exists(ctx context.Context, eventID, userID string) (bool, error) {
	return s.exists(ctx, `select exists(select 1 from event_admin where event_id = $1 and user_id = $2)`, eventID, userID)
}

func (s *GrantStore) ExistsAccepted(ctx context.Context, eventID, userID string) (bool, error) {
	return s.exists(ctx, `select exists(select 1 from event_admin where event_id = $1 and user_id = $2 and accepted)`, eventID, userID)
}

// Accept only flips pending rows, so two concurrent accepts cannot both succeed.
func (s *GrantStore) Accept(ctx context.Context, eventID, userID string, at time.Time) error {
	if !validID(eventID) || !validID(userID) {
		return admins.ErrGrantNotFound
	}
	res, err := s.db.ExecContext(ctx, `
		update event_admin set accepted = true, accepted_at = $3
		where event_id = $1 and user_id = $2 and not accepted
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
	exists, err := s.Exists(ctx, eventID, userID)
	if err != nil {
		return err
	}
	if exists {
		return admins.ErrAlreadyAccepted
	}
	return admins.ErrGrantNotFound
}

func (s *GrantStore) Delete(ctx context.Context, eventID, userID string) error {
	if !validID(eventID) || !validID(userID) {
		return admins.ErrGrantNotFound
	}
	res, err := s.db.ExecContext(ctx, `delete from event_admin where event_id = $1 and user_id = $2`, eventID, userID)
	if err != nil {
		return err
	}
	return expectOneRow(res, admins.ErrGrantNotFound)
}

func (s *GrantStore) ListAccepted(ctx context.Context, eventID string) ([]admins.Grant, error) {
	if !validID(eventID) {
		return nil, nil
	}
	return s.query(ctx, `select `+grantColumns+` from event_admin where event_id = $1 and accepted order by id`, eventID)
}

func (s *GrantStore) ListPending(ctx context.Context, userID string) ([]admins.Grant, error) {
	if !validID(userID) {
		return nil, nil
	}
	return s.query(ctx, `select `+grantColumns+` from event_admin where user_id = $1 and not accepted order by id`, userID)
}

func (s *GrantStore) exists(ctx context.Context, query, eventID, userID string) (bool, error) {
	if !validID(eventID) || !validID(userID) {
		return false, nil
	}
	var exists bool
	err := s.db.QueryRowContext(ctx, query, eventID, userID).Scan(&exists)
	return exists, err
}

func (s *GrantStore) query(ctx context.Context, query string, arg string) ([]admins.Grant, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []admins.Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanGrant(row rowScanner) (admins.Grant, error) {
	var (
		g          admins.Grant
		invitedBy  sql.NullString
		acceptedAt sql.NullTime
	)
	if err := row.Scan(&g.ID, &g.EventID, &g.UserID, &invitedBy, &g.InvitedAt, &g.Accepted, &acceptedAt); err != nil {
		return admins.Grant{}, err
	}
	g.InvitedBy = invitedBy.String
	if acceptedAt.Valid {
		t := acceptedAt.Time
		g.AcceptedAt = &t
	}
	return g, nil
}
