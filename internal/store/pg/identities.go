package pg

import (
	"context"
	"database/sql"
	"errors"

	"meetix.org/internal/auth"
	"meetix.org/internal/users"
)

var _ users.Store = (*IdentityStore)(nil)

type IdentityStore struct {
	db *sql.DB
}

const identityColumns = `id, first_name, last_name, email, password_hash, instagram, university, course, created_at, updated_at`

func (s *IdentityStore) Create(ctx context.Context, identity *auth.Identity) error {
	_, err := s.db.ExecContext(ctx, `
		insert into user_account(`+identityColumns+`)
		values ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, identity.ID, identity.FirstName, identity.LastName, identity.Email, identity.PasswordHash,
		nullIfEmpty(identity.Instagram), nullIfEmpty(identity.University), nullIfEmpty(identity.Course),
		identity.CreatedAt, identity.UpdatedAt)
	if err != nil {
		if isPgCode(err, pgErrUniqueViolation) {
			return auth.ErrDuplicateIdentity
		}
		return err
	}
	return nil
}

func (s *IdentityStore) FindByID(ctx context.Context, id string) (auth.Identity, error) {
	if !validID(id) {
		return auth.Identity{}, auth.ErrIdentityNotFound
	}
	return s.findOne(ctx, `select `+identityColumns+` from user_account where id = $1`, id)
}

func (s *IdentityStore) FindByEmail(ctx context.Context, email string) (auth.Identity, error) {
	return s.findOne(ctx, `select `+identityColumns+` from user_account where email = $1`, email)
}

func (s *IdentityStore) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `select exists(select 1 from user_account where email = $1)`, email).Scan(&exists)
	return exists, err
}

func (s *IdentityStore) List(ctx context.Context) ([]auth.Identity, error) {
	rows, err := s.db.QueryContext(ctx, `select `+identityColumns+` from user_account order by created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []auth.Identity
	for rows.Next() {
		identity, err := scanIdentity(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, identity)
	}
	return out, rows.Err()
}

func (s *IdentityStore) Update(ctx context.Context, identity *auth.Identity) error {
	if !validID(identity.ID) {
		return auth.ErrIdentityNotFound
	}
	res, err := s.db.ExecContext(ctx, `
		update user_account set
			first_name = $2, last_name = $3, email = $4, password_hash = $5,
			instagram = $6, university = $7, course = $8, updated_at = $9
		where id = $1
	`, identity.ID, identity.FirstName, identity.LastName, identity.Email, identity.PasswordHash,
		nullIfEmpty(identity.Instagram), nullIfEmpty(identity.University), nullIfEmpty(identity.Course),
		identity.UpdatedAt)
	if err != nil {
		if isPgCode(err, pgErrUniqueViolation) {
			return auth.ErrDuplicateIdentity
		}
		return err
	}
	return expectOneRow(res, auth.ErrIdentityNotFound)
}

// Delete removes an account. Admin grants and registrations cascade; an account
// still referenced as an event organizer is refused.
func (s *IdentityStore) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return auth.ErrIdentityNotFound
	}
	res, err := s.db.ExecContext(ctx, `delete from user_account where id = $1`, id)
	if err != nil {
		if isPgCode(err, pgErrForeignKeyViolation) {
			return users.ErrOrganizesEvents
		}
		return err
	}
	return expectOneRow(res, auth.ErrIdentityNotFound)
}

func (s *IdentityStore) findOne(ctx context.Context, query string, arg string) (auth.Identity, error) {
	identity, err := scanIdentity(s.db.QueryRowContext(ctx, query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return auth.Identity{}, auth.ErrIdentityNotFound
	}
	return identity, err
}

func scanIdentity(row rowScanner) (auth.Identity, error) {
	var (
		identity                      auth.Identity
		instagram, university, course sql.NullString
	)
	if err := row.Scan(
		&identity.ID, &identity.FirstName, &identity.LastName, &identity.Email, &identity.PasswordHash,
		&instagram, &university, &course, &identity.CreatedAt, &identity.UpdatedAt,
	); err != nil {
		return auth.Identity{}, err
	}
	identity.Instagram = instagram.String
	identity.University = university.String
	identity.Course = course.String
	return identity, nil
}
