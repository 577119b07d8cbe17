package pg

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"meetix.org/internal/admins"
	"meetix.org/internal/auth"
	"meetix.org/internal/coupons"
	"meetix.org/internal/events"
	"meetix.org/internal/participants"
	"meetix.org/internal/users"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, mock.ExpectationsWereMet())
		db.Close()
	})
	return New(db), mock
}

var identityCols = []string{"id", "first_name", "last_name", "email", "password_hash", "instagram", "university", "course", "created_at", "updated_at"}

func TestIdentityCreateMapsUniqueViolation(t *testing.T) {
	store, mock := newMock(t)
	now := time.Now().UTC()
	identity := &auth.Identity{ID: uuid.NewString(), FirstName: "Ada", LastName: "L", Email: "a@x.com", PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}

	mock.ExpectExec(`insert into user_account`).
		WithArgs(identity.ID, "Ada", "L", "a@x.com", "hash", nil, nil, nil, now, now).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})

	err := store.Identities().Create(context.Background(), identity)
	require.ErrorIs(t, err, auth.ErrDuplicateIdentity)
}

func TestIdentityFindByEmail(t *testing.T) {
	store, mock := newMock(t)
	id := uuid.NewString()
	now := time.Now().UTC()

	mock.ExpectQuery(`select .+ from user_account where email = \$1`).
		WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows(identityCols).
			AddRow(id, "Ada", "Lovelace", "a@x.com", "hash", nil, "Cambridge", nil, now, now))

	identity, err := store.Identities().FindByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.Equal(t, id, identity.ID)
	require.Equal(t, "Cambridge", identity.University)
	require.Empty(t, identity.Instagram)

	mock.ExpectQuery(`select .+ from user_account where email = \$1`).
		WithArgs("A@x.com").
		WillReturnError(sql.ErrNoRows)
	_, err = store.Identities().FindByEmail(context.Background(), "A@x.com")
	require.ErrorIs(t, err, auth.ErrIdentityNotFound)
}

func TestIdentityFindByIDSkipsQueryForGarbage(t *testing.T) {
	store, _ := newMock(t)
	_, err := store.Identities().FindByID(context.Background(), "not-a-uuid")
	require.ErrorIs(t, err, auth.ErrIdentityNotFound)
}

func TestIdentityExistsByEmail(t *testing.T) {
	store, mock := newMock(t)
	mock.ExpectQuery(`select exists`).WithArgs("a@x.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := store.Identities().ExistsByEmail(context.Background(), "a@x.com")
	require.NoError(t, err)
	require.True(t, ok)
}

var eventCols = []string{"id", "event_type", "title", "description", "start_at", "end_at", "location", "img_url", "event_url",
	"remote", "max_attendees", "paid", "price_cents", "organizer_id", "generate_certificate", "created_at", "updated_at"}

func TestIdentityListUpdateDelete(t *testing.T) {
	store, mock := newMock(t)
	id := uuid.NewString()
	now := time.Now().UTC()

	mock.ExpectQuery(`select .+ from user_account order by created_at, id`).
		WillReturnRows(sqlmock.NewRows(identityCols).
			AddRow(id, "Ada", "Lovelace", "a@x.com", "hash", "@ada", nil, nil, now, now))
	list, err := store.Identities().List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "@ada", list[0].Instagram)

	identity := &auth.Identity{ID: id, FirstName: "Ada", LastName: "King", Email: "ada@x.com", PasswordHash: "hash", UpdatedAt: now}
	mock.ExpectExec(`update user_account set`).
		WithArgs(id, "Ada", "King", "ada@x.com", "hash", nil, nil, nil, now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Identities().Update(context.Background(), identity))

	mock.ExpectExec(`update user_account set`).WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})
	require.ErrorIs(t, store.Identities().Update(context.Background(), identity), auth.ErrDuplicateIdentity)

	mock.ExpectExec(`update user_account set`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, store.Identities().Update(context.Background(), identity), auth.ErrIdentityNotFound)

	mock.ExpectExec(`delete from user_account where id = \$1`).WithArgs(id).
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation, ConstraintName: "event_organizer_id_fkey"})
	require.ErrorIs(t, store.Identities().Delete(context.Background(), id), users.ErrOrganizesEvents)

	mock.ExpectExec(`delete from user_account where id = \$1`).WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Identities().Delete(context.Background(), id))

	require.ErrorIs(t, store.Identities().Delete(context.Background(), "garbage"), auth.ErrIdentityNotFound)
}

func TestEventFind(t *testing.T) {
	store, mock := newMock(t)
	id := uuid.NewString()
	organizer := uuid.NewString()
	start := time.Date(2025, 6, 1, 14, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`select .+ from event where id = \$1`).
		WithArgs(id).
		WillReturnRows(sqlmock.NewRows(eventCols).AddRow(
			id, "WORKSHOP", "Go", nil, start, start.Add(time.Hour), "Lab", events.DefaultImageURL, nil,
			false, int64(30), true, int64(1500), organizer, false, start, start))

	e, err := store.Events().Find(context.Background(), id)
	require.NoError(t, err)
	require.Equal(t, events.TypeWorkshop, e.Type)
	require.Equal(t, organizer, e.OrganizerID)
	require.NotNil(t, e.MaxAttendees)
	require.Equal(t, 30, *e.MaxAttendees)
	require.Equal(t, int64(1500), e.PriceCents)

	missing := uuid.NewString()
	mock.ExpectQuery(`select .+ from event where id = \$1`).WithArgs(missing).WillReturnError(sql.ErrNoRows)
	_, err = store.Events().Find(context.Background(), missing)
	require.ErrorIs(t, err, events.ErrEventNotFound)

	_, err = store.Events().Find(context.Background(), "42")
	require.ErrorIs(t, err, events.ErrEventNotFound)
}

func TestEventUpdateAndDeleteReportMissingRows(t *testing.T) {
	store, mock := newMock(t)
	id := uuid.NewString()

	mock.ExpectExec(`update event set`).WillReturnResult(sqlmock.NewResult(0, 0))
	err := store.Events().Update(context.Background(), &events.Event{ID: id, Type: events.TypeParty})
	require.ErrorIs(t, err, events.ErrEventNotFound)

	mock.ExpectExec(`delete from event where id = \$1`).WithArgs(id).WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Events().Delete(context.Background(), id))
}

func TestGrantCreateMapsConstraintViolations(t *testing.T) {
	store, mock := newMock(t)
	g := &admins.Grant{ID: "01HZX3Q8M6Y6ZJ5T0V7K9W2R4D", EventID: uuid.NewString(), UserID: uuid.NewString(), InvitedBy: uuid.NewString(), InvitedAt: time.Now()}

	mock.ExpectExec(`insert into event_admin`).WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})
	require.ErrorIs(t, store.Grants().Create(context.Background(), g), admins.ErrDuplicateGrant)

	mock.ExpectExec(`insert into event_admin`).
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation, ConstraintName: "event_admin_event_fk"})
	require.ErrorIs(t, store.Grants().Create(context.Background(), g), events.ErrEventNotFound)

	mock.ExpectExec(`insert into event_admin`).
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation, ConstraintName: "event_admin_user_fk"})
	err := store.Grants().Create(context.Background(), g)
	require.ErrorIs(t, err, auth.ErrIdentityNotFound)
	require.NotErrorIs(t, err, events.ErrEventNotFound)

	mock.ExpectExec(`insert into event_admin`).
		WillReturnError(&pgconn.PgError{Code: pgErrForeignKeyViolation, ConstraintName: "event_admin_inviter_fk"})
	require.ErrorIs(t, store.Grants().Create(context.Background(), g), auth.ErrIdentityNotFound)

	boom := errors.New("connection reset")
	mock.ExpectExec(`insert into event_admin`).WillReturnError(boom)
	require.ErrorIs(t, store.Grants().Create(context.Background(), g), boom)
}

func TestGrantAccept(t *testing.T) {
	store, mock := newMock(t)
	eventID, userID := uuid.NewString(), uuid.NewString()
	at := time.Now().UTC()

	mock.ExpectExec(`update event_admin set accepted = true`).
		WithArgs(eventID, userID, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Grants().Accept(context.Background(), eventID, userID, at))

	mock.ExpectExec(`update event_admin set accepted = true`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`select exists`).WithArgs(eventID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	require.ErrorIs(t, store.Grants().Accept(context.Background(), eventID, userID, at), admins.ErrAlreadyAccepted)

	mock.ExpectExec(`update event_admin set accepted = true`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`select exists`).WithArgs(eventID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	require.ErrorIs(t, store.Grants().Accept(context.Background(), eventID, userID, at), admins.ErrGrantNotFound)
}

func TestGrantListPending(t *testing.T) {
	store, mock := newMock(t)
	userID := uuid.NewString()
	invitedAt := time.Now().UTC()

	mock.ExpectQuery(`select .+ from event_admin where user_id = \$1 and not accepted`).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_id", "user_id", "invited_by", "invited_at", "accepted", "accepted_at"}).
			AddRow("01HZX3Q8M6Y6ZJ5T0V7K9W2R4D", uuid.NewString(), userID, uuid.NewString(), invitedAt, false, nil).
			AddRow("01HZX3Q8M6Y6ZJ5T0V7K9W2R4E", uuid.NewString(), userID, nil, invitedAt, false, nil))

	grants, err := store.Grants().ListPending(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, grants, 2)
	require.False(t, grants[0].Accepted)
	require.Nil(t, grants[0].AcceptedAt)
	require.Empty(t, grants[1].InvitedBy, "inviter account deleted")
}

func TestGrantDeleteAndExistsWithGarbageIDs(t *testing.T) {
	store, mock := newMock(t)

	ok, err := store.Grants().ExistsAccepted(context.Background(), "nope", uuid.NewString())
	require.NoError(t, err)
	require.False(t, ok)
	require.ErrorIs(t, store.Grants().Delete(context.Background(), uuid.NewString(), "nope"), admins.ErrGrantNotFound)

	eventID, userID := uuid.NewString(), uuid.NewString()
	mock.ExpectExec(`delete from event_admin`).WithArgs(eventID, userID).WillReturnResult(sqlmock.NewResult(0, 0))
	require.ErrorIs(t, store.Grants().Delete(context.Background(), eventID, userID), admins.ErrGrantNotFound)
}

func TestCouponStore(t *testing.T) {
	store, mock := newMock(t)
	eventID := uuid.NewString()
	valid := time.Now().Add(time.Hour).UTC()

	mock.ExpectExec(`insert into coupon`).WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})
	err := store.Coupons().Create(context.Background(), &coupons.Coupon{ID: uuid.NewString(), Code: "EARLY", Discount: 10, ValidUntil: valid, EventID: eventID})
	require.ErrorIs(t, err, coupons.ErrDuplicateCoupon)

	mock.ExpectQuery(`select .+ from coupon where code = \$1`).WithArgs("EARLY").
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "discount", "valid_until", "event_id"}).
			AddRow(uuid.NewString(), "EARLY", 10, valid, eventID))
	c, err := store.Coupons().FindByCode(context.Background(), "EARLY")
	require.NoError(t, err)
	require.Equal(t, eventID, c.EventID)

	mock.ExpectQuery(`select .+ from coupon where code = \$1`).WithArgs("NONE").WillReturnError(sql.ErrNoRows)
	_, err = store.Coupons().FindByCode(context.Background(), "NONE")
	require.ErrorIs(t, err, coupons.ErrCouponNotFound)
}

var participantCols = []string{"id", "event_id", "user_id", "registered_at", "attended", "checked_in_at"}

func TestParticipantRegisterLocksEventAndChecksCapacity(t *testing.T) {
	store, mock := newMock(t)
	eventID, userID := uuid.NewString(), uuid.NewString()
	r := &participants.Registration{ID: uuid.NewString(), EventID: eventID, UserID: userID, RegisteredAt: time.Now().UTC()}
	capacity := 2

	mock.ExpectBegin()
	mock.ExpectQuery(`select id from event where id = \$1 for update`).WithArgs(eventID).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(eventID))
	mock.ExpectQuery(`select exists\(select 1 from event_participant`).WithArgs(eventID, userID).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`select count\(\*\) from event_participant`).WithArgs(eventID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectExec(`insert into event_participant`).
		WithArgs(r.ID, eventID, userID, r.RegisteredAt, false, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	require.NoError(t, store.Participants().Register(context.Background(), r, &capacity))

	mock.ExpectBegin()
	mock.ExpectQuery(`for update`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(eventID))
	mock.ExpectQuery(`select exists`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`select count`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()
	require.ErrorIs(t, store.Participants().Register(context.Background(), r, &capacity), participants.ErrEventFull)

	mock.ExpectBegin()
	mock.ExpectQuery(`for update`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(eventID))
	mock.ExpectQuery(`select exists`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectRollback()
	require.ErrorIs(t, store.Participants().Register(context.Background(), r, &capacity), participants.ErrAlreadyRegistered)

	mock.ExpectBegin()
	mock.ExpectQuery(`for update`).WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()
	require.ErrorIs(t, store.Participants().Register(context.Background(), r, nil), events.ErrEventNotFound)
}

func TestParticipantRegisterWithoutCapacitySkipsCount(t *testing.T) {
	store, mock := newMock(t)
	eventID, userID := uuid.NewString(), uuid.NewString()
	r := &participants.Registration{ID: uuid.NewString(), EventID: eventID, UserID: userID, RegisteredAt: time.Now().UTC()}

	mock.ExpectBegin()
	mock.ExpectQuery(`for update`).WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(eventID))
	mock.ExpectQuery(`select exists`).WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec(`insert into event_participant`).WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})
	mock.ExpectRollback()
	require.ErrorIs(t, store.Participants().Register(context.Background(), r, nil), participants.ErrAlreadyRegistered)
}

func TestParticipantCheckInOnce(t *testing.T) {
	store, mock := newMock(t)
	eventID, userID := uuid.NewString(), uuid.NewString()
	at := time.Now().UTC()

	mock.ExpectExec(`update event_participant set attended = true`).
		WithArgs(eventID, userID, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, store.Participants().CheckIn(context.Background(), eventID, userID, at))

	mock.ExpectExec(`update event_participant set attended = true`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`select .+ from event_participant where event_id = \$1 and user_id = \$2`).
		WillReturnRows(sqlmock.NewRows(participantCols).AddRow(uuid.NewString(), eventID, userID, at, true, at))
	require.ErrorIs(t, store.Participants().CheckIn(context.Background(), eventID, userID, at), participants.ErrAlreadyCheckedIn)

	mock.ExpectExec(`update event_participant set attended = true`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`select .+ from event_participant`).WillReturnError(sql.ErrNoRows)
	require.ErrorIs(t, store.Participants().CheckIn(context.Background(), eventID, userID, at), participants.ErrRegistrationNotFound)
}

func TestParticipantListAttended(t *testing.T) {
	store, mock := newMock(t)
	eventID := uuid.NewString()
	at := time.Now().UTC()

	mock.ExpectQuery(`from event_participant where event_id = \$1 and attended order by registered_at`).
		WithArgs(eventID).
		WillReturnRows(sqlmock.NewRows(participantCols).
			AddRow(uuid.NewString(), eventID, uuid.NewString(), at, true, at))
	list, err := store.Participants().ListByEvent(context.Background(), eventID, true)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].CheckedInAt)

	n, err := store.Participants().Count(context.Background(), "garbage")
	require.NoError(t, err)
	require.Zero(t, n)
}
