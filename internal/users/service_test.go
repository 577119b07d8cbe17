package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"meetix.org/internal/auth"
	"meetix.org/internal/events"
)

var now = time.Date(2025, 5, 2, 9, 0, 0, 0, time.UTC)

type recordingDependent struct{ removed []string }

func (d *recordingDependent) RemoveUser(_ context.Context, userID string) error {
	d.removed = append(d.removed, userID)
	return nil
}

type fixture struct {
	svc       *Service
	store     *auth.MemoryIdentityStore
	events    *events.MemoryStore
	auth      *auth.Service
	dependent *recordingDependent
	ada       auth.Identity
	ctx       context.Context
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := auth.NewMemoryIdentityStore()
	codec, err := auth.NewCodec([]byte("0123456789abcdef0123456789abcdef"))
	require.NoError(t, err)
	authSvc, err := auth.NewService(store, codec)
	require.NoError(t, err)

	hash, err := auth.HashPassword("analytical")
	require.NoError(t, err)
	ada := auth.Identity{ID: "u-ada", FirstName: "Ada", LastName: "Lovelace", Email: "a@x.com", PasswordHash: hash, CreatedAt: now, UpdatedAt: now}
	bob := auth.Identity{ID: "u-bob", FirstName: "Bob", LastName: "B", Email: "b@x.com", PasswordHash: hash, CreatedAt: now.Add(time.Minute), UpdatedAt: now}
	require.NoError(t, store.Create(context.Background(), &ada))
	require.NoError(t, store.Create(context.Background(), &bob))

	eventStore := events.NewMemoryStore()
	dep := &recordingDependent{}
	svc := NewService(store, eventStore, authSvc,
		WithClock(func() time.Time { return now.Add(time.Hour) }),
		WithDependents(dep))
	return fixture{
		svc:       svc,
		store:     store,
		events:    eventStore,
		auth:      authSvc,
		dependent: dep,
		ada:       ada,
		ctx:       auth.ContextWithIdentity(context.Background(), ada.Summary()),
	}
}

func TestMeAndList(t *testing.T) {
	f := newFixture(t)

	me, err := f.svc.Me(f.ctx)
	require.NoError(t, err)
	require.Equal(t, "u-ada", me.ID)
	require.Equal(t, "Lovelace", me.LastName)

	_, err = f.svc.Me(context.Background())
	require.ErrorIs(t, err, auth.ErrNotAuthenticated)

	all, err := f.svc.List(f.ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "u-ada", all[0].ID)

	_, err = f.svc.Get(f.ctx, "u-nobody")
	require.ErrorIs(t, err, auth.ErrIdentityNotFound)
}

func TestUpdateMeKeepsPasswordWhenOmitted(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.UpdateMe(f.ctx, Update{FirstName: " Augusta ", LastName: "King", Email: "a@x.com", University: "London"})
	require.NoError(t, err)
	require.Nil(t, res.Session, "email unchanged, token still valid")
	require.Equal(t, "Augusta", res.Profile.FirstName)
	require.Equal(t, "London", res.Profile.University)
	require.True(t, res.Profile.UpdatedAt.Equal(now.Add(time.Hour)))

	stored, err := f.store.FindByID(context.Background(), "u-ada")
	require.NoError(t, err)
	require.True(t, auth.VerifyPassword("analytical", stored.PasswordHash))
}

func TestUpdateMeChangesPassword(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateMe(f.ctx, Update{FirstName: "Ada", LastName: "Lovelace", Email: "a@x.com", Password: "123"})
	require.ErrorIs(t, err, auth.ErrInvalidInput)

	_, err = f.svc.UpdateMe(f.ctx, Update{FirstName: "Ada", LastName: "Lovelace", Email: "a@x.com", Password: "difference-engine"})
	require.NoError(t, err)
	_, err = f.auth.Login(context.Background(), "a@x.com", "analytical")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	_, err = f.auth.Login(context.Background(), "a@x.com", "difference-engine")
	require.NoError(t, err)
}

func TestUpdateMeEmailChangeReissuesSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.UpdateMe(f.ctx, Update{FirstName: "Ada", LastName: "Lovelace", Email: "b@x.com"})
	require.ErrorIs(t, err, auth.ErrDuplicateIdentity)

	_, err = f.svc.UpdateMe(f.ctx, Update{FirstName: "Ada", LastName: "Lovelace", Email: "not-an-email"})
	require.ErrorIs(t, err, auth.ErrInvalidInput)

	res, err := f.svc.UpdateMe(f.ctx, Update{FirstName: "Ada", LastName: "Lovelace", Email: "ada@engine.org"})
	require.NoError(t, err)
	require.NotNil(t, res.Session)
	require.Equal(t, "ada@engine.org", res.Session.Identity.Email)

	summary, err := f.auth.Authenticate(context.Background(), res.Session.Token)
	require.NoError(t, err)
	require.Equal(t, "u-ada", summary.UserID)
}

func TestDeleteMe(t *testing.T) {
	f := newFixture(t)

	ev := events.Event{ID: "ev-1", OrganizerID: "u-ada", Start: now, End: now.Add(time.Hour)}
	require.NoError(t, f.events.Create(context.Background(), &ev))
	require.ErrorIs(t, f.svc.DeleteMe(f.ctx), ErrOrganizesEvents)

	require.NoError(t, f.events.Delete(context.Background(), "ev-1"))
	require.NoError(t, f.svc.DeleteMe(f.ctx))
	require.Equal(t, []string{"u-ada"}, f.dependent.removed)

	_, err := f.store.FindByID(context.Background(), "u-ada")
	require.ErrorIs(t, err, auth.ErrIdentityNotFound)
	require.ErrorIs(t, f.svc.DeleteMe(f.ctx), auth.ErrIdentityNotFound)
}
