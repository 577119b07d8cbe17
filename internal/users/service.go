package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"meetix.org/internal/audit"
	"meetix.org/internal/auth"
)

// Service implements the /users endpoints.
type Service struct {
	store      Store
	events     OrganizerLister
	sessions   SessionIssuer
	dependents []Dependent
	now        func() time.Time
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

// WithDependents registers stores purged when an account is deleted.
func WithDependents(deps ...Dependent) Option {
	return func(s *Service) {
		s.dependents = append(s.dependents, deps...)
	}
}

func NewService(store Store, events OrganizerLister, sessions SessionIssuer, opts ...Option) *Service {
	s := &Service{store: store, events: events, sessions: sessions, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Me returns the acting account.
func (s *Service) Me(ctx context.Context) (Profile, error) {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return Profile{}, err
	}
	return s.Get(ctx, actor.UserID)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, id string) (Profile, error) {
	identity, err := s.store.FindByID(ctx, id)
	if err != nil {
		return Profile{}, err
	}
	return ProfileOf(identity), nil
}

// List returns every account.
func (s *Service) List(ctx context.Context) ([]Profile, error) {
	identities, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Profile, 0, len(identities))
	for _, identity := range identities {
		out = append(out, ProfileOf(identity))
	}
	return out, nil
}

// UpdateMe rewrites the acting account's profile.
func (s *Service) UpdateMe(ctx context.Context, in Update) (UpdateResult, error) {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return UpdateResult{}, err
	}
	in = in.normalized()
	if err := in.Validate(); err != nil {
		return UpdateResult{}, err
	}
	identity, err := s.store.FindByID(ctx, actor.UserID)
	if err != nil {
		return UpdateResult{}, err
	}

	emailChanged := in.Email != identity.Email
	if emailChanged {
		taken, err := s.store.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return UpdateResult{}, err
		}
		if taken {
			return UpdateResult{}, auth.ErrDuplicateIdentity
		}
	}
	if in.Password != "" {
		hash, err := auth.HashPassword(in.Password)
		if err != nil {
			return UpdateResult{}, fmt.Errorf("hash password: %w", err)
		}
		identity.PasswordHash = hash
	}
	identity.FirstName = in.FirstName
	identity.LastName = in.LastName
	identity.Email = in.Email
	identity.Instagram = in.Instagram
	identity.University = in.University
	identity.Course = in.Course
	identity.UpdatedAt = s.now().UTC()

	// A concurrent claim on the same email loses at the store's unique constraint.
	if err := s.store.Update(ctx, &identity); err != nil {
		return UpdateResult{}, err
	}
	_ = audit.LogEvent(ctx, "user.updated", map[string]any{
		"user_id":          identity.ID,
		"email_changed":    emailChanged,
		"password_changed": in.Password != "",
	})

	res := UpdateResult{Profile: ProfileOf(identity)}
	if emailChanged {
		session, err := s.sessions.Reissue(identity)
		if err != nil {
			return UpdateResult{}, err
		}
		res.Session = &session
	}
	return res, nil
}

// DeleteMe removes the acting account. Organizers must delete their events first.
func (s *Service) DeleteMe(ctx context.Context) error {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return err
	}
	organized, err := s.events.ListByOrganizer(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if len(organized) > 0 {
		return fmt.Errorf("%w: %d event(s)", ErrOrganizesEvents, len(organized))
	}
	if err := s.store.Delete(ctx, actor.UserID); err != nil {
		return err
	}
	var errs []error
	for _, d := range s.dependents {
		if err := d.RemoveUser(ctx, actor.UserID); err != nil {
			errs = append(errs, err)
		}
	}
	_ = audit.LogEvent(ctx, "user.deleted", map[string]any{"user_id": actor.UserID})
	return errors.Join(errs...)
}
