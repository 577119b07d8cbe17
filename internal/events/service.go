package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"meetix.org/internal/auth"
)

const (
	ActionUpdate = "event.update"
	ActionDelete = "event.delete"
)

// Service implements event CRUD on top of a Store, gated by an Authorizer.
type Service struct {
	store      Store
	identities IdentityFinder
	authz      Authorizer
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

func NewService(store Store, identities IdentityFinder, authz Authorizer, opts ...Option) *Service {
	s := &Service{store: store, identities: identities, authz: authz, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new event organized by the acting identity.
func (s *Service) Create(ctx context.Context, in Input) (Event, error) {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return Event{}, err
	}
	in = in.normalized()
	if err := in.Validate(); err != nil {
		return Event{}, err
	}
	now := s.now().UTC()
	e := Event{
		ID:          uuid.NewString(),
		OrganizerID: actor.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	e.apply(in)
	if err := s.store.Create(ctx, &e); err != nil {
		return Event{}, fmt.Errorf("create event: %w", err)
	}
	return e, nil
}

// Get returns one event.
func (s *Service) Get(ctx context.Context, id string) (Event, error) {
	return s.store.Find(ctx, id)
}

// List returns every event ordered by start time.
func (s *Service) List(ctx context.Context) ([]Event, error) {
	return s.store.List(ctx)
}

// ListByOrganizer returns the events of one organizer, who must exist.
func (s *Service) ListByOrganizer(ctx context.Context, organizerID string) ([]Event, error) {
	if _, err := s.identities.FindByID(ctx, organizerID); err != nil {
		return nil, err
	}
	return s.store.ListByOrganizer(ctx, organizerID)
}

// ListUpcoming returns events that have not started yet.
func (s *Service) ListUpcoming(ctx context.Context) ([]Event, error) {
	return s.store.ListStartingAfter(ctx, s.now().UTC())
}

// AuthorizeUpdate fails unless the acting identity may update the event.
func (s *Service) AuthorizeUpdate(ctx context.Context, id string) error {
	return s.authz.RequireOwnerOrAdmin(ctx, id, ActionUpdate)
}

// Update rewrites an event. The organizer or an accepted admin may update; the organizer never changes.
func (s *Service) Update(ctx context.Context, id string, in Input) (Event, error) {
	if err := s.authz.RequireOwnerOrAdmin(ctx, id, ActionUpdate); err != nil {
		return Event{}, err
	}
	in = in.normalized()
	if err := in.Validate(); err != nil {
		return Event{}, err
	}
	e, err := s.store.Find(ctx, id)
	if err != nil {
		return Event{}, err
	}
	e.apply(in)
	e.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, &e); err != nil {
		if errors.Is(err, ErrEventNotFound) {
			return Event{}, err
		}
		return Event{}, fmt.Errorf("update event: %w", err)
	}
	return e, nil
}

// Delete removes an event. Only its organizer may delete it.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.authz.RequireOrganizer(ctx, id, ActionDelete); err != nil {
		return err
	}
	return s.store.Delete(ctx, id)
}
