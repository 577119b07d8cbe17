package participants

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"meetix.org/internal/audit"
	"meetix.org/internal/auth"
	"meetix.org/internal/events"
	"meetix.org/internal/obs"
)

const (
	ActionList    = "participants.list"
	ActionCheckIn = "participants.check_in"
	ActionCancel  = "participants.cancel"
	ActionInspect = "participants.inspect"
)

// Service runs registrations. Users act for themselves; event organizers and
// accepted admins may additionally list, check in and cancel attendees.
type Service struct {
	store      Store
	events     EventFinder
	identities IdentityFinder
	authz      events.Authorizer
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

func NewService(store Store, eventFinder EventFinder, identities IdentityFinder, authz events.Authorizer, opts ...Option) *Service {
	s := &Service{store: store, events: eventFinder, identities: identities, authz: authz, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register enrolls the caller in an event while seats remain.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (View, error) {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return View{}, err
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		userID = actor.UserID
	}
	if userID != actor.UserID {
		return View{}, fmt.Errorf("%w: users register themselves", auth.ErrPermissionDenied)
	}
	ev, err := s.events.Find(ctx, req.EventID)
	if err != nil {
		return View{}, err
	}
	user, err := s.identities.FindByID(ctx, userID)
	if err != nil {
		return View{}, err
	}

	r := Registration{
		ID:           uuid.NewString(),
		EventID:      ev.ID,
		UserID:       user.ID,
		RegisteredAt: s.now().UTC(),
	}
	if err := s.store.Register(ctx, &r, ev.MaxAttendees); err != nil {
		switch {
		case errors.Is(err, ErrAlreadyRegistered):
			obs.RegistrationAttempted("duplicate")
		case errors.Is(err, ErrEventFull):
			obs.RegistrationAttempted("full")
		}
		return View{}, err
	}
	obs.RegistrationAttempted("registered")
	_ = audit.LogEvent(ctx, "participant.registered", map[string]any{
		"event_id": ev.ID,
		"user_id":  user.ID,
	})
	return viewOf(r, ev, user), nil
}

// Cancel withdraws a registration. Users cancel their own; organizers and
// admins may cancel anyone's.
func (s *Service) Cancel(ctx context.Context, eventID, userID string) error {
	userID, err := s.subject(ctx, eventID, userID, ActionCancel)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, eventID, userID); err != nil {
		return err
	}
	_ = audit.LogEvent(ctx, "participant.cancelled", map[string]any{
		"event_id": eventID,
		"user_id":  userID,
	})
	return nil
}

// CheckIn records attendance, at most once per registration.
func (s *Service) CheckIn(ctx context.Context, eventID, userID string) (View, error) {
	if err := s.authz.RequireOwnerOrAdmin(ctx, eventID, ActionCheckIn); err != nil {
		return View{}, err
	}
	if err := s.store.CheckIn(ctx, eventID, userID, s.now().UTC()); err != nil {
		return View{}, err
	}
	r, err := s.store.Find(ctx, eventID, userID)
	if err != nil {
		return View{}, err
	}
	_ = audit.LogEvent(ctx, "participant.checked_in", map[string]any{
		"event_id": eventID,
		"user_id":  userID,
	})
	ev, err := s.events.Find(ctx, eventID)
	if err != nil {
		return View{}, err
	}
	user, err := s.identities.FindByID(ctx, userID)
	if err != nil && !errors.Is(err, auth.ErrIdentityNotFound) {
		return View{}, err
	}
	return viewOf(r, ev, user), nil
}

// ListByEvent returns an event's registrations for its organizer and admins.
func (s *Service) ListByEvent(ctx context.Context, eventID string) ([]View, error) {
	return s.listByEvent(ctx, eventID, false)
}

// ListAttended is ListByEvent restricted to checked-in participants.
func (s *Service) ListAttended(ctx context.Context, eventID string) ([]View, error) {
	return s.listByEvent(ctx, eventID, true)
}

func (s *Service) listByEvent(ctx context.Context, eventID string, attendedOnly bool) ([]View, error) {
	if err := s.authz.RequireOwnerOrAdmin(ctx, eventID, ActionList); err != nil {
		return nil, err
	}
	regs, err := s.store.ListByEvent(ctx, eventID, attendedOnly)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, regs)
}

// ListByUser returns the caller's own registrations.
func (s *Service) ListByUser(ctx context.Context, userID string) ([]View, error) {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	if userID != actor.UserID {
		return nil, fmt.Errorf("%w: registrations of another user", auth.ErrPermissionDenied)
	}
	regs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, regs)
}

// IsRegistered reports whether userID (the caller when empty) is registered.
// Asking about someone else requires organizer or admin rights.
func (s *Service) IsRegistered(ctx context.Context, eventID, userID string) (bool, error) {
	userID, err := s.subject(ctx, eventID, userID, ActionInspect)
	if err != nil {
		return false, err
	}
	_, err = s.store.Find(ctx, eventID, userID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrRegistrationNotFound):
		return false, nil
	}
	return false, err
}

// Count returns the number of registrations of an existing event.
func (s *Service) Count(ctx context.Context, eventID string) (int, error) {
	if _, err := s.events.Find(ctx, eventID); err != nil {
		return 0, err
	}
	return s.store.Count(ctx, eventID)
}

// subject resolves whose registration a request is about. Acting on another
// user needs owner or admin rights on the event.
func (s *Service) subject(ctx context.Context, eventID, userID, action string) (string, error) {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return "", err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" || userID == actor.UserID {
		return actor.UserID, nil
	}
	if err := s.authz.RequireOwnerOrAdmin(ctx, eventID, action); err != nil {
		return "", err
	}
	return userID, nil
}

func (s *Service) views(ctx context.Context, regs []Registration) ([]View, error) {
	out := make([]View, 0, len(regs))
	seen := make(map[string]events.Event)
	for _, r := range regs {
		ev, ok := seen[r.EventID]
		if !ok {
			var err error
			ev, err = s.events.Find(ctx, r.EventID)
			if errors.Is(err, events.ErrEventNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			seen[r.EventID] = ev
		}
		user, err := s.identities.FindByID(ctx, r.UserID)
		if err != nil && !errors.Is(err, auth.ErrIdentityNotFound) {
			return nil, err
		}
		out = append(out, viewOf(r, ev, user))
	}
	return out, nil
}

func viewOf(r Registration, ev events.Event, user auth.Identity) View {
	return View{
		ID:         r.ID,
		EventID:    r.EventID,
		EventTitle: ev.Title,
		Participant: Participant{
			ID:         r.UserID,
			FirstName:  user.FirstName,
			LastName:   user.LastName,
			Email:      user.Email,
			Instagram:  user.Instagram,
			University: user.University,
		},
		RegistrationDate: r.RegisteredAt,
		Attended:         r.Attended,
		CheckedInAt:      r.CheckedInAt,
	}
}
