package admins

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"meetix.org/internal/audit"
	"meetix.org/internal/auth"
	"meetix.org/internal/events"
	"meetix.org/internal/ids"
)

const (
	ActionInvite = "admin.invite"
	ActionRemove = "admin.remove"
)

// IdentityFinder resolves grantees and inviters.
type IdentityFinder interface {
	FindByID(ctx context.Context, id string) (auth.Identity, error)
	FindByEmail(ctx context.Context, email string) (auth.Identity, error)
}

// EventFinder resolves events. Missing events yield events.ErrEventNotFound.
type EventFinder interface {
	Find(ctx context.Context, id string) (events.Event, error)
}

// Service manages the admin grant lifecycle of events.
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
	s := &Service{
		store:      store,
		events:     eventFinder,
		identities: identities,
		authz:      authz,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AuthorizeInvite fails unless the acting identity may invite admins to eventID.
func (s *Service) AuthorizeInvite(ctx context.Context, eventID string) error {
	return s.authz.RequireOwnerOrAdmin(ctx, eventID, ActionInvite)
}

// Invite creates a pending grant for the identity registered under email.
// The organizer and accepted admins may invite.
func (s *Service) Invite(ctx context.Context, eventID, email string) (GrantView, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return GrantView{}, fmt.Errorf("%w: email is required", ErrInvalidInvite)
	}
	if err := s.authz.RequireOwnerOrAdmin(ctx, eventID, ActionInvite); err != nil {
		return GrantView{}, err
	}
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return GrantView{}, err
	}
	ev, err := s.events.Find(ctx, eventID)
	if err != nil {
		return GrantView{}, err
	}
	invitee, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		return GrantView{}, err
	}
	if invitee.ID == ev.OrganizerID {
		return GrantView{}, ErrSelfInvite
	}
	exists, err := s.store.Exists(ctx, eventID, invitee.ID)
	if err != nil {
		return GrantView{}, err
	}
	if exists {
		return GrantView{}, ErrDuplicateGrant
	}

	g := Grant{
		ID:        ids.New(),
		EventID:   eventID,
		UserID:    invitee.ID,
		InvitedBy: actor.UserID,
		InvitedAt: s.now().UTC(),
	}
	// Concurrent invites of the same identity race to here; the store's uniqueness decides.
	if err := s.store.Create(ctx, &g); err != nil {
		return GrantView{}, err
	}
	_ = audit.LogEvent(ctx, "admin.invited", map[string]any{
		"event_id":   eventID,
		"grantee_id": invitee.ID,
		"grant_id":   g.ID,
	})
	return s.view(ctx, g)
}

// Accept turns the acting identity's pending grant into an accepted one.
func (s *Service) Accept(ctx context.Context, eventID string) (GrantView, error) {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return GrantView{}, err
	}
	g, err := s.store.Find(ctx, eventID, actor.UserID)
	if err != nil {
		return GrantView{}, err
	}
	if g.Accepted {
		return GrantView{}, ErrAlreadyAccepted
	}
	at := s.now().UTC()
	if err := s.store.Accept(ctx, eventID, actor.UserID, at); err != nil {
		return GrantView{}, err
	}
	g.Accepted = true
	g.AcceptedAt = &at
	_ = audit.LogEvent(ctx, "admin.accepted", map[string]any{"event_id": eventID, "grant_id": g.ID})
	return s.view(ctx, g)
}

// Decline deletes the acting identity's grant, pending or accepted.
func (s *Service) Decline(ctx context.Context, eventID string) error {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return err
	}
	if err := s.store.Delete(ctx, eventID, actor.UserID); err != nil {
		return err
	}
	_ = audit.LogEvent(ctx, "admin.declined", map[string]any{"event_id": eventID})
	return nil
}

// Remove revokes another identity's grant. Only the organizer may remove admins.
func (s *Service) Remove(ctx context.Context, eventID, adminUserID string) error {
	if err := s.authz.RequireOrganizer(ctx, eventID, ActionRemove); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, eventID, adminUserID); err != nil {
		return err
	}
	_ = audit.LogEvent(ctx, "admin.removed", map[string]any{
		"event_id":   eventID,
		"grantee_id": adminUserID,
	})
	return nil
}

// ListAdmins returns the accepted grants of an existing event.
func (s *Service) ListAdmins(ctx context.Context, eventID string) ([]GrantView, error) {
	if _, err := s.events.Find(ctx, eventID); err != nil {
		return nil, err
	}
	grants, err := s.store.ListAccepted(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.views(ctx, grants)
}

// ListPending returns the invitations the acting identity has not answered yet.
func (s *Service) ListPending(ctx context.Context) ([]GrantView, error) {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return nil, err
	}
	grants, err := s.store.ListPending(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	// Grants outlive their event only in stores without a cascading foreign key.
	live := grants[:0]
	for _, g := range grants {
		if _, err := s.events.Find(ctx, g.EventID); err != nil {
			if errors.Is(err, events.ErrEventNotFound) {
				continue
			}
			return nil, err
		}
		live = append(live, g)
	}
	return s.views(ctx, live)
}

func (s *Service) views(ctx context.Context, grants []Grant) ([]GrantView, error) {
	out := make([]GrantView, 0, len(grants))
	for _, g := range grants {
		v, err := s.view(ctx, g)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) view(ctx context.Context, g Grant) (GrantView, error) {
	v := GrantView{
		ID:         g.ID,
		EventID:    g.EventID,
		UserID:     g.UserID,
		InvitedBy:  g.InvitedBy,
		InvitedAt:  g.InvitedAt,
		Accepted:   g.Accepted,
		AcceptedAt: g.AcceptedAt,
	}
	grantee, err := s.identities.FindByID(ctx, g.UserID)
	if err != nil && !errors.Is(err, auth.ErrIdentityNotFound) {
		return GrantView{}, err
	}
	v.UserName = grantee.FullName()
	v.UserEmail = grantee.Email
	inviter, err := s.identities.FindByID(ctx, g.InvitedBy)
	if err != nil && !errors.Is(err, auth.ErrIdentityNotFound) {
		return GrantView{}, err
	}
	v.InvitedByName = inviter.FullName()
	return v, nil
}
