// Package authz decides whether an identity may administer an event.
//
// There are three tiers: the event's organizer (implicit, non-revocable admin),
// an identity holding an accepted admin grant, and everybody else.
package authz

import (
	"context"
	"fmt"

	"meetix.org/internal/audit"
	"meetix.org/internal/auth"
	"meetix.org/internal/events"
	"meetix.org/internal/obs"
)

// EventFinder resolves events. Missing events yield events.ErrEventNotFound.
type EventFinder interface {
	Find(ctx context.Context, id string) (events.Event, error)
}

// GrantChecker reports whether an accepted admin grant exists for (event, user).
type GrantChecker interface {
	ExistsAccepted(ctx context.Context, eventID, userID string) (bool, error)
}

// Evaluator implements the owner/admin/none predicate.
type Evaluator struct {
	events EventFinder
	grants GrantChecker
}

var _ events.Authorizer = (*Evaluator)(nil)

func New(eventFinder EventFinder, grants GrantChecker) *Evaluator {
	return &Evaluator{events: eventFinder, grants: grants}
}

// IsOwnerOrAdmin is true for the event's organizer and for holders of an accepted grant.
func (e *Evaluator) IsOwnerOrAdmin(ctx context.Context, eventID, userID string) (bool, error) {
	ev, err := e.events.Find(ctx, eventID)
	if err != nil {
		return false, err
	}
	if userID != "" && ev.OrganizerID == userID {
		return true, nil
	}
	return e.grants.ExistsAccepted(ctx, eventID, userID)
}

// IsOrganizer is true only for the identity that created the event.
func (e *Evaluator) IsOrganizer(ctx context.Context, eventID, userID string) (bool, error) {
	ev, err := e.events.Find(ctx, eventID)
	if err != nil {
		return false, err
	}
	return userID != "" && ev.OrganizerID == userID, nil
}

// RequireOwnerOrAdmin checks the identity in ctx. It fails with auth.ErrNotAuthenticated
// when ctx carries no identity and with auth.ErrPermissionDenied when the identity lacks rights.
func (e *Evaluator) RequireOwnerOrAdmin(ctx context.Context, eventID, action string) error {
	return e.require(ctx, eventID, action, e.IsOwnerOrAdmin)
}

// RequireOrganizer is RequireOwnerOrAdmin restricted to the organizer.
func (e *Evaluator) RequireOrganizer(ctx context.Context, eventID, action string) error {
	return e.require(ctx, eventID, action, e.IsOrganizer)
}

func (e *Evaluator) require(ctx context.Context, eventID, action string, allowed func(context.Context, string, string) (bool, error)) error {
	actor, err := auth.RequireIdentity(ctx)
	if err != nil {
		return err
	}
	ok, err := allowed(ctx, eventID, actor.UserID)
	if err != nil {
		return err
	}
	if !ok {
		obs.AuthorizationDenied(action)
		_ = audit.LogEvent(ctx, "authz.denied", map[string]any{
			"action":   action,
			"event_id": eventID,
		})
		return fmt.Errorf("%w: %s", auth.ErrPermissionDenied, action)
	}
	return nil
}
