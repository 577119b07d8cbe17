package participants

import (
	"context"
	"time"

	"meetix.org/internal/auth"
	"meetix.org/internal/events"
)

// Store persists registrations.
type Store interface {
	// Register inserts r unless the user already holds a registration for the
	// event (ErrAlreadyRegistered) or capacity registrations exist (ErrEventFull).
	// A nil capacity means unlimited. Check and insert are atomic.
	Register(ctx context.Context, r *Registration, capacity *int) error
	Find(ctx context.Context, eventID, userID string) (Registration, error)
	Delete(ctx context.Context, eventID, userID string) error
	// CheckIn marks attendance. A second check-in yields ErrAlreadyCheckedIn.
	CheckIn(ctx context.Context, eventID, userID string, at time.Time) error
	ListByEvent(ctx context.Context, eventID string, attendedOnly bool) ([]Registration, error)
	ListByUser(ctx context.Context, userID string) ([]Registration, error)
	Count(ctx context.Context, eventID string) (int, error)
}

// EventFinder resolves events. Missing events yield events.ErrEventNotFound.
type EventFinder interface {
	Find(ctx context.Context, id string) (events.Event, error)
}

// IdentityFinder resolves participants.
type IdentityFinder interface {
	FindByID(ctx context.Context, id string) (auth.Identity, error)
}
