package events

import (
	"context"
	"time"

	"meetix.org/internal/auth"
)

// Store persists events. Missing rows surface as ErrEventNotFound.
type Store interface {
	Create(ctx context.Context, e *Event) error
	Find(ctx context.Context, id string) (Event, error)
	List(ctx context.Context) ([]Event, error)
	ListByOrganizer(ctx context.Context, organizerID string) ([]Event, error)
	ListStartingAfter(ctx context.Context, t time.Time) ([]Event, error)
	Update(ctx context.Context, e *Event) error
	Delete(ctx context.Context, id string) error
}

// Authorizer gates mutations. It reads the acting identity from ctx.
type Authorizer interface {
	RequireOwnerOrAdmin(ctx context.Context, eventID, action string) error
	RequireOrganizer(ctx context.Context, eventID, action string) error
}

// IdentityFinder resolves organizers.
type IdentityFinder interface {
	FindByID(ctx context.Context, id string) (auth.Identity, error)
}
