package users

import (
	"context"

	"meetix.org/internal/auth"
	"meetix.org/internal/events"
)

// Store extends the identity store with account maintenance. Update reports an
// email held by another account as auth.ErrDuplicateIdentity; Update and Delete
// report a missing account as auth.ErrIdentityNotFound.
type Store interface {
	auth.IdentityStore
	List(ctx context.Context) ([]auth.Identity, error)
	Update(ctx context.Context, identity *auth.Identity) error
	Delete(ctx context.Context, id string) error
}

// OrganizerLister finds the events an account organizes.
type OrganizerLister interface {
	ListByOrganizer(ctx context.Context, organizerID string) ([]events.Event, error)
}

// SessionIssuer mints a replacement token after the token subject changed.
type SessionIssuer interface {
	Reissue(identity auth.Identity) (auth.Session, error)
}

// Dependent holds per-user rows that must go when the account goes. The
// PostgreSQL schema cascades these itself; the in-memory stores need the call.
type Dependent interface {
	RemoveUser(ctx context.Context, userID string) error
}
