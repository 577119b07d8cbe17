package admins

import (
	"context"
	"time"
)

// Store persists grants. (event_id, user_id) is unique: Create reports a second
// grant for the same pair as ErrDuplicateGrant, even under concurrent inserts.
type Store interface {
	Create(ctx context.Context, g *Grant) error
	Find(ctx context.Context, eventID, userID string) (Grant, error)
	Exists(ctx context.Context, eventID, userID string) (bool, error)
	ExistsAccepted(ctx context.Context, eventID, userID string) (bool, error)
	// Accept flips a pending grant. ErrAlreadyAccepted if it was accepted meanwhile.
	Accept(ctx context.Context, eventID, userID string, at time.Time) error
	Delete(ctx context.Context, eventID, userID string) error
	ListAccepted(ctx context.Context, eventID string) ([]Grant, error)
	ListPending(ctx context.Context, userID string) ([]Grant, error)
}
