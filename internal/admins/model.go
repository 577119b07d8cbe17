package admins

import (
	"errors"
	"time"
)

var (
	ErrGrantNotFound   = errors.New("admins: invitation not found")
	ErrDuplicateGrant  = errors.New("admins: user already invited to this event")
	ErrAlreadyAccepted = errors.New("admins: invitation already accepted")
	ErrSelfInvite      = errors.New("admins: the organizer is already an admin of the event")
	ErrInvalidInvite   = errors.New("admins: invalid invitation")
)

// Grant delegates administrative rights over one event to one identity.
// It is pending until the grantee accepts it.
type Grant struct {
	ID         string
	EventID    string
	UserID     string
	InvitedBy  string
	InvitedAt  time.Time
	Accepted   bool
	AcceptedAt *time.Time
}

// GrantView is a grant enriched with the names of the people involved.
type GrantView struct {
	ID            string     `json:"id"`
	EventID       string     `json:"eventId"`
	UserID        string     `json:"userId"`
	UserName      string     `json:"userName"`
	UserEmail     string     `json:"userEmail"`
	InvitedBy     string     `json:"invitedBy"`
	InvitedByName string     `json:"invitedByName"`
	InvitedAt     time.Time  `json:"invitedAt"`
	Accepted      bool       `json:"accepted"`
	AcceptedAt    *time.Time `json:"acceptedAt"`
}
