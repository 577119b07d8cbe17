// Package participants handles event registration, cancellation and
// check-in, along with the attendee listings organizers see.
package participants

import (
	"errors"
	"time"
)

var (
	ErrRegistrationNotFound = errors.New("participants: registration not found")
	ErrAlreadyRegistered    = errors.New("participants: already registered for this event")
	ErrEventFull            = errors.New("participants: event is full")
	ErrAlreadyCheckedIn     = errors.New("participants: participant already checked in")
)

// Registration ties one user to one event. (EventID, UserID) is unique.
type Registration struct {
	ID           string
	EventID      string
	UserID       string
	RegisteredAt time.Time
	Attended     bool
	CheckedInAt  *time.Time
}

// Participant is the slice of an account shown on attendee lists.
type Participant struct {
	ID         string `json:"id"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Instagram  string `json:"instagram,omitempty"`
	University string `json:"university,omitempty"`
}

// View is a registration joined with its event title and participant.
type View struct {
	ID               string      `json:"id"`
	EventID          string      `json:"eventId"`
	EventTitle       string      `json:"eventTitle"`
	Participant      Participant `json:"participant"`
	RegistrationDate time.Time   `json:"registrationDate"`
	Attended         bool        `json:"attended"`
	CheckedInAt      *time.Time  `json:"checkedInAt,omitempty"`
}

// RegisterRequest is the body of a registration. An empty UserID means the caller.
type RegisterRequest struct {
	EventID string `json:"eventId"`
	UserID  string `json:"userId"`
}
