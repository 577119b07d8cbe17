package events

import (
	"fmt"
	"strings"
	"time"
)

// Type classifies an academic event.
type Type string

const (
	TypeLecture    Type = "LECTURE"
	TypeWorkshop   Type = "WORKSHOP"
	TypeMiniCourse Type = "MINI_COURSE"
	TypeParty      Type = "PARTY"
)

const (
	DefaultImageURL = "https://placeholder.com/default-image.png"

	maxTitleLength       = 200
	maxDescriptionLength = 2000
)

// Valid reports whether t is a known event type.
func (t Type) Valid() bool {
	switch t {
	case TypeLecture, TypeWorkshop, TypeMiniCourse, TypeParty:
		return true
	}
	return false
}

// Event is an academic event owned by its organizer.
type Event struct {
	ID                  string    `json:"id"`
	Type                Type      `json:"eventType"`
	Title               string    `json:"title"`
	Description         string    `json:"description,omitempty"`
	Start               time.Time `json:"startDateTime"`
	End                 time.Time `json:"endDateTime"`
	Location            string    `json:"location,omitempty"`
	ImgURL              string    `json:"imgUrl"`
	EventURL            string    `json:"eventUrl,omitempty"`
	Remote              bool      `json:"remote"`
	MaxAttendees        *int      `json:"maxAttendees,omitempty"`
	Paid                bool      `json:"isPaid"`
	PriceCents          int64     `json:"priceCents"`
	OrganizerID         string    `json:"organizerId"`
	GenerateCertificate bool      `json:"generateCertificate"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// Input is the writable part of an event, shared by create and update.
type Input struct {
	Type                Type      `json:"eventType"`
	Title               string    `json:"title"`
	Description         string    `json:"description"`
	Start               time.Time `json:"startDateTime"`
	End                 time.Time `json:"endDateTime"`
	Location            string    `json:"location"`
	ImgURL              string    `json:"imgUrl"`
	EventURL            string    `json:"eventUrl"`
	Remote              bool      `json:"remote"`
	MaxAttendees        *int      `json:"maxAttendees"`
	Paid                bool      `json:"isPaid"`
	PriceCents          int64     `json:"priceCents"`
	GenerateCertificate bool      `json:"generateCertificate"`
}

func (in Input) normalized() Input {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	in.ImgURL = strings.TrimSpace(in.ImgURL)
	in.EventURL = strings.TrimSpace(in.EventURL)
	return in
}

// Validate applies the event business rules.
func (in Input) Validate() error {
	switch {
	case !in.Type.Valid():
		return fmt.Errorf("%w: unknown event type %q", ErrInvalidEvent, in.Type)
	case in.Title == "":
		return fmt.Errorf("%w: title is required", ErrInvalidEvent)
	case len([]rune(in.Title)) > maxTitleLength:
		return fmt.Errorf("%w: title must have at most %d characters", ErrInvalidEvent, maxTitleLength)
	case len([]rune(in.Description)) > maxDescriptionLength:
		return fmt.Errorf("%w: description must have at most %d characters", ErrInvalidEvent, maxDescriptionLength)
	case in.Start.IsZero() || in.End.IsZero():
		return fmt.Errorf("%w: start and end are required", ErrInvalidEvent)
	case in.End.Before(in.Start):
		return fmt.Errorf("%w: end must not precede start", ErrInvalidEvent)
	case in.Remote && in.EventURL == "":
		return fmt.Errorf("%w: remote events require an event url", ErrInvalidEvent)
	case !in.Remote && in.Location == "":
		return fmt.Errorf("%w: in-person events require a location", ErrInvalidEvent)
	case in.Paid && in.PriceCents <= 0:
		return fmt.Errorf("%w: paid events require a price greater than zero", ErrInvalidEvent)
	case in.PriceCents < 0:
		return fmt.Errorf("%w: price must not be negative", ErrInvalidEvent)
	case in.MaxAttendees != nil && *in.MaxAttendees < 1:
		return fmt.Errorf("%w: max attendees must be at least 1", ErrInvalidEvent)
	}
	return nil
}

// apply copies input onto e. The image is kept when the input leaves it empty.
func (e *Event) apply(in Input) {
	e.Type = in.Type
	e.Title = in.Title
	e.Description = in.Description
	e.Start = in.Start.UTC()
	e.End = in.End.UTC()
	e.Location = in.Location
	e.EventURL = in.EventURL
	e.Remote = in.Remote
	e.MaxAttendees = in.MaxAttendees
	e.Paid = in.Paid
	e.PriceCents = in.PriceCents
	e.GenerateCertificate = in.GenerateCertificate
	if in.ImgURL != "" {
		e.ImgURL = in.ImgURL
	}
	if e.ImgURL == "" {
		e.ImgURL = DefaultImageURL
	}
}
