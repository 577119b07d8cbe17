package events

import "errors"

var (
	ErrEventNotFound = errors.New("events: event not found")
	ErrInvalidEvent  = errors.New("events: invalid event")
)
