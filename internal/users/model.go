// Package users manages accounts after registration: profile reads, edits and
// self-service deletion.
package users

import (
	"errors"
	"strings"
	"time"

	"meetix.org/internal/auth"
)

// ErrOrganizesEvents refuses to delete an account that still owns events.
var ErrOrganizesEvents = errors.New("users: account still organizes events")

// Profile is an account as shown to clients. It never carries the password hash.
type Profile struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Instagram  string    `json:"instagram,omitempty"`
	University string    `json:"university,omitempty"`
	Course     string    `json:"course,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func ProfileOf(i auth.Identity) Profile {
	return Profile{
		ID:         i.ID,
		FirstName:  i.FirstName,
		LastName:   i.LastName,
		Email:      i.Email,
		Instagram:  i.Instagram,
		University: i.University,
		Course:     i.Course,
		CreatedAt:  i.CreatedAt,
		UpdatedAt:  i.UpdatedAt,
	}
}

// Update replaces the editable profile fields. An empty Password keeps the current one.
type Update struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Instagram  string `json:"instagram"`
	University string `json:"university"`
	Course     string `json:"course"`
}

func (u Update) normalized() Update {
	u.FirstName = strings.TrimSpace(u.FirstName)
	u.LastName = strings.TrimSpace(u.LastName)
	u.Email = strings.TrimSpace(u.Email)
	u.Instagram = strings.TrimSpace(u.Instagram)
	u.University = strings.TrimSpace(u.University)
	u.Course = strings.TrimSpace(u.Course)
	return u
}

func (u Update) Validate() error {
	if err := auth.ValidateNames(u.FirstName, u.LastName, u.Email); err != nil {
		return err
	}
	if u.Password != "" {
		return auth.ValidatePassword(u.Password)
	}
	return nil
}

// UpdateResult carries the new profile. Session is set when the email changed,
// since tokens are bound to the email they were issued for.
type UpdateResult struct {
	Profile Profile       `json:"profile"`
	Session *auth.Session `json:"session,omitempty"`
}
