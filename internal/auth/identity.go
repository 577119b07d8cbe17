package auth

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	minPasswordLength = 6
	// bcrypt ignores input past 72 bytes and x/crypto rejects it outright.
	maxPasswordLength = 72
)

// Identity is a registered account capable of authenticating.
type Identity struct {
	ID           string
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
	Instagram    string
	University   string
	Course       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Summary projects the identity without its password hash.
func (i Identity) Summary() IdentitySummary {
	return IdentitySummary{
		UserID:    i.ID,
		Email:     i.Email,
		FirstName: i.FirstName,
		LastName:  i.LastName,
	}
}

// FullName joins first and last name.
func (i Identity) FullName() string {
	return strings.TrimSpace(i.FirstName + " " + i.LastName)
}

// IdentitySummary is the public projection returned by login, registration and token validation.
type IdentitySummary struct {
	UserID    string `json:"userId"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// NewIdentity carries a registration request.
type NewIdentity struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	Instagram  string `json:"instagram"`
	University string `json:"university"`
	Course     string `json:"course"`
}

func (n NewIdentity) normalized() NewIdentity {
	n.FirstName = strings.TrimSpace(n.FirstName)
	n.LastName = strings.TrimSpace(n.LastName)
	n.Email = strings.TrimSpace(n.Email)
	n.Instagram = strings.TrimSpace(n.Instagram)
	n.University = strings.TrimSpace(n.University)
	n.Course = strings.TrimSpace(n.Course)
	return n
}

// Validate checks required registration fields. Email is compared exactly, so it is not lower-cased.
func (n NewIdentity) Validate() error {
	if err := ValidateNames(n.FirstName, n.LastName, n.Email); err != nil {
		return err
	}
	return ValidatePassword(n.Password)
}

// ValidateNames checks the fields every account must carry, after trimming.
func ValidateNames(firstName, lastName, email string) error {
	switch {
	case firstName == "":
		return fmt.Errorf("%w: first name is required", ErrInvalidInput)
	case lastName == "":
		return fmt.Errorf("%w: last name is required", ErrInvalidInput)
	case email == "":
		return fmt.Errorf("%w: email is required", ErrInvalidInput)
	case !validEmail(email):
		return fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	return nil
}

// ValidatePassword enforces the length bounds bcrypt can hash.
func ValidatePassword(password string) error {
	switch {
	case len(password) < minPasswordLength:
		return fmt.Errorf("%w: password must have at least %d characters", ErrInvalidInput, minPasswordLength)
	case len(password) > maxPasswordLength:
		return fmt.Errorf("%w: password must have at most %d bytes", ErrInvalidInput, maxPasswordLength)
	}
	return nil
}

func validEmail(email string) bool {
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 {
		return false
	}
	if strings.ContainsAny(email, " \t\r\n") {
		return false
	}
	return strings.Count(email, "@") == 1
}

// IdentityStore is the identity collaborator consumed by the auth core.
// Lookups by email are exact and case-sensitive.
type IdentityStore interface {
	// Create persists a new identity. A duplicate email yields ErrDuplicateIdentity.
	Create(ctx context.Context, identity *Identity) error
	FindByID(ctx context.Context, id string) (Identity, error)
	FindByEmail(ctx context.Context, email string) (Identity, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}
