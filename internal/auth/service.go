package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"meetix.org/internal/obs"
)

const (
	DefaultAccessTTL  = 86_400_000 * time.Millisecond
	DefaultRefreshTTL = 604_800_000 * time.Millisecond
)

// Session is what login and registration hand back to the client.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Identity  IdentitySummary `json:"identity"`
}

// Service issues and resolves session tokens.
type Service struct {
	identities IdentityStore
	codec      *Codec
	now        func() time.Time
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// ServiceOption configures Service behavior.
type ServiceOption func(*Service)

// WithAccessTTL configures access token lifetime.
func WithAccessTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.accessTTL = ttl
		}
	}
}

// WithRefreshTTL records the refresh token lifetime. No current flow issues refresh tokens.
func WithRefreshTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.refreshTTL = ttl
		}
	}
}

// WithClock overrides time source (useful for tests).
func WithClock(fn func() time.Time) ServiceOption {
	return func(s *Service) {
		if fn != nil {
			s.now = fn
		}
	}
}

// NewService constructs Service with optional configuration.
func NewService(identities IdentityStore, codec *Codec, opts ...ServiceOption) (*Service, error) {
	if identities == nil {
		return nil, errors.New("auth: identity store is required")
	}
	if codec == nil {
		return nil, errors.New("auth: token codec is required")
	}
	svc := &Service{
		identities: identities,
		codec:      codec,
		now:        time.Now,
		accessTTL:  DefaultAccessTTL,
		refreshTTL: DefaultRefreshTTL,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// AccessTTL reports the configured access token lifetime.
func (s *Service) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL reports the reserved refresh token lifetime.
func (s *Service) RefreshTTL() time.Duration { return s.refreshTTL }

// Login checks credentials and issues a session token. Unknown emails and wrong
// passwords both yield ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return Session{}, ErrInvalidCredentials
	}
	identity, err := s.identities.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			burnPasswordCheck(password)
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}
	if !VerifyPassword(password, identity.PasswordHash) {
		return Session{}, ErrInvalidCredentials
	}
	return s.issue(identity, "login")
}

// Register creates an identity and issues its first session token.
func (s *Service) Register(ctx context.Context, req NewIdentity) (Session, error) {
	req = req.normalized()
	if err := req.Validate(); err != nil {
		return Session{}, err
	}
	exists, err := s.identities.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return Session{}, err
	}
	if exists {
		return Session{}, ErrDuplicateIdentity
	}
	hash, err := HashPassword(req.Password)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	identity := Identity{
		ID:           uuid.NewString(),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		PasswordHash: hash,
		Instagram:    req.Instagram,
		University:   req.University,
		Course:       req.Course,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	// The store's unique constraint settles concurrent registrations of one email.
	if err := s.identities.Create(ctx, &identity); err != nil {
		return Session{}, err
	}
	return s.issue(identity, "register")
}

// TokenToIdentitySummary projects a token's claims without a storage round-trip.
func (s *Service) TokenToIdentitySummary(token string) (IdentitySummary, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		return IdentitySummary{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return claims.Summary(), nil
}

// Authenticate decodes a bearer token and re-resolves its subject against live identities.
// A token whose identity vanished or changed id is rejected as ErrInvalidToken.
func (s *Service) Authenticate(ctx context.Context, token string) (IdentitySummary, error) {
	claims, err := s.codec.Decode(token)
	if err != nil {
		return IdentitySummary{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	identity, err := s.identities.FindByEmail(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, ErrIdentityNotFound) {
			return IdentitySummary{}, fmt.Errorf("%w: identity no longer exists", ErrInvalidToken)
		}
		return IdentitySummary{}, err
	}
	if identity.ID != claims.UserID {
		return IdentitySummary{}, fmt.Errorf("%w: identity does not match token", ErrInvalidToken)
	}
	return identity.Summary(), nil
}

// Reissue mints a fresh session for an identity whose token subject changed,
// for example after an email update.
func (s *Service) Reissue(identity Identity) (Session, error) {
	return s.issue(identity, "reissue")
}

func (s *Service) issue(identity Identity, flow string) (Session, error) {
	claims := SessionClaims{
		UserID:    identity.ID,
		FirstName: identity.FirstName,
		LastName:  identity.LastName,
	}
	token, expiresAt, err := s.codec.Issue(claims, identity.Email, s.accessTTL)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	obs.TokenIssued(flow)
	return Session{
		Token:     token,
		ExpiresAt: expiresAt,
		Identity:  identity.Summary(),
	}, nil
}
