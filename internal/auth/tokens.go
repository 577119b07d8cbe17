package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"meetix.org/internal/ids"
)

var errUnsupportedAlgorithm = errors.New("unsupported signing algorithm")

// SessionClaims is the payload of a session token. Subject carries the identity email.
type SessionClaims struct {
	UserID    string `json:"userId"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	jwt.RegisteredClaims
}

// Summary projects the claims into the identity summary shape without touching storage.
func (c *SessionClaims) Summary() IdentitySummary {
	return IdentitySummary{
		UserID:    c.UserID,
		Email:     c.Subject,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}
}

// Codec signs and verifies HS256 session tokens with a single process-wide key.
type Codec struct {
	key    []byte
	now    func() time.Time
	parser *jwt.Parser
}

// CodecOption configures a Codec.
type CodecOption func(*Codec)

// WithCodecClock overrides the clock used for issued-at and expiry checks.
func WithCodecClock(fn func() time.Time) CodecOption {
	return func(c *Codec) {
		if fn != nil {
			c.now = fn
		}
	}
}

// NewCodec builds a codec around the decoded signing key.
func NewCodec(key []byte, opts ...CodecOption) (*Codec, error) {
	if len(key) == 0 {
		return nil, errors.New("auth: signing key is empty")
	}
	c := &Codec{
		key: append([]byte(nil), key...),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.parser = jwt.NewParser(
		jwt.WithTimeFunc(c.now),
		jwt.WithExpirationRequired(),
	)
	return c, nil
}

// Encode signs claims for subject, expiring ttl after the current time.
func (c *Codec) Encode(claims SessionClaims, subject string, ttl time.Duration) (string, error) {
	token, _, err := c.Issue(claims, subject, ttl)
	return token, err
}

// Issue is Encode that also reports the expiry written into the token.
func (c *Codec) Issue(claims SessionClaims, subject string, ttl time.Duration) (string, time.Time, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", time.Time{}, fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	if ttl <= 0 {
		return "", time.Time{}, fmt.Errorf("%w: ttl must be greater than zero", ErrInvalidInput)
	}

	now := c.now().UTC()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		ID:        ids.New(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, claims.ExpiresAt.Time, nil
}

// Decode verifies the token and returns its claims. Errors are one of
// ErrMalformedToken, ErrUnsupportedToken, ErrInvalidSignature or ErrExpiredToken,
// and the claims are nil whenever err is non-nil.
func (c *Codec) Decode(token string) (*SessionClaims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMalformedToken
	}
	claims := &SessionClaims{}
	parsed, err := c.parser.ParseWithClaims(token, claims, c.verificationKey)
	if err != nil {
		return nil, classifyTokenError(err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidSignature
	}
	if strings.TrimSpace(claims.Subject) == "" || strings.TrimSpace(claims.UserID) == "" {
		return nil, ErrMalformedToken
	}
	return claims, nil
}

// IsExpired reports whether the token is unusable. Any decode failure counts as expired.
func (c *Codec) IsExpired(token string) bool {
	_, err := c.Decode(token)
	return err != nil
}

func (c *Codec) verificationKey(t *jwt.Token) (any, error) {
	if t.Method != jwt.SigningMethodHS256 {
		return nil, errUnsupportedAlgorithm
	}
	return c.key, nil
}

func classifyTokenError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformedToken
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrUnsupportedToken
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrExpiredToken
	default:
		return ErrMalformedToken
	}
}
