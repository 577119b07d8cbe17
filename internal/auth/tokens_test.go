package auth

import (
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCodec(t *testing.T, clock *fakeClock) *Codec {
	t.Helper()
	codec, err := NewCodec(testKey, WithCodecClock(clock.Now))
	require.NoError(t, err)
	return codec
}

func sampleClaims() SessionClaims {
	return SessionClaims{UserID: "5b1f2a9e-1111-4c3d-8e9f-000000000001", FirstName: "Ada", LastName: "Lovelace"}
}

func TestCodecRoundTrip(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)

	cases := []struct {
		name   string
		claims SessionClaims
		email  string
		ttl    time.Duration
	}{
		{"default ttl", sampleClaims(), "ada@example.com", DefaultAccessTTL},
		{"short ttl", sampleClaims(), "ada@example.com", 2 * time.Second},
		{"unicode names", SessionClaims{UserID: "u-2", FirstName: "José", LastName: "Ñúñez"}, "jose@example.com", time.Hour},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			token, err := codec.Encode(tc.claims, tc.email, tc.ttl)
			require.NoError(t, err)
			require.Len(t, strings.Split(token, "."), 3)

			got, err := codec.Decode(token)
			require.NoError(t, err)
			require.Equal(t, tc.email, got.Subject)
			require.Equal(t, tc.claims.UserID, got.UserID)
			require.Equal(t, tc.claims.FirstName, got.FirstName)
			require.Equal(t, tc.claims.LastName, got.LastName)
			require.Equal(t, clock.Now().Unix(), got.IssuedAt.Unix())
			require.Equal(t, clock.Now().Add(tc.ttl).Unix(), got.ExpiresAt.Unix())
			require.NotEmpty(t, got.ID)
			require.False(t, codec.IsExpired(token))
		})
	}
}

func TestCodecIssueReportsExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)

	_, exp, err := codec.Issue(sampleClaims(), "ada@example.com", time.Hour)
	require.NoError(t, err)
	require.True(t, exp.Equal(clock.Now().Add(time.Hour)))
}

func TestCodecRejectsInvalidInput(t *testing.T) {
	codec := newTestCodec(t, &fakeClock{t: time.Now()})

	_, err := codec.Encode(sampleClaims(), "ada@example.com", 0)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = codec.Encode(sampleClaims(), "  ", time.Hour)
	require.ErrorIs(t, err, ErrInvalidInput)

	_, err = NewCodec(nil)
	require.Error(t, err)
}

func TestCodecExpiry(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)

	token, err := codec.Encode(sampleClaims(), "ada@example.com", time.Minute)
	require.NoError(t, err)

	clock.Advance(59 * time.Second)
	_, err = codec.Decode(token)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = codec.Decode(token)
	require.ErrorIs(t, err, ErrExpiredToken, "expiry equal to now must be rejected")

	clock.Advance(time.Hour)
	claims, err := codec.Decode(token)
	require.ErrorIs(t, err, ErrExpiredToken)
	require.ErrorIs(t, err, ErrInvalidToken)
	require.Nil(t, claims)
	require.True(t, codec.IsExpired(token))
}

func TestCodecSignatureBitFlips(t *testing.T) {
	codec := newTestCodec(t, &fakeClock{t: time.Now()})
	token, err := codec.Encode(sampleClaims(), "ada@example.com", time.Hour)
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	require.NoError(t, err)

	for bit := 0; bit < len(sig)*8; bit++ {
		flipped := append([]byte(nil), sig...)
		flipped[bit/8] ^= 1 << (bit % 8)
		tampered := parts[0] + "." + parts[1] + "." + base64.RawURLEncoding.EncodeToString(flipped)

		claims, err := codec.Decode(tampered)
		if !errors.Is(err, ErrInvalidSignature) {
			t.Fatalf("bit %d: expected ErrInvalidSignature, got %v", bit, err)
		}
		require.Nil(t, claims)
	}
}

func TestCodecRejectsForeignKey(t *testing.T) {
	codec := newTestCodec(t, &fakeClock{t: time.Now()})
	other, err := NewCodec([]byte("another-key-another-key-another-key"))
	require.NoError(t, err)

	token, err := other.Encode(sampleClaims(), "ada@example.com", time.Hour)
	require.NoError(t, err)

	_, err = codec.Decode(token)
	require.ErrorIs(t, err, ErrInvalidSignature)
}

func TestCodecMalformedTokens(t *testing.T) {
	codec := newTestCodec(t, &fakeClock{t: time.Now()})
	valid, err := codec.Encode(sampleClaims(), "ada@example.com", time.Hour)
	require.NoError(t, err)
	parts := strings.Split(valid, ".")

	cases := map[string]string{
		"empty":          "",
		"one segment":    "abc",
		"two segments":   parts[0] + "." + parts[1],
		"four segments":  valid + ".extra",
		"bad base64":     "!!!." + parts[1] + "." + parts[2],
		"payload json":   parts[0] + "." + base64.RawURLEncoding.EncodeToString([]byte("{not json")) + "." + parts[2],
		"header garbage": base64.RawURLEncoding.EncodeToString([]byte("[]")) + "." + parts[1] + "." + parts[2],
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			claims, err := codec.Decode(token)
			require.ErrorIs(t, err, ErrMalformedToken)
			require.Nil(t, claims)
		})
	}
}

func TestCodecUnsupportedAlgorithms(t *testing.T) {
	codec := newTestCodec(t, &fakeClock{t: time.Now()})
	claims := sampleClaims()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		Subject:   "ada@example.com",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}

	hs384, err := jwt.NewWithClaims(jwt.SigningMethodHS384, claims).SignedString(testKey)
	require.NoError(t, err)
	_, err = codec.Decode(hs384)
	require.ErrorIs(t, err, ErrUnsupportedToken)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = codec.Decode(none)
	require.ErrorIs(t, err, ErrUnsupportedToken)

	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"XY999","typ":"JWT"}`))
	parts := strings.Split(hs384, ".")
	_, err = codec.Decode(header + "." + parts[1] + "." + parts[2])
	require.ErrorIs(t, err, ErrUnsupportedToken)
}

func TestCodecRequiresExpiryAndSubject(t *testing.T) {
	codec := newTestCodec(t, &fakeClock{t: time.Now()})

	noExp := sampleClaims()
	noExp.RegisteredClaims = jwt.RegisteredClaims{Subject: "ada@example.com"}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, noExp).SignedString(testKey)
	require.NoError(t, err)
	_, err = codec.Decode(token)
	require.ErrorIs(t, err, ErrMalformedToken)

	noSub := sampleClaims()
	noSub.RegisteredClaims = jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))}
	token, err = jwt.NewWithClaims(jwt.SigningMethodHS256, noSub).SignedString(testKey)
	require.NoError(t, err)
	_, err = codec.Decode(token)
	require.ErrorIs(t, err, ErrMalformedToken)
}
