package utils

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndVerifyPassword(t *testing.T) {
	h, err := HashPassword("adminpass123", bcrypt.MinCost)
	require.NoError(t, err)
	require.True(t, VerifyPassword(h, "adminpass123"))
	require.False(t, VerifyPassword(h, "wrong"))

	_, err = HashPassword("short", bcrypt.MinCost)
	require.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestSessionTokenShape(t *testing.T) {
	a, err := NewSessionToken()
	require.NoError(t, err)
	b, err := NewSessionToken()
	require.NoError(t, err)
	require.Len(t, a, SessionTokenBytes*2)
	require.NotEqual(t, a, b)

	require.Len(t, HashToken(a), 64)
	require.Equal(t, HashToken(a), HashToken(a))
	require.NotEqual(t, HashToken(a), HashToken(b))
}

func TestTrackingTokenRoundTrip(t *testing.T) {
	tok, exp, err := NewTrackingToken("s3cret", "o1", "buyer@example.com", time.Hour)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	id, email, err := ParseTrackingToken("s3cret", tok)
	require.NoError(t, err)
	require.Equal(t, "o1", id)
	require.Equal(t, "buyer@example.com", email)
}

func TestTrackingTokenRejects(t *testing.T) {
	tok, _, err := NewTrackingToken("s3cret", "o1", "buyer@example.com", time.Hour)
	require.NoError(t, err)

	_, _, err = ParseTrackingToken("other", tok)
	require.ErrorIs(t, err, ErrInvalidTrackingToken)

	expired, _, err := NewTrackingToken("s3cret", "o1", "buyer@example.com", -time.Minute)
	require.NoError(t, err)
	_, _, err = ParseTrackingToken("s3cret", expired)
	require.ErrorIs(t, err, ErrInvalidTrackingToken)

	// a token signed for another audience is not a tracking link
	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "o1",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	})
	raw, err := other.SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, _, err = ParseTrackingToken("s3cret", raw)
	require.ErrorIs(t, err, ErrInvalidTrackingToken)
}
