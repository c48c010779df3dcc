package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newTokenService(t *testing.T, secret string, opts ...TokenOption) *TokenService {
	t.Helper()
	s, err := NewTokenService([]byte(secret), time.Hour, opts...)
	require.NoError(t, err)
	return s
}

func TestTokenService(t *testing.T) {
	t.Run("sign and verify", func(t *testing.T) {
		s := newTokenService(t, "secret")
		userID := uuid.New()

		token, err := s.Sign(userID)
		require.NoError(t, err)

		got, err := s.Verify(token)
		require.NoError(t, err)
		require.Equal(t, userID, got)
	})

	t.Run("expired", func(t *testing.T) {
		now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
		clock := func() time.Time { return now }
		s := newTokenService(t, "secret", WithClock(clock))

		token, err := s.Sign(uuid.New())
		require.NoError(t, err)

		now = now.Add(2 * time.Hour)
		_, err = s.Verify(token)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("tampered payload", func(t *testing.T) {
		s := newTokenService(t, "secret")
		token, err := s.Sign(uuid.New())
		require.NoError(t, err)

		other, err := s.Sign(uuid.New())
		require.NoError(t, err)

		// Splice the other token's payload under the first signature.
		a := strings.Split(token, ".")
		b := strings.Split(other, ".")
		_, err = s.Verify(strings.Join([]string{a[0], b[1], a[2]}, "."))
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := newTokenService(t, "secret").Sign(uuid.New())
		require.NoError(t, err)

		_, err = newTokenService(t, "other").Verify(token)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := newTokenService(t, "secret").Verify("not-a-token")
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("subject must be a user id", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = newTokenService(t, "secret").Verify(token)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("expiration is required", func(t *testing.T) {
		claims := jwt.RegisteredClaims{Subject: uuid.NewString()}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = newTokenService(t, "secret").Verify(token)
		require.ErrorIs(t, err, ErrTokenInvalid)
	})

	t.Run("rejects empty secret and bad ttl", func(t *testing.T) {
		_, err := NewTokenService(nil, time.Hour)
		require.Error(t, err)
		_, err = NewTokenService([]byte("secret"), 0)
		require.Error(t, err)
	})
}
