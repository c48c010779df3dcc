package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

var cheapParams = HashParams{
	MemoryKiB:   1024,
	Iterations:  1,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

func TestPasswordService(t *testing.T) {
	ctx := context.Background()

	t.Run("hash and verify", func(t *testing.T) {
		s := NewPasswordService(cheapParams, 1)

		encoded, err := s.Hash(ctx, "hihihihi")
		require.NoError(t, err)
		require.Contains(t, encoded, "$argon2id$")

		ok, err := s.Verify(ctx, "hihihihi", encoded)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.Verify(ctx, "wrongpass", encoded)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("random salts differ", func(t *testing.T) {
		s := NewPasswordService(cheapParams, 1)
		a, err := s.Hash(ctx, "hihihihi")
		require.NoError(t, err)
		b, err := s.Hash(ctx, "hihihihi")
		require.NoError(t, err)
		require.NotEqual(t, a, b)
	})

	t.Run("fixed salt is deterministic", func(t *testing.T) {
		s := NewPasswordService(cheapParams, 1, WithFixedSalt([]byte("0123456789abcdef")))
		a, err := s.Hash(ctx, "hihihihi")
		require.NoError(t, err)
		b, err := s.Hash(ctx, "hihihihi")
		require.NoError(t, err)
		require.Equal(t, a, b)

		ok, err := s.Verify(ctx, "hihihihi", a)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("legacy bcrypt hashes verify", func(t *testing.T) {
		legacy, err := bcrypt.GenerateFromPassword([]byte("hihihihi"), bcrypt.MinCost)
		require.NoError(t, err)

		s := NewPasswordService(cheapParams, 1)
		ok, err := s.Verify(ctx, "hihihihi", string(legacy))
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = s.Verify(ctx, "wrongpass", string(legacy))
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("malformed hash is a failure, not a mismatch", func(t *testing.T) {
		s := NewPasswordService(cheapParams, 1)
		_, err := s.Verify(ctx, "hihihihi", "not-a-hash")
		require.ErrorIs(t, err, ErrHashingFailure)
	})

	t.Run("dummy verification never errors", func(t *testing.T) {
		s := NewPasswordService(cheapParams, 1)
		require.NoError(t, s.VerifyDummy(ctx, "hihihihi"))
	})

	t.Run("dummy hash is built on the worker pool", func(t *testing.T) {
		s := NewPasswordService(cheapParams, 1)
		require.NoError(t, s.pool.Acquire(ctx, 1))

		busy, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		err := s.VerifyDummy(busy, "hihihihi")
		require.ErrorIs(t, err, ErrHashingFailure)
		require.Empty(t, s.dummyHash, "dummy hash computed without a worker slot")

		s.pool.Release(1)
		require.NoError(t, s.VerifyDummy(ctx, "hihihihi"))
		require.NotEmpty(t, s.dummyHash)
	})

	t.Run("cancelled context fails to acquire a worker", func(t *testing.T) {
		s := NewPasswordService(cheapParams, 1)
		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		_, err := s.Hash(cancelled, "hihihihi")
		require.ErrorIs(t, err, ErrHashingFailure)
	})
}
