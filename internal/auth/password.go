package auth

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"
)

// ErrHashingFailure wraps internal errors raised while hashing or verifying a
// password, including a malformed stored hash. It is distinct from a wrong
// password, which is reported as (false, nil).
var ErrHashingFailure = errors.New("password hashing failure")

// HashParams are the per-deployment Argon2id work factors.
type HashParams struct {
	MemoryKiB   uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultHashParams mirrors the production defaults of the config package.
var DefaultHashParams = HashParams{
	MemoryKiB:   64 * 1024,
	Iterations:  1,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

func (p HashParams) argon2id() *argon2id.Params {
	return &argon2id.Params{
		Memory:      p.MemoryKiB,
		Iterations:  p.Iterations,
		Parallelism: p.Parallelism,
		SaltLength:  p.SaltLength,
		KeyLength:   p.KeyLength,
	}
}

// PasswordService hashes and verifies passwords on a bounded worker pool so
// bursts of slow hashes cannot starve the rest of the request path.
type PasswordService struct {
	params    HashParams
	fixedSalt []byte
	pool      *semaphore.Weighted
	duration  *prometheus.HistogramVec

	dummyMu   sync.Mutex
	dummyHash string
}

// PasswordOption customises a PasswordService.
type PasswordOption func(*PasswordService)

// WithFixedSalt enables the legacy-compatibility mode where every hash uses
// the same configured salt.
func WithFixedSalt(salt []byte) PasswordOption {
	return func(s *PasswordService) {
		if len(salt) > 0 {
			s.fixedSalt = salt
		}
	}
}

// WithDurationHistogram records hash and verify durations, labelled by op.
func WithDurationHistogram(h *prometheus.HistogramVec) PasswordOption {
	return func(s *PasswordService) {
		s.duration = h
	}
}

// NewPasswordService creates a password service running at most workers
// hash operations concurrently.
func NewPasswordService(params HashParams, workers int, opts ...PasswordOption) *PasswordService {
	if workers <= 0 {
		workers = 1
	}
	s := &PasswordService{
		params: params,
		pool:   semaphore.NewWeighted(int64(workers)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hash returns the encoded Argon2id hash of password.
func (s *PasswordService) Hash(ctx context.Context, password string) (string, error) {
	var encoded string
	err := s.run(ctx, "hash", func() error {
		var err error
		encoded, err = s.hash(password)
		return err
	})
	return encoded, err
}

// Verify reports whether password matches encoded. A malformed encoded hash
// returns ErrHashingFailure rather than false.
func (s *PasswordService) Verify(ctx context.Context, password, encoded string) (bool, error) {
	var match bool
	err := s.run(ctx, "verify", func() error {
		var err error
		match, err = verify(password, encoded)
		return err
	})
	return match, err
}

// VerifyDummy spends the same work as a real verification against a hash
// that can never match. Login calls it for unknown accounts so response time
// does not reveal whether an email is registered. The dummy hash is built
// lazily on the worker pool, like every other hash.
func (s *PasswordService) VerifyDummy(ctx context.Context, password string) error {
	return s.run(ctx, "verify", func() error {
		dummy, err := s.dummy()
		if err != nil {
			return err
		}
		_, err = verify(password, dummy)
		return err
	})
}

// dummy must be called while holding a worker slot.
func (s *PasswordService) dummy() (string, error) {
	s.dummyMu.Lock()
	defer s.dummyMu.Unlock()
	if s.dummyHash == "" {
		encoded, err := s.hash("\x00unmatchable")
		if err != nil {
			return "", err
		}
		s.dummyHash = encoded
	}
	return s.dummyHash, nil
}

func (s *PasswordService) run(ctx context.Context, op string, fn func() error) error {
	if err := s.pool.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: acquire worker: %v", ErrHashingFailure, err)
	}
	defer s.pool.Release(1)

	start := time.Now()
	err := fn()
	if s.duration != nil {
		s.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
	return err
}

func (s *PasswordService) hash(password string) (string, error) {
	if s.fixedSalt == nil {
		encoded, err := argon2id.CreateHash(password, s.params.argon2id())
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrHashingFailure, err)
		}
		return encoded, nil
	}

	key := argon2.IDKey([]byte(password), s.fixedSalt, s.params.Iterations, s.params.MemoryKiB, s.params.Parallelism, s.params.KeyLength)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		s.params.MemoryKiB,
		s.params.Iterations,
		s.params.Parallelism,
		base64.RawStdEncoding.EncodeToString(s.fixedSalt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

func verify(password, encoded string) (bool, error) {
	if isBcrypt(encoded) {
		err := bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password))
		switch {
		case err == nil:
			return true, nil
		case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
			return false, nil
		default:
			return false, fmt.Errorf("%w: %v", ErrHashingFailure, err)
		}
	}

	match, err := argon2id.ComparePasswordAndHash(password, encoded)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrHashingFailure, err)
	}
	return match, nil
}

// isBcrypt detects hashes stored before the switch to Argon2id.
func isBcrypt(encoded string) bool {
	return strings.HasPrefix(encoded, "$2a$") ||
		strings.HasPrefix(encoded, "$2b$") ||
		strings.HasPrefix(encoded, "$2y$")
}
