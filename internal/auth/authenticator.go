package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/groupexpenses/internal/models"
	"github.com/mmynk/groupexpenses/internal/storage"
)

// ErrInvalidCredentials is returned for an unknown email or a wrong password.
// The two cases are indistinguishable to callers.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Authenticator defines the interface for credential-based authentication.
// This abstraction allows swapping the credential scheme without changing the
// service layer.
type Authenticator interface {
	// HashCredential turns a raw credential into its stored form.
	HashCredential(ctx context.Context, credential string) (string, error)

	// Authenticate verifies the credential for email and returns the user.
	// Returns ErrInvalidCredentials when the email is unknown or the
	// credential does not match.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)
}

// UserStorage is the slice of the store the authenticator needs.
type UserStorage interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// PasswordAuthenticator implements password-based authentication.
type PasswordAuthenticator struct {
	storage   UserStorage
	passwords *PasswordService
}

var _ Authenticator = (*PasswordAuthenticator)(nil)

// NewPasswordAuthenticator creates a password-based authenticator.
func NewPasswordAuthenticator(storage UserStorage, passwords *PasswordService) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage:   storage,
		passwords: passwords,
	}
}

// HashCredential hashes a password on the worker pool.
func (a *PasswordAuthenticator) HashCredential(ctx context.Context, credential string) (string, error) {
	return a.passwords.Hash(ctx, credential)
}

// Authenticate verifies the email and password, returning the user if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.User, error) {
	user, err := a.storage.GetUserByEmail(ctx, email)
	if errors.Is(err, storage.ErrNotFound) {
		// Burn the same time as a real check before refusing.
		_ = a.passwords.VerifyDummy(ctx, credential)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	ok, err := a.passwords.Verify(ctx, credential, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password for user %s: %w", user.ID, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}
