package service

import (
	"context"
	"errors"
	"strings"

	"github.com/mmynk/groupexpenses/internal/auth"
	"github.com/mmynk/groupexpenses/internal/models"
	"github.com/mmynk/groupexpenses/internal/storage"
)

// Signup creates an account with a default group and returns a token for it.
func (r *Resolver) Signup(ctx context.Context, rc *RequestContext, email, password string) (string, error) {
	r.logger.Debug("Signup request received", "email", maskEmail(email))

	if err := r.validate.Struct(credentials{Email: email, Password: password}); err != nil {
		switch invalidField(err) {
		case "Email":
			return "", ErrInvalidEmailAddress
		case "Password":
			return "", ErrInvalidPassword
		default:
			return "", r.fail("signup", err)
		}
	}

	// Check email availability
	_, err := rc.Store.GetUserByEmail(ctx, email)
	if err == nil {
		return "", ErrAlreadyUsedEmail
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return "", r.fail("signup", err)
	}

	hash, err := r.authenticator(rc).HashCredential(ctx, password)
	if err != nil {
		return "", r.fail("signup", err)
	}

	user := models.NewUser(email, hash)
	err = r.atomic(ctx, rc, "signup", ErrAlreadyUsedEmail, func(_ *OwnershipResolver, tx storage.Store) error {
		if err := tx.CreateUser(ctx, user); err != nil {
			return err
		}
		return tx.CreateGroup(ctx, models.NewGroup(user.ID, models.DefaultGroupName))
	})
	if err != nil {
		return "", err
	}

	token, err := r.tokens.Sign(user.ID)
	if err != nil {
		return "", r.fail("signup", err)
	}

	r.logger.Info("User signed up", "user_id", user.ID)
	return token, nil
}

// Login verifies credentials and returns a fresh token. Every credential
// problem, including a malformed email, is reported as INVALID_CREDENTIALS.
func (r *Resolver) Login(ctx context.Context, rc *RequestContext, email, password string) (string, error) {
	r.logger.Debug("Login request received", "email", maskEmail(email))

	if err := r.validate.Struct(credentials{Email: email, Password: password}); err != nil {
		return "", ErrInvalidCredentials
	}

	user, err := r.authenticator(rc).Authenticate(ctx, email, password)
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "", ErrInvalidCredentials
	case errors.Is(err, auth.ErrHashingFailure):
		r.logger.Error("Password hashing failure during login", "error", err)
		return "", Internal(err)
	case err != nil:
		return "", r.fail("login", err)
	}

	token, err := r.tokens.Sign(user.ID)
	if err != nil {
		return "", r.fail("login", err)
	}

	r.logger.Info("User logged in", "user_id", user.ID)
	return token, nil
}

// Viewer returns the authenticated user.
func (r *Resolver) Viewer(ctx context.Context, rc *RequestContext) (*models.User, error) {
	user, err := rc.Owned().ViewerUser(ctx, rc.Viewer)
	if err != nil {
		return nil, r.fail("viewer", err)
	}
	return user, nil
}

// maskEmail keeps the first character of the local part and the domain.
func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return "***"
	}
	local, domain := []rune(email[:at]), email[at:]
	return string(local[0]) + "***" + domain
}
