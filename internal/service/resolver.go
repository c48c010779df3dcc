package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/mmynk/groupexpenses/internal/auth"
	"github.com/mmynk/groupexpenses/internal/storage"
)

// Resolver implements the root Query and Mutation operations and the
// nested fields of the graph. It is stateless; everything request-scoped
// arrives through the RequestContext.
type Resolver struct {
	passwords *auth.PasswordService
	tokens    *auth.TokenService
	validate  *validator.Validate
	logger    *slog.Logger
	now       func() time.Time
}

// NewResolver creates a new Resolver.
func NewResolver(passwords *auth.PasswordService, tokens *auth.TokenService, logger *slog.Logger) *Resolver {
	return &Resolver{
		passwords: passwords,
		tokens:    tokens,
		validate:  NewValidator(),
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *Resolver) authenticator(rc *RequestContext) auth.Authenticator {
	return auth.NewPasswordAuthenticator(rc.Store, r.passwords)
}

// fail converts err for the client and logs the cause of internal errors.
// err must not be nil.
func (r *Resolver) fail(op string, err error) error {
	svcErr := AsError(err)
	if svcErr.Code == CodeInternal {
		r.logger.Error(op+" failed", "error", err)
	}
	return svcErr
}

// atomic runs fn in a transaction and maps a uniqueness violation, whether
// raised by a statement or at commit, to onConflict.
func (r *Resolver) atomic(ctx context.Context, rc *RequestContext, op string, onConflict *Error, fn func(own *OwnershipResolver, tx storage.Store) error) error {
	err := rc.Store.Atomic(ctx, func(tx storage.Store) error {
		return fn(NewOwnershipResolver(tx), tx)
	})
	if err == nil {
		return nil
	}
	var svcErr *Error
	if !errors.As(err, &svcErr) && errors.Is(err, storage.ErrAlreadyExists) && onConflict != nil {
		return onConflict
	}
	return r.fail(op, err)
}

func parseID(id string) (uuid.UUID, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, ErrInvalidID
	}
	return parsed, nil
}

func (r *Resolver) checkName(name string) error {
	if r.validate.Var(name, nameRule) != nil {
		return ErrInvalidName
	}
	return nil
}

func (r *Resolver) checkResources(resources int) error {
	if r.validate.Var(resources, resourcesRule) != nil {
		return ErrInvalidResources
	}
	return nil
}

func (r *Resolver) checkAmount(amount int) error {
	if r.validate.Var(amount, amountRule) != nil {
		return ErrInvalidAmount
	}
	return nil
}

// invalidField names the first struct field that failed validation.
func invalidField(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Field()
	}
	return ""
}
