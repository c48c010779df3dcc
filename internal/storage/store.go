// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mmynk/groupexpenses/internal/models"
)

var (
	// ErrNotFound is returned when a lookup by key matches no row.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when a write violates a uniqueness
	// constraint, whether detected at statement or commit time.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrUnavailable is returned when no pooled connection could be checked
	// out before the checkout timeout.
	ErrUnavailable = errors.New("storage unavailable")
)

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser inserts a user. Returns ErrAlreadyExists for a taken email.
	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// GroupStore persists groups. Names are unique per owning user.
type GroupStore interface {
	CreateGroup(ctx context.Context, group *models.Group) error
	ListGroupsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Group, error)
	UpdateGroup(ctx context.Context, group *models.Group) error
	// DeleteGroup removes a group and, by cascade, its persons and expenses.
	DeleteGroup(ctx context.Context, id uuid.UUID) error
}

// PersonStore persists persons. Names are unique per group.
type PersonStore interface {
	CreatePerson(ctx context.Context, person *models.Person) error
	ListPersonsByGroup(ctx context.Context, groupID uuid.UUID) ([]*models.Person, error)
	UpdatePerson(ctx context.Context, person *models.Person) error
	// DeletePerson removes a person and, by cascade, their expenses.
	DeletePerson(ctx context.Context, id uuid.UUID) error
}

// ExpenseStore persists expenses.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, expense *models.Expense) error
	ListExpensesByGroup(ctx context.Context, groupID uuid.UUID) ([]*models.Expense, error)
	UpdateExpense(ctx context.Context, expense *models.Expense) error
	DeleteExpense(ctx context.Context, id uuid.UUID) error
}

// Store defines the full persistence surface of the application.
// This abstraction allows swapping storage backends without changing the
// service layer.
type Store interface {
	UserStore
	GroupStore
	PersonStore
	ExpenseStore

	// Atomic runs fn against a transactional view of the store. Either every
	// write made through that view commits or none does. A uniqueness
	// violation detected at commit is reported as ErrAlreadyExists.
	// Calling Atomic on a transactional view reuses the open transaction.
	Atomic(ctx context.Context, fn func(tx Store) error) error

	// Close releases any resources held by the store.
	Close() error
}
