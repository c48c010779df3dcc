package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/mmynk/groupexpenses/internal/auth"
	"github.com/mmynk/groupexpenses/internal/models"
	"github.com/mmynk/groupexpenses/internal/storage"
)

// OwnershipResolver walks the User → Group → Person → Expense chain on
// behalf of a viewer. Every lookup is scoped by its parent, so an entity
// owned by someone else is indistinguishable from one that does not exist.
//
// Bind it to a transactional view of the store when several lookups and a
// write must see the same state.
type OwnershipResolver struct {
	store storage.Store
}

// NewOwnershipResolver binds a resolver to store.
func NewOwnershipResolver(store storage.Store) *OwnershipResolver {
	return &OwnershipResolver{store: store}
}

// ViewerUser loads the viewer's own user record.
func (o *OwnershipResolver) ViewerUser(ctx context.Context, viewer *auth.Viewer) (*models.User, error) {
	if viewer == nil {
		return nil, ErrUserNotFound
	}
	user, err := o.store.GetUser(ctx, viewer.UserID())
	if errors.Is(err, storage.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, Internal(err)
	}
	return user, nil
}

// GroupForViewer returns the viewer's group with groupID.
func (o *OwnershipResolver) GroupForViewer(ctx context.Context, viewer *auth.Viewer, groupID uuid.UUID) (*models.Group, error) {
	if viewer == nil {
		return nil, ErrGroupNotFound
	}
	groups, err := o.store.ListGroupsByUser(ctx, viewer.UserID())
	if err != nil {
		return nil, Internal(err)
	}
	for _, g := range groups {
		if g.ID == groupID {
			return g, nil
		}
	}
	return nil, ErrGroupNotFound
}

// PersonInGroup returns the person with personID among group's persons.
func (o *OwnershipResolver) PersonInGroup(ctx context.Context, group *models.Group, personID uuid.UUID) (*models.Person, error) {
	persons, err := o.store.ListPersonsByGroup(ctx, group.ID)
	if err != nil {
		return nil, Internal(err)
	}
	for _, p := range persons {
		if p.ID == personID {
			return p, nil
		}
	}
	return nil, ErrPersonNotFound
}

// ExpenseInGroup returns the expense with expenseID among group's expenses.
func (o *OwnershipResolver) ExpenseInGroup(ctx context.Context, group *models.Group, expenseID uuid.UUID) (*models.Expense, error) {
	expenses, err := o.store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		return nil, Internal(err)
	}
	for _, e := range expenses {
		if e.ID == expenseID {
			return e, nil
		}
	}
	return nil, ErrExpenseNotFound
}

// EnsureUniqueGroupName fails with NAME_NOT_UNIQUE when another of the
// viewer's groups is already called name. The group with id except is
// skipped so a rename to the current name passes.
func (o *OwnershipResolver) EnsureUniqueGroupName(ctx context.Context, viewer *auth.Viewer, name string, except uuid.UUID) error {
	groups, err := o.store.ListGroupsByUser(ctx, viewer.UserID())
	if err != nil {
		return Internal(err)
	}
	for _, g := range groups {
		if g.Name == name && g.ID != except {
			return NonUniqueName(name)
		}
	}
	return nil
}

// EnsureUniquePersonName fails with NAME_NOT_UNIQUE when another person of
// group is already called name.
func (o *OwnershipResolver) EnsureUniquePersonName(ctx context.Context, group *models.Group, name string, except uuid.UUID) error {
	persons, err := o.store.ListPersonsByGroup(ctx, group.ID)
	if err != nil {
		return Internal(err)
	}
	for _, p := range persons {
		if p.Name == name && p.ID != except {
			return NonUniqueName(name)
		}
	}
	return nil
}
