package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmynk/groupexpenses/internal/calculator"
	"github.com/mmynk/groupexpenses/internal/models"
	"github.com/mmynk/groupexpenses/internal/storage"
)

// GroupsOf lists the groups of user, which must be the viewer.
func (r *Resolver) GroupsOf(ctx context.Context, rc *RequestContext, user *models.User) ([]*models.Group, error) {
	if rc.Viewer == nil || rc.Viewer.UserID() != user.ID {
		return nil, ErrUserNotFound
	}
	groups, err := rc.Store.ListGroupsByUser(ctx, user.ID)
	if err != nil {
		return nil, r.fail("list groups", err)
	}
	return groups, nil
}

// PersonsOf lists the persons of group.
func (r *Resolver) PersonsOf(ctx context.Context, rc *RequestContext, group *models.Group) ([]*models.Person, error) {
	var persons []*models.Person
	err := r.atomic(ctx, rc, "list persons", nil, func(own *OwnershipResolver, tx storage.Store) error {
		if _, err := own.GroupForViewer(ctx, rc.Viewer, group.ID); err != nil {
			return err
		}
		var err error
		persons, err = tx.ListPersonsByGroup(ctx, group.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return persons, nil
}

// ExpensesOf lists the expenses of group.
func (r *Resolver) ExpensesOf(ctx context.Context, rc *RequestContext, group *models.Group) ([]*models.Expense, error) {
	return r.groupExpenses(ctx, rc, group.ID, nil)
}

// ExpensesOfPerson lists the expenses paid by person.
func (r *Resolver) ExpensesOfPerson(ctx context.Context, rc *RequestContext, person *models.Person) ([]*models.Expense, error) {
	return r.groupExpenses(ctx, rc, person.GroupID, func(e *models.Expense) bool {
		return e.PersonID == person.ID
	})
}

// groupExpenses re-resolves the group for the viewer and lists its expenses
// in one transaction. keep, if set, filters the result.
func (r *Resolver) groupExpenses(ctx context.Context, rc *RequestContext, groupID uuid.UUID, keep func(*models.Expense) bool) ([]*models.Expense, error) {
	var expenses []*models.Expense
	err := r.atomic(ctx, rc, "list expenses", nil, func(own *OwnershipResolver, tx storage.Store) error {
		if _, err := own.GroupForViewer(ctx, rc.Viewer, groupID); err != nil {
			return err
		}
		all, err := tx.ListExpensesByGroup(ctx, groupID)
		if err != nil {
			return err
		}
		if keep == nil {
			expenses = all
			return nil
		}
		for _, e := range all {
			if keep(e) {
				expenses = append(expenses, e)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return expenses, nil
}

// BalancesOf computes each person's position in group.
func (r *Resolver) BalancesOf(ctx context.Context, rc *RequestContext, group *models.Group) ([]calculator.Balance, error) {
	var balances []calculator.Balance
	err := r.atomic(ctx, rc, "group balances", nil, func(own *OwnershipResolver, tx storage.Store) error {
		if _, err := own.GroupForViewer(ctx, rc.Viewer, group.ID); err != nil {
			return err
		}
		persons, err := tx.ListPersonsByGroup(ctx, group.ID)
		if err != nil {
			return err
		}
		expenses, err := tx.ListExpensesByGroup(ctx, group.ID)
		if err != nil {
			return err
		}
		balances = calculator.GroupBalances(persons, expenses)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return balances, nil
}

// SettlementsOf suggests the payments that would settle group.
func (r *Resolver) SettlementsOf(ctx context.Context, rc *RequestContext, group *models.Group) ([]calculator.DebtEdge, error) {
	balances, err := r.BalancesOf(ctx, rc, group)
	if err != nil {
		return nil, err
	}
	return calculator.Settle(balances), nil
}
