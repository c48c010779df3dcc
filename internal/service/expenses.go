package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmynk/groupexpenses/internal/models"
	"github.com/mmynk/groupexpenses/internal/storage"
)

// AddExpenseInput carries the arguments of addExpense.
type AddExpenseInput struct {
	GroupID  string
	PersonID string
	Name     string
	Amount   int
}

// UpdateExpenseInput carries the optional fields of updateExpense. Nil
// fields are left unchanged.
type UpdateExpenseInput struct {
	GroupID  string
	ID       string
	PersonID *string
	Name     *string
	Amount   *int
}

// AddExpense records an expense paid by a person of the group.
func (r *Resolver) AddExpense(ctx context.Context, rc *RequestContext, in AddExpenseInput) (*models.Expense, error) {
	groupID, err := parseID(in.GroupID)
	if err != nil {
		return nil, err
	}
	personID, err := parseID(in.PersonID)
	if err != nil {
		return nil, err
	}
	if err := r.checkName(in.Name); err != nil {
		return nil, err
	}
	if err := r.checkAmount(in.Amount); err != nil {
		return nil, err
	}

	var expense *models.Expense
	err = r.atomic(ctx, rc, "add expense", nil, func(own *OwnershipResolver, tx storage.Store) error {
		group, err := own.GroupForViewer(ctx, rc.Viewer, groupID)
		if err != nil {
			return err
		}
		person, err := own.PersonInGroup(ctx, group, personID)
		if err != nil {
			return err
		}
		expense = models.NewExpense(group.ID, person.ID, in.Name, in.Amount)
		return tx.CreateExpense(ctx, expense)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Expense created", "group_id", groupID, "expense_id", expense.ID)
	return expense, nil
}

// UpdateExpense changes the payer, name and/or amount of an expense.
func (r *Resolver) UpdateExpense(ctx context.Context, rc *RequestContext, in UpdateExpenseInput) (*models.Expense, error) {
	groupID, err := parseID(in.GroupID)
	if err != nil {
		return nil, err
	}
	expenseID, err := parseID(in.ID)
	if err != nil {
		return nil, err
	}
	personID := uuid.Nil
	if in.PersonID != nil {
		if personID, err = parseID(*in.PersonID); err != nil {
			return nil, err
		}
	}
	if in.Name != nil {
		if err := r.checkName(*in.Name); err != nil {
			return nil, err
		}
	}
	if in.Amount != nil {
		if err := r.checkAmount(*in.Amount); err != nil {
			return nil, err
		}
	}

	var expense *models.Expense
	err = r.atomic(ctx, rc, "update expense", nil, func(own *OwnershipResolver, tx storage.Store) error {
		group, err := own.GroupForViewer(ctx, rc.Viewer, groupID)
		if err != nil {
			return err
		}
		expense, err = own.ExpenseInGroup(ctx, group, expenseID)
		if err != nil {
			return err
		}

		changed := false
		if in.PersonID != nil && personID != expense.PersonID {
			person, err := own.PersonInGroup(ctx, group, personID)
			if err != nil {
				return err
			}
			expense.PersonID = person.ID
			changed = true
		}
		if in.Name != nil && *in.Name != expense.Name {
			expense.Name = *in.Name
			changed = true
		}
		if in.Amount != nil && *in.Amount != expense.Amount {
			expense.Amount = *in.Amount
			changed = true
		}
		if !changed {
			return nil
		}
		expense.UpdatedAt = r.now()
		return tx.UpdateExpense(ctx, expense)
	})
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// DeleteExpense removes an expense.
func (r *Resolver) DeleteExpense(ctx context.Context, rc *RequestContext, groupID, id string) (bool, error) {
	gid, err := parseID(groupID)
	if err != nil {
		return false, err
	}
	expenseID, err := parseID(id)
	if err != nil {
		return false, err
	}

	err = r.atomic(ctx, rc, "delete expense", nil, func(own *OwnershipResolver, tx storage.Store) error {
		group, err := own.GroupForViewer(ctx, rc.Viewer, gid)
		if err != nil {
			return err
		}
		expense, err := own.ExpenseInGroup(ctx, group, expenseID)
		if err != nil {
			return err
		}
		return tx.DeleteExpense(ctx, expense.ID)
	})
	if err != nil {
		return false, err
	}

	r.logger.Info("Expense deleted", "group_id", gid, "expense_id", expenseID)
	return true, nil
}
