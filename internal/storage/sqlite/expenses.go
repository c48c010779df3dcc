package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/groupexpenses/internal/models"
)

// CreateExpense persists a new expense. The paying person must belong to
// the expense's group or the insert fails its foreign key.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	return s.run(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx,
			`INSERT INTO expenses (id, group_id, person_id, name, amount, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.GroupID, expense.PersonID, expense.Name, expense.Amount,
			toMillis(expense.CreatedAt), toMillis(expense.UpdatedAt),
		)
		if err != nil {
			return wrapErr("failed to insert expense", err)
		}
		return nil
	})
}

// ListExpensesByGroup retrieves the expenses of a group in insertion order.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID uuid.UUID) ([]*models.Expense, error) {
	var expenses []*models.Expense
	err := s.run(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx,
			`SELECT id, group_id, person_id, name, amount, created_at, updated_at
			 FROM expenses WHERE group_id = ?
			 ORDER BY created_at, rowid`,
			groupID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			expense := &models.Expense{}
			var createdAt, updatedAt int64
			if err := rows.Scan(&expense.ID, &expense.GroupID, &expense.PersonID, &expense.Name,
				&expense.Amount, &createdAt, &updatedAt); err != nil {
				return fmt.Errorf("failed to scan expense: %w", err)
			}
			expense.CreatedAt = fromMillis(createdAt)
			expense.UpdatedAt = fromMillis(updatedAt)
			expenses = append(expenses, expense)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	return expenses, nil
}

// UpdateExpense writes payer, name and amount.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	return s.run(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx,
			`UPDATE expenses SET person_id = ?, name = ?, amount = ?, updated_at = ?
			 WHERE id = ? AND group_id = ?`,
			expense.PersonID, expense.Name, expense.Amount, toMillis(expense.UpdatedAt),
			expense.ID, expense.GroupID,
		)
		if err != nil {
			return wrapErr("failed to update expense", err)
		}
		return expectAffected(res, "failed to update expense")
	})
}

// DeleteExpense removes an expense.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	return s.run(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete expense: %w", err)
		}
		return expectAffected(res, "failed to delete expense")
	})
}
