package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/groupexpenses/internal/models"
)

// CreatePerson persists a new person.
// Returns storage.ErrAlreadyExists if the group already has a person of that name.
func (s *SQLiteStore) CreatePerson(ctx context.Context, person *models.Person) error {
	return s.run(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx,
			`INSERT INTO persons (id, group_id, name, resources, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			person.ID, person.GroupID, person.Name, person.Resources,
			toMillis(person.CreatedAt), toMillis(person.UpdatedAt),
		)
		if err != nil {
			return wrapErr("failed to insert person", err)
		}
		return nil
	})
}

// ListPersonsByGroup retrieves the persons of a group in insertion order.
func (s *SQLiteStore) ListPersonsByGroup(ctx context.Context, groupID uuid.UUID) ([]*models.Person, error) {
	var persons []*models.Person
	err := s.run(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx,
			`SELECT id, group_id, name, resources, created_at, updated_at
			 FROM persons WHERE group_id = ?
			 ORDER BY created_at, rowid`,
			groupID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			person := &models.Person{}
			var createdAt, updatedAt int64
			if err := rows.Scan(&person.ID, &person.GroupID, &person.Name, &person.Resources, &createdAt, &updatedAt); err != nil {
				return fmt.Errorf("failed to scan person: %w", err)
			}
			person.CreatedAt = fromMillis(createdAt)
			person.UpdatedAt = fromMillis(updatedAt)
			persons = append(persons, person)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list persons: %w", err)
	}
	return persons, nil
}

// UpdatePerson writes name and resources. The owning group never changes.
func (s *SQLiteStore) UpdatePerson(ctx context.Context, person *models.Person) error {
	return s.run(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx,
			`UPDATE persons SET name = ?, resources = ?, updated_at = ? WHERE id = ? AND group_id = ?`,
			person.Name, person.Resources, toMillis(person.UpdatedAt), person.ID, person.GroupID,
		)
		if err != nil {
			return wrapErr("failed to update person", err)
		}
		return expectAffected(res, "failed to update person")
	})
}

// DeletePerson removes a person; their expenses cascade.
func (s *SQLiteStore) DeletePerson(ctx context.Context, id uuid.UUID) error {
	return s.run(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `DELETE FROM persons WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete person: %w", err)
		}
		return expectAffected(res, "failed to delete person")
	})
}
