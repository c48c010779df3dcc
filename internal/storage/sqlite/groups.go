package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/groupexpenses/internal/models"
)

// CreateGroup persists a new group.
// Returns storage.ErrAlreadyExists if the owner already has a group of that name.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	return s.run(ctx, func(q querier) error {
		_, err := q.ExecContext(ctx,
			`INSERT INTO groups (id, user_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
			group.ID, group.UserID, group.Name, toMillis(group.CreatedAt), toMillis(group.UpdatedAt),
		)
		if err != nil {
			return wrapErr("failed to insert group", err)
		}
		return nil
	})
}

// ListGroupsByUser retrieves all groups owned by a user, oldest first.
func (s *SQLiteStore) ListGroupsByUser(ctx context.Context, userID uuid.UUID) ([]*models.Group, error) {
	var groups []*models.Group
	err := s.run(ctx, func(q querier) error {
		rows, err := q.QueryContext(ctx,
			`SELECT id, user_id, name, created_at, updated_at
			 FROM groups WHERE user_id = ?
			 ORDER BY created_at, rowid`,
			userID,
		)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			group := &models.Group{}
			var createdAt, updatedAt int64
			if err := rows.Scan(&group.ID, &group.UserID, &group.Name, &createdAt, &updatedAt); err != nil {
				return fmt.Errorf("failed to scan group: %w", err)
			}
			group.CreatedAt = fromMillis(createdAt)
			group.UpdatedAt = fromMillis(updatedAt)
			groups = append(groups, group)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// UpdateGroup renames a group.
func (s *SQLiteStore) UpdateGroup(ctx context.Context, group *models.Group) error {
	return s.run(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx,
			`UPDATE groups SET name = ?, updated_at = ? WHERE id = ?`,
			group.Name, toMillis(group.UpdatedAt), group.ID,
		)
		if err != nil {
			return wrapErr("failed to update group", err)
		}
		return expectAffected(res, "failed to update group")
	})
}

// DeleteGroup removes a group; persons and expenses cascade.
func (s *SQLiteStore) DeleteGroup(ctx context.Context, id uuid.UUID) error {
	return s.run(ctx, func(q querier) error {
		res, err := q.ExecContext(ctx, `DELETE FROM groups WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}
		return expectAffected(res, "failed to delete group")
	})
}
