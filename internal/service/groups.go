package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmynk/groupexpenses/internal/models"
	"github.com/mmynk/groupexpenses/internal/storage"
)

// UpdateGroupInput carries the optional fields of updateGroup. Nil fields
// are left unchanged.
type UpdateGroupInput struct {
	ID   string
	Name *string
}

// Group returns one of the viewer's groups.
func (r *Resolver) Group(ctx context.Context, rc *RequestContext, id string) (*models.Group, error) {
	groupID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	group, err := rc.Owned().GroupForViewer(ctx, rc.Viewer, groupID)
	if err != nil {
		return nil, r.fail("group", err)
	}
	return group, nil
}

// AddGroup creates a group owned by the viewer.
func (r *Resolver) AddGroup(ctx context.Context, rc *RequestContext, name string) (*models.Group, error) {
	if err := r.checkName(name); err != nil {
		return nil, err
	}

	var group *models.Group
	err := r.atomic(ctx, rc, "add group", NonUniqueName(name), func(own *OwnershipResolver, tx storage.Store) error {
		user, err := own.ViewerUser(ctx, rc.Viewer)
		if err != nil {
			return err
		}
		if err := own.EnsureUniqueGroupName(ctx, rc.Viewer, name, uuid.Nil); err != nil {
			return err
		}
		group = models.NewGroup(user.ID, name)
		return tx.CreateGroup(ctx, group)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Group created", "group_id", group.ID)
	return group, nil
}

// UpdateGroup renames one of the viewer's groups.
func (r *Resolver) UpdateGroup(ctx context.Context, rc *RequestContext, in UpdateGroupInput) (*models.Group, error) {
	groupID, err := parseID(in.ID)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if err := r.checkName(*in.Name); err != nil {
			return nil, err
		}
	}

	var conflict *Error
	if in.Name != nil {
		conflict = NonUniqueName(*in.Name)
	}

	var group *models.Group
	err = r.atomic(ctx, rc, "update group", conflict, func(own *OwnershipResolver, tx storage.Store) error {
		var err error
		group, err = own.GroupForViewer(ctx, rc.Viewer, groupID)
		if err != nil {
			return err
		}
		if in.Name == nil || *in.Name == group.Name {
			return nil
		}
		if err := own.EnsureUniqueGroupName(ctx, rc.Viewer, *in.Name, group.ID); err != nil {
			return err
		}
		group.Name = *in.Name
		group.UpdatedAt = r.now()
		return tx.UpdateGroup(ctx, group)
	})
	if err != nil {
		return nil, err
	}
	return group, nil
}

// DeleteGroup removes one of the viewer's groups with its persons and expenses.
func (r *Resolver) DeleteGroup(ctx context.Context, rc *RequestContext, id string) (bool, error) {
	groupID, err := parseID(id)
	if err != nil {
		return false, err
	}

	err = r.atomic(ctx, rc, "delete group", nil, func(own *OwnershipResolver, tx storage.Store) error {
		group, err := own.GroupForViewer(ctx, rc.Viewer, groupID)
		if err != nil {
			return err
		}
		return tx.DeleteGroup(ctx, group.ID)
	})
	if err != nil {
		return false, err
	}

	r.logger.Info("Group deleted", "group_id", groupID)
	return true, nil
}
