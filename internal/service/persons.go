package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/mmynk/groupexpenses/internal/models"
	"github.com/mmynk/groupexpenses/internal/storage"
)

// AddPersonInput carries the arguments of addPerson.
type AddPersonInput struct {
	GroupID   string
	Name      string
	Resources int
}

// UpdatePersonInput carries the optional fields of updatePerson. Nil fields
// are left unchanged.
type UpdatePersonInput struct {
	GroupID   string
	ID        string
	Name      *string
	Resources *int
}

// AddPerson adds a person to one of the viewer's groups.
func (r *Resolver) AddPerson(ctx context.Context, rc *RequestContext, in AddPersonInput) (*models.Person, error) {
	groupID, err := parseID(in.GroupID)
	if err != nil {
		return nil, err
	}
	if err := r.checkName(in.Name); err != nil {
		return nil, err
	}
	if err := r.checkResources(in.Resources); err != nil {
		return nil, err
	}

	var person *models.Person
	err = r.atomic(ctx, rc, "add person", NonUniqueName(in.Name), func(own *OwnershipResolver, tx storage.Store) error {
		group, err := own.GroupForViewer(ctx, rc.Viewer, groupID)
		if err != nil {
			return err
		}
		if err := own.EnsureUniquePersonName(ctx, group, in.Name, uuid.Nil); err != nil {
			return err
		}
		person = models.NewPerson(group.ID, in.Name, in.Resources)
		return tx.CreatePerson(ctx, person)
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Person created", "group_id", groupID, "person_id", person.ID)
	return person, nil
}

// UpdatePerson changes the name and/or resources of a person.
func (r *Resolver) UpdatePerson(ctx context.Context, rc *RequestContext, in UpdatePersonInput) (*models.Person, error) {
	groupID, err := parseID(in.GroupID)
	if err != nil {
		return nil, err
	}
	personID, err := parseID(in.ID)
	if err != nil {
		return nil, err
	}
	var conflict *Error
	if in.Name != nil {
		if err := r.checkName(*in.Name); err != nil {
			return nil, err
		}
		conflict = NonUniqueName(*in.Name)
	}
	if in.Resources != nil {
		if err := r.checkResources(*in.Resources); err != nil {
			return nil, err
		}
	}

	var person *models.Person
	err = r.atomic(ctx, rc, "update person", conflict, func(own *OwnershipResolver, tx storage.Store) error {
		group, err := own.GroupForViewer(ctx, rc.Viewer, groupID)
		if err != nil {
			return err
		}
		person, err = own.PersonInGroup(ctx, group, personID)
		if err != nil {
			return err
		}

		changed := false
		if in.Name != nil && *in.Name != person.Name {
			if err := own.EnsureUniquePersonName(ctx, group, *in.Name, person.ID); err != nil {
				return err
			}
			person.Name = *in.Name
			changed = true
		}
		if in.Resources != nil && *in.Resources != person.Resources {
			person.Resources = *in.Resources
			changed = true
		}
		if !changed {
			return nil
		}
		person.UpdatedAt = r.now()
		return tx.UpdatePerson(ctx, person)
	})
	if err != nil {
		return nil, err
	}
	return person, nil
}

// DeletePerson removes a person and their expenses.
func (r *Resolver) DeletePerson(ctx context.Context, rc *RequestContext, groupID, id string) (bool, error) {
	gid, err := parseID(groupID)
	if err != nil {
		return false, err
	}
	personID, err := parseID(id)
	if err != nil {
		return false, err
	}

	err = r.atomic(ctx, rc, "delete person", nil, func(own *OwnershipResolver, tx storage.Store) error {
		group, err := own.GroupForViewer(ctx, rc.Viewer, gid)
		if err != nil {
			return err
		}
		person, err := own.PersonInGroup(ctx, group, personID)
		if err != nil {
			return err
		}
		return tx.DeletePerson(ctx, person.ID)
	})
	if err != nil {
		return false, err
	}

	r.logger.Info("Person deleted", "group_id", gid, "person_id", personID)
	return true, nil
}
