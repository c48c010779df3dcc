package models

import (
	"time"

	"github.com/google/uuid"
)

// Person is a member of a group who can incur expenses.
type Person struct {
	ID      uuid.UUID
	GroupID uuid.UUID

	// Name is unique among the persons of the same group.
	Name string

	// Resources weights the person's share of the group's expenses
	// (e.g., monthly income). Never negative.
	Resources int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPerson creates a person in groupID.
func NewPerson(groupID uuid.UUID, name string, resources int) *Person {
	now := time.Now().UTC()
	return &Person{
		ID:        uuid.New(),
		GroupID:   groupID,
		Name:      name,
		Resources: resources,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
