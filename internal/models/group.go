package models

import (
	"time"

	"github.com/google/uuid"
)

// DefaultGroupName is the name of the group created alongside every new user.
const DefaultGroupName = "Default"

// Group is a set of persons sharing expenses, owned by a single user.
type Group struct {
	// ID is the unique identifier for the group.
	ID uuid.UUID

	// UserID is the owning user.
	UserID uuid.UUID

	// Name is the display name (e.g., "Roommates", "Trip").
	// Unique among the groups of the same user.
	Name string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewGroup creates a group owned by userID.
func NewGroup(userID uuid.UUID, name string) *Group {
	now := time.Now().UTC()
	return &Group{
		ID:        uuid.New(),
		UserID:    userID,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
