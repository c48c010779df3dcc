package models

import (
	"time"

	"github.com/google/uuid"
)

// Expense is an amount paid by one person on behalf of a group.
type Expense struct {
	ID      uuid.UUID
	GroupID uuid.UUID

	// PersonID is the person who paid. Must belong to GroupID.
	PersonID uuid.UUID

	Name string

	// Amount is expressed in the smallest currency unit. Always >= 1.
	Amount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewExpense creates an expense paid by personID in groupID.
func NewExpense(groupID, personID uuid.UUID, name string, amount int) *Expense {
	now := time.Now().UTC()
	return &Expense{
		ID:        uuid.New(),
		GroupID:   groupID,
		PersonID:  personID,
		Name:      name,
		Amount:    amount,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
