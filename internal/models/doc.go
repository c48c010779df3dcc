// Package models defines the core domain records of the group expenses API.
//
// # Ownership
//
// Records form a strict ownership tree:
//
//	User ⊃ Group ⊃ Person ⊃ Expense
//
// An Expense also references the Person who incurred it, but authorization is
// always anchored at the Group: a record is visible to a viewer only when its
// group belongs to that viewer.
//
// # Design Principles
//
//  1. Relationships are expressed with UUID foreign keys, never pointers.
//  2. Records carry no behaviour; validation and ownership checks live in the
//     service layer.
//  3. No record outlives its ancestor: storage cascades deletes down the tree.
package models
