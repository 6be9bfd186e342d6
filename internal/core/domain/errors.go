package domain

import "errors"

var (
	// ErrNotFound means the targeted row does not exist for this owner.
	ErrNotFound = errors.New("record not found")

	// ErrInsufficientStock means the conditional decrement matched the item
	// but its quantity was below the requested amount.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrEmailTaken means the signup email is already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrConsistency means a multi-step write could not be completed as a
	// unit and was rolled back.
	ErrConsistency = errors.New("reconciliation could not be completed")
)
