// Package repository defines error types that are reused across
// multiple repositories.  These sentinel values allow handlers to
// distinguish between different failure scenarios: ErrNotFound maps to
// a 404, the uniqueness violations to a 409, ErrInsufficientStock to a
// 400 carrying the available/requested amounts.
package repository

import "errors"

// ErrNotFound is returned when a referenced entity id does not resolve.
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when an insert or update would violate the
// unique email constraint on users.
var ErrEmailExists = errors.New("email already exists")

// ErrNameExists is returned when a catalog insert would violate the
// unique service type name constraint.
var ErrNameExists = errors.New("name already exists")

// ErrInsufficientStock is returned when a consumption asks for more
// units than an inventory item holds.  The conditional decrement leaves
// the row untouched in that case.
var ErrInsufficientStock = errors.New("insufficient stock")
