// Package repository holds the MySQL data access for the church API. Every
// query on tenant data is filtered by church_id; a row of another church
// behaves exactly like a missing row.
package repository

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when no row matches inside the caller's church.
// Handlers translate it into an HTTP 404 response.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller's church role does not allow the
// operation. Handlers translate this into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrNotMember is returned when a user tries to act within a church they do
// not belong to. Handlers translate it into an HTTP 403 response.
var ErrNotMember = errors.New("not a member of this church")

// ErrConflict is returned when a write cannot be performed because of
// conflicting state, such as deleting a ministry that still owns
// activities. Handlers translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned when registering an address already in use.
var ErrEmailExists = errors.New("email already exists")

// isDuplicate reports a MySQL duplicate key error (1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}

// isForeignKey reports a MySQL foreign key violation (1451 on delete of a
// referenced row, 1452 on insert of a dangling reference).
func isForeignKey(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "1451") || strings.Contains(s, "1452")
}
