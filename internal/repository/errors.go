// Package repository defines the persistence layer over the document store
// together with sentinel errors shared by its implementations.  Handlers
// compare against these sentinels to pick the HTTP status: ErrEmailExists
// becomes a 401, ErrNotFound a 401/404 depending on the endpoint.
package repository

import "errors"

// ErrEmailExists is returned when a user document with the same email is
// already present.  The unique index on users.email makes the insert fail
// even when two registrations race past the duplicate pre-check.
var ErrEmailExists = errors.New("email already exists")

// ErrNotFound is returned when no document matches the lookup.
var ErrNotFound = errors.New("not found")
