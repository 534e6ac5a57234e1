// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrForbidden indicates that the current user is not
// authorized to operate on a room owned by someone else, while
// ErrConflict signals that a write clashes with existing data (e.g. a
// roster listing the same person twice).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a write cannot be performed because
// of conflicting state. Handlers should translate this into an HTTP
// 409 response.
var ErrConflict = errors.New("conflict")
