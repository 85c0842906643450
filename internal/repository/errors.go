// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as the
// service and handlers to distinguish between different failure
// scenarios. For example, ErrUnavailable indicates that a resource has
// no free capacity at allocation time, while ErrSessionClosed signals
// that a settlement was attempted on a session that already reached its
// terminal state.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a mutation cannot be performed
// because of conflicting state, such as deleting a facility that
// still has open sessions or checking in while another session is
// already open. Handlers should translate this into an HTTP 409
// response.
var ErrConflict = errors.New("conflict")

// ErrUnavailable is returned by the capacity stores when a facility
// has zero free spaces or a spot is already occupied. It is distinct
// from ErrConflict so callers can tell "pick another resource" apart
// from "you already have a session".
var ErrUnavailable = errors.New("no capacity available")

// ErrSessionClosed is returned when settlement is attempted on a
// session whose exit time is already set. The session and the
// capacity counters are left untouched.
var ErrSessionClosed = errors.New("session already closed")

// ErrFacilityNotFound is returned when a facility ID does not exist.
var ErrFacilityNotFound = errors.New("facility not found")

// ErrSpotNotFound is returned when a spot ID does not exist.
var ErrSpotNotFound = errors.New("spot not found")

// ErrSessionNotFound is returned when a session ID does not exist.
var ErrSessionNotFound = errors.New("session not found")
