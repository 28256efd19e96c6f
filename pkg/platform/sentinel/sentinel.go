// Package sentinel holds the storage facts stores report to services.
// Services translate them into domain errors; handlers never see them.
package sentinel

import "errors"

var (
	// ErrNotFound means no row or key matched the lookup.
	ErrNotFound = errors.New("record not found")
	// ErrConflict means a uniqueness rule or a guarded update rejected the
	// write, for example a second open visit for the same member.
	ErrConflict = errors.New("write conflict")
)
