// Package sentinel defines the storage-level facts that stores report and
// services translate into domain errors. Input validation failures belong in
// pkg/domain-errors instead.
package sentinel

import "errors"

var (
	// ErrNotFound: no record with that identity.
	ErrNotFound = errors.New("not found")
	// ErrConflict: duplicate identity on insert, or the row changed since it
	// was read (optimistic concurrency on updated_at).
	ErrConflict = errors.New("conflict")
	// ErrUnavailable: an optional backend is down or its breaker is open.
	ErrUnavailable = errors.New("unavailable")
)
