// Package process persists validation process records. The store is the
// single source of truth for process state: it serializes conflicting
// writes per process id through an atomic compare-and-set, so there is no
// global lock and last-writer-wins can never occur.
package process

import (
	"context"

	"enrollcheck/internal/validation/models"
	id "enrollcheck/pkg/domain"
)

// Transition is a requested status change, checked atomically against the
// persisted current status.
type Transition struct {
	From    models.Status
	To      models.Status
	Message string
	Detail  *models.ErrorDetail
}

// Store is the repository contract for validation processes.
//
// All implementations must be safe under concurrent invocation from
// multiple execution workers. Errors are reported through
// pkg/platform/sentinel: ErrNotFound for unknown ids, ErrInvalidState when
// the persisted status does not permit the requested transition, and
// ErrUnavailable when the backing store cannot be reached.
type Store interface {
	// Create allocates a fresh process id, persists a pending record, and
	// returns it. Never returns a half-initialized record.
	Create(ctx context.Context, subject id.SubjectID) (*models.ValidationProcess, error)

	// Fetch returns a point-in-time copy of the record. A reader observes
	// either the pre- or post-transition record, never a mix.
	Fetch(ctx context.Context, processID id.ProcessID) (*models.ValidationProcess, error)

	// UpdateStatus applies tr atomically: the transition check happens in
	// the same critical section (or conditional write) as the read of the
	// current status. Returns the updated record on success.
	UpdateStatus(ctx context.Context, processID id.ProcessID, tr Transition) (*models.ValidationProcess, error)
}
