// Package store provides read access to enrollment records.
package store

import (
	"context"

	"enrollcheck/internal/enrollment/models"
	id "enrollcheck/pkg/domain"
)

// Store is the read contract for enrollment records. Lookups may be slow or
// remote, so they are invoked only from the execution engine, never on the
// submit path.
//
// Unknown subjects are reported with sentinel.ErrNotFound; unreachable
// backends with sentinel.ErrUnavailable.
type Store interface {
	Exists(ctx context.Context, subject id.SubjectID) (bool, error)
	FindByUUID(ctx context.Context, subject id.SubjectID) (*models.Enrollment, error)
	ListUUIDs(ctx context.Context) ([]id.SubjectID, error)
}
