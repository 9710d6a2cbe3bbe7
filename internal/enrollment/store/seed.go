package store

import (
	"time"

	"github.com/google/uuid"

	"enrollcheck/internal/enrollment/models"
	id "enrollcheck/pkg/domain"
)

// SeedDemoEnrollments loads a handful of records into an in-memory store so
// the service can run end to end without an intake system. Returns the
// seeded subject ids.
func SeedDemoEnrollments(s *InMemory) []id.SubjectID {
	now := time.Now().UTC()
	seeds := []*models.Enrollment{
		{
			SubjectID:    id.SubjectID(uuid.MustParse("387ec43c-6280-11f0-9d8d-4b43610f4997")),
			Email:        "alishba.tasleem+1@clickchain.com",
			Phone:        "+1-555-0101",
			StudentCount: 2,
			Verified:     true,
			CreatedAt:    now,
		},
		{
			SubjectID:    id.SubjectID(uuid.MustParse("550e8400-e29b-41d4-a716-446655440000")),
			Email:        "demo.family@example.com",
			Phone:        "+1-555-0102",
			StudentCount: 1,
			Verified:     true,
			CreatedAt:    now,
		},
		{
			SubjectID:    id.SubjectID(uuid.MustParse("9b2f2c64-1faa-4f68-9c9e-0d1f6f3a8b21")),
			Email:        "pending.review@example.com",
			Phone:        "+1-555-0103",
			StudentCount: 3,
			Verified:     false,
			CreatedAt:    now,
		},
	}

	ids := make([]id.SubjectID, 0, len(seeds))
	for _, rec := range seeds {
		s.Put(rec)
		ids = append(ids, rec.SubjectID)
	}
	return ids
}
