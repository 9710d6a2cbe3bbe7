//go:build integration

package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"enrollcheck/internal/enrollment/store"
	id "enrollcheck/pkg/domain"
	"enrollcheck/pkg/platform/sentinel"
	"enrollcheck/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.Require().NoError(store.EnsureSchema(context.Background(), s.postgres.DB))
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	err := s.postgres.TruncateTables(context.Background(), "enrollments")
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) insertEnrollment(subject uuid.UUID, verified bool, students int) {
	s.T().Helper()
	_, err := s.postgres.DB.ExecContext(context.Background(), `
		INSERT INTO enrollments (subject_id, email, phone, student_count, verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, subject, "school@example.edu", "+1-555-0101", students, verified, time.Now().UTC())
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestExists() {
	ctx := context.Background()
	subject := uuid.New()
	s.insertEnrollment(subject, true, 2)

	exists, err := s.store.Exists(ctx, id.SubjectID(subject))
	s.Require().NoError(err)
	s.True(exists)

	exists, err = s.store.Exists(ctx, id.SubjectID(uuid.New()))
	s.Require().NoError(err)
	s.False(exists)
}

func (s *PostgresStoreSuite) TestFindByUUID() {
	ctx := context.Background()
	subject := uuid.New()
	s.insertEnrollment(subject, false, 3)

	rec, err := s.store.FindByUUID(ctx, id.SubjectID(subject))
	s.Require().NoError(err)
	s.Equal(id.SubjectID(subject), rec.SubjectID)
	s.Equal("school@example.edu", rec.Email)
	s.Equal(3, rec.StudentCount)
	s.False(rec.Verified)
	s.False(rec.CreatedAt.IsZero())
}

func (s *PostgresStoreSuite) TestFindByUUIDNotFound() {
	_, err := s.store.FindByUUID(context.Background(), id.SubjectID(uuid.New()))
	s.Require().Error(err)
	s.True(errors.Is(err, sentinel.ErrNotFound))
}

func (s *PostgresStoreSuite) TestListUUIDs() {
	ctx := context.Background()

	uuids, err := s.store.ListUUIDs(ctx)
	s.Require().NoError(err)
	s.Empty(uuids)

	want := map[id.SubjectID]struct{}{}
	for i := 0; i < 4; i++ {
		subject := uuid.New()
		s.insertEnrollment(subject, true, 1)
		want[id.SubjectID(subject)] = struct{}{}
	}

	uuids, err = s.store.ListUUIDs(ctx)
	s.Require().NoError(err)
	s.Require().Len(uuids, len(want))
	for _, subject := range uuids {
		_, ok := want[subject]
		s.True(ok)
	}
}
