package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"enrollcheck/internal/enrollment/models"
	id "enrollcheck/pkg/domain"
	"enrollcheck/pkg/platform/sentinel"
)

// Schema creates the enrollments table. In production this table is owned
// by the intake system; the definition here backs local development and the
// integration test harness.
const Schema = `
CREATE TABLE IF NOT EXISTS enrollments (
	subject_id    UUID PRIMARY KEY,
	email         TEXT NOT NULL DEFAULT '',
	phone         TEXT NOT NULL DEFAULT '',
	student_count INT NOT NULL DEFAULT 0,
	verified      BOOLEAN NOT NULL DEFAULT FALSE,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Postgres reads enrollment records from PostgreSQL.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// EnsureSchema applies the table definition. Idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure enrollment schema: %w", err)
	}
	return nil
}

func (s *Postgres) Exists(ctx context.Context, subject id.SubjectID) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM enrollments WHERE subject_id = $1)`
	if err := s.db.QueryRowContext(ctx, query, uuid.UUID(subject)).Scan(&exists); err != nil {
		return false, fmt.Errorf("enrollment exists: %w: %v", sentinel.ErrUnavailable, err)
	}
	return exists, nil
}

func (s *Postgres) FindByUUID(ctx context.Context, subject id.SubjectID) (*models.Enrollment, error) {
	query := `
		SELECT subject_id, email, phone, student_count, verified, created_at
		FROM enrollments
		WHERE subject_id = $1
	`
	var (
		subj         uuid.UUID
		email, phone string
		studentCount int
		verified     bool
		createdAt    time.Time
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(subject)).
		Scan(&subj, &email, &phone, &studentCount, &verified, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("enrollment %s: %w", subject, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find enrollment: %w: %v", sentinel.ErrUnavailable, err)
	}
	return &models.Enrollment{
		SubjectID:    id.SubjectID(subj),
		Email:        email,
		Phone:        phone,
		StudentCount: studentCount,
		Verified:     verified,
		CreatedAt:    createdAt.UTC(),
	}, nil
}

func (s *Postgres) ListUUIDs(ctx context.Context) ([]id.SubjectID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT subject_id FROM enrollments`)
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w: %v", sentinel.ErrUnavailable, err)
	}
	defer rows.Close()

	var uuids []id.SubjectID
	for rows.Next() {
		var subj uuid.UUID
		if err := rows.Scan(&subj); err != nil {
			return nil, fmt.Errorf("scan enrollment id: %w", err)
		}
		uuids = append(uuids, id.SubjectID(subj))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list enrollments: %w: %v", sentinel.ErrUnavailable, err)
	}
	return uuids, nil
}
