package process

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"enrollcheck/internal/validation/models"
	id "enrollcheck/pkg/domain"
	"enrollcheck/pkg/platform/sentinel"
)

// Schema creates the validation_processes table. Applied by EnsureSchema on
// startup and by the integration test harness.
const Schema = `
CREATE TABLE IF NOT EXISTS validation_processes (
	process_id   UUID PRIMARY KEY,
	subject_id   UUID NOT NULL,
	status       TEXT NOT NULL,
	message      TEXT NOT NULL DEFAULT '',
	error_code   TEXT,
	error_reason TEXT,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS validation_processes_subject_idx
	ON validation_processes (subject_id);
`

// Postgres persists process records in PostgreSQL. UpdateStatus relies on a
// conditional UPDATE (WHERE status = expected) so the transition check is
// atomic with the read of the current status; concurrent claimers race on
// the row and exactly one wins.
type Postgres struct {
	db    *sql.DB
	clock func() time.Time
}

// PostgresOption configures a Postgres store.
type PostgresOption func(*Postgres)

// WithPostgresClock sets the clock function for testability.
func WithPostgresClock(clock func() time.Time) PostgresOption {
	return func(s *Postgres) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewPostgres(db *sql.DB, opts ...PostgresOption) *Postgres {
	s := &Postgres{db: db, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema applies the table definition. Idempotent.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("ensure process schema: %w", err)
	}
	return nil
}

func (s *Postgres) Create(ctx context.Context, subject id.SubjectID) (*models.ValidationProcess, error) {
	pid := id.NewProcessID()
	now := s.clock().UTC()

	query := `
		INSERT INTO validation_processes (process_id, subject_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $4)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(pid), uuid.UUID(subject), string(models.StatusPending), now)
	if err != nil {
		return nil, storeErr("create process", err)
	}

	return &models.ValidationProcess{
		ProcessID: pid,
		SubjectID: subject,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *Postgres) Fetch(ctx context.Context, processID id.ProcessID) (*models.ValidationProcess, error) {
	query := `
		SELECT process_id, subject_id, status, message, error_code, error_reason, created_at, updated_at
		FROM validation_processes
		WHERE process_id = $1
	`
	return s.scanProcess(s.db.QueryRowContext(ctx, query, uuid.UUID(processID)))
}

func (s *Postgres) UpdateStatus(ctx context.Context, processID id.ProcessID, tr Transition) (*models.ValidationProcess, error) {
	if !tr.From.CanTransitionTo(tr.To) {
		return nil, fmt.Errorf("transition %s->%s: %w", tr.From, tr.To, sentinel.ErrInvalidState)
	}

	var errCode, errReason sql.NullString
	if tr.Detail != nil {
		errCode = sql.NullString{String: tr.Detail.Code, Valid: true}
		errReason = sql.NullString{String: tr.Detail.Reason, Valid: true}
	}

	// GREATEST keeps updated_at monotonic even if this node's clock lags
	// the one that wrote created_at.
	query := `
		UPDATE validation_processes
		SET status = $3, message = $4, error_code = $5, error_reason = $6,
			updated_at = GREATEST(updated_at, $7)
		WHERE process_id = $1 AND status = $2
		RETURNING process_id, subject_id, status, message, error_code, error_reason, created_at, updated_at
	`
	row := s.db.QueryRowContext(ctx, query,
		uuid.UUID(processID), string(tr.From), string(tr.To), tr.Message,
		errCode, errReason, s.clock().UTC())

	p, err := s.scanProcess(row)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}

	// No row matched: either the id is unknown or another writer moved the
	// status first. Distinguish with a plain read.
	current, fetchErr := s.Fetch(ctx, processID)
	if fetchErr != nil {
		return nil, fetchErr
	}
	return nil, fmt.Errorf("process %s is %s, expected %s: %w",
		processID, current.Status, tr.From, sentinel.ErrInvalidState)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Postgres) scanProcess(row rowScanner) (*models.ValidationProcess, error) {
	var (
		pid, subject         uuid.UUID
		status, message      string
		errCode, errReason   sql.NullString
		createdAt, updatedAt time.Time
	)
	err := row.Scan(&pid, &subject, &status, &message, &errCode, &errReason, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("process: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, storeErr("scan process", err)
	}

	st, ok := models.ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("process %s has unknown status %q", pid, status)
	}

	p := &models.ValidationProcess{
		ProcessID: id.ProcessID(pid),
		SubjectID: id.SubjectID(subject),
		Status:    st,
		Message:   message,
		CreatedAt: createdAt.UTC(),
		UpdatedAt: updatedAt.UTC(),
	}
	if errCode.Valid || errReason.Valid {
		p.ErrorDetail = &models.ErrorDetail{Code: errCode.String, Reason: errReason.String}
	}
	return p, nil
}

// storeErr classifies driver failures as unavailable so the execution
// engine knows they are retryable. Constraint violations are not.
func storeErr(op string, err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return fmt.Errorf("%s: %w: %v", op, sentinel.ErrConflict, err)
	}
	return fmt.Errorf("%s: %w: %v", op, sentinel.ErrUnavailable, err)
}
