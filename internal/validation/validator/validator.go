// Package validator checks enrollment identifiers. The format stage is a
// pure, fast syntactic check run on the submit path; everything else is a
// Validator implementation invoked only by the execution engine, where slow
// or remote lookups are acceptable.
package validator

import (
	"context"
	"errors"
	"fmt"

	enrollment "enrollcheck/internal/enrollment/store"
	id "enrollcheck/pkg/domain"
	dErrors "enrollcheck/pkg/domain-errors"
	"enrollcheck/pkg/platform/sentinel"
)

// Validator is the capability interface for the slow validation stages.
// A nil return means the subject passed. Failures carry a code:
// CodeNotFound and CodeValidationFailed are definitive and never retried;
// CodeUnavailable is transient and retried by the engine.
type Validator interface {
	Validate(ctx context.Context, subject id.SubjectID) error
}

// Func adapts a plain function to the Validator interface. External
// validation hooks plug in this way.
type Func func(ctx context.Context, subject id.SubjectID) error

func (f Func) Validate(ctx context.Context, subject id.SubjectID) error {
	return f(ctx, subject)
}

// CheckFormat enforces the canonical UUID shape: 36 characters,
// 8-4-4-4-12 hex groups. Malformed input fails fast with CodeInvalidFormat
// and never reaches a store.
func CheckFormat(raw string) (id.SubjectID, error) {
	if len(raw) != 36 {
		return id.SubjectID{}, dErrors.New(dErrors.CodeInvalidFormat,
			fmt.Sprintf("subject id must be 36 characters, got %d", len(raw)))
	}
	return id.ParseSubjectID(raw)
}

// Format re-runs the syntactic check and nothing else. Useful when the
// deployment has no reachable record store.
type Format struct{}

func (Format) Validate(_ context.Context, subject id.SubjectID) error {
	if subject.IsNil() {
		return dErrors.New(dErrors.CodeInvalidFormat, "subject id is nil")
	}
	return nil
}

// Existence checks that the subject is present in the enrollment record
// store. Absence is a definitive outcome, not an infrastructure failure.
type Existence struct {
	records enrollment.Store
}

func NewExistence(records enrollment.Store) *Existence {
	return &Existence{records: records}
}

func (v *Existence) Validate(ctx context.Context, subject id.SubjectID) error {
	exists, err := v.records.Exists(ctx, subject)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "enrollment store unreachable")
	}
	if !exists {
		return dErrors.New(dErrors.CodeNotFound,
			fmt.Sprintf("enrollment %s not found", subject))
	}
	return nil
}

// RecordCheck fetches the full enrollment record and validates its content:
// the record must be verified and carry at least one student. This is the
// deep-document stage.
type RecordCheck struct {
	records enrollment.Store
}

func NewRecordCheck(records enrollment.Store) *RecordCheck {
	return &RecordCheck{records: records}
}

func (v *RecordCheck) Validate(ctx context.Context, subject id.SubjectID) error {
	rec, err := v.records.FindByUUID(ctx, subject)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound,
			fmt.Sprintf("enrollment %s not found", subject))
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "enrollment store unreachable")
	}
	if !rec.Verified {
		return dErrors.New(dErrors.CodeValidationFailed, "enrollment record is not verified")
	}
	if rec.StudentCount < 1 {
		return dErrors.New(dErrors.CodeValidationFailed, "enrollment record has no students")
	}
	return nil
}

// Chain runs validators in order and stops at the first failure.
type Chain []Validator

func (c Chain) Validate(ctx context.Context, subject id.SubjectID) error {
	for _, v := range c {
		if err := v.Validate(ctx, subject); err != nil {
			return err
		}
	}
	return nil
}

// Mode selects which stages a deployment runs.
type Mode string

const (
	ModeFormat    Mode = "format"
	ModeExistence Mode = "existence"
	ModeRecord    Mode = "record"
)

// ForMode builds the validator chain for a configured mode.
func ForMode(mode Mode, records enrollment.Store) (Validator, error) {
	switch mode {
	case ModeFormat:
		return Format{}, nil
	case ModeExistence:
		return Chain{Format{}, NewExistence(records)}, nil
	case ModeRecord:
		return Chain{Format{}, NewRecordCheck(records)}, nil
	default:
		return nil, fmt.Errorf("unknown validator mode %q", mode)
	}
}
