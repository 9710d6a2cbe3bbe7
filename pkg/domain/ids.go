// Package domain holds typed identifiers shared across modules. Wrapping
// uuid.UUID in distinct named types means a process id can never be passed
// where a subject id is expected; the compiler enforces it.
package domain

import (
	"github.com/google/uuid"

	dErrors "enrollcheck/pkg/domain-errors"
)

// ProcessID identifies one tracked validation process. Generated at
// creation, immutable, and the sole lookup key for status queries.
type ProcessID uuid.UUID

// SubjectID identifies the enrollment record being validated.
type SubjectID uuid.UUID

// NewProcessID allocates a fresh process identifier.
func NewProcessID() ProcessID {
	return ProcessID(uuid.New())
}

// ParseProcessID validates and returns a ProcessID. IDs must be valid,
// non-empty, non-nil UUIDs.
func ParseProcessID(s string) (ProcessID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return ProcessID{}, err
	}
	return ProcessID(u), nil
}

// ParseSubjectID validates and returns a SubjectID. The syntactic shape is
// the canonical UUID string; anything else fails fast with
// CodeInvalidFormat before touching any store.
func ParseSubjectID(s string) (SubjectID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return SubjectID{}, dErrors.Wrap(err, dErrors.CodeInvalidFormat, "subject id must be a canonical UUID")
	}
	return SubjectID(u), nil
}

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id cannot be the nil UUID")
	}
	return u, nil
}

func (p ProcessID) String() string { return uuid.UUID(p).String() }
func (p ProcessID) IsNil() bool    { return uuid.UUID(p) == uuid.Nil }

func (s SubjectID) String() string { return uuid.UUID(s).String() }
func (s SubjectID) IsNil() bool    { return uuid.UUID(s) == uuid.Nil }
