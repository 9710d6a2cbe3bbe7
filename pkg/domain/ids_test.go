package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "enrollcheck/pkg/domain-errors"
)

// TestParseUUID_Invariants validates the parsing invariant:
// "IDs must be valid, non-empty, non-nil UUIDs"
func TestParseUUID_Invariants(t *testing.T) {
	t.Run("rejects empty string", func(t *testing.T) {
		_, err := ParseProcessID("")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects invalid format", func(t *testing.T) {
		_, err := ParseProcessID("not-a-uuid")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("rejects nil UUID", func(t *testing.T) {
		_, err := ParseProcessID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	t.Run("accepts valid UUID", func(t *testing.T) {
		validUUID := uuid.New()
		pid, err := ParseProcessID(validUUID.String())
		require.NoError(t, err)
		assert.Equal(t, ProcessID(validUUID), pid)
	})
}

// TestParseSubjectID_FormatCode verifies subject id parsing reports the
// format error class callers reject submissions with.
func TestParseSubjectID_FormatCode(t *testing.T) {
	t.Run("malformed input carries invalid format code", func(t *testing.T) {
		_, err := ParseSubjectID("387ec43c-6280-11f0-9d8d")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidFormat))
	})

	t.Run("nil UUID carries invalid format code", func(t *testing.T) {
		_, err := ParseSubjectID(uuid.Nil.String())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidFormat))
	})

	t.Run("valid UUID round-trips", func(t *testing.T) {
		raw := "387ec43c-6280-11f0-9d8d-4b43610f4997"
		sid, err := ParseSubjectID(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, sid.String())
	})
}

// TestTypeDistinction verifies the compiler enforces type safety.
// This is a compile-time check - if this compiles, the invariant holds.
func TestTypeDistinction(t *testing.T) {
	processID := ProcessID(uuid.New())
	subjectID := SubjectID(uuid.New())

	// These would fail to compile if types were interchangeable:
	// var _ ProcessID = subjectID   // compile error
	// var _ SubjectID = processID   // compile error

	// Verify they're distinct at runtime too
	assert.NotEqual(t, uuid.UUID(processID), uuid.UUID(subjectID))
}

func TestNewProcessID_Unique(t *testing.T) {
	seen := make(map[ProcessID]struct{}, 100)
	for i := 0; i < 100; i++ {
		pid := NewProcessID()
		assert.False(t, pid.IsNil())
		_, dup := seen[pid]
		assert.False(t, dup, "process id generated twice")
		seen[pid] = struct{}{}
	}
}
