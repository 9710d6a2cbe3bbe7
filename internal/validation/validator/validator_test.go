package validator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	enrollmodels "enrollcheck/internal/enrollment/models"
	enrollment "enrollcheck/internal/enrollment/store"
	id "enrollcheck/pkg/domain"
	dErrors "enrollcheck/pkg/domain-errors"
)

func TestCheckFormat(t *testing.T) {
	t.Run("accepts canonical UUID", func(t *testing.T) {
		raw := "387ec43c-6280-11f0-9d8d-4b43610f4997"
		sid, err := CheckFormat(raw)
		require.NoError(t, err)
		assert.Equal(t, raw, sid.String())
	})

	cases := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"too short", "387ec43c-6280-11f0-9d8d"},
		{"not hex", "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz"},
		{"no hyphens", "387ec43c628011f09d8d4b43610f4997"},
		{"nil uuid", "00000000-0000-0000-0000-000000000000"},
		{"trailing garbage", "387ec43c-6280-11f0-9d8d-4b43610f4997x"},
		{"braced", "{387ec43c-6280-11f0-9d8d-4b43610f49}"},
	}
	for _, tc := range cases {
		t.Run("rejects "+tc.name, func(t *testing.T) {
			_, err := CheckFormat(tc.raw)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidFormat),
				"expected INVALID_FORMAT, got %v", err)
		})
	}
}

func seedRecord(t *testing.T, store *enrollment.InMemory, verified bool, students int) id.SubjectID {
	t.Helper()
	sid := id.SubjectID(uuid.New())
	store.Put(&enrollmodels.Enrollment{
		SubjectID:    sid,
		Email:        "school@example.edu",
		StudentCount: students,
		Verified:     verified,
		CreatedAt:    time.Now().UTC(),
	})
	return sid
}

func TestExistence(t *testing.T) {
	ctx := context.Background()
	store := enrollment.NewInMemory()
	known := seedRecord(t, store, true, 3)

	v := NewExistence(store)

	t.Run("known subject passes", func(t *testing.T) {
		require.NoError(t, v.Validate(ctx, known))
	})

	t.Run("unknown subject is a definitive not found", func(t *testing.T) {
		err := v.Validate(ctx, id.SubjectID(uuid.New()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
		assert.False(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
	})
}

func TestRecordCheck(t *testing.T) {
	ctx := context.Background()
	store := enrollment.NewInMemory()
	good := seedRecord(t, store, true, 2)
	unverified := seedRecord(t, store, false, 2)
	empty := seedRecord(t, store, true, 0)

	v := NewRecordCheck(store)

	t.Run("verified record with students passes", func(t *testing.T) {
		require.NoError(t, v.Validate(ctx, good))
	})

	t.Run("unverified record fails definitively", func(t *testing.T) {
		err := v.Validate(ctx, unverified)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidationFailed))
	})

	t.Run("record without students fails definitively", func(t *testing.T) {
		err := v.Validate(ctx, empty)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidationFailed))
	})

	t.Run("missing record maps to not found", func(t *testing.T) {
		err := v.Validate(ctx, id.SubjectID(uuid.New()))
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func TestChain_StopsAtFirstFailure(t *testing.T) {
	ctx := context.Background()
	sentinelErr := dErrors.New(dErrors.CodeValidationFailed, "first stage failed")

	var secondCalled bool
	chain := Chain{
		Func(func(context.Context, id.SubjectID) error { return sentinelErr }),
		Func(func(context.Context, id.SubjectID) error {
			secondCalled = true
			return nil
		}),
	}

	err := chain.Validate(ctx, id.SubjectID(uuid.New()))
	assert.True(t, errors.Is(err, sentinelErr) || err == sentinelErr)
	assert.False(t, secondCalled)
}

func TestForMode(t *testing.T) {
	store := enrollment.NewInMemory()

	for _, mode := range []Mode{ModeFormat, ModeExistence, ModeRecord} {
		v, err := ForMode(mode, store)
		require.NoError(t, err, string(mode))
		require.NotNil(t, v)
	}

	_, err := ForMode("deep", store)
	require.Error(t, err)
}
