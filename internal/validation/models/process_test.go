package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "enrollcheck/pkg/domain"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to Status
		legal    bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusInProgress, StatusCompleted, true},
		{StatusInProgress, StatusFailed, true},

		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusFailed, false},
		{StatusPending, StatusPending, false},
		{StatusInProgress, StatusPending, false},
		{StatusInProgress, StatusInProgress, false},
		{StatusCompleted, StatusPending, false},
		{StatusCompleted, StatusInProgress, false},
		{StatusCompleted, StatusFailed, false},
		{StatusFailed, StatusPending, false},
		{StatusFailed, StatusInProgress, false},
		{StatusFailed, StatusCompleted, false},
	}

	for _, tc := range cases {
		name := string(tc.from) + "->" + string(tc.to)
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.legal, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusInProgress.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestAtLeast_Ordering(t *testing.T) {
	assert.True(t, StatusInProgress.AtLeast(StatusPending))
	assert.True(t, StatusCompleted.AtLeast(StatusInProgress))
	assert.True(t, StatusFailed.AtLeast(StatusInProgress))
	assert.True(t, StatusCompleted.AtLeast(StatusCompleted))

	assert.False(t, StatusPending.AtLeast(StatusInProgress))
	assert.False(t, StatusInProgress.AtLeast(StatusCompleted))
}

func TestParseStatus(t *testing.T) {
	for _, s := range []string{"pending", "in_progress", "completed", "failed"} {
		st, ok := ParseStatus(s)
		require.True(t, ok, s)
		assert.Equal(t, Status(s), st)
	}
	_, ok := ParseStatus("running")
	assert.False(t, ok)
}

func TestClone_Isolation(t *testing.T) {
	now := time.Now().UTC()
	original := &ValidationProcess{
		ProcessID: id.ProcessID(uuid.New()),
		SubjectID: id.SubjectID(uuid.New()),
		Status:    StatusFailed,
		CreatedAt: now,
		UpdatedAt: now,
		Message:   "validation failed: enrollment not found",
		ErrorDetail: &ErrorDetail{
			Code:   "NOT_FOUND",
			Reason: "enrollment not found",
		},
	}

	cp := original.Clone()
	require.NotSame(t, original, cp)
	assert.Equal(t, original, cp)

	cp.Status = StatusCompleted
	cp.ErrorDetail.Reason = "mutated"

	assert.Equal(t, StatusFailed, original.Status)
	assert.Equal(t, "enrollment not found", original.ErrorDetail.Reason)
}

func TestClone_Nil(t *testing.T) {
	var p *ValidationProcess
	assert.Nil(t, p.Clone())
}
