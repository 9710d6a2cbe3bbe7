package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	enrollmodels "enrollcheck/internal/enrollment/models"
	enrollment "enrollcheck/internal/enrollment/store"
	"enrollcheck/internal/validation/engine"
	"enrollcheck/internal/validation/models"
	"enrollcheck/internal/validation/store/process"
	"enrollcheck/internal/validation/validator"
	id "enrollcheck/pkg/domain"
	dErrors "enrollcheck/pkg/domain-errors"
)

// dispatcherFunc adapts a function to the Dispatcher interface.
type dispatcherFunc func(processID id.ProcessID, subject id.SubjectID) error

func (f dispatcherFunc) Enqueue(processID id.ProcessID, subject id.SubjectID) error {
	return f(processID, subject)
}

func noopDispatcher() Dispatcher {
	return dispatcherFunc(func(id.ProcessID, id.SubjectID) error { return nil })
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(nil, noopDispatcher())
	require.Error(t, err)

	_, err = New(process.NewInMemory(), nil)
	require.Error(t, err)

	svc, err := New(process.NewInMemory(), noopDispatcher())
	require.NoError(t, err)
	require.NotNil(t, svc)
}

func TestSubmit_InvalidFormatCreatesNoRecord(t *testing.T) {
	store := process.NewInMemory()
	var enqueued int
	svc, err := New(store, dispatcherFunc(func(id.ProcessID, id.SubjectID) error {
		enqueued++
		return nil
	}))
	require.NoError(t, err)

	for _, raw := range []string{"", "abc", "387ec43c-6280-11f0-9d8d", "387ec43c628011f09d8d4b43610f4997"} {
		_, err := svc.Submit(context.Background(), raw)
		require.Error(t, err, raw)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidFormat), raw)
	}
	assert.Zero(t, enqueued, "malformed submissions must never reach the engine")
}

func TestSubmit_ReturnsPendingRecord(t *testing.T) {
	store := process.NewInMemory()
	svc, err := New(store, noopDispatcher())
	require.NoError(t, err)

	subject := uuid.NewString()
	p, err := svc.Submit(context.Background(), subject)
	require.NoError(t, err)

	assert.False(t, p.ProcessID.IsNil())
	assert.Equal(t, subject, p.SubjectID.String())
	assert.Equal(t, models.StatusPending, p.Status)
	assert.False(t, p.CreatedAt.IsZero())
}

func TestSubmit_AssignsUniqueProcessIDs(t *testing.T) {
	svc, err := New(process.NewInMemory(), noopDispatcher())
	require.NoError(t, err)

	subject := uuid.NewString()
	first, err := svc.Submit(context.Background(), subject)
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), subject)
	require.NoError(t, err)

	assert.NotEqual(t, first.ProcessID, second.ProcessID,
		"same subject may be validated concurrently under distinct process ids")
}

func TestSubmit_EnqueueFailureSurfacesUnavailable(t *testing.T) {
	store := process.NewInMemory()
	svc, err := New(store, dispatcherFunc(func(id.ProcessID, id.SubjectID) error {
		return dErrors.New(dErrors.CodeUnavailable, "execution queue is full")
	}))
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), uuid.NewString())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnavailable))
}

func TestGetStatus_UnknownAndMalformedIDs(t *testing.T) {
	svc, err := New(process.NewInMemory(), noopDispatcher())
	require.NoError(t, err)

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.GetStatus(context.Background(), uuid.NewString())
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	t.Run("malformed id reads as not found", func(t *testing.T) {
		_, err := svc.GetStatus(context.Background(), "not-a-process-id")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// LifecycleSuite runs the service against a real engine and in-memory
// stores, covering submit-to-terminal-state flows end to end.
type LifecycleSuite struct {
	suite.Suite

	records *enrollment.InMemory
	svc     *Service
	cancel  context.CancelFunc
	eng     *engine.Engine
}

func TestLifecycleSuite(t *testing.T) {
	suite.Run(t, new(LifecycleSuite))
}

func (s *LifecycleSuite) SetupTest() {
	store := process.NewInMemory()
	s.records = enrollment.NewInMemory()

	v, err := validator.ForMode(validator.ModeExistence, s.records)
	s.Require().NoError(err)

	s.eng = engine.New(store, v,
		engine.WithWorkers(2),
		engine.WithRetry(1, 5*time.Millisecond),
	)
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.eng.Start(ctx)

	svc, err := New(store, s.eng)
	s.Require().NoError(err)
	s.svc = svc
}

func (s *LifecycleSuite) TearDownTest() {
	s.cancel()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = s.eng.Stop(ctx)
}

func (s *LifecycleSuite) waitTerminal(processID string) *models.ValidationProcess {
	s.T().Helper()
	var final *models.ValidationProcess
	s.Require().Eventually(func() bool {
		p, err := s.svc.GetStatus(context.Background(), processID)
		if err != nil {
			return false
		}
		final = p
		return p.Status.Terminal()
	}, 3*time.Second, 10*time.Millisecond)
	return final
}

func (s *LifecycleSuite) TestKnownEnrollmentCompletes() {
	subject := uuid.New()
	s.records.Put(&enrollmodels.Enrollment{
		SubjectID:    id.SubjectID(subject),
		Email:        "school@example.edu",
		StudentCount: 12,
		Verified:     true,
		CreatedAt:    time.Now().UTC(),
	})

	p, err := s.svc.Submit(context.Background(), subject.String())
	s.Require().NoError(err)
	s.Equal(models.StatusPending, p.Status)

	final := s.waitTerminal(p.ProcessID.String())
	s.Equal(models.StatusCompleted, final.Status)
	s.Nil(final.ErrorDetail)
	s.False(final.UpdatedAt.Before(final.CreatedAt))
}

func (s *LifecycleSuite) TestUnknownEnrollmentFails() {
	p, err := s.svc.Submit(context.Background(), uuid.NewString())
	s.Require().NoError(err)

	final := s.waitTerminal(p.ProcessID.String())
	s.Equal(models.StatusFailed, final.Status)
	s.Require().NotNil(final.ErrorDetail)
	s.Equal(string(dErrors.CodeNotFound), final.ErrorDetail.Code)
}

func (s *LifecycleSuite) TestStatusNeverRegresses() {
	subject := uuid.New()
	s.records.Put(&enrollmodels.Enrollment{
		SubjectID:    id.SubjectID(subject),
		StudentCount: 1,
		Verified:     true,
		CreatedAt:    time.Now().UTC(),
	})

	p, err := s.svc.Submit(context.Background(), subject.String())
	s.Require().NoError(err)

	last := models.StatusPending
	s.Require().Eventually(func() bool {
		got, err := s.svc.GetStatus(context.Background(), p.ProcessID.String())
		if err != nil {
			return false
		}
		s.True(got.Status.AtLeast(last), "status went backward: %s after %s", got.Status, last)
		last = got.Status
		return got.Status.Terminal()
	}, 3*time.Second, 5*time.Millisecond)
}
