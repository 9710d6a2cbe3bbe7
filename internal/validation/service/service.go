// Package service composes the identifier validator, process store, and
// execution engine into the public submit and query operations, and is the
// only place that decides which errors reach a caller synchronously.
package service

import (
	"context"
	"errors"
	"log/slog"

	valmetrics "enrollcheck/internal/validation/metrics"
	"enrollcheck/internal/validation/models"
	"enrollcheck/internal/validation/store/process"
	"enrollcheck/internal/validation/validator"
	id "enrollcheck/pkg/domain"
	dErrors "enrollcheck/pkg/domain-errors"
	"enrollcheck/pkg/platform/sentinel"
)

// Dispatcher is the slice of the execution engine the service needs.
type Dispatcher interface {
	Enqueue(processID id.ProcessID, subject id.SubjectID) error
}

// Service is the validation process lifecycle orchestrator.
type Service struct {
	processes  process.Store
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    *valmetrics.Metrics
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithMetrics(m *valmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func New(processes process.Store, dispatcher Dispatcher, opts ...Option) (*Service, error) {
	if processes == nil {
		return nil, errors.New("process store is required")
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	s := &Service{
		processes:  processes,
		dispatcher: dispatcher,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Submit validates the subject id's format, creates a pending process, and
// hands it to the execution engine. It returns the fresh pending record and
// never waits on validation itself; the only slow dependency on this path
// is a single write to the process store.
func (s *Service) Submit(ctx context.Context, rawSubject string) (*models.ValidationProcess, error) {
	subject, err := validator.CheckFormat(rawSubject)
	if err != nil {
		s.metrics.RecordSubmission("invalid_format")
		return nil, err
	}

	p, err := s.processes.Create(ctx, subject)
	if err != nil {
		s.metrics.RecordSubmission("unavailable")
		s.logger.Error("process creation failed",
			"subject_id", subject.String(), "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not create validation process")
	}

	if err := s.dispatcher.Enqueue(p.ProcessID, subject); err != nil {
		// The record exists but nothing will run it; it stays pending and
		// the caller gets the infrastructure failure.
		s.metrics.RecordSubmission("unavailable")
		s.logger.Error("enqueue failed, process left pending",
			"process_id", p.ProcessID.String(), "error", err)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not schedule validation")
	}

	s.metrics.RecordSubmission("accepted")
	s.logger.Info("validation submitted",
		"process_id", p.ProcessID.String(), "subject_id", subject.String())
	return p, nil
}

// GetStatus returns a point-in-time copy of the process record. It never
// blocks waiting for completion.
func (s *Service) GetStatus(ctx context.Context, rawProcessID string) (*models.ValidationProcess, error) {
	processID, err := id.ParseProcessID(rawProcessID)
	if err != nil {
		// A malformed process id cannot name any record; the caller sees
		// the same not-found outcome as for an unknown one.
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "unknown validation process")
	}

	p, err := s.processes.Fetch(ctx, processID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeNotFound, "unknown validation process")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "could not read validation process")
	}
	return p, nil
}
