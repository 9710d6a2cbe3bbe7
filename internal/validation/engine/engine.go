// Package engine runs claimed validation processes on a bounded worker
// pool. The engine owns the only slow path in the system: the submit and
// status handlers never wait on it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"enrollcheck/internal/validation/events"
	valmetrics "enrollcheck/internal/validation/metrics"
	"enrollcheck/internal/validation/models"
	"enrollcheck/internal/validation/store/process"
	"enrollcheck/internal/validation/validator"
	id "enrollcheck/pkg/domain"
	dErrors "enrollcheck/pkg/domain-errors"
	"enrollcheck/pkg/platform/sentinel"
)

const (
	defaultWorkers     = 4
	defaultQueueSize   = 64
	defaultExecTimeout = 30 * time.Second

	// Progressive backoff for transient store failures: 250ms, 500ms, 1s.
	defaultRetryAttempts = 3
	defaultRetryBase     = 250 * time.Millisecond

	// Terminal writes get their own budget so an execution that used up its
	// timeout can still record its outcome.
	resolveTimeout = 5 * time.Second

	messageClaimed   = "validation started"
	messageCompleted = "enrollment record validated"
)

type task struct {
	processID id.ProcessID
	subject   id.SubjectID
}

// Engine is the bounded-concurrency task runner. Enqueue never blocks on
// validation; at most `workers` executions run at once and excess work
// waits in the queue.
type Engine struct {
	processes process.Store
	validator validator.Validator
	publisher *events.Publisher
	logger    *slog.Logger
	metrics   *valmetrics.Metrics

	workers       int
	queue         chan task
	execTimeout   time.Duration
	retryAttempts int
	retryBase     time.Duration

	group  *errgroup.Group
	cancel context.CancelFunc

	startOnce sync.Once
}

// Option configures an Engine.
type Option func(*Engine)

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func WithMetrics(m *valmetrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithPublisher attaches a completion-event publisher. Optional; without it
// terminal transitions are recorded only in the process store.
func WithPublisher(p *events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

func WithQueueSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.queue = make(chan task, n)
		}
	}
}

func WithExecutionTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.execTimeout = d
		}
	}
}

// WithRetry sets the retry budget for transient store failures: attempts
// beyond the first call, and the base delay that doubles per attempt.
func WithRetry(attempts int, base time.Duration) Option {
	return func(e *Engine) {
		if attempts >= 0 {
			e.retryAttempts = attempts
		}
		if base > 0 {
			e.retryBase = base
		}
	}
}

func New(processes process.Store, v validator.Validator, opts ...Option) *Engine {
	e := &Engine{
		processes:     processes,
		validator:     v,
		logger:        slog.Default(),
		workers:       defaultWorkers,
		execTimeout:   defaultExecTimeout,
		retryAttempts: defaultRetryAttempts,
		retryBase:     defaultRetryBase,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.queue == nil {
		e.queue = make(chan task, defaultQueueSize)
	}
	return e
}

// Start launches the worker pool. Workers exit between tasks when ctx is
// cancelled; a task already claimed runs to completion or timeout
// regardless, so its terminal status is never lost to an orderly shutdown.
func (e *Engine) Start(ctx context.Context) {
	e.startOnce.Do(func() {
		ctx, e.cancel = context.WithCancel(ctx)
		e.group, _ = errgroup.WithContext(ctx)
		for i := 0; i < e.workers; i++ {
			worker := i
			e.group.Go(func() error {
				e.run(ctx, worker)
				return nil
			})
		}
		e.logger.Info("execution engine started",
			"workers", e.workers, "queue_size", cap(e.queue))
	})
}

// Stop signals workers to finish their current task and waits up to the
// context deadline.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel == nil {
		return nil
	}
	e.cancel()

	done := make(chan struct{})
	go func() {
		_ = e.group.Wait()
		close(done)
	}()

	select {
	case <-done:
		e.logger.Info("execution engine stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("engine shutdown: %w", ctx.Err())
	}
}

// Enqueue schedules asynchronous execution and returns immediately. When
// the queue is saturated it reports CodeUnavailable instead of blocking or
// spawning unbounded work.
func (e *Engine) Enqueue(processID id.ProcessID, subject id.SubjectID) error {
	select {
	case e.queue <- task{processID: processID, subject: subject}:
		e.metrics.SetQueueDepth(len(e.queue))
		return nil
	default:
		return dErrors.New(dErrors.CodeUnavailable, "execution queue is full")
	}
}

func (e *Engine) run(ctx context.Context, worker int) {
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-e.queue:
			e.metrics.SetQueueDepth(len(e.queue))
			e.execute(t, worker)
		}
	}
}

// execute drives one process through claim, validation, and resolution.
// It deliberately runs on a fresh context: once claimed, a process is
// carried to a terminal state (or timeout) even during shutdown.
func (e *Engine) execute(t task, worker int) {
	start := time.Now()
	log := e.logger.With(
		"worker", worker,
		"process_id", t.processID.String(),
		"subject_id", t.subject.String(),
	)

	ctx, cancel := context.WithTimeout(context.Background(), e.execTimeout)
	defer cancel()

	if !e.claim(ctx, t, log) {
		return
	}

	verr := e.runValidation(ctx, t.subject)

	resolveCtx, cancelResolve := context.WithTimeout(context.Background(), resolveTimeout)
	defer cancelResolve()

	final := e.resolve(resolveCtx, t, verr, log)
	if final == nil {
		// Terminal write failed even after retries; the record stays
		// in_progress until an operator intervenes. Known limitation: this
		// core has no reconciliation sweeper.
		return
	}

	e.metrics.RecordExecution(string(final.Status), time.Since(start))
	e.publish(resolveCtx, final)

	log.Info("validation execution finished",
		"status", string(final.Status),
		"duration", time.Since(start))
}

// claim attempts the pending -> in_progress transition. At most one worker
// wins; losers abandon silently.
func (e *Engine) claim(ctx context.Context, t task, log *slog.Logger) bool {
	err := e.withRetry(ctx, func() error {
		_, err := e.processes.UpdateStatus(ctx, t.processID, process.Transition{
			From:    models.StatusPending,
			To:      models.StatusInProgress,
			Message: messageClaimed,
		})
		return err
	})
	if err == nil {
		return true
	}
	if errors.Is(err, sentinel.ErrInvalidState) {
		// Already claimed by a concurrent worker, or already terminal.
		e.metrics.RecordClaimLost()
		log.Debug("claim lost", "error", err)
		return false
	}
	log.Error("claim failed, process left pending", "error", err)
	return false
}

// runValidation invokes the validator under the execution deadline,
// retrying transient failures. Definitive outcomes (not found, validation
// failed) return on the first attempt.
func (e *Engine) runValidation(ctx context.Context, subject id.SubjectID) error {
	return e.withRetry(ctx, func() error {
		return e.validator.Validate(ctx, subject)
	})
}

// resolve writes the terminal status derived from the validation result.
// Returns the final record, or nil if the write could not be persisted.
func (e *Engine) resolve(ctx context.Context, t task, verr error, log *slog.Logger) *models.ValidationProcess {
	tr := process.Transition{
		From:    models.StatusInProgress,
		To:      models.StatusCompleted,
		Message: messageCompleted,
	}
	if verr != nil {
		detail := detailFor(verr)
		tr.To = models.StatusFailed
		tr.Message = "validation failed: " + detail.Reason
		tr.Detail = detail
	}

	var final *models.ValidationProcess
	err := e.withRetry(ctx, func() error {
		p, err := e.processes.UpdateStatus(ctx, t.processID, tr)
		if err == nil {
			final = p
		}
		return err
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrInvalidState) {
			// Should be impossible while we hold the claim; treat as a
			// contract violation, not a validation outcome.
			log.Error("illegal terminal transition rejected by store", "error", err)
		} else {
			log.Error("terminal status write failed", "error", err)
		}
		return nil
	}
	return final
}

func (e *Engine) publish(ctx context.Context, p *models.ValidationProcess) {
	if e.publisher == nil {
		return
	}
	err := e.publisher.Emit(ctx, events.Event{
		ProcessID: p.ProcessID,
		SubjectID: p.SubjectID,
		Status:    p.Status,
		Message:   p.Message,
		Detail:    p.ErrorDetail,
		Timestamp: p.UpdatedAt,
	})
	if err != nil {
		e.logger.Error("completion event publish failed",
			"process_id", p.ProcessID.String(), "error", err)
	}
}

// withRetry runs op, retrying transient failures with doubling backoff up
// to the configured budget. Non-retryable errors return immediately.
func (e *Engine) withRetry(ctx context.Context, op func() error) error {
	backoff := e.retryBase
	var err error
	for attempt := 0; attempt <= e.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return dErrors.Wrap(ctx.Err(), dErrors.CodeTimeout, "execution deadline exceeded")
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		err = op()
		if err == nil || !retryable(err) {
			if errors.Is(err, context.DeadlineExceeded) {
				return dErrors.Wrap(err, dErrors.CodeTimeout, "execution deadline exceeded")
			}
			return err
		}
	}
	return err
}

// retryable reports whether an error is a transient infrastructure failure.
// Definitive validator outcomes are never retried.
func retryable(err error) bool {
	return errors.Is(err, sentinel.ErrUnavailable) ||
		dErrors.HasCode(err, dErrors.CodeUnavailable)
}

// detailFor maps a validation error onto the structured failure cause
// recorded with the failed process.
func detailFor(err error) *models.ErrorDetail {
	code := dErrors.CodeOf(err)
	switch {
	case dErrors.HasCode(err, dErrors.CodeNotFound):
		code = dErrors.CodeNotFound
	case dErrors.HasCode(err, dErrors.CodeValidationFailed):
		code = dErrors.CodeValidationFailed
	case errors.Is(err, context.DeadlineExceeded) || dErrors.HasCode(err, dErrors.CodeTimeout):
		code = dErrors.CodeTimeout
	case retryable(err):
		code = dErrors.CodeUnavailable
	}
	return &models.ErrorDetail{Code: string(code), Reason: reasonFor(err)}
}

func reasonFor(err error) string {
	var de *dErrors.Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	return err.Error()
}
