package process

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"enrollcheck/internal/validation/models"
	id "enrollcheck/pkg/domain"
	"enrollcheck/pkg/platform/sentinel"
)

const (
	// Redis key prefix for process records.
	processKeyPrefix = "vp:process:"

	// casAttempts bounds the optimistic retry loop when WATCH detects a
	// concurrent write. Each retry re-reads the record, so a genuinely
	// illegal transition is reported after at most one extra round trip.
	casAttempts = 5
)

// Redis persists process records as JSON values. UpdateStatus uses
// WATCH/MULTI so the transition check and the write are one atomic unit;
// when a concurrent writer touches the key first the transaction aborts and
// the loop re-reads.
type Redis struct {
	client *redis.Client
	clock  func() time.Time
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithRedisClock sets the clock function for testability.
func WithRedisClock(clock func() time.Time) RedisOption {
	return func(s *Redis) {
		if clock != nil {
			s.clock = clock
		}
	}
}

func NewRedis(client *redis.Client, opts ...RedisOption) *Redis {
	s := &Redis{client: client, clock: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// record is the stored JSON shape. Kept separate from the domain model so
// the wire format does not leak typed ids.
type record struct {
	ProcessID   string              `json:"process_id"`
	SubjectID   string              `json:"subject_id"`
	Status      string              `json:"status"`
	Message     string              `json:"message"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	ErrorDetail *models.ErrorDetail `json:"error_detail,omitempty"`
}

func (s *Redis) Create(ctx context.Context, subject id.SubjectID) (*models.ValidationProcess, error) {
	pid := id.NewProcessID()
	now := s.clock().UTC()

	p := &models.ValidationProcess{
		ProcessID: pid,
		SubjectID: subject,
		Status:    models.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	payload, err := json.Marshal(toRecord(p))
	if err != nil {
		return nil, fmt.Errorf("marshal process: %w", err)
	}

	ok, err := s.client.SetNX(ctx, processKey(pid), payload, 0).Result()
	if err != nil {
		return nil, fmt.Errorf("create process: %w: %v", sentinel.ErrUnavailable, err)
	}
	if !ok {
		// Freshly generated UUID already present: never reuse it.
		return nil, fmt.Errorf("create process %s: %w", pid, sentinel.ErrConflict)
	}
	return p, nil
}

func (s *Redis) Fetch(ctx context.Context, processID id.ProcessID) (*models.ValidationProcess, error) {
	payload, err := s.client.Get(ctx, processKey(processID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("process %s: %w", processID, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch process: %w: %v", sentinel.ErrUnavailable, err)
	}
	return fromPayload(payload)
}

func (s *Redis) UpdateStatus(ctx context.Context, processID id.ProcessID, tr Transition) (*models.ValidationProcess, error) {
	if !tr.From.CanTransitionTo(tr.To) {
		return nil, fmt.Errorf("transition %s->%s: %w", tr.From, tr.To, sentinel.ErrInvalidState)
	}

	key := processKey(processID)
	var updated *models.ValidationProcess

	txn := func(tx *redis.Tx) error {
		payload, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("process %s: %w", processID, sentinel.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("fetch process: %w: %v", sentinel.ErrUnavailable, err)
		}
		p, err := fromPayload(payload)
		if err != nil {
			return err
		}
		if p.Status != tr.From {
			return fmt.Errorf("process %s is %s, expected %s: %w",
				processID, p.Status, tr.From, sentinel.ErrInvalidState)
		}

		p.Status = tr.To
		p.Message = tr.Message
		p.ErrorDetail = nil
		if tr.Detail != nil {
			d := *tr.Detail
			p.ErrorDetail = &d
		}
		now := s.clock().UTC()
		if now.Before(p.UpdatedAt) {
			now = p.UpdatedAt
		}
		p.UpdatedAt = now

		next, err := json.Marshal(toRecord(p))
		if err != nil {
			return fmt.Errorf("marshal process: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, next, 0)
			return nil
		})
		if err != nil {
			return err
		}
		updated = p
		return nil
	}

	for i := 0; i < casAttempts; i++ {
		err := s.client.Watch(ctx, txn, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("update process %s: too much contention: %w", processID, sentinel.ErrUnavailable)
}

func processKey(pid id.ProcessID) string {
	return processKeyPrefix + pid.String()
}

func toRecord(p *models.ValidationProcess) record {
	return record{
		ProcessID:   p.ProcessID.String(),
		SubjectID:   p.SubjectID.String(),
		Status:      string(p.Status),
		Message:     p.Message,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		ErrorDetail: p.ErrorDetail,
	}
}

func fromPayload(payload []byte) (*models.ValidationProcess, error) {
	var rec record
	if err := json.Unmarshal(payload, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal process: %w", err)
	}
	pid, err := id.ParseProcessID(rec.ProcessID)
	if err != nil {
		return nil, fmt.Errorf("stored process id: %w", err)
	}
	subject, err := id.ParseSubjectID(rec.SubjectID)
	if err != nil {
		return nil, fmt.Errorf("stored subject id: %w", err)
	}
	st, ok := models.ParseStatus(rec.Status)
	if !ok {
		return nil, fmt.Errorf("process %s has unknown status %q", rec.ProcessID, rec.Status)
	}
	return &models.ValidationProcess{
		ProcessID:   pid,
		SubjectID:   subject,
		Status:      st,
		Message:     rec.Message,
		CreatedAt:   rec.CreatedAt.UTC(),
		UpdatedAt:   rec.UpdatedAt.UTC(),
		ErrorDetail: rec.ErrorDetail,
	}, nil
}
