// Package events carries completion notifications out of the execution
// engine. The engine publishes one event per terminal transition and knows
// nothing about delivery; sinks attach through the Store contract.
package events

import (
	"context"
	"time"

	"enrollcheck/internal/validation/models"
	id "enrollcheck/pkg/domain"
)

// Event records one terminal status transition. Keep it transport-agnostic
// so stores and sinks can fan out.
type Event struct {
	ProcessID id.ProcessID
	SubjectID id.SubjectID
	Status    models.Status
	Message   string
	Detail    *models.ErrorDetail
	Timestamp time.Time
}

// Store is the sink contract for completion events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByProcess(ctx context.Context, processID id.ProcessID) ([]Event, error)
}
