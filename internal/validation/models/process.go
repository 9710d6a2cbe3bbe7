// Package models defines the validation process record and its state
// machine. The process store owns the canonical record; everything else
// holds copies.
package models

import (
	"time"

	id "enrollcheck/pkg/domain"
)

// Status is the lifecycle state of a validation process. Transitions are
// monotonic and one-directional; terminal states never revert.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// statusRank orders statuses so readers can assert monotonic progress:
// pending < in_progress < {completed, failed}.
var statusRank = map[Status]int{
	StatusPending:    0,
	StatusInProgress: 1,
	StatusCompleted:  2,
	StatusFailed:     2,
}

// ParseStatus validates a persisted status string.
func ParseStatus(s string) (Status, bool) {
	st := Status(s)
	_, ok := statusRank[st]
	return st, ok
}

// Terminal reports whether no further transitions are permitted.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// CanTransitionTo reports whether s -> next is a legal transition. Legal
// transitions only: pending -> in_progress, in_progress -> completed,
// in_progress -> failed.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusCompleted || next == StatusFailed
	default:
		return false
	}
}

// AtLeast reports whether s is as far along the lifecycle as other.
// Used by tests to assert that repeated reads never go backward.
func (s Status) AtLeast(other Status) bool {
	return statusRank[s] >= statusRank[other]
}

// ErrorDetail is the structured failure cause attached to a failed process.
type ErrorDetail struct {
	Code   string `json:"code"`
	Reason string `json:"reason"`
}

// ValidationProcess is one trackable unit of validation work.
//
// ProcessID, SubjectID, and CreatedAt are immutable after creation. Only the
// store mutates Status, Message, ErrorDetail, and UpdatedAt, and only
// through legal transitions.
type ValidationProcess struct {
	ProcessID id.ProcessID
	SubjectID id.SubjectID
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time

	// Message is a human-readable outcome description; empty at creation,
	// populated on transition out of pending.
	Message string

	// ErrorDetail is present only when Status is failed.
	ErrorDetail *ErrorDetail
}

// Clone returns a deep copy so callers never share mutable state with the
// store's canonical record.
func (p *ValidationProcess) Clone() *ValidationProcess {
	if p == nil {
		return nil
	}
	cp := *p
	if p.ErrorDetail != nil {
		d := *p.ErrorDetail
		cp.ErrorDetail = &d
	}
	return &cp
}
