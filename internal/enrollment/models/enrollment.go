// Package models defines the enrollment record this service validates
// against. The record store is read-only from the validator's point of
// view; enrollment intake happens in another system.
package models

import (
	"time"

	id "enrollcheck/pkg/domain"
)

// Enrollment is one enrollment record, keyed by the subject UUID handed out
// at intake time.
type Enrollment struct {
	SubjectID    id.SubjectID
	Email        string
	Phone        string
	StudentCount int
	Verified     bool
	CreatedAt    time.Time
}
