// Package models defines the petition aggregate and its lifecycle states.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the moderation state of a petition.
type Status string

const (
	// StatusPending means awaiting a moderator decision. New and
	// resubmitted petitions land here.
	StatusPending Status = "pending"
	// StatusApproved means publicly visible and collecting signatures.
	StatusApproved Status = "approved"
	// StatusRejected means declined with a reason; the creator may
	// revise and resubmit a limited number of times.
	StatusRejected Status = "rejected"
	// StatusPaused means temporarily hidden after approval, e.g. while
	// a complaint is investigated.
	StatusPaused Status = "paused"
	// StatusArchived is terminal. No transitions leave it.
	StatusArchived Status = "archived"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusPaused, StatusArchived:
		return true
	}
	return false
}

// MaxResubmissions caps how many times a rejected petition may be revised
// and resubmitted.
const MaxResubmissions = 3

// ResubmissionEntry records one rejection/resubmission cycle. An entry is
// open while ResubmittedAt is nil and closes when the creator resubmits.
type ResubmissionEntry struct {
	RejectedAt      time.Time  `json:"rejected_at"`
	RejectionReason string     `json:"rejection_reason"`
	ResubmittedAt   *time.Time `json:"resubmitted_at,omitempty"`
}

// Petition is the moderation aggregate. Version supports optimistic
// concurrency: stores refuse updates carrying a stale version.
type Petition struct {
	ID               uuid.UUID
	CreatorID        string
	Title            string
	Description      string
	Category         string
	TargetSignatures int
	SignatureCount   int
	MediaRefs        []string

	Status          Status
	ModerationNotes string
	ModeratorID     string
	PaymentStatus   string

	FlaggedProfanity bool
	FlaggedSpam      bool

	ResubmissionCount   int
	ResubmissionHistory []ResubmissionEntry

	ApprovedAt *time.Time
	PausedAt   *time.Time
	ArchivedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	Version    int64
}

// ListFilter narrows petition listings. Zero values mean no filter.
type ListFilter struct {
	Status    Status
	CreatorID string
	Limit     int
}

// OpenResubmissionEntry returns the index of the most recent open history
// entry, or -1 when every entry is closed.
func (p *Petition) OpenResubmissionEntry() int {
	for i := len(p.ResubmissionHistory) - 1; i >= 0; i-- {
		if p.ResubmissionHistory[i].ResubmittedAt == nil {
			return i
		}
	}
	return -1
}

// CanTransitionTo reports whether the lifecycle allows moving to target.
// It encodes the state machine; permission checks live in the service.
func (p *Petition) CanTransitionTo(target Status) bool {
	if p.Status == StatusArchived {
		return false
	}
	switch target {
	case StatusApproved:
		return p.Status == StatusPending || p.Status == StatusPaused
	case StatusRejected:
		return p.Status == StatusPending
	case StatusPaused:
		return p.Status == StatusApproved
	case StatusPending:
		// Only a resubmission returns a petition to the queue.
		return p.Status == StatusRejected
	case StatusArchived:
		return true
	}
	return false
}
