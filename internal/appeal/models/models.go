// Package models defines the appeal thread aggregate: a creator's
// challenge to a moderation decision, carried out as a message thread
// between the creator and the moderation team.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Status is the appeal workflow state.
type Status string

const (
	// StatusPending means opened, awaiting first moderator response.
	StatusPending Status = "pending"
	// StatusInProgress means a moderator has engaged with the thread.
	StatusInProgress Status = "in-progress"
	// StatusResolved means closed in the creator's favor or settled.
	StatusResolved Status = "resolved"
	// StatusRejected means closed against the creator.
	StatusRejected Status = "rejected"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// Closed reports whether the appeal reached a terminal decision. Closed
// appeals can still be reopened.
func (s Status) Closed() bool {
	return s == StatusResolved || s == StatusRejected
}

// SenderRole distinguishes the two sides of the thread.
type SenderRole string

const (
	SenderCreator   SenderRole = "creator"
	SenderModerator SenderRole = "moderator"
)

// Appeal is the thread aggregate. Creator name and email are snapshots
// taken when the appeal is opened. AccessTokenHash is the bcrypt hash of
// the emailed access token; the plaintext is returned exactly once.
type Appeal struct {
	ID              uuid.UUID
	PetitionID      uuid.UUID
	CreatorID       string
	CreatorName     string
	CreatorEmail    string
	Status          Status
	ResolutionNote  string
	AccessTokenHash string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int64
}

// Message is one entry in the thread. Internal messages are moderator
// coordination notes and are never exposed to the creator.
type Message struct {
	ID         uuid.UUID
	AppealID   uuid.UUID
	SenderRole SenderRole
	SenderName string
	Content    string
	IsInternal bool
	CreatedAt  time.Time
}
