// Package notify delivers moderation outcome notifications to petition
// creators. Delivery is decoupled through Kafka; the actual email/SMS
// rendering is owned by a downstream consumer.
package notify

import "context"

// Type identifies a notification template downstream.
type Type string

const (
	TypePetitionApproved Type = "petition.approved"
	TypePetitionRejected Type = "petition.rejected"
	TypePetitionPaused   Type = "petition.paused"
	TypePetitionUnpaused Type = "petition.unpaused"
	TypePetitionArchived Type = "petition.archived"

	TypeAppealOpened   Type = "appeal.opened"
	TypeAppealMessage  Type = "appeal.message"
	TypeAppealResolved Type = "appeal.resolved"
	TypeAppealRejected Type = "appeal.rejected"
	TypeAppealReopened Type = "appeal.reopened"
)

// Event describes one notification. Recipient fields are snapshots taken
// at emit time.
type Event struct {
	Type           Type   `json:"type"`
	RecipientID    string `json:"recipient_id"`
	RecipientEmail string `json:"recipient_email,omitempty"`
	PetitionID     string `json:"petition_id,omitempty"`
	PetitionTitle  string `json:"petition_title,omitempty"`
	AppealID       string `json:"appeal_id,omitempty"`
	Reason         string `json:"reason,omitempty"`
}

// Dispatcher sends notification events. Implementations must be safe for
// concurrent use.
type Dispatcher interface {
	Dispatch(ctx context.Context, event Event) error
}
