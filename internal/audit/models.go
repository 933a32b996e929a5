// Package audit records an append-only trail of moderation actions. The
// trail is forensic: entries are never updated or deleted, and recording
// is asynchronous so a slow sink never blocks a moderation decision.
package audit

import (
	"time"

	"github.com/google/uuid"
)

// Well-known audit actions. Listing endpoints filter by prefix, so the
// "petition." and "appeal." namespaces group naturally.
const (
	ActionPetitionCreate   = "petition.create"
	ActionPetitionApprove  = "petition.approve"
	ActionPetitionReject   = "petition.reject"
	ActionPetitionPause    = "petition.pause"
	ActionPetitionUnpause  = "petition.unpause"
	ActionPetitionResubmit = "petition.resubmit"
	ActionPetitionArchive  = "petition.archive"

	ActionAppealOpen    = "appeal.open"
	ActionAppealMessage = "appeal.message"
	ActionAppealResolve = "appeal.resolve"
	ActionAppealReject  = "appeal.reject"
	ActionAppealReopen  = "appeal.reopen"
)

// Entry is one audit record. Actor fields are denormalized snapshots so
// the trail stays meaningful if the account is later renamed or deleted.
type Entry struct {
	ID         uuid.UUID
	Timestamp  time.Time
	Action     string
	ActorID    string
	ActorName  string
	ActorRole  string
	TargetType string
	TargetID   string
	TargetName string
	Device     string
	Details    map[string]string
}

// Filter narrows List results. ActionPrefix matches "petition." style
// namespaces; ActorName is an exact match. Zero values mean no filter.
type Filter struct {
	ActionPrefix string
	ActorName    string
}
