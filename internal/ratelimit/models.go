// Package ratelimit enforces per-actor abuse limits on write actions
// with a sliding window. The window algorithm prevents boundary bursts
// that fixed windows allow.
package ratelimit

import "time"

// Action identifies a rate-limited operation. Keys in the store are
// "<action>:<actor id>".
type Action string

const (
	ActionPetitionCreate   Action = "petition.create"
	ActionPetitionResubmit Action = "petition.resubmit"
	ActionAppealCreate     Action = "appeal.create"
	ActionAppealMessage    Action = "appeal.message"
)

// Result reports the outcome of a limit check.
type Result struct {
	Allowed   bool
	Remaining int
	Limit     int
	ResetAt   time.Time
}
