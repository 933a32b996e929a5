// Package service implements the petition moderation lifecycle:
// pending -> approved/rejected, approved <-> paused, rejected -> pending
// via limited resubmission, and archive as the terminal state.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	"arida/internal/audit"
	"arida/internal/identity"
	"arida/internal/notify"
	"arida/internal/petition/models"
	"arida/internal/platform/metrics"
	"arida/internal/ratelimit"
	"arida/internal/validation"
	dErrors "arida/pkg/domain-errors"
	"arida/pkg/platform/sentinel"
)

// Store is the persistence surface the service needs. Update must enforce
// optimistic versioning and return sentinel.ErrConflict on a stale write.
type Store interface {
	Create(ctx context.Context, p *models.Petition) error
	Get(ctx context.Context, id uuid.UUID) (*models.Petition, error)
	Update(ctx context.Context, p *models.Petition) error
	List(ctx context.Context, filter models.ListFilter) ([]*models.Petition, error)
}

// AuditPublisher records moderation actions. Recording never blocks.
type AuditPublisher interface {
	Record(ctx context.Context, entry audit.Entry)
}

// RateLimiter guards abuse-prone actions per actor.
type RateLimiter interface {
	Check(ctx context.Context, action ratelimit.Action, actorID string) error
}

// Service orchestrates petition moderation. All mutating methods re-read
// the aggregate and rely on the store's version guard, so two concurrent
// moderators cannot both win a conflicting transition.
type Service struct {
	store    Store
	limiter  RateLimiter
	auditor  AuditPublisher
	notifier notify.Dispatcher
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

func New(store Store, limiter RateLimiter, auditor AuditPublisher, notifier notify.Dispatcher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		limiter:  limiter,
		auditor:  auditor,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// CreateRequest carries creator-supplied petition content.
type CreateRequest struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Category         string   `json:"category"`
	TargetSignatures int      `json:"target_signatures"`
	MediaRefs        []string `json:"media_refs"`
}

// Create validates and stores a new petition in the pending queue.
// Profanity and spam signals flag the petition for closer review; they do
// not reject it outright.
func (s *Service) Create(ctx context.Context, actor identity.Actor, req CreateRequest) (*models.Petition, error) {
	ctx, span := otel.Tracer("petitions").Start(ctx, "Create")
	defer span.End()

	if actor.IsZero() {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := validation.PetitionTitle(req.Title); err != nil {
		return nil, err
	}
	if err := validation.PetitionDescription(req.Description); err != nil {
		return nil, err
	}
	if req.TargetSignatures < 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "target signatures must not be negative")
	}
	if err := s.limiter.Check(ctx, ratelimit.ActionPetitionCreate, actor.ID); err != nil {
		return nil, err
	}

	title := validation.Sanitize(req.Title)
	description := validation.Sanitize(req.Description)
	content := title + " " + description

	now := time.Now()
	p := &models.Petition{
		ID:               uuid.New(),
		CreatorID:        actor.ID,
		Title:            title,
		Description:      description,
		Category:         validation.Sanitize(req.Category),
		TargetSignatures: req.TargetSignatures,
		MediaRefs:        req.MediaRefs,
		Status:           models.StatusPending,
		FlaggedProfanity: validation.ContainsProfanity(content),
		FlaggedSpam:      validation.ContainsSpam(content),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.store.Create(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create petition")
	}

	s.metrics.PetitionsCreated.Inc()
	s.audit(ctx, actor, audit.ActionPetitionCreate, p, map[string]string{
		"flagged_profanity": boolString(p.FlaggedProfanity),
		"flagged_spam":      boolString(p.FlaggedSpam),
	})
	s.logger.InfoContext(ctx, "petition created",
		"petition_id", p.ID,
		"creator_id", actor.ID,
		"flagged_profanity", p.FlaggedProfanity,
		"flagged_spam", p.FlaggedSpam,
	)
	return p, nil
}

// Get returns one petition. Moderators see everything; creators see their
// own; everyone else only sees petitions that are publicly visible.
func (s *Service) Get(ctx context.Context, actor identity.Actor, id uuid.UUID) (*models.Petition, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.canView(actor, p) {
		return nil, dErrors.New(dErrors.CodeForbidden, "access denied")
	}
	return p, nil
}

// List returns petitions matching the filter. Non-moderators are confined
// to the public approved listing or their own petitions.
func (s *Service) List(ctx context.Context, actor identity.Actor, filter models.ListFilter) ([]*models.Petition, error) {
	if !actor.Role.CanModerate() {
		if filter.Status != models.StatusApproved {
			filter.CreatorID = actor.ID
		}
	}
	out, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list petitions")
	}
	return out, nil
}

// Approve moves a pending petition into public view.
func (s *Service) Approve(ctx context.Context, actor identity.Actor, id uuid.UUID, note string) (*models.Petition, error) {
	ctx, span := otel.Tracer("petitions").Start(ctx, "Approve")
	defer span.End()

	if err := requireModerator(actor); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.StatusPending {
		return nil, transitionError(p.Status, models.StatusApproved)
	}

	from := p.Status
	now := time.Now()
	p.Status = models.StatusApproved
	p.ApprovedAt = &now
	p.ModeratorID = actor.ID
	p.ModerationNotes = ""
	if note != "" {
		p.ModerationNotes = validation.Sanitize(note)
	}
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}

	s.metrics.PetitionTransitions.WithLabelValues("approve").Inc()
	s.audit(ctx, actor, audit.ActionPetitionApprove, p, transitionDetails(from, p.Status))
	s.notify(ctx, notify.TypePetitionApproved, p, "")
	return p, nil
}

// Reject declines a pending petition with a mandatory reason and opens a
// resubmission history entry the creator can respond to.
func (s *Service) Reject(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*models.Petition, error) {
	ctx, span := otel.Tracer("petitions").Start(ctx, "Reject")
	defer span.End()

	if err := requireModerator(actor); err != nil {
		return nil, err
	}
	if err := validation.NotBlank("reason", reason); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanTransitionTo(models.StatusRejected) {
		return nil, transitionError(p.Status, models.StatusRejected)
	}

	from := p.Status
	reason = validation.Sanitize(reason)
	p.Status = models.StatusRejected
	p.ModerationNotes = reason
	p.ModeratorID = actor.ID
	p.ResubmissionHistory = append(p.ResubmissionHistory, models.ResubmissionEntry{
		RejectedAt:      time.Now(),
		RejectionReason: reason,
	})
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}

	details := transitionDetails(from, p.Status)
	details["reason"] = reason
	s.metrics.PetitionTransitions.WithLabelValues("reject").Inc()
	s.audit(ctx, actor, audit.ActionPetitionReject, p, details)
	s.notify(ctx, notify.TypePetitionRejected, p, reason)
	return p, nil
}

// Pause temporarily hides an approved petition, e.g. pending a complaint
// investigation. The reason is mandatory and recorded.
func (s *Service) Pause(ctx context.Context, actor identity.Actor, id uuid.UUID, reason string) (*models.Petition, error) {
	ctx, span := otel.Tracer("petitions").Start(ctx, "Pause")
	defer span.End()

	if err := requireModerator(actor); err != nil {
		return nil, err
	}
	if err := validation.NotBlank("reason", reason); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanTransitionTo(models.StatusPaused) {
		return nil, transitionError(p.Status, models.StatusPaused)
	}

	from := p.Status
	reason = validation.Sanitize(reason)
	now := time.Now()
	p.Status = models.StatusPaused
	p.PausedAt = &now
	p.ModerationNotes = reason
	p.ModeratorID = actor.ID
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}

	details := transitionDetails(from, p.Status)
	details["reason"] = reason
	s.metrics.PetitionTransitions.WithLabelValues("pause").Inc()
	s.audit(ctx, actor, audit.ActionPetitionPause, p, details)
	s.notify(ctx, notify.TypePetitionPaused, p, reason)
	return p, nil
}

// Unpause restores a paused petition to public view.
func (s *Service) Unpause(ctx context.Context, actor identity.Actor, id uuid.UUID) (*models.Petition, error) {
	ctx, span := otel.Tracer("petitions").Start(ctx, "Unpause")
	defer span.End()

	if err := requireModerator(actor); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.Status != models.StatusPaused {
		return nil, transitionError(p.Status, models.StatusApproved)
	}

	from := p.Status
	p.Status = models.StatusApproved
	p.PausedAt = nil
	p.ModeratorID = actor.ID
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}

	s.metrics.PetitionTransitions.WithLabelValues("unpause").Inc()
	s.audit(ctx, actor, audit.ActionPetitionUnpause, p, transitionDetails(from, p.Status))
	s.notify(ctx, notify.TypePetitionUnpaused, p, "")
	return p, nil
}

// ResubmitRequest carries optional revised content. Empty fields keep the
// existing values.
type ResubmitRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Resubmit returns a rejected petition to the moderation queue, at most
// MaxResubmissions times. The open history entry is closed; legacy rows
// with an empty history get a synthesized entry from the moderation notes
// so the trail stays complete.
func (s *Service) Resubmit(ctx context.Context, actor identity.Actor, id uuid.UUID, req ResubmitRequest) (*models.Petition, error) {
	ctx, span := otel.Tracer("petitions").Start(ctx, "Resubmit")
	defer span.End()

	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.CreatorID != actor.ID {
		return nil, dErrors.New(dErrors.CodeForbidden, "only the petition creator can resubmit")
	}
	if !p.CanTransitionTo(models.StatusPending) {
		return nil, transitionError(p.Status, models.StatusPending)
	}
	if p.ResubmissionCount >= models.MaxResubmissions {
		return nil, dErrors.New(dErrors.CodeLimitExceeded, "resubmission limit reached")
	}
	if err := s.limiter.Check(ctx, ratelimit.ActionPetitionResubmit, actor.ID); err != nil {
		return nil, err
	}

	if req.Title != "" {
		if err := validation.PetitionTitle(req.Title); err != nil {
			return nil, err
		}
		p.Title = validation.Sanitize(req.Title)
	}
	if req.Description != "" {
		if err := validation.PetitionDescription(req.Description); err != nil {
			return nil, err
		}
		p.Description = validation.Sanitize(req.Description)
	}

	now := time.Now()
	if i := p.OpenResubmissionEntry(); i >= 0 {
		p.ResubmissionHistory[i].ResubmittedAt = &now
	} else {
		// Rows predating history tracking carry the rejection reason only
		// in the moderation notes. Synthesize the missing entry.
		p.ResubmissionHistory = append(p.ResubmissionHistory, models.ResubmissionEntry{
			RejectedAt:      p.UpdatedAt,
			RejectionReason: p.ModerationNotes,
			ResubmittedAt:   &now,
		})
	}

	content := p.Title + " " + p.Description
	from := p.Status
	p.Status = models.StatusPending
	p.ModerationNotes = ""
	p.ResubmissionCount++
	p.FlaggedProfanity = validation.ContainsProfanity(content)
	p.FlaggedSpam = validation.ContainsSpam(content)
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}

	details := transitionDetails(from, p.Status)
	details["resubmission_count"] = strconv.Itoa(p.ResubmissionCount)
	s.metrics.PetitionTransitions.WithLabelValues("resubmit").Inc()
	s.audit(ctx, actor, audit.ActionPetitionResubmit, p, details)
	s.logger.InfoContext(ctx, "petition resubmitted",
		"petition_id", p.ID,
		"resubmission_count", p.ResubmissionCount,
	)
	return p, nil
}

// Archive is terminal. Moderators and admins can archive from any state.
func (s *Service) Archive(ctx context.Context, actor identity.Actor, id uuid.UUID) (*models.Petition, error) {
	ctx, span := otel.Tracer("petitions").Start(ctx, "Archive")
	defer span.End()

	if err := requireModerator(actor); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.CanTransitionTo(models.StatusArchived) {
		return nil, transitionError(p.Status, models.StatusArchived)
	}

	from := p.Status
	now := time.Now()
	p.Status = models.StatusArchived
	p.ArchivedAt = &now
	p.ModeratorID = actor.ID
	if err := s.save(ctx, p); err != nil {
		return nil, err
	}

	s.metrics.PetitionTransitions.WithLabelValues("archive").Inc()
	s.audit(ctx, actor, audit.ActionPetitionArchive, p, transitionDetails(from, p.Status))
	s.notify(ctx, notify.TypePetitionArchived, p, "")
	return p, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Petition, error) {
	p, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "petition not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load petition")
	}
	return p, nil
}

func (s *Service) save(ctx context.Context, p *models.Petition) error {
	p.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, p); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "petition was modified concurrently, retry")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update petition")
	}
	return nil
}

func (s *Service) canView(actor identity.Actor, p *models.Petition) bool {
	if actor.Role.CanModerate() || p.CreatorID == actor.ID {
		return true
	}
	return p.Status == models.StatusApproved
}

func (s *Service) audit(ctx context.Context, actor identity.Actor, action string, p *models.Petition, details map[string]string) {
	s.auditor.Record(ctx, audit.Entry{
		Action:     action,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		ActorRole:  string(actor.Role),
		TargetType: "petition",
		TargetID:   p.ID.String(),
		TargetName: p.Title,
		Details:    details,
	})
}

// notify sends the creator a notification about a moderation outcome.
// Failures are logged, never surfaced: the transition already happened.
func (s *Service) notify(ctx context.Context, t notify.Type, p *models.Petition, reason string) {
	err := s.notifier.Dispatch(ctx, notify.Event{
		Type:          t,
		RecipientID:   p.CreatorID,
		PetitionID:    p.ID.String(),
		PetitionTitle: p.Title,
		Reason:        reason,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "notification dispatch failed",
			"type", t,
			"petition_id", p.ID,
			"error", err,
		)
	}
}

func requireModerator(actor identity.Actor) error {
	if !actor.Role.CanModerate() {
		return dErrors.New(dErrors.CodeForbidden, "moderator role required")
	}
	return nil
}

func transitionError(from, to models.Status) error {
	return dErrors.New(dErrors.CodeConflict,
		"cannot transition petition from "+string(from)+" to "+string(to))
}

// transitionDetails records where a petition moved from and to on the
// audit trail.
func transitionDetails(from, to models.Status) map[string]string {
	return map[string]string{
		"old_status": string(from),
		"new_status": string(to),
	}
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
