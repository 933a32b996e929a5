// Package service implements the appeal workflow: a petition creator
// challenges a rejection, moderators respond in a thread, and the appeal
// is resolved, rejected, or reopened. Moderator-internal messages never
// reach creator-facing reads.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"

	appealmodels "arida/internal/appeal/models"
	"arida/internal/audit"
	"arida/internal/identity"
	"arida/internal/notify"
	petitionmodels "arida/internal/petition/models"
	"arida/internal/platform/metrics"
	"arida/internal/ratelimit"
	"arida/internal/validation"
	dErrors "arida/pkg/domain-errors"
	"arida/pkg/platform/sentinel"
	"arida/pkg/secrets"
)

// Store is the appeal persistence surface. ListMessages with
// includeInternal false must filter internal messages before returning.
type Store interface {
	Create(ctx context.Context, a *appealmodels.Appeal) error
	Get(ctx context.Context, id uuid.UUID) (*appealmodels.Appeal, error)
	GetByPetition(ctx context.Context, petitionID uuid.UUID) (*appealmodels.Appeal, error)
	Update(ctx context.Context, a *appealmodels.Appeal) error
	AddMessage(ctx context.Context, m *appealmodels.Message) error
	ListMessages(ctx context.Context, appealID uuid.UUID, includeInternal bool) ([]*appealmodels.Message, error)
}

// PetitionReader looks up the petition under appeal.
type PetitionReader interface {
	Get(ctx context.Context, id uuid.UUID) (*petitionmodels.Petition, error)
}

// AuditPublisher records appeal actions. Recording never blocks.
type AuditPublisher interface {
	Record(ctx context.Context, entry audit.Entry)
}

// RateLimiter guards abuse-prone actions per actor.
type RateLimiter interface {
	Check(ctx context.Context, action ratelimit.Action, actorID string) error
}

type Service struct {
	store     Store
	petitions PetitionReader
	limiter   RateLimiter
	auditor   AuditPublisher
	notifier  notify.Dispatcher
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

func New(store Store, petitions PetitionReader, limiter RateLimiter, auditor AuditPublisher, notifier notify.Dispatcher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:     store,
		petitions: petitions,
		limiter:   limiter,
		auditor:   auditor,
		notifier:  notifier,
		metrics:   m,
		logger:    logger,
	}
}

// Thread is an appeal with its visible messages.
type Thread struct {
	Appeal   *appealmodels.Appeal
	Messages []*appealmodels.Message
}

// Open starts an appeal against a rejected petition. The returned token
// grants creator access to the thread via emailed link; only its bcrypt
// hash is stored, so this is the one chance to see the plaintext.
func (s *Service) Open(ctx context.Context, actor identity.Actor, petitionID uuid.UUID, message string) (*appealmodels.Appeal, string, error) {
	ctx, span := otel.Tracer("appeals").Start(ctx, "Open")
	defer span.End()

	if actor.IsZero() {
		return nil, "", dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	if err := validation.Comment(message); err != nil {
		return nil, "", err
	}

	p, err := s.petitions.Get(ctx, petitionID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, "", dErrors.New(dErrors.CodeNotFound, "petition not found")
		}
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load petition")
	}
	if p.CreatorID != actor.ID {
		return nil, "", dErrors.New(dErrors.CodeForbidden, "only the petition creator can appeal")
	}
	if p.Status != petitionmodels.StatusRejected && p.Status != petitionmodels.StatusPaused {
		return nil, "", dErrors.New(dErrors.CodeConflict, "only rejected or paused petitions can be appealed")
	}

	if existing, err := s.store.GetByPetition(ctx, petitionID); err == nil && !existing.Status.Closed() {
		return nil, "", dErrors.New(dErrors.CodeConflict, "an appeal is already open for this petition")
	} else if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to check existing appeals")
	}

	if err := s.limiter.Check(ctx, ratelimit.ActionAppealCreate, actor.ID); err != nil {
		return nil, "", err
	}

	token, err := secrets.Generate()
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate access token")
	}
	tokenHash, err := secrets.Hash(token)
	if err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash access token")
	}

	now := time.Now()
	a := &appealmodels.Appeal{
		ID:              uuid.New(),
		PetitionID:      petitionID,
		CreatorID:       actor.ID,
		CreatorName:     actor.Name,
		CreatorEmail:    actor.Email,
		Status:          appealmodels.StatusPending,
		AccessTokenHash: tokenHash,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := s.store.Create(ctx, a); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to create appeal")
	}

	msg := &appealmodels.Message{
		ID:         uuid.New(),
		AppealID:   a.ID,
		SenderRole: appealmodels.SenderCreator,
		SenderName: actor.Name,
		Content:    validation.Sanitize(message),
		CreatedAt:  now,
	}
	if err := s.store.AddMessage(ctx, msg); err != nil {
		return nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to record appeal message")
	}

	s.metrics.AppealsOpened.Inc()
	s.metrics.AppealMessages.WithLabelValues(string(appealmodels.SenderCreator), "public").Inc()
	s.audit(ctx, actor, audit.ActionAppealOpen, a, nil)
	s.notify(ctx, notify.TypeAppealOpened, a, "")
	s.logger.InfoContext(ctx, "appeal opened",
		"appeal_id", a.ID,
		"petition_id", petitionID,
		"creator_id", actor.ID,
	)
	return a, token, nil
}

// AddMessage appends to the thread. Creators may only post public
// messages on their own appeal; moderators may post public or internal.
// The first public moderator message advances a pending appeal to
// in-progress automatically.
func (s *Service) AddMessage(ctx context.Context, actor identity.Actor, appealID uuid.UUID, content string, internal bool) (*appealmodels.Message, error) {
	ctx, span := otel.Tracer("appeals").Start(ctx, "AddMessage")
	defer span.End()

	if err := validation.Comment(content); err != nil {
		return nil, err
	}
	a, err := s.load(ctx, appealID)
	if err != nil {
		return nil, err
	}

	role := appealmodels.SenderModerator
	if !actor.Role.CanModerate() {
		if a.CreatorID != actor.ID {
			return nil, dErrors.New(dErrors.CodeForbidden, "access denied")
		}
		if internal {
			return nil, dErrors.New(dErrors.CodeForbidden, "internal messages are restricted to moderators")
		}
		role = appealmodels.SenderCreator
	}
	if a.Status.Closed() {
		return nil, dErrors.New(dErrors.CodeConflict, "appeal is closed, reopen it to continue the thread")
	}
	if role == appealmodels.SenderCreator {
		if err := s.limiter.Check(ctx, ratelimit.ActionAppealMessage, actor.ID); err != nil {
			return nil, err
		}
	}

	// First public moderator response picks the appeal up. The status
	// moves before the message insert, so a concurrent-write conflict
	// surfaces with nothing half-recorded.
	advanced := false
	if role == appealmodels.SenderModerator && !internal && a.Status == appealmodels.StatusPending {
		a.Status = appealmodels.StatusInProgress
		if err := s.save(ctx, a); err != nil {
			return nil, err
		}
		advanced = true
	}

	msg := &appealmodels.Message{
		ID:         uuid.New(),
		AppealID:   a.ID,
		SenderRole: role,
		SenderName: actor.Name,
		Content:    validation.Sanitize(content),
		IsInternal: internal,
		CreatedAt:  time.Now(),
	}
	if err := s.store.AddMessage(ctx, msg); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record appeal message")
	}
	if advanced {
		s.metrics.AppealTransitions.WithLabelValues("advance").Inc()
	}

	visibility := "public"
	if internal {
		visibility = "internal"
	}
	s.metrics.AppealMessages.WithLabelValues(string(role), visibility).Inc()
	s.audit(ctx, actor, audit.ActionAppealMessage, a, map[string]string{"visibility": visibility})

	if role == appealmodels.SenderModerator && !internal {
		s.notify(ctx, notify.TypeAppealMessage, a, "")
	}
	return msg, nil
}

// Resolve closes the appeal in the creator's favor or as settled. The
// resolution note is optional.
func (s *Service) Resolve(ctx context.Context, actor identity.Actor, appealID uuid.UUID, note string) (*appealmodels.Appeal, error) {
	return s.close(ctx, actor, appealID, appealmodels.StatusResolved, note, audit.ActionAppealResolve, notify.TypeAppealResolved, "resolve")
}

// Reject closes the appeal against the creator. A rejection with no
// reason is not accepted.
func (s *Service) Reject(ctx context.Context, actor identity.Actor, appealID uuid.UUID, reason string) (*appealmodels.Appeal, error) {
	if err := validation.NotBlank("reason", reason); err != nil {
		return nil, err
	}
	return s.close(ctx, actor, appealID, appealmodels.StatusRejected, reason, audit.ActionAppealReject, notify.TypeAppealRejected, "reject")
}

func (s *Service) close(ctx context.Context, actor identity.Actor, appealID uuid.UUID, target appealmodels.Status, note string, auditAction string, notifyType notify.Type, metricAction string) (*appealmodels.Appeal, error) {
	ctx, span := otel.Tracer("appeals").Start(ctx, "Close")
	defer span.End()

	if !actor.Role.CanModerate() {
		return nil, dErrors.New(dErrors.CodeForbidden, "moderator role required")
	}
	a, err := s.load(ctx, appealID)
	if err != nil {
		return nil, err
	}
	if a.Status.Closed() {
		return nil, dErrors.New(dErrors.CodeConflict, "appeal is already closed")
	}

	note = validation.Sanitize(note)
	a.Status = target
	a.ResolutionNote = note
	if err := s.save(ctx, a); err != nil {
		return nil, err
	}

	s.metrics.AppealTransitions.WithLabelValues(metricAction).Inc()
	s.audit(ctx, actor, auditAction, a, map[string]string{"note": note})
	s.notify(ctx, notifyType, a, note)
	return a, nil
}

// Reopen returns a closed appeal to in-progress. Moderator only, and
// only from a closed state.
func (s *Service) Reopen(ctx context.Context, actor identity.Actor, appealID uuid.UUID) (*appealmodels.Appeal, error) {
	ctx, span := otel.Tracer("appeals").Start(ctx, "Reopen")
	defer span.End()

	if !actor.Role.CanModerate() {
		return nil, dErrors.New(dErrors.CodeForbidden, "moderator role required")
	}
	a, err := s.load(ctx, appealID)
	if err != nil {
		return nil, err
	}
	if !a.Status.Closed() {
		return nil, dErrors.New(dErrors.CodeConflict, "only resolved or rejected appeals can be reopened")
	}

	a.Status = appealmodels.StatusInProgress
	if err := s.save(ctx, a); err != nil {
		return nil, err
	}

	s.metrics.AppealTransitions.WithLabelValues("reopen").Inc()
	s.audit(ctx, actor, audit.ActionAppealReopen, a, nil)
	s.notify(ctx, notify.TypeAppealReopened, a, "")
	return a, nil
}

// Get returns the thread as visible to the actor: moderators see the
// whole thread, the creator sees only public messages, everyone else is
// denied.
func (s *Service) Get(ctx context.Context, actor identity.Actor, appealID uuid.UUID) (*Thread, error) {
	a, err := s.load(ctx, appealID)
	if err != nil {
		return nil, err
	}

	includeInternal := actor.Role.CanModerate()
	if !includeInternal && a.CreatorID != actor.ID {
		return nil, dErrors.New(dErrors.CodeForbidden, "access denied")
	}

	messages, err := s.store.ListMessages(ctx, a.ID, includeInternal)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load appeal messages")
	}
	return &Thread{Appeal: a, Messages: messages}, nil
}

// GetByToken grants creator-view access via the emailed token, for
// creators following the appeal link without a session. The view is
// always the public one.
func (s *Service) GetByToken(ctx context.Context, appealID uuid.UUID, token string) (*Thread, error) {
	a, err := s.load(ctx, appealID)
	if err != nil {
		return nil, err
	}
	if err := secrets.Verify(token, a.AccessTokenHash); err != nil {
		return nil, dErrors.New(dErrors.CodeForbidden, "access denied")
	}

	messages, err := s.store.ListMessages(ctx, a.ID, false)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load appeal messages")
	}
	return &Thread{Appeal: a, Messages: messages}, nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*appealmodels.Appeal, error) {
	a, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "appeal not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load appeal")
	}
	return a, nil
}

func (s *Service) save(ctx context.Context, a *appealmodels.Appeal) error {
	a.UpdatedAt = time.Now()
	if err := s.store.Update(ctx, a); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return dErrors.New(dErrors.CodeConflict, "appeal was modified concurrently, retry")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update appeal")
	}
	return nil
}

func (s *Service) audit(ctx context.Context, actor identity.Actor, action string, a *appealmodels.Appeal, details map[string]string) {
	s.auditor.Record(ctx, audit.Entry{
		Action:     action,
		ActorID:    actor.ID,
		ActorName:  actor.Name,
		ActorRole:  string(actor.Role),
		TargetType: "appeal",
		TargetID:   a.ID.String(),
		Details:    details,
	})
}

func (s *Service) notify(ctx context.Context, t notify.Type, a *appealmodels.Appeal, reason string) {
	err := s.notifier.Dispatch(ctx, notify.Event{
		Type:           t,
		RecipientID:    a.CreatorID,
		RecipientEmail: a.CreatorEmail,
		PetitionID:     a.PetitionID.String(),
		AppealID:       a.ID.String(),
		Reason:         reason,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "notification dispatch failed",
			"type", t,
			"appeal_id", a.ID,
			"error", err,
		)
	}
}
