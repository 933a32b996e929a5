package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"arida/internal/identity"
	"arida/internal/notify"
	"arida/internal/petition/models"
	"arida/internal/ratelimit"
	dErrors "arida/pkg/domain-errors"
	"arida/pkg/platform/sentinel"
)

func (s *ServiceSuite) TestCreateLandsInPendingQueue() {
	p := s.createPetition()

	s.Equal(models.StatusPending, p.Status)
	s.Equal(s.creator.ID, p.CreatorID)
	s.False(p.FlaggedProfanity)
	s.False(p.FlaggedSpam)
	s.Contains(s.auditor.actions(), "petition.create")
}

func (s *ServiceSuite) TestCreateRequiresAuth() {
	_, err := s.service.Create(context.Background(), identity.Actor{}, validCreateRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestCreateValidatesContent() {
	req := validCreateRequest()
	req.Title = "short"
	_, err := s.service.Create(context.Background(), s.creator, req)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	req = validCreateRequest()
	req.Description = "too short"
	_, err = s.service.Create(context.Background(), s.creator, req)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestCreateFlagsSuspectContent() {
	req := validCreateRequest()
	req.Description = "Visit http://spam.example for the full story about why the council must act now."
	p, err := s.service.Create(context.Background(), s.creator, req)
	s.Require().NoError(err)
	s.True(p.FlaggedSpam)
	s.Equal(models.StatusPending, p.Status, "flagged content still enters the queue")
}

func (s *ServiceSuite) TestCreateSanitizesContent() {
	req := validCreateRequest()
	req.Title = "  Save   the Medina of Fez  "
	p, err := s.service.Create(context.Background(), s.creator, req)
	s.Require().NoError(err)
	s.Equal("Save the Medina of Fez", p.Title)
}

func (s *ServiceSuite) TestCreateRateLimited() {
	s.limiter.err = dErrors.New(dErrors.CodeLimitExceeded, "too many requests")
	_, err := s.service.Create(context.Background(), s.creator, validCreateRequest())
	s.True(dErrors.HasCode(err, dErrors.CodeLimitExceeded))
	s.Contains(s.limiter.calls, ratelimit.ActionPetitionCreate)
}

func (s *ServiceSuite) TestApprove() {
	p := s.createPetition()

	approved, err := s.service.Approve(context.Background(), s.moderator, p.ID, "meets guidelines")
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, approved.Status)
	s.NotNil(approved.ApprovedAt)
	s.Equal(s.moderator.ID, approved.ModeratorID)

	s.Require().Len(s.notifier.events, 1)
	s.Equal(notify.TypePetitionApproved, s.notifier.events[0].Type)
	s.Equal(s.creator.ID, s.notifier.events[0].RecipientID)
}

func (s *ServiceSuite) TestApproveRequiresModerator() {
	p := s.createPetition()
	_, err := s.service.Approve(context.Background(), s.creator, p.ID, "")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestApproveOnlyFromPending() {
	p := s.approvedPetition()
	_, err := s.service.Approve(context.Background(), s.moderator, p.ID, "")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestRejectRequiresReason() {
	p := s.createPetition()
	_, err := s.service.Reject(context.Background(), s.moderator, p.ID, "   ")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestRejectOpensHistoryEntry() {
	p := s.rejectedPetition("contains unverified claims")

	s.Equal(models.StatusRejected, p.Status)
	s.Equal("contains unverified claims", p.ModerationNotes)
	s.Require().Len(p.ResubmissionHistory, 1)
	s.Equal("contains unverified claims", p.ResubmissionHistory[0].RejectionReason)
	s.Nil(p.ResubmissionHistory[0].ResubmittedAt, "entry stays open until resubmission")

	s.Require().Len(s.notifier.events, 1)
	s.Equal(notify.TypePetitionRejected, s.notifier.events[0].Type)
	s.Equal("contains unverified claims", s.notifier.events[0].Reason)
}

func (s *ServiceSuite) TestPauseAndUnpause() {
	p := s.approvedPetition()

	paused, err := s.service.Pause(context.Background(), s.moderator, p.ID, "complaint under investigation")
	s.Require().NoError(err)
	s.Equal(models.StatusPaused, paused.Status)
	s.NotNil(paused.PausedAt)

	unpaused, err := s.service.Unpause(context.Background(), s.moderator, paused.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, unpaused.Status)
	s.Nil(unpaused.PausedAt)
}

func (s *ServiceSuite) TestPauseOnlyFromApproved() {
	p := s.createPetition()
	_, err := s.service.Pause(context.Background(), s.moderator, p.ID, "reason")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestPauseRequiresReason() {
	p := s.approvedPetition()
	_, err := s.service.Pause(context.Background(), s.moderator, p.ID, "")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestResubmitClosesHistoryAndReturnsToQueue() {
	p := s.rejectedPetition("needs sources")

	resubmitted, err := s.service.Resubmit(context.Background(), s.creator, p.ID, ResubmitRequest{
		Description: "The old city walls need urgent restoration, see the UNESCO report from March.",
	})
	s.Require().NoError(err)
	s.Equal(models.StatusPending, resubmitted.Status)
	s.Equal(1, resubmitted.ResubmissionCount)
	s.Require().Len(resubmitted.ResubmissionHistory, 1)
	s.NotNil(resubmitted.ResubmissionHistory[0].ResubmittedAt, "open entry closes on resubmit")
	s.Empty(resubmitted.ModerationNotes, "rejection notes do not follow the petition back into the queue")
	s.Contains(resubmitted.Description, "UNESCO")
}

func (s *ServiceSuite) TestRejectionThenResubmitThenApprove() {
	ctx := context.Background()
	p := s.rejectedPetition("missing municipality details")

	resubmitted, err := s.service.Resubmit(ctx, s.creator, p.ID, ResubmitRequest{})
	s.Require().NoError(err)
	s.Equal(models.StatusPending, resubmitted.Status)
	s.Equal(1, resubmitted.ResubmissionCount)

	approved, err := s.service.Approve(ctx, s.moderator, p.ID, "")
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, approved.Status)
	s.Empty(approved.ModerationNotes)
}

func (s *ServiceSuite) TestResubmitCreatorOnly() {
	p := s.rejectedPetition("needs sources")
	_, err := s.service.Resubmit(context.Background(), s.stranger, p.ID, ResubmitRequest{})
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestResubmitOnlyFromRejected() {
	p := s.createPetition()
	_, err := s.service.Resubmit(context.Background(), s.creator, p.ID, ResubmitRequest{})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestResubmitCapEnforced() {
	ctx := context.Background()
	p := s.rejectedPetition("round one")

	for i := 0; i < models.MaxResubmissions; i++ {
		resubmitted, err := s.service.Resubmit(ctx, s.creator, p.ID, ResubmitRequest{})
		s.Require().NoError(err)
		s.Equal(i+1, resubmitted.ResubmissionCount)

		if i < models.MaxResubmissions-1 {
			_, err = s.service.Reject(ctx, s.moderator, p.ID, "still not there")
			s.Require().NoError(err)
		}
	}

	_, err := s.service.Reject(ctx, s.moderator, p.ID, "final rejection")
	s.Require().NoError(err)

	_, err = s.service.Resubmit(ctx, s.creator, p.ID, ResubmitRequest{})
	s.True(dErrors.HasCode(err, dErrors.CodeLimitExceeded))
}

func (s *ServiceSuite) TestResubmitSynthesizesMissingHistory() {
	// Rows written before history tracking: rejected with notes but no
	// history entries.
	p := s.createPetition()
	stored, err := s.store.Get(context.Background(), p.ID)
	s.Require().NoError(err)
	stored.Status = models.StatusRejected
	stored.ModerationNotes = "legacy rejection reason"
	stored.ResubmissionHistory = nil
	s.Require().NoError(s.store.Update(context.Background(), stored))

	resubmitted, err := s.service.Resubmit(context.Background(), s.creator, p.ID, ResubmitRequest{})
	s.Require().NoError(err)
	s.Require().Len(resubmitted.ResubmissionHistory, 1)
	s.Equal("legacy rejection reason", resubmitted.ResubmissionHistory[0].RejectionReason)
	s.NotNil(resubmitted.ResubmissionHistory[0].ResubmittedAt)
}

func (s *ServiceSuite) TestResubmitRevalidatesContent() {
	p := s.rejectedPetition("needs work")
	_, err := s.service.Resubmit(context.Background(), s.creator, p.ID, ResubmitRequest{
		Title: "bad<title>",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestConcurrentUpdateSurfacesConflict() {
	p := s.rejectedPetition("needs work")

	logger := s.service.logger
	conflicting := &conflictingStore{Store: s.store}
	svc := New(conflicting, s.limiter, s.auditor, s.notifier, s.service.metrics, logger)

	_, err := svc.Resubmit(context.Background(), s.creator, p.ID, ResubmitRequest{})
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestArchiveByModerator() {
	p := s.approvedPetition()
	archived, err := s.service.Archive(context.Background(), s.moderator, p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusArchived, archived.Status)
	s.NotNil(archived.ArchivedAt)
	s.Equal(s.moderator.ID, archived.ModeratorID)
}

func (s *ServiceSuite) TestArchiveByAdmin() {
	p := s.approvedPetition()
	_, err := s.service.Archive(context.Background(), s.admin, p.ID)
	s.NoError(err)
}

func (s *ServiceSuite) TestArchiveForbiddenForCreator() {
	p := s.approvedPetition()
	_, err := s.service.Archive(context.Background(), s.creator, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	got, err := s.store.Get(context.Background(), p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, got.Status)
}

func (s *ServiceSuite) TestArchiveForbiddenForStranger() {
	p := s.approvedPetition()
	_, err := s.service.Archive(context.Background(), s.stranger, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestArchiveIsTerminal() {
	p := s.approvedPetition()
	_, err := s.service.Archive(context.Background(), s.moderator, p.ID)
	s.Require().NoError(err)

	_, err = s.service.Approve(context.Background(), s.moderator, p.ID, "")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	_, err = s.service.Archive(context.Background(), s.moderator, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestGetVisibility() {
	ctx := context.Background()
	p := s.createPetition()

	// Pending: creator and moderator yes, stranger no.
	_, err := s.service.Get(ctx, s.creator, p.ID)
	s.NoError(err)
	_, err = s.service.Get(ctx, s.moderator, p.ID)
	s.NoError(err)
	_, err = s.service.Get(ctx, s.stranger, p.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))

	// Approved: public.
	_, err = s.service.Approve(ctx, s.moderator, p.ID, "")
	s.Require().NoError(err)
	_, err = s.service.Get(ctx, s.stranger, p.ID)
	s.NoError(err)
}

func (s *ServiceSuite) TestGetNotFound() {
	_, err := s.service.Get(context.Background(), s.moderator, uuid.New())
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestListConfinesNonModerators() {
	ctx := context.Background()
	mine := s.createPetition()

	other, err := s.service.Create(ctx, s.stranger, validCreateRequest())
	s.Require().NoError(err)

	got, err := s.service.List(ctx, s.creator, models.ListFilter{})
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(mine.ID, got[0].ID)

	got, err = s.service.List(ctx, s.moderator, models.ListFilter{})
	s.Require().NoError(err)
	s.Len(got, 2)
	_ = other
}

func (s *ServiceSuite) TestTransitionsAuditStatusChange() {
	p := s.createPetition()

	_, err := s.service.Approve(context.Background(), s.moderator, p.ID, "")
	s.Require().NoError(err)

	last := s.auditor.last()
	s.Require().NotNil(last.Details)
	s.Equal("pending", last.Details["old_status"])
	s.Equal("approved", last.Details["new_status"])

	_, err = s.service.Pause(context.Background(), s.moderator, p.ID, "complaint under investigation")
	s.Require().NoError(err)

	last = s.auditor.last()
	s.Equal("approved", last.Details["old_status"])
	s.Equal("paused", last.Details["new_status"])
	s.Equal("complaint under investigation", last.Details["reason"])
}

func (s *ServiceSuite) TestNotifierFailureDoesNotFailTransition() {
	p := s.createPetition()
	s.notifier.err = errors.New("broker down")

	approved, err := s.service.Approve(context.Background(), s.moderator, p.ID, "")
	s.Require().NoError(err)
	s.Equal(models.StatusApproved, approved.Status)
}

// conflictingStore forces a version conflict on every update.
type conflictingStore struct {
	Store
}

func (c *conflictingStore) Update(ctx context.Context, p *models.Petition) error {
	return sentinel.ErrConflict
}

