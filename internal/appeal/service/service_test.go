package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	appealmodels "arida/internal/appeal/models"
	"arida/internal/audit"
	"arida/internal/identity"
	"arida/internal/notify"
	petitionmodels "arida/internal/petition/models"
	"arida/internal/ratelimit"
	dErrors "arida/pkg/domain-errors"
	"arida/pkg/platform/sentinel"
	"arida/pkg/secrets"
)

func (s *ServiceSuite) TestOpenAppeal() {
	fx := s.openAppeal()

	s.Equal(appealmodels.StatusPending, fx.appeal.Status)
	s.Equal(s.creator.ID, fx.appeal.CreatorID)
	s.Equal(s.creator.Email, fx.appeal.CreatorEmail)
	s.NotEmpty(fx.token)
	s.NotEqual(fx.token, fx.appeal.AccessTokenHash)
	s.NoError(secrets.Verify(fx.token, fx.appeal.AccessTokenHash))

	s.Contains(s.auditor.actions(), audit.ActionAppealOpen)
	s.Contains(s.notifier.types(), notify.TypeAppealOpened)
	s.Contains(s.limiter.calls, ratelimit.ActionAppealCreate)

	thread, err := s.service.Get(context.Background(), s.creator, fx.appeal.ID)
	s.Require().NoError(err)
	s.Require().Len(thread.Messages, 1)
	s.Equal(appealmodels.SenderCreator, thread.Messages[0].SenderRole)
}

func (s *ServiceSuite) TestOpenRequiresAuth() {
	p := s.rejectedPetition()
	_, _, err := s.service.Open(context.Background(), identity.Actor{}, p.ID, "please take another look at this")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func (s *ServiceSuite) TestOpenOnlyByPetitionCreator() {
	p := s.rejectedPetition()
	_, _, err := s.service.Open(context.Background(), s.stranger, p.ID, "please take another look at this")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestOpenOnlyForRejectedPetitions() {
	p := s.rejectedPetition()
	p.Status = petitionmodels.StatusApproved
	s.Require().NoError(s.petitions.Update(context.Background(), p))

	_, _, err := s.service.Open(context.Background(), s.creator, p.ID, "please take another look at this")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestOpenSecondAppealConflicts() {
	fx := s.openAppeal()

	_, _, err := s.service.Open(context.Background(), s.creator, fx.petition.ID, "opening a second appeal for the same decision")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestOpenAgainAfterClose() {
	fx := s.openAppeal()
	_, err := s.service.Reject(context.Background(), s.moderator, fx.appeal.ID, "decision stands")
	s.Require().NoError(err)

	a, token, err := s.service.Open(context.Background(), s.creator, fx.petition.ID, "new evidence has come to light since then")
	s.Require().NoError(err)
	s.NotEmpty(token)
	s.NotEqual(fx.appeal.ID, a.ID)
}

func (s *ServiceSuite) TestOpenRateLimited() {
	p := s.rejectedPetition()
	s.limiter.err = dErrors.New(dErrors.CodeLimitExceeded, "too many appeal.create requests")

	_, _, err := s.service.Open(context.Background(), s.creator, p.ID, "please take another look at this")
	s.True(dErrors.HasCode(err, dErrors.CodeLimitExceeded))
}

func (s *ServiceSuite) TestCreatorMessageRateLimited() {
	fx := s.openAppeal()
	s.limiter.err = dErrors.New(dErrors.CodeLimitExceeded, "too many appeal.message requests")

	_, err := s.service.AddMessage(context.Background(), s.creator, fx.appeal.ID, "one more thing I forgot to mention", false)
	s.True(dErrors.HasCode(err, dErrors.CodeLimitExceeded))
}

func (s *ServiceSuite) TestModeratorMessagesBypassRateLimit() {
	fx := s.openAppeal()
	s.limiter.err = dErrors.New(dErrors.CodeLimitExceeded, "too many appeal.message requests")

	_, err := s.service.AddMessage(context.Background(), s.moderator, fx.appeal.ID, "we are looking into it", false)
	s.NoError(err)
}

func (s *ServiceSuite) TestFirstModeratorReplyAdvancesStatus() {
	fx := s.openAppeal()

	_, err := s.service.AddMessage(context.Background(), s.moderator, fx.appeal.ID, "we are looking into it", false)
	s.Require().NoError(err)

	thread, err := s.service.Get(context.Background(), s.moderator, fx.appeal.ID)
	s.Require().NoError(err)
	s.Equal(appealmodels.StatusInProgress, thread.Appeal.Status)
	s.Contains(s.notifier.types(), notify.TypeAppealMessage)
}

func (s *ServiceSuite) TestInternalMessageDoesNotAdvanceStatus() {
	fx := s.openAppeal()

	_, err := s.service.AddMessage(context.Background(), s.moderator, fx.appeal.ID, "checking with legal before replying", true)
	s.Require().NoError(err)

	thread, err := s.service.Get(context.Background(), s.moderator, fx.appeal.ID)
	s.Require().NoError(err)
	s.Equal(appealmodels.StatusPending, thread.Appeal.Status)
	s.NotContains(s.notifier.types(), notify.TypeAppealMessage)
}

func (s *ServiceSuite) TestInternalMessageHiddenFromCreator() {
	fx := s.openAppeal()

	_, err := s.service.AddMessage(context.Background(), s.moderator, fx.appeal.ID, "checking with legal before replying", true)
	s.Require().NoError(err)
	_, err = s.service.AddMessage(context.Background(), s.moderator, fx.appeal.ID, "thanks for your patience", false)
	s.Require().NoError(err)

	creatorView, err := s.service.Get(context.Background(), s.creator, fx.appeal.ID)
	s.Require().NoError(err)
	s.Require().Len(creatorView.Messages, 2)
	for _, m := range creatorView.Messages {
		s.False(m.IsInternal)
	}

	moderatorView, err := s.service.Get(context.Background(), s.moderator, fx.appeal.ID)
	s.Require().NoError(err)
	s.Len(moderatorView.Messages, 3)
}

func (s *ServiceSuite) TestCreatorCannotPostInternal() {
	fx := s.openAppeal()

	_, err := s.service.AddMessage(context.Background(), s.creator, fx.appeal.ID, "sneaky internal note", true)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestStrangerCannotPost() {
	fx := s.openAppeal()

	_, err := s.service.AddMessage(context.Background(), s.stranger, fx.appeal.ID, "let me weigh in on this one", false)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestMessageOnClosedAppealConflicts() {
	fx := s.openAppeal()
	_, err := s.service.Resolve(context.Background(), s.moderator, fx.appeal.ID, "petition restored to the queue")
	s.Require().NoError(err)

	_, err = s.service.AddMessage(context.Background(), s.creator, fx.appeal.ID, "thank you very much for this", false)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	s.NotContains(s.limiter.calls, ratelimit.ActionAppealMessage,
		"a refused message must not burn rate-limit budget")
}

func (s *ServiceSuite) TestAdvanceConflictLeavesNoMessage() {
	fx := s.openAppeal()

	conflicting := &conflictingAppealStore{Store: s.store}
	svc := New(conflicting, s.petitions, s.limiter, s.auditor, s.notifier, s.service.metrics, s.service.logger)

	_, err := svc.AddMessage(context.Background(), s.moderator, fx.appeal.ID, "we are looking into it", false)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	messages, listErr := s.store.ListMessages(context.Background(), fx.appeal.ID, true)
	s.Require().NoError(listErr)
	s.Len(messages, 1, "only the opening message survives a refused advance")
}

func (s *ServiceSuite) TestResolve() {
	fx := s.openAppeal()

	a, err := s.service.Resolve(context.Background(), s.moderator, fx.appeal.ID, "petition restored to the queue")
	s.Require().NoError(err)
	s.Equal(appealmodels.StatusResolved, a.Status)
	s.Equal("petition restored to the queue", a.ResolutionNote)
	s.Contains(s.auditor.actions(), audit.ActionAppealResolve)
	s.Contains(s.notifier.types(), notify.TypeAppealResolved)
}

func (s *ServiceSuite) TestResolveRequiresModerator() {
	fx := s.openAppeal()

	_, err := s.service.Resolve(context.Background(), s.creator, fx.appeal.ID, "resolving my own appeal")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestRejectRequiresReason() {
	fx := s.openAppeal()

	_, err := s.service.Reject(context.Background(), s.moderator, fx.appeal.ID, "   ")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestReject() {
	fx := s.openAppeal()

	a, err := s.service.Reject(context.Background(), s.moderator, fx.appeal.ID, "original decision stands")
	s.Require().NoError(err)
	s.Equal(appealmodels.StatusRejected, a.Status)
	s.Contains(s.notifier.types(), notify.TypeAppealRejected)
}

func (s *ServiceSuite) TestCloseTwiceConflicts() {
	fx := s.openAppeal()
	_, err := s.service.Resolve(context.Background(), s.moderator, fx.appeal.ID, "petition restored to the queue")
	s.Require().NoError(err)

	_, err = s.service.Reject(context.Background(), s.moderator, fx.appeal.ID, "changed my mind")
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestReopen() {
	fx := s.openAppeal()
	_, err := s.service.Reject(context.Background(), s.moderator, fx.appeal.ID, "original decision stands")
	s.Require().NoError(err)

	a, err := s.service.Reopen(context.Background(), s.moderator, fx.appeal.ID)
	s.Require().NoError(err)
	s.Equal(appealmodels.StatusInProgress, a.Status)
	s.Contains(s.auditor.actions(), audit.ActionAppealReopen)
	s.Contains(s.notifier.types(), notify.TypeAppealReopened)
}

func (s *ServiceSuite) TestReopenRequiresModerator() {
	fx := s.openAppeal()
	_, err := s.service.Reject(context.Background(), s.moderator, fx.appeal.ID, "original decision stands")
	s.Require().NoError(err)

	_, err = s.service.Reopen(context.Background(), s.creator, fx.appeal.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestReopenOnlyFromClosed() {
	fx := s.openAppeal()

	_, err := s.service.Reopen(context.Background(), s.moderator, fx.appeal.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *ServiceSuite) TestResolveWithoutNote() {
	fx := s.openAppeal()

	a, err := s.service.Resolve(context.Background(), s.moderator, fx.appeal.ID, "")
	s.Require().NoError(err)
	s.Equal(appealmodels.StatusResolved, a.Status)
	s.Empty(a.ResolutionNote)
}

func (s *ServiceSuite) TestOpenForPausedPetition() {
	p := s.rejectedPetition()
	p.Status = petitionmodels.StatusPaused
	s.Require().NoError(s.petitions.Update(context.Background(), p))

	a, token, err := s.service.Open(context.Background(), s.creator, p.ID, "this pause is hurting the campaign momentum")
	s.Require().NoError(err)
	s.NotEmpty(token)
	s.Equal(appealmodels.StatusPending, a.Status)
}

func (s *ServiceSuite) TestGetDeniedToStranger() {
	fx := s.openAppeal()

	_, err := s.service.Get(context.Background(), s.stranger, fx.appeal.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestGetByToken() {
	fx := s.openAppeal()
	_, err := s.service.AddMessage(context.Background(), s.moderator, fx.appeal.ID, "internal note for the team", true)
	s.Require().NoError(err)

	thread, err := s.service.GetByToken(context.Background(), fx.appeal.ID, fx.token)
	s.Require().NoError(err)
	s.Len(thread.Messages, 1)

	_, err = s.service.GetByToken(context.Background(), fx.appeal.ID, "wrong-token")
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

func (s *ServiceSuite) TestOpenMissingPetition() {
	_, _, err := s.service.Open(context.Background(), s.creator, uuid.New(), "there is no petition behind this")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestMessageSanitized() {
	fx := s.openAppeal()

	m, err := s.service.AddMessage(context.Background(), s.creator, fx.appeal.ID, "  please   review\tagain  ", false)
	s.Require().NoError(err)
	s.Equal("please review again", m.Content)
}

func (s *ServiceSuite) TestNotifierFailureTolerated() {
	p := s.rejectedPetition()
	s.notifier.err = errors.New("broker unavailable")

	a, _, err := s.service.Open(context.Background(), s.creator, p.ID, "please take another look at this")
	s.Require().NoError(err)
	s.NotNil(a)
}

func (s *ServiceSuite) TestConcurrentCloseConflict() {
	fx := s.openAppeal()

	stale, err := s.store.Get(context.Background(), fx.appeal.ID)
	s.Require().NoError(err)

	_, err = s.service.Resolve(context.Background(), s.moderator, fx.appeal.ID, "petition restored to the queue")
	s.Require().NoError(err)

	stale.Status = appealmodels.StatusRejected
	s.ErrorIs(s.store.Update(context.Background(), stale), sentinel.ErrConflict)
}

// conflictingAppealStore forces a version conflict on every update.
type conflictingAppealStore struct {
	Store
}

func (c *conflictingAppealStore) Update(ctx context.Context, a *appealmodels.Appeal) error {
	return sentinel.ErrConflict
}
