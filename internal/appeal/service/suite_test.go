package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	appealmodels "arida/internal/appeal/models"
	appealstore "arida/internal/appeal/store"
	"arida/internal/audit"
	"arida/internal/identity"
	"arida/internal/notify"
	petitionmodels "arida/internal/petition/models"
	petitionstore "arida/internal/petition/store"
	"arida/internal/platform/metrics"
	"arida/internal/ratelimit"
)

type fakeAuditor struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (f *fakeAuditor) Record(ctx context.Context, entry audit.Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
}

func (f *fakeAuditor) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.entries))
	for i, e := range f.entries {
		out[i] = e.Action
	}
	return out
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []notify.Event
	err    error
}

func (f *fakeNotifier) Dispatch(ctx context.Context, event notify.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeNotifier) types() []notify.Type {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notify.Type, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

type fakeLimiter struct {
	mu    sync.Mutex
	err   error
	calls []ratelimit.Action
}

func (f *fakeLimiter) Check(ctx context.Context, action ratelimit.Action, actorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, action)
	return f.err
}

type ServiceSuite struct {
	suite.Suite
	store     *appealstore.MemoryStore
	petitions *petitionstore.MemoryStore
	auditor   *fakeAuditor
	notifier  *fakeNotifier
	limiter   *fakeLimiter
	service   *Service

	creator   identity.Actor
	moderator identity.Actor
	stranger  identity.Actor
}

func (s *ServiceSuite) SetupTest() {
	s.store = appealstore.NewMemoryStore()
	s.petitions = petitionstore.NewMemoryStore()
	s.auditor = &fakeAuditor{}
	s.notifier = &fakeNotifier{}
	s.limiter = &fakeLimiter{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewWith(prometheus.NewRegistry())
	s.service = New(s.store, s.petitions, s.limiter, s.auditor, s.notifier, m, logger)

	s.creator = identity.Actor{ID: "user-1", Name: "Imane", Email: "imane@example.ma", Role: identity.RoleUser}
	s.moderator = identity.Actor{ID: "mod-1", Name: "Yassine", Role: identity.RoleModerator}
	s.stranger = identity.Actor{ID: "user-2", Name: "Omar", Role: identity.RoleUser}
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

// Fixture helpers

func (s *ServiceSuite) rejectedPetition() *petitionmodels.Petition {
	now := time.Now()
	p := &petitionmodels.Petition{
		ID:              uuid.New(),
		CreatorID:       s.creator.ID,
		Title:           "Save the Medina of Fez",
		Description:     "The old city walls need urgent restoration before the next rainy season arrives.",
		Status:          petitionmodels.StatusRejected,
		ModerationNotes: "insufficient sources",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.Require().NoError(s.petitions.Create(context.Background(), p))
	return p
}

func (s *ServiceSuite) openAppeal() *appealThreadFixture {
	p := s.rejectedPetition()
	a, token, err := s.service.Open(context.Background(), s.creator, p.ID, "I added the missing sources, please review again.")
	s.Require().NoError(err)
	return &appealThreadFixture{petition: p, appeal: a, token: token}
}

type appealThreadFixture struct {
	petition *petitionmodels.Petition
	appeal   *appealmodels.Appeal
	token    string
}
