package ratelimit

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arida/internal/platform/config"
	"arida/internal/platform/metrics"
	dErrors "arida/pkg/domain-errors"
)

func newTestLimiter(t *testing.T, store Store) *Limiter {
	t.Helper()
	cfg := config.RateLimitConfig{
		PetitionCreate:     3,
		PetitionResubmit:   3,
		AppealCreate:       5,
		AppealCreateWindow: 24 * time.Hour,
		AppealMessage:      20,
		Window:             time.Hour,
	}
	m := metrics.NewWith(prometheus.NewRegistry())
	return NewLimiter(store, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), m)
}

func TestLimiterExactlyNThenDenied(t *testing.T) {
	l := newTestLimiter(t, NewMemoryStore())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Check(ctx, ActionPetitionCreate, "u1"))
	}

	err := l.Check(ctx, ActionPetitionCreate, "u1")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeLimitExceeded))
}

func TestLimiterActionsCountedSeparately(t *testing.T) {
	l := newTestLimiter(t, NewMemoryStore())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Check(ctx, ActionPetitionCreate, "u1"))
	}

	// A different action for the same actor has its own budget.
	assert.NoError(t, l.Check(ctx, ActionAppealCreate, "u1"))
}

func TestLimiterPerActionWindow(t *testing.T) {
	cfg := config.RateLimitConfig{
		AppealCreate:       1,
		AppealCreateWindow: 24 * time.Hour,
		AppealMessage:      1,
		Window:             time.Millisecond,
	}
	m := metrics.NewWith(prometheus.NewRegistry())
	l := NewLimiter(NewMemoryStore(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), m)
	ctx := context.Background()

	require.NoError(t, l.Check(ctx, ActionAppealMessage, "u1"))
	require.NoError(t, l.Check(ctx, ActionAppealCreate, "u1"))

	// The short message window ages out, the long appeal window does not.
	time.Sleep(5 * time.Millisecond)
	assert.NoError(t, l.Check(ctx, ActionAppealMessage, "u1"))
	assert.Error(t, l.Check(ctx, ActionAppealCreate, "u1"))
}

func TestLimiterRecoversAfterReset(t *testing.T) {
	l := newTestLimiter(t, NewMemoryStore())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, l.Check(ctx, ActionPetitionResubmit, "u1"))
	}
	require.Error(t, l.Check(ctx, ActionPetitionResubmit, "u1"))

	require.NoError(t, l.Reset(ctx, ActionPetitionResubmit, "u1"))
	assert.NoError(t, l.Check(ctx, ActionPetitionResubmit, "u1"))
}

func TestLimiterDisabled(t *testing.T) {
	cfg := config.RateLimitConfig{Disabled: true, PetitionCreate: 1, Window: time.Hour}
	m := metrics.NewWith(prometheus.NewRegistry())
	l := NewLimiter(NewMemoryStore(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), m)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		assert.NoError(t, l.Check(ctx, ActionPetitionCreate, "u1"))
	}
}

type failingStore struct{}

func (failingStore) Allow(context.Context, string, int, time.Duration) (*Result, error) {
	return nil, errors.New("store down")
}
func (failingStore) Reset(context.Context, string) error           { return nil }
func (failingStore) CurrentCount(context.Context, string) (int, error) { return 0, nil }

func TestLimiterFailsOpenOnStoreError(t *testing.T) {
	l := newTestLimiter(t, failingStore{})
	assert.NoError(t, l.Check(context.Background(), ActionPetitionCreate, "u1"))
}
