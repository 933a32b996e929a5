package audit

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"arida/internal/platform/metrics"
	"arida/internal/platform/middleware"
)

func newTestPublisher(t *testing.T, store Store, opts ...PublisherOption) *Publisher {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewWith(prometheus.NewRegistry())
	p := NewPublisher(store, logger, m, opts...)
	t.Cleanup(p.Close)
	return p
}

func TestPublisherRecordPersists(t *testing.T) {
	store := NewMemoryStore()
	p := newTestPublisher(t, store)

	p.Record(context.Background(), Entry{
		Action:  ActionPetitionApprove,
		ActorID: "mod-1",
	})
	p.Close()

	entries, err := store.List(context.Background(), Filter{}, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ActionPetitionApprove, entries[0].Action)
	assert.NotEqual(t, uuid.Nil, entries[0].ID, "ID should be filled in")
	assert.False(t, entries[0].Timestamp.IsZero(), "timestamp should be filled in")
}

func TestPublisherFillsDeviceFromContext(t *testing.T) {
	store := NewMemoryStore()
	p := newTestPublisher(t, store)

	ctx := middleware.WithDevice(context.Background(), "firefox on linux")
	p.Record(ctx, Entry{Action: ActionAppealOpen, ActorID: "user-1"})
	p.Close()

	entries, err := store.List(context.Background(), Filter{}, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "firefox on linux", entries[0].Device)
}

type captureForwarder struct {
	mu      sync.Mutex
	entries []Entry
}

func (f *captureForwarder) Forward(entry Entry) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
}

func (f *captureForwarder) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func TestPublisherForwardsAfterPersist(t *testing.T) {
	store := NewMemoryStore()
	fwd := &captureForwarder{}
	p := newTestPublisher(t, store, WithForwarder(fwd))

	p.Record(context.Background(), Entry{Action: ActionAppealResolve})
	p.Close()

	assert.Equal(t, 1, fwd.count())
}

type blockingStore struct {
	release chan struct{}
	inner   Store
}

func (s *blockingStore) Append(ctx context.Context, entry Entry) error {
	<-s.release
	return s.inner.Append(ctx, entry)
}

func (s *blockingStore) List(ctx context.Context, filter Filter, limit int) ([]Entry, error) {
	return s.inner.List(ctx, filter, limit)
}

func TestPublisherDropsWhenBufferFull(t *testing.T) {
	blocking := &blockingStore{release: make(chan struct{}), inner: NewMemoryStore()}
	p := newTestPublisher(t, blocking, WithBufferSize(1))

	// First entry occupies the worker, second fills the buffer, third drops.
	for i := 0; i < 3; i++ {
		p.Record(context.Background(), Entry{Action: ActionPetitionCreate})
	}
	close(blocking.release)
	p.Close()

	entries, err := blocking.inner.List(context.Background(), Filter{}, 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(entries), 2, "at least one entry should have been dropped")
	assert.NotEmpty(t, entries, "queued entries should still drain on close")
}

func TestPublisherNeverBlocksCaller(t *testing.T) {
	blocking := &blockingStore{release: make(chan struct{}), inner: NewMemoryStore()}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.NewWith(prometheus.NewRegistry())
	p := NewPublisher(blocking, logger, m, WithBufferSize(1))

	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			p.Record(context.Background(), Entry{Action: ActionPetitionCreate})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Record blocked on a full buffer")
	}

	close(blocking.release)
	p.Close()
}
