package audit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"arida/internal/platform/metrics"
	"arida/internal/platform/middleware"
)

// Forwarder ships entries to an external sink (Kafka) after they are
// persisted. Best effort.
type Forwarder interface {
	Forward(entry Entry)
}

// Publisher records audit entries asynchronously through a buffered
// channel. When the buffer is full the entry is dropped and counted;
// a stalled audit sink must never block a moderation decision.
type Publisher struct {
	store     Store
	forwarder Forwarder
	entries   chan Entry
	wg        sync.WaitGroup
	logger    *slog.Logger
	metrics   *metrics.Metrics

	closeOnce sync.Once
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithForwarder attaches an external sink invoked after local persistence.
func WithForwarder(f Forwarder) PublisherOption {
	return func(p *Publisher) {
		p.forwarder = f
	}
}

// WithBufferSize overrides the default channel buffer.
func WithBufferSize(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.entries = make(chan Entry, size)
		}
	}
}

const defaultBufferSize = 256

func NewPublisher(store Store, logger *slog.Logger, m *metrics.Metrics, opts ...PublisherOption) *Publisher {
	p := &Publisher{
		store:   store,
		entries: make(chan Entry, defaultBufferSize),
		logger:  logger,
		metrics: m,
	}
	for _, opt := range opts {
		opt(p)
	}

	p.wg.Add(1)
	go p.processEntries()
	return p
}

// processEntries persists entries from the channel in the background.
func (p *Publisher) processEntries() {
	defer p.wg.Done()
	for entry := range p.entries {
		if err := p.store.Append(context.Background(), entry); err != nil {
			p.logger.Error("failed to persist audit entry",
				"error", err,
				"action", entry.Action,
				"actor_id", entry.ActorID,
			)
			continue
		}
		p.metrics.AuditEntriesRecorded.Inc()
		if p.forwarder != nil {
			p.forwarder.Forward(entry)
		}
	}
}

// Record queues an entry. Missing ID, timestamp and device summary are
// filled in here so callers only describe the action. Never blocks.
func (p *Publisher) Record(ctx context.Context, entry Entry) {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Device == "" {
		entry.Device = middleware.GetDevice(ctx)
	}

	select {
	case p.entries <- entry:
	default:
		p.metrics.AuditEntriesDropped.Inc()
		p.logger.Warn("audit buffer full, entry dropped",
			"action", entry.Action,
			"actor_id", entry.ActorID,
		)
	}
}

// List reads entries newest first through the underlying store.
func (p *Publisher) List(ctx context.Context, filter Filter, limit int) ([]Entry, error) {
	return p.store.List(ctx, filter, limit)
}

// Close drains pending entries and stops the background worker.
func (p *Publisher) Close() {
	p.closeOnce.Do(func() {
		close(p.entries)
		p.wg.Wait()
	})
}
