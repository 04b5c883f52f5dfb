// Package logsink implements the asynchronous recognition-log sink: a
// bounded in-memory queue drained by a single background worker that
// persists entries through the Config Repository, with an optional
// fire-and-forget NATS mirror for downstream analytics. Producers never
// block; a full queue drops the entry and increments a counter.
package logsink

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/fyrsmithlabs/intentd/internal/logging"
	"github.com/fyrsmithlabs/intentd/internal/models"
	"github.com/fyrsmithlabs/intentd/internal/repository"
)

// Sink is the bounded queue plus its background worker. The worker owns
// a stopCh/doneCh pair: Shutdown closes stopCh, the worker drains what it
// can within the deadline and closes doneCh when it exits.
type Sink struct {
	repo   repository.Repository
	logger *logging.Logger

	queue    chan models.LogEntry
	dropped  atomic.Int64
	stopCh   chan struct{}
	doneCh   chan struct{}
	drainFor time.Duration

	nats     *nats.Conn
	natsSubj string
	once     sync.Once
}

// Config configures a Sink.
type Config struct {
	QueueSize     int
	DrainDeadline time.Duration

	NATSEnabled bool
	NATSURL     string
	NATSSubject string
}

// New builds a Sink and starts its worker goroutine. Call Shutdown to
// drain and stop it.
func New(cfg Config, repo repository.Repository, logger *logging.Logger) *Sink {
	size := cfg.QueueSize
	if size <= 0 {
		size = 1000
	}
	drain := cfg.DrainDeadline
	if drain <= 0 {
		drain = 5 * time.Second
	}

	s := &Sink{
		repo:     repo,
		logger:   logger,
		queue:    make(chan models.LogEntry, size),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
		drainFor: drain,
		natsSubj: cfg.NATSSubject,
	}

	if cfg.NATSEnabled && cfg.NATSURL != "" {
		if conn, err := nats.Connect(cfg.NATSURL); err == nil {
			s.nats = conn
		} else if logger != nil {
			logger.Warn(context.Background(), "logsink: nats connect failed, mirror disabled")
		}
	}

	go s.run()
	return s
}

// Enqueue submits a LogEntry without blocking. If the queue is full, the
// entry is dropped and the drop counter incremented.
func (s *Sink) Enqueue(entry models.LogEntry) {
	select {
	case s.queue <- entry:
	default:
		s.dropped.Add(1)
		if s.logger != nil {
			s.logger.Warn(context.Background(), "logsink: queue full, dropping log entry")
		}
	}
}

// Dropped returns the number of entries dropped due to a full queue,
// exposed as a Prometheus counter by the metrics layer.
func (s *Sink) Dropped() int64 { return s.dropped.Load() }

// Depth returns the current queue occupancy, exposed as a gauge.
func (s *Sink) Depth() int { return len(s.queue) }

func (s *Sink) run() {
	defer close(s.doneCh)
	for {
		select {
		case entry := <-s.queue:
			s.persist(entry)
		case <-s.stopCh:
			s.drain()
			return
		}
	}
}

func (s *Sink) persist(entry models.LogEntry) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := s.repo.PersistLogEntry(ctx, entry); err != nil && s.logger != nil {
		s.logger.Warn(ctx, "logsink: persist failed")
	}
	s.mirror(entry)
}

// mirror publishes to NATS on a best-effort basis; it never blocks or
// gates the primary persistence path, and its own failures are swallowed.
func (s *Sink) mirror(entry models.LogEntry) {
	if s.nats == nil {
		return
	}
	payload, err := json.Marshal(entry)
	if err != nil {
		return
	}
	_ = s.nats.Publish(s.natsSubj, payload)
}

// drain flushes remaining queued entries with a deadline, for cooperative
// shutdown.
func (s *Sink) drain() {
	deadline := time.After(s.drainFor)
	for {
		select {
		case entry := <-s.queue:
			s.persist(entry)
		case <-deadline:
			return
		default:
			if len(s.queue) == 0 {
				return
			}
		}
	}
}

// Shutdown signals the worker to drain and stop, and waits (up to the
// drain deadline) for it to finish.
func (s *Sink) Shutdown(ctx context.Context) error {
	s.once.Do(func() { close(s.stopCh) })
	select {
	case <-s.doneCh:
	case <-ctx.Done():
	}
	if s.nats != nil {
		s.nats.Close()
	}
	return nil
}
