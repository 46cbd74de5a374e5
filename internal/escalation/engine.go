package escalation

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"vendorhub/internal/config"
	"vendorhub/internal/domain"
	"vendorhub/internal/metrics"
	"vendorhub/internal/notify"
)

// Store is the persistence the sweep needs
type Store interface {
	ListOpenQueries(ctx context.Context, afterID uint, limit int) ([]domain.Query, error)
	EscalateQuery(ctx context.Context, id uint, from, to domain.EscalationLevel, now time.Time, sweepID string) (bool, error)
	TouchEscalationCheck(ctx context.Context, id uint, now time.Time) error
}

// Dispatcher starts background notification delivery
type Dispatcher interface {
	Dispatch(ctx context.Context, msgs ...notify.Message) *notify.Task
}

// Options bound a single sweep
type Options struct {
	BatchSize   int
	Concurrency int
	// Deadline is a soft budget; queries not reached are left for the next sweep
	Deadline time.Duration
	// NotifyGrace is how long the sweep waits for its notifications before returning
	NotifyGrace time.Duration
}

// OptionsFromConfig converts escalation config
func OptionsFromConfig(cfg *config.EscalationConfig) Options {
	return Options{
		BatchSize:   cfg.BatchSize,
		Concurrency: cfg.Concurrency,
		Deadline:    cfg.SweepDeadline(),
		NotifyGrace: cfg.NotifyTimeout(),
	}
}

// QueryError is a per-query failure recorded during a sweep
type QueryError struct {
	QueryID uint   `json:"queryId"`
	Error   string `json:"error"`
}

// SweepReport summarizes one sweep
type SweepReport struct {
	SweepID              string       `json:"sweepId"`
	StartedAt            time.Time    `json:"startedAt"`
	FinishedAt           time.Time    `json:"finishedAt"`
	Scanned              int          `json:"scanned"`
	Escalated            int          `json:"escalated"`
	Stale                int          `json:"stale"`
	Conflicts            int          `json:"conflicts"`
	Deferred             int          `json:"deferred"`
	DeadlineExceeded     bool         `json:"deadlineExceeded"`
	NotificationFailures int          `json:"notificationFailures"`
	Errors               []QueryError `json:"errors"`
}

// Partial reports whether some open queries were not evaluated or failed
func (r *SweepReport) Partial() bool {
	return r.DeadlineExceeded || r.Deferred > 0 || len(r.Errors) > 0
}

// Engine runs escalation sweeps
type Engine struct {
	store      Store
	dispatcher Dispatcher
	directory  *Directory
	thresholds Thresholds
	opts       Options
}

// NewEngine creates a sweep engine
func NewEngine(store Store, dispatcher Dispatcher, directory *Directory, thresholds Thresholds, opts Options) *Engine {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Deadline <= 0 {
		opts.Deadline = time.Minute
	}
	if opts.NotifyGrace <= 0 {
		opts.NotifyGrace = 15 * time.Second
	}
	return &Engine{
		store:      store,
		dispatcher: dispatcher,
		directory:  directory,
		thresholds: thresholds,
		opts:       opts,
	}
}

// sweep holds the mutable state of one RunSweep call
type sweep struct {
	mu     sync.Mutex
	report *SweepReport
	tasks  []*notify.Task
}

func (s *sweep) update(fn func(r *SweepReport)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.report)
}

func (s *sweep) fail(id uint, err error) {
	s.update(func(r *SweepReport) {
		r.Errors = append(r.Errors, QueryError{QueryID: id, Error: err.Error()})
	})
}

// RunSweep evaluates every unresolved query once at now. Per-query failures are
// reported, not returned; an error means no query could be loaded at all.
func (e *Engine) RunSweep(ctx context.Context, now time.Time) (*SweepReport, error) {
	started := time.Now()
	s := &sweep{report: &SweepReport{
		SweepID:   uuid.NewString(),
		StartedAt: now,
		Errors:    []QueryError{},
	}}
	log.Printf("[ESCALATION] Sweep %s started at %s", s.report.SweepID, now.Format(time.RFC3339))

	sweepCtx, cancel := context.WithTimeout(ctx, e.opts.Deadline)
	defer cancel()

	var afterID uint
	for {
		if sweepCtx.Err() != nil {
			s.report.DeadlineExceeded = true
			break
		}

		batch, err := e.store.ListOpenQueries(sweepCtx, afterID, e.opts.BatchSize)
		if err != nil {
			if sweepCtx.Err() != nil {
				s.report.DeadlineExceeded = true
				break
			}
			if s.report.Scanned == 0 {
				metrics.RecordSweep("failed", time.Since(started), 0)
				log.Printf("[ESCALATION] Sweep %s failed: %v", s.report.SweepID, err)
				return nil, fmt.Errorf("failed to load open queries: %w", err)
			}
			s.fail(0, fmt.Errorf("failed to load batch after query %d: %w", afterID, err))
			break
		}
		if len(batch) == 0 {
			break
		}

		var g errgroup.Group
		g.SetLimit(e.opts.Concurrency)
		for i := range batch {
			q := &batch[i]
			if sweepCtx.Err() != nil {
				s.update(func(r *SweepReport) { r.Deferred++ })
				continue
			}
			g.Go(func() error {
				e.evaluate(sweepCtx, s, q, now)
				return nil
			})
		}
		_ = g.Wait()

		afterID = batch[len(batch)-1].ID
		if sweepCtx.Err() != nil {
			s.report.DeadlineExceeded = true
			break
		}
		if len(batch) < e.opts.BatchSize {
			break
		}
	}

	e.awaitNotifications(ctx, s)

	s.report.FinishedAt = now.Add(time.Since(started))
	outcome := "completed"
	if s.report.Partial() {
		outcome = "partial"
	}
	metrics.RecordSweep(outcome, time.Since(started), s.report.Stale)

	r := s.report
	log.Printf("[ESCALATION] Sweep %s %s: scanned=%d escalated=%d stale=%d conflicts=%d deferred=%d errors=%d notify_failures=%d (%v)",
		r.SweepID, outcome, r.Scanned, r.Escalated, r.Stale, r.Conflicts, r.Deferred, len(r.Errors), r.NotificationFailures, time.Since(started))
	return r, nil
}

// evaluate applies the policy to one query and persists the result
func (e *Engine) evaluate(ctx context.Context, s *sweep, q *domain.Query, now time.Time) {
	if ctx.Err() != nil {
		s.update(func(r *SweepReport) { r.Deferred++ })
		return
	}
	s.update(func(r *SweepReport) { r.Scanned++ })

	d := Decide(q, now, e.thresholds)

	if d.Action == Escalate {
		from := q.EscalationLevel
		applied, err := e.store.EscalateQuery(ctx, q.ID, from, d.Next, now, s.report.SweepID)
		if err != nil {
			log.Printf("[ESCALATION] Query %d: escalation to %s failed: %v", q.ID, d.Next, err)
			s.fail(q.ID, err)
			return
		}
		if applied {
			metrics.RecordEscalation(string(d.Next))
			log.Printf("[ESCALATION] Query %d escalated %s -> %s after %v", q.ID, from, d.Next, d.Elapsed.Round(time.Second))

			q.EscalationLevel = d.Next
			task := e.dispatcher.Dispatch(ctx, e.directory.EscalationMessages(q, from, d.Next, d.Elapsed)...)
			s.update(func(r *SweepReport) { r.Escalated++ })
			s.mu.Lock()
			s.tasks = append(s.tasks, task)
			s.mu.Unlock()
			return
		}
		// Someone else moved it first; only record that we looked
		log.Printf("[ESCALATION] Query %d changed concurrently, skipping escalation to %s", q.ID, d.Next)
		s.update(func(r *SweepReport) { r.Conflicts++ })
	}

	if d.Stale {
		log.Printf("[ESCALATION] Query %d is stale at %s: unanswered for %v", q.ID, q.EscalationLevel, d.Elapsed.Round(time.Minute))
		s.update(func(r *SweepReport) { r.Stale++ })
	}

	if err := e.store.TouchEscalationCheck(ctx, q.ID, now); err != nil {
		log.Printf("[ESCALATION] Query %d: failed to record check: %v", q.ID, err)
		s.fail(q.ID, err)
	}
}

// awaitNotifications waits, up to the grace period, for the sweep's deliveries
func (e *Engine) awaitNotifications(ctx context.Context, s *sweep) {
	if len(s.tasks) == 0 {
		return
	}
	waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.opts.NotifyGrace)
	defer cancel()

	for _, task := range s.tasks {
		if _, err := task.Wait(waitCtx); err != nil {
			log.Printf("[ESCALATION] Sweep %s: notifications still in flight after %v", s.report.SweepID, e.opts.NotifyGrace)
			return
		}
		s.report.NotificationFailures += len(task.Failures())
	}
}
