package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/lipanski/flycheap/internal/domain"
	"github.com/lipanski/flycheap/internal/qpx"
	"github.com/lipanski/flycheap/internal/repo"
)

// Searcher sends one search request to the pricing API.
// *qpx.Client satisfies it; tests pass a stub.
type Searcher interface {
	Search(ctx context.Context, req domain.SearchRequest) (qpx.SearchResponse, error)
}

// Reporter is told about every batch of offers that was stored.
type Reporter interface {
	Report(req domain.Request, offers []domain.Offer, dict domain.Dictionary)
}

// Dependency groups what a Watcher needs besides its plan and schedule.
// Reporter, Logger, Now and Sleep are optional.
type Dependency struct {
	Searcher Searcher
	Requests repo.RequestRepo
	Offers   repo.OfferRepo
	Reporter Reporter
	Logger   *slog.Logger

	// Concurrency caps parallel searches within a round. Values below 1 mean 1.
	Concurrency int

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Watcher runs the planned requests once per scheduled round until its
// context is cancelled.
type Watcher struct {
	plan     []domain.SearchRequest
	schedule Schedule
	dep      Dependency

	mu        sync.RWMutex
	nextRunAt time.Time
	lastRound *domain.RoundSummary
}

// NewWatcher constructs a Watcher. plan is normally Plan(...) and schedule
// NewSchedule(budget, len(plan)).
func NewWatcher(plan []domain.SearchRequest, schedule Schedule, dep Dependency) *Watcher {
	if dep.Logger == nil {
		dep.Logger = slog.Default()
	}
	if dep.Now == nil {
		dep.Now = time.Now
	}
	if dep.Sleep == nil {
		dep.Sleep = sleepContext
	}
	if dep.Concurrency < 1 {
		dep.Concurrency = 1
	}
	return &Watcher{plan: plan, schedule: schedule, dep: dep}
}

// Run sleeps until each lattice point of the schedule and runs a round there.
// It returns nil once ctx is cancelled; cancellation interrupts the sleep.
func (w *Watcher) Run(ctx context.Context) error {
	log := w.dep.Logger
	now := w.dep.Now()

	if n, err := w.dep.Requests.CountSince(ctx, now.Add(-day)); err != nil {
		log.WarnContext(ctx, "could not count recent requests", "error", err)
	} else {
		log.InfoContext(ctx, "watcher starting",
			"requests_last_24h", n,
			"requests_per_day", w.schedule.RequestsPerDay(),
			"requests_per_round", w.schedule.RequestsPerRound(),
			"rounds_per_day", w.schedule.RoundsPerDay(),
			"interval", w.schedule.Interval().String(),
		)
	}

	// lastRun guards against firing twice at one lattice point when a round
	// finishes within the same instant it started.
	var lastRun time.Time
	for {
		now := w.dep.Now()
		next := w.schedule.NextRunAt(now)
		if !lastRun.IsZero() && !next.After(lastRun) {
			next = w.schedule.NextRunAt(lastRun.Add(time.Nanosecond))
		}
		wait := max(next.Sub(now), 0)
		w.setNextRunAt(next)

		log.InfoContext(ctx, "next round scheduled", "next_run_at", next, "wait", wait.String())

		if err := w.dep.Sleep(ctx, wait); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				log.InfoContext(ctx, "watcher stopped")
				return nil
			}
			return err
		}

		w.RunRound(ctx)
		lastRun = next

		if ctx.Err() != nil {
			log.InfoContext(ctx, "watcher stopped")
			return nil
		}
	}
}

// requestOutcome is what one dispatched request contributed to a round.
type requestOutcome struct {
	failed  bool
	offers  int
	skipped int
}

// RunRound dispatches every planned request once. A failing request is
// logged and counted; it never stops the others.
func (w *Watcher) RunRound(ctx context.Context) domain.RoundSummary {
	summary := domain.RoundSummary{
		ID:        uuid.New(),
		StartedAt: w.dep.Now(),
		Requests:  len(w.plan),
	}
	log := w.dep.Logger.With("round_id", summary.ID)
	log.InfoContext(ctx, "round started", "requests", summary.Requests)

	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(w.dep.Concurrency)

	for i, req := range w.plan {
		g.Go(func() error {
			var out requestOutcome
			if ctx.Err() != nil {
				out.failed = true
			} else {
				out = w.dispatch(ctx, log.With("request_index", i), req)
			}

			mu.Lock()
			defer mu.Unlock()
			if out.failed {
				summary.Failed++
			}
			summary.Offers += out.offers
			summary.Skipped += out.skipped
			return nil
		})
	}
	_ = g.Wait()

	summary.FinishedAt = w.dep.Now()
	log.InfoContext(ctx, "round finished",
		"requests", summary.Requests,
		"failed", summary.Failed,
		"offers", summary.Offers,
		"skipped", summary.Skipped,
		"duration", summary.FinishedAt.Sub(summary.StartedAt).String(),
	)

	w.mu.Lock()
	w.lastRound = &summary
	w.mu.Unlock()

	return summary
}

// dispatch runs one request end to end: search, record, normalize, persist, report.
func (w *Watcher) dispatch(ctx context.Context, log *slog.Logger, req domain.SearchRequest) requestOutcome {
	resp, err := w.dep.Searcher.Search(ctx, req)
	if err != nil {
		attrs := []any{"error", err}
		var upstream *domain.UpstreamError
		if errors.As(err, &upstream) {
			attrs = append(attrs, "status", upstream.StatusCode)
		}
		log.ErrorContext(ctx, "search failed", attrs...)
		return requestOutcome{failed: true}
	}

	record, err := w.dep.Requests.Create(ctx, req.Name, w.dep.Now())
	if err != nil {
		log.ErrorContext(ctx, "storing request failed", "error", err)
		return requestOutcome{failed: true}
	}
	log = log.With("request_id", record.ID)

	offers, skipped := Normalize(resp, record.ID)
	for _, s := range skipped {
		attrs := []any{"option_index", s.Index, "option_id", s.OptionID, "error", s.Err}
		var pe *domain.ParseError
		if errors.As(s.Err, &pe) {
			attrs = append(attrs, "kind", string(pe.Kind), "input", pe.Input)
		}
		log.WarnContext(ctx, "trip option skipped", attrs...)
	}

	if len(offers) == 0 {
		log.InfoContext(ctx, "no offers in response", "options", len(resp.Trips.TripOption))
		return requestOutcome{skipped: len(skipped)}
	}

	if err := w.dep.Offers.Persist(ctx, record.ID, offers); err != nil {
		log.ErrorContext(ctx, "persisting offers failed", "offers", len(offers), "error", err)
		return requestOutcome{failed: true, skipped: len(skipped)}
	}
	log.InfoContext(ctx, "offers stored", "offers", len(offers), "skipped", len(skipped))

	if w.dep.Reporter != nil {
		w.dep.Reporter.Report(record, offers, resp.Trips.Data.Dictionary())
	}
	return requestOutcome{offers: len(offers), skipped: len(skipped)}
}

// Status returns a snapshot for the status API. Safe for concurrent use.
func (w *Watcher) Status() domain.WatchStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()

	st := domain.WatchStatus{
		RequestsPerDay:   w.schedule.RequestsPerDay(),
		RequestsPerRound: w.schedule.RequestsPerRound(),
		RoundsPerDay:     w.schedule.RoundsPerDay(),
		Interval:         w.schedule.Interval().String(),
		NextRunAt:        w.nextRunAt,
	}
	if w.lastRound != nil {
		last := *w.lastRound
		st.LastRound = &last
	}
	return st
}

func (w *Watcher) setNextRunAt(t time.Time) {
	w.mu.Lock()
	w.nextRunAt = t
	w.mu.Unlock()
}

// sleepContext blocks for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
