package recap

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/minormending/slack-run-across-america/internal/leaderboard"
	"github.com/minormending/slack-run-across-america/internal/observability"
)

// Reporter builds a report for a request. *Builder implements it.
type Reporter interface {
	Build(ctx context.Context, req Request) (*leaderboard.Report, error)
}

// Job is one build-and-notify unit of work.
type Job struct {
	SubscriptionID string
	Channel        string
	Request        Request
}

// Status is the outcome of a dispatched job.
type Status string

const (
	StatusSent    Status = "sent"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result describes one dispatched job.
type Result struct {
	RunID  string
	Status Status
	Report *leaderboard.Report
}

// Summary tallies the outcome of RunAll.
type Summary struct {
	Sent    int
	Skipped int
	Failed  int
}

// Dispatcher builds reports and hands them to a Notifier.
type Dispatcher struct {
	reporter    Reporter
	notifier    Notifier
	logger      *zap.Logger
	concurrency int
	now         func() time.Time
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithDispatchLogger overrides the dispatcher logger.
func WithDispatchLogger(logger *zap.Logger) DispatcherOption {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// WithConcurrency bounds the number of jobs RunAll executes at once.
func WithConcurrency(n int) DispatcherOption {
	return func(d *Dispatcher) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

// NewDispatcher constructs a Dispatcher.
func NewDispatcher(reporter Reporter, notifier Notifier, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		reporter:    reporter,
		notifier:    notifier,
		logger:      zap.NewNop(),
		concurrency: 4,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Run builds the job's report and notifies. A job whose build returns
// ErrNoReport is skipped and reported without error.
func (d *Dispatcher) Run(ctx context.Context, job Job) (Result, error) {
	runID := uuid.NewString()
	logger := d.logger.With(
		zap.String("run_id", runID),
		zap.String("team", job.Request.Team.String()),
		zap.String("channel", job.Channel),
	)
	if job.SubscriptionID != "" {
		logger = logger.With(zap.String("subscription_id", job.SubscriptionID))
	}

	started := d.now()
	report, err := d.reporter.Build(ctx, job.Request)
	if err != nil {
		if errors.Is(err, ErrNoReport) {
			logger.Warn("nothing to report", zap.Error(err))
			observability.RecordBuild(observability.OutcomeSkipped, d.now().Sub(started), time.Time{})
			return Result{RunID: runID, Status: StatusSkipped}, nil
		}
		logger.Error("recap build failed", zap.Error(err))
		observability.RecordBuild(observability.OutcomeFailed, d.now().Sub(started), time.Time{})
		return Result{RunID: runID, Status: StatusFailed}, err
	}

	if err := d.notifier.Notify(ctx, Delivery{RunID: runID, Channel: job.Channel, Report: report}); err != nil {
		logger.Error("recap notification failed", zap.Error(err))
		observability.RecordBuild(observability.OutcomeFailed, d.now().Sub(started), time.Time{})
		return Result{RunID: runID, Status: StatusFailed, Report: report}, fmt.Errorf("notify: %w", err)
	}

	finished := d.now()
	observability.RecordBuild(observability.OutcomeSent, finished.Sub(started), finished)
	logger.Info("recap delivered",
		zap.Int("leaders", len(report.Leaders)),
		zap.Int("categories", len(report.CategoryLeaders)),
	)
	return Result{RunID: runID, Status: StatusSent, Report: report}, nil
}

// RunAll dispatches every job concurrently, bounded by the configured
// concurrency. One job failing does not cancel the others.
func (d *Dispatcher) RunAll(ctx context.Context, jobs []Job) (Summary, error) {
	var (
		mu      sync.Mutex
		summary Summary
		errs    []error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)
	for _, job := range jobs {
		g.Go(func() error {
			res, err := d.Run(gctx, job)

			mu.Lock()
			defer mu.Unlock()
			switch res.Status {
			case StatusSent:
				summary.Sent++
			case StatusSkipped:
				summary.Skipped++
			default:
				summary.Failed++
				errs = append(errs, fmt.Errorf("team %s: %w", job.Request.Team, err))
			}
			return nil
		})
	}
	_ = g.Wait()

	d.logger.Info("dispatch finished",
		zap.Int("jobs", len(jobs)),
		zap.Int("sent", summary.Sent),
		zap.Int("skipped", summary.Skipped),
		zap.Int("failed", summary.Failed),
	)
	return summary, errors.Join(errs...)
}
