// Command recap builds a team recap and posts it to Slack.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/minormending/slack-run-across-america/internal/api"
	"github.com/minormending/slack-run-across-america/internal/bootstrap"
	"github.com/minormending/slack-run-across-america/internal/config"
	"github.com/minormending/slack-run-across-america/internal/errtrack"
	"github.com/minormending/slack-run-across-america/internal/logger"
	"github.com/minormending/slack-run-across-america/internal/recap"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		teamID   = flag.String("team-id", "", "team id to report on")
		teamName = flag.String("team-name", "", "team name to report on (case-insensitive)")
		channel  = flag.String("channel", "", "Slack channel, defaults to SLACK_CHANNEL")
		cutoff   = flag.String("cutoff", "", "cutoff policy: rolling or goal_start, defaults to CUTOFF_POLICY")
		window   = flag.Duration("window", 0, "rolling window, defaults to REPORT_WINDOW")
		all      = flag.Bool("all", false, "run every enabled subscription")
		dryRun   = flag.Bool("dry-run", false, "build and print without notifying")
	)
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	if err := errtrack.Init(errtrack.Config{DSN: cfg.SentryDSN, Environment: cfg.SentryEnvironment, ServerName: "recap"}, log); err != nil {
		log.Warn("error tracking disabled", zap.Error(err))
	}
	defer errtrack.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{DryRun: *dryRun, Subscriptions: *all})
	if err != nil {
		log.Error("bootstrap failed", zap.Error(err))
		return 1
	}
	defer app.Close()

	if *all {
		return runAll(ctx, app)
	}

	job := recap.Job{
		Channel: *channel,
		Request: recap.Request{
			Team:   recap.TeamSelector{ID: *teamID, Name: *teamName},
			Cutoff: recap.CutoffPolicy(*cutoff),
			Window: *window,
		},
	}
	if job.Channel == "" {
		job.Channel = cfg.SlackChannel
	}
	if err := job.Request.Validate(); err != nil {
		log.Error("invalid arguments", zap.Error(err))
		flag.Usage()
		return 2
	}

	res, err := app.Dispatcher.Run(ctx, job)
	if res.Report != nil {
		if perr := printReport(res); perr != nil {
			log.Error("print report", zap.Error(perr))
		}
	}
	if err != nil {
		errtrack.CaptureException(err, map[string]string{"team": job.Request.Team.String(), "run_id": res.RunID})
		return 1
	}
	if res.Status == recap.StatusSkipped {
		log.Info("nothing to report", zap.String("team", job.Request.Team.String()))
	}
	return 0
}

func runAll(ctx context.Context, app *bootstrap.App) int {
	subs, err := app.Subscriptions.ListEnabled(ctx)
	if err != nil {
		app.Logger.Error("list subscriptions", zap.Error(err))
		return 1
	}
	jobs := make([]recap.Job, 0, len(subs))
	for _, sub := range subs {
		jobs = append(jobs, sub.Job())
	}

	summary, err := app.Dispatcher.RunAll(ctx, jobs)
	if err != nil {
		errtrack.CaptureException(err, map[string]string{"mode": "all"})
	}
	if err := json.NewEncoder(os.Stdout).Encode(summary); err != nil {
		app.Logger.Error("print summary", zap.Error(err))
	}
	if summary.Failed > 0 || errors.Is(err, context.Canceled) {
		return 1
	}
	return 0
}

func printReport(res recap.Result) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		RunID  string         `json:"run_id"`
		Status string         `json:"status"`
		Report api.ReportView `json:"report"`
	}{res.RunID, string(res.Status), api.ToReportView(res.Report)})
}
