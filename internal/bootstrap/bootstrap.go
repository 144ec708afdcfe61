// Package bootstrap assembles the recap pipeline from configuration. Every
// binary goes through New so they share one wiring of sources, sinks and hooks.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/minormending/slack-run-across-america/internal/cache"
	"github.com/minormending/slack-run-across-america/internal/config"
	"github.com/minormending/slack-run-across-america/internal/leaderboard"
	"github.com/minormending/slack-run-across-america/internal/observability"
	"github.com/minormending/slack-run-across-america/internal/outbox"
	"github.com/minormending/slack-run-across-america/internal/persistence/postgres"
	"github.com/minormending/slack-run-across-america/internal/raa"
	"github.com/minormending/slack-run-across-america/internal/recap"
	"github.com/minormending/slack-run-across-america/internal/slack"
)

// Options toggles the optional parts of the pipeline.
type Options struct {
	// DryRun replaces every outbound sink with a logging notifier.
	DryRun bool
	// Cache puts the Redis read-through cache in front of the upstream
	// client when REDIS_ADDR is set.
	Cache bool
	// Subscriptions opens the Postgres subscription store. It is an error
	// when POSTGRES_URL is empty.
	Subscriptions bool
}

// App holds the assembled pipeline.
type App struct {
	Config        config.Config
	Logger        *zap.Logger
	Builder       *recap.Builder
	Dispatcher    *recap.Dispatcher
	Subscriptions *postgres.Repository

	closers []func() error
}

// New wires the pipeline described by cfg.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Logger: logger}

	classifier, err := NewClassifier(cfg.ClassifierRulesFile, logger)
	if err != nil {
		return nil, err
	}
	normalizer := NewNormalizer(logger)

	var source recap.Source = raa.NewClient(cfg.RAABaseURL,
		raa.WithToken(cfg.RAAToken),
		raa.WithTimeout(cfg.RAATimeout),
		raa.WithLogger(logger.Named("raa")),
	)
	if opts.Cache && cfg.RedisAddr != "" {
		store, err := cache.NewRedisStore(ctx, cfg.RedisAddr)
		if err != nil {
			return nil, err
		}
		app.closers = append(app.closers, store.Close)
		source = cache.NewSource(source, store, cfg.UpstreamCacheTTL, logger.Named("cache"))
		logger.Info("upstream cache enabled", zap.String("redis_addr", cfg.RedisAddr), zap.Duration("ttl", cfg.UpstreamCacheTTL))
	}

	app.Builder = recap.NewBuilder(source,
		recap.WithLogger(logger.Named("builder")),
		recap.WithAggregator(leaderboard.NewAggregator(classifier, normalizer)),
		recap.WithUserID(cfg.RAAUserID),
		recap.WithDefaults(cfg.Cutoff(), cfg.ReportWindow),
	)

	notifier, err := app.notifier(opts.DryRun)
	if err != nil {
		app.Close()
		return nil, err
	}
	app.Dispatcher = recap.NewDispatcher(app.Builder, notifier,
		recap.WithDispatchLogger(logger.Named("dispatcher")),
		recap.WithConcurrency(cfg.DispatchConcurrency),
	)

	if opts.Subscriptions {
		if cfg.PostgresURL == "" {
			app.Close()
			return nil, errors.New("POSTGRES_URL is required for subscriptions")
		}
		pool, err := postgres.Connect(ctx, cfg.PostgresURL)
		if err != nil {
			app.Close()
			return nil, err
		}
		app.closers = append(app.closers, func() error { pool.Close(); return nil })
		app.Subscriptions = postgres.NewRepository(pool)
	}
	return app, nil
}

func (a *App) notifier(dryRun bool) (recap.Notifier, error) {
	if dryRun {
		return recap.LogNotifier{Logger: a.Logger.Named("dry_run")}, nil
	}

	var sinks recap.MultiNotifier
	if a.Config.SlackConfigured() {
		n, err := slack.NewNotifier(slack.Config{
			Token:      a.Config.SlackToken,
			Channel:    a.Config.SlackChannel,
			WebhookURL: a.Config.SlackWebhookURL,
			APIURL:     a.Config.SlackAPIURL,
		}, slack.WithLogger(a.Logger.Named("slack")))
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, n)
	}
	if a.Config.EnablePublish {
		producer := outbox.NewKafkaProducer(a.Config.KafkaBrokers, outbox.WithProducerLogger(a.Logger.Named("kafka")))
		a.closers = append(a.closers, producer.Close)
		sinks = append(sinks, outbox.NewKafkaNotifier(producer, a.Config.RecapEventsTopic))
	}

	switch len(sinks) {
	case 0:
		return nil, fmt.Errorf("no notification sink configured: %w", slack.ErrNotConfigured)
	case 1:
		return sinks[0], nil
	default:
		return sinks, nil
	}
}

// Close releases every resource New opened, in reverse order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// NewClassifier loads the rules file at path, or the default rules when path
// is empty, and reports fallbacks through logs and metrics.
func NewClassifier(path string, logger *zap.Logger) (*leaderboard.Classifier, error) {
	classifier := leaderboard.DefaultClassifier()
	if path != "" {
		loaded, err := leaderboard.LoadRulesFile(path)
		if err != nil {
			return nil, err
		}
		classifier = loaded
	}
	classifier.OnFallback = func(rawType string) {
		logger.Warn("unclassified activity type",
			zap.String("raw_type", rawType),
			zap.String("fallback", classifier.Fallback.String()),
		)
		observability.RecordClassifierFallback(rawType)
	}
	return classifier, nil
}

// NewNormalizer reports unrecognised distance units through logs and metrics.
func NewNormalizer(logger *zap.Logger) leaderboard.Normalizer {
	return leaderboard.Normalizer{
		OnUnknownUnit: func(unit string) {
			logger.Warn("unknown distance unit", zap.String("unit", unit))
			observability.RecordUnknownUnit(unit)
		},
	}
}
