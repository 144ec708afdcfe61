package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/minormending/slack-run-across-america/internal/bootstrap"
	"github.com/minormending/slack-run-across-america/internal/config"
	"github.com/minormending/slack-run-across-america/internal/consumer"
	"github.com/minormending/slack-run-across-america/internal/errtrack"
	"github.com/minormending/slack-run-across-america/internal/logger"
	httptransport "github.com/minormending/slack-run-across-america/internal/transport/http"
)

func main() {
	os.Exit(run())
}

// run returns the process exit code so deferred cleanup completes first.
func run() int {
	cfg := config.Load()

	log, err := logger.New(cfg.LogMode, cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	if err := errtrack.Init(errtrack.Config{DSN: cfg.SentryDSN, Environment: cfg.SentryEnvironment, ServerName: "recap-consumer"}, log); err != nil {
		log.Warn("error tracking disabled", zap.Error(err))
	}
	defer errtrack.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{Cache: true})
	if err != nil {
		log.Error("bootstrap failed", zap.Error(err))
		return 1
	}
	defer app.Close()

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:         cfg.KafkaBrokers,
		GroupID:         cfg.ConsumerGroupID,
		Topic:           cfg.RecapRequestsTopic,
		MinBytes:        1,
		MaxBytes:        10e6,
		CommitInterval:  time.Second,
		ReadLagInterval: -1,
	})
	defer reader.Close()

	handler := consumer.NewRecapHandler(app.Dispatcher, cfg.SlackChannel, log.Named("handler"))
	proc := consumer.NewProcessor(reader, handler, consumer.WithLogger(log.Named("consumer")))

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	metricsCfg := httptransport.DefaultServerConfig(cfg.MetricsAddress)
	metricsSrv := httptransport.NewServer(metricsCfg, mux)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return httptransport.Run(gctx, metricsSrv, metricsCfg.ShutdownTimeout, log)
	})
	g.Go(func() error {
		log.Info("consumer started",
			zap.String("topic", cfg.RecapRequestsTopic),
			zap.String("group", cfg.ConsumerGroupID),
		)
		err := proc.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		log.Error("consumer stopped with error", zap.Error(err))
		errtrack.CaptureException(err, map[string]string{"topic": cfg.RecapRequestsTopic})
		return 1
	}
	log.Info("consumer shutdown complete")
	return 0
}
