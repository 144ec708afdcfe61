package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/minormending/slack-run-across-america/internal/api"
	"github.com/minormending/slack-run-across-america/internal/auth"
	"github.com/minormending/slack-run-across-america/internal/bootstrap"
	"github.com/minormending/slack-run-across-america/internal/config"
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

	if err := errtrack.Init(errtrack.Config{DSN: cfg.SentryDSN, Environment: cfg.SentryEnvironment, ServerName: "recap-api"}, log); err != nil {
		log.Warn("error tracking disabled", zap.Error(err))
	}
	defer errtrack.Flush(2 * time.Second)
	defer errtrack.RecoverAndCapture()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, log, bootstrap.Options{
		Cache:         true,
		Subscriptions: cfg.PostgresURL != "",
	})
	if err != nil {
		log.Error("bootstrap failed", zap.Error(err))
		return 1
	}
	defer app.Close()

	opts := []api.Option{
		api.WithDefaultChannel(cfg.SlackChannel),
		api.WithLogger(log.Named("api")),
	}
	if app.Subscriptions != nil {
		opts = append(opts, api.WithSubscriptions(app.Subscriptions))
	}
	handler := api.NewHandler(app.Builder, app.Dispatcher, opts...)

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer}, auth.SkipProbes)
	serverCfg := httptransport.DefaultServerConfig(cfg.HTTPAddress)
	server := httptransport.NewServer(serverCfg, httptransport.RequestLogger(log.Named("http"))(authMiddleware.Wrap(mux)))

	if err := httptransport.Run(ctx, server, serverCfg.ShutdownTimeout, log); err != nil {
		log.Error("server error", zap.Error(err))
		errtrack.CaptureException(err, nil)
		return 1
	}
	log.Info("recap api stopped")
	return 0
}
