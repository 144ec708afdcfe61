package bootstrap

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/minormending/slack-run-across-america/internal/config"
	"github.com/minormending/slack-run-across-america/internal/leaderboard"
	"github.com/minormending/slack-run-across-america/internal/observability"
	"github.com/minormending/slack-run-across-america/internal/recap"
	"github.com/minormending/slack-run-across-america/internal/slack"
)

func baseConfig() config.Config {
	return config.Config{
		RAABaseURL:          "http://127.0.0.1:1",
		CutoffPolicy:        string(recap.CutoffRolling),
		ReportWindow:        recap.DefaultWindow,
		DispatchConcurrency: 2,
	}
}

func TestNewDryRun(t *testing.T) {
	app, err := New(context.Background(), baseConfig(), zap.NewNop(), Options{DryRun: true})
	require.NoError(t, err)
	require.NotNil(t, app.Builder)
	require.NotNil(t, app.Dispatcher)
	require.Nil(t, app.Subscriptions)
	require.NoError(t, app.Close())
}

func TestNewRequiresSink(t *testing.T) {
	_, err := New(context.Background(), baseConfig(), zap.NewNop(), Options{})
	require.ErrorIs(t, err, slack.ErrNotConfigured)
}

func TestNewSubscriptionsRequirePostgres(t *testing.T) {
	_, err := New(context.Background(), baseConfig(), zap.NewNop(), Options{DryRun: true, Subscriptions: true})
	require.ErrorContains(t, err, "POSTGRES_URL")
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := baseConfig()
	cfg.CutoffPolicy = "monthly"
	_, err := New(context.Background(), cfg, zap.NewNop(), Options{DryRun: true})
	require.Error(t, err)
}

func TestClassifierFallbackHook(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	classifier, err := NewClassifier("", zap.New(core))
	require.NoError(t, err)

	before := testutil.ToFloat64(observability.ClassifierFallbackCounter("yoga"))
	require.Equal(t, leaderboard.Walking, classifier.Classify("yoga"))
	require.Equal(t, before+1, testutil.ToFloat64(observability.ClassifierFallbackCounter("yoga")))
	require.Equal(t, 1, logs.FilterMessage("unclassified activity type").Len())
}

func TestHooksTolerateMalformedLabels(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	logger := zap.New(core)
	classifier, err := NewClassifier("", logger)
	require.NoError(t, err)
	normalizer := NewNormalizer(logger)

	fallbackBefore := testutil.ToFloat64(observability.ClassifierFallbackCounter("sw?im"))
	unitBefore := testutil.ToFloat64(observability.UnknownUnitCounter("m?i"))

	require.NotPanics(t, func() {
		require.Equal(t, leaderboard.Walking, classifier.Classify("sw\xffim"))
		require.Equal(t, 3.0, normalizer.Normalize(3, "m\xffi"))
	})

	require.Equal(t, fallbackBefore+1, testutil.ToFloat64(observability.ClassifierFallbackCounter("sw?im")))
	require.Equal(t, unitBefore+1, testutil.ToFloat64(observability.UnknownUnitCounter("m?i")))
	require.Equal(t, "sw\xffim", logs.FilterMessage("unclassified activity type").All()[0].ContextMap()["raw_type"])
}

func TestClassifierRulesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	rules := "fallback: Biking\nrules:\n  - category: Running\n    keywords: [jog]\n"
	require.NoError(t, os.WriteFile(path, []byte(rules), 0o600))

	classifier, err := NewClassifier(path, zap.NewNop())
	require.NoError(t, err)
	require.Equal(t, leaderboard.Running, classifier.Classify("Morning Jog"))
	require.Equal(t, leaderboard.Biking, classifier.Classify("swim"))

	_, err = NewClassifier(filepath.Join(t.TempDir(), "missing.yaml"), zap.NewNop())
	require.Error(t, err)
}

func TestNormalizerHook(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	n := NewNormalizer(zap.New(core))
	require.Equal(t, 3.0, n.Normalize(3, "furlongs"))
	require.Equal(t, 1, logs.FilterMessage("unknown distance unit").Len())
}
