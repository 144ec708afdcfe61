// Package observability exposes the Prometheus metrics shared by the recap binaries.
package observability

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Build outcomes.
const (
	OutcomeSent    = "sent"
	OutcomeSkipped = "skipped"
	OutcomeFailed  = "failed"
)

var (
	buildsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recap",
		Name:      "builds_total",
		Help:      "Number of recap runs grouped by outcome (sent, skipped, failed).",
	}, []string{"outcome"})

	buildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "recap",
		Name:      "build_duration_seconds",
		Help:      "Time spent fetching upstream data and assembling a recap.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	classifierFallbackCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recap",
		Name:      "classifier_fallback_total",
		Help:      "Activity types that matched no classification rule and were folded into the fallback category.",
	}, []string{"raw_type"})

	unknownUnitCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recap",
		Name:      "unknown_unit_total",
		Help:      "Distance unit labels passed through without conversion because they were not recognised.",
	}, []string{"unit"})

	notificationsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recap",
		Name:      "notifications_total",
		Help:      "Notification attempts grouped by sink and outcome.",
	}, []string{"sink", "outcome"})

	lastSuccessGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "recap",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the most recent recap delivered to every sink.",
	})
)

func init() {
	prometheus.MustRegister(
		buildsCounter,
		buildDuration,
		classifierFallbackCounter,
		unknownUnitCounter,
		notificationsCounter,
		lastSuccessGauge,
	)
}

// RecordBuild counts one recap run and, for delivered runs, moves the success watermark.
func RecordBuild(outcome string, elapsed time.Duration, finishedAt time.Time) {
	buildsCounter.WithLabelValues(outcome).Inc()
	buildDuration.Observe(elapsed.Seconds())
	if outcome == OutcomeSent && !finishedAt.IsZero() {
		lastSuccessGauge.Set(float64(finishedAt.Unix()))
	}
}

// Upstream-supplied label values are capped in length and in count. Once a
// vector has seen maxLabelValues distinct values, new ones share OtherLabel.
const (
	OtherLabel     = "other"
	maxLabelLen    = 32
	maxLabelValues = 50
)

// labelSet bounds the distinct values one counter vector accepts.
type labelSet struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

var (
	rawTypeLabels = &labelSet{seen: map[string]struct{}{}}
	unitLabels    = &labelSet{seen: map[string]struct{}{}}
)

func (l *labelSet) label(raw string) string {
	v := SanitizeLabel(raw)
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.seen[v]; ok {
		return v
	}
	if len(l.seen) >= maxLabelValues {
		return OtherLabel
	}
	l.seen[v] = struct{}{}
	return v
}

// SanitizeLabel returns raw as valid UTF-8, trimmed and lowercased, truncated
// to a fixed number of runes. Empty input becomes "unknown".
func SanitizeLabel(raw string) string {
	v := strings.ToLower(strings.TrimSpace(strings.ToValidUTF8(raw, "?")))
	if r := []rune(v); len(r) > maxLabelLen {
		v = string(r[:maxLabelLen])
	}
	if v == "" {
		return "unknown"
	}
	return v
}

// RecordClassifierFallback counts an unclassified raw activity type.
func RecordClassifierFallback(rawType string) {
	ClassifierFallbackCounter(rawType).Inc()
}

// RecordUnknownUnit counts an unrecognised distance unit label.
func RecordUnknownUnit(unit string) {
	UnknownUnitCounter(unit).Inc()
}

// RecordNotification counts a notification attempt for sink.
func RecordNotification(sink string, err error) {
	NotificationsCounter(sink, err).Inc()
}

// NotificationsCounter returns the notification counter for sink and the
// outcome implied by err.
func NotificationsCounter(sink string, err error) prometheus.Counter {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	return notificationsCounter.WithLabelValues(sink, outcome)
}

// BuildsCounter returns the build counter for outcome.
func BuildsCounter(outcome string) prometheus.Counter {
	return buildsCounter.WithLabelValues(outcome)
}

// ClassifierFallbackCounter returns the fallback counter rawType is recorded under.
func ClassifierFallbackCounter(rawType string) prometheus.Counter {
	return classifierFallbackCounter.WithLabelValues(rawTypeLabels.label(rawType))
}

// UnknownUnitCounter returns the unknown-unit counter unit is recorded under.
func UnknownUnitCounter(unit string) prometheus.Counter {
	return unknownUnitCounter.WithLabelValues(unitLabels.label(unit))
}
