package consumer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Message outcomes.
const (
	resultProcessed   = "processed"
	resultRetry       = "retry"
	resultDropped     = "dropped"
	resultUndecodable = "undecodable"
)

var (
	messagesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "recap",
		Subsystem: "consumer",
		Name:      "messages_total",
		Help:      "Recap request messages by topic, event type and result (processed, retry, dropped, undecodable).",
	}, []string{"topic", "event_type", "result"})

	handleDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "recap",
		Subsystem: "consumer",
		Name:      "handle_duration_seconds",
		Help:      "Time spent handling one decoded message, including the recap run it triggers.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"topic"})

	lastProcessedGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "recap",
		Subsystem: "consumer",
		Name:      "last_processed_timestamp_seconds",
		Help:      "Kafka timestamp of the newest committed recap request per topic.",
	}, []string{"topic"})
)

func init() {
	prometheus.MustRegister(messagesCounter, handleDuration, lastProcessedGauge)
}

func messageCounter(topic, eventType, result string) prometheus.Counter {
	return messagesCounter.WithLabelValues(topic, eventType, result)
}

func observeHandled(msg Message, result string, elapsed time.Duration) {
	messageCounter(msg.Topic, msg.EventType, result).Inc()
	handleDuration.WithLabelValues(msg.Topic).Observe(elapsed.Seconds())
	if result == resultProcessed && !msg.Timestamp.IsZero() {
		lastProcessedGauge.WithLabelValues(msg.Topic).Set(float64(msg.Timestamp.Unix()))
	}
}

func observeUndecodable(topic string) {
	messageCounter(topic, "", resultUndecodable).Inc()
}
