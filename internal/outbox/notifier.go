package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/minormending/slack-run-across-america/internal/events"
	"github.com/minormending/slack-run-across-america/internal/leaderboard"
	"github.com/minormending/slack-run-across-america/internal/observability"
	"github.com/minormending/slack-run-across-america/internal/recap"
)

// SinkName labels Kafka in notification metrics.
const SinkName = "kafka"

type messageWriter interface {
	WriteMessages(context.Context, string, ...kafka.Message) error
}

// KafkaNotifier publishes every delivery as an events.RecapGenerated message
// keyed by team id.
type KafkaNotifier struct {
	producer messageWriter
	topic    string
	now      func() time.Time
}

// NewKafkaNotifier constructs a KafkaNotifier writing to topic.
func NewKafkaNotifier(producer messageWriter, topic string) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic, now: time.Now}
}

// Notify implements recap.Notifier.
func (n *KafkaNotifier) Notify(ctx context.Context, d recap.Delivery) error {
	err := n.publish(ctx, d)
	observability.RecordNotification(SinkName, err)
	return err
}

func (n *KafkaNotifier) publish(ctx context.Context, d recap.Delivery) error {
	if d.Report == nil {
		return fmt.Errorf("outbox: empty report")
	}
	payload, err := json.Marshal(RecapGenerated(d))
	if err != nil {
		return fmt.Errorf("marshal %s: %w", events.TypeRecapGenerated, err)
	}

	msg := kafka.Message{
		Key:   []byte(d.Report.TeamID),
		Value: payload,
		Time:  n.now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(events.TypeRecapGenerated)},
			{Key: "run_id", Value: []byte(d.RunID)},
		},
	}
	if err := n.producer.WriteMessages(ctx, n.topic, msg); err != nil {
		return fmt.Errorf("publish %s: %w", events.TypeRecapGenerated, err)
	}
	return nil
}

// RecapGenerated converts a delivery into its event payload.
func RecapGenerated(d recap.Delivery) events.RecapGenerated {
	r := d.Report
	evt := events.RecapGenerated{
		RunID:          d.RunID,
		TeamID:         r.TeamID,
		TeamName:       r.TeamName,
		Channel:        d.Channel,
		GoalDistanceKm: r.GoalDistance,
		ProgressKm:     r.Progress,
		Leaders:        make([]events.LeaderEntry, 0, len(r.Leaders)),
		Categories:     make([]events.CategoryEntry, 0, len(r.CategoryLeaders)),
		PeriodStart:    r.Period.Start,
		PeriodEnd:      r.Period.End,
		GeneratedAt:    r.GeneratedAt,
	}
	if pct, ok := r.PercentComplete(); ok {
		evt.PercentComplete = &pct
	}
	for _, m := range r.Leaders {
		evt.Leaders = append(evt.Leaders, events.LeaderEntry{
			MemberID:   m.ID,
			Name:       m.Name(),
			Rank:       m.Rank,
			DistanceKm: m.DistanceKm,
		})
	}
	for _, l := range r.RankedCategoryLeaders() {
		evt.Categories = append(evt.Categories, categoryEntry(l))
	}
	return evt
}

func categoryEntry(l leaderboard.CategoryLeader) events.CategoryEntry {
	return events.CategoryEntry{
		Category:        l.Category.String(),
		MemberID:        l.MemberID,
		Name:            l.Name(),
		DistanceKm:      l.DistanceKm,
		DurationSeconds: int64(l.Duration / time.Second),
	}
}
