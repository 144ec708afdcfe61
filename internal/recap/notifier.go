package recap

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/minormending/slack-run-across-america/internal/leaderboard"
)

// Delivery is a built report addressed to a channel.
type Delivery struct {
	RunID   string
	Channel string
	Report  *leaderboard.Report
}

// Notifier publishes deliveries to an outbound sink.
type Notifier interface {
	Notify(ctx context.Context, d Delivery) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, d Delivery) error

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, d Delivery) error { return f(ctx, d) }

// LogNotifier only logs deliveries. It backs dry runs.
type LogNotifier struct {
	Logger *zap.Logger
}

// Notify logs the delivery summary.
func (n LogNotifier) Notify(_ context.Context, d Delivery) error {
	logger := n.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	fields := []zap.Field{
		zap.String("run_id", d.RunID),
		zap.String("channel", d.Channel),
	}
	if d.Report != nil {
		fields = append(fields,
			zap.String("team", d.Report.TeamName),
			zap.Int("leaders", len(d.Report.Leaders)),
			zap.Int("categories", len(d.Report.CategoryLeaders)),
		)
	}
	logger.Info("recap delivery (dry run)", fields...)
	return nil
}

// MultiNotifier fans a delivery out to every sink and joins their errors.
type MultiNotifier []Notifier

// Notify delivers to every sink, continuing past failures.
func (m MultiNotifier) Notify(ctx context.Context, d Delivery) error {
	var errs []error
	for i, n := range m {
		if err := n.Notify(ctx, d); err != nil {
			errs = append(errs, fmt.Errorf("sink %d: %w", i, err))
		}
	}
	return errors.Join(errs...)
}
