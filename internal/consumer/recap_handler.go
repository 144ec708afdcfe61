package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/minormending/slack-run-across-america/internal/events"
	"github.com/minormending/slack-run-across-america/internal/recap"
)

// Runner executes one recap job. *recap.Dispatcher implements it.
type Runner interface {
	Run(ctx context.Context, job recap.Job) (recap.Result, error)
}

// RecapHandler turns events.RecapRequested messages into dispatcher jobs.
// Other event types are acknowledged and ignored.
type RecapHandler struct {
	runner         Runner
	defaultChannel string
	logger         *zap.Logger
}

// NewRecapHandler constructs a RecapHandler. defaultChannel is used when a
// request names none.
func NewRecapHandler(runner Runner, defaultChannel string, logger *zap.Logger) *RecapHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecapHandler{runner: runner, defaultChannel: defaultChannel, logger: logger}
}

// Handle implements Handler.
func (h *RecapHandler) Handle(ctx context.Context, msg Message) error {
	if msg.EventType != events.TypeRecapRequested {
		h.logger.Debug("ignoring event", zap.String("event_type", msg.EventType))
		return nil
	}

	var evt events.RecapRequested
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	job, err := JobFromRequest(evt, h.defaultChannel)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	res, err := h.runner.Run(ctx, job)
	if err != nil {
		if errors.Is(err, recap.ErrInvalidRequest) {
			return fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return fmt.Errorf("recap request %s: %w", evt.RequestID, err)
	}
	h.logger.Info("recap request handled",
		zap.String("request_id", evt.RequestID),
		zap.String("run_id", res.RunID),
		zap.String("status", string(res.Status)),
	)
	return nil
}

// JobFromRequest validates evt and converts it into a dispatcher job.
func JobFromRequest(evt events.RecapRequested, defaultChannel string) (recap.Job, error) {
	var policy recap.CutoffPolicy
	if evt.CutoffPolicy != "" {
		parsed, err := recap.ParseCutoffPolicy(evt.CutoffPolicy)
		if err != nil {
			return recap.Job{}, err
		}
		policy = parsed
	}
	if evt.WindowSeconds < 0 {
		return recap.Job{}, fmt.Errorf("negative window_seconds %d", evt.WindowSeconds)
	}

	channel := evt.Channel
	if channel == "" {
		channel = defaultChannel
	}
	job := recap.Job{
		Channel: channel,
		Request: recap.Request{
			Team:   recap.TeamSelector{ID: evt.TeamID, Name: evt.TeamName},
			Cutoff: policy,
			Window: time.Duration(evt.WindowSeconds) * time.Second,
		},
	}
	if err := job.Request.Validate(); err != nil {
		return recap.Job{}, err
	}
	return job, nil
}
