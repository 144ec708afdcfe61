package slack

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	slackgo "github.com/slack-go/slack"
	"go.uber.org/zap"

	"github.com/minormending/slack-run-across-america/internal/observability"
	"github.com/minormending/slack-run-across-america/internal/recap"
)

// DefaultAPIURL is the Slack Web API root.
const DefaultAPIURL = slackgo.APIURL

// SinkName labels Slack in notification metrics.
const SinkName = "slack"

// ErrNotConfigured is returned when neither a webhook nor a token and channel are set.
var ErrNotConfigured = errors.New("slack: webhook url or token and channel required")

// APIError is a Web API response with "ok": false.
type APIError struct {
	Code string
}

func (e *APIError) Error() string {
	return "slack api: " + e.Code
}

// Config selects how messages are delivered. A WebhookURL takes precedence
// over Token.
type Config struct {
	Token      string
	Channel    string
	WebhookURL string
	APIURL     string
}

// Notifier posts recap reports to Slack.
type Notifier struct {
	cfg    Config
	client *http.Client
	api    *slackgo.Client
	logger *zap.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(n *Notifier) {
		n.client = hc
	}
}

// WithLogger overrides the notifier logger.
func WithLogger(logger *zap.Logger) Option {
	return func(n *Notifier) {
		n.logger = logger
	}
}

// NewNotifier validates cfg and returns a Notifier.
func NewNotifier(cfg Config, opts ...Option) (*Notifier, error) {
	if cfg.WebhookURL == "" && cfg.Token == "" {
		return nil, ErrNotConfigured
	}
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	// slack-go joins method names onto the root without a separator
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/") + "/"
	n := &Notifier{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if cfg.Token != "" {
		n.api = slackgo.New(cfg.Token,
			slackgo.OptionAPIURL(cfg.APIURL),
			slackgo.OptionHTTPClient(n.client),
			slackgo.OptionLog(zap.NewStdLog(n.logger.Named("slack-go"))),
		)
	}
	return n, nil
}

// Notify implements recap.Notifier. The delivery channel overrides the
// configured default.
func (n *Notifier) Notify(ctx context.Context, d recap.Delivery) error {
	err := n.notify(ctx, d)
	observability.RecordNotification(SinkName, err)
	return err
}

func (n *Notifier) notify(ctx context.Context, d recap.Delivery) error {
	if d.Report == nil {
		return errors.New("slack: empty report")
	}
	channel := d.Channel
	if channel == "" {
		channel = n.cfg.Channel
	}

	if n.cfg.WebhookURL != "" {
		// webhooks are bound to a channel, so the field is dropped
		msg := BuildMessage("", d.Report)
		if err := slackgo.PostWebhookCustomHTTPContext(ctx, n.cfg.WebhookURL, n.client, msg.Webhook()); err != nil {
			return fmt.Errorf("post webhook: %w", err)
		}
		return nil
	}
	if channel == "" {
		return ErrNotConfigured
	}
	ts, err := n.postMessage(ctx, BuildMessage(channel, d.Report))
	if err != nil {
		return err
	}
	n.logger.Info("slack message posted",
		zap.String("run_id", d.RunID),
		zap.String("channel", channel),
		zap.String("ts", ts),
	)
	return nil
}

func (n *Notifier) postMessage(ctx context.Context, msg Message) (string, error) {
	_, ts, err := n.api.PostMessageContext(ctx, msg.Channel,
		slackgo.MsgOptionText(msg.Text, false),
		slackgo.MsgOptionBlocks(msg.Blocks...),
	)
	if err != nil {
		var slackErr slackgo.SlackErrorResponse
		if errors.As(err, &slackErr) {
			return "", &APIError{Code: slackErr.Err}
		}
		return "", fmt.Errorf("post message: %w", err)
	}
	return ts, nil
}
