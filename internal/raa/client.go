// Package raa is a client for the Run Across America challenge API.
package raa

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/minormending/slack-run-across-america/internal/httputil"
	"github.com/minormending/slack-run-across-america/internal/leaderboard"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://api.runacrossamerica.org/v1"

// Client is an API client for Run Across America.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	logger  *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets a static bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.client.Timeout = timeout
		}
	}
}

// WithLogger overrides the client logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// NewClient creates a new API client rooted at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Teams lists the teams userID belongs to.
func (c *Client) Teams(ctx context.Context, userID string) ([]leaderboard.Team, error) {
	var dto []teamDTO
	if err := c.get(ctx, "/users/"+url.PathEscape(userID)+"/teams", nil, &dto); err != nil {
		return nil, err
	}
	teams := make([]leaderboard.Team, 0, len(dto))
	for _, t := range dto {
		teams = append(teams, t.toDomain())
	}
	return teams, nil
}

// Goal returns the team's distance goal including current progress.
func (c *Client) Goal(ctx context.Context, teamID string) (leaderboard.Goal, error) {
	var dto goalDTO
	query := url.Values{"include_progress": []string{"true"}}
	if err := c.get(ctx, "/teams/"+url.PathEscape(teamID)+"/goals", query, &dto); err != nil {
		return leaderboard.Goal{}, err
	}
	return dto.toDomain(), nil
}

// Leaderboard returns the team's members ordered by rank.
func (c *Client) Leaderboard(ctx context.Context, teamID string) ([]leaderboard.Member, error) {
	var dto []memberStatsDTO
	if err := c.get(ctx, "/teams/"+url.PathEscape(teamID)+"/leaderboard", nil, &dto); err != nil {
		return nil, err
	}
	members := make([]leaderboard.Member, 0, len(dto))
	for _, m := range dto {
		members = append(members, m.toDomain())
	}
	return members, nil
}

// Feed returns the team's recent activities.
func (c *Client) Feed(ctx context.Context, teamID string) ([]leaderboard.Activity, error) {
	var dto []activityDTO
	if err := c.get(ctx, "/teams/"+url.PathEscape(teamID)+"/feed", nil, &dto); err != nil {
		return nil, err
	}
	activities := make([]leaderboard.Activity, 0, len(dto))
	for _, a := range dto {
		activities = append(activities, a.toDomain())
	}
	return activities, nil
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("upstream request",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(started)),
	)

	if err := httputil.ParseErrorResponse(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
