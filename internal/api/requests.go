package api

import (
	"errors"
	"strings"
	"time"

	"github.com/minormending/slack-run-across-america/internal/recap"
)

// TriggerRecapRequest is the body of POST /v1/recaps.
type TriggerRecapRequest struct {
	TeamID       string `json:"team_id"`
	TeamName     string `json:"team_name"`
	Channel      string `json:"channel"`
	CutoffPolicy string `json:"cutoff_policy"`
	WindowHours  int    `json:"window_hours"`
}

// Job converts the request into a dispatcher job, falling back to
// defaultChannel when none is given.
func (r TriggerRecapRequest) Job(defaultChannel string) (recap.Job, error) {
	channel := strings.TrimSpace(r.Channel)
	if channel == "" {
		channel = defaultChannel
	}
	if channel == "" {
		return recap.Job{}, errors.New("channel is required")
	}
	if r.WindowHours < 0 {
		return recap.Job{}, errors.New("window_hours must be positive")
	}
	req := recap.Request{
		Team:   recap.TeamSelector{ID: strings.TrimSpace(r.TeamID), Name: strings.TrimSpace(r.TeamName)},
		Cutoff: recap.CutoffPolicy(r.CutoffPolicy),
		Window: time.Duration(r.WindowHours) * time.Hour,
	}
	if err := req.Validate(); err != nil {
		return recap.Job{}, err
	}
	return recap.Job{Channel: channel, Request: req}, nil
}

// CreateSubscriptionRequest is the body of POST /v1/subscriptions.
type CreateSubscriptionRequest struct {
	TeamID       string `json:"team_id"`
	TeamName     string `json:"team_name"`
	Channel      string `json:"channel"`
	CutoffPolicy string `json:"cutoff_policy"`
	WindowHours  int    `json:"window_hours"`
	Enabled      *bool  `json:"enabled"`
}

// Subscription converts the request into a subscription to store.
func (r CreateSubscriptionRequest) Subscription() (recap.Subscription, error) {
	if strings.TrimSpace(r.Channel) == "" {
		return recap.Subscription{}, errors.New("channel is required")
	}
	if r.WindowHours < 0 {
		return recap.Subscription{}, errors.New("window_hours must be positive")
	}
	enabled := true
	if r.Enabled != nil {
		enabled = *r.Enabled
	}
	sub := recap.Subscription{
		TeamID:   strings.TrimSpace(r.TeamID),
		TeamName: strings.TrimSpace(r.TeamName),
		Channel:  strings.TrimSpace(r.Channel),
		Cutoff:   recap.CutoffPolicy(r.CutoffPolicy),
		Window:   time.Duration(r.WindowHours) * time.Hour,
		Enabled:  enabled,
	}
	if sub.TeamID != "" && sub.TeamName != "" {
		return recap.Subscription{}, errors.New("set either team_id or team_name, not both")
	}
	if err := sub.Job().Request.Validate(); err != nil {
		return recap.Subscription{}, err
	}
	return sub, nil
}
