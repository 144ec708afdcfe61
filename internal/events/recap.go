// Package events defines the recap payloads exchanged over Kafka.
package events

import "time"

// Event type names carried in the event_type message header.
const (
	TypeRecapRequested = "recap.requested"
	TypeRecapGenerated = "recap.generated"
)

// RecapRequested asks the consumer to build and deliver a recap. Exactly one
// of TeamID and TeamName is expected.
type RecapRequested struct {
	RequestID     string    `json:"request_id"`
	TeamID        string    `json:"team_id,omitempty"`
	TeamName      string    `json:"team_name,omitempty"`
	Channel       string    `json:"channel,omitempty"`
	CutoffPolicy  string    `json:"cutoff_policy,omitempty"`
	WindowSeconds int64     `json:"window_seconds,omitempty"`
	RequestedAt   time.Time `json:"requested_at"`
}

// RecapGenerated is emitted once a recap has been built for delivery.
type RecapGenerated struct {
	RunID           string          `json:"run_id"`
	TeamID          string          `json:"team_id"`
	TeamName        string          `json:"team_name"`
	Channel         string          `json:"channel,omitempty"`
	GoalDistanceKm  float64         `json:"goal_distance_km"`
	ProgressKm      float64         `json:"progress_km"`
	PercentComplete *int            `json:"percent_complete,omitempty"`
	Leaders         []LeaderEntry   `json:"leaders"`
	Categories      []CategoryEntry `json:"categories"`
	PeriodStart     time.Time       `json:"period_start"`
	PeriodEnd       time.Time       `json:"period_end"`
	GeneratedAt     time.Time       `json:"generated_at"`
}

// LeaderEntry is one overall leaderboard row.
type LeaderEntry struct {
	MemberID   string  `json:"member_id"`
	Name       string  `json:"name"`
	Rank       int     `json:"rank"`
	DistanceKm float64 `json:"distance_km"`
}

// CategoryEntry is one category leader.
type CategoryEntry struct {
	Category        string  `json:"category"`
	MemberID        string  `json:"member_id"`
	Name            string  `json:"name"`
	DistanceKm      float64 `json:"distance_km"`
	DurationSeconds int64   `json:"duration_seconds"`
}
