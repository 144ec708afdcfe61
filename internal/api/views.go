package api

import (
	"time"

	"github.com/minormending/slack-run-across-america/internal/leaderboard"
	"github.com/minormending/slack-run-across-america/internal/recap"
	"github.com/minormending/slack-run-across-america/internal/slack"
)

// ReportView is the JSON shape of a recap report.
type ReportView struct {
	TeamID          string               `json:"team_id"`
	TeamName        string               `json:"team_name"`
	Headline        string               `json:"headline"`
	GoalDistanceKm  float64              `json:"goal_distance_km"`
	ProgressKm      float64              `json:"progress_km"`
	PercentComplete *int                 `json:"percent_complete,omitempty"`
	Leaders         []LeaderView         `json:"leaders"`
	CategoryLeaders []CategoryLeaderView `json:"category_leaders"`
	Period          PeriodView           `json:"period"`
	GeneratedAt     time.Time            `json:"generated_at"`
}

// LeaderView is one overall leader.
type LeaderView struct {
	Rank       int     `json:"rank"`
	MemberID   string  `json:"member_id"`
	Name       string  `json:"name"`
	Icon       string  `json:"icon,omitempty"`
	DistanceKm float64 `json:"distance_km"`
}

// CategoryLeaderView is the best remaining member in one category.
type CategoryLeaderView struct {
	Category        string  `json:"category"`
	MemberID        string  `json:"member_id"`
	Name            string  `json:"name"`
	Icon            string  `json:"icon,omitempty"`
	DistanceKm      float64 `json:"distance_km"`
	DurationSeconds int64   `json:"duration_seconds"`
	Duration        string  `json:"duration"`
}

// PeriodView describes the category reporting window.
type PeriodView struct {
	Title   string     `json:"title"`
	Start   *time.Time `json:"start,omitempty"`
	End     time.Time  `json:"end"`
	Rolling bool       `json:"rolling"`
}

// RunView is returned when a recap is triggered.
type RunView struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// SubscriptionView is one stored recap subscription.
type SubscriptionView struct {
	SubscriptionID string    `json:"subscription_id"`
	TeamID         string    `json:"team_id,omitempty"`
	TeamName       string    `json:"team_name,omitempty"`
	Channel        string    `json:"channel"`
	CutoffPolicy   string    `json:"cutoff_policy"`
	WindowSeconds  int64     `json:"window_seconds,omitempty"`
	Enabled        bool      `json:"enabled"`
	CreatedAt      time.Time `json:"created_at"`
}

// ListSubscriptionsResponse wraps the subscription listing.
type ListSubscriptionsResponse struct {
	Items []SubscriptionView `json:"items"`
}

// ToReportView converts a domain report for JSON output.
func ToReportView(r *leaderboard.Report) ReportView {
	view := ReportView{
		TeamID:          r.TeamID,
		TeamName:        r.TeamName,
		Headline:        slack.Headline(r),
		GoalDistanceKm:  r.GoalDistance,
		ProgressKm:      r.Progress,
		Leaders:         make([]LeaderView, 0, len(r.Leaders)),
		CategoryLeaders: make([]CategoryLeaderView, 0, len(r.CategoryLeaders)),
		Period: PeriodView{
			Title:   slack.PeriodTitle(r.Period),
			End:     r.Period.End,
			Rolling: r.Period.Rolling,
		},
		GeneratedAt: r.GeneratedAt,
	}
	if pct, ok := r.PercentComplete(); ok {
		view.PercentComplete = &pct
	}
	if !r.Period.Start.IsZero() {
		start := r.Period.Start
		view.Period.Start = &start
	}
	for i, m := range r.Leaders {
		rank := m.Rank
		if rank <= 0 {
			rank = i + 1
		}
		view.Leaders = append(view.Leaders, LeaderView{
			Rank:       rank,
			MemberID:   m.ID,
			Name:       m.Name(),
			Icon:       m.Icon,
			DistanceKm: m.DistanceKm,
		})
	}
	for _, l := range r.RankedCategoryLeaders() {
		view.CategoryLeaders = append(view.CategoryLeaders, CategoryLeaderView{
			Category:        string(l.Category),
			MemberID:        l.MemberID,
			Name:            l.Name(),
			Icon:            l.Icon,
			DistanceKm:      l.DistanceKm,
			DurationSeconds: int64(l.Duration / time.Second),
			Duration:        slack.FormatDuration(l.Duration),
		})
	}
	return view
}

func toSubscriptionView(s recap.Subscription) SubscriptionView {
	return SubscriptionView{
		SubscriptionID: s.ID,
		TeamID:         s.TeamID,
		TeamName:       s.TeamName,
		Channel:        s.Channel,
		CutoffPolicy:   string(s.Cutoff),
		WindowSeconds:  int64(s.Window / time.Second),
		Enabled:        s.Enabled,
		CreatedAt:      s.CreatedAt,
	}
}
