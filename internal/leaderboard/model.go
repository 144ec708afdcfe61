// Package leaderboard turns raw team activity records into a compact recap:
// activity classification, unit normalization and per-category leaders.
package leaderboard

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Team identifies a challenge team.
type Team struct {
	ID   string
	Name string
}

// Goal is a team-level distance target with its tracked progress.
type Goal struct {
	Distance  float64
	Progress  float64
	StartDate time.Time
}

// Member is one row of the team's cumulative-distance leaderboard.
type Member struct {
	ID         string
	FirstName  string
	LastName   string
	Icon       string
	Rank       int
	DistanceKm float64
}

// Name returns the member's display name.
func (m Member) Name() string {
	return strings.TrimSpace(m.FirstName + " " + m.LastName)
}

// Activity is one logged exercise event from the team feed.
type Activity struct {
	Type        string
	Distance    float64
	Unit        string
	Duration    time.Duration
	CompletedAt time.Time
	MemberID    string
	FirstName   string
	LastName    string
	Icon        string
}

// CategoryLeader is the summed result for the best member of one category.
type CategoryLeader struct {
	Category   Category
	MemberID   string
	FirstName  string
	LastName   string
	Icon       string
	DistanceKm float64
	Duration   time.Duration
}

// Name returns the leader's display name.
func (l CategoryLeader) Name() string {
	return strings.TrimSpace(l.FirstName + " " + l.LastName)
}

// Period describes the reporting window used for category aggregation.
type Period struct {
	Start   time.Time
	End     time.Time
	Rolling bool
}

// Report is the output of a recap build.
type Report struct {
	TeamID          string
	TeamName        string
	GoalDistance    float64
	Progress        float64
	Leaders         []Member
	CategoryLeaders map[Category]CategoryLeader
	Period          Period
	GeneratedAt     time.Time
}

// PercentComplete returns round(100 * progress / goal). The second value is
// false when the goal target is zero or negative.
func (r *Report) PercentComplete() (int, bool) {
	if r == nil || r.GoalDistance <= 0 {
		return 0, false
	}
	return int(math.Round(100 * r.Progress / r.GoalDistance)), true
}

// RankedCategoryLeaders returns the category leaders ordered by distance,
// highest first. Equal distances keep the canonical category order.
func (r *Report) RankedCategoryLeaders() []CategoryLeader {
	if r == nil {
		return nil
	}
	out := make([]CategoryLeader, 0, len(r.CategoryLeaders))
	for _, category := range Categories {
		if leader, ok := r.CategoryLeaders[category]; ok {
			out = append(out, leader)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DistanceKm > out[j].DistanceKm
	})
	return out
}
