package raa

import (
	"time"

	"github.com/minormending/slack-run-across-america/internal/leaderboard"
)

type teamDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type goalDTO struct {
	Distance  float64   `json:"distance"`
	Progress  float64   `json:"progress"`
	StartDate time.Time `json:"start_date"`
}

type memberStatsDTO struct {
	UserID    string  `json:"user_id"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Icon      string  `json:"icon"`
	Rank      int     `json:"rank"`
	Distance  float64 `json:"distance"`
}

type activityDTO struct {
	Type          string    `json:"type"`
	Distance      float64   `json:"distance"`
	DistanceUnits string    `json:"distance_units"`
	Duration      float64   `json:"duration"` // seconds
	CompletedAt   time.Time `json:"completed_at"`
	UserID        string    `json:"user_id"`
	UserFirstName string    `json:"user_first_name"`
	UserLastName  string    `json:"user_last_name"`
	UserIcon      string    `json:"user_icon"`
}

func (t teamDTO) toDomain() leaderboard.Team {
	return leaderboard.Team{ID: t.ID, Name: t.Name}
}

func (g goalDTO) toDomain() leaderboard.Goal {
	return leaderboard.Goal{Distance: g.Distance, Progress: g.Progress, StartDate: g.StartDate}
}

func (m memberStatsDTO) toDomain() leaderboard.Member {
	return leaderboard.Member{
		ID:         m.UserID,
		FirstName:  m.FirstName,
		LastName:   m.LastName,
		Icon:       m.Icon,
		Rank:       m.Rank,
		DistanceKm: m.Distance,
	}
}

func (a activityDTO) toDomain() leaderboard.Activity {
	return leaderboard.Activity{
		Type:        a.Type,
		Distance:    a.Distance,
		Unit:        a.DistanceUnits,
		Duration:    time.Duration(a.Duration * float64(time.Second)),
		CompletedAt: a.CompletedAt,
		MemberID:    a.UserID,
		FirstName:   a.UserFirstName,
		LastName:    a.UserLastName,
		Icon:        a.UserIcon,
	}
}
