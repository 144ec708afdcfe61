package recap

import "time"

// Subscription routes a team's recap to a notification channel.
type Subscription struct {
	ID        string
	TeamID    string
	TeamName  string
	Channel   string
	Cutoff    CutoffPolicy
	Window    time.Duration
	Enabled   bool
	CreatedAt time.Time
}

// Job converts the subscription into a dispatcher job.
func (s Subscription) Job() Job {
	team := TeamSelector{ID: s.TeamID}
	if s.TeamID == "" {
		team.Name = s.TeamName
	}
	return Job{
		SubscriptionID: s.ID,
		Channel:        s.Channel,
		Request: Request{
			Team:   team,
			Cutoff: s.Cutoff,
			Window: s.Window,
		},
	}
}
