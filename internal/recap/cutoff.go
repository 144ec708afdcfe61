package recap

import (
	"fmt"
	"strings"
	"time"
)

// CutoffPolicy selects the start of the reporting window.
type CutoffPolicy string

const (
	// CutoffRolling keeps activities completed within Window before now.
	CutoffRolling CutoffPolicy = "rolling"
	// CutoffGoalStart keeps activities completed after the goal's start date.
	CutoffGoalStart CutoffPolicy = "goal_start"
)

// DefaultWindow is the rolling window used when none is configured.
const DefaultWindow = 7 * 24 * time.Hour

// ParseCutoffPolicy parses a policy name. The empty string selects CutoffRolling.
func ParseCutoffPolicy(value string) (CutoffPolicy, error) {
	switch CutoffPolicy(strings.ToLower(strings.TrimSpace(value))) {
	case "", CutoffRolling:
		return CutoffRolling, nil
	case CutoffGoalStart, "goal-start", "goalstart":
		return CutoffGoalStart, nil
	default:
		return "", fmt.Errorf("unknown cutoff policy %q", value)
	}
}

// cutoffTime returns the instant activities must be completed after. A zero
// time means every activity qualifies.
func cutoffTime(policy CutoffPolicy, window time.Duration, goalStart, now time.Time) time.Time {
	if policy == CutoffGoalStart {
		return goalStart
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return now.Add(-window)
}
