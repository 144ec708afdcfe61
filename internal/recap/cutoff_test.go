package recap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParseCutoffPolicy(t *testing.T) {
	for input, want := range map[string]CutoffPolicy{
		"":           CutoffRolling,
		"rolling":    CutoffRolling,
		" ROLLING ":  CutoffRolling,
		"goal_start": CutoffGoalStart,
		"goal-start": CutoffGoalStart,
		"GoalStart":  CutoffGoalStart,
	} {
		got, err := ParseCutoffPolicy(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}

	_, err := ParseCutoffPolicy("monthly")
	require.Error(t, err)
}

func TestCutoffTime(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	goalStart := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.Equal(t, now.Add(-DefaultWindow), cutoffTime(CutoffRolling, 0, goalStart, now))
	require.Equal(t, now.Add(-DefaultWindow), cutoffTime("", 0, goalStart, now))
	require.Equal(t, now.Add(-48*time.Hour), cutoffTime(CutoffRolling, 48*time.Hour, goalStart, now))
	require.Equal(t, goalStart, cutoffTime(CutoffGoalStart, 48*time.Hour, goalStart, now))
	require.True(t, cutoffTime(CutoffGoalStart, 0, time.Time{}, now).IsZero())
}
