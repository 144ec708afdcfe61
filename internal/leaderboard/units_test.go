package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeDistanceMiles(t *testing.T) {
	for _, d := range []float64{0, 1, 3.1, 10, 26.2, 100.75} {
		require.InDelta(t, d*1.60934, NormalizeDistance(d, "Miles"), 1e-9)
	}
}

func TestNormalizeDistancePassThrough(t *testing.T) {
	for _, unit := range []string{"Kilometers", "km", "", "miles", "MILES", "furlongs"} {
		require.Equal(t, 12.5, NormalizeDistance(12.5, unit), "unit %q", unit)
	}
}

func TestNormalizerReportsUnknownUnits(t *testing.T) {
	var unknown []string
	n := Normalizer{OnUnknownUnit: func(unit string) { unknown = append(unknown, unit) }}

	require.InDelta(t, 16.0934, n.Normalize(10, "Miles"), 1e-9)
	require.Equal(t, 5.0, n.Normalize(5, "Kilometers"))
	require.Equal(t, 5.0, n.Normalize(5, "km"))
	require.Equal(t, 5.0, n.Normalize(5, ""))
	require.Equal(t, 5.0, n.Normalize(5, "Steps"))

	require.Equal(t, []string{"Steps"}, unknown)
}
