package leaderboard

import "strings"

// MilesToKilometers converts statute miles to kilometres.
const MilesToKilometers = 1.60934

const (
	UnitMiles      = "Miles"
	UnitKilometers = "Kilometers"
)

var kilometerLabels = map[string]struct{}{
	"":           {},
	"kilometers": {},
	"kilometres": {},
	"km":         {},
}

// NormalizeDistance returns distance in kilometres. Only the "Miles" label is
// converted; every other label is treated as already canonical.
func NormalizeDistance(distance float64, unit string) float64 {
	if unit == UnitMiles {
		return distance * MilesToKilometers
	}
	return distance
}

// Normalizer applies NormalizeDistance and reports unit labels it does not
// recognise. Unknown labels still pass through unconverted.
type Normalizer struct {
	OnUnknownUnit func(unit string)
}

// Normalize converts distance to kilometres.
func (n Normalizer) Normalize(distance float64, unit string) float64 {
	if unit != UnitMiles && n.OnUnknownUnit != nil {
		if _, ok := kilometerLabels[strings.ToLower(strings.TrimSpace(unit))]; !ok {
			n.OnUnknownUnit(unit)
		}
	}
	return NormalizeDistance(distance, unit)
}
