// Package risk maps sensor readings to a health label and a risk score using a fixed
// threshold table.
package risk

import (
	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
)

// Thresholds. Every comparison is strict: a reading equal to a threshold falls in
// the lower contribution.
const (
	TempHigh          = 80.0
	TempElevated      = 65.0
	VibrationHigh     = 8.0
	VibrationElevated = 5.0
	RuntimeHigh       = 20000.0
)

// Assessment is the per-axis breakdown behind a risk level.
type Assessment struct {
	TempRisk      int `json:"temp_risk"`
	VibrationRisk int `json:"vibration_risk"`
	RuntimeRisk   int `json:"runtime_risk"`
	Total         int `json:"total_risk"`
}

// Assess computes the per-axis risk contributions of a record.
func Assess(r machine.Record) Assessment {
	a := Assessment{
		TempRisk:      stepRisk(r.Temperature, TempElevated, TempHigh),
		VibrationRisk: stepRisk(r.Vibration, VibrationElevated, VibrationHigh),
	}
	if r.RuntimeHours > RuntimeHigh {
		a.RuntimeRisk = 1
	}
	a.Total = a.TempRisk + a.VibrationRisk + a.RuntimeRisk
	return a
}

func stepRisk(v, elevated, high float64) int {
	switch {
	case v > high:
		return 2
	case v > elevated:
		return 1
	default:
		return 0
	}
}

// Band is the half-open score interval [Min, Max) attached to a risk level.
type Band struct {
	Level machine.RiskLevel
	// Floor is the smallest total risk that maps to this level.
	Floor int
	Min   float64
	Max   float64
}

// Contains reports whether score lies inside the band.
func (b Band) Contains(score float64) bool {
	return score >= b.Min && score < b.Max
}

// bands are evaluated from most to least severe; the first match wins.
var bands = []Band{
	{Level: machine.Critical, Floor: 4, Min: 0.8, Max: 1.0},
	{Level: machine.AtRisk, Floor: 2, Min: 0.4, Max: 0.8},
	{Level: machine.Healthy, Floor: 0, Min: 0.0, Max: 0.3},
}

// BandFor returns the band matching a total risk index.
func BandFor(total int) Band {
	for _, b := range bands {
		if total >= b.Floor {
			return b
		}
	}
	return bands[len(bands)-1]
}

// BandOf returns the score band of a level.
func BandOf(level machine.RiskLevel) (Band, bool) {
	for _, b := range bands {
		if b.Level == level {
			return b, true
		}
	}
	return Band{}, false
}

// LevelFor returns the risk level for a total risk index.
func LevelFor(total int) machine.RiskLevel {
	return BandFor(total).Level
}

// Confidence bounds: PredictionConfidence always lies in [ConfidenceMin, ConfidenceMax).
const (
	ConfidenceMin = 0.85
	ConfidenceMax = 1.0
)
