package machine

import "strings"

// RiskLevel is the health label assigned to a machine.
type RiskLevel string

const (
	Healthy  RiskLevel = "Healthy"
	AtRisk   RiskLevel = "AtRisk"
	Critical RiskLevel = "Critical"
)

// Levels lists every risk level from least to most severe.
var Levels = []RiskLevel{Healthy, AtRisk, Critical}

// Severity orders levels; higher is worse. Unknown levels return -1.
func (l RiskLevel) Severity() int {
	switch l {
	case Healthy:
		return 0
	case AtRisk:
		return 1
	case Critical:
		return 2
	default:
		return -1
	}
}

// ParseRiskLevel matches a level name case-insensitively, accepting "at_risk" and
// "at-risk" spellings for AtRisk.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch normalizeLevel(s) {
	case "healthy":
		return Healthy, true
	case "atrisk":
		return AtRisk, true
	case "critical":
		return Critical, true
	}
	return "", false
}

var levelReplacer = strings.NewReplacer("_", "", "-", "", " ", "")

func normalizeLevel(s string) string {
	return levelReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// Record is one validated row of sensor readings.
type Record struct {
	MachineID    string  `json:"machine_id"`
	Temperature  float64 `json:"temp"`
	Vibration    float64 `json:"vibration"`
	RuntimeHours float64 `json:"runtime"`
}

// Scored is a Record with its health classification attached.
type Scored struct {
	Record
	RiskLevel            RiskLevel `json:"risk_level"`
	RiskScore            float64   `json:"risk_score"`
	PredictionConfidence float64   `json:"prediction_confidence"`
	TotalRisk            int       `json:"total_risk"`
}

// CountByLevel tallies scored records per risk level.
func CountByLevel(recs []Scored) map[RiskLevel]int {
	out := make(map[RiskLevel]int, len(Levels))
	for _, l := range Levels {
		out[l] = 0
	}
	for _, r := range recs {
		out[r.RiskLevel]++
	}
	return out
}
