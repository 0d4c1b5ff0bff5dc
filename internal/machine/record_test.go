package machine_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
)

func TestParseRiskLevel(t *testing.T) {
	cases := map[string]machine.RiskLevel{
		"Healthy":   machine.Healthy,
		" critical": machine.Critical,
		"AtRisk":    machine.AtRisk,
		"at_risk":   machine.AtRisk,
		"At-Risk":   machine.AtRisk,
		"at risk":   machine.AtRisk,
	}
	for in, want := range cases {
		got, ok := machine.ParseRiskLevel(in)
		if !ok || got != want {
			t.Errorf("ParseRiskLevel(%q) = %q, %v", in, got, ok)
		}
	}
	if _, ok := machine.ParseRiskLevel("doomed"); ok {
		t.Fatalf("expected unknown level to be rejected")
	}
}

func TestSeverityOrder(t *testing.T) {
	for i := 1; i < len(machine.Levels); i++ {
		if machine.Levels[i].Severity() <= machine.Levels[i-1].Severity() {
			t.Fatalf("levels not ordered by severity: %v", machine.Levels)
		}
	}
	if machine.RiskLevel("x").Severity() != -1 {
		t.Fatalf("unknown level should have severity -1")
	}
}

func TestCountByLevel(t *testing.T) {
	recs := []machine.Scored{{RiskLevel: machine.Critical}, {RiskLevel: machine.Critical}, {RiskLevel: machine.Healthy}}
	got := machine.CountByLevel(recs)
	if got[machine.Critical] != 2 || got[machine.Healthy] != 1 || got[machine.AtRisk] != 0 {
		t.Fatalf("counts = %v", got)
	}
	if _, ok := got[machine.AtRisk]; !ok {
		t.Fatalf("zero levels should be present")
	}
}

func TestScoredJSONKeys(t *testing.T) {
	b, err := json.Marshal(machine.Scored{
		Record:    machine.Record{MachineID: "M1", Temperature: 1, Vibration: 2, RuntimeHours: 3},
		RiskLevel: machine.Healthy,
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{`"machine_id"`, `"temp"`, `"vibration"`, `"runtime"`, `"risk_level"`, `"risk_score"`, `"prediction_confidence"`} {
		if !strings.Contains(string(b), key) {
			t.Errorf("missing key %s in %s", key, b)
		}
	}
}
