package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
	"github.com/KaramelBytes/fleetrisk-cli/internal/risk"
)

func scoredBatch(t *testing.T) []machine.Scored {
	t.Helper()
	recs := []machine.Record{
		{MachineID: "M1", Temperature: 60, Vibration: 2, RuntimeHours: 1000},
		{MachineID: "M2", Temperature: 62, Vibration: 2.5, RuntimeHours: 1200},
		{MachineID: "M3", Temperature: 61, Vibration: 2.2, RuntimeHours: 1100},
		{MachineID: "M4", Temperature: 63, Vibration: 2.1, RuntimeHours: 900},
		{MachineID: "M5", Temperature: 59, Vibration: 2.4, RuntimeHours: 1050},
		{MachineID: "M6", Temperature: 70, Vibration: 6, RuntimeHours: 1000},
		{MachineID: "M7", Temperature: 61, Vibration: 2.3, RuntimeHours: 980},
		{MachineID: "M8", Temperature: 140, Vibration: 9.2, RuntimeHours: 25000},
		{MachineID: "M8", Temperature: 60, Vibration: 2, RuntimeHours: 1000},
	}
	return risk.New(risk.WithMode(risk.ModeDeterministic)).ClassifyAll(recs)
}

func TestSummarize(t *testing.T) {
	rep := Summarize("plant-a", scoredBatch(t), DefaultOptions())
	if rep.Rows != 9 {
		t.Fatalf("rows = %d", rep.Rows)
	}
	if rep.Levels[0].Level != machine.Critical || rep.Levels[0].Count != 1 {
		t.Fatalf("levels = %+v", rep.Levels)
	}
	if rep.Levels[1].Count != 1 || rep.Levels[2].Count != 7 {
		t.Fatalf("levels = %+v", rep.Levels)
	}
	temp := rep.Axes[0]
	if temp.Name != "temp" || temp.Min != 59 || temp.Max != 140 || temp.Above != 1 {
		t.Fatalf("temp axis = %+v", temp)
	}
	wantMean := (60.0 + 62 + 61 + 63 + 59 + 70 + 61 + 140 + 60) / 9
	if math.Abs(temp.Mean-wantMean) > 1e-9 {
		t.Fatalf("mean = %v, want %v", temp.Mean, wantMean)
	}
	if temp.OutliersCount < 1 {
		t.Fatalf("expected the 140°C reading to be flagged as an outlier")
	}
	if len(rep.Riskiest) != 2 || rep.Riskiest[0].MachineID != "M8" || rep.Riskiest[1].MachineID != "M6" {
		t.Fatalf("riskiest = %+v", rep.Riskiest)
	}
	if len(rep.Warnings) != 1 || !strings.Contains(rep.Warnings[0], "M8(2)") {
		t.Fatalf("warnings = %v", rep.Warnings)
	}
}

func TestMarkdown(t *testing.T) {
	md := Summarize("plant-a", scoredBatch(t), DefaultOptions()).Markdown()
	for _, want := range []string{
		"[FLEET SUMMARY]",
		"Fleet: plant-a",
		"- Critical: 1 (11.1%)",
		"[SENSORS]",
		"- temp [°C]:",
		"[RISKIEST MACHINES]",
		"| M8 | 140 | 9.2 | 25000 | Critical | 0.900 |",
		"[NOTES]",
	} {
		if !strings.Contains(md, want) {
			t.Fatalf("markdown missing %q:\n%s", want, md)
		}
	}
}

func TestSummarize_Empty(t *testing.T) {
	rep := Summarize("", nil, DefaultOptions())
	if rep.Rows != 0 || len(rep.Axes) != 0 || len(rep.Warnings) != 1 {
		t.Fatalf("unexpected report: %+v", rep)
	}
	if !strings.Contains(rep.Markdown(), "Machines: 0") {
		t.Fatalf("markdown = %s", rep.Markdown())
	}
}

func TestMedianMAD(t *testing.T) {
	med, mad := medianMAD([]float64{1, 2, 3, 4, 100})
	if med != 3 || mad != 1 {
		t.Fatalf("median=%v mad=%v", med, mad)
	}
}
