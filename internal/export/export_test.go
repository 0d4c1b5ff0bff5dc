package export_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/KaramelBytes/fleetrisk-cli/internal/export"
	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
)

var sample = []machine.Scored{
	{
		Record:               machine.Record{MachineID: "MACH1", Temperature: 95, Vibration: 9.2, RuntimeHours: 25000},
		RiskLevel:            machine.Critical,
		RiskScore:            0.87654,
		PredictionConfidence: 0.9,
		TotalRisk:            5,
	},
	{
		Record:               machine.Record{MachineID: "Pump, North", Temperature: 60.25, Vibration: 2, RuntimeHours: 1000},
		RiskLevel:            machine.Healthy,
		RiskScore:            0.0004,
		PredictionConfidence: 0.9999,
	},
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, sample); err != nil {
		t.Fatalf("write: %v", err)
	}
	want := "machine_id,temp,vibration,runtime,risk_level,risk_score,prediction_confidence\n" +
		"MACH1,95,9.2,25000,Critical,0.877,0.900\n" +
		"\"Pump, North\",60.25,2,1000,Healthy,0.000,1.000\n"
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestWriteCSV_EmptyHasHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, nil); err != nil {
		t.Fatalf("write: %v", err)
	}
	if strings.TrimSpace(buf.String()) != strings.Join(export.Header, ",") {
		t.Fatalf("got %q", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := export.Write(&buf, export.FormatJSON, sample); err != nil {
		t.Fatalf("write: %v", err)
	}
	var got []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 || got[0]["machine_id"] != "MACH1" || got[0]["risk_level"] != "Critical" {
		t.Fatalf("unexpected json: %v", got)
	}
	if got[0]["temp"] != 95.0 || got[0]["total_risk"] != 5.0 {
		t.Fatalf("unexpected fields: %v", got[0])
	}
}

func TestWriteNDJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := export.Write(&buf, export.FormatNDJSON, sample); err != nil {
		t.Fatalf("write: %v", err)
	}
	sc := bufio.NewScanner(&buf)
	n := 0
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("line %d: %v", n+1, err)
		}
		n++
	}
	if n != 2 {
		t.Fatalf("got %d lines, want 2", n)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]export.Format{"": export.FormatCSV, "CSV": export.FormatCSV, "json": export.FormatJSON, "jsonl": export.FormatNDJSON} {
		got, err := export.ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := export.ParseFormat("xlsx"); err == nil {
		t.Fatalf("expected error")
	}
}
