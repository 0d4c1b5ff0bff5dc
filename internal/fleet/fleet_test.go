package fleet_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/KaramelBytes/fleetrisk-cli/internal/fleet"
	"github.com/KaramelBytes/fleetrisk-cli/internal/ingest"
	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
)

func batch(id string, levels ...machine.RiskLevel) *ingest.Batch {
	b := &ingest.Batch{ID: id, Source: id + ".csv", Format: "delimited", CreatedAt: time.Now().UTC()}
	for i, l := range levels {
		b.Machines = append(b.Machines, machine.Scored{
			Record:    machine.Record{MachineID: id + "-" + string(rune('a'+i))},
			RiskLevel: l,
		})
	}
	return b
}

func TestStore_CreateOpenList(t *testing.T) {
	s, err := fleet.NewStore(filepath.Join(t.TempDir(), "fleets"))
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := s.Create("plant-a", "north hall"); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := s.Create("plant-a", ""); err == nil {
		t.Fatalf("expected duplicate create to fail")
	}
	if _, err := s.Create("plant-b", ""); err != nil {
		t.Fatalf("create b: %v", err)
	}
	names, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "plant-a" || names[1] != "plant-b" {
		t.Fatalf("names = %v", names)
	}
	f, err := s.Open("plant-a")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if f.Description != "north hall" || len(f.Machines) != 0 {
		t.Fatalf("unexpected fleet: %+v", f)
	}
}

func TestStore_OpenMissing(t *testing.T) {
	s, err := fleet.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := s.Open("ghost"); !errors.Is(err, fleet.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStore_UploadReplacesMachines(t *testing.T) {
	s, err := fleet.NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	if _, err := s.Upload("line-1", batch("first", machine.Healthy, machine.Critical, machine.AtRisk)); err != nil {
		t.Fatalf("upload 1: %v", err)
	}
	if _, err := s.Upload("line-1", batch("second", machine.Healthy)); err != nil {
		t.Fatalf("upload 2: %v", err)
	}
	f, err := s.Open("line-1")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if f.BatchID != "second" || len(f.Machines) != 1 || f.Machines[0].MachineID != "second-a" {
		t.Fatalf("expected only the second batch, got %+v", f)
	}
	if f.UploadedAt == nil || f.Source != "second.csv" {
		t.Fatalf("missing upload metadata: %+v", f)
	}
}

func TestFleet_Filter(t *testing.T) {
	f := fleet.New("x", "", t.TempDir())
	f.Replace(batch("b", machine.Healthy, machine.Critical, machine.Critical))
	if got := f.Filter(machine.Critical); len(got) != 2 {
		t.Fatalf("critical = %d", len(got))
	}
	if got := f.Filter(""); len(got) != 3 {
		t.Fatalf("all = %d", len(got))
	}
}

func TestValidateName(t *testing.T) {
	for _, ok := range []string{"plant-a", "Line_2", "a.b"} {
		if err := fleet.ValidateName(ok); err != nil {
			t.Errorf("%q rejected: %v", ok, err)
		}
	}
	for _, bad := range []string{"", "../etc", "a/b", ".hidden", "has space"} {
		if err := fleet.ValidateName(bad); err == nil {
			t.Errorf("%q accepted", bad)
		}
	}
}
