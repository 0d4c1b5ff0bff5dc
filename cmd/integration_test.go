package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/fleetrisk-cli/internal/parser"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const sampleUpload = "machine_id,temp,vibration,runtime\nMACH1,95,9.2,25000\nMACH2,60,2,1000\nMACH3,70,6,100\n"

// resetFlags clears sticky flag values and Changed state left by earlier invocations.
func resetFlags(c *cobra.Command) {
	reset := func(fl *pflag.Flag) {
		_ = fl.Value.Set(fl.DefValue)
		fl.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execCmd executes the root command with args and returns what it wrote to its
// output stream.
func execCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	cfg = nil
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	rootCmd.SetOut(nil)
	return out.String(), err
}

// runCmd is a helper to execute the root command with args.
func runCmd(t *testing.T, args ...string) string {
	t.Helper()
	out, err := execCmd(t, args...)
	if err != nil {
		t.Fatalf("command %v failed: %v", args, err)
	}
	return out
}

func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	oldHome := os.Getenv("HOME")
	t.Cleanup(func() { os.Setenv("HOME", oldHome) })
	os.Setenv("HOME", home)
	return home
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestCLI_Init_Upload_List_Export(t *testing.T) {
	home := isolateHome(t)
	in := writeFile(t, home, "plant.csv", sampleUpload)

	runCmd(t, "init", "plant", "-d", "integration test")
	runCmd(t, "upload", in, "-f", "plant", "--scoring", "deterministic")

	outPath := filepath.Join(home, "plant-export.csv")
	runCmd(t, "export", "-f", "plant", "-o", outPath)
	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	want := "machine_id,temp,vibration,runtime,risk_level,risk_score,prediction_confidence\n" +
		"MACH1,95,9.2,25000,Critical,0.900,0.940\n" +
		"MACH2,60,2,1000,Healthy,0.000,0.970\n" +
		"MACH3,70,6,100,AtRisk,0.400,0.970\n"
	if string(got) != want {
		t.Fatalf("export mismatch:\n%s\nwant:\n%s", got, want)
	}

	out := runCmd(t, "list", "--machines", "-f", "plant", "--level", "critical")
	if !strings.Contains(out, "MACH1") || strings.Contains(out, "MACH2") {
		t.Fatalf("level filter output:\n%s", out)
	}

	out = runCmd(t, "list", "--fleets")
	if !strings.Contains(out, "- plant: 3 machines (Critical: 1, AtRisk: 1, Healthy: 1)") {
		t.Fatalf("fleet list output:\n%s", out)
	}

	out = runCmd(t, "summary", "-f", "plant")
	if !strings.Contains(out, "[RISK LEVELS]") || !strings.Contains(out, "| MACH1 |") {
		t.Fatalf("summary output:\n%s", out)
	}
}

func TestCLI_UploadReplacesPriorMachines(t *testing.T) {
	home := isolateHome(t)
	first := writeFile(t, home, "first.csv", sampleUpload)
	second := writeFile(t, home, "second.txt", "NEW1 20 1 10\n")

	runCmd(t, "init", "line")
	runCmd(t, "upload", first, "-f", "line")
	runCmd(t, "upload", second, "-f", "line")

	store, err := fleetStore()
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	f, err := store.Open("line")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(f.Machines) != 1 || f.Machines[0].MachineID != "NEW1" || f.Format != "positional" {
		t.Fatalf("expected only the second upload, got %+v", f.Machines)
	}

	// a rejected upload leaves the stored batch alone
	bad := writeFile(t, home, "bad.txt", "BAD 1 2\n")
	if _, err := execCmd(t, "upload", bad, "-f", "line"); err == nil {
		t.Fatalf("expected malformed upload to fail")
	}
	f, err = store.Open("line")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if len(f.Machines) != 1 || f.Machines[0].MachineID != "NEW1" {
		t.Fatalf("rejected upload changed the fleet: %+v", f.Machines)
	}
}

func TestCLI_UploadRequiresFleet(t *testing.T) {
	home := isolateHome(t)
	in := writeFile(t, home, "plant.csv", sampleUpload)
	_, err := execCmd(t, "upload", in, "-f", "ghost")
	if err == nil || !strings.Contains(err.Error(), "fleetrisk init ghost") {
		t.Fatalf("expected init hint, got %v", err)
	}
}

func TestCLI_ClassifyOutputs(t *testing.T) {
	home := isolateHome(t)
	in := writeFile(t, home, "plant.csv", sampleUpload)

	out := runCmd(t, "classify", in, "--scoring", "deterministic", "--output-format", "ndjson")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 || !strings.Contains(lines[0], `"risk_level":"Critical"`) {
		t.Fatalf("ndjson output:\n%s", out)
	}

	out = runCmd(t, "classify", in)
	if !strings.HasPrefix(out, "MACHINE") || !strings.Contains(out, "AtRisk") {
		t.Fatalf("table output:\n%s", out)
	}

	if _, err := execCmd(t, "classify", in, "--output-format", "xml"); err == nil {
		t.Fatalf("expected unsupported output format error")
	}
}

func TestCLI_ClassifyRejectsMalformed(t *testing.T) {
	home := isolateHome(t)
	in := writeFile(t, home, "bad.csv", "machine_id,temp,vibration,runtime\nMACH1,abc,3.0,100\n")
	_, err := execCmd(t, "classify", in)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), `row 2: invalid numeric value for temp: "abc"`) {
		t.Fatalf("error = %v", err)
	}
	if parser.KindOf(err) != parser.KindInvalidNumericField {
		t.Fatalf("kind = %q", parser.KindOf(err))
	}
}

func TestCLI_MaxRowsFlag(t *testing.T) {
	home := isolateHome(t)
	in := writeFile(t, home, "plant.csv", sampleUpload)
	_, err := execCmd(t, "classify", in, "--max-rows", "2")
	if err == nil || !strings.Contains(err.Error(), "submission has 3 rows, limit is 2") {
		t.Fatalf("expected row limit error, got %v", err)
	}
}

func TestCLI_ConfigSetShow(t *testing.T) {
	isolateHome(t)
	runCmd(t, "config", "set", "scoring_mode", "deterministic")
	runCmd(t, "config", "set", "max_rows", "500")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "scoring_mode: deterministic") || !strings.Contains(out, "max_rows: 500") {
		t.Fatalf("config show output:\n%s", out)
	}
	if _, err := execCmd(t, "config", "set", "max_rows", "-1"); err == nil {
		t.Fatalf("expected invalid max_rows error")
	}
	if _, err := execCmd(t, "config", "set", "nope", "1"); err == nil {
		t.Fatalf("expected unknown key error")
	}
}

func TestCLI_ConfigSetIgnoresFlagOverrides(t *testing.T) {
	isolateHome(t)
	runCmd(t, "--seed", "42", "--max-rows", "7", "--scoring", "deterministic", "config", "set", "log_level", "debug")
	out := runCmd(t, "config", "show")
	if !strings.Contains(out, "log_level: debug") {
		t.Fatalf("requested key not saved:\n%s", out)
	}
	for _, leaked := range []string{"scoring_seed: 42", "max_rows: 7", "scoring_mode: deterministic"} {
		if strings.Contains(out, leaked) {
			t.Errorf("flag override %q was written to the config file:\n%s", leaked, out)
		}
	}
	if !strings.Contains(out, "max_rows: 10000") || !strings.Contains(out, "listen_addr: :8080") {
		t.Fatalf("defaults lost:\n%s", out)
	}
}
