package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
)

// writeTable prints scored machines as aligned columns.
func writeTable(w io.Writer, recs []machine.Scored) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "MACHINE\tTEMP\tVIBRATION\tRUNTIME\tLEVEL\tSCORE\tCONFIDENCE")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%g\t%g\t%g\t%s\t%.3f\t%.3f\n",
			r.MachineID, r.Temperature, r.Vibration, r.RuntimeHours,
			r.RiskLevel, r.RiskScore, r.PredictionConfidence)
	}
	return tw.Flush()
}

// levelLine renders per-level counts, most severe first.
func levelLine(recs []machine.Scored) string {
	counts := machine.CountByLevel(recs)
	return fmt.Sprintf("Critical: %d, AtRisk: %d, Healthy: %d",
		counts[machine.Critical], counts[machine.AtRisk], counts[machine.Healthy])
}
