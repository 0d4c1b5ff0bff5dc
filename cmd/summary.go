package cmd

import (
	"fmt"
	"io"

	"github.com/KaramelBytes/fleetrisk-cli/internal/analysis"
	"github.com/spf13/cobra"
)

var (
	sumFleetName  string
	sumOutputPath string
	sumTopN       int
	sumOutliers   bool
	sumOutlierThr float64
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print a Markdown risk report for a fleet",
	RunE: func(cmd *cobra.Command, args []string) error {
		if sumFleetName == "" {
			return fmt.Errorf("--fleet is required")
		}
		store, err := fleetStore()
		if err != nil {
			return err
		}
		f, err := store.Open(sumFleetName)
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		if sumTopN > 0 {
			opt.TopN = sumTopN
		}
		if cmd.Flags().Changed("outliers") {
			opt.Outliers = sumOutliers
		}
		if sumOutlierThr > 0 {
			opt.OutlierThreshold = sumOutlierThr
		}
		md := analysis.Summarize(f.Name, f.Machines, opt).Markdown()
		if sumOutputPath == "" {
			fmt.Fprintln(cmd.OutOrStdout(), md)
			return nil
		}
		if err := writeOutput(sumOutputPath, func(w io.Writer) error {
			_, err := io.WriteString(w, md)
			return err
		}); err != nil {
			return err
		}
		fmt.Printf("✓ Wrote summary to %s\n", sumOutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	summaryCmd.Flags().StringVarP(&sumFleetName, "fleet", "f", "", "fleet name")
	summaryCmd.Flags().StringVarP(&sumOutputPath, "output", "o", "", "optional path to write the report (Markdown)")
	summaryCmd.Flags().IntVar(&sumTopN, "top", 10, "number of riskiest machines to list")
	summaryCmd.Flags().BoolVar(&sumOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	summaryCmd.Flags().Float64Var(&sumOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
}
