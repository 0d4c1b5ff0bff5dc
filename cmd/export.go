package cmd

import (
	"fmt"
	"io"

	"github.com/KaramelBytes/fleetrisk-cli/internal/export"
	"github.com/spf13/cobra"
)

var (
	expFleetName  string
	expOutFormat  string
	expOutputPath string
	expLevel      string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a fleet's scored machines as CSV, JSON or NDJSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		if expFleetName == "" {
			return fmt.Errorf("--fleet is required")
		}
		name := expOutFormat
		if name == "" {
			name = settings().ExportFormat
		}
		format, err := export.ParseFormat(name)
		if err != nil {
			return err
		}
		store, err := fleetStore()
		if err != nil {
			return err
		}
		f, err := store.Open(expFleetName)
		if err != nil {
			return err
		}
		recs, err := filterLevel(f, expLevel)
		if err != nil {
			return err
		}
		render := func(w io.Writer) error { return export.Write(w, format, recs) }
		if expOutputPath == "" {
			return render(cmd.OutOrStdout())
		}
		if err := writeOutput(expOutputPath, render); err != nil {
			return err
		}
		fmt.Printf("✓ Exported %d machines from '%s' to %s\n", len(recs), f.Name, expOutputPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&expFleetName, "fleet", "f", "", "fleet name")
	exportCmd.Flags().StringVar(&expOutFormat, "output-format", "", "csv|json|ndjson (default from config)")
	exportCmd.Flags().StringVarP(&expOutputPath, "output", "o", "", "optional path to write the export")
	exportCmd.Flags().StringVar(&expLevel, "level", "", "only export machines at this risk level")
}
