package cmd

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/fleetrisk-cli/internal/analysis"
	"github.com/KaramelBytes/fleetrisk-cli/internal/export"
	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
	"github.com/KaramelBytes/fleetrisk-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	clsFormat     string
	clsOutFormat  string
	clsOutputPath string
	clsProgress   bool
)

var classifyCmd = &cobra.Command{
	Use:   "classify <file>",
	Short: "Parse a sensor upload and print each machine's risk classification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := classifyFile(cmd.Context(), args[0], clsFormat, clsProgress)
		if err != nil {
			return err
		}
		render, err := renderer(clsOutFormat, b.Source, b.Machines)
		if err != nil {
			return err
		}
		if clsOutputPath == "" {
			return render(cmd.OutOrStdout())
		}
		if err := writeOutput(clsOutputPath, render); err != nil {
			return err
		}
		fmt.Printf("✓ Classified %d machines (%s) -> %s\n", len(b.Machines), levelLine(b.Machines), clsOutputPath)
		return nil
	},
}

// renderer picks an output encoding: table, markdown, or one of the export formats.
func renderer(name, title string, recs []machine.Scored) (func(io.Writer) error, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "table":
		return func(w io.Writer) error { return writeTable(w, recs) }, nil
	case "markdown", "md":
		return func(w io.Writer) error {
			_, err := io.WriteString(w, analysis.Summarize(title, recs, analysis.DefaultOptions()).Markdown())
			return err
		}, nil
	}
	f, err := export.ParseFormat(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported --output-format: %s (use table|csv|json|ndjson|markdown)", name)
	}
	return func(w io.Writer) error { return export.Write(w, f, recs) }, nil
}

// writeOutput renders into memory and replaces path atomically.
func writeOutput(path string, render func(io.Writer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(classifyCmd)
	classifyCmd.Flags().StringVar(&clsFormat, "format", "", "input format: auto|delimited|positional (default from config)")
	classifyCmd.Flags().StringVar(&clsOutFormat, "output-format", "table", "output: table|csv|json|ndjson|markdown")
	classifyCmd.Flags().StringVarP(&clsOutputPath, "output", "o", "", "optional path to write results")
	classifyCmd.Flags().BoolVar(&clsProgress, "progress", false, "print pipeline stages to stderr")
}
