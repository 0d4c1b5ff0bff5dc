package cmd

import (
	"errors"
	"fmt"

	"github.com/KaramelBytes/fleetrisk-cli/internal/fleet"
	"github.com/spf13/cobra"
)

var (
	upFleetName string
	upFormat    string
	upProgress  bool
)

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Classify a sensor upload and store it as the fleet's current machines",
	Long: `Classify a sensor upload and store it on a fleet. The upload replaces every machine
previously stored on the fleet; a rejected upload leaves the fleet unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if upFleetName == "" {
			return fmt.Errorf("--fleet is required")
		}
		store, err := fleetStore()
		if err != nil {
			return err
		}
		f, err := store.Open(upFleetName)
		if err != nil {
			if errors.Is(err, fleet.ErrNotFound) {
				return fmt.Errorf("%w (run 'fleetrisk init %s' first)", err, upFleetName)
			}
			return err
		}
		b, err := classifyFile(cmd.Context(), args[0], upFormat, upProgress)
		if err != nil {
			return err
		}
		prior := len(f.Machines)
		f.Replace(b)
		if err := f.Save(); err != nil {
			return err
		}
		fmt.Printf("✓ Uploaded %d machines to fleet '%s' (%s)\n", len(b.Machines), f.Name, levelLine(b.Machines))
		if prior > 0 {
			fmt.Printf("  replaced %d previously stored machines\n", prior)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
	uploadCmd.Flags().StringVarP(&upFleetName, "fleet", "f", "", "fleet name")
	uploadCmd.Flags().StringVar(&upFormat, "format", "", "input format: auto|delimited|positional (default from config)")
	uploadCmd.Flags().BoolVar(&upProgress, "progress", false, "print pipeline stages to stderr")
}
