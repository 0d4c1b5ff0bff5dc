package cmd

import (
	"fmt"

	"github.com/KaramelBytes/fleetrisk-cli/internal/fleet"
	"github.com/KaramelBytes/fleetrisk-cli/internal/machine"
	"github.com/spf13/cobra"
)

var (
	listFleets    bool
	listMachines  bool
	listFleetName string
	listLevel     string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List fleets or the machines stored on a fleet",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listFleets == listMachines { // either both true or both false
			return fmt.Errorf("specify exactly one of --fleets or --machines")
		}
		store, err := fleetStore()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if listFleets {
			names, err := store.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintln(out, "(no fleets)")
				return nil
			}
			for _, n := range names {
				f, err := store.Open(n)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "- %s: %d machines (%s)\n", n, len(f.Machines), levelLine(f.Machines))
			}
			return nil
		}
		// list machines
		if listFleetName == "" {
			return fmt.Errorf("--fleet is required when using --machines")
		}
		f, err := store.Open(listFleetName)
		if err != nil {
			return err
		}
		recs, err := filterLevel(f, listLevel)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Fprintln(out, "(no machines)")
			return nil
		}
		return writeTable(out, recs)
	},
}

func filterLevel(f *fleet.Fleet, raw string) ([]machine.Scored, error) {
	if raw == "" {
		return f.Machines, nil
	}
	lvl, ok := machine.ParseRiskLevel(raw)
	if !ok {
		return nil, fmt.Errorf("unknown --level: %s (use Healthy|AtRisk|Critical)", raw)
	}
	return f.Filter(lvl), nil
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listFleets, "fleets", false, "list fleets")
	listCmd.Flags().BoolVar(&listMachines, "machines", false, "list machines in a fleet")
	listCmd.Flags().StringVarP(&listFleetName, "fleet", "f", "", "fleet name for --machines")
	listCmd.Flags().StringVar(&listLevel, "level", "", "only show machines at this risk level")
}
