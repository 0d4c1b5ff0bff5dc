package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	initDescription string
)

var initCmd = &cobra.Command{
	Use:   "init <fleet-name>",
	Short: "Initialize a new, empty fleet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := fleetStore()
		if err != nil {
			return err
		}
		f, err := store.Create(args[0], initDescription)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Fleet initialized: %s\n", f.RootDir())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "fleet description")
}
