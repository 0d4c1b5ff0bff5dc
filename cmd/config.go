package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/KaramelBytes/fleetrisk-cli/internal/config"
	"github.com/KaramelBytes/fleetrisk-cli/internal/export"
	"github.com/KaramelBytes/fleetrisk-cli/internal/parser"
	"github.com/KaramelBytes/fleetrisk-cli/internal/risk"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set FleetRisk configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "No config loaded")
			return nil
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "fleets_dir: %s\n", cfg.FleetsDir)
		fmt.Fprintf(out, "input_format: %s\n", cfg.InputFormat)
		fmt.Fprintf(out, "max_rows: %d\n", cfg.MaxRows)
		fmt.Fprintf(out, "scoring_mode: %s\n", cfg.ScoringMode)
		if cfg.ScoringSeed != 0 {
			fmt.Fprintf(out, "scoring_seed: %d\n", cfg.ScoringSeed)
		}
		if cfg.StageDelayMs > 0 {
			fmt.Fprintf(out, "stage_delay_ms: %d\n", cfg.StageDelayMs)
		}
		fmt.Fprintf(out, "export_format: %s\n", cfg.ExportFormat)
		fmt.Fprintf(out, "log_level: %s\n", cfg.LogLevel)
		fmt.Fprintf(out, "log_format: %s\n", cfg.LogFormat)
		fmt.Fprintf(out, "listen_addr: %s\n", cfg.ListenAddr)
		fmt.Fprintf(out, "max_upload_bytes: %d\n", cfg.MaxUploadBytes)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		// Edit the on-disk settings, not the flag-overridden cfg.
		c, err := cfgpkg.Load(cfgFile)
		if err != nil {
			return err
		}
		switch key {
		case "fleets_dir":
			c.FleetsDir = val
		case "input_format":
			f, err := parser.ParseFormat(val)
			if err != nil {
				return err
			}
			c.InputFormat = f.String()
		case "max_rows":
			i, err := strconv.Atoi(val)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid positive int for max_rows: %v", val)
			}
			c.MaxRows = i
		case "scoring_mode":
			m, err := risk.ParseMode(val)
			if err != nil {
				return err
			}
			c.ScoringMode = string(m)
		case "scoring_seed":
			i, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid int for scoring_seed: %w", err)
			}
			c.ScoringSeed = i
		case "stage_delay_ms":
			i, err := strconv.Atoi(val)
			if err != nil || i < 0 {
				return fmt.Errorf("invalid int for stage_delay_ms: %v", val)
			}
			c.StageDelayMs = i
		case "export_format":
			f, err := export.ParseFormat(val)
			if err != nil {
				return err
			}
			c.ExportFormat = string(f)
		case "log_level":
			switch val {
			case "debug", "info", "warn", "error":
				c.LogLevel = val
			default:
				return fmt.Errorf("invalid log_level: %s (use debug|info|warn|error)", val)
			}
		case "log_format":
			switch val {
			case "text", "json":
				c.LogFormat = val
			default:
				return fmt.Errorf("invalid log_format: %s (use text or json)", val)
			}
		case "listen_addr":
			c.ListenAddr = val
		case "max_upload_bytes":
			i, err := strconv.ParseInt(val, 10, 64)
			if err != nil || i <= 0 {
				return fmt.Errorf("invalid positive int for max_upload_bytes: %v", val)
			}
			c.MaxUploadBytes = i
		default:
			return fmt.Errorf("unknown key: %s", key)
		}
		if err := cfgpkg.Save(c, cfgFile); err != nil {
			return err
		}
		fmt.Println("Saved config")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
