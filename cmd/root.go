package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	cfgpkg "github.com/KaramelBytes/fleetrisk-cli/internal/config"
	"github.com/KaramelBytes/fleetrisk-cli/internal/fleet"
	"github.com/KaramelBytes/fleetrisk-cli/internal/logging"
	"github.com/KaramelBytes/fleetrisk-cli/internal/risk"
	"github.com/KaramelBytes/fleetrisk-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	// Global flags (override config when set)
	cfgFile       string
	debug         bool
	flagLogLevel  string
	flagLogFormat string
	flagMaxRows   int
	flagScoring   string
	flagSeed      int64

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "fleetrisk",
	Short: "FleetRisk CLI: classify machine sensor uploads by failure risk",
	Long: `FleetRisk parses machine sensor uploads (delimited with a header row, or one machine
per line) and classifies every machine as Healthy, AtRisk or Critical from its
temperature, vibration and runtime hours. Results can be stored per fleet, exported,
summarized, or served over HTTP.`,
	SilenceUsage: true,
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)

	// Persistent global flags available to all subcommands
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.fleetrisk/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug|info|warn|error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: text|json (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagMaxRows, "max-rows", 0, "maximum rows accepted per upload (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagScoring, "scoring", "", "scoring mode: random|deterministic (overrides config)")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "seed for random scoring, 0 = time seeded (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		c = &cfgpkg.Global{MaxRows: 10000, ScoringMode: string(risk.ModeRandom), LogLevel: "info", LogFormat: "text"}
	}
	cfg = c

	// Apply CLI overrides if provided
	f := rootCmd.PersistentFlags()
	if f.Changed("log-level") && flagLogLevel != "" {
		cfg.LogLevel = flagLogLevel
	}
	if f.Changed("log-format") && flagLogFormat != "" {
		cfg.LogFormat = flagLogFormat
	}
	if f.Changed("max-rows") && flagMaxRows > 0 {
		cfg.MaxRows = flagMaxRows
	}
	if f.Changed("scoring") && flagScoring != "" {
		cfg.ScoringMode = flagScoring
	}
	if f.Changed("seed") {
		cfg.ScoringSeed = flagSeed
	}

	level := logging.ParseLevel(cfg.LogLevel)
	if debug {
		level = slog.LevelDebug
	}
	logging.Init(os.Stderr, cfg.LogFormat, level)
}

// settings returns the loaded configuration, loading it on first use.
func settings() *cfgpkg.Global {
	if cfg == nil {
		loadConfig()
	}
	return cfg
}

func newClassifier() (*risk.Classifier, error) {
	c := settings()
	mode, err := risk.ParseMode(c.ScoringMode)
	if err != nil {
		return nil, err
	}
	opts := []risk.Option{risk.WithMode(mode)}
	if mode == risk.ModeRandom {
		opts = append(opts, risk.WithSeed(c.ScoringSeed))
	}
	return risk.New(opts...), nil
}

func fleetStore() (*fleet.Store, error) {
	dir := settings().FleetsDir
	if dir == "" {
		cfgDir, err := cfgpkg.Dir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(cfgDir, "fleets")
	}
	dir, err := utils.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	return fleet.NewStore(dir)
}
