package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configDirName  = ".fleetrisk"
	configFileName = "config.yaml"
	envPrefix      = "FLEETRISK"
)

// Global configuration structure.
type Global struct {
	FleetsDir    string `mapstructure:"fleets_dir" yaml:"fleets_dir"`
	InputFormat  string `mapstructure:"input_format" yaml:"input_format"`
	MaxRows      int    `mapstructure:"max_rows" yaml:"max_rows"`
	ScoringMode  string `mapstructure:"scoring_mode" yaml:"scoring_mode"`
	ScoringSeed  int64  `mapstructure:"scoring_seed" yaml:"scoring_seed"`
	StageDelayMs int    `mapstructure:"stage_delay_ms" yaml:"stage_delay_ms"`
	ExportFormat string `mapstructure:"export_format" yaml:"export_format"`

	// Logging
	LogLevel  string `mapstructure:"log_level" yaml:"log_level"`
	LogFormat string `mapstructure:"log_format" yaml:"log_format"`

	// HTTP server
	ListenAddr     string `mapstructure:"listen_addr" yaml:"listen_addr"`
	MaxUploadBytes int64  `mapstructure:"max_upload_bytes" yaml:"max_upload_bytes"`
}

// Save writes the given configuration to the cfgFile path. If cfgFile is empty,
// it writes to ~/.fleetrisk/config.yaml, creating the directory if necessary.
func Save(c *Global, cfgFile string) error {
	var path string
	if cfgFile != "" {
		path = cfgFile
	} else {
		dir, err := Dir()
		if err != nil {
			return err
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("mkdir config dir: %w", err)
		}
		path = filepath.Join(dir, configFileName)
	}
	b, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal yaml: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Dir returns ~/.fleetrisk.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, configDirName), nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: flags (cfgFile) > env > config file > defaults.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()

	v.SetDefault("fleets_dir", "")
	v.SetDefault("input_format", "auto")
	v.SetDefault("max_rows", 10000)
	v.SetDefault("scoring_mode", "random")
	v.SetDefault("scoring_seed", 0)
	v.SetDefault("stage_delay_ms", 0)
	v.SetDefault("export_format", "csv")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("max_upload_bytes", 8<<20)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		_ = os.MkdirAll(dir, 0o755)
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
	// optional read
	_ = v.ReadInConfig()

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	// Resolve fleets_dir default: ~/.fleetrisk/fleets
	if c.FleetsDir == "" {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		c.FleetsDir = filepath.Join(dir, "fleets")
	}
	return &c, nil
}
