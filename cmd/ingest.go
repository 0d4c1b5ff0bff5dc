package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/KaramelBytes/fleetrisk-cli/internal/ingest"
	"github.com/KaramelBytes/fleetrisk-cli/internal/parser"
)

// classifyFile reads path and runs it through the ingest pipeline. formatFlag
// overrides the configured input_format when non-empty.
func classifyFile(ctx context.Context, path, formatFlag string, progress bool) (*ingest.Batch, error) {
	c := settings()
	name := formatFlag
	if name == "" {
		name = c.InputFormat
	}
	format, err := parser.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	cls, err := newClassifier()
	if err != nil {
		return nil, err
	}
	text, err := parser.ReadFile(path)
	if err != nil {
		return nil, err
	}
	opt := ingest.Options{
		Format:     format,
		MaxRows:    c.MaxRows,
		StageDelay: time.Duration(c.StageDelayMs) * time.Millisecond,
		Source:     filepath.Base(path),
		Logger:     slog.Default(),
	}
	if progress {
		opt.Progress = func(stage ingest.Stage, pct int) {
			fmt.Fprintf(os.Stderr, "[%3d%%] %s %s\n", pct, stage, opt.Source)
		}
	}
	b, err := ingest.Run(ctx, text, cls, opt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return b, nil
}
