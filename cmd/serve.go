package cmd

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KaramelBytes/fleetrisk-cli/internal/parser"
	"github.com/KaramelBytes/fleetrisk-cli/internal/server"
	"github.com/spf13/cobra"
)

var (
	serveAddr      string
	serveAccessLog bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the classification and fleet API over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := settings()
		addr := serveAddr
		if addr == "" {
			addr = c.ListenAddr
		}
		format, err := parser.ParseFormat(c.InputFormat)
		if err != nil {
			return err
		}
		cls, err := newClassifier()
		if err != nil {
			return err
		}
		store, err := fleetStore()
		if err != nil {
			return err
		}
		log := slog.Default()
		metrics := server.NewMetrics()
		h := &server.Handlers{
			Log:            log,
			Classifier:     cls,
			Store:          store,
			Metrics:        metrics,
			MaxRows:        c.MaxRows,
			MaxUploadBytes: c.MaxUploadBytes,
			Format:         format,
		}
		var accessLog io.Writer
		if serveAccessLog {
			accessLog = os.Stderr
		}
		srv := server.New(addr, accessLog, log, h, metrics)

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()
		log.Info("serving", "addr", addr, "fleets_dir", store.Root(), "scoring", string(cls.Mode()))

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Stop(shutdownCtx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :8080)")
	serveCmd.Flags().BoolVar(&serveAccessLog, "access-log", true, "write combined-format access logs to stderr")
}
