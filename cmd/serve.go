package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ziadkadry99/turnguard/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the HTTP server exposing the pipeline: POST /api/respond for
single turns, an SSE checkpoint stream, a websocket mirror, and the
session, evidence, and audit endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := buildDeps()
		if err != nil {
			return err
		}
		defer d.Close()

		srv := api.New(d.cfg, d.log, d.engine, d.sessions, d.audit, d.evidence)

		errCh := make(chan error, 1)
		go func() { errCh <- srv.Start() }()

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

		select {
		case err := <-errCh:
			return err
		case sig := <-stop:
			d.log.Info("shutting down", zap.String("signal", sig.String()))
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
