package main

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/canvass/internal/cli"
	"github.com/aretw0/canvass/internal/config"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Serves sessions at /{survey}/{session}: GET shows the current question,
POST submits an answer, DELETE discards the session. Diffs stream on
/{survey}/{session}/events and Prometheus metrics on /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig(cmd)
		logger, err := cli.NewLogger(cfg, os.Stderr)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		stack, err := cli.Build(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer stack.Close()

		var lc net.ListenConfig
		ln, err := lc.Listen(ctx, "tcp", cfg.HTTPAddr)
		if err != nil {
			return fmt.Errorf("error listening on %s: %w", cfg.HTTPAddr, err)
		}
		logger.Info("serving surveys", "surveys", stack.Catalog.IDs(), "store", cfg.StoreDriver)
		return cli.Serve(ctx, ln, cli.NewServer(stack, cfg, logger), logger)
	},
}

func init() {
	env := config.FromEnv()
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", env.HTTPAddr, "Address to listen on")
	serveCmd.Flags().StringSlice("cors-origins", env.CORSOrigins, "Allowed CORS origins")
	serveCmd.Flags().Bool("metrics", env.Metrics, "Expose Prometheus metrics on /metrics")
}
