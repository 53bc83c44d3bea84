package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/lead-qualifier/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the qualification API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initQualifier(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		opts := []server.Option{server.WithPort(port)}
		if env.Limiter != nil {
			opts = append(opts, server.WithRateLimiter(env.Limiter))
		}
		if env.Cache != nil {
			opts = append(opts, server.WithCache(env.Cache))
		}

		srv := server.New(ctx, env.Qualifier, env.Orchestrator, env.Jobs, opts...)

		zap.L().Info("starting server", zap.Int("port", port))
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
