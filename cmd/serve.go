package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/ai-interviewer/internal/candidates"
	"github.com/spigell/ai-interviewer/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the interview HTTP API",
	Run: func(_ *cobra.Command, _ []string) {
		serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("listen", "l", "", "address to listen on (default :5000)")
	viper.BindPFlag("server.listen", serveCmd.Flags().Lookup("listen"))
}

func serve() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger, config := setup()
	defer logger.Sync()

	logger.Info("starting the ai-interviewer", zap.String("version", version))

	svc, store, closeStore, err := newService(ctx, config, logger)
	if err != nil {
		logger.Fatal("preparing the interview service", zap.Error(err))
	}
	defer closeStore()

	logger.Info("interview settings",
		zap.String("role", config.Interview.Role),
		zap.String("scoring", string(svc.Policy())),
		zap.Bool("enforce_deadline", config.Interview.EnforceDeadline),
	)

	srv := server.New(
		config.Server,
		svc,
		candidates.NewRegistry(store, logger),
		candidates.NewDashboard(store),
		logger,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return
	}

	logger.Info("exiting", zap.String("reason", "shutdown requested"))
}
