package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/3Eeeecho/go-divelog/cmd/server"
	"github.com/3Eeeecho/go-divelog/internal/config"
	"github.com/3Eeeecho/go-divelog/internal/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "divelog",
		Short:        "Dive log service with shareable dives",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file (default: ./config.yaml or ./configs/config.yaml)")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig(configPath)
				if err != nil {
					return err
				}
				defer logger.Sync()
				logger.Info("Starting divelog", zap.String("version", version))

				srv, err := server.NewServer(cfg)
				if err != nil {
					logger.Error("Unable to start application", zap.Error(err))
					return err
				}

				stopChan := make(chan os.Signal, 1)
				signal.Notify(stopChan, syscall.SIGINT, syscall.SIGTERM)
				if err := srv.Run(cmd.Context(), stopChan); err != nil {
					return err
				}
				logger.Info("divelog exited")
				return nil
			},
		},
		&cobra.Command{
			Use:   "purge",
			Short: "Delete expired shares once and exit",
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := loadConfig(configPath)
				if err != nil {
					return err
				}
				defer logger.Sync()

				srv, err := server.NewServer(cfg)
				if err != nil {
					return err
				}
				defer srv.Close()

				n, err := srv.Shares().PurgeExpired(cmd.Context())
				if err != nil {
					logger.Error("Purge failed", zap.Error(err))
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %d expired shares\n", n)
				return nil
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the version",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), version)
			},
		},
	)
	return root
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := os.MkdirAll("logs", 0755); err != nil {
		return nil, fmt.Errorf("create logs directory: %w", err)
	}
	logger.InitLogger(cfg.Log.OutputPath, cfg.Log.ErrorPath, cfg.Log.Level)
	return cfg, nil
}
