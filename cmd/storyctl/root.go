package main

import (
	"fmt"

	"cyoa-server/internal/config"
	"cyoa-server/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// env is what every subcommand needs: configuration and a logger.
type env struct {
	cfg    *config.Config
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	var logLevel string

	root := &cobra.Command{
		Use:          "storyctl",
		Short:        "Administer the story graph: schema migrations, image imports, suggestions",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load()
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			log, err := logger.New(logger.Config{Level: cfg.LogLevel, Encoding: "console", OutputPath: "stderr"})
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			e.cfg = cfg
			e.logger = log
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if e.logger != nil {
				_ = e.logger.Sync()
			}
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "override LOG_LEVEL")

	root.AddCommand(
		newMigrateCmd(e),
		newImportCmd(e),
		newSuggestCmd(e),
	)
	return root
}
