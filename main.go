// @title Academic exams API
// @version 1.0
// @description Timed exam sessions, answer ledger, scoring and course results.

// @host localhost:8080
// @BasePath /api
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"academic_backend/internal/app"
	"academic_backend/internal/config"
	"academic_backend/pkg/logger"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "academic",
		Short:        "Exam session and scoring service",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringP("config", "c", "configs", "Directory holding config.yaml")

	serve := serveCmd()
	root.AddCommand(serve, migrateCmd(), exportResultsCmd())

	// "serve" is the default when no subcommand is given
	root.RunE = serve.RunE
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and realtime server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.ForceMigrate, _ = cmd.Flags().GetBool("migrate")

			application, err := app.NewApp(cfg)
			if err != nil {
				logger.Log.Error("Failed to start", zap.Error(err))
				return err
			}
			return application.Run()
		},
	}
	cmd.Flags().Bool("migrate", false, "Run database migrations on start, even in release mode")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			cfg.ForceMigrate = true
			cfg.MigrateOnly = true

			application, err := app.Bootstrap(cfg)
			if err != nil {
				return err
			}
			application.Close()
			logger.Log.Info("Database migration finished")
			return nil
		},
	}
}

func exportResultsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export-results",
		Short: "Write a course result sheet to the configured storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			courseID, _ := cmd.Flags().GetUint("course-id")

			application, err := app.Bootstrap(cfg)
			if err != nil {
				return err
			}
			defer application.Close()

			receipt, err := application.ExportResults(context.Background(), courseID)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(receipt)
		},
	}
	cmd.Flags().Uint("course-id", 0, "Course to export (required)")
	_ = cmd.MarkFlagRequired("course-id")
	return cmd
}
