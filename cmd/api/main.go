package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/yigit/ecosphere/internal/bootstrap"
	"github.com/yigit/ecosphere/internal/pkg/logger"
	"github.com/yigit/ecosphere/internal/server"
)

// @title EcoSphere API
// @version 1.0
// @description API for the EcoSphere waste and recycled goods marketplace

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

var configPath string

func main() {
	if err := newRootCommand().Execute(); err != nil {
		logger.Error().Err(err).Msg("Command failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "ecosphere",
		Short:         "EcoSphere marketplace API server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", bootstrap.DefaultConfigPath, "path to the YAML configuration file")

	root.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Migrate, seed and start the HTTP server",
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Apply database migrations and exit",
			RunE:  runMigrate,
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Apply migrations, seed default data and exit",
			RunE:  runSeed,
		},
	)
	return root
}

func runServe(cmd *cobra.Command, _ []string) error {
	srv, err := server.NewServer(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	if err := srv.Run(cmd.Context()); err != nil {
		return err
	}
	logger.Info().Msg("Application finished gracefully.")
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return err
	}
	database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer database.Close()

	return bootstrap.RunMigrations(ctx, database, lgr)
}

func runSeed(cmd *cobra.Command, _ []string) error {
	ctx := commandContext(cmd)
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(configPath)
	if err != nil {
		return err
	}
	database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := bootstrap.RunMigrations(ctx, database, lgr); err != nil {
		return err
	}
	return bootstrap.SeedData(ctx, database, cfg, lgr)
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
