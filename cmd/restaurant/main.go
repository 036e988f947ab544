package main

import (
	"context"
	"fmt"
	"os"

	"github.com/example/restaurant/pkg/audit"
	"github.com/example/restaurant/pkg/catalog"
	"github.com/example/restaurant/pkg/config"
	"github.com/example/restaurant/pkg/database"
	"github.com/example/restaurant/pkg/logger"
	"github.com/example/restaurant/pkg/seed"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := rootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "restaurant",
		Short:         "Restaurant ordering service",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config/config.yaml", "Config file path (YAML)")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(configPath)
			},
		},
		&cobra.Command{
			Use:   "migrate",
			Short: "Create or update the database schema",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runMigrate(configPath)
			},
		},
		&cobra.Command{
			Use:   "seed",
			Short: "Insert the default menu and placeholder images",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runSeed(cmd.Context(), configPath)
			},
		},
	)

	return cmd
}

func bootstrap(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	log, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, log, nil
}

func runMigrate(configPath string) error {
	cfg, log, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	// Open migrates as part of connecting.
	db, err := database.Open(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	log.Info("Schema migrated", zap.String("driver", cfg.Database.Driver))
	return nil
}

func runSeed(ctx context.Context, configPath string) error {
	cfg, log, err := bootstrap(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	db, err := database.Open(&cfg.Database, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	fs := afero.NewOsFs()
	menu := catalog.NewService(db, catalog.NewFileImageStore(fs, cfg.Storage.UploadDir, cfg.Storage.URLPrefix), audit.Nop{}, log.Named("catalog"))
	return seedAll(ctx, seed.NewSeeder(menu, fs, cfg.Storage.UploadDir, log.Named("seed")))
}

func seedAll(ctx context.Context, s *seed.Seeder) error {
	if _, err := s.Images(ctx); err != nil {
		return fmt.Errorf("failed to generate images: %w", err)
	}
	if _, err := s.Menu(ctx); err != nil {
		return fmt.Errorf("failed to seed menu: %w", err)
	}
	return nil
}
