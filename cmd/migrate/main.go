package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sss135790/quick-clinic/internal/config"
	"github.com/sss135790/quick-clinic/internal/repository/postgres"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	rootCmd := &cobra.Command{
		Use:           "migrate",
		Short:         "Quick Clinic schema migrations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(upCmd(logger), statusCmd(logger))

	if err := rootCmd.Execute(); err != nil {
		logger.Error("migrate failed", zap.Error(err))
		os.Exit(1)
	}
}

func upCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, db *sqlx.DB) error {
				count, err := postgres.NewMigrator(db, logger).Up(ctx)
				if err != nil {
					return fmt.Errorf("migration failed: %w", err)
				}
				logger.Info("migrations complete", zap.Int("applied", count))
				return nil
			})
		},
	}
}

func statusCmd(logger *zap.Logger) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDB(cmd.Context(), func(ctx context.Context, db *sqlx.DB) error {
				migrations, err := postgres.NewMigrator(db, logger).Status(ctx)
				if err != nil {
					return fmt.Errorf("failed to get migration status: %w", err)
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "VERSION\tNAME\tSTATUS\tAPPLIED AT")
				for _, m := range migrations {
					status, appliedAt := "pending", ""
					if m.AppliedAt != nil {
						status = "applied"
						appliedAt = m.AppliedAt.Format(time.RFC3339)
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.Version, m.Name, status, appliedAt)
				}
				return w.Flush()
			})
		},
	}
}

func withDB(ctx context.Context, fn func(context.Context, *sqlx.DB) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}
	db, err := postgres.NewDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(ctx, db)
}
