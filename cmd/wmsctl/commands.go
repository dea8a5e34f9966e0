package main

import (
	"context"
	"fmt"

	"github.com/georgemunganga/wms-backend/internal/config"
	"github.com/georgemunganga/wms-backend/internal/database"
	"github.com/georgemunganga/wms-backend/internal/logger"
	"github.com/georgemunganga/wms-backend/internal/modules/audit"
	"github.com/georgemunganga/wms-backend/internal/modules/picking"
	"github.com/georgemunganga/wms-backend/internal/modules/stock"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "wmsctl",
		Short:        "Warehouse management operator commands",
		SilenceUsage: true,
	}

	reservations := &cobra.Command{
		Use:   "reservations",
		Short: "Stock reservation maintenance",
	}
	reservations.AddCommand(newExpireCmd())

	root.AddCommand(
		newMigrateCmd(),
		newSeedCmd(),
		reservations,
		newBarcodeCmd(),
	)
	return root
}

// withDB loads configuration, opens the pool and hands both to fn.
func withDB(ctx context.Context, fn func(cfg *config.Config, db *sqlx.DB, log *zap.Logger) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log, err := logger.Init(logger.LogConfig{
		Level:       cfg.App.LogLevel,
		Environment: cfg.App.Environment,
		ServiceName: "wmsctl",
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	db, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(cfg, db, log)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), func(_ *config.Config, db *sqlx.DB, log *zap.Logger) error {
				n, err := database.Migrate(cmd.Context(), db, log)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "applied %d migration(s)\n", n)
				return nil
			})
		},
	}
}

func newSeedCmd() *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Insert the demo suppliers, products, warehouses and stock",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), func(_ *config.Config, db *sqlx.DB, log *zap.Logger) error {
				if !skipMigrate {
					if _, err := database.Migrate(cmd.Context(), db, log); err != nil {
						return err
					}
				}
				if err := database.Seed(cmd.Context(), db, log); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "seed data loaded")
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations first")
	return cmd
}

func newExpireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire",
		Short: "Release every active reservation past its expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withDB(cmd.Context(), func(cfg *config.Config, db *sqlx.DB, log *zap.Logger) error {
				svc := stock.NewService(stock.NewPostgresRepository(db), audit.NewPostgresRepository(db),
					cfg.Stock.ReservationTTL, log.Named("stock"))
				n, err := svc.ExpireReservations(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "released %d expired reservation(s)\n", n)
				return nil
			})
		},
	}
}

func newBarcodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "barcode <productId>",
		Short:   "Print the checksummed barcode label for a product id",
		Args:    cobra.ExactArgs(1),
		Example: "  wmsctl barcode 12345",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), picking.Barcode(args[0]))
			return nil
		},
	}
}
