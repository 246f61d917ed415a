// cmd/topupctl/migrate.go
package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"game-topup-bot/internal/infrastructure/persistence/postgres"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Миграции схемы журнала заказов",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Применить все новые миграции",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(ctx context.Context, m *postgres.Migrator, w io.Writer) error {
			if err := m.Migrate(ctx); err != nil {
				return err
			}
			if err := m.Validate(ctx); err != nil {
				return err
			}
			fmt.Fprintln(w, "✅ миграции применены")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Откатить последнюю примененную миграцию",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(ctx context.Context, m *postgres.Migrator, w io.Writer) error {
			if err := m.Rollback(ctx); err != nil {
				return err
			}
			fmt.Fprintln(w, "↩️ последняя миграция откачена")
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Показать состояние миграций",
		Args:  cobra.NoArgs,
		RunE: withMigrator(func(ctx context.Context, m *postgres.Migrator, w io.Writer) error {
			statuses, err := m.Status(ctx)
			if err != nil {
				return err
			}
			return printMigrationStatus(w, statuses)
		}),
	})

	return cmd
}

// withMigrator открывает БД без автомиграций и загружает набор миграций
func withMigrator(run func(ctx context.Context, m *postgres.Migrator, w io.Writer) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		dbCfg := cfg.Database
		dbCfg.EnableAutoMigrate = false
		db, err := postgres.Connect(ctx, dbCfg)
		if err != nil {
			return err
		}
		defer db.Close()

		m, err := loadMigrator(ctx, db, dbCfg.MigrationsPath)
		if err != nil {
			return err
		}
		return run(ctx, m, cmd.OutOrStdout())
	}
}

func loadMigrator(ctx context.Context, db *sqlx.DB, path string) (*postgres.Migrator, error) {
	m := postgres.NewMigrator(db)
	if err := m.Init(ctx); err != nil {
		return nil, fmt.Errorf("init migrations table: %w", err)
	}
	if path != "" {
		if err := m.LoadMigrations(path); err == nil {
			return m, nil
		}
	}
	if err := m.LoadEmbedded(); err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}
	return m, nil
}

func printMigrationStatus(w io.Writer, statuses []postgres.MigrationStatus) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS\tAPPLIED AT")
	for _, s := range statuses {
		applied := "-"
		if s.Applied {
			applied = s.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(tw, "%03d\t%s\t%s\t%s\n", s.ID, s.Name, s.Status, applied)
	}
	return tw.Flush()
}
