package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"rentledger.org/internal/migrate"
	"rentledger.org/ops/migrations"
)

var dsn string

func main() {
	log.SetFlags(0)

	root := &cobra.Command{
		Use:          "migrate",
		Short:        "Manage the rentledger archive schema",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&dsn, "dsn", os.Getenv("RENTLEDGER_PG_DSN"), "PostgreSQL DSN")

	root.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withManager(func(ctx context.Context, mgr *migrate.Manager) error {
					ran, err := mgr.Up(ctx)
					if err != nil {
						return err
					}
					fmt.Printf("applied %d migration(s)\n", ran)
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent migration",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withManager(func(ctx context.Context, mgr *migrate.Manager) error {
					return mgr.Down(ctx)
				})
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show which migrations have been applied",
			RunE: func(cmd *cobra.Command, args []string) error {
				return withManager(func(ctx context.Context, mgr *migrate.Manager) error {
					lines, err := mgr.Status(ctx)
					if err != nil {
						return err
					}
					for _, line := range lines {
						fmt.Println(line)
					}
					return nil
				})
			},
		},
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func withManager(fn func(context.Context, *migrate.Manager) error) error {
	if dsn == "" {
		return fmt.Errorf("missing DSN: provide via --dsn or RENTLEDGER_PG_DSN")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	mgr, err := migrate.NewManager(db, migrations.FS())
	if err != nil {
		return err
	}
	return fn(ctx, mgr)
}
