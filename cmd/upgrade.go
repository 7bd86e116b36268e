package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/spf13/cobra"

	"github.com/egopanda/agency/internal/config"
	"github.com/egopanda/agency/internal/store/pg"
	"github.com/egopanda/agency/internal/upgrade"
	"github.com/egopanda/agency/pkg/protocol"
)

// ErrUpgradeFailed is returned when upgrade cannot proceed.
var ErrUpgradeFailed = errors.New("upgrade failed")

func upgradeCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "upgrade",
		Short: "Bring the Postgres schema up to what this binary requires",
		Long:  "Checks the managed-mode schema version and applies pending migrations. Safe to run repeatedly.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpgrade(dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report what would be done without applying changes")
	return cmd
}

func runUpgrade(dryRun bool) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if !cfg.IsManagedMode() {
		fmt.Println("Standalone mode: the SQLite store manages its own schema.")
		return nil
	}

	db, err := pg.OpenDB(cfg.Database.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer db.Close()

	s, err := upgrade.Check(context.Background(), db)
	if err != nil {
		return fmt.Errorf("check schema: %w", err)
	}

	fmt.Printf("  App version:     %s (api %d)\n", Version, protocol.APIVersion)
	fmt.Printf("  Schema current:  %d (%s)\n", s.Version, s.State)
	fmt.Printf("  Schema required: %d\n", upgrade.SchemaVersion)
	fmt.Println()

	if s.State == upgrade.StateCurrent {
		fmt.Printf("  Schema is up to date (%d memories stored).\n", s.Documents)
		return nil
	}
	if !s.NeedsMigration() {
		fmt.Print(upgrade.Report(s))
		return ErrUpgradeFailed
	}
	if dryRun {
		fmt.Printf("  Would apply migrations: v%d -> v%d\n", s.Version, upgrade.SchemaVersion)
		return nil
	}

	fmt.Print("  Applying migrations... ")
	m, err := newMigrator(cfg.Database.PostgresDSN)
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("FAILED")
		return fmt.Errorf("migrate up: %w", err)
	}
	v, _, _ := m.Version()
	fmt.Printf("OK (v%d -> v%d)\n", s.Version, v)
	return nil
}
