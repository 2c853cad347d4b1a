package system

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/playcare_backend/config"
	"github.com/Alijeyrad/playcare_backend/pkg/authorize"
	"github.com/Alijeyrad/playcare_backend/pkg/database"
)

func NewMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Run database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}
			if strings.EqualFold(cfg.Database.Driver, database.DriverMemory) {
				fmt.Println("Memory driver configured, nothing to migrate.")
				return nil
			}

			// client db
			fmt.Println("Running Migrations For Client DB.")
			dbCfg := database.FromCentralConfig(cfg.Database)
			drv, err := database.NewEntDriverFromConfig(dbCfg)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer drv.Close()

			timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			if err := database.MigrateEnt(ctx, drv, dbCfg); err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}

			// casbin db
			if cfg.CasbinDatabase.Host == "" {
				fmt.Println("No Casbin DB configured, policies are seeded in memory on start.")
				fmt.Println("Migrations executed successfully.")
				return nil
			}
			fmt.Println("Running Migrations For Casbin DB.")

			casbinDBDSN := database.NewDSN(cfg.CasbinDatabase)
			enforcer, cleanup, err := authorize.NewEnforcer(authorize.FromCentralConfig(cfg.Authorization), casbinDBDSN)
			if err != nil {
				return fmt.Errorf("failed to create enforcer: %w", err)
			}
			defer cleanup(context.Background())

			auth, err := authorize.NewAuthorization(enforcer)
			if err != nil {
				return fmt.Errorf("failed to create authorization: %w", err)
			}

			// Seed Casbin policies
			slog.Info("Seeding Casbin policies...")
			if err := authorize.SeedDefaultPolicies(context.Background(), auth); err != nil {
				return fmt.Errorf("failed to seed policies: %w", err)
			}

			fmt.Println("Migrations executed successfully.")
			return nil
		},
	}

	return cmd
}
