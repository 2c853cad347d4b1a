package system

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/playcare_backend/config"
	"github.com/Alijeyrad/playcare_backend/pkg/database"
)

func NewInitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the application and Casbin databases",
		Long: `Create the databases listed in server.databases on the configured postgres
server. For sqlite only the directory of database.path is created; the memory
driver needs nothing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			driver := strings.ToLower(cfg.Database.Driver)
			if driver == "" {
				driver = database.DriverPostgres
			}
			fmt.Printf("Initializing databases (%s)...\n", driver)
			if err := database.InitializeDatabases(cfg); err != nil {
				return fmt.Errorf("failed to initialize databases: %w", err)
			}
			fmt.Println("Databases initialized successfully.")
			return nil
		},
	}

	return cmd
}
