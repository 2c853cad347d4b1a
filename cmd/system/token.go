package system

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Alijeyrad/playcare_backend/config"
	"github.com/Alijeyrad/playcare_backend/pkg/authorize"
	"github.com/Alijeyrad/playcare_backend/pkg/database"
	pasetotoken "github.com/Alijeyrad/playcare_backend/pkg/paseto"
)

// NewTokenCommand issues an access token for an identity managed elsewhere.
// Playcare does not own user accounts; this is the operator's way in.
func NewTokenCommand() *cobra.Command {
	var (
		id    pasetotoken.Identity
		admin bool
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue an access token for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := cmd.Root().PersistentFlags().GetString("config")
			if err != nil {
				return fmt.Errorf("failed to get config flag: %w", err)
			}
			cfg, err := config.ReadConfig(filepath.Dir(cfgPath))
			if err != nil {
				return fmt.Errorf("failed to read config: %w", err)
			}

			id.Role = strings.ToLower(strings.TrimSpace(id.Role))
			if _, ok := authorize.RoleFor(id.Role); !ok {
				return fmt.Errorf("unknown role %q", id.Role)
			}

			if admin {
				if cfg.CasbinDatabase.Host == "" {
					return fmt.Errorf("--admin needs a Casbin DB; in-memory policies do not outlive this command")
				}
				enforcer, cleanup, err := authorize.NewEnforcer(authorize.FromCentralConfig(cfg.Authorization), database.NewDSN(cfg.CasbinDatabase))
				if err != nil {
					return fmt.Errorf("failed to create enforcer: %w", err)
				}
				defer cleanup(context.Background())

				auth, err := authorize.NewAuthorization(enforcer)
				if err != nil {
					return fmt.Errorf("failed to create authorization: %w", err)
				}
				if err := authorize.AssignAdmin(context.Background(), auth, id.UserID); err != nil {
					return fmt.Errorf("failed to grant admin: %w", err)
				}
				fmt.Printf("Granted admin to %s\n", id.UserID)
			}

			mgr, err := pasetotoken.NewPasetoManager(cfg)
			if err != nil {
				return fmt.Errorf("failed to create token manager: %w", err)
			}
			token, err := mgr.Issue(id)
			if err != nil {
				return fmt.Errorf("failed to issue token: %w", err)
			}
			fmt.Println(token)
			return nil
		},
	}

	cmd.Flags().StringVar(&id.UserID, "user", "", "user id (token subject)")
	cmd.Flags().StringVar(&id.Role, "role", "therapist", "admin, therapist, instructor or patient")
	cmd.Flags().StringVar(&id.Name, "name", "", "display name")
	cmd.Flags().StringVar(&id.Email, "email", "", "contact address for export notifications")
	cmd.Flags().BoolVar(&admin, "admin", false, "also grant the admin role in the policy store")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
