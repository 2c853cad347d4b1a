package system

import (
	"fmt"

	"github.com/spf13/cobra"

	pasetotoken "github.com/Alijeyrad/playcare_backend/pkg/paseto"
)

func NewKeygenCommand() *cobra.Command {
	var mode string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate PASETO keys for authentication.paseto",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := pasetotoken.GenerateKeys(pasetotoken.Mode(mode))
			if err != nil {
				return err
			}
			ks := keys.Strings()

			fmt.Println("authentication:")
			fmt.Println("  paseto:")
			fmt.Printf("    mode: %s\n", ks.Mode)
			if ks.SymmetricHex != "" {
				fmt.Printf("    local_key_hex: %s\n", ks.SymmetricHex)
			}
			if ks.SecretHex != "" {
				fmt.Printf("    secret_key_hex: %s\n", ks.SecretHex)
				fmt.Printf("    public_key_hex: %s\n", ks.PublicHex)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", string(pasetotoken.ModeLocal), "local or public")

	return cmd
}
