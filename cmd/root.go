package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	httpcmd "github.com/Alijeyrad/playcare_backend/cmd/http"
	systemcmd "github.com/Alijeyrad/playcare_backend/cmd/system"
)

var (
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:   "playcare",
	Short: "Playcare backend for therapeutic game sessions and progress reports.",
	Long: `Playcare runs therapeutic mini-game sessions for patients.
Therapists tune per-patient game settings, review sessions and compose
progress reports that are exported as paginated PDF documents.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global config flag, available for all commands.
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "config.yaml", "config file path")

	// Attach top-level command trees.
	rootCmd.AddCommand(systemcmd.NewSystemCommand())
	rootCmd.AddCommand(httpcmd.NewHTTPCommand())
}
