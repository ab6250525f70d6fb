package cmd

import (
	"github.com/spf13/cobra"

	"github.com/desarrollo032/airtable-mcp/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize airtable-mcp configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that asks for the Airtable token, default base, language and storage, then writes the config file. The token is stored in .env, never in the config file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
