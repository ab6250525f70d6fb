package cmd

import (
	"github.com/spf13/cobra"

	"github.com/desarrollo032/airtable-mcp/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "airtable-mcp",
	Short: "Natural-language Airtable gateway for AI agents",
	Long: `airtable-mcp exposes the Airtable API as MCP tools and an HTTP API.
Requests can be written in Spanish or English ("listar registros de Tasks",
"show me all my bases"); follow-up queries may refer to earlier ones
("esa tabla", "ese registro").`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultConfigFile, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
}
