package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the servicenow-mcp
// application. It is the entry point when the application is called
// without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "servicenow-mcp",
	Short: "MCP server exposing ServiceNow ITSM operations as tools",
	Long: `servicenow-mcp bridges AI assistants to a ServiceNow instance over the
Model Context Protocol. It exposes incident, change request, and
incident task operations as MCP tools, authenticates callers with
bearer tokens, and talks to the ServiceNow REST API using OAuth2
client credentials.`,
	// SilenceUsage prevents Cobra from printing the usage message on
	// errors that are handled by the application.
	SilenceUsage: true,
}

// SetVersion sets the version for the root command. Called from the
// main package to inject the build-time version.
func SetVersion(v string) {
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "servicenow-mcp version %s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newVersionCmd())
}
