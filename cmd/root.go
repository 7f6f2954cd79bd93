package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/clientworkaccess-cmd/integration--hub/internal/logging"
)

const defaultEnvFile = ".env"

var (
	debugMode bool
	logFormat string
	envFile   string
)

// rootCmd represents the base command for the integrationhub application
var rootCmd = &cobra.Command{
	Use:   "integrationhub",
	Short: "Connects third-party integrations through OAuth and relays the result",
	Long: `integrationhub lists the integrations available to a user, starts the
OAuth authorization for the ones that support it and relays the returned
authorization code, together with the user's email, to a webhook that
performs the token exchange.

It can run as:
  - An HTTP server with a JSON API, a state event stream and MCP tools
  - An MCP server over stdio for AI assistants
  - A one-shot CLI that connects an integration from the terminal`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadEnvFile(cmd, envFile); err != nil {
			return err
		}
		// stdio transport owns stdout; logs always go to stderr.
		logger, err := logging.NewLogger(os.Stderr, logFormat, debugMode)
		if err != nil {
			return err
		}
		slog.SetDefault(logger)
		return nil
	},
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "integrationhub version %s\n" .Version}}`)

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logging.FormatText, "Log format: text or json")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", defaultEnvFile, "File with environment variables to load before reading configuration")

	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newConnectCmd())
	rootCmd.AddCommand(newRelayCmd())
	rootCmd.AddCommand(newGenerateDocsCmd())
	rootCmd.AddCommand(newVersionCmd())
}
