package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/cnfairydream/duckdb-extra-asyncio/internal/tracing"
)

const version = "0.1.0"

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aduck",
	Short: "aduck - asynchronous database session bridge",
	Long: `aduck runs statements against a database through an asynchronous
session: every operation is queued to a single worker, so the underlying
connection is never touched concurrently while callers stay non-blocking.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return tracing.InitOpenTelemetry("aduck")
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	defer func() {
		_ = tracing.ShutdownOpenTelemetry(context.Background())
	}()
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.aduck/aduck.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	// Version template
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing
func GetRootCmd() *cobra.Command {
	return rootCmd
}

// GetVersion returns the current version
func GetVersion() string {
	return version
}
