// Package main provides tc, a command line client for the TeamCity REST API.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"teamcity-rest/src/config"
	"teamcity-rest/src/logger"
	"teamcity-rest/src/provider"
	"teamcity-rest/src/teamcity"
)

// Application configuration, loaded before any subcommand runs
var appConfig *config.Config

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "tc",
	Short: "tc - query builds on a TeamCity server",
	Long: `tc queries builds on a TeamCity server through its REST API.

The server and credentials come from the environment:
  TEAMCITY_URL                          server root (required)
  TEAMCITY_TOKEN                        access token
  TEAMCITY_USERNAME, TEAMCITY_PASSWORD  HTTP basic authentication
Without credentials the guest account is used.

Set TEAMCITY_DEBUG=true to trace requests.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		var err error
		appConfig, err = config.LoadFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
			fmt.Fprintln(os.Stderr, "Please set the TEAMCITY_URL environment variable")
			os.Exit(1)
		}
	},
}

// newClient creates a client for the configured server. Request tracing goes
// to w so that commands owning stdout can move it elsewhere.
func newClient(w io.Writer) *teamcity.Client {
	log := logger.NewWriterLogger(w, os.Stderr, appConfig.Debug)
	return teamcity.NewClient(appConfig, teamcity.WithLogger(log))
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// exitOnError prints err in its user-facing form and exits.
func exitOnError(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", provider.WrapError(err))
	os.Exit(1)
}

func init() {
	rootCmd.AddCommand(buildsCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(mcpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
