package main

import (
	"os"

	"github.com/spf13/cobra"

	"teamcity-rest/src/logger"
	"teamcity-rest/src/mcp"
	"teamcity-rest/src/teamcity"
)

// mcpCmd serves build queries to MCP clients over stdio
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run an MCP server on stdin/stdout",
	Long: `Runs a Model Context Protocol server on stdin/stdout offering the
list_builds, get_build and latest_build tools.

Logs go to stderr; stdout carries the protocol.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		log := logger.NewWriterLogger(os.Stderr, os.Stderr, appConfig.Debug)
		client := teamcity.NewClient(appConfig, teamcity.WithLogger(log))

		exitOnError(mcp.NewServer(client, log).Run())
	},
}
