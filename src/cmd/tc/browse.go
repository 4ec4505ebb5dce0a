package main

import (
	"errors"

	"github.com/spf13/cobra"

	"teamcity-rest/src/logger"
	"teamcity-rest/src/teamcity"
	"teamcity-rest/src/tui"
)

var browseFlags queryFlags

// browseCmd opens the interactive build browser
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse builds of a configuration interactively",
	Long: `Opens a terminal browser over the builds matching the filters. Select a
build to see its status text, dates and revisions.

Example:
  tc browse --config Kotlin_CompileExamples --any-status --limit 50`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if browseFlags.configuration == "" {
			exitOnError(errors.New("--config is required"))
		}

		ctx, cancel := signalContext()
		defer cancel()

		// the TUI owns the terminal, so the client stays quiet
		client := teamcity.NewClient(appConfig, teamcity.WithLogger(logger.NewSilentLogger()))
		locator, err := newLocator(client, browseFlags)
		exitOnError(err)

		exitOnError(tui.Start(ctx, browseFlags.configuration, locator))
	},
}

func init() {
	addQueryFlags(browseCmd, &browseFlags, true)
}
