package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"teamcity-rest/src/provider"
	"teamcity-rest/src/teamcity"
)

// queryFlags are the locator filters shared by the build queries.
type queryFlags struct {
	configuration string
	anyStatus     bool
	failedToStart string
	sinceBuild    string
	branch        string
	limit         int
	json          bool
}

var (
	listFlags   queryFlags
	latestFlags queryFlags
)

// newLocator builds the locator described by f.
func newLocator(c *teamcity.Client, f queryFlags) (*teamcity.BuildLocator, error) {
	failedToStart, err := teamcity.ParseBoolFilter(f.failedToStart)
	if err != nil {
		return nil, fmt.Errorf("--failed-to-start: %w", err)
	}

	locator := c.Builds().WithFailedToStartFilter(failedToStart)
	if f.configuration != "" {
		locator.FromConfiguration(teamcity.BuildConfigurationID(f.configuration))
	}
	if f.anyStatus {
		locator.WithAnyStatus()
	}
	if f.sinceBuild != "" {
		ref, err := provider.ParseBuildArg(f.sinceBuild)
		if err != nil {
			return nil, fmt.Errorf("--since-build: %w", err)
		}
		if err := ref.CheckServer(c.ServerURL()); err != nil {
			return nil, fmt.Errorf("--since-build: %w", err)
		}
		locator.WithSinceBuild(c.Builds().WithAnyStatus().WithAnyFailedToStart().WithID(ref.BuildID))
	}
	switch f.branch {
	case "":
	case "all":
		locator.WithAllBranches()
	default:
		locator.WithBranch(f.branch)
	}
	if f.limit > 0 {
		locator.LimitResults(f.limit)
	}
	return locator, nil
}

// buildsCmd groups the locator queries
var buildsCmd = &cobra.Command{
	Use:   "builds",
	Short: "Query builds with a build locator",
}

// buildsListCmd lists builds matching the filters, newest first
var buildsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List builds, newest first",
	Long: `Lists builds matching the given filters, newest first.

Only successful builds on the default branch are listed unless
--any-status or --branch say otherwise.

Example:
  tc builds list --config Kotlin_CompileExamples --limit 5
  tc builds list --config Kotlin_CompileExamples --any-status --since-build 4242
  tc builds list --config Kotlin_CompileExamples --branch all --json`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()
		exitOnError(runList(ctx, os.Stdout, newClient(os.Stderr), listFlags))
	},
}

func runList(ctx context.Context, w io.Writer, c *teamcity.Client, f queryFlags) error {
	locator, err := newLocator(c, f)
	if err != nil {
		return err
	}
	builds, err := locator.List(ctx)
	if err != nil {
		return err
	}
	if f.json {
		return writeJSON(w, summaries(builds))
	}
	writeBuildTable(w, builds)
	return nil
}

// buildsLatestCmd shows the newest build matching the filters
var buildsLatestCmd = &cobra.Command{
	Use:   "latest",
	Short: "Show the newest build matching the filters",
	Long: `Shows the newest build matching the given filters and its details.

Example:
  tc builds latest --config Kotlin_CompileExamples
  tc builds latest --config Kotlin_CompileExamples --any-status --json`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()
		exitOnError(runLatest(ctx, os.Stdout, newClient(os.Stderr), latestFlags))
	},
}

func runLatest(ctx context.Context, w io.Writer, c *teamcity.Client, f queryFlags) error {
	locator, err := newLocator(c, f)
	if err != nil {
		return err
	}
	build, err := locator.Latest(ctx)
	if err != nil {
		return err
	}
	return showBuild(ctx, w, build, true, f.json)
}

var (
	showRevisions bool
	showJSON      bool
)

// buildCmd groups single build commands
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Inspect a single build",
}

// buildShowCmd shows one build by id or web URL
var buildShowCmd = &cobra.Command{
	Use:   "show [build-id | build-url]",
	Short: "Show a build and its details",
	Long: `Shows a build with its status text and dates. The build is given by its
id or by the URL of its page on the server.

Example:
  tc build show 4242
  tc build show "https://teamcity.example.com/viewLog.html?buildId=4242" --revisions`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signalContext()
		defer cancel()
		exitOnError(runShow(ctx, os.Stdout, newClient(os.Stderr), args[0]))
	},
}

func runShow(ctx context.Context, w io.Writer, c *teamcity.Client, arg string) error {
	ref, err := provider.ParseBuildArg(arg)
	if err != nil {
		return err
	}
	if err := ref.CheckServer(c.ServerURL()); err != nil {
		return err
	}
	build, err := c.Build(ctx, ref.BuildID)
	if err != nil {
		return err
	}
	return showBuild(ctx, w, build, showRevisions, showJSON)
}

func showBuild(ctx context.Context, w io.Writer, build *teamcity.Build, revisions, asJSON bool) error {
	details, err := build.FetchDetails(ctx)
	if err != nil {
		return err
	}
	if !revisions {
		details.Revisions = nil
	}
	if asJSON {
		return writeJSON(w, newBuildJSON(build, details))
	}
	writeBuildDetails(w, build, details)
	return nil
}

func addQueryFlags(cmd *cobra.Command, f *queryFlags, withLimit bool) {
	cmd.Flags().StringVar(&f.configuration, "config", "", "build configuration id")
	cmd.Flags().BoolVar(&f.anyStatus, "any-status", false, "include failed and errored builds")
	cmd.Flags().StringVar(&f.failedToStart, "failed-to-start", "", "failed-to-start filter: true, false or any")
	cmd.Flags().StringVar(&f.sinceBuild, "since-build", "", "only builds after this build id or URL")
	cmd.Flags().StringVar(&f.branch, "branch", "", "branch name, or \"all\" for every branch")
	cmd.Flags().BoolVar(&f.json, "json", false, "print JSON")
	if withLimit {
		cmd.Flags().IntVar(&f.limit, "limit", 20, "maximum number of builds, 0 for no limit")
	}
}

func init() {
	addQueryFlags(buildsListCmd, &listFlags, true)
	addQueryFlags(buildsLatestCmd, &latestFlags, false)
	buildsCmd.AddCommand(buildsListCmd)
	buildsCmd.AddCommand(buildsLatestCmd)

	buildShowCmd.Flags().BoolVar(&showRevisions, "revisions", false, "include VCS revisions")
	buildShowCmd.Flags().BoolVar(&showJSON, "json", false, "print JSON")
	buildCmd.AddCommand(buildShowCmd)
}
