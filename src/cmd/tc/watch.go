package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"teamcity-rest/src/broker"
	"teamcity-rest/src/config"
	"teamcity-rest/src/contracts"
	"teamcity-rest/src/logger"
	"teamcity-rest/src/store"
	"teamcity-rest/src/teamcity"
	"teamcity-rest/src/watch"
)

var (
	watchConfiguration string
	watchFile          string
	watchInterval      time.Duration
	watchBackfill      int
	watchJSON          bool

	historyConfiguration string
	historyLimit         int
	historyJSON          bool
)

// watchCmd polls a configuration and prints every new build
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print new builds of a configuration as they finish",
	Long: `Polls a build configuration and announces every build that appears
after the last one seen.

Builds are published to the teamcity.builds.new topic and recorded in the
build store. With REDPANDA_BROKERS set they go to Redpanda, otherwise to an
in-process broker. With POSTGRES_DSN set the store and the watch cursor are
kept in Postgres and survive restarts.

Several configurations can be watched at once by listing them in a YAML
file passed with --file.

Example:
  tc watch --config Kotlin_CompileExamples
  tc watch --config Kotlin_CompileExamples --interval 1m --backfill 5
  tc watch --file watches.yaml`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		specs, err := watchSpecs()
		exitOnError(err)

		ctx, cancel := signalContext()
		defer cancel()

		log := logger.NewConsoleLogger(appConfig.Debug)
		exitOnError(runWatch(ctx, os.Stdout, log, specs))
	},
}

// watchSpecs returns the watches requested on the command line.
func watchSpecs() ([]config.WatchSpec, error) {
	switch {
	case watchFile != "" && watchConfiguration != "":
		return nil, errors.New("--config and --file are mutually exclusive")
	case watchFile != "":
		wf, err := config.LoadWatchFile(watchFile)
		if err != nil {
			return nil, err
		}
		return wf.Watches, nil
	case watchConfiguration != "":
		return []config.WatchSpec{{Configuration: watchConfiguration, Backfill: watchBackfill}}, nil
	default:
		return nil, errors.New("--config or --file is required")
	}
}

func runWatch(ctx context.Context, w io.Writer, log logger.Logger, specs []config.WatchSpec) error {
	brk, err := newBroker(appConfig, log)
	if err != nil {
		return err
	}
	defer brk.Close()

	st, err := newStore(ctx, appConfig)
	if err != nil {
		return err
	}
	defer st.Close()

	interval := watchInterval
	if interval <= 0 {
		interval = appConfig.WatchInterval
	}

	// a group of its own, so every tc watch process prints every event
	events, err := broker.NewEventAdapter(brk).SubscribeBuilds(ctx, "tc-watch-"+uuid.NewString())
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", contracts.TopicBuildsNew, err)
	}
	go printEvents(w, events, watchJSON)

	client := teamcity.NewClient(appConfig, teamcity.WithLogger(log))
	return runWatchers(ctx, client, brk, st, log, specs, interval)
}

// runWatchers runs one watcher per configuration until ctx ends or one of them fails.
func runWatchers(ctx context.Context, client *teamcity.Client, brk broker.Broker, st store.Store, log logger.Logger, specs []config.WatchSpec, interval time.Duration) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, spec := range specs {
		watcher := watch.New(client, teamcity.BuildConfigurationID(spec.Configuration), brk, st, watch.Options{
			Interval: spec.PollInterval(interval),
			Backfill: spec.Backfill,
			Logger:   log,
		})
		g.Go(func() error {
			if err := watcher.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	return g.Wait()
}

// printEvents writes events until the channel closes.
func printEvents(w io.Writer, events <-chan contracts.BuildEvent, asJSON bool) {
	for event := range events {
		if asJSON {
			writeJSON(w, event)
			continue
		}
		printEvent(w, event)
	}
}

func printEvent(w io.Writer, event contracts.BuildEvent) {
	line := fmt.Sprintf("%s  #%s  %-7s  %s", event.BuildID, event.Number, event.Status, event.ConfigurationID)
	if event.BranchName != "" {
		line += "  " + event.BranchName
	}
	if event.FailedToStart {
		line += "  (failed to start)"
	}
	fmt.Fprintln(w, line)
}

// newBroker picks Redpanda when brokers are configured.
func newBroker(cfg *config.Config, log logger.Logger) (broker.Broker, error) {
	if len(cfg.RedpandaBrokers) > 0 {
		return broker.NewRedpandaBroker(cfg.RedpandaBrokers, log)
	}
	return broker.NewInMemoryBroker(), nil
}

// newStore picks Postgres when a DSN is configured.
func newStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.PostgresDSN != "" {
		return store.NewPostgresStore(ctx, cfg.PostgresDSN)
	}
	return store.NewMemoryStore(), nil
}

// historyCmd lists builds recorded by earlier watch runs
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List builds recorded by tc watch",
	Long: `Lists builds of a configuration that tc watch has recorded, newest first.
Requires POSTGRES_DSN, since the in-process store does not outlive the watcher.

Example:
  tc history --config Kotlin_CompileExamples --limit 10`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if appConfig.PostgresDSN == "" {
			exitOnError(errors.New("tc history requires POSTGRES_DSN"))
		}
		if historyConfiguration == "" {
			exitOnError(errors.New("--config is required"))
		}

		ctx, cancel := signalContext()
		defer cancel()

		st, err := newStore(ctx, appConfig)
		exitOnError(err)
		defer st.Close()

		exitOnError(runHistory(ctx, os.Stdout, st, historyConfiguration, historyLimit, historyJSON))
	},
}

func runHistory(ctx context.Context, w io.Writer, st store.Store, configuration string, limit int, asJSON bool) error {
	builds, err := st.ListBuilds(ctx, configuration, limit)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(w, builds)
	}
	if len(builds) == 0 {
		fmt.Fprintln(w, "No builds recorded.")
		return nil
	}
	for _, b := range builds {
		printEvent(w, b)
	}
	return nil
}

func init() {
	watchCmd.Flags().StringVar(&watchConfiguration, "config", "", "build configuration id")
	watchCmd.Flags().StringVar(&watchFile, "file", "", "YAML file listing the configurations to watch")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", 0, "polling interval (default TC_WATCH_INTERVAL or 30s)")
	watchCmd.Flags().IntVar(&watchBackfill, "backfill", 0, "announce this many existing builds on the first poll")
	watchCmd.Flags().BoolVar(&watchJSON, "json", false, "print events as JSON")

	historyCmd.Flags().StringVar(&historyConfiguration, "config", "", "build configuration id (required)")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum number of builds")
	historyCmd.Flags().BoolVar(&historyJSON, "json", false, "print JSON")
	rootCmd.AddCommand(historyCmd)
}
