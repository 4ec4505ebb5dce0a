// Package watch polls a build configuration for new builds using since-build
// locators and announces each one on the broker.
package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"teamcity-rest/src/broker"
	"teamcity-rest/src/config"
	"teamcity-rest/src/contracts"
	"teamcity-rest/src/logger"
	"teamcity-rest/src/store"
	"teamcity-rest/src/teamcity"
)

// Options tune a Watcher. Zero values select the defaults.
type Options struct {
	// Interval between polls. Defaults to config.DefaultWatchInterval.
	Interval time.Duration
	// Backfill is how many existing builds to announce on the first poll
	// of a configuration without a stored cursor.
	Backfill int
	Logger   logger.Logger
}

// Watcher announces builds of one configuration that appear after its cursor.
// Delivery is at least once: the cursor only advances after a build was
// published and saved.
type Watcher struct {
	client        *teamcity.Client
	configuration teamcity.BuildConfigurationID
	events        *broker.EventAdapter
	store         store.Store
	logger        logger.Logger
	interval      time.Duration
	backfill      int
	now           func() time.Time

	// seeded is set once the first poll found the configuration empty, so that
	// later polls announce every build instead of seeding again.
	seeded bool
}

// New creates a watcher for configuration.
func New(client *teamcity.Client, configuration teamcity.BuildConfigurationID, brk broker.Broker, st store.Store, opts Options) *Watcher {
	if opts.Interval <= 0 {
		opts.Interval = config.DefaultWatchInterval
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewSilentLogger()
	}
	return &Watcher{
		client:        client,
		configuration: configuration,
		events:        broker.NewEventAdapter(brk),
		store:         st,
		logger:        opts.Logger,
		interval:      opts.Interval,
		backfill:      opts.Backfill,
		now:           time.Now,
	}
}

// Run polls until ctx is done. Poll errors are logged and do not stop the loop.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("[Watcher] Watching %s every %s", w.configuration, w.interval)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		if n, err := w.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Error("[Watcher] Poll of %s failed: %v", w.configuration, err)
		} else if n > 0 {
			w.logger.Info("[Watcher] %d new build(s) in %s", n, w.configuration)
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			w.logger.Info("[Watcher] Context cancelled, shutting down")
			return ctx.Err()
		}
	}
}

// Poll runs one iteration and returns the number of builds announced.
func (w *Watcher) Poll(ctx context.Context) (int, error) {
	cursor, ok, err := w.store.Cursor(ctx, string(w.configuration))
	if err != nil {
		return 0, fmt.Errorf("failed to load cursor: %w", err)
	}

	if !ok && !w.seeded {
		return w.seed(ctx, w.backfill)
	}

	locator := w.locator()
	if ok {
		locator.WithSinceBuild(w.client.Builds().WithAnyStatus().WithAnyFailedToStart().WithID(teamcity.BuildID(cursor)))
	}

	builds, err := locator.List(ctx)
	if errors.Is(err, teamcity.ErrNotFound) && ok {
		w.logger.Error("[Watcher] Cursor build %s of %s no longer exists, reseeding", cursor, w.configuration)
		return w.seed(ctx, 0)
	}
	if err != nil {
		return 0, err
	}

	return w.announce(ctx, builds)
}

// seed sets the cursor to the newest build, announcing up to backfill builds.
func (w *Watcher) seed(ctx context.Context, backfill int) (int, error) {
	limit := backfill
	if limit < 1 {
		limit = 1
	}

	builds, err := w.locator().LimitResults(limit).List(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to seed cursor: %w", err)
	}
	w.seeded = true

	if len(builds) == 0 {
		w.logger.Info("[Watcher] %s has no builds yet", w.configuration)
		return 0, nil
	}

	if backfill > 0 {
		return w.announce(ctx, builds)
	}

	newest := builds[0]
	if err := w.store.SetCursor(ctx, string(w.configuration), string(newest.ID)); err != nil {
		return 0, err
	}
	w.logger.Info("[Watcher] Seeded %s at build %s", w.configuration, newest.ID)
	return 0, nil
}

// announce publishes, saves and advances the cursor for builds given newest first.
func (w *Watcher) announce(ctx context.Context, builds []*teamcity.Build) (int, error) {
	announced := 0
	for i := len(builds) - 1; i >= 0; i-- {
		build := builds[i]
		event := w.event(build)

		if err := w.events.PublishBuild(ctx, event); err != nil {
			return announced, err
		}
		if err := w.store.SaveBuild(ctx, &event); err != nil {
			return announced, err
		}
		if err := w.store.SetCursor(ctx, string(w.configuration), event.BuildID); err != nil {
			return announced, err
		}

		w.logger.Debug("[Watcher] Announced %s", build)
		announced++
	}
	return announced, nil
}

func (w *Watcher) locator() *teamcity.BuildLocator {
	return w.client.Builds().
		FromConfiguration(w.configuration).
		WithAnyStatus().
		WithAnyFailedToStart()
}

func (w *Watcher) event(b *teamcity.Build) contracts.BuildEvent {
	return contracts.BuildEvent{
		BuildID:         string(b.ID),
		ConfigurationID: string(b.ConfigurationID),
		Number:          b.Number,
		Status:          string(b.Status),
		State:           b.State,
		BranchName:      b.BranchName,
		FailedToStart:   b.FailedToStart,
		WebURL:          b.WebURL,
		Server:          w.client.ServerURL(),
		ObservedAt:      w.now().UTC().Format(time.RFC3339),
	}
}
