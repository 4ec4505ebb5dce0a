package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// WatchFile lists the build configurations a single tc watch process follows.
//
//	watches:
//	  - configuration: Kotlin_CompileExamples
//	    interval: 1m
//	    backfill: 5
//	  - configuration: Kotlin_Tests
type WatchFile struct {
	Watches []WatchSpec `yaml:"watches"`
}

// WatchSpec configures the watcher of one build configuration.
type WatchSpec struct {
	Configuration string `yaml:"configuration"`
	// Interval is a Go duration. Empty means the process default.
	Interval string `yaml:"interval"`
	Backfill int    `yaml:"backfill"`

	interval time.Duration
}

// PollInterval returns the parsed interval, or fallback when none was set.
func (w WatchSpec) PollInterval(fallback time.Duration) time.Duration {
	if w.interval > 0 {
		return w.interval
	}
	return fallback
}

// LoadWatchFile reads and validates a watch file.
func LoadWatchFile(path string) (*WatchFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open watch file: %w", err)
	}
	defer f.Close()

	wf, err := ParseWatchFile(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return wf, nil
}

// ParseWatchFile decodes and validates a watch file from r.
func ParseWatchFile(r io.Reader) (*WatchFile, error) {
	var wf WatchFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&wf); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("watch file is empty")
		}
		return nil, fmt.Errorf("invalid watch file: %w", err)
	}

	if len(wf.Watches) == 0 {
		return nil, fmt.Errorf("watch file lists no configurations")
	}

	seen := make(map[string]bool)
	for i := range wf.Watches {
		w := &wf.Watches[i]
		if w.Configuration == "" {
			return nil, fmt.Errorf("watch %d: configuration is required", i+1)
		}
		if seen[w.Configuration] {
			return nil, fmt.Errorf("watch %d: %s is listed twice", i+1, w.Configuration)
		}
		seen[w.Configuration] = true

		if w.Backfill < 0 {
			return nil, fmt.Errorf("watch %d: backfill must not be negative", i+1)
		}
		if w.Interval != "" {
			d, err := time.ParseDuration(w.Interval)
			if err != nil {
				return nil, fmt.Errorf("watch %d: invalid interval %q: %w", i+1, w.Interval, err)
			}
			if d <= 0 {
				return nil, fmt.Errorf("watch %d: interval must be positive, got %s", i+1, d)
			}
			w.interval = d
		}
	}

	return &wf, nil
}
