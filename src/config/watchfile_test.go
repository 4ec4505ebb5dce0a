package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseWatchFile(t *testing.T) {
	input := `
watches:
  - configuration: Kotlin_CompileExamples
    interval: 1m
    backfill: 5
  - configuration: Kotlin_Tests
`
	wf, err := ParseWatchFile(strings.NewReader(input))
	if err != nil {
		t.Fatalf("ParseWatchFile() unexpected error: %v", err)
	}
	if len(wf.Watches) != 2 {
		t.Fatalf("len(Watches) = %d, want 2", len(wf.Watches))
	}

	first, second := wf.Watches[0], wf.Watches[1]
	if first.Configuration != "Kotlin_CompileExamples" || first.Backfill != 5 {
		t.Errorf("Watches[0] = %+v", first)
	}
	if got := first.PollInterval(DefaultWatchInterval); got != time.Minute {
		t.Errorf("Watches[0].PollInterval() = %v, want 1m", got)
	}
	if got := second.PollInterval(DefaultWatchInterval); got != DefaultWatchInterval {
		t.Errorf("Watches[1].PollInterval() = %v, want %v", got, DefaultWatchInterval)
	}
}

func TestParseWatchFile_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{name: "empty", input: "", wantErr: "empty"},
		{name: "no watches", input: "watches: []\n", wantErr: "no configurations"},
		{name: "missing configuration", input: "watches:\n  - backfill: 1\n", wantErr: "configuration is required"},
		{name: "duplicate", input: "watches:\n  - configuration: a\n  - configuration: a\n", wantErr: "listed twice"},
		{name: "bad interval", input: "watches:\n  - configuration: a\n    interval: soon\n", wantErr: "invalid interval"},
		{name: "negative interval", input: "watches:\n  - configuration: a\n    interval: -1s\n", wantErr: "must be positive"},
		{name: "negative backfill", input: "watches:\n  - configuration: a\n    backfill: -2\n", wantErr: "must not be negative"},
		{name: "unknown field", input: "watches:\n  - configuration: a\n    branch: main\n", wantErr: "invalid watch file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseWatchFile(strings.NewReader(tt.input))
			if err == nil {
				t.Fatal("ParseWatchFile() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ParseWatchFile() error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoadWatchFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watches.yaml")
	if err := os.WriteFile(path, []byte("watches:\n  - configuration: bt1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	wf, err := LoadWatchFile(path)
	if err != nil {
		t.Fatalf("LoadWatchFile() unexpected error: %v", err)
	}
	if wf.Watches[0].Configuration != "bt1" {
		t.Errorf("Configuration = %q, want bt1", wf.Watches[0].Configuration)
	}

	if _, err := LoadWatchFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("LoadWatchFile() expected error for a missing file")
	}
}
