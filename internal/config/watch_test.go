package config

import (
	"os"
	"testing"
	"time"

	"github.com/elchinoo/colt/internal/logging"
	"github.com/elchinoo/colt/pkg/types"
)

func TestWatchForChangesFiresOnRewrite(t *testing.T) {
	path := writeTempConfig(t, validConfigYAML)

	reloaded := make(chan *types.Config, 1)
	stop, err := WatchForChanges(path, logging.NewDefault(), func(cfg *types.Config) {
		reloaded <- cfg
	})
	if err != nil {
		t.Fatalf("WatchForChanges() error = %v", err)
	}
	defer stop()

	if err := os.WriteFile(path, []byte(validConfigYAML+"\n# touched\n"), 0o600); err != nil {
		t.Fatalf("failed to rewrite config: %v", err)
	}

	select {
	case cfg := <-reloaded:
		if cfg.Database.Type != "cassandra" {
			t.Errorf("reloaded Database.Type = %q, want cassandra", cfg.Database.Type)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("onReload was not invoked after rewriting the watched file")
	}
}

func TestWatchForChangesReportsMissingFile(t *testing.T) {
	if _, err := WatchForChanges("/nonexistent/path/config.yaml", logging.NewDefault(), func(*types.Config) {}); err == nil {
		t.Error("expected an error watching a nonexistent file")
	}
}
