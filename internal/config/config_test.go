package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	for _, key := range []string{"PORT", "WORKERS", "QUEUE_SIZE", "SCRAPE_TIMEOUT_SECONDS", "SNAPSHOT_DIR", "PLAYWRIGHT_EXECUTABLE_PATH"} {
		t.Setenv(key, "")
	}

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := Default()
	if cfg != want {
		t.Fatalf("Load = %+v, want defaults %+v", cfg, want)
	}
	if cfg.ScrapeTimeout() != 60*time.Second {
		t.Fatalf("ScrapeTimeout = %s", cfg.ScrapeTimeout())
	}
	if cfg.Retention() != 30*time.Minute {
		t.Fatalf("Retention = %s", cfg.Retention())
	}
}

func TestLoadFileOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("workers: 8\nqueue_capacity: 10\nlisten_addr: \":9000\"\nscrape_timeout_seconds: 5\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 8 || cfg.QueueCapacity != 10 || cfg.ListenAddr != ":9000" {
		t.Fatalf("file overrides not applied: %+v", cfg)
	}
	if cfg.ScrapeTimeout() != 5*time.Second {
		t.Fatalf("ScrapeTimeout = %s", cfg.ScrapeTimeout())
	}
	// Untouched fields keep their defaults.
	if cfg.RetentionMinutes != Default().RetentionMinutes {
		t.Fatalf("retention changed unexpectedly: %d", cfg.RetentionMinutes)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("workers: 8\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("WORKERS", "2")
	t.Setenv("PORT", "9100")
	t.Setenv("QUEUE_SIZE", "not-a-number")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Workers != 2 {
		t.Fatalf("Workers = %d, want env override 2", cfg.Workers)
	}
	if cfg.ListenAddr != ":9100" {
		t.Fatalf("ListenAddr = %q, want \":9100\"", cfg.ListenAddr)
	}
	// Garbage env values fall back instead of breaking startup.
	if cfg.QueueCapacity != Default().QueueCapacity {
		t.Fatalf("QueueCapacity = %d", cfg.QueueCapacity)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("workers: [not an int\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}
