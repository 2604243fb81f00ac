package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full tuning surface of the service. Every field has a sane
// default; a YAML file and then environment variables may override it.
type Config struct {
	ListenAddr            string `yaml:"listen_addr"`
	Workers               int    `yaml:"workers"`
	QueueCapacity         int    `yaml:"queue_capacity"`
	ScrapeTimeoutSeconds  int    `yaml:"scrape_timeout_seconds"`
	RetentionMinutes      int    `yaml:"retention_minutes"`
	ReaperIntervalMinutes int    `yaml:"reaper_interval_minutes"`
	SnapshotDir           string `yaml:"snapshot_dir"`
	BrowserPath           string `yaml:"browser_path"`
}

func Default() Config {
	return Config{
		ListenAddr:            ":8085",
		Workers:               3,
		QueueCapacity:         100,
		ScrapeTimeoutSeconds:  60,
		RetentionMinutes:      30,
		ReaperIntervalMinutes: 5,
		SnapshotDir:           "failed_jobs",
	}
}

// Load layers defaults, then the YAML file at path (a missing file is fine),
// then environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
		if err == nil {
			if uerr := yaml.Unmarshal(data, &cfg); uerr != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, uerr)
			}
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if port := os.Getenv("PORT"); port != "" {
		if !strings.HasPrefix(port, ":") {
			port = ":" + port
		}
		c.ListenAddr = port
	}
	c.Workers = envInt("WORKERS", c.Workers)
	c.QueueCapacity = envInt("QUEUE_SIZE", c.QueueCapacity)
	c.ScrapeTimeoutSeconds = envInt("SCRAPE_TIMEOUT_SECONDS", c.ScrapeTimeoutSeconds)
	c.RetentionMinutes = envInt("RETENTION_MINUTES", c.RetentionMinutes)
	c.ReaperIntervalMinutes = envInt("REAPER_INTERVAL_MINUTES", c.ReaperIntervalMinutes)
	if dir := os.Getenv("SNAPSHOT_DIR"); dir != "" {
		c.SnapshotDir = dir
	}
	if p := os.Getenv("PLAYWRIGHT_EXECUTABLE_PATH"); p != "" {
		c.BrowserPath = p
	}
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func (c Config) ScrapeTimeout() time.Duration {
	return time.Duration(c.ScrapeTimeoutSeconds) * time.Second
}

func (c Config) Retention() time.Duration {
	return time.Duration(c.RetentionMinutes) * time.Minute
}

func (c Config) ReaperInterval() time.Duration {
	return time.Duration(c.ReaperIntervalMinutes) * time.Minute
}
