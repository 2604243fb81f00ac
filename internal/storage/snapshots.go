package storage

import (
	"os"
	"path/filepath"
)

// Snapshots persists the page HTML of failed scrape jobs, one file per job,
// so a failed run can be diagnosed after its record is gone.
type Snapshots struct {
	BaseDir string
}

func NewSnapshots(baseDir string) *Snapshots {
	return &Snapshots{BaseDir: baseDir}
}

// Save writes the snapshot for a job. An empty snapshot is skipped.
func (s *Snapshots) Save(jobID, html string) error {
	if html == "" {
		return nil
	}
	if err := os.MkdirAll(s.BaseDir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(s.path(jobID), []byte(html), 0o644)
}

// Load returns the stored snapshot for a job, if any.
func (s *Snapshots) Load(jobID string) (string, error) {
	data, err := os.ReadFile(s.path(jobID))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *Snapshots) path(jobID string) string {
	return filepath.Join(s.BaseDir, sanitize(jobID)+".html")
}

// sanitize keeps job ids safe to use as filenames.
func sanitize(name string) string {
	clean := ""
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') ||
			(r >= '0' && r <= '9') || r == '-' || r == '_' {
			clean += string(r)
		}
	}
	if clean == "" {
		return "job"
	}
	return clean
}
