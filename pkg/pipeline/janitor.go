package pipeline

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Janitor periodically removes stale staging directories from the staging
// root. Per-invocation cleanup is deferred and therefore reliable within a
// process lifetime; the janitor covers directories orphaned by a crashed
// or killed process.
type Janitor struct {
	root   string
	ttl    time.Duration
	logger *slog.Logger
	cron   *cron.Cron
}

func NewJanitor(root string, ttl time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{
		root:   root,
		ttl:    ttl,
		logger: logger.With("component", "janitor"),
		cron:   cron.New(),
	}
}

// Start schedules the hourly sweep. The first sweep runs immediately to
// clear leftovers from a previous process.
func (j *Janitor) Start() error {
	if _, err := j.cron.AddFunc("@hourly", j.Sweep); err != nil {
		return err
	}
	j.cron.Start()
	go j.Sweep()
	return nil
}

// Stop halts the schedule; a sweep already in flight finishes.
func (j *Janitor) Stop() {
	j.cron.Stop()
}

// Sweep removes staging directories older than the TTL. Entries that do
// not carry the staging prefix are never touched.
func (j *Janitor) Sweep() {
	entries, err := os.ReadDir(j.root)
	if err != nil {
		j.logger.Warn("failed to read staging root", "root", j.root, "error", err)
		return
	}

	cutoff := time.Now().Add(-j.ttl)
	removed := 0
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), stagingPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			j.logger.Warn("failed to remove stale staging directory", "dir", path, "error", err)
			continue
		}
		removed++
	}

	if removed > 0 {
		j.logger.Info("removed stale staging directories", "root", j.root, "count", removed)
	}
}
