package cleanup

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/codebuildervaibhav/presentation-analysis/internal/logging"
)

// Scheduler sweeps orphaned per-job session directories. The pipeline
// removes its own directories when a job finishes; this catches the
// ones left behind by crashes and restarts.
type Scheduler struct {
	sessionDirs     []string
	intervalMinutes int
	maxAgeHours     int
	stopChan        chan struct{}
	logger          zerolog.Logger
}

// NewScheduler creates a cleanup scheduler over the given session roots.
func NewScheduler(sessionDirs []string, intervalMinutes, maxAgeHours int) *Scheduler {
	return &Scheduler{
		sessionDirs:     sessionDirs,
		intervalMinutes: intervalMinutes,
		maxAgeHours:     maxAgeHours,
		stopChan:        make(chan struct{}),
		logger:          logging.WithComponent("cleanup"),
	}
}

// Start begins the cleanup scheduler.
func (s *Scheduler) Start() {
	s.sweep()

	ticker := time.NewTicker(time.Duration(s.intervalMinutes) * time.Minute)
	go func() {
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()

	s.logger.Info().Int("interval_min", s.intervalMinutes).Int("max_age_h", s.maxAgeHours).
		Msg("cleanup scheduler started")
}

// Stop stops the cleanup scheduler.
func (s *Scheduler) Stop() {
	close(s.stopChan)
}

// sweep removes session directories older than the max age.
func (s *Scheduler) sweep() {
	cutoff := time.Now().Add(-time.Duration(s.maxAgeHours) * time.Hour)
	removed := 0

	for _, root := range s.sessionDirs {
		entries, err := os.ReadDir(root)
		if err != nil {
			continue
		}

		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			info, err := entry.Info()
			if err != nil {
				continue
			}
			if info.ModTime().Before(cutoff) {
				path := filepath.Join(root, entry.Name())
				if err := os.RemoveAll(path); err != nil {
					s.logger.Warn().Err(err).Str("dir", path).Msg("failed to remove orphaned session dir")
				} else {
					removed++
				}
			}
		}
	}

	if removed > 0 {
		s.logger.Info().Int("removed", removed).Msg("swept orphaned session directories")
	}
}

// EnsureDirsExist creates the session roots if they do not exist.
func EnsureDirsExist(dirs ...string) error {
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
