package service

import (
	"os"
	"path/filepath"
	"time"

	"pdf-annotator-be/internal/pkg/logger"

	"github.com/robfig/cron/v3"
)

// uploadPattern matches the files Upload creates.
const uploadPattern = "upload-*.pdf"

type ICleanupService interface {
	Start() error
	Stop()
	Sweep() int
}

// cleanupService removes uploads whose session has expired. Active sessions
// touch their file on every change, so age since last modification is a safe
// proxy for expiry.
type cleanupService struct {
	dir       string
	maxAge    time.Duration
	schedule  string
	logger    logger.ILogger
	cronSched *cron.Cron
	now       func() time.Time
}

func NewCleanupService(dir string, maxAge time.Duration, schedule string, log logger.ILogger) ICleanupService {
	return &cleanupService{
		dir:      dir,
		maxAge:   maxAge,
		schedule: schedule,
		logger:   log,
		now:      time.Now,
	}
}

func (s *cleanupService) Start() error {
	c := cron.New()
	if _, err := c.AddFunc(s.schedule, func() { s.Sweep() }); err != nil {
		return err
	}
	c.Start()
	s.cronSched = c
	s.logger.Info("CleanupService", "Scheduled upload sweep", map[string]interface{}{
		"schedule": s.schedule,
		"dir":      s.dir,
	})
	return nil
}

func (s *cleanupService) Stop() {
	if s.cronSched != nil {
		s.cronSched.Stop()
		s.cronSched = nil
	}
}

// Sweep deletes stale uploads and returns how many were removed.
func (s *cleanupService) Sweep() int {
	matches, err := filepath.Glob(filepath.Join(s.dir, uploadPattern))
	if err != nil {
		s.logger.Error("CleanupService", "Failed to list uploads", map[string]interface{}{"error": err.Error()})
		return 0
	}

	cutoff := s.now().Add(-s.maxAge)
	removed := 0
	for _, path := range matches {
		info, err := os.Stat(path)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			s.logger.Warn("CleanupService", "Failed to remove stale upload", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			continue
		}
		removed++
	}

	if removed > 0 {
		s.logger.Info("CleanupService", "Removed stale uploads", map[string]interface{}{"count": removed})
	}
	return removed
}
