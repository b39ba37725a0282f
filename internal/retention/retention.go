// Package retention runs the only process allowed to delete quarantine
// records or truncate the audit trail: a scheduled sweep that expires
// quarantine entries past a configured window and rotates the audit log.
// Grounded on internal/cron/scheduler.go's cron.New(cron.WithSeconds())
// + AddFunc pattern, stripped of the job-registry/message-bus machinery
// that has no sweep analogue — this scheduler runs exactly one job.
package retention

import (
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/bridgewarden/bridgewarden/internal/audit"
	"github.com/bridgewarden/bridgewarden/internal/logger"
	"github.com/bridgewarden/bridgewarden/internal/quarantine"
)

// Sweeper schedules and runs the retention sweep.
type Sweeper struct {
	cron     *cron.Cron
	store    *quarantine.Store
	log      *audit.Log
	window   time.Duration
	logger   *logger.Logger
	now      func() time.Time

	mu      sync.Mutex
	started bool
}

// NewSweeper returns a Sweeper that expires quarantine records older than
// window and rotates the audit log on the given cron schedule.
func NewSweeper(store *quarantine.Store, auditLog *audit.Log, window time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		cron:   cron.New(cron.WithSeconds()),
		store:  store,
		log:    auditLog,
		window: window,
		logger: log,
		now:    time.Now,
	}
}

// Start schedules the sweep to run on schedule (a standard 6-field cron
// expression) and begins the underlying cron's own goroutine. It returns
// once the job is registered; Stop must be called to shut it down.
func (s *Sweeper) Start(schedule string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return fmt.Errorf("retention: sweeper already started")
	}

	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.RunOnce(); err != nil {
			s.logger.Error("retention sweep failed", err)
		}
	})
	if err != nil {
		return fmt.Errorf("retention: invalid schedule %q: %w", schedule, err)
	}

	s.cron.Start()
	s.started = true
	s.logger.Info("retention sweep scheduled",
		logger.Field{Key: "schedule", Value: schedule},
		logger.Field{Key: "window", Value: s.window.String()})
	return nil
}

// Stop halts the scheduler and waits for any in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.started = false
	s.logger.Info("retention sweep stopped")
}

// RunOnce performs a single sweep: deleting quarantine records older than
// the retention window, then rotating the audit log.
func (s *Sweeper) RunOnce() error {
	cutoff := s.now().Add(-s.window)

	removed, err := s.store.DeleteExpired(cutoff)
	if err != nil {
		return fmt.Errorf("retention: deleting expired quarantine records: %w", err)
	}

	rotated, err := s.log.Rotate(s.now())
	if err != nil {
		return fmt.Errorf("retention: rotating audit log: %w", err)
	}

	s.logger.Info("retention sweep completed",
		logger.Field{Key: "quarantine_records_removed", Value: removed},
		logger.Field{Key: "audit_log_rotated_to", Value: rotated})
	return nil
}
