// Package scheduler periodically asks the sync orchestrator to compare the
// cached dataset version with the remote one. It only triggers; the
// orchestrator decides whether anything needs to be pulled.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/robfig/cron/v3"

	"github.com/mrlokans/prayerbook/internal/entities"
	"github.com/mrlokans/prayerbook/internal/logger"
)

// Triggerer schedules a debounced sync cycle. It reports false when the
// trigger was dropped.
type Triggerer interface {
	Trigger(trigger entities.SyncTrigger) bool
}

// VersionCheckScheduler manages the periodic version check
type VersionCheckScheduler struct {
	trigger  Triggerer
	schedule string
	log      *log.Logger

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	cancelFunc context.CancelFunc
	fired      atomic.Int64
}

// NewVersionCheckScheduler creates a new scheduler instance
func NewVersionCheckScheduler(trigger Triggerer, schedule string) *VersionCheckScheduler {
	return &VersionCheckScheduler{
		trigger:  trigger,
		schedule: schedule,
		log:      logger.With("scheduler"),
	}
}

// Start begins the periodic check. Calling Start on a running scheduler is a
// no-op. The scheduler stops when ctx is done.
func (s *VersionCheckScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateCronSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	c := cron.New(cron.WithParser(parser))
	entryID, err := c.AddFunc(s.schedule, s.runCheck)
	if err != nil {
		return fmt.Errorf("failed to schedule version check: %w", err)
	}
	s.cron = c
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	nextRun, _ := NextRunTime(s.schedule, time.Now())
	s.log.Info("version check scheduler started",
		"schedule", s.schedule,
		"description", GetCronDescription(s.schedule),
		"next_run", nextRun)

	go func() {
		<-cancelCtx.Done()
		s.stop(c)
	}()

	return nil
}

// Stop gracefully stops the scheduler
func (s *VersionCheckScheduler) Stop() {
	s.mu.RLock()
	c := s.cron
	s.mu.RUnlock()
	s.stop(c)
}

// stop halts c if it is still the active cron instance. A restart in between
// leaves the newer instance alone.
func (s *VersionCheckScheduler) stop(c *cron.Cron) {
	s.mu.Lock()
	if !s.isRunning || s.cron != c {
		s.mu.Unlock()
		return
	}
	s.isRunning = false
	cancel := s.cancelFunc
	s.cancelFunc = nil
	s.mu.Unlock()

	// Wait for a tick in progress to hand off its trigger.
	<-c.Stop().Done()
	if cancel != nil {
		cancel()
	}

	s.log.Info("version check scheduler stopped")
}

// Reschedule switches to a new schedule, restarting the scheduler if it was running.
func (s *VersionCheckScheduler) Reschedule(ctx context.Context, schedule string) error {
	if err := ValidateCronSchedule(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}

	s.mu.Lock()
	wasRunning := s.isRunning
	s.mu.Unlock()

	if wasRunning {
		s.Stop()
	}

	s.mu.Lock()
	s.schedule = schedule
	s.mu.Unlock()

	if !wasRunning {
		return nil
	}
	return s.Start(ctx)
}

// RunNow triggers a version check immediately. It reports false when the
// orchestrator dropped the trigger.
func (s *VersionCheckScheduler) RunNow() bool {
	return s.trigger.Trigger(entities.SyncTriggerManual)
}

// IsRunning returns whether the scheduler is active
func (s *VersionCheckScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Schedule returns the current cron expression.
func (s *VersionCheckScheduler) Schedule() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schedule
}

// GetNextRunTime returns when the next check will occur
func (s *VersionCheckScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}

	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// Fired returns how many ticks have run.
func (s *VersionCheckScheduler) Fired() int64 {
	return s.fired.Load()
}

func (s *VersionCheckScheduler) runCheck() {
	s.fired.Add(1)

	if !s.trigger.Trigger(entities.SyncTriggerSchedule) {
		s.log.Debug("scheduled version check skipped, sync running")
		return
	}
	s.log.Debug("scheduled version check triggered")
}
