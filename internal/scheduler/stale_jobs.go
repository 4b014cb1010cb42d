package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSweepSchedule runs the stale job sweep every ten minutes.
const DefaultSweepSchedule = "*/10 * * * *"

var parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// SweepTrigger starts one stale job sweep. The task client satisfies it by
// enqueueing; DirectSweep runs the sweep in place.
type SweepTrigger interface {
	EnqueueSweep(staleAfter time.Duration) error
}

// Sweeper fails processing jobs that stopped reporting progress.
type Sweeper interface {
	SweepStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// DirectSweep adapts a Sweeper for deployments without a task queue.
type DirectSweep struct {
	Sweeper Sweeper
}

// EnqueueSweep runs the sweep synchronously.
func (d DirectSweep) EnqueueSweep(staleAfter time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	swept, err := d.Sweeper.SweepStale(ctx, staleAfter)
	if err != nil {
		return err
	}
	if swept > 0 {
		log.Printf("Stale job sweep: marked %d jobs failed", swept)
	}
	return nil
}

// ValidateSchedule checks a five-field cron expression.
func ValidateSchedule(schedule string) error {
	_, err := parser.Parse(schedule)
	return err
}

// StaleJobScheduler periodically fails import jobs abandoned by a crashed
// or restarted worker.
type StaleJobScheduler struct {
	trigger    SweepTrigger
	schedule   string
	staleAfter time.Duration

	cron      *cron.Cron
	entryID   cron.EntryID
	mu        sync.RWMutex
	isRunning bool
}

// NewStaleJobScheduler creates a scheduler. Empty schedule and non-positive
// staleAfter fall back to the defaults.
func NewStaleJobScheduler(trigger SweepTrigger, schedule string, staleAfter time.Duration) *StaleJobScheduler {
	if schedule == "" {
		schedule = DefaultSweepSchedule
	}
	if staleAfter <= 0 {
		staleAfter = 30 * time.Minute
	}
	return &StaleJobScheduler{
		trigger:    trigger,
		schedule:   schedule,
		staleAfter: staleAfter,
		cron:       cron.New(cron.WithParser(parser)),
	}
}

// Start schedules the sweep and stops it again when ctx is cancelled.
func (s *StaleJobScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if err := ValidateSchedule(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.schedule, err)
	}

	entryID, err := s.cron.AddFunc(s.schedule, s.RunNow)
	if err != nil {
		return fmt.Errorf("failed to schedule stale job sweep: %w", err)
	}
	s.entryID = entryID

	s.cron.Start()
	s.isRunning = true
	log.Printf("Stale job scheduler: started with schedule '%s', jobs idle for %s are failed", s.schedule, s.staleAfter)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// Stop stops the cron and waits for a running sweep.
func (s *StaleJobScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()
	s.cron.Remove(s.entryID)
	s.isRunning = false

	log.Printf("Stale job scheduler: stopped")
}

// RunNow triggers a sweep immediately.
func (s *StaleJobScheduler) RunNow() {
	if err := s.trigger.EnqueueSweep(s.staleAfter); err != nil {
		log.Printf("Stale job sweep: %v", err)
	}
}

// IsRunning returns whether the scheduler is active.
func (s *StaleJobScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next sweep will occur.
func (s *StaleJobScheduler) GetNextRunTime() *time.Time {
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
