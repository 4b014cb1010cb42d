package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"
)

// DefaultStaleAfter is how long a processing job may go without an update
// before it is considered abandoned.
const DefaultStaleAfter = 30 * time.Minute

// StaleJobSweeper fails jobs left in processing by a dead worker.
type StaleJobSweeper interface {
	SweepStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// SweepStaleJobsTask marks abandoned processing jobs as failed.
type SweepStaleJobsTask struct {
	StaleAfterMinutes int `json:"stale_after_minutes"`
}

// Config returns the queue configuration for stale job sweeps.
func (t SweepStaleJobsTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "sweep_stale_jobs",
		MaxAttempts: 3,
		Backoff:     time.Minute,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: true,
		},
	}
}

// SweepStaleJobsProcessor creates a processor function for SweepStaleJobsTask.
func SweepStaleJobsProcessor(sweeper StaleJobSweeper) backlite.QueueProcessor[SweepStaleJobsTask] {
	return func(ctx context.Context, task SweepStaleJobsTask) error {
		if sweeper == nil {
			return fmt.Errorf("stale job sweeper not configured")
		}

		staleAfter := DefaultStaleAfter
		if task.StaleAfterMinutes > 0 {
			staleAfter = time.Duration(task.StaleAfterMinutes) * time.Minute
		}

		swept, err := sweeper.SweepStale(ctx, staleAfter)
		if err != nil {
			return fmt.Errorf("sweep stale jobs: %w", err)
		}
		if swept > 0 {
			log.Printf("[TASK] Marked %d stale import jobs failed (no update for %s)", swept, staleAfter)
		}
		return nil
	}
}

// NewSweepStaleJobsQueue creates a backlite queue for stale job sweeps.
func NewSweepStaleJobsQueue(sweeper StaleJobSweeper) backlite.Queue {
	return backlite.NewQueue(SweepStaleJobsProcessor(sweeper))
}
