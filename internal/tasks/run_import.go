package tasks

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
	"github.com/awatson1978/personal-health-record-sub000/internal/importers"
)

// JobRunner executes one import job by id.
type JobRunner interface {
	RunJob(ctx context.Context, jobID string) (*entities.ResultSummary, error)
}

// RunImportTask runs a queued import job.
type RunImportTask struct {
	JobID string `json:"job_id"`
}

// Config returns the queue configuration for import tasks. Imports are not
// retried: a failed run has already been recorded on the job.
func (t RunImportTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "run_import",
		MaxAttempts: 1,
		Timeout:     DefaultImportTimeout,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// RunImportProcessor creates a processor function for RunImportTask.
func RunImportProcessor(runner JobRunner) backlite.QueueProcessor[RunImportTask] {
	return func(ctx context.Context, task RunImportTask) error {
		if runner == nil {
			return fmt.Errorf("import runner not configured")
		}
		if task.JobID == "" {
			return fmt.Errorf("run_import: missing job id")
		}

		summary, err := runner.RunJob(ctx, task.JobID)
		switch {
		case errors.Is(err, importers.ErrStopped):
			log.Printf("[TASK] Import %s stopped", task.JobID)
			return nil
		case errors.Is(err, importers.ErrJobFinished):
			log.Printf("[TASK] Import %s already finished, skipping", task.JobID)
			return nil
		case err != nil:
			return fmt.Errorf("run import %s: %w", task.JobID, err)
		}

		log.Printf("[TASK] Import %s done: %d impressions, %d persons, %d media, %d communications",
			task.JobID, summary.ClinicalImpressions, summary.Persons, summary.Media, summary.Communications)
		return nil
	}
}

// NewRunImportQueue creates a backlite queue for import tasks.
func NewRunImportQueue(runner JobRunner) backlite.Queue {
	return backlite.NewQueue(RunImportProcessor(runner))
}
