package importers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/awatson1978/personal-health-record-sub000/internal/archive"
	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

// ArchiveLoader reads an uploaded archive into a merged document.
type ArchiveLoader interface {
	Load(ctx context.Context, path string) (*archive.Payload, error)
}

// Runner loads a job's archive and hands it to the orchestrator. It is the
// entry point used by the task queue, the CLI and the in-process fallback.
type Runner struct {
	orch    *Orchestrator
	loader  ArchiveLoader
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewRunner creates a runner. A positive timeout bounds each job.
func NewRunner(orch *Orchestrator, loader ArchiveLoader, timeout time.Duration) *Runner {
	return &Runner{orch: orch, loader: loader, timeout: timeout}
}

// Orchestrator returns the orchestrator the runner drives.
func (r *Runner) Orchestrator() *Orchestrator {
	return r.orch
}

// EnqueueImport runs the job on its own goroutine. It is used when the task
// queue is disabled; Wait blocks until such runs have returned.
func (r *Runner) EnqueueImport(jobID string) error {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if _, err := r.RunJob(context.Background(), jobID); err != nil && !errors.Is(err, ErrStopped) {
			log.Printf("[IMPORT] job %s: %v", jobID, err)
		}
	}()
	return nil
}

// Wait blocks until goroutines started by EnqueueImport return or ctx is
// done. It reports whether all runs finished.
func (r *Runner) Wait(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// RunJob executes the import job with the given id.
func (r *Runner) RunJob(ctx context.Context, jobID string) (*entities.ResultSummary, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	job, err := r.orch.jobs.FindJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("find import job: %w", err)
	}
	if job.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrJobFinished, jobID, job.Status)
	}

	start := time.Now()
	payload, err := r.loader.Load(ctx, job.FilePath)
	if err != nil {
		cause := fmt.Errorf("read archive %s: %w", job.Filename, err)
		if abortErr := r.orch.Abort(ctx, jobID, cause); abortErr != nil && !errors.Is(abortErr, cause) {
			log.Printf("[IMPORT] job %s: %v", jobID, abortErr)
		}
		return nil, cause
	}
	if len(payload.Skipped) > 0 {
		log.Printf("[IMPORT] job %s: %d unreadable files skipped", jobID, len(payload.Skipped))
	}

	summary, err := r.orch.Run(ctx, jobID, Input{Document: payload.Document, Media: payload})
	if err != nil {
		return nil, err
	}
	log.Printf("[IMPORT] job %s: finished in %s", jobID, time.Since(start).Round(time.Millisecond))
	return summary, nil
}
