package importers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/awatson1978/personal-health-record-sub000/internal/classifier"
	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
	"github.com/awatson1978/personal-health-record-sub000/internal/extractor"
	"github.com/awatson1978/personal-health-record-sub000/internal/transform"
)

var (
	ErrNoValidData = errors.New("no valid data found in archive")
	ErrJobFinished = errors.New("import job already finished")
	ErrJobRunning  = errors.New("import job already running")
	ErrStopped     = errors.New("import stopped")
)

// Progress milestones reached when each phase ends.
const (
	MilestoneProfile   = 10
	MilestoneFriends   = 30
	MilestonePosts     = 50
	MilestoneMedia     = 70
	MilestoneMessages  = 90
	MilestoneCompleted = 100
)

// DefaultProgressInterval is the number of records between progress writes
// inside a phase.
const DefaultProgressInterval = 25

// postsErrorRatio is the share of failing posts that stops the posts phase.
const postsErrorRatio = 0.10

// JobStore is the job-store collaborator.
type JobStore interface {
	FindJob(ctx context.Context, id string) (*entities.ImportJob, error)
	UpdateJob(ctx context.Context, id string, u entities.JobUpdate) error
}

// AccountReader returns the account an import runs for.
type AccountReader interface {
	GetUserByID(ctx context.Context, id uint) (*entities.User, error)
}

// ProgressObserver receives a snapshot after every progress write (optional).
type ProgressObserver interface {
	Publish(ctx context.Context, p entities.ImportProgress) error
}

// Input is the parsed archive handed to a run. Media is optional.
type Input struct {
	Document any
	Media    transform.MediaCatalog
}

// Orchestrator runs import jobs.
type Orchestrator struct {
	jobs             JobStore
	accounts         AccountReader
	store            transform.Store
	classifier       *classifier.Classifier
	extractor        *extractor.Extractor
	source           string
	observer         ProgressObserver
	registry         *registry
	progressInterval int
	now              func() time.Time
}

// NewOrchestrator creates an orchestrator writing resources to store and
// job state to jobs.
func NewOrchestrator(jobs JobStore, accounts AccountReader, store transform.Store, c *classifier.Classifier, source string) *Orchestrator {
	if c == nil {
		c = classifier.Default()
	}
	return &Orchestrator{
		jobs:             jobs,
		accounts:         accounts,
		store:            store,
		classifier:       c,
		extractor:        extractor.New(),
		source:           source,
		registry:         newRegistry(),
		progressInterval: DefaultProgressInterval,
		now:              time.Now,
	}
}

// SetProgressObserver sets the observer notified on progress writes (optional).
func (o *Orchestrator) SetProgressObserver(observer ProgressObserver) {
	o.observer = observer
}

// SetProgressInterval sets how many records pass between progress writes.
func (o *Orchestrator) SetProgressInterval(n int) {
	if n > 0 {
		o.progressInterval = n
	}
}

// SetClock overrides the time source.
func (o *Orchestrator) SetClock(now func() time.Time) {
	o.now = now
}

// Stop raises the stop flag of a running job. It reports false when the job
// is not running in this process.
func (o *Orchestrator) Stop(jobID string) bool {
	return o.registry.stop(jobID)
}

// IsRunning reports whether the job is running in this process.
func (o *Orchestrator) IsRunning(jobID string) bool {
	return o.registry.running(jobID)
}

// Run executes the import job to completion. Per-record failures are
// recorded on the job; only run-level failures are returned, after the job
// has been marked failed. A stopped run returns ErrStopped without writing
// a terminal status, and a run whose job was finished by another writer
// (cancel, stale sweep) returns ErrJobFinished without writing anything.
func (o *Orchestrator) Run(ctx context.Context, jobID string, in Input) (summary *entities.ResultSummary, err error) {
	job, err := o.jobs.FindJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("find import job: %w", err)
	}
	if job.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: %s is %s", ErrJobFinished, jobID, job.Status)
	}

	stopFlag, err := o.registry.register(jobID)
	if err != nil {
		return nil, err
	}
	defer o.registry.unregister(jobID)

	r := o.newRun(job, stopFlag, in)

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("[IMPORT] job %s: panic: %v", jobID, rec)
			summary, err = nil, r.fail(ctx, fmt.Errorf("import panicked: %v", rec))
		}
	}()

	if err := r.start(ctx); err != nil {
		return nil, r.abandon(ctx, err)
	}

	if err := r.execute(ctx); err != nil {
		return nil, r.abandon(ctx, err)
	}

	if err := r.complete(ctx); err != nil {
		return nil, r.abandon(ctx, err)
	}

	log.Printf("[IMPORT] job %s: completed: %d records, %d errors", jobID, r.processed, len(r.errors))
	return &r.results, nil
}

// Abort marks a job that never reached Run as failed, e.g. when its archive
// cannot be read.
func (o *Orchestrator) Abort(ctx context.Context, jobID string, cause error) error {
	job, err := o.jobs.FindJob(ctx, jobID)
	if err != nil {
		return fmt.Errorf("find import job: %w", err)
	}
	if job.Status.IsTerminal() {
		return fmt.Errorf("%w: %s is %s", ErrJobFinished, jobID, job.Status)
	}
	r := o.newRun(job, new(atomic.Bool), Input{})
	r.phase = job.Phase
	return r.fail(ctx, cause)
}

func (o *Orchestrator) newRun(job *entities.ImportJob, stop *atomic.Bool, in Input) *run {
	tr := transform.New(o.store, o.classifier, o.source)
	tr.SetClock(o.now)
	if in.Media != nil {
		tr.SetMediaCatalog(in.Media)
	}
	return &run{
		orch:        o,
		job:         job,
		input:       in,
		transformer: tr,
		stop:        stop,
		scope: transform.Scope{
			UserID: job.UserID,
			JobID:  job.ID,
		},
	}
}

// totalRecords counts the profile, the optional experiences document and
// every extracted record. A payload without any top-level content has
// nothing to import and counts zero.
func totalRecords(doc any, extracted extractor.Result) int {
	if isEmptyDocument(doc) {
		return 0
	}
	total := 1 + extracted.RecordCount()
	if extracted.Experiences != nil {
		total++
	}
	return total
}

func isEmptyDocument(doc any) bool {
	switch v := doc.(type) {
	case nil:
		return true
	case map[string]any:
		return len(v) == 0
	case []any:
		return len(v) == 0
	}
	return false
}
