package importers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
	"github.com/awatson1978/personal-health-record-sub000/internal/extractor"
	"github.com/awatson1978/personal-health-record-sub000/internal/transform"
)

// maxErrorContext bounds the raw record stored with a job error.
const maxErrorContext = 512

// run is the mutable state of one import. Only the goroutine executing Run
// touches it, apart from the stop flag.
type run struct {
	orch        *Orchestrator
	job         *entities.ImportJob
	input       Input
	transformer *transform.Transformer
	stop        *atomic.Bool
	scope       transform.Scope

	extracted extractor.Result
	total     int
	processed int
	progress  int
	phase     string
	errors    []entities.JobError
	results   entities.ResultSummary
	contacts  []*entities.Person
}

// phase describes one record loop of a run.
type phase struct {
	name      string
	milestone int
	records   []any
	handle    func(ctx context.Context, raw any) error
	finish    func(ctx context.Context)
	stoppable bool
	breaker   bool
}

func (r *run) start(ctx context.Context) error {
	now := r.orch.now().UTC()
	status := entities.JobStatusProcessing
	r.phase = entities.PhaseStarting

	u := entities.JobUpdate{
		From:     []entities.JobStatus{entities.JobStatusPending, entities.JobStatusProcessing},
		Status:   &status,
		Phase:    &r.phase,
		Progress: &r.progress,
	}
	if r.job.StartedAt == nil {
		u.StartedAt = &now
	}
	if err := r.orch.jobs.UpdateJob(ctx, r.job.ID, u); err != nil {
		return fmt.Errorf("mark job processing: %w", err)
	}
	r.job.Status = status

	r.extracted = r.orch.extractor.Extract(r.input.Document)
	r.total = totalRecords(r.input.Document, r.extracted)
	if r.total == 0 {
		return ErrNoValidData
	}

	log.Printf("[IMPORT] job %s: %d records (%d posts, %d friends, %d media, %d messages)",
		r.job.ID, r.total, len(r.extracted.Posts), len(r.extracted.Friends),
		len(r.extracted.Media), len(r.extracted.Messages))

	return r.checkpoint(ctx)
}

func (r *run) execute(ctx context.Context) error {
	if err := r.profile(ctx); err != nil {
		return err
	}

	phases := []phase{
		{
			name:      entities.PhaseFriends,
			milestone: MilestoneFriends,
			records:   r.extracted.Friends,
			handle:    r.friend,
			finish:    r.supportNetwork,
			stoppable: true,
		},
		{
			name:      entities.PhasePosts,
			milestone: MilestonePosts,
			records:   r.extracted.Posts,
			handle:    r.post,
			stoppable: true,
			breaker:   true,
		},
		{
			name:      entities.PhaseMedia,
			milestone: MilestoneMedia,
			records:   r.extracted.Media,
			handle:    r.mediaItem,
		},
		{
			name:      entities.PhaseMessages,
			milestone: MilestoneMessages,
			records:   r.extracted.Messages,
			handle:    r.message,
		},
	}

	for _, p := range phases {
		if r.stop.Load() {
			return ErrStopped
		}
		if len(p.records) == 0 {
			continue
		}
		if err := r.runPhase(ctx, p); err != nil {
			return err
		}
	}
	if r.stop.Load() {
		return ErrStopped
	}

	if r.extracted.RecordCount() == 0 {
		return r.fallback(ctx)
	}
	return nil
}

func (r *run) profile(ctx context.Context) error {
	r.phase = entities.PhaseProfile

	user, err := r.orch.accounts.GetUserByID(ctx, r.job.UserID)
	if err != nil {
		return fmt.Errorf("load account %d: %w", r.job.UserID, err)
	}

	account := transform.Account{Name: user.Username, Email: user.Email}
	profile, created, err := r.transformer.UpsertProfile(ctx, r.scope, account, r.extracted.Experiences)
	if err != nil {
		return fmt.Errorf("profile: %w", err)
	}
	if created {
		log.Printf("[IMPORT] job %s: created profile %s", r.job.ID, profile.ID)
	}

	r.scope.Patient = profile.Ref()
	r.results.Profiles = 1
	r.processed++
	if r.extracted.Experiences != nil {
		r.processed++
	}
	r.progress = MilestoneProfile
	return r.checkpoint(ctx)
}

func (r *run) runPhase(ctx context.Context, p phase) error {
	startProgress := r.progress
	r.phase = p.name
	if err := r.checkpoint(ctx); err != nil {
		return err
	}

	phaseErrors := 0
	for i, raw := range p.records {
		if err := ctx.Err(); err != nil {
			return err
		}
		if p.stoppable && r.stop.Load() {
			return ErrStopped
		}

		err := safely(func() error { return p.handle(ctx, raw) })
		r.processed++

		if err != nil {
			if errors.Is(err, transform.ErrSkipped) {
				r.results.Skipped++
			} else {
				phaseErrors++
				r.recordError(p.name, err, raw)

				if p.breaker && float64(phaseErrors) > postsErrorRatio*float64(len(p.records)) {
					remaining := len(p.records) - (i + 1)
					r.processed += remaining
					r.recordError(p.name, fmt.Errorf("phase stopped after %d of %d records failed", phaseErrors, len(p.records)), nil)
					log.Printf("[IMPORT] job %s: %s phase stopped, %d errors in %d records, %d left unprocessed",
						r.job.ID, p.name, phaseErrors, len(p.records), remaining)
					break
				}
			}
		}

		if done := i + 1; done%r.orch.progressInterval == 0 && done < len(p.records) {
			r.progress = interpolate(startProgress, p.milestone, done, len(p.records))
			if err := r.checkpoint(ctx); err != nil {
				return err
			}
		}
	}

	if p.finish != nil {
		p.finish(ctx)
	}

	r.progress = p.milestone
	return r.checkpoint(ctx)
}

func (r *run) friend(ctx context.Context, raw any) error {
	person, err := r.transformer.Friend(ctx, r.scope, raw)
	if err != nil {
		return err
	}
	r.contacts = append(r.contacts, person)
	r.results.Persons++
	return nil
}

func (r *run) supportNetwork(ctx context.Context) {
	_, err := r.transformer.SupportNetwork(ctx, r.scope, r.contacts)
	switch {
	case err == nil:
		r.results.CareTeams++
	case errors.Is(err, transform.ErrSkipped):
	default:
		r.recordError(entities.PhaseFriends, err, nil)
	}
}

func (r *run) post(ctx context.Context, raw any) error {
	result, err := r.transformer.Post(ctx, r.scope, raw)
	if err != nil {
		return err
	}
	r.results.ClinicalImpressions++
	r.results.Media += len(result.Media)
	return nil
}

func (r *run) mediaItem(ctx context.Context, raw any) error {
	if _, err := r.transformer.MediaItem(ctx, r.scope, raw); err != nil {
		return err
	}
	r.results.Media++
	return nil
}

func (r *run) message(ctx context.Context, raw any) error {
	if _, err := r.transformer.Message(ctx, r.scope, raw); err != nil {
		return err
	}
	r.results.Communications++
	return nil
}

func (r *run) fallback(ctx context.Context) error {
	r.phase = entities.PhaseFallback
	if _, err := r.transformer.Fallback(ctx, r.scope); err != nil {
		return fmt.Errorf("create sample records: %w", err)
	}
	r.results.Communications++
	r.results.ClinicalImpressions++
	r.results.Persons++
	r.results.Media++
	r.results.Fallback = true

	log.Printf("[IMPORT] job %s: no recognized records, created sample data", r.job.ID)
	return nil
}

func (r *run) complete(ctx context.Context) error {
	now := r.orch.now().UTC()
	status := entities.JobStatusCompleted
	r.phase = entities.PhaseFinished
	r.progress = MilestoneCompleted
	errorCount := len(r.errors)

	err := r.orch.jobs.UpdateJob(ctx, r.job.ID, entities.JobUpdate{
		From:             []entities.JobStatus{entities.JobStatusProcessing},
		Status:           &status,
		Phase:            &r.phase,
		Progress:         &r.progress,
		ProcessedRecords: &r.processed,
		ErrorCount:       &errorCount,
		Errors:           r.errorLog(),
		Results:          &r.results,
		CompletedAt:      &now,
	})
	if err != nil {
		return fmt.Errorf("mark job completed: %w", err)
	}
	r.job.Status = status
	r.publish(ctx)
	return nil
}

// fail marks the job failed and returns cause. It writes even when ctx is
// already cancelled.
func (r *run) fail(ctx context.Context, cause error) error {
	ctx = context.WithoutCancel(ctx)
	now := r.orch.now().UTC()
	status := entities.JobStatusFailed
	reason := cause.Error()
	failedPhase := r.phase
	r.phase = entities.PhaseAborted

	r.errors = append(r.errors, entities.JobError{
		Message:   reason,
		Timestamp: now,
		Phase:     failedPhase,
	})
	errorCount := len(r.errors)

	err := r.orch.jobs.UpdateJob(ctx, r.job.ID, entities.JobUpdate{
		From:             []entities.JobStatus{entities.JobStatusPending, entities.JobStatusProcessing},
		Status:           &status,
		Phase:            &r.phase,
		ProcessedRecords: &r.processed,
		ErrorCount:       &errorCount,
		Errors:           r.errors,
		FailureReason:    &reason,
		Results:          &r.results,
		CompletedAt:      &now,
	})
	if errors.Is(err, entities.ErrStatusChanged) {
		log.Printf("[IMPORT] job %s: failure not recorded: %v", r.job.ID, err)
		return cause
	}
	if err != nil {
		log.Printf("[IMPORT] job %s: failed to record failure: %v", r.job.ID, err)
	}
	r.job.Status = status
	r.publish(ctx)

	log.Printf("[IMPORT] job %s: failed during %s: %v", r.job.ID, failedPhase, cause)
	return cause
}

// checkpoint writes the running counters and notifies the observer. It
// fails with entities.ErrStatusChanged once the job has left processing.
func (r *run) checkpoint(ctx context.Context) error {
	errorCount := len(r.errors)
	err := r.orch.jobs.UpdateJob(ctx, r.job.ID, entities.JobUpdate{
		From:             []entities.JobStatus{entities.JobStatusProcessing},
		Phase:            &r.phase,
		Progress:         &r.progress,
		TotalRecords:     &r.total,
		ProcessedRecords: &r.processed,
		ErrorCount:       &errorCount,
		Errors:           r.errorLog(),
	})
	if err != nil {
		return fmt.Errorf("update job progress: %w", err)
	}
	r.publish(ctx)
	return nil
}

func (r *run) publish(ctx context.Context) {
	if r.orch.observer == nil {
		return
	}
	snapshot := entities.ImportProgress{
		JobID:            r.job.ID,
		UserID:           r.job.UserID,
		Status:           r.job.Status,
		Phase:            r.phase,
		Progress:         r.progress,
		TotalRecords:     r.total,
		ProcessedRecords: r.processed,
		ErrorCount:       len(r.errors),
		UpdatedAt:        r.orch.now().UTC(),
	}
	if err := r.orch.observer.Publish(ctx, snapshot); err != nil {
		log.Printf("[IMPORT] job %s: publish progress: %v", r.job.ID, err)
	}
}

func (r *run) recordError(phaseName string, err error, raw any) {
	entry := entities.JobError{
		Message:   err.Error(),
		Timestamp: r.orch.now().UTC(),
		Phase:     phaseName,
	}
	if raw != nil {
		entry.Context = errorContext(raw)
	}
	r.errors = append(r.errors, entry)
	log.Printf("[IMPORT] job %s: %s record failed: %v", r.job.ID, phaseName, err)
}

// errorLog returns the error log for a job update. An empty log is
// written as an empty list rather than left untouched.
func (r *run) errorLog() []entities.JobError {
	if r.errors == nil {
		return []entities.JobError{}
	}
	return r.errors
}

func errorContext(raw any) string {
	b, err := json.Marshal(raw)
	if err != nil {
		return fmt.Sprintf("%v", raw)
	}
	if len(b) > maxErrorContext {
		return string(b[:maxErrorContext]) + "..."
	}
	return string(b)
}

func interpolate(from, to, done, total int) int {
	if total <= 0 || to <= from {
		return from
	}
	return from + (to-from)*done/total
}

// safely converts a panic in fn into an error.
func safely(fn func() error) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return fn()
}

// abandon ends a run that returned err. Stops and status changes made by
// other writers leave the job row alone; anything else fails the job.
func (r *run) abandon(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, ErrStopped):
		log.Printf("[IMPORT] job %s: stopped after %d of %d records", r.job.ID, r.processed, r.total)
		return err
	case errors.Is(err, entities.ErrStatusChanged):
		log.Printf("[IMPORT] job %s: finished elsewhere during %s, run discarded: %v", r.job.ID, r.phase, err)
		return fmt.Errorf("%w: %w", ErrJobFinished, err)
	}
	return r.fail(ctx, err)
}
