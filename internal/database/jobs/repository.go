// Package jobs provides database operations for import job tracking.
//
// # Interface Implementation
//
//	var _ importers.JobStore = (*Repository)(nil)
//
// # Usage
//
//	repo := jobs.NewRepository(db)
//	job, err := repo.Create(ctx, userID, "archive.zip", "/uploads/archive.zip")
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

var (
	ErrNotFound       = errors.New("import job not found")
	ErrNotCancellable = errors.New("import job is not cancellable")
)

// StaleFailureReason is recorded on jobs failed by SweepStale.
const StaleFailureReason = "import was interrupted"

// Repository handles all import job database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new jobs repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a pending job for the given upload.
func (r *Repository) Create(ctx context.Context, userID uint, filename, filePath string) (*entities.ImportJob, error) {
	job := &entities.ImportJob{
		ID:       uuid.NewString(),
		UserID:   userID,
		Filename: filename,
		FilePath: filePath,
		Status:   entities.JobStatusPending,
		Phase:    entities.PhaseQueued,
	}
	if err := r.db.WithContext(ctx).Create(job).Error; err != nil {
		return nil, fmt.Errorf("create import job: %w", err)
	}
	return job, nil
}

// FindJob retrieves a job by id.
func (r *Repository) FindJob(ctx context.Context, id string) (*entities.ImportJob, error) {
	var job entities.ImportJob
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// FindForUser retrieves a job owned by the given user.
func (r *Repository) FindForUser(ctx context.Context, id string, userID uint) (*entities.ImportJob, error) {
	var job entities.ImportJob
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// ListByUser returns the user's jobs, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID uint, limit int) ([]entities.ImportJob, error) {
	var jobs []entities.ImportJob
	query := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Find(&jobs).Error
	return jobs, err
}

// UpdateJob applies a partial update. Only the non-nil fields of u are written.
// A guarded update on a job that left u.From returns entities.ErrStatusChanged.
func (r *Repository) UpdateJob(ctx context.Context, id string, u entities.JobUpdate) error {
	updates := updateColumns(u)
	if len(updates) == 0 {
		return nil
	}
	updates["updated_at"] = time.Now()

	query := r.db.WithContext(ctx).Model(&entities.ImportJob{}).Where("id = ?", id)
	if len(u.From) > 0 {
		query = query.Where("status IN ?", u.From)
	}
	result := query.Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("update import job %s: %w", id, result.Error)
	}
	if result.RowsAffected > 0 {
		return nil
	}
	if len(u.From) == 0 {
		return ErrNotFound
	}

	job, err := r.FindJob(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: %s is %s", entities.ErrStatusChanged, id, job.Status)
}

func updateColumns(u entities.JobUpdate) map[string]any {
	updates := map[string]any{}
	if u.Status != nil {
		updates["status"] = *u.Status
	}
	if u.Progress != nil {
		updates["progress"] = *u.Progress
	}
	if u.Phase != nil {
		updates["phase"] = *u.Phase
	}
	if u.TotalRecords != nil {
		updates["total_records"] = *u.TotalRecords
	}
	if u.ProcessedRecords != nil {
		updates["processed_records"] = *u.ProcessedRecords
	}
	if u.ErrorCount != nil {
		updates["error_count"] = *u.ErrorCount
	}
	if u.Errors != nil {
		updates["errors"] = entities.JSONList[entities.JobError](u.Errors)
	}
	if u.FailureReason != nil {
		updates["failure_reason"] = *u.FailureReason
	}
	if u.Results != nil {
		res := u.Results
		updates["result_profiles"] = res.Profiles
		updates["result_communications"] = res.Communications
		updates["result_clinical_impressions"] = res.ClinicalImpressions
		updates["result_media"] = res.Media
		updates["result_persons"] = res.Persons
		updates["result_care_teams"] = res.CareTeams
		updates["result_skipped"] = res.Skipped
		updates["result_fallback"] = res.Fallback
	}
	if u.StartedAt != nil {
		updates["started_at"] = *u.StartedAt
	}
	if u.CompletedAt != nil {
		updates["completed_at"] = *u.CompletedAt
	}
	return updates
}

// Cancel marks a pending or processing job as cancelled. Jobs in a terminal
// state return ErrNotCancellable.
func (r *Repository) Cancel(ctx context.Context, id string, userID uint) (*entities.ImportJob, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&entities.ImportJob{}).
		Where("id = ? AND user_id = ? AND status IN ?", id, userID,
			[]entities.JobStatus{entities.JobStatusPending, entities.JobStatusProcessing}).
		Updates(map[string]any{
			"status":       entities.JobStatusCancelled,
			"phase":        entities.PhaseAborted,
			"completed_at": now,
			"updated_at":   now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("cancel import job %s: %w", id, result.Error)
	}

	job, err := r.FindForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return job, ErrNotCancellable
	}
	return job, nil
}

// SweepStale fails processing jobs that have not been updated since
// olderThan ago. It returns the number of jobs marked as failed.
func (r *Repository) SweepStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	now := time.Now()
	threshold := now.Add(-olderThan)
	result := r.db.WithContext(ctx).Model(&entities.ImportJob{}).
		Where("status = ? AND updated_at < ?", entities.JobStatusProcessing, threshold).
		Updates(map[string]any{
			"status":         entities.JobStatusFailed,
			"phase":          entities.PhaseAborted,
			"failure_reason": StaleFailureReason,
			"completed_at":   now,
			"updated_at":     now,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("sweep stale import jobs: %w", result.Error)
	}
	return result.RowsAffected, nil
}
