package entities

import (
	"errors"
	"time"
)

// ErrStatusChanged is returned by a guarded job update when the job is no
// longer in one of the expected statuses.
var ErrStatusChanged = errors.New("import job status changed")

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed || s == JobStatusCancelled
}

// Phase names recorded on the job while it runs.
const (
	PhaseQueued   = "queued"
	PhaseStarting = "starting"
	PhaseProfile  = "profile"
	PhaseFriends  = "friends"
	PhasePosts    = "posts"
	PhaseMedia    = "media"
	PhaseMessages = "messages"
	PhaseFallback = "fallback"
	PhaseFinished = "finished"
	PhaseAborted  = "aborted"
)

// JobError is one entry of a job's error log.
type JobError struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Context   string    `json:"context,omitempty"`
	Phase     string    `json:"phase,omitempty"`
}

// ResultSummary counts the resources produced by a run.
type ResultSummary struct {
	Profiles            int  `json:"profiles"`
	Communications      int  `json:"communications"`
	ClinicalImpressions int  `json:"clinical_impressions"`
	Media               int  `json:"media"`
	Persons             int  `json:"persons"`
	CareTeams           int  `json:"care_teams"`
	Skipped             int  `json:"skipped"`
	Fallback            bool `json:"fallback"`
}

// ImportJob tracks one archive import run.
type ImportJob struct {
	ID               string             `gorm:"primaryKey;size:36" json:"id"`
	UserID           uint               `gorm:"index" json:"user_id"`
	Filename         string             `gorm:"size:512" json:"filename"`
	FilePath         string             `gorm:"size:1024" json:"-"`
	Status           JobStatus          `gorm:"size:20;index" json:"status"`
	Progress         int                `json:"progress"`
	Phase            string             `gorm:"size:32" json:"phase"`
	TotalRecords     int                `json:"total_records"`
	ProcessedRecords int                `json:"processed_records"`
	ErrorCount       int                `json:"error_count"`
	Errors           JSONList[JobError] `json:"errors"`
	FailureReason    string             `gorm:"type:text" json:"failure_reason,omitempty"`
	Results          ResultSummary      `gorm:"embedded;embeddedPrefix:result_" json:"results"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
	StartedAt        *time.Time         `json:"started_at,omitempty"`
	CompletedAt      *time.Time         `json:"completed_at,omitempty"`
}

func (ImportJob) TableName() string {
	return "import_jobs"
}

// JobUpdate is a partial job update. Nil fields are left untouched. When
// From is set the update only applies to a job currently in one of those
// statuses.
type JobUpdate struct {
	From             []JobStatus
	Status           *JobStatus
	Progress         *int
	Phase            *string
	TotalRecords     *int
	ProcessedRecords *int
	ErrorCount       *int
	Errors           []JobError
	FailureReason    *string
	Results          *ResultSummary
	StartedAt        *time.Time
	CompletedAt      *time.Time
}

// ImportProgress is a point-in-time view of a running job, published to the
// progress mirror while the job row is being written.
type ImportProgress struct {
	JobID            string    `json:"job_id"`
	UserID           uint      `json:"user_id"`
	Status           JobStatus `json:"status"`
	Phase            string    `json:"phase"`
	Progress         int       `json:"progress"`
	TotalRecords     int       `json:"total_records"`
	ProcessedRecords int       `json:"processed_records"`
	ErrorCount       int       `json:"error_count"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ProgressOf builds a snapshot from a stored job.
func ProgressOf(job *ImportJob) ImportProgress {
	return ImportProgress{
		JobID:            job.ID,
		UserID:           job.UserID,
		Status:           job.Status,
		Phase:            job.Phase,
		Progress:         job.Progress,
		TotalRecords:     job.TotalRecords,
		ProcessedRecords: job.ProcessedRecords,
		ErrorCount:       job.ErrorCount,
		UpdatedAt:        job.UpdatedAt,
	}
}
