package http

import (
	"context"

	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

// Each controller depends on the narrow set of operations it uses.

// ImportJobStore is the job table as seen by the imports controller.
type ImportJobStore interface {
	Create(ctx context.Context, userID uint, filename, filePath string) (*entities.ImportJob, error)
	FindForUser(ctx context.Context, id string, userID uint) (*entities.ImportJob, error)
	ListByUser(ctx context.Context, userID uint, limit int) ([]entities.ImportJob, error)
	Cancel(ctx context.Context, id string, userID uint) (*entities.ImportJob, error)
}

// ImportQueue starts a recorded job: the task client enqueues it, the
// runner executes it on a goroutine.
type ImportQueue interface {
	EnqueueImport(jobID string) error
}

// ImportStopper raises the stop flag of a job running in this process.
type ImportStopper interface {
	Stop(jobID string) bool
}

// ProgressStore is the live progress mirror (optional).
type ProgressStore interface {
	Get(ctx context.Context, jobID string) (*entities.ImportProgress, error)
	Publish(ctx context.Context, p entities.ImportProgress) error
}

// ResourceReader lists imported records.
type ResourceReader interface {
	List(ctx context.Context, userID uint, resourceType string, limit, offset int) (any, error)
	Count(ctx context.Context, userID uint, resourceType string) (int64, error)
	Summary(ctx context.Context, userID uint) (map[string]int64, error)
}
