package interfaces

// This file contains compile-time interface implementation checks.
// These ensure that concrete types satisfy their interfaces at compile time,
// catching missing methods before runtime.
//
// To verify all checks pass: go build ./internal/interfaces/...

import (
	"github.com/awatson1978/personal-health-record-sub000/internal/archive"
	"github.com/awatson1978/personal-health-record-sub000/internal/auth"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/jobs"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/resources"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/users"
	"github.com/awatson1978/personal-health-record-sub000/internal/http"
	"github.com/awatson1978/personal-health-record-sub000/internal/importers"
	"github.com/awatson1978/personal-health-record-sub000/internal/progress"
	"github.com/awatson1978/personal-health-record-sub000/internal/scheduler"
	"github.com/awatson1978/personal-health-record-sub000/internal/tasks"
	"github.com/awatson1978/personal-health-record-sub000/internal/transform"
)

// =============================================================================
// Data Access Layer
// =============================================================================

// Import job store implementations
var _ importers.JobStore = (*jobs.Repository)(nil)
var _ http.ImportJobStore = (*jobs.Repository)(nil)
var _ tasks.StaleJobSweeper = (*jobs.Repository)(nil)
var _ scheduler.Sweeper = (*jobs.Repository)(nil)

// Resource store implementations
var _ transform.Store = (*resources.Repository)(nil)
var _ http.ResourceReader = (*resources.Repository)(nil)

// Account implementations
var _ importers.AccountReader = (*users.Repository)(nil)
var _ auth.TokenLookup = (*users.Repository)(nil)

// =============================================================================
// Progress Tracking
// =============================================================================

var _ importers.ProgressObserver = (*progress.Mirror)(nil)
var _ http.ProgressStore = (*progress.Mirror)(nil)
var _ http.Pinger = (*progress.Mirror)(nil)

// =============================================================================
// Import Pipeline
// =============================================================================

var _ importers.ArchiveLoader = (*archive.Loader)(nil)
var _ transform.MediaCatalog = (*archive.Payload)(nil)
var _ http.ImportStopper = (*importers.Orchestrator)(nil)

// ImportQueue implementations: the task queue, or in-process when disabled
var _ http.ImportQueue = (*importers.Runner)(nil)
var _ http.ImportQueue = (*tasks.Client)(nil)
var _ tasks.JobRunner = (*importers.Runner)(nil)

// SweepTrigger implementations
var _ scheduler.SweepTrigger = (*tasks.Client)(nil)
var _ scheduler.SweepTrigger = scheduler.DirectSweep{}
