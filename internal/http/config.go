package http

import (
	"time"

	"github.com/awatson1978/personal-health-record-sub000/internal/archive"
	"github.com/awatson1978/personal-health-record-sub000/internal/auth"
	"github.com/awatson1978/personal-health-record-sub000/internal/database"
	"github.com/awatson1978/personal-health-record-sub000/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database  *database.Database
	Jobs      ImportJobStore
	Resources ResourceReader
	Queue     ImportQueue
	Stopper   ImportStopper
	Scanner   *archive.Scanner

	// Live progress mirror (optional)
	Progress ProgressStore
	Redis    Pinger

	// Authentication
	AuthMiddleware *auth.Middleware

	// Uploads
	UploadDir      string
	MaxUploadBytes int64

	// Task queue client (optional)
	TaskClient *tasks.Client
	StaleAfter time.Duration

	// Application info
	Version string
}
