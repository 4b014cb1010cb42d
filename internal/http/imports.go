package http

import (
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/awatson1978/personal-health-record-sub000/internal/database/jobs"
	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

const (
	archiveFormField   = "archive"
	defaultJobsListLen = 20
)

// ImportsController accepts archive uploads and reports on import jobs.
type ImportsController struct {
	jobs      ImportJobStore
	queue     ImportQueue
	stopper   ImportStopper
	progress  ProgressStore
	uploadDir string
	maxUpload int64
}

// NewImportsController creates an imports controller storing uploads under
// uploadDir.
func NewImportsController(jobStore ImportJobStore, queue ImportQueue, stopper ImportStopper, uploadDir string, maxUpload int64) *ImportsController {
	return &ImportsController{
		jobs:      jobStore,
		queue:     queue,
		stopper:   stopper,
		uploadDir: uploadDir,
		maxUpload: maxUpload,
	}
}

// SetProgressStore enables the live progress mirror (optional).
func (ic *ImportsController) SetProgressStore(p ProgressStore) {
	ic.progress = p
}

// UploadResponse is returned when an archive is accepted.
type UploadResponse struct {
	JobID    string             `json:"job_id"`
	Status   entities.JobStatus `json:"status"`
	Filename string             `json:"filename"`
}

// Upload handles POST /api/imports
// Stores the archive, records a pending job and hands it to the queue.
func (ic *ImportsController) Upload(c *gin.Context) {
	userID := GetUserID(c)

	file, header, ok := readArchiveField(c, ic.maxUpload)
	if !ok {
		return
	}
	defer file.Close()

	filename := filepath.Base(header.Filename)
	path, err := saveUpload(file, ic.uploadDir, uuid.NewString()+"-"+filename)
	if err != nil {
		respondInternalError(c, err, "store upload")
		return
	}

	ctx := c.Request.Context()
	job, err := ic.jobs.Create(ctx, userID, filename, path)
	if err != nil {
		os.Remove(path)
		respondInternalError(c, err, "create import job")
		return
	}

	if err := ic.queue.EnqueueImport(job.ID); err != nil {
		if _, cancelErr := ic.jobs.Cancel(ctx, job.ID, userID); cancelErr != nil {
			log.Printf("[IMPORT] job %s: cancel after enqueue failure: %v", job.ID, cancelErr)
		}
		respondInternalError(c, err, "enqueue import")
		return
	}

	log.Printf("[IMPORT] job %s: accepted %s (%d bytes) for user %d", job.ID, filename, header.Size, userID)
	c.JSON(http.StatusAccepted, UploadResponse{
		JobID:    job.ID,
		Status:   job.Status,
		Filename: job.Filename,
	})
}

// List handles GET /api/imports
func (ic *ImportsController) List(c *gin.Context) {
	limit := defaultJobsListLen
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondBadRequest(c, "invalid limit")
			return
		}
		limit = min(n, maxPageLimit)
	}

	list, err := ic.jobs.ListByUser(c.Request.Context(), GetUserID(c), limit)
	if err != nil {
		respondInternalError(c, err, "list import jobs")
		return
	}
	if list == nil {
		list = []entities.ImportJob{}
	}
	c.JSON(http.StatusOK, gin.H{"jobs": list})
}

// Get handles GET /api/imports/:id
func (ic *ImportsController) Get(c *gin.Context) {
	job, ok := ic.findJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, job)
}

// Progress handles GET /api/imports/:id/progress
// Serves the mirrored snapshot when one exists for this user's job and
// falls back to the job row.
func (ic *ImportsController) Progress(c *gin.Context) {
	if ic.progress != nil {
		snapshot, err := ic.progress.Get(c.Request.Context(), c.Param("id"))
		if err == nil && snapshot.UserID == GetUserID(c) {
			c.JSON(http.StatusOK, snapshot)
			return
		}
	}

	job, ok := ic.findJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, entities.ProgressOf(job))
}

// Cancel handles POST /api/imports/:id/cancel
func (ic *ImportsController) Cancel(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")

	job, err := ic.jobs.Cancel(ctx, id, GetUserID(c))
	switch {
	case errors.Is(err, jobs.ErrNotFound):
		respondNotFound(c, "import job")
		return
	case errors.Is(err, jobs.ErrNotCancellable):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "import job already " + string(job.Status),
			Code:    "not_cancellable",
			Details: gin.H{"status": job.Status},
		})
		return
	case err != nil:
		respondInternalError(c, err, "cancel import job")
		return
	}

	stopped := ic.stopper != nil && ic.stopper.Stop(id)
	if ic.progress != nil {
		if err := ic.progress.Publish(ctx, entities.ProgressOf(job)); err != nil {
			log.Printf("[IMPORT] job %s: publish cancellation: %v", id, err)
		}
	}

	log.Printf("[IMPORT] job %s: cancelled (running here: %t)", id, stopped)
	c.JSON(http.StatusOK, job)
}

func (ic *ImportsController) findJob(c *gin.Context) (*entities.ImportJob, bool) {
	job, err := ic.jobs.FindForUser(c.Request.Context(), c.Param("id"), GetUserID(c))
	if errors.Is(err, jobs.ErrNotFound) {
		respondNotFound(c, "import job")
		return nil, false
	}
	if err != nil {
		respondInternalError(c, err, "find import job")
		return nil, false
	}
	return job, true
}

// readArchiveField reads the archive form file, enforcing the upload limit
// and the .zip extension. It responds itself when it returns false.
func readArchiveField(c *gin.Context, maxUpload int64) (multipart.File, *multipart.FileHeader, bool) {
	if maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload)
	}

	file, header, err := c.Request.FormFile(archiveFormField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			respondError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("archive exceeds %d bytes", maxUpload))
			return nil, nil, false
		}
		respondBadRequest(c, "archive file is required")
		return nil, nil, false
	}

	if !strings.EqualFold(filepath.Ext(header.Filename), ".zip") {
		file.Close()
		respondBadRequest(c, "archive must be a .zip file")
		return nil, nil, false
	}
	return file, header, true
}

// saveUpload copies src to dir/name, creating dir when needed.
func saveUpload(src io.Reader, dir, name string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}

	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(path)
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return path, nil
}
