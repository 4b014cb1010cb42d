package http

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awatson1978/personal-health-record-sub000/internal/auth"
	"github.com/awatson1978/personal-health-record-sub000/internal/database"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/jobs"
	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
	"github.com/awatson1978/personal-health-record-sub000/internal/progress"
)

type fakeQueue struct {
	mu     sync.Mutex
	queued []string
	err    error
}

func (q *fakeQueue) EnqueueImport(jobID string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.queued = append(q.queued, jobID)
	return nil
}

type fakeStopper struct {
	stopped []string
}

func (s *fakeStopper) Stop(jobID string) bool {
	s.stopped = append(s.stopped, jobID)
	return true
}

type memProgress struct {
	snapshots map[string]entities.ImportProgress
}

func (m *memProgress) Get(ctx context.Context, jobID string) (*entities.ImportProgress, error) {
	p, ok := m.snapshots[jobID]
	if !ok {
		return nil, progress.ErrNotFound
	}
	return &p, nil
}

func (m *memProgress) Publish(ctx context.Context, p entities.ImportProgress) error {
	m.snapshots[p.JobID] = p
	return nil
}

type importsFixture struct {
	router    *gin.Engine
	jobs      *jobs.Repository
	queue     *fakeQueue
	stopper   *fakeStopper
	progress  *memProgress
	uploadDir string
}

// withUser mimics the auth middleware for a fixed account.
func withUser(id uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, id)
		c.Next()
	}
}

func setupImports(t *testing.T, userID uint, maxUpload int64) *importsFixture {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "imports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	fx := &importsFixture{
		jobs:      jobs.NewRepository(db.DB),
		queue:     &fakeQueue{},
		stopper:   &fakeStopper{},
		progress:  &memProgress{snapshots: map[string]entities.ImportProgress{}},
		uploadDir: filepath.Join(t.TempDir(), "uploads"),
	}

	controller := NewImportsController(fx.jobs, fx.queue, fx.stopper, fx.uploadDir, maxUpload)
	controller.SetProgressStore(fx.progress)

	fx.router = gin.New()
	fx.router.Use(withUser(userID))
	fx.router.POST("/api/imports", controller.Upload)
	fx.router.GET("/api/imports", controller.List)
	fx.router.GET("/api/imports/:id", controller.Get)
	fx.router.GET("/api/imports/:id/progress", controller.Progress)
	fx.router.POST("/api/imports/:id/cancel", controller.Cancel)
	return fx
}

func zipBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func multipartRequest(t *testing.T, url, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(archiveFormField, filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, url, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func serve(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestImportsController_Upload(t *testing.T) {
	fx := setupImports(t, 1, 0)
	archiveData := zipBytes(t, map[string]string{"posts/your_posts_1.json": `[]`})

	w := serve(fx.router, multipartRequest(t, "/api/imports", "facebook-jamie.zip", archiveData))
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, entities.JobStatusPending, resp.Status)
	assert.Equal(t, "facebook-jamie.zip", resp.Filename)
	assert.Equal(t, []string{resp.JobID}, fx.queue.queued)

	job, err := fx.jobs.FindForUser(context.Background(), resp.JobID, 1)
	require.NoError(t, err)
	assert.Equal(t, fx.uploadDir, filepath.Dir(job.FilePath))
	stored, err := os.ReadFile(job.FilePath)
	require.NoError(t, err)
	assert.Equal(t, archiveData, stored)
}

func TestImportsController_UploadValidation(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		fx := setupImports(t, 1, 0)
		req := httptest.NewRequest(http.MethodPost, "/api/imports", nil)
		w := serve(fx.router, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("not a zip", func(t *testing.T) {
		fx := setupImports(t, 1, 0)
		w := serve(fx.router, multipartRequest(t, "/api/imports", "notes.txt", []byte("hello")))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), ".zip")
		assert.Empty(t, fx.queue.queued)
	})

	t.Run("too large", func(t *testing.T) {
		fx := setupImports(t, 1, 1024)
		w := serve(fx.router, multipartRequest(t, "/api/imports", "big.zip", bytes.Repeat([]byte("x"), 4096)))
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Empty(t, fx.queue.queued)
	})
}

func TestImportsController_UploadEnqueueFailure(t *testing.T) {
	fx := setupImports(t, 1, 0)
	fx.queue.err = errors.New("queue closed")

	w := serve(fx.router, multipartRequest(t, "/api/imports", "a.zip", zipBytes(t, nil)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	list, err := fx.jobs.ListByUser(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, entities.JobStatusCancelled, list[0].Status)
}

func TestImportsController_ListAndGet(t *testing.T) {
	fx := setupImports(t, 1, 0)
	ctx := context.Background()

	mine, err := fx.jobs.Create(ctx, 1, "mine.zip", "/tmp/mine.zip")
	require.NoError(t, err)
	theirs, err := fx.jobs.Create(ctx, 2, "theirs.zip", "/tmp/theirs.zip")
	require.NoError(t, err)

	w := serve(fx.router, httptest.NewRequest(http.MethodGet, "/api/imports", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var listResp struct {
		Jobs []entities.ImportJob `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listResp))
	require.Len(t, listResp.Jobs, 1)
	assert.Equal(t, mine.ID, listResp.Jobs[0].ID)
	assert.NotContains(t, w.Body.String(), "/tmp/mine.zip")

	w = serve(fx.router, httptest.NewRequest(http.MethodGet, "/api/imports/"+mine.ID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(fx.router, httptest.NewRequest(http.MethodGet, "/api/imports/"+theirs.ID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(fx.router, httptest.NewRequest(http.MethodGet, "/api/imports?limit=nope", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportsController_Progress(t *testing.T) {
	fx := setupImports(t, 1, 0)
	ctx := context.Background()

	job, err := fx.jobs.Create(ctx, 1, "a.zip", "")
	require.NoError(t, err)

	t.Run("falls back to the job row", func(t *testing.T) {
		w := serve(fx.router, httptest.NewRequest(http.MethodGet, "/api/imports/"+job.ID+"/progress", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var p entities.ImportProgress
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		assert.Equal(t, entities.JobStatusPending, p.Status)
		assert.Equal(t, 0, p.Progress)
	})

	t.Run("prefers the mirrored snapshot", func(t *testing.T) {
		fx.progress.snapshots[job.ID] = entities.ImportProgress{
			JobID: job.ID, UserID: 1, Status: entities.JobStatusProcessing, Phase: entities.PhasePosts, Progress: 42,
		}
		w := serve(fx.router, httptest.NewRequest(http.MethodGet, "/api/imports/"+job.ID+"/progress", nil))
		require.Equal(t, http.StatusOK, w.Code)

		var p entities.ImportProgress
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &p))
		assert.Equal(t, 42, p.Progress)
		assert.Equal(t, entities.PhasePosts, p.Phase)
	})

	t.Run("ignores another user's snapshot", func(t *testing.T) {
		fx.progress.snapshots["foreign"] = entities.ImportProgress{JobID: "foreign", UserID: 2, Progress: 50}
		w := serve(fx.router, httptest.NewRequest(http.MethodGet, "/api/imports/foreign/progress", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestImportsController_Cancel(t *testing.T) {
	fx := setupImports(t, 1, 0)
	ctx := context.Background()

	job, err := fx.jobs.Create(ctx, 1, "a.zip", "")
	require.NoError(t, err)

	w := serve(fx.router, httptest.NewRequest(http.MethodPost, "/api/imports/"+job.ID+"/cancel", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var cancelled entities.ImportJob
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &cancelled))
	assert.Equal(t, entities.JobStatusCancelled, cancelled.Status)
	assert.Equal(t, []string{job.ID}, fx.stopper.stopped)
	assert.Equal(t, entities.JobStatusCancelled, fx.progress.snapshots[job.ID].Status)

	w = serve(fx.router, httptest.NewRequest(http.MethodPost, "/api/imports/"+job.ID+"/cancel", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "not_cancellable")

	w = serve(fx.router, httptest.NewRequest(http.MethodPost, "/api/imports/missing/cancel", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
