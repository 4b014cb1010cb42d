package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awatson1978/personal-health-record-sub000/internal/archive"
	"github.com/awatson1978/personal-health-record-sub000/internal/auth"
	"github.com/awatson1978/personal-health-record-sub000/internal/config"
	"github.com/awatson1978/personal-health-record-sub000/internal/database"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/jobs"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/resources"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/users"
)

func TestNewRouter_TokenAuth(t *testing.T) {
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "router.db"))
	require.NoError(t, err)
	defer db.Close()

	usersRepo := users.NewRepository(db.DB)
	_, token, err := usersRepo.CreateUser(context.Background(), "jamie", "jamie@example.com")
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Database:       db,
		Jobs:           jobs.NewRepository(db.DB),
		Resources:      resources.NewRepository(db.DB, "facebook-archive"),
		Queue:          &fakeQueue{},
		Stopper:        &fakeStopper{},
		Scanner:        archive.NewScanner(0),
		AuthMiddleware: auth.NewMiddleware(usersRepo, config.AuthModeToken, 0),
		UploadDir:      t.TempDir(),
		Version:        "test",
	})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/imports", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	for _, path := range []string{"/api/imports", "/api/records/summary", "/api/records/Person"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w = serve(router, req)
		assert.Equal(t, http.StatusOK, w.Code, path)
	}

	// Task endpoints are absent without a task client.
	req := httptest.NewRequest(http.MethodGet, "/api/tasks/types", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w = serve(router, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
