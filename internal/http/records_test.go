package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awatson1978/personal-health-record-sub000/internal/database"
	"github.com/awatson1978/personal-health-record-sub000/internal/database/resources"
	"github.com/awatson1978/personal-health-record-sub000/internal/entities"
)

func setupRecords(t *testing.T) (*gin.Engine, *resources.Repository) {
	t.Helper()

	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "records.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo := resources.NewRepository(db.DB, "facebook-archive")
	controller := NewRecordsController(repo)

	router := gin.New()
	router.Use(withUser(1))
	router.GET("/api/records/summary", controller.Summary)
	router.GET("/api/records/:type", controller.List)
	return router, repo
}

func TestRecordsController_Summary(t *testing.T) {
	router, repo := setupRecords(t)
	ctx := context.Background()

	require.NoError(t, repo.InsertPerson(ctx, 1, &entities.Person{}))
	require.NoError(t, repo.InsertPerson(ctx, 2, &entities.Person{}))

	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/records/summary", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Counts map[string]int64 `json:"counts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(1), resp.Counts[entities.ResourceTypePerson])
	assert.Equal(t, int64(0), resp.Counts[entities.ResourceTypeMedia])
}

func TestRecordsController_List(t *testing.T) {
	router, repo := setupRecords(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.InsertCommunication(ctx, 1, &entities.Communication{Payload: "hello", Sent: time.Now()}))
	}

	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/records/"+entities.ResourceTypeCommunication+"?limit=2", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var page struct {
		Data    []map[string]any `json:"data"`
		Total   int64            `json:"total"`
		Limit   int              `json:"limit"`
		HasMore bool             `json:"has_more"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Data, 2)
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 2, page.Limit)
	assert.True(t, page.HasMore)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/records/"+entities.ResourceTypeCommunication+"?limit=2&offset=2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Len(t, page.Data, 1)
	assert.False(t, page.HasMore)
}

func TestRecordsController_ListErrors(t *testing.T) {
	router, _ := setupRecords(t)

	w := serve(router, httptest.NewRequest(http.MethodGet, "/api/records/Observation", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(router, httptest.NewRequest(http.MethodGet, "/api/records/"+entities.ResourceTypePerson+"?offset=-3", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
