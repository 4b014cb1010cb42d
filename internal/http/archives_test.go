package http

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awatson1978/personal-health-record-sub000/internal/archive"
)

func TestArchivesController_Scan(t *testing.T) {
	controller := NewArchivesController(archive.NewScanner(0), 0)
	router := gin.New()
	router.POST("/api/archives/scan", controller.Scan)

	data := zipBytes(t, map[string]string{
		"posts/your_posts_1.json":            `[{"data": [{"post": "hello"}]}]`,
		"friends/your_friends.json":          `{"friends_v2": []}`,
		"location/location_history.json":     `{}`,
		"ads_information/advertisers.json":   `{}`,
		"messages/inbox/alex/message_1.json": `{"messages": []}`,
	})

	w := serve(router, multipartRequest(t, "/api/archives/scan", "export.zip", data))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp ScanResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "export.zip", resp.Inventory.Root)
	assert.True(t, resp.Inventory.IsZip)
	assert.Len(t, resp.Inventory.ByCategory[archive.CategoryPosts], 1)
	assert.Len(t, resp.Inventory.ByCategory[archive.CategoryFriends], 1)
	assert.Len(t, resp.Inventory.ByCategory[archive.CategoryMessages], 1)
	assert.NotEmpty(t, resp.Inventory.Excluded)
	assert.NotEmpty(t, resp.Recommendation.Files)
	assert.Equal(t, archive.DefaultBudget, resp.Recommendation.Budget)
}

func TestArchivesController_ScanRejectsGarbage(t *testing.T) {
	controller := NewArchivesController(archive.NewScanner(0), 0)
	router := gin.New()
	router.POST("/api/archives/scan", controller.Scan)

	w := serve(router, multipartRequest(t, "/api/archives/scan", "export.zip", []byte("not a zip")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
