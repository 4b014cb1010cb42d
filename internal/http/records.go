package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/awatson1978/personal-health-record-sub000/internal/database/resources"
)

// RecordsController browses the records produced by imports.
type RecordsController struct {
	resources ResourceReader
}

func NewRecordsController(r ResourceReader) *RecordsController {
	return &RecordsController{resources: r}
}

// Summary handles GET /api/records/summary
func (rc *RecordsController) Summary(c *gin.Context) {
	counts, err := rc.resources.Summary(c.Request.Context(), GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "summarize records")
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

// List handles GET /api/records/:type
func (rc *RecordsController) List(c *gin.Context) {
	limit, offset, ok := parsePagination(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	userID := GetUserID(c)
	resourceType := c.Param("type")

	total, err := rc.resources.Count(ctx, userID, resourceType)
	if errors.Is(err, resources.ErrUnknownType) {
		respondNotFound(c, "resource type "+resourceType)
		return
	}
	if err != nil {
		respondInternalError(c, err, "count records")
		return
	}

	page, err := rc.resources.List(ctx, userID, resourceType, limit, offset)
	if err != nil {
		respondInternalError(c, err, "list records")
		return
	}

	c.JSON(http.StatusOK, PaginatedResponse{
		Data:    page,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: int64(offset+limit) < total,
	})
}
