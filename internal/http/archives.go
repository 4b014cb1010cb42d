package http

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/awatson1978/personal-health-record-sub000/internal/archive"
)

// ArchivesController inspects archives without importing them.
type ArchivesController struct {
	scanner   *archive.Scanner
	maxUpload int64
}

func NewArchivesController(scanner *archive.Scanner, maxUpload int64) *ArchivesController {
	return &ArchivesController{scanner: scanner, maxUpload: maxUpload}
}

// ScanResponse lists what an archive contains and what would be parsed first.
type ScanResponse struct {
	Inventory      *archive.Inventory     `json:"inventory"`
	Recommendation archive.Recommendation `json:"recommendation"`
}

// Scan handles POST /api/archives/scan
func (ac *ArchivesController) Scan(c *gin.Context) {
	file, header, ok := readArchiveField(c, ac.maxUpload)
	if !ok {
		return
	}
	defer file.Close()

	tempDir, err := os.MkdirTemp("", "archive-scan-*")
	if err != nil {
		respondInternalError(c, err, "create scan dir")
		return
	}
	defer os.RemoveAll(tempDir)

	path, err := saveUpload(file, tempDir, "archive.zip")
	if err != nil {
		respondInternalError(c, err, "store scan upload")
		return
	}

	inv, err := ac.scanner.Scan(path)
	if err != nil {
		respondBadRequest(c, "unreadable archive")
		return
	}
	inv.Root = header.Filename

	c.JSON(http.StatusOK, ScanResponse{
		Inventory:      inv,
		Recommendation: ac.scanner.Recommend(inv),
	})
}
