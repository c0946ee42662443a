package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sitegrade/models"
	"github.com/use-agent/sitegrade/store"
)

// ListReports returns the handler for GET /api/v1/reports.
// Results are ordered newest first; ?limit= caps the page size.
func ListReports(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))

		records, err := s.List(c.Request.Context(), limit)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.AssessResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInternal,
					Message: "failed to list reports",
				},
			})
			return
		}

		c.JSON(http.StatusOK, models.ReportListResponse{
			Reports: records,
			Total:   len(records),
		})
	}
}

// DownloadReport returns the handler for GET /api/v1/reports/:id/pdf.
// It serves the rendered document as an attachment.
func DownloadReport(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")

		rec, err := s.Get(c.Request.Context(), id)
		if errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, models.AssessResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: "report not found: " + id,
				},
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.AssessResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInternal,
					Message: "failed to load report",
				},
			})
			return
		}

		c.FileAttachment(rec.PDFPath, rec.ID+".pdf")
	}
}
