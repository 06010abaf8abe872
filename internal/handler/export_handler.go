package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/service"
	"github.com/bhartnell/pmi-scheduler-sub002/pkg/response"
)

// ExportHandler serves generated roster downloads.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// ComplianceCSV godoc
// @Summary Download the compliance roster as CSV
// @Tags Exports
// @Produce text/csv
// @Success 200
// @Router /exports/compliance.csv [get]
func (h *ExportHandler) ComplianceCSV(c *gin.Context) {
	h.serve(c, service.FormatCSV)
}

// CompliancePDF godoc
// @Summary Download the compliance roster as PDF
// @Tags Exports
// @Produce application/pdf
// @Success 200
// @Router /exports/compliance.pdf [get]
func (h *ExportHandler) CompliancePDF(c *gin.Context) {
	h.serve(c, service.FormatPDF)
}

func (h *ExportHandler) serve(c *gin.Context, format service.ExportFormat) {
	result, err := h.exports.ComplianceRoster(c.Request.Context(), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	c.Data(http.StatusOK, result.ContentType, result.Data)
}
