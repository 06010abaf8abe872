package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/dto"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/service"
	appErrors "github.com/bhartnell/pmi-scheduler-sub002/pkg/errors"
	"github.com/bhartnell/pmi-scheduler-sub002/pkg/response"
)

// ComplianceHandler exposes clinical document endpoints.
type ComplianceHandler struct {
	compliance *service.ComplianceService
}

// NewComplianceHandler constructs ComplianceHandler.
func NewComplianceHandler(compliance *service.ComplianceService) *ComplianceHandler {
	return &ComplianceHandler{compliance: compliance}
}

// Status godoc
// @Summary Get a student's document readiness rollup
// @Tags Compliance
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/compliance [get]
func (h *ComplianceHandler) Status(c *gin.Context) {
	status, err := h.compliance.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}

// Upsert godoc
// @Summary Record a document state change
// @Tags Compliance
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param docType path string true "Document type"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/compliance/{docType} [put]
func (h *ComplianceHandler) Upsert(c *gin.Context) {
	var req dto.UpsertComplianceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid compliance payload"))
		return
	}
	req.DocType = c.Param("docType")
	record, err := h.compliance.Upsert(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}
