package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/dto"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/service"
	appErrors "github.com/bhartnell/pmi-scheduler-sub002/pkg/errors"
	"github.com/bhartnell/pmi-scheduler-sub002/pkg/response"
)

// CohortHandler exposes cohort endpoints.
type CohortHandler struct {
	cohorts *service.CohortService
}

// NewCohortHandler constructs CohortHandler.
func NewCohortHandler(cohorts *service.CohortService) *CohortHandler {
	return &CohortHandler{cohorts: cohorts}
}

// List godoc
// @Summary List cohorts
// @Tags Cohorts
// @Produce json
// @Param archived query bool false "Filter by archived state"
// @Param search query string false "Search by name"
// @Success 200 {object} response.Envelope
// @Router /cohorts [get]
func (h *CohortHandler) List(c *gin.Context) {
	var filter models.CohortFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	if archived := c.Query("archived"); archived != "" {
		v := archived == "true"
		filter.Archived = &v
	}
	filter.Page, filter.PageSize = pageParams(c)

	cohorts, total, err := h.cohorts.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cohorts, paginationOf(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Get cohort detail
// @Tags Cohorts
// @Produce json
// @Param id path string true "Cohort ID"
// @Success 200 {object} response.Envelope
// @Router /cohorts/{id} [get]
func (h *CohortHandler) Get(c *gin.Context) {
	cohort, err := h.cohorts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cohort, nil)
}

// Create godoc
// @Summary Open a new cohort
// @Tags Cohorts
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /cohorts [post]
func (h *CohortHandler) Create(c *gin.Context) {
	var req dto.CreateCohortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid cohort payload"))
		return
	}
	cohort, err := h.cohorts.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cohort)
}

// Archive godoc
// @Summary Archive a cohort and deactivate its students
// @Tags Cohorts
// @Param id path string true "Cohort ID"
// @Success 204
// @Router /cohorts/{id}/archive [post]
func (h *CohortHandler) Archive(c *gin.Context) {
	if err := h.cohorts.Archive(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
