package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/dto"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/models"
	"github.com/bhartnell/pmi-scheduler-sub002/internal/service"
	appErrors "github.com/bhartnell/pmi-scheduler-sub002/pkg/errors"
	"github.com/bhartnell/pmi-scheduler-sub002/pkg/response"
)

// InternshipHandler exposes internship lifecycle endpoints.
type InternshipHandler struct {
	internships *service.InternshipService
}

// NewInternshipHandler constructs InternshipHandler.
func NewInternshipHandler(internships *service.InternshipService) *InternshipHandler {
	return &InternshipHandler{internships: internships}
}

// List godoc
// @Summary List internships
// @Tags Internships
// @Produce json
// @Param studentId query string false "Filter by student"
// @Param phase query string false "Filter by phase"
// @Success 200 {object} response.Envelope
// @Router /internships [get]
func (h *InternshipHandler) List(c *gin.Context) {
	var filter models.InternshipFilter
	filter.StudentID = c.Query("studentId")
	filter.CohortID = c.Query("cohortId")
	filter.Phase = models.Phase(c.Query("phase"))
	if active := c.Query("active"); active != "" {
		v := active == "true"
		filter.Active = &v
	}
	filter.Page, filter.PageSize = pageParams(c)

	internships, total, err := h.internships.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, internships, paginationOf(filter.Page, filter.PageSize, total))
}

// Get godoc
// @Summary Get internship detail
// @Tags Internships
// @Produce json
// @Param id path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Router /internships/{id} [get]
func (h *InternshipHandler) Get(c *gin.Context) {
	internship, err := h.internships.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, internship, nil)
}

// Place godoc
// @Summary Place a student with an agency
// @Tags Internships
// @Accept json
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /internships [post]
func (h *InternshipHandler) Place(c *gin.Context) {
	var req dto.PlaceInternshipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid placement payload"))
		return
	}
	internship, err := h.internships.Place(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, internship)
}

// UpdateSchedule godoc
// @Summary Adjust milestone dates
// @Tags Internships
// @Accept json
// @Produce json
// @Param id path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Router /internships/{id}/schedule [patch]
func (h *InternshipHandler) UpdateSchedule(c *gin.Context) {
	var req dto.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload"))
		return
	}
	internship, err := h.internships.UpdateSchedule(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, internship, nil)
}

// UpdatePhase godoc
// @Summary Move an internship to the next lifecycle phase
// @Tags Internships
// @Accept json
// @Produce json
// @Param id path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Router /internships/{id}/phase [patch]
func (h *InternshipHandler) UpdatePhase(c *gin.Context) {
	var req dto.UpdatePhaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid phase payload"))
		return
	}
	internship, err := h.internships.UpdatePhase(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, internship, nil)
}

// UpdateProgress godoc
// @Summary Toggle milestone completion flags
// @Tags Internships
// @Accept json
// @Produce json
// @Param id path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Router /internships/{id}/progress [patch]
func (h *InternshipHandler) UpdateProgress(c *gin.Context) {
	var req dto.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid progress payload"))
		return
	}
	internship, err := h.internships.UpdateProgress(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, internship, nil)
}

// UpdateClearances godoc
// @Summary Toggle placement clearance flags
// @Tags Internships
// @Accept json
// @Produce json
// @Param id path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Router /internships/{id}/clearances [patch]
func (h *InternshipHandler) UpdateClearances(c *gin.Context) {
	var req dto.UpdateClearancesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid clearances payload"))
		return
	}
	internship, err := h.internships.UpdateClearances(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, internship, nil)
}

// Extension godoc
// @Summary Grant an internship extension
// @Tags Internships
// @Accept json
// @Produce json
// @Param id path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Router /internships/{id}/extension [post]
func (h *InternshipHandler) Extension(c *gin.Context) {
	var req dto.ExtensionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid extension payload"))
		return
	}
	internship, err := h.internships.RecordExtension(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, internship, nil)
}

// Withdraw godoc
// @Summary Withdraw a student from an internship
// @Tags Internships
// @Accept json
// @Produce json
// @Param id path string true "Internship ID"
// @Success 200 {object} response.Envelope
// @Router /internships/{id}/withdraw [post]
func (h *InternshipHandler) Withdraw(c *gin.Context) {
	var req dto.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid withdrawal payload"))
		return
	}
	internship, err := h.internships.Withdraw(c.Request.Context(), c.Param("id"), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, internship, nil)
}
