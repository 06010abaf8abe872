package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/bhartnell/pmi-scheduler-sub002/internal/service"
	"github.com/bhartnell/pmi-scheduler-sub002/pkg/response"
)

// OverviewHandler exposes the dashboard and alert feed endpoints.
type OverviewHandler struct {
	overview *service.OverviewService
}

// NewOverviewHandler constructs OverviewHandler.
func NewOverviewHandler(overview *service.OverviewService) *OverviewHandler {
	return &OverviewHandler{overview: overview}
}

// Board godoc
// @Summary Program overview board, one row per tracked student
// @Tags Overview
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /overview [get]
func (h *OverviewHandler) Board(c *gin.Context) {
	board, cached, err := h.overview.Overview(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, board, nil, map[string]interface{}{"cached": cached})
}

// Alerts godoc
// @Summary Severity-bucketed alert feed
// @Tags Overview
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /alerts [get]
func (h *OverviewHandler) Alerts(c *gin.Context) {
	feed, cached, err := h.overview.Alerts(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, feed, nil, map[string]interface{}{"cached": cached})
}
