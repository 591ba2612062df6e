package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/protomforms/response-service/internal/circuitbreaker"
	"github.com/protomforms/response-service/internal/domain/dto"
	"github.com/protomforms/response-service/internal/service"
)

// StatsHandler provides HTTP handlers for the cached aggregate endpoints.
type StatsHandler struct {
	stats *service.StatsService
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(stats *service.StatsService) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// DashboardStats handles GET /api/dashboard/stats requests.
//
// @Summary      Dashboard statistics
// @Description  Returns aggregate counts for the admin dashboard, optionally scoped to a single form. Results are cached; concurrent cold reads share one computation.
// @Tags         Dashboard
// @Produce      json
// @Param        formId query string false "Scope the statistics to one form"
// @Success      200 {object} dto.SuccessResponse{data=model.DashboardStats}
// @Failure      503 {object} dto.ErrorResponse "Aggregate store unavailable"
// @Router       /api/dashboard/stats [get]
func (h *StatsHandler) DashboardStats(c *gin.Context) {
	builder := NewResponseBuilder(c)

	stats, err := h.stats.DashboardStats(c.Request.Context(), c.Query("formId"))
	if err != nil {
		builder.Error(aggregateStatus(err), "Could not compute dashboard statistics", err)
		return
	}

	builder.SuccessOK(stats)
}

// FormsSummary handles GET /api/forms/summary requests.
//
// @Summary      Forms summary
// @Description  Returns the form listing with response counts. Cached per search/status filter combination.
// @Tags         Dashboard
// @Produce      json
// @Param        search query string false "Match against title and description"
// @Param        status query string false "Filter by lifecycle status (DRAFT, PUBLISHED, ARCHIVED, all)"
// @Success      200 {object} dto.SuccessResponse{data=[]model.FormSummary}
// @Failure      503 {object} dto.ErrorResponse "Aggregate store unavailable"
// @Router       /api/forms/summary [get]
func (h *StatsHandler) FormsSummary(c *gin.Context) {
	builder := NewResponseBuilder(c)

	filter := dto.SummaryFilter{
		Search: c.Query("search"),
		Status: c.Query("status"),
	}
	summaries, err := h.stats.FormsSummary(c.Request.Context(), filter)
	if err != nil {
		builder.Error(aggregateStatus(err), "Could not compute forms summary", err)
		return
	}

	builder.SuccessOK(summaries)
}

// aggregateStatus maps aggregate compute failures to HTTP status codes.
func aggregateStatus(err error) int {
	if errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
