package handler

import (
	"net/http"
	"time"

	"procurement/internal/middleware"
	"procurement/internal/service"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatisticsHandler struct {
	statisticsService service.StatisticsService
	now               func() time.Time
}

func NewStatisticsHandler(statisticsService service.StatisticsService) *StatisticsHandler {
	return &StatisticsHandler{statisticsService: statisticsService, now: time.Now}
}

func (h *StatisticsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/statistics", middleware.RequirePermission("read_rfq", "read_quotation"), h.GetStatistics)
}

// parseDate accepts RFC3339 or a plain date; a plain end date covers the whole day
func parseDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return t, nil
}

// GetStatistics summarizes RFQs, quotations and awards in a date range
// @Summary      Procurement statistics
// @Description  Status counts, average evaluation score, awarded value and top suppliers. Defaults to the current month.
// @Tags         statistics
// @Security     BearerAuth
// @Produce      json
// @Param        start_date  query  string  false  "Start date (RFC3339 or YYYY-MM-DD)"
// @Param        end_date    query  string  false  "End date (RFC3339 or YYYY-MM-DD)"
// @Success      200  {object}  response.Response{data=model.StatisticsResponse}
// @Failure      400  {object}  response.Response
// @Failure      422  {object}  response.Response
// @Router       /api/statistics [get]
func (h *StatisticsHandler) GetStatistics(c *gin.Context) {
	now := h.now()
	startDate := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	endDate := now

	var err error
	if v := c.Query("start_date"); v != "" {
		if startDate, err = parseDate(v, false); err != nil {
			c.JSON(http.StatusBadRequest, response.Error("invalid start_date format, expected RFC3339 or YYYY-MM-DD"))
			return
		}
	}
	if v := c.Query("end_date"); v != "" {
		if endDate, err = parseDate(v, true); err != nil {
			c.JSON(http.StatusBadRequest, response.Error("invalid end_date format, expected RFC3339 or YYYY-MM-DD"))
			return
		}
	}

	stats, err := h.statisticsService.GetStatistics(c.Request.Context(), startDate, endDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("", stats))
}
