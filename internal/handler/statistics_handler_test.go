package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"procurement/internal/model"
	"procurement/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

type fakeStatisticsService struct {
	start, end time.Time
}

func (f *fakeStatisticsService) GetStatistics(_ context.Context, start, end time.Time) (model.StatisticsResponse, error) {
	f.start, f.end = start, end
	if end.Before(start) {
		return model.StatisticsResponse{}, service.ValidationErrors{"end_date": "must not be before start_date"}
	}
	return model.StatisticsResponse{TotalRFQs: 3, RFQsByStatus: map[string]int64{"draft": 3}}, nil
}

func newStatisticsRouter(svc service.StatisticsService, perms ...string) *gin.Engine {
	h := NewStatisticsHandler(svc)
	h.now = func() time.Time { return time.Date(2026, 3, 17, 12, 0, 0, 0, time.UTC) }
	return newTestRouter(perms, h.RegisterRoutes)
}

func TestStatisticsDefaultsToCurrentMonth(t *testing.T) {
	svc := &fakeStatisticsService{}
	r := newStatisticsRouter(svc, "read_rfq", "read_quotation")

	w := doJSON(r, http.MethodGet, "/api/statistics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), svc.start)
	require.Equal(t, time.Date(2026, 3, 17, 12, 0, 0, 0, time.UTC), svc.end)

	var stats model.StatisticsResponse
	require.NoError(t, json.Unmarshal(decode(t, w).Data, &stats))
	require.Equal(t, int64(3), stats.TotalRFQs)
}

func TestStatisticsDateParsing(t *testing.T) {
	svc := &fakeStatisticsService{}
	r := newStatisticsRouter(svc, "read_rfq", "read_quotation")

	w := doJSON(r, http.MethodGet, "/api/statistics?start_date=2026-01-01&end_date=2026-01-31", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, time.Date(2026, 1, 31, 23, 59, 59, 999999999, time.UTC), svc.end)

	w = doJSON(r, http.MethodGet, "/api/statistics?start_date=yesterday", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodGet, "/api/statistics?start_date=2026-02-01&end_date=2026-01-01", nil)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, decode(t, w).Errors, "end_date")
}

func TestStatisticsRequiresBothReadPermissions(t *testing.T) {
	r := newStatisticsRouter(&fakeStatisticsService{}, "read_rfq")
	w := doJSON(r, http.MethodGet, "/api/statistics", nil)
	require.Equal(t, http.StatusForbidden, w.Code)
}
