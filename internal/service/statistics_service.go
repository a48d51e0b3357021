package service

import (
	"context"
	"fmt"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/internal/workflow"
)

const topSupplierLimit = 5

type StatisticsService interface {
	GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error)
}

type statisticsService struct {
	repo repository.StatisticsRepository
}

func NewStatisticsService(repo repository.StatisticsRepository) StatisticsService {
	return &statisticsService{repo: repo}
}

// GetStatistics aggregates RFQs, quotations and awards created inside the range.
// Every known status appears in the counts, zero when nothing matched.
func (s *statisticsService) GetStatistics(ctx context.Context, startDate, endDate time.Time) (model.StatisticsResponse, error) {
	if endDate.Before(startDate) {
		return model.StatisticsResponse{}, invalid("end_date", "must not be before start_date")
	}
	resp := model.StatisticsResponse{
		RFQsByStatus:       map[string]int64{},
		QuotationsByStatus: map[string]int64{},
		TimeRangeStartDate: startDate,
		TimeRangeEndDate:   endDate,
	}
	for _, st := range workflow.RFQStatuses() {
		resp.RFQsByStatus[string(st)] = 0
	}
	for _, st := range workflow.QuotationStatuses() {
		resp.QuotationsByStatus[string(st)] = 0
	}

	rfqs, err := s.repo.RFQsByStatus(ctx, startDate, endDate)
	if err != nil {
		return resp, fmt.Errorf("failed to count rfqs: %w", err)
	}
	for _, row := range rfqs {
		resp.RFQsByStatus[row.Status] += row.Count
		resp.TotalRFQs += row.Count
	}

	quotations, err := s.repo.QuotationsByStatus(ctx, startDate, endDate)
	if err != nil {
		return resp, fmt.Errorf("failed to count quotations: %w", err)
	}
	for _, row := range quotations {
		resp.QuotationsByStatus[row.Status] += row.Count
		resp.TotalQuotations += row.Count
	}

	if resp.AverageScore, err = s.repo.AverageScore(ctx, startDate, endDate); err != nil {
		return resp, fmt.Errorf("failed to average scores: %w", err)
	}

	top, err := s.repo.TopSuppliers(ctx, startDate, endDate, topSupplierLimit)
	if err != nil {
		return resp, fmt.Errorf("failed to rank suppliers: %w", err)
	}
	resp.TopSuppliers = top

	if resp.AwardedValue, err = s.repo.AwardedValue(ctx, startDate, endDate); err != nil {
		return resp, fmt.Errorf("failed to total awards: %w", err)
	}
	return resp, nil
}
