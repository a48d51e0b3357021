package repository

import (
	"context"
	"time"

	"procurement/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatisticsRepository interface {
	RFQsByStatus(ctx context.Context, start, end time.Time) ([]model.StatusCount, error)
	QuotationsByStatus(ctx context.Context, start, end time.Time) ([]model.StatusCount, error)
	AverageScore(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	AwardedValue(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	TopSuppliers(ctx context.Context, start, end time.Time, limit int) ([]model.SupplierRanking, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

func (r *statisticsRepository) RFQsByStatus(ctx context.Context, start, end time.Time) ([]model.StatusCount, error) {
	var rows []model.StatusCount
	err := r.db.WithContext(ctx).Model(&model.RFQ{}).
		Select("status, COUNT(*) AS count").
		Where("created_at >= ? AND created_at <= ?", start, end).
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func (r *statisticsRepository) QuotationsByStatus(ctx context.Context, start, end time.Time) ([]model.StatusCount, error) {
	var rows []model.StatusCount
	err := r.db.WithContext(ctx).Model(&model.Quotation{}).
		Select("status, COUNT(*) AS count").
		Where("created_at >= ? AND created_at <= ?", start, end).
		Group("status").
		Scan(&rows).Error
	return rows, err
}

func (r *statisticsRepository) AverageScore(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	var avg struct {
		Value decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).Model(&model.Evaluation{}).
		Select("AVG(total_score) AS value").
		Where("created_at >= ? AND created_at <= ?", start, end).
		Scan(&avg).Error
	if err != nil || !avg.Value.Valid {
		return decimal.Zero, err
	}
	return avg.Value.Decimal.Round(2), nil
}

var awardedStatuses = []string{"awarded", "po_generated"}

func (r *statisticsRepository) AwardedValue(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	var total struct {
		Value decimal.NullDecimal
	}
	err := r.db.WithContext(ctx).Model(&model.Quotation{}).
		Select("SUM(total_amount) AS value").
		Where("status IN ? AND updated_at >= ? AND updated_at <= ?", awardedStatuses, start, end).
		Scan(&total).Error
	if err != nil || !total.Value.Valid {
		return decimal.Zero, err
	}
	return total.Value.Decimal, nil
}

// TopSuppliers counts quotations that reached awarded or later
func (r *statisticsRepository) TopSuppliers(ctx context.Context, start, end time.Time, limit int) ([]model.SupplierRanking, error) {
	var rows []model.SupplierRanking
	err := r.db.WithContext(ctx).Table("quotations").
		Select("suppliers.id AS supplier_id, suppliers.legal_name AS legal_name, COUNT(quotations.id) AS award_count, COALESCE(SUM(quotations.total_amount), 0) AS awarded_value").
		Joins("JOIN suppliers ON suppliers.id = quotations.supplier_id").
		Where("quotations.status IN ? AND quotations.updated_at >= ? AND quotations.updated_at <= ?", awardedStatuses, start, end).
		Group("suppliers.id, suppliers.legal_name").
		Order("awarded_value DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}
