package repository

import (
	"context"

	"procurement/internal/model"
	"procurement/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type EvaluationRepository interface {
	Create(ctx context.Context, e *model.Evaluation) error
	Update(ctx context.Context, e *model.Evaluation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Evaluation, error)
	FindByQuotationID(ctx context.Context, quotationID uuid.UUID) (*model.Evaluation, error)
	ListByRFQ(ctx context.Context, rfqID uuid.UUID, shortlistedOnly bool, p pagination.Params) ([]model.Evaluation, int64, error)
	// TopShortlistedScore is false when the RFQ has no shortlisted evaluation
	TopShortlistedScore(ctx context.Context, rfqID uuid.UUID) (decimal.Decimal, bool, error)
}

type evaluationRepository struct {
	db *gorm.DB
}

func NewEvaluationRepository(db *gorm.DB) EvaluationRepository {
	return &evaluationRepository{db: db}
}

var evaluationSortColumns = map[string]string{
	"total_score":       "total_score",
	"price_score":       "price_score",
	"delivery_score":    "delivery_score",
	"financial_score":   "financial_score",
	"performance_score": "performance_score",
	"compliance_score":  "compliance_score",
	"created_at":        "created_at",
}

func (r *evaluationRepository) Create(ctx context.Context, e *model.Evaluation) error {
	return GetDB(ctx, r.db).Omit("Quotation").Create(e).Error
}

func (r *evaluationRepository) Update(ctx context.Context, e *model.Evaluation) error {
	return GetDB(ctx, r.db).Omit("Quotation").Save(e).Error
}

func (r *evaluationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Evaluation, error) {
	var e model.Evaluation
	if err := GetDB(ctx, r.db).Preload("Quotation.Supplier").First(&e, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *evaluationRepository) FindByQuotationID(ctx context.Context, quotationID uuid.UUID) (*model.Evaluation, error) {
	var e model.Evaluation
	if err := GetDB(ctx, r.db).First(&e, "quotation_id = ?", quotationID).Error; err != nil {
		return nil, err
	}
	return &e, nil
}

// ListByRFQ defaults to total_score DESC so the best candidates come first
func (r *evaluationRepository) ListByRFQ(ctx context.Context, rfqID uuid.UUID, shortlistedOnly bool, p pagination.Params) ([]model.Evaluation, int64, error) {
	var evaluations []model.Evaluation
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Evaluation{}).Where("rfq_id = ?", rfqID)
	if shortlistedOnly {
		query = query.Where("is_shortlisted = ?", true)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Quotation.Supplier").
		Order(p.OrderClause(evaluationSortColumns, "total_score DESC")).
		Order("created_at ASC").
		Offset(p.Offset).Limit(p.PerPage).
		Find(&evaluations).Error
	if err != nil {
		return nil, 0, err
	}
	return evaluations, total, nil
}

func (r *evaluationRepository) TopShortlistedScore(ctx context.Context, rfqID uuid.UUID) (decimal.Decimal, bool, error) {
	var top struct {
		Value decimal.NullDecimal
	}
	err := GetDB(ctx, r.db).Model(&model.Evaluation{}).
		Select("MAX(total_score) AS value").
		Where("rfq_id = ? AND is_shortlisted = ?", rfqID, true).
		Scan(&top).Error
	if err != nil || !top.Value.Valid {
		return decimal.Zero, false, err
	}
	return top.Value.Decimal, true, nil
}
