package repository

import (
	"context"
	"time"

	"procurement/internal/model"
	"procurement/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuotationRepository interface {
	Create(ctx context.Context, q *model.Quotation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Quotation, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Quotation, error)
	ExistsForSupplier(ctx context.Context, rfqID, supplierID uuid.UUID) (bool, error)
	ListByRFQ(ctx context.Context, rfqID uuid.UUID, status string, p pagination.Params) ([]model.Quotation, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	CountAwarded(ctx context.Context, rfqID uuid.UUID) (int64, error)
}

type quotationRepository struct {
	db *gorm.DB
}

func NewQuotationRepository(db *gorm.DB) QuotationRepository {
	return &quotationRepository{db: db}
}

var quotationSortColumns = map[string]string{
	"total_amount": "total_amount",
	"status":       "status",
	"created_at":   "created_at",
}

func (r *quotationRepository) Create(ctx context.Context, q *model.Quotation) error {
	return GetDB(ctx, r.db).Omit("RFQ", "Supplier", "Evaluation", "Items.Product").Create(q).Error
}

func (r *quotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Quotation, error) {
	var q model.Quotation
	err := GetDB(ctx, r.db).
		Preload("Items.Product").Preload("Supplier").Preload("Evaluation").Preload("RFQ").
		First(&q, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quotationRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Quotation, error) {
	var q model.Quotation
	if err := forUpdate(ctx, GetDB(ctx, r.db)).First(&q, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *quotationRepository) ExistsForSupplier(ctx context.Context, rfqID, supplierID uuid.UUID) (bool, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Quotation{}).
		Where("rfq_id = ? AND supplier_id = ?", rfqID, supplierID).
		Count(&n).Error
	return n > 0, err
}

func (r *quotationRepository) ListByRFQ(ctx context.Context, rfqID uuid.UUID, status string, p pagination.Params) ([]model.Quotation, int64, error) {
	var quotations []model.Quotation
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Quotation{}).Where("quotations.rfq_id = ?", rfqID)
	if status != "" {
		query = query.Where("quotations.status = ?", status)
	}
	if p.Search != "" {
		s := ilike(p.Search)
		query = query.Joins("JOIN suppliers ON suppliers.id = quotations.supplier_id").
			Where("suppliers.legal_name ILIKE ? OR suppliers.trade_name ILIKE ? OR quotations.notes ILIKE ?", s, s, s)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Supplier").Preload("Evaluation").Preload("Items").
		Order("quotations." + p.OrderClause(quotationSortColumns, "created_at DESC")).
		Offset(p.Offset).Limit(p.PerPage).
		Find(&quotations).Error
	if err != nil {
		return nil, 0, err
	}
	return quotations, total, nil
}

func (r *quotationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Quotation{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

func (r *quotationRepository) CountAwarded(ctx context.Context, rfqID uuid.UUID) (int64, error) {
	var n int64
	err := GetDB(ctx, r.db).Model(&model.Quotation{}).
		Where("rfq_id = ? AND status IN ?", rfqID, []string{"awarded", "po_generated"}).
		Count(&n).Error
	return n, err
}
