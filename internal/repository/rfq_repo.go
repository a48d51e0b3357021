package repository

import (
	"context"
	"fmt"
	"time"

	"procurement/internal/model"
	"procurement/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RFQFilter narrows RFQ listings
type RFQFilter struct {
	Status   string
	OpenAt   *time.Time // published and accepting quotations at this instant
	Creator  *uuid.UUID
	Deadline *time.Time // submission_deadline on or before
}

type RFQRepository interface {
	NextReference(ctx context.Context, now time.Time) (string, error)
	Create(ctx context.Context, rfq *model.RFQ) error
	Update(ctx context.Context, rfq *model.RFQ) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.RFQ, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.RFQ, error)
	List(ctx context.Context, p pagination.Params, f RFQFilter) ([]model.RFQ, int64, error)
	ReplaceProducts(ctx context.Context, rfqID uuid.UUID, items []model.RFQProduct) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	ListExpiredPublished(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

type rfqRepository struct {
	db *gorm.DB
}

func NewRFQRepository(db *gorm.DB) RFQRepository {
	return &rfqRepository{db: db}
}

var rfqSortColumns = map[string]string{
	"reference_number":    "reference_number",
	"status":              "status",
	"submission_deadline": "submission_deadline",
	"delivery_location":   "delivery_location",
	"created_at":          "created_at",
}

// NextReference draws the next value of rfq_reference_seq, formatted RFQ-<year>-<seq>
func (r *rfqRepository) NextReference(ctx context.Context, now time.Time) (string, error) {
	var seq int64
	if err := GetDB(ctx, r.db).Raw("SELECT nextval('rfq_reference_seq')").Scan(&seq).Error; err != nil {
		return "", err
	}
	return FormatReference(now.Year(), seq), nil
}

// FormatReference renders a reference number, zero-padding the sequence to four digits
func FormatReference(year int, seq int64) string {
	return fmt.Sprintf("RFQ-%d-%04d", year, seq)
}

func (r *rfqRepository) Create(ctx context.Context, rfq *model.RFQ) error {
	return GetDB(ctx, r.db).Create(rfq).Error
}

func (r *rfqRepository) Update(ctx context.Context, rfq *model.RFQ) error {
	return GetDB(ctx, r.db).Omit("Products", "ReferenceNumber", "CreatedBy").Save(rfq).Error
}

func (r *rfqRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.RFQ, error) {
	var rfq model.RFQ
	err := GetDB(ctx, r.db).
		Preload("Products.Product.UOM").
		First(&rfq, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &rfq, nil
}

func (r *rfqRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.RFQ, error) {
	var rfq model.RFQ
	if err := forUpdate(ctx, GetDB(ctx, r.db)).First(&rfq, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rfq, nil
}

func (r *rfqRepository) List(ctx context.Context, p pagination.Params, f RFQFilter) ([]model.RFQ, int64, error) {
	var rfqs []model.RFQ
	var total int64

	query := GetDB(ctx, r.db).Model(&model.RFQ{})
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}
	if f.OpenAt != nil {
		query = query.Where("status = ? AND submission_deadline > ?", "published", *f.OpenAt)
	}
	if f.Creator != nil {
		query = query.Where("created_by = ?", *f.Creator)
	}
	if f.Deadline != nil {
		query = query.Where("submission_deadline <= ?", *f.Deadline)
	}
	if p.Search != "" {
		s := ilike(p.Search)
		query = query.Where("reference_number ILIKE ? OR description ILIKE ? OR delivery_location ILIKE ?", s, s, s)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Products").
		Order(p.OrderClause(rfqSortColumns, "created_at DESC")).
		Offset(p.Offset).Limit(p.PerPage).
		Find(&rfqs).Error
	if err != nil {
		return nil, 0, err
	}
	return rfqs, total, nil
}

// ReplaceProducts swaps the whole product list of an RFQ
func (r *rfqRepository) ReplaceProducts(ctx context.Context, rfqID uuid.UUID, items []model.RFQProduct) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("rfq_id = ?", rfqID).Delete(&model.RFQProduct{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].RFQID = rfqID
	}
	return db.Omit("Product").Create(&items).Error
}

func (r *rfqRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	updates := map[string]interface{}{"status": status, "updated_at": time.Now()}
	if status == "published" {
		updates["published_at"] = time.Now()
	}
	return GetDB(ctx, r.db).Model(&model.RFQ{}).Where("id = ?", id).Updates(updates).Error
}

func (r *rfqRepository) ListExpiredPublished(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.RFQ{}).
		Where("status = ? AND submission_deadline <= ?", "published", now).
		Pluck("id", &ids).Error
	return ids, err
}
