package repository

import (
	"context"

	"procurement/internal/model"
	"procurement/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductFilter narrows product listings
type ProductFilter struct {
	CategoryID *uuid.UUID
	IsActive   *bool
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	List(ctx context.Context, p pagination.Params, f ProductFilter) ([]model.Product, int64, error)
	CountByIDs(ctx context.Context, ids []uuid.UUID) (int64, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

var productSortColumns = map[string]string{
	"sku":        "sku",
	"name":       "name",
	"is_active":  "is_active",
	"created_at": "created_at",
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Omit("Category", "UOM", "Suppliers").Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Omit("Category", "UOM", "Suppliers").Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Product{}).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	err := GetDB(ctx, r.db).
		Preload("Category").Preload("UOM").Preload("Suppliers").
		First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, p pagination.Params, f ProductFilter) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Product{})
	if p.Search != "" {
		query = query.Where("name ILIKE ? OR sku ILIKE ?", ilike(p.Search), ilike(p.Search))
	}
	if f.CategoryID != nil {
		query = query.Where("category_id = ?", *f.CategoryID)
	}
	if f.IsActive != nil {
		query = query.Where("is_active = ?", *f.IsActive)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Category").Preload("UOM").
		Order(p.OrderClause(productSortColumns, "created_at DESC")).
		Offset(p.Offset).Limit(p.PerPage).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *productRepository) CountByIDs(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var n int64
	if len(ids) == 0 {
		return 0, nil
	}
	err := GetDB(ctx, r.db).Model(&model.Product{}).Where("id IN ?", ids).Count(&n).Error
	return n, err
}
