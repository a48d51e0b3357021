package repository

import (
	"context"

	"procurement/internal/model"
	"procurement/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogRepository covers the lookup tables products point at
type CatalogRepository interface {
	CreateCategory(ctx context.Context, c *model.Category) error
	UpdateCategory(ctx context.Context, c *model.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
	FindCategory(ctx context.Context, id uuid.UUID) (*model.Category, error)
	ListCategories(ctx context.Context, p pagination.Params) ([]model.Category, int64, error)

	CreateUOM(ctx context.Context, u *model.UOM) error
	UpdateUOM(ctx context.Context, u *model.UOM) error
	DeleteUOM(ctx context.Context, id uuid.UUID) error
	FindUOM(ctx context.Context, id uuid.UUID) (*model.UOM, error)
	ListUOMs(ctx context.Context, p pagination.Params) ([]model.UOM, int64, error)

	CountProductsUsing(ctx context.Context, column string, id uuid.UUID) (int64, error)
}

type catalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

var catalogSortColumns = map[string]string{
	"name": "name",
}

func (r *catalogRepository) CreateCategory(ctx context.Context, c *model.Category) error {
	return GetDB(ctx, r.db).Create(c).Error
}

func (r *catalogRepository) UpdateCategory(ctx context.Context, c *model.Category) error {
	return GetDB(ctx, r.db).Save(c).Error
}

func (r *catalogRepository) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Category{}).Error
}

func (r *catalogRepository) FindCategory(ctx context.Context, id uuid.UUID) (*model.Category, error) {
	var c model.Category
	if err := GetDB(ctx, r.db).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *catalogRepository) ListCategories(ctx context.Context, p pagination.Params) ([]model.Category, int64, error) {
	var items []model.Category
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Category{})
	if p.Search != "" {
		query = query.Where("name ILIKE ?", ilike(p.Search))
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order(p.OrderClause(catalogSortColumns, "name ASC")).
		Offset(p.Offset).Limit(p.PerPage).Find(&items).Error
	return items, total, err
}

func (r *catalogRepository) CreateUOM(ctx context.Context, u *model.UOM) error {
	return GetDB(ctx, r.db).Create(u).Error
}

func (r *catalogRepository) UpdateUOM(ctx context.Context, u *model.UOM) error {
	return GetDB(ctx, r.db).Save(u).Error
}

func (r *catalogRepository) DeleteUOM(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.UOM{}).Error
}

func (r *catalogRepository) FindUOM(ctx context.Context, id uuid.UUID) (*model.UOM, error) {
	var u model.UOM
	if err := GetDB(ctx, r.db).First(&u, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *catalogRepository) ListUOMs(ctx context.Context, p pagination.Params) ([]model.UOM, int64, error) {
	var items []model.UOM
	var total int64

	query := GetDB(ctx, r.db).Model(&model.UOM{})
	if p.Search != "" {
		query = query.Where("name ILIKE ? OR abbreviation ILIKE ?", ilike(p.Search), ilike(p.Search))
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order(p.OrderClause(catalogSortColumns, "name ASC")).
		Offset(p.Offset).Limit(p.PerPage).Find(&items).Error
	return items, total, err
}

// CountProductsUsing counts live products referencing a category_id or uom_id
func (r *catalogRepository) CountProductsUsing(ctx context.Context, column string, id uuid.UUID) (int64, error) {
	var n int64
	if column != "category_id" && column != "uom_id" {
		return 0, gorm.ErrInvalidField
	}
	err := GetDB(ctx, r.db).Model(&model.Product{}).Where(column+" = ?", id).Count(&n).Error
	return n, err
}
