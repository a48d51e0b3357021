package repository

import (
	"context"

	"procurement/internal/model"
	"procurement/pkg/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierRepository interface {
	Create(ctx context.Context, supplier *model.Supplier) error
	Update(ctx context.Context, supplier *model.Supplier) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error)
	List(ctx context.Context, p pagination.Params, status string) ([]model.Supplier, int64, error)
	ReplaceContacts(ctx context.Context, supplierID uuid.UUID, contacts []model.SupplierContact) error
	ReplaceAddresses(ctx context.Context, supplierID uuid.UUID, addresses []model.SupplierAddress) error
	ReplaceProducts(ctx context.Context, supplier *model.Supplier, productIDs []uuid.UUID) error
}

type supplierRepository struct {
	db *gorm.DB
}

func NewSupplierRepository(db *gorm.DB) SupplierRepository {
	return &supplierRepository{db: db}
}

var supplierSortColumns = map[string]string{
	"legal_name": "legal_name",
	"trade_name": "trade_name",
	"status":     "status",
	"created_at": "created_at",
}

func (r *supplierRepository) Create(ctx context.Context, supplier *model.Supplier) error {
	return GetDB(ctx, r.db).Omit("Products").Create(supplier).Error
}

func (r *supplierRepository) Update(ctx context.Context, supplier *model.Supplier) error {
	return GetDB(ctx, r.db).Omit("Contacts", "Addresses", "Products").Save(supplier).Error
}

func (r *supplierRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Supplier{}).Error
}

func (r *supplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Supplier, error) {
	var supplier model.Supplier
	err := GetDB(ctx, r.db).
		Preload("Contacts").Preload("Addresses").Preload("Products").
		First(&supplier, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &supplier, nil
}

func (r *supplierRepository) List(ctx context.Context, p pagination.Params, status string) ([]model.Supplier, int64, error) {
	var suppliers []model.Supplier
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Supplier{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if p.Search != "" {
		s := ilike(p.Search)
		query = query.Where("legal_name ILIKE ? OR trade_name ILIKE ? OR tax_id ILIKE ? OR email ILIKE ? OR phone ILIKE ?",
			s, s, s, s, s)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Contacts").Preload("Addresses").
		Order(p.OrderClause(supplierSortColumns, "created_at DESC")).
		Offset(p.Offset).Limit(p.PerPage).
		Find(&suppliers).Error
	if err != nil {
		return nil, 0, err
	}
	return suppliers, total, nil
}

// ReplaceContacts deletes every contact of the supplier and re-creates the given list
func (r *supplierRepository) ReplaceContacts(ctx context.Context, supplierID uuid.UUID, contacts []model.SupplierContact) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("supplier_id = ?", supplierID).Delete(&model.SupplierContact{}).Error; err != nil {
		return err
	}
	if len(contacts) == 0 {
		return nil
	}
	for i := range contacts {
		contacts[i].SupplierID = supplierID
	}
	return db.Create(&contacts).Error
}

// ReplaceAddresses deletes every address of the supplier and re-creates the given list
func (r *supplierRepository) ReplaceAddresses(ctx context.Context, supplierID uuid.UUID, addresses []model.SupplierAddress) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("supplier_id = ?", supplierID).Delete(&model.SupplierAddress{}).Error; err != nil {
		return err
	}
	if len(addresses) == 0 {
		return nil
	}
	for i := range addresses {
		addresses[i].SupplierID = supplierID
	}
	return db.Create(&addresses).Error
}

func (r *supplierRepository) ReplaceProducts(ctx context.Context, supplier *model.Supplier, productIDs []uuid.UUID) error {
	db := GetDB(ctx, r.db)
	var products []model.Product
	if len(productIDs) > 0 {
		if err := db.Where("id IN ?", productIDs).Find(&products).Error; err != nil {
			return err
		}
	}
	if err := db.Model(supplier).Association("Products").Replace(products); err != nil {
		return err
	}
	supplier.Products = products
	return nil
}
