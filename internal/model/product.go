package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category groups products
type Category struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name        string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// UOM is a unit of measurement, e.g. "pcs" or "kg"
type UOM struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name         string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Abbreviation string    `gorm:"type:varchar(10);not null" json:"abbreviation"`
}

// TableName keeps the plural lowercase convention
func (UOM) TableName() string { return "uoms" }

// Product represents an item that can be requested on RFQs
type Product struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU         string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	CategoryID  uuid.UUID      `gorm:"type:uuid;not null;index" json:"category_id"`
	Category    *Category      `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	UOMID       uuid.UUID      `gorm:"column:uom_id;type:uuid;not null" json:"uom_id"`
	UOM         *UOM           `gorm:"foreignKey:UOMID" json:"uom,omitempty"`
	IsActive    bool           `gorm:"default:true" json:"is_active"`
	Suppliers   []Supplier     `gorm:"many2many:supplier_products;" json:"suppliers,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}
