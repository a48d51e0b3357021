package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SupplierStatus enum constants
const (
	SupplierStatusActive      = "active"
	SupplierStatusInactive    = "inactive"
	SupplierStatusSuspended   = "suspended"
	SupplierStatusBlacklisted = "blacklisted"
)

// AddressType enum constants
const (
	AddressTypeBilling  = "billing"
	AddressTypeShipping = "shipping"
	AddressTypeOffice   = "office"
)

// Supplier is a vendor that can answer RFQs with quotations
type Supplier struct {
	ID        uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	LegalName string            `gorm:"type:varchar(255);not null" json:"legal_name"`
	TradeName string            `gorm:"type:varchar(255)" json:"trade_name"`
	TaxID     string            `gorm:"type:varchar(50);index" json:"tax_id"`
	Email     string            `gorm:"type:varchar(255)" json:"email"`
	Phone     string            `gorm:"type:varchar(50)" json:"phone"`
	Website   string            `gorm:"type:varchar(255)" json:"website"`
	Status    string            `gorm:"type:varchar(20);not null;default:'active';index" json:"status"`
	Contacts  []SupplierContact `gorm:"foreignKey:SupplierID;constraint:OnDelete:CASCADE" json:"contacts"`
	Addresses []SupplierAddress `gorm:"foreignKey:SupplierID;constraint:OnDelete:CASCADE" json:"addresses"`
	Products  []Product         `gorm:"many2many:supplier_products;" json:"products,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
	DeletedAt gorm.DeletedAt    `gorm:"index" json:"-"`
}

// SupplierContact is a person at the supplier
type SupplierContact struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SupplierID uuid.UUID `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	Position   string    `gorm:"type:varchar(100)" json:"position"`
	Email      string    `gorm:"type:varchar(255)" json:"email"`
	Phone      string    `gorm:"type:varchar(50)" json:"phone"`
	IsPrimary  bool      `gorm:"default:false" json:"is_primary"`
}

// SupplierAddress represents a supplier's address (billing, shipping, office)
type SupplierAddress struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SupplierID  uuid.UUID `gorm:"type:uuid;not null;index" json:"supplier_id"`
	AddressType string    `gorm:"type:varchar(20);not null" json:"address_type"`
	FullAddress string    `gorm:"type:text;not null" json:"full_address"`
	City        string    `gorm:"type:varchar(100)" json:"city"`
	Country     string    `gorm:"type:varchar(100)" json:"country"`
	IsDefault   bool      `gorm:"default:false" json:"is_default"`
}
