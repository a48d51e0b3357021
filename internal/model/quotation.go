package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Quotation is a supplier's priced response to an RFQ
type Quotation struct {
	ID          uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RFQID       uuid.UUID       `gorm:"column:rfq_id;type:uuid;not null;uniqueIndex:idx_quotation_rfq_supplier" json:"rfq_id"`
	RFQ         *RFQ            `gorm:"foreignKey:RFQID" json:"rfq,omitempty"`
	SupplierID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_quotation_rfq_supplier" json:"supplier_id"`
	Supplier    *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Status      string          `gorm:"type:varchar(20);not null;default:'submitted';index" json:"status"`
	Currency    string          `gorm:"type:varchar(10);not null;default:'USD'" json:"currency"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	Notes       string          `gorm:"type:text" json:"notes"`
	ValidUntil  *time.Time      `json:"valid_until"`
	Items       []QuotationItem `gorm:"foreignKey:QuotationID;constraint:OnDelete:CASCADE" json:"items"`
	Evaluation  *Evaluation     `gorm:"foreignKey:QuotationID" json:"evaluation,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// QuotationItem is one priced line of a quotation
type QuotationItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	QuotationID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"quotation_id"`
	ProductID      uuid.UUID       `gorm:"type:uuid;not null" json:"product_id"`
	Product        *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity       int             `gorm:"not null" json:"quantity"`
	UnitPrice      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	Discount       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0" json:"discount"` // percent
	WarrantyPeriod int             `gorm:"default:0" json:"warranty_period"`
	WarrantyUnit   string          `gorm:"type:varchar(10)" json:"warranty_unit"` // days, months, years
	LineTotal      decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"line_total"`
}

// Evaluation scores a quotation on five criteria, each 0-100
type Evaluation struct {
	ID               uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	QuotationID      uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex" json:"quotation_id"`
	Quotation        *Quotation      `gorm:"foreignKey:QuotationID" json:"quotation,omitempty"`
	RFQID            uuid.UUID       `gorm:"column:rfq_id;type:uuid;not null;index" json:"rfq_id"`
	PriceScore       int             `gorm:"not null" json:"price_score"`
	DeliveryScore    int             `gorm:"not null" json:"delivery_score"`
	FinancialScore   int             `gorm:"not null" json:"financial_score"`
	PerformanceScore int             `gorm:"not null" json:"performance_score"`
	ComplianceScore  int             `gorm:"not null" json:"compliance_score"`
	TotalScore       decimal.Decimal `gorm:"type:decimal(6,2);not null;index" json:"total_score"`
	IsShortlisted    bool            `gorm:"default:false" json:"is_shortlisted"`
	Remarks          string          `gorm:"type:text" json:"remarks"`
	EvaluatedBy      *uuid.UUID      `gorm:"type:uuid" json:"evaluated_by"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
