package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// RFQ is a request for quotation sent to suppliers
type RFQ struct {
	ID                 uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ReferenceNumber    string         `gorm:"type:varchar(30);uniqueIndex;not null" json:"reference_number"` // RFQ-2025-0001, immutable
	Status             string         `gorm:"type:varchar(20);not null;default:'draft';index" json:"status"`
	Description        string         `gorm:"type:text;not null" json:"description"`
	SubmissionDeadline time.Time      `gorm:"not null;index" json:"submission_deadline"`
	DeliveryTerms      pq.StringArray `gorm:"type:text[]" json:"delivery_terms"`
	DeliveryLocation   string         `gorm:"type:varchar(255);not null" json:"delivery_location"`
	CreatedBy          *uuid.UUID     `gorm:"type:uuid" json:"created_by"`
	Products           []RFQProduct   `gorm:"foreignKey:RFQID;constraint:OnDelete:CASCADE" json:"products"`
	PublishedAt        *time.Time     `json:"published_at"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// TableName avoids GORM's "r_f_qs" naming
func (RFQ) TableName() string { return "rfqs" }

// RFQProduct is the rfq <-> product pivot carrying quantity and specifications
type RFQProduct struct {
	ID             uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	RFQID          uuid.UUID `gorm:"column:rfq_id;type:uuid;not null;uniqueIndex:idx_rfq_product" json:"rfq_id"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_rfq_product" json:"product_id"`
	Product        *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity       int       `gorm:"not null" json:"quantity"`
	Specifications string    `gorm:"type:text" json:"specifications"`
}

// TableName keeps the pivot name readable
func (RFQProduct) TableName() string { return "rfq_products" }
