package client

import (
	"time"

	"github.com/shopspring/decimal"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	IsActive  bool      `json:"is_active"`
	Roles     []string  `json:"roles"`
	CreatedAt time.Time `json:"created_at"`
}

type Token struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	User        User      `json:"user"`
}

type PermissionGroup struct {
	Resource string   `json:"resource"`
	Label    string   `json:"label"`
	Actions  []string `json:"actions"`
}

type Me struct {
	User        User              `json:"user"`
	Permissions []string          `json:"permissions"`
	Groups      []PermissionGroup `json:"groups"`
}

type RFQGeneral struct {
	Description        string    `json:"description"`
	SubmissionDeadline time.Time `json:"submission_deadline"`
	DeliveryTerms      []string  `json:"delivery_terms"`
	DeliveryLocation   string    `json:"delivery_location"`
}

type RFQProductLine struct {
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	Specifications string `json:"specifications,omitempty"`
}

type RFQProduct struct {
	ProductID      string `json:"product_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	UOM            string `json:"uom"`
	Quantity       int    `json:"quantity"`
	Specifications string `json:"specifications"`
}

type RFQ struct {
	ID                 string       `json:"id"`
	ReferenceNumber    string       `json:"reference_number"`
	Status             string       `json:"status"`
	Description        string       `json:"description"`
	SubmissionDeadline time.Time    `json:"submission_deadline"`
	DeliveryTerms      []string     `json:"delivery_terms"`
	DeliveryLocation   string       `json:"delivery_location"`
	Products           []RFQProduct `json:"products"`
	PublishedAt        *time.Time   `json:"published_at"`
	CreatedAt          time.Time    `json:"created_at"`
}

type QuotationItem struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Discount       decimal.Decimal `json:"discount"`
	WarrantyPeriod int             `json:"warranty_period"`
	WarrantyUnit   string          `json:"warranty_unit"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

type Evaluation struct {
	ID               string          `json:"id"`
	QuotationID      string          `json:"quotation_id"`
	RFQID            string          `json:"rfq_id"`
	SupplierName     string          `json:"supplier_name"`
	QuotationStatus  string          `json:"quotation_status"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Currency         string          `json:"currency"`
	PriceScore       int             `json:"price_score"`
	DeliveryScore    int             `json:"delivery_score"`
	FinancialScore   int             `json:"financial_score"`
	PerformanceScore int             `json:"performance_score"`
	ComplianceScore  int             `json:"compliance_score"`
	TotalScore       decimal.Decimal `json:"total_score"`
	IsShortlisted    bool            `json:"is_shortlisted"`
	Outranked        bool            `json:"outranked"` // a higher shortlisted score exists on the RFQ
	Remarks          string          `json:"remarks"`
	CreatedAt        time.Time       `json:"created_at"`
}

type Quotation struct {
	ID           string          `json:"id"`
	RFQID        string          `json:"rfq_id"`
	RFQStatus    string          `json:"rfq_status"`
	SupplierID   string          `json:"supplier_id"`
	SupplierName string          `json:"supplier_name"`
	Status       string          `json:"status"`
	Currency     string          `json:"currency"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	Notes        string          `json:"notes"`
	Items        []QuotationItem `json:"items"`
	Evaluation   *Evaluation     `json:"evaluation"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Scores is the evaluate payload; every field is required by the API
type Scores struct {
	PriceScore       int    `json:"price_score"`
	DeliveryScore    int    `json:"delivery_score"`
	FinancialScore   int    `json:"financial_score"`
	PerformanceScore int    `json:"performance_score"`
	ComplianceScore  int    `json:"compliance_score"`
	Remarks          string `json:"remarks,omitempty"`
}

type Change struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

type ActivityEntry struct {
	ID         string            `json:"id"`
	EntityType string            `json:"entity_type"`
	EntityID   string            `json:"entity_id"`
	Action     string            `json:"action"`
	ActorID    string            `json:"actor_id"`
	ActorName  string            `json:"actor_name"`
	Changes    map[string]Change `json:"changes"`
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	CreatedAt  time.Time         `json:"created_at"`
}

type Supplier struct {
	ID        string    `json:"id"`
	LegalName string    `json:"legal_name"`
	TradeName string    `json:"trade_name"`
	TaxID     string    `json:"tax_id"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type Product struct {
	ID           string    `json:"id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	CategoryName string    `json:"category_name"`
	UOM          string    `json:"uom"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

type SupplierRanking struct {
	SupplierID   string          `json:"supplier_id"`
	LegalName    string          `json:"legal_name"`
	AwardCount   int64           `json:"award_count"`
	AwardedValue decimal.Decimal `json:"awarded_value"`
}

// Statistics is the procurement summary for a date range
type Statistics struct {
	RFQsByStatus       map[string]int64  `json:"rfqs_by_status"`
	QuotationsByStatus map[string]int64  `json:"quotations_by_status"`
	TotalRFQs          int64             `json:"total_rfqs"`
	TotalQuotations    int64             `json:"total_quotations"`
	AwardedValue       decimal.Decimal   `json:"awarded_value"`
	AverageScore       decimal.Decimal   `json:"average_score"`
	TopSuppliers       []SupplierRanking `json:"top_suppliers"`
	TimeRangeStartDate time.Time         `json:"time_range_start_date"`
	TimeRangeEndDate   time.Time         `json:"time_range_end_date"`
}
