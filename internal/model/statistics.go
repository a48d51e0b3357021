package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatusCount is one row of a GROUP BY status aggregation
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// SupplierRanking ranks a supplier by the value of its awarded quotations
type SupplierRanking struct {
	SupplierID   string          `json:"supplier_id"`
	LegalName    string          `json:"legal_name"`
	AwardCount   int64           `json:"award_count"`
	AwardedValue decimal.Decimal `json:"awarded_value"`
}

// StatisticsResponse summarizes procurement activity inside a time range
type StatisticsResponse struct {
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
