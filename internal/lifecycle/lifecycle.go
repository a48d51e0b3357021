// Package lifecycle builds the quotation and evaluation screens of an RFQ.
// Row actions come only from the workflow guards; every successful mutation
// invalidates the cached reads it affects.
package lifecycle

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"procurement/internal/client"
	"procurement/internal/form"
	"procurement/internal/querycache"
	"procurement/internal/workflow"
)

// Backend is the slice of the REST client these screens use
type Backend interface {
	GetRFQ(ctx context.Context, id string) (client.RFQ, error)
	ListQuotations(ctx context.Context, rfqID string, p client.ListParams) (client.Page[client.Quotation], error)
	GetQuotation(ctx context.Context, id string) (client.Quotation, error)
	QuotationAction(ctx context.Context, id string, action client.QuotationAction) (client.Quotation, error)
	Evaluate(ctx context.Context, quotationID string, scores client.Scores) (client.Evaluation, error)
	ListEvaluations(ctx context.Context, rfqID string, shortlistedOnly bool, p client.ListParams) (client.Page[client.Evaluation], error)
	Shortlist(ctx context.Context, evaluationID string) (client.Evaluation, error)
}

// StatusFilters are the accepted quotation list filters; "" means all
var StatusFilters = []string{"", "submitted", "awarded", "rejected"}

// Cache resource names
func RFQResource(rfqID string) string        { return "rfqs/" + rfqID }
func QuotationsResource(rfqID string) string { return "rfqs/" + rfqID + "/quotations" }
func EvaluationsResource(rfqID string) string {
	return "rfqs/" + rfqID + "/evaluations"
}

type QuotationRow struct {
	client.Quotation
	Actions workflow.QuotationActions `json:"actions"`
}

// PageInfo is a list page without its rows
type PageInfo struct {
	Total       int64 `json:"total"`
	CurrentPage int   `json:"current_page"`
	LastPage    int   `json:"last_page"`
	PerPage     int   `json:"per_page"`
}

type QuotationList struct {
	RFQ    client.RFQ     `json:"rfq"`
	Rows   []QuotationRow `json:"rows"`
	Page   PageInfo       `json:"page"`
	Filter string         `json:"status_filter"`
}

type EvaluationRow struct {
	client.Evaluation
	CanShortlist bool `json:"can_shortlist"`
	CanAward     bool `json:"can_award"`
}

type EvaluationList struct {
	RFQ             client.RFQ      `json:"rfq"`
	Rows            []EvaluationRow `json:"rows"`
	Page            PageInfo        `json:"page"`
	ShortlistedOnly bool            `json:"shortlisted_only"`
}

type Screens struct {
	backend Backend
	cache   *querycache.Cache
}

func New(backend Backend, cache *querycache.Cache) *Screens {
	return &Screens{backend: backend, cache: cache}
}

func (s *Screens) rfq(ctx context.Context, rfqID string) (client.RFQ, workflow.RFQStatus, error) {
	rfq, err := querycache.Fetch(ctx, s.cache, RFQResource(rfqID), nil, func(ctx context.Context) (client.RFQ, error) {
		return s.backend.GetRFQ(ctx, rfqID)
	})
	if err != nil {
		return client.RFQ{}, "", err
	}
	status, err := workflow.ParseRFQStatus(rfq.Status)
	if err != nil {
		return client.RFQ{}, "", err
	}
	return rfq, status, nil
}

// Quotations lists one page of an RFQ's quotations with per-row actions
func (s *Screens) Quotations(ctx context.Context, rfqID, status string, p client.ListParams) (QuotationList, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if !validFilter(status) {
		return QuotationList{}, form.Errors{"status": fmt.Sprintf("unknown status filter %q", status)}
	}
	rfq, rfqStatus, err := s.rfq(ctx, rfqID)
	if err != nil {
		return QuotationList{}, err
	}

	filters := map[string]string{"status": status}
	for k, v := range p.Filters {
		if k != "status" {
			filters[k] = v
		}
	}
	p.Filters = filters
	page, err := querycache.Fetch(ctx, s.cache, QuotationsResource(rfqID), p.Values(), func(ctx context.Context) (client.Page[client.Quotation], error) {
		return s.backend.ListQuotations(ctx, rfqID, p)
	})
	if err != nil {
		return QuotationList{}, err
	}

	rows := make([]QuotationRow, 0, len(page.Data))
	for _, q := range page.Data {
		rows = append(rows, QuotationRow{Quotation: q, Actions: quotationActions(rfqStatus, q)})
	}
	return QuotationList{RFQ: rfq, Rows: rows, Page: pageInfo(page), Filter: status}, nil
}

func quotationActions(rfq workflow.RFQStatus, q client.Quotation) workflow.QuotationActions {
	qs, err := workflow.ParseQuotationStatus(q.Status)
	if err != nil {
		return workflow.QuotationActions{}
	}
	return workflow.ActionsFor(rfq, qs, evaluationState(q.Evaluation))
}

func evaluationState(e *client.Evaluation) *workflow.EvaluationState {
	if e == nil {
		return nil
	}
	return &workflow.EvaluationState{IsShortlisted: e.IsShortlisted, Outranked: e.Outranked}
}

// Evaluations lists an RFQ's evaluations, best total score first by default
func (s *Screens) Evaluations(ctx context.Context, rfqID string, shortlistedOnly bool, p client.ListParams) (EvaluationList, error) {
	rfq, rfqStatus, err := s.rfq(ctx, rfqID)
	if err != nil {
		return EvaluationList{}, err
	}
	if p.SortBy == "" {
		p.SortBy, p.SortOrder = "total_score", "desc"
	}

	params := p.Values()
	if shortlistedOnly {
		params.Set("shortlisted", "true")
	}
	page, err := querycache.Fetch(ctx, s.cache, EvaluationsResource(rfqID), params, func(ctx context.Context) (client.Page[client.Evaluation], error) {
		return s.backend.ListEvaluations(ctx, rfqID, shortlistedOnly, p)
	})
	if err != nil {
		return EvaluationList{}, err
	}

	rows := make([]EvaluationRow, 0, len(page.Data))
	for _, e := range page.Data {
		row := EvaluationRow{Evaluation: e}
		if qs, err := workflow.ParseQuotationStatus(e.QuotationStatus); err == nil {
			state := evaluationState(&e)
			row.CanShortlist = workflow.CanShortlist(rfqStatus, qs, state)
			row.CanAward = workflow.CanAward(rfqStatus, qs, state)
		}
		rows = append(rows, row)
	}
	return EvaluationList{RFQ: rfq, Rows: rows, Page: pageInfo(page), ShortlistedOnly: shortlistedOnly}, nil
}

// Accept, Reject and Award run one quotation action
func (s *Screens) Accept(ctx context.Context, quotationID string) (client.Quotation, error) {
	return s.act(ctx, quotationID, client.ActionAccept)
}

func (s *Screens) Reject(ctx context.Context, quotationID string) (client.Quotation, error) {
	return s.act(ctx, quotationID, client.ActionReject)
}

func (s *Screens) Award(ctx context.Context, quotationID string) (client.Quotation, error) {
	return s.act(ctx, quotationID, client.ActionAward)
}

func (s *Screens) act(ctx context.Context, quotationID string, action client.QuotationAction) (client.Quotation, error) {
	q, err := s.backend.QuotationAction(ctx, quotationID, action)
	if err != nil {
		return client.Quotation{}, err
	}
	if action == client.ActionAward {
		// the RFQ list shows the new awarded status too
		s.cache.Invalidate("rfqs")
	} else {
		s.cache.Invalidate(RFQResource(q.RFQID))
	}
	return q, nil
}

// ScoresForm is the evaluate form; nil means the field was left empty
type ScoresForm struct {
	PriceScore       *int   `json:"price_score"`
	DeliveryScore    *int   `json:"delivery_score"`
	FinancialScore   *int   `json:"financial_score"`
	PerformanceScore *int   `json:"performance_score"`
	ComplianceScore  *int   `json:"compliance_score"`
	Remarks          string `json:"remarks"`
}

// Validate requires all five scores as integers in 0..100
func (f ScoresForm) Validate() (client.Scores, error) {
	errs := form.Errors{}
	get := func(field string, v *int) int {
		if v == nil {
			errs[field] = "Score is required"
			return 0
		}
		if *v < 0 || *v > 100 {
			errs[field] = "Score must be between 0 and 100"
		}
		return *v
	}
	s := client.Scores{
		PriceScore:       get("price_score", f.PriceScore),
		DeliveryScore:    get("delivery_score", f.DeliveryScore),
		FinancialScore:   get("financial_score", f.FinancialScore),
		PerformanceScore: get("performance_score", f.PerformanceScore),
		ComplianceScore:  get("compliance_score", f.ComplianceScore),
		Remarks:          strings.TrimSpace(f.Remarks),
	}
	return s, errs.OrNil()
}

// EvaluateResult tells the caller where to go after scoring
type EvaluateResult struct {
	Evaluation client.Evaluation `json:"evaluation"`
	Redirect   string            `json:"redirect"`
}

func (s *Screens) Evaluate(ctx context.Context, quotationID string, f ScoresForm) (EvaluateResult, error) {
	scores, err := f.Validate()
	if err != nil {
		return EvaluateResult{}, err
	}
	e, err := s.backend.Evaluate(ctx, quotationID, scores)
	if err != nil {
		return EvaluateResult{}, err
	}
	s.cache.Invalidate(RFQResource(e.RFQID))
	return EvaluateResult{
		Evaluation: e,
		Redirect:   "/dashboard/rfqs/" + url.PathEscape(e.RFQID) + "/evaluations",
	}, nil
}

func (s *Screens) Shortlist(ctx context.Context, evaluationID string) (client.Evaluation, error) {
	e, err := s.backend.Shortlist(ctx, evaluationID)
	if err != nil {
		return client.Evaluation{}, err
	}
	s.cache.Invalidate(RFQResource(e.RFQID))
	return e, nil
}

func validFilter(status string) bool {
	for _, f := range StatusFilters {
		if f == status {
			return true
		}
	}
	return false
}

func pageInfo[T any](p client.Page[T]) PageInfo {
	return PageInfo{
		Total:       p.Total,
		CurrentPage: p.CurrentPage,
		LastPage:    p.LastPage,
		PerPage:     p.PerPage,
	}
}
