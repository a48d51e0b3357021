package client

import (
	"context"
	"net/http"
	"net/url"
)

// Login exchanges credentials for an access token
func (c *Client) Login(ctx context.Context, req LoginRequest) (Token, error) {
	var tok Token
	err := c.do(ctx, "", http.MethodPost, "/api/auth/login", nil, req, &tok)
	return tok, err
}

func (s *Session) Me(ctx context.Context) (Me, error) {
	var me Me
	err := s.get(ctx, "/api/auth/me", nil, &me)
	return me, err
}

// --- RFQs ---

func (s *Session) ListRFQs(ctx context.Context, p ListParams) (Page[RFQ], error) {
	var page Page[RFQ]
	err := s.get(ctx, "/api/rfqs", p.Values(), &page)
	return page, err
}

func (s *Session) GetRFQ(ctx context.Context, id string) (RFQ, error) {
	var rfq RFQ
	err := s.get(ctx, "/api/rfqs/"+url.PathEscape(id), nil, &rfq)
	return rfq, err
}

func (s *Session) CreateRFQ(ctx context.Context, req RFQGeneral) (RFQ, error) {
	var rfq RFQ
	err := s.send(ctx, http.MethodPost, "/api/rfqs", req, &rfq)
	return rfq, err
}

func (s *Session) UpdateRFQ(ctx context.Context, id string, req RFQGeneral) (RFQ, error) {
	var rfq RFQ
	err := s.send(ctx, http.MethodPut, "/api/rfqs/"+url.PathEscape(id), req, &rfq)
	return rfq, err
}

func (s *Session) AttachProducts(ctx context.Context, id string, lines []RFQProductLine) (RFQ, error) {
	var rfq RFQ
	body := struct {
		Products []RFQProductLine `json:"products"`
	}{Products: lines}
	err := s.send(ctx, http.MethodPut, "/api/rfqs/"+url.PathEscape(id)+"/products", body, &rfq)
	return rfq, err
}

// RFQAction is the last path segment of an RFQ transition endpoint
type RFQAction string

const (
	ActionPublish          RFQAction = "publish"
	ActionMoveToEvaluation RFQAction = "move-to-evaluation"
	ActionClose            RFQAction = "close"
	ActionCancel           RFQAction = "cancel"
)

func (s *Session) TransitionRFQ(ctx context.Context, id string, action RFQAction) (RFQ, error) {
	var rfq RFQ
	err := s.send(ctx, http.MethodPost, "/api/rfqs/"+url.PathEscape(id)+"/"+string(action), nil, &rfq)
	return rfq, err
}

// --- Quotations and evaluations ---

func (s *Session) ListQuotations(ctx context.Context, rfqID string, p ListParams) (Page[Quotation], error) {
	var page Page[Quotation]
	err := s.get(ctx, "/api/rfqs/"+url.PathEscape(rfqID)+"/quotations", p.Values(), &page)
	return page, err
}

func (s *Session) GetQuotation(ctx context.Context, id string) (Quotation, error) {
	var q Quotation
	err := s.get(ctx, "/api/quotations/"+url.PathEscape(id), nil, &q)
	return q, err
}

// QuotationAction is the last path segment of a quotation action endpoint
type QuotationAction string

const (
	ActionAccept QuotationAction = "accept"
	ActionReject QuotationAction = "reject"
	ActionAward  QuotationAction = "award"
)

func (s *Session) QuotationAction(ctx context.Context, id string, action QuotationAction) (Quotation, error) {
	var q Quotation
	err := s.send(ctx, http.MethodPost, "/api/quotations/"+url.PathEscape(id)+"/"+string(action), nil, &q)
	return q, err
}

func (s *Session) Evaluate(ctx context.Context, quotationID string, scores Scores) (Evaluation, error) {
	var e Evaluation
	err := s.send(ctx, http.MethodPost, "/api/quotations/"+url.PathEscape(quotationID)+"/evaluate", scores, &e)
	return e, err
}

func (s *Session) ListEvaluations(ctx context.Context, rfqID string, shortlistedOnly bool, p ListParams) (Page[Evaluation], error) {
	q := p.Values()
	if shortlistedOnly {
		q.Set("shortlisted", "true")
	}
	var page Page[Evaluation]
	err := s.get(ctx, "/api/rfqs/"+url.PathEscape(rfqID)+"/evaluations", q, &page)
	return page, err
}

func (s *Session) Shortlist(ctx context.Context, evaluationID string) (Evaluation, error) {
	var e Evaluation
	err := s.send(ctx, http.MethodPost, "/api/evaluations/"+url.PathEscape(evaluationID)+"/shortlist", nil, &e)
	return e, err
}

// --- Activity ---

func (s *Session) activity(ctx context.Context, entityType, id string, p ListParams) (Page[ActivityEntry], error) {
	var page Page[ActivityEntry]
	err := s.get(ctx, "/api/activity-logs/"+entityType+"/"+url.PathEscape(id), p.Values(), &page)
	return page, err
}

func (s *Session) SupplierActivity(ctx context.Context, id string, p ListParams) (Page[ActivityEntry], error) {
	return s.activity(ctx, "supplier", id, p)
}

func (s *Session) ProductActivity(ctx context.Context, id string, p ListParams) (Page[ActivityEntry], error) {
	return s.activity(ctx, "product", id, p)
}

func (s *Session) UserActivity(ctx context.Context, id string, p ListParams) (Page[ActivityEntry], error) {
	return s.activity(ctx, "user", id, p)
}

// --- Lists used by the export screen ---

func (s *Session) ListSuppliers(ctx context.Context, p ListParams) (Page[Supplier], error) {
	var page Page[Supplier]
	err := s.get(ctx, "/api/suppliers", p.Values(), &page)
	return page, err
}

func (s *Session) ListProducts(ctx context.Context, p ListParams) (Page[Product], error) {
	var page Page[Product]
	err := s.get(ctx, "/api/products", p.Values(), &page)
	return page, err
}

func (s *Session) ListUsers(ctx context.Context, p ListParams) (Page[User], error) {
	var page Page[User]
	err := s.get(ctx, "/api/users", p.Values(), &page)
	return page, err
}

// Statistics fetches the summary; empty dates fall back to the current month
func (s *Session) Statistics(ctx context.Context, startDate, endDate string) (Statistics, error) {
	q := url.Values{}
	if startDate != "" {
		q.Set("start_date", startDate)
	}
	if endDate != "" {
		q.Set("end_date", endDate)
	}
	var st Statistics
	err := s.get(ctx, "/api/statistics", q, &st)
	return st, err
}
