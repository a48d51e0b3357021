package lifecycle

import (
	"context"
	"testing"
	"time"

	"procurement/internal/client"
	"procurement/internal/form"
	"procurement/internal/querycache"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	rfq         client.RFQ
	quotations  []client.Quotation
	evaluations []client.Evaluation

	rfqCalls   int
	listCalls  int
	lastParams client.ListParams
	lastShort  bool
	actions    []client.QuotationAction
	scored     *client.Scores
	err        error
}

func (f *fakeBackend) GetRFQ(context.Context, string) (client.RFQ, error) {
	f.rfqCalls++
	return f.rfq, nil
}

func (f *fakeBackend) ListQuotations(_ context.Context, _ string, p client.ListParams) (client.Page[client.Quotation], error) {
	f.listCalls++
	f.lastParams = p
	return client.Page[client.Quotation]{Data: f.quotations, Total: int64(len(f.quotations)), CurrentPage: 1, LastPage: 1, PerPage: 10}, nil
}

func (f *fakeBackend) GetQuotation(_ context.Context, id string) (client.Quotation, error) {
	for _, q := range f.quotations {
		if q.ID == id {
			return q, nil
		}
	}
	return client.Quotation{}, &client.APIError{Status: 404, Message: "quotation not found"}
}

func (f *fakeBackend) QuotationAction(_ context.Context, id string, action client.QuotationAction) (client.Quotation, error) {
	if f.err != nil {
		return client.Quotation{}, f.err
	}
	f.actions = append(f.actions, action)
	return client.Quotation{ID: id, RFQID: f.rfq.ID, Status: string(action) + "ed"}, nil
}

func (f *fakeBackend) Evaluate(_ context.Context, qid string, s client.Scores) (client.Evaluation, error) {
	f.scored = &s
	return client.Evaluation{ID: "ev-1", QuotationID: qid, RFQID: f.rfq.ID}, nil
}

func (f *fakeBackend) ListEvaluations(_ context.Context, _ string, shortlisted bool, p client.ListParams) (client.Page[client.Evaluation], error) {
	f.listCalls++
	f.lastParams = p
	f.lastShort = shortlisted
	return client.Page[client.Evaluation]{Data: f.evaluations, Total: int64(len(f.evaluations)), CurrentPage: 1, LastPage: 1, PerPage: 10}, nil
}

func (f *fakeBackend) Shortlist(_ context.Context, id string) (client.Evaluation, error) {
	return client.Evaluation{ID: id, RFQID: f.rfq.ID, IsShortlisted: true}, nil
}

func intp(v int) *int { return &v }

func TestQuotationRowActionsFollowGuards(t *testing.T) {
	be := &fakeBackend{
		rfq: client.RFQ{ID: "r1", Status: "evaluation"},
		quotations: []client.Quotation{
			{ID: "q1", Status: "submitted"},
			{ID: "q2", Status: "shortlisted", Evaluation: &client.Evaluation{ID: "e2", IsShortlisted: true}},
			{ID: "q3", Status: "awarded", Evaluation: &client.Evaluation{ID: "e3", IsShortlisted: true}},
		},
	}
	s := New(be, querycache.New(time.Minute))

	list, err := s.Quotations(context.Background(), "r1", "", client.ListParams{Page: 1})
	require.NoError(t, err)
	require.Len(t, list.Rows, 3)

	q1 := list.Rows[0].Actions
	require.True(t, q1.Accept)
	require.True(t, q1.Reject)
	require.True(t, q1.Evaluate)
	require.False(t, q1.Shortlist)
	require.False(t, q1.Award)

	q2 := list.Rows[1].Actions
	require.False(t, q2.Accept)
	require.False(t, q2.Reject)
	require.False(t, q2.Evaluate)
	require.True(t, q2.Award)

	q3 := list.Rows[2].Actions
	require.False(t, q3.Accept || q3.Reject || q3.Evaluate || q3.Shortlist || q3.Award)
}

func TestQuotationsStatusFilter(t *testing.T) {
	be := &fakeBackend{rfq: client.RFQ{ID: "r1", Status: "published"}}
	s := New(be, querycache.New(time.Minute))

	_, err := s.Quotations(context.Background(), "r1", "pending", client.ListParams{})
	var fe form.Errors
	require.ErrorAs(t, err, &fe)
	require.Contains(t, fe, "status")
	require.Zero(t, be.listCalls)

	list, err := s.Quotations(context.Background(), "r1", " Awarded ", client.ListParams{Filters: map[string]string{"status": "x", "currency": "USD"}})
	require.NoError(t, err)
	require.Equal(t, "awarded", list.Filter)
	require.Equal(t, "awarded", be.lastParams.Filters["status"])
	require.Equal(t, "USD", be.lastParams.Filters["currency"])
}

func TestQuotationListIsCachedUntilMutation(t *testing.T) {
	be := &fakeBackend{rfq: client.RFQ{ID: "r1", Status: "evaluation"}, quotations: []client.Quotation{{ID: "q1", Status: "submitted"}}}
	cache := querycache.New(time.Minute)
	s := New(be, cache)
	ctx := context.Background()

	_, err := s.Quotations(ctx, "r1", "", client.ListParams{Page: 1})
	require.NoError(t, err)
	_, err = s.Quotations(ctx, "r1", "", client.ListParams{Page: 1})
	require.NoError(t, err)
	require.Equal(t, 1, be.listCalls)
	require.Equal(t, 1, be.rfqCalls)

	_, err = s.Accept(ctx, "q1")
	require.NoError(t, err)
	require.Zero(t, cache.Len())

	_, err = s.Quotations(ctx, "r1", "", client.ListParams{Page: 1})
	require.NoError(t, err)
	require.Equal(t, 2, be.listCalls)
}

func TestFailedMutationKeepsCache(t *testing.T) {
	be := &fakeBackend{rfq: client.RFQ{ID: "r1", Status: "evaluation"}}
	cache := querycache.New(time.Minute)
	s := New(be, cache)

	_, err := s.Quotations(context.Background(), "r1", "", client.ListParams{})
	require.NoError(t, err)
	before := cache.Len()

	be.err = &client.APIError{Status: 409, Message: "quotation already awarded for this rfq"}
	_, err = s.Award(context.Background(), "q1")
	require.Error(t, err)
	require.Equal(t, "quotation already awarded for this rfq", client.MessageOf(err))
	require.Equal(t, before, cache.Len())
}

func TestAwardInvalidatesRFQList(t *testing.T) {
	be := &fakeBackend{rfq: client.RFQ{ID: "r1", Status: "evaluation"}}
	cache := querycache.New(time.Minute)
	cache.Set("rfqs", nil, "list")
	cache.Set("rfqs/r2", nil, "other")
	cache.Set("suppliers", nil, "kept")
	s := New(be, cache)

	_, err := s.Award(context.Background(), "q1")
	require.NoError(t, err)
	require.Equal(t, []client.QuotationAction{client.ActionAward}, be.actions)
	require.Equal(t, 1, cache.Len())
	_, ok := cache.Get("suppliers", nil)
	require.True(t, ok)
}

func TestEvaluationsDefaultSortAndGates(t *testing.T) {
	be := &fakeBackend{
		rfq: client.RFQ{ID: "r1", Status: "evaluation"},
		evaluations: []client.Evaluation{
			{ID: "e1", QuotationStatus: "accepted", TotalScore: decimal.NewFromFloat(83.75)},
			{ID: "e2", QuotationStatus: "shortlisted", IsShortlisted: true, TotalScore: decimal.NewFromInt(70)},
			{ID: "e3", QuotationStatus: "awarded", IsShortlisted: true, TotalScore: decimal.NewFromInt(90)},
		},
	}
	s := New(be, querycache.New(time.Minute))

	list, err := s.Evaluations(context.Background(), "r1", true, client.ListParams{})
	require.NoError(t, err)
	require.True(t, be.lastShort)
	require.Equal(t, "total_score", be.lastParams.SortBy)
	require.Equal(t, "desc", be.lastParams.SortOrder)
	require.True(t, list.ShortlistedOnly)

	require.True(t, list.Rows[0].CanShortlist)
	require.False(t, list.Rows[0].CanAward)
	require.False(t, list.Rows[1].CanShortlist)
	require.True(t, list.Rows[1].CanAward)
	require.False(t, list.Rows[2].CanAward)

	_, err = s.Evaluations(context.Background(), "r1", false, client.ListParams{SortBy: "price_score", SortOrder: "asc"})
	require.NoError(t, err)
	require.Equal(t, "price_score", be.lastParams.SortBy)
}

func TestOutrankedShortlistCannotBeAwarded(t *testing.T) {
	be := &fakeBackend{
		rfq: client.RFQ{ID: "r1", Status: "evaluation"},
		evaluations: []client.Evaluation{
			{ID: "e1", QuotationStatus: "shortlisted", IsShortlisted: true, TotalScore: decimal.NewFromInt(88)},
			{ID: "e2", QuotationStatus: "shortlisted", IsShortlisted: true, Outranked: true, TotalScore: decimal.NewFromInt(75)},
		},
	}
	list, err := New(be, querycache.New(time.Minute)).Evaluations(context.Background(), "r1", true, client.ListParams{})
	require.NoError(t, err)
	require.True(t, list.Rows[0].CanAward)
	require.False(t, list.Rows[1].CanAward)
}

func TestClosedRFQHidesAward(t *testing.T) {
	be := &fakeBackend{
		rfq:         client.RFQ{ID: "r1", Status: "closed"},
		evaluations: []client.Evaluation{{ID: "e1", QuotationStatus: "shortlisted", IsShortlisted: true}},
	}
	list, err := New(be, querycache.New(time.Minute)).Evaluations(context.Background(), "r1", false, client.ListParams{})
	require.NoError(t, err)
	require.False(t, list.Rows[0].CanAward)
}

func TestScoresFormValidation(t *testing.T) {
	_, err := ScoresForm{PriceScore: intp(80), DeliveryScore: intp(101), FinancialScore: intp(-1)}.Validate()
	var fe form.Errors
	require.ErrorAs(t, err, &fe)
	require.Len(t, fe, 4)
	require.Equal(t, "Score must be between 0 and 100", fe["delivery_score"])
	require.Equal(t, "Score is required", fe["compliance_score"])

	scores, err := ScoresForm{
		PriceScore: intp(0), DeliveryScore: intp(100), FinancialScore: intp(70),
		PerformanceScore: intp(85), ComplianceScore: intp(95), Remarks: "  ok ",
	}.Validate()
	require.NoError(t, err)
	require.Equal(t, 100, scores.DeliveryScore)
	require.Equal(t, "ok", scores.Remarks)
}

func TestEvaluateRedirectsToEvaluations(t *testing.T) {
	be := &fakeBackend{rfq: client.RFQ{ID: "r1", Status: "evaluation"}}
	s := New(be, querycache.New(time.Minute))

	_, err := s.Evaluate(context.Background(), "q1", ScoresForm{})
	require.Error(t, err)
	require.Nil(t, be.scored)

	res, err := s.Evaluate(context.Background(), "q1", ScoresForm{
		PriceScore: intp(80), DeliveryScore: intp(90), FinancialScore: intp(70),
		PerformanceScore: intp(85), ComplianceScore: intp(95),
	})
	require.NoError(t, err)
	require.Equal(t, "/dashboard/rfqs/r1/evaluations", res.Redirect)
	require.Equal(t, 80, be.scored.PriceScore)
}
