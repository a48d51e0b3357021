package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"procurement/internal/model"
	"procurement/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type quotationFixture struct {
	rfqs        *fakeRFQRepo
	quotations  *fakeQuotationRepo
	suppliers   *fakeSupplierRepo
	activity    *recordedActivity
	quotation   *quotationService
	evaluation  EvaluationService
	rfqID       uuid.UUID
	productID   uuid.UUID
	supplierIDs []uuid.UUID
}

func newQuotationFixture(t *testing.T) *quotationFixture {
	t.Helper()
	f := &quotationFixture{
		rfqs:       newFakeRFQRepo(),
		quotations: newFakeQuotationRepo(),
		suppliers:  &fakeSupplierRepo{suppliers: map[uuid.UUID]*model.Supplier{}},
		activity:   &recordedActivity{},
	}
	f.quotation = &quotationService{
		quotationRepo:  f.quotations,
		rfqRepo:        f.rfqs,
		supplierRepo:   f.suppliers,
		evaluationRepo: f.quotations.evals,
		activity:       f.activity,
		txManager:      inlineTx{},
		notifier:       nopNotifier{},
		now:            func() time.Time { return fixedNow },
	}
	f.evaluation = NewEvaluationService(f.quotations.evals, f.quotations, f.rfqs, f.activity, inlineTx{}, nil)

	f.productID = uuid.New()
	rfq := &model.RFQ{
		ReferenceNumber:    "RFQ-2026-0007",
		Status:             "published",
		SubmissionDeadline: fixedNow.Add(24 * time.Hour),
	}
	require.NoError(t, f.rfqs.Create(context.Background(), rfq))
	require.NoError(t, f.rfqs.ReplaceProducts(context.Background(), rfq.ID, []model.RFQProduct{{ProductID: f.productID, Quantity: 10}}))
	f.rfqID = rfq.ID

	for _, status := range []string{model.SupplierStatusActive, model.SupplierStatusActive, model.SupplierStatusBlacklisted} {
		id := uuid.New()
		f.suppliers.suppliers[id] = &model.Supplier{ID: id, LegalName: "Supplier " + id.String()[:4], Status: status}
		f.supplierIDs = append(f.supplierIDs, id)
	}
	return f
}

func (f *quotationFixture) submit(t *testing.T, supplier uuid.UUID, price string) QuotationResponse {
	t.Helper()
	res, err := f.quotation.Submit(context.Background(), f.rfqID.String(), SubmitQuotationRequest{
		SupplierID: supplier.String(),
		Items: []QuotationItemPayload{{
			ProductID: f.productID.String(),
			Quantity:  10,
			UnitPrice: decimal.RequireFromString(price),
			Discount:  decimal.NewFromInt(10),
		}},
	})
	require.NoError(t, err)
	return res
}

func scores(v int) EvaluateRequest {
	return EvaluateRequest{PriceScore: &v, DeliveryScore: &v, FinancialScore: &v, PerformanceScore: &v, ComplianceScore: &v}
}

func TestLineTotal(t *testing.T) {
	tests := []struct {
		qty      int
		price    string
		discount string
		want     string
	}{
		{10, "25.50", "0", "255.00"},
		{10, "25.50", "10", "229.50"},
		{3, "9.99", "12.5", "26.22"},
		{1, "100", "100", "0.00"},
	}
	for _, tt := range tests {
		got := LineTotal(tt.qty, decimal.RequireFromString(tt.price), decimal.RequireFromString(tt.discount))
		require.Equal(t, tt.want, got.StringFixed(2), "%d x %s less %s%%", tt.qty, tt.price, tt.discount)
	}
}

func TestSubmitQuotation(t *testing.T) {
	f := newQuotationFixture(t)
	res := f.submit(t, f.supplierIDs[0], "25.50")
	require.Equal(t, "submitted", res.Status)
	require.Equal(t, "USD", res.Currency)
	require.Equal(t, "229.50", res.TotalAmount.StringFixed(2))
	require.Len(t, res.Items, 1)

	_, err := f.quotation.Submit(context.Background(), f.rfqID.String(), SubmitQuotationRequest{
		SupplierID: f.supplierIDs[0].String(),
		Items:      []QuotationItemPayload{{ProductID: f.productID.String(), Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
	})
	require.ErrorIs(t, err, ErrConflict, "one quotation per supplier per rfq")

	_, err = f.quotation.Submit(context.Background(), f.rfqID.String(), SubmitQuotationRequest{
		SupplierID: f.supplierIDs[2].String(),
		Items:      []QuotationItemPayload{{ProductID: f.productID.String(), Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
	})
	require.ErrorIs(t, err, ErrValidation, "blacklisted suppliers cannot quote")
}

func TestSubmitQuotationRejectsItemsOffTheRFQ(t *testing.T) {
	f := newQuotationFixture(t)
	_, err := f.quotation.Submit(context.Background(), f.rfqID.String(), SubmitQuotationRequest{
		SupplierID: f.supplierIDs[0].String(),
		Items: []QuotationItemPayload{
			{ProductID: uuid.NewString(), Quantity: 1, UnitPrice: decimal.NewFromInt(1)},
			{ProductID: f.productID.String(), Quantity: 1, UnitPrice: decimal.NewFromInt(1), Discount: decimal.NewFromInt(120)},
		},
	})
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Contains(t, verrs, "items[0].product_id")
	require.Contains(t, verrs, "items[1].discount")
}

func TestSubmitQuotationAfterDeadline(t *testing.T) {
	f := newQuotationFixture(t)
	f.quotation.now = func() time.Time { return fixedNow.Add(48 * time.Hour) }
	_, err := f.quotation.Submit(context.Background(), f.rfqID.String(), SubmitQuotationRequest{
		SupplierID: f.supplierIDs[0].String(),
		Items:      []QuotationItemPayload{{ProductID: f.productID.String(), Quantity: 1, UnitPrice: decimal.NewFromInt(1)}},
	})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAcceptAndReject(t *testing.T) {
	f := newQuotationFixture(t)
	ctx := context.Background()
	accepted := f.submit(t, f.supplierIDs[0], "10")
	rejected := f.submit(t, f.supplierIDs[1], "11")

	res, err := f.quotation.Accept(ctx, accepted.ID)
	require.NoError(t, err)
	require.Equal(t, "accepted", res.Status)

	_, err = f.quotation.Accept(ctx, accepted.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.quotation.Reject(ctx, accepted.ID)
	require.ErrorIs(t, err, ErrInvalidTransition, "accept and reject are mutually exclusive")
	require.Equal(t, "accepted", f.quotations.quotations[uuid.MustParse(accepted.ID)].Status)

	res, err = f.quotation.Reject(ctx, rejected.ID)
	require.NoError(t, err)
	require.Equal(t, "rejected", res.Status)

	_, err = f.quotation.Reject(ctx, rejected.ID)
	require.ErrorIs(t, err, ErrInvalidTransition, "rejected is absorbing")
	_, err = f.quotation.Accept(ctx, rejected.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestEvaluateShortlistAward(t *testing.T) {
	f := newQuotationFixture(t)
	ctx := context.Background()
	first := f.submit(t, f.supplierIDs[0], "10")
	second := f.submit(t, f.supplierIDs[1], "12")

	_, err := f.evaluation.Evaluate(ctx, first.ID, scores(80))
	require.ErrorIs(t, err, ErrInvalidTransition, "rfq is not in evaluation yet")

	require.NoError(t, f.rfqs.UpdateStatus(ctx, f.rfqID, "evaluation"))

	p, d, fi, pe, c := 80, 90, 70, 85, 95
	eval, err := f.evaluation.Evaluate(ctx, first.ID, EvaluateRequest{
		PriceScore: &p, DeliveryScore: &d, FinancialScore: &fi, PerformanceScore: &pe, ComplianceScore: &c,
	})
	require.NoError(t, err)
	require.Equal(t, "83.75", eval.TotalScore.StringFixed(2))

	_, err = f.evaluation.Evaluate(ctx, first.ID, scores(50))
	require.ErrorIs(t, err, ErrConflict, "a quotation is evaluated once")

	_, err = f.quotation.Award(ctx, first.ID)
	require.ErrorIs(t, err, ErrInvalidTransition, "award needs a shortlisted evaluation")

	shortlisted, err := f.evaluation.Shortlist(ctx, eval.ID)
	require.NoError(t, err)
	require.True(t, shortlisted.IsShortlisted)
	require.Equal(t, "shortlisted", f.quotations.quotations[uuid.MustParse(first.ID)].Status)

	_, err = f.evaluation.Shortlist(ctx, eval.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)

	awarded, err := f.quotation.Award(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, "awarded", awarded.Status)
	require.Equal(t, "awarded", f.rfqs.rfqs[f.rfqID].Status)

	// the second quotation cannot be evaluated or awarded once the rfq is awarded
	_, err = f.evaluation.Evaluate(ctx, second.ID, scores(99))
	require.ErrorIs(t, err, ErrInvalidTransition)

	require.Contains(t, f.activity.actions(), "quotation:awarded")
	require.Contains(t, f.activity.actions(), "rfq:status_changed")

	list, total, err := f.evaluation.ListByRFQ(ctx, f.rfqID.String(), true, pagination.New(1, 10, "", "", ""))
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, eval.ID, list[0].ID)
}

func TestAwardRefusesSecondWinner(t *testing.T) {
	f := newQuotationFixture(t)
	ctx := context.Background()
	first := f.submit(t, f.supplierIDs[0], "10")
	second := f.submit(t, f.supplierIDs[1], "12")
	require.NoError(t, f.rfqs.UpdateStatus(ctx, f.rfqID, "evaluation"))

	for _, q := range []QuotationResponse{first, second} {
		e, err := f.evaluation.Evaluate(ctx, q.ID, scores(70))
		require.NoError(t, err)
		_, err = f.evaluation.Shortlist(ctx, e.ID)
		require.NoError(t, err)
	}

	_, err := f.quotation.Award(ctx, first.ID)
	require.NoError(t, err)

	// put the rfq back to simulate a racing award that read it before the first commit
	f.rfqs.rfqs[f.rfqID].Status = "evaluation"
	_, err = f.quotation.Award(ctx, second.ID)
	require.ErrorIs(t, err, ErrConflict)
	require.Equal(t, "shortlisted", f.quotations.quotations[uuid.MustParse(second.ID)].Status)
}

func TestAwardOnlyTopShortlistedScore(t *testing.T) {
	f := newQuotationFixture(t)
	ctx := context.Background()
	lower := f.submit(t, f.supplierIDs[0], "10")
	higher := f.submit(t, f.supplierIDs[1], "12")
	require.NoError(t, f.rfqs.UpdateStatus(ctx, f.rfqID, "evaluation"))

	for q, score := range map[string]int{lower.ID: 60, higher.ID: 90} {
		e, err := f.evaluation.Evaluate(ctx, q, scores(score))
		require.NoError(t, err)
		_, err = f.evaluation.Shortlist(ctx, e.ID)
		require.NoError(t, err)
	}

	list, _, err := f.evaluation.ListByRFQ(ctx, f.rfqID.String(), true, pagination.New(1, 10, "", "", ""))
	require.NoError(t, err)
	require.Len(t, list, 2)
	for _, e := range list {
		require.Equal(t, e.QuotationID == lower.ID, e.Outranked, e.QuotationID)
	}

	_, err = f.quotation.Award(ctx, lower.ID)
	require.ErrorIs(t, err, ErrInvalidTransition)
	require.ErrorContains(t, err, "higher total score")
	require.Equal(t, "shortlisted", f.quotations.quotations[uuid.MustParse(lower.ID)].Status)

	awarded, err := f.quotation.Award(ctx, higher.ID)
	require.NoError(t, err)
	require.Equal(t, "awarded", awarded.Status)
}

func TestValidateScores(t *testing.T) {
	over, under := 101, -1
	_, err := validateScores(EvaluateRequest{PriceScore: &over, DeliveryScore: &under})
	var verrs ValidationErrors
	require.True(t, errors.As(err, &verrs))
	require.Equal(t, "must be between 0 and 100", verrs["price_score"])
	require.Equal(t, "must be between 0 and 100", verrs["delivery_score"])
	require.Equal(t, "is required", verrs["financial_score"])

	s, err := validateScores(scores(100))
	require.NoError(t, err)
	require.Equal(t, "100.00", TotalScore(s).StringFixed(2))
}
