package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/internal/workflow"
	"procurement/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type QuotationItemPayload struct {
	ProductID      string          `json:"product_id"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Discount       decimal.Decimal `json:"discount"`
	WarrantyPeriod int             `json:"warranty_period"`
	WarrantyUnit   string          `json:"warranty_unit"`
}

type SubmitQuotationRequest struct {
	SupplierID string                 `json:"supplier_id"`
	Currency   string                 `json:"currency"`
	Notes      string                 `json:"notes"`
	ValidUntil *time.Time             `json:"valid_until"`
	Items      []QuotationItemPayload `json:"items"`
}

type QuotationItemResponse struct {
	ID             string          `json:"id"`
	ProductID      string          `json:"product_id"`
	ProductName    string          `json:"product_name,omitempty"`
	Quantity       int             `json:"quantity"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Discount       decimal.Decimal `json:"discount"`
	WarrantyPeriod int             `json:"warranty_period"`
	WarrantyUnit   string          `json:"warranty_unit"`
	LineTotal      decimal.Decimal `json:"line_total"`
}

type QuotationResponse struct {
	ID           string                  `json:"id"`
	RFQID        string                  `json:"rfq_id"`
	RFQStatus    string                  `json:"rfq_status,omitempty"`
	SupplierID   string                  `json:"supplier_id"`
	SupplierName string                  `json:"supplier_name"`
	Status       string                  `json:"status"`
	Currency     string                  `json:"currency"`
	TotalAmount  decimal.Decimal         `json:"total_amount"`
	Notes        string                  `json:"notes"`
	ValidUntil   *time.Time              `json:"valid_until"`
	Items        []QuotationItemResponse `json:"items"`
	Evaluation   *EvaluationResponse     `json:"evaluation"`
	CreatedAt    time.Time               `json:"created_at"`
}

// --- Interface ---

type QuotationService interface {
	Submit(ctx context.Context, rfqID string, req SubmitQuotationRequest) (QuotationResponse, error)
	ListByRFQ(ctx context.Context, rfqID, status string, p pagination.Params) ([]QuotationResponse, int64, error)
	GetQuotation(ctx context.Context, id string) (QuotationResponse, error)
	Accept(ctx context.Context, id string) (QuotationResponse, error)
	Reject(ctx context.Context, id string) (QuotationResponse, error)
	Award(ctx context.Context, id string) (QuotationResponse, error)
}

type quotationService struct {
	quotationRepo  repository.QuotationRepository
	rfqRepo        repository.RFQRepository
	supplierRepo   repository.SupplierRepository
	evaluationRepo repository.EvaluationRepository
	activity       ActivityService
	txManager      repository.TransactionManager
	notifier       Notifier
	now            func() time.Time
}

func NewQuotationService(
	quotationRepo repository.QuotationRepository,
	rfqRepo repository.RFQRepository,
	supplierRepo repository.SupplierRepository,
	evaluationRepo repository.EvaluationRepository,
	activity ActivityService,
	txManager repository.TransactionManager,
	notifier Notifier,
) QuotationService {
	return &quotationService{
		quotationRepo:  quotationRepo,
		rfqRepo:        rfqRepo,
		supplierRepo:   supplierRepo,
		evaluationRepo: evaluationRepo,
		activity:       activity,
		txManager:      txManager,
		notifier:       notifierOrNop(notifier),
		now:            time.Now,
	}
}

var hundred = decimal.NewFromInt(100)

// LineTotal is quantity * unit price less the percentage discount, rounded to cents
func LineTotal(qty int, unitPrice, discountPct decimal.Decimal) decimal.Decimal {
	gross := unitPrice.Mul(decimal.NewFromInt(int64(qty)))
	factor := hundred.Sub(discountPct).Div(hundred)
	return gross.Mul(factor).Round(2)
}

var warrantyUnits = map[string]bool{"": true, "days": true, "months": true, "years": true}

func (s *quotationService) Submit(ctx context.Context, rfqID string, req SubmitQuotationRequest) (QuotationResponse, error) {
	rid, err := parseID(rfqID, "rfq_id")
	if err != nil {
		return QuotationResponse{}, err
	}
	sid, err := parseID(req.SupplierID, "supplier_id")
	if err != nil {
		return QuotationResponse{}, err
	}
	if len(req.Items) == 0 {
		return QuotationResponse{}, invalid("items", "at least one item is required")
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	q := &model.Quotation{
		RFQID:      rid,
		SupplierID: sid,
		Status:     string(workflow.QuotationSubmitted),
		Currency:   currency,
		Notes:      strings.TrimSpace(req.Notes),
		ValidUntil: req.ValidUntil,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rfq, err := s.rfqRepo.FindByIDForUpdate(txCtx, rid)
		if err != nil {
			return notFound(err, "rfq")
		}
		st, err := workflow.ParseRFQStatus(rfq.Status)
		if err != nil {
			return err
		}
		if !st.AcceptsQuotations() {
			return fmt.Errorf("%w: rfq in status %q does not accept quotations", ErrInvalidTransition, st)
		}
		if !rfq.SubmissionDeadline.After(s.now()) {
			return fmt.Errorf("%w: submission deadline has passed", ErrInvalidTransition)
		}

		supplier, err := s.supplierRepo.FindByID(txCtx, sid)
		if err != nil {
			return notFound(err, "supplier")
		}
		if supplier.Status != model.SupplierStatusActive {
			return invalid("supplier_id", fmt.Sprintf("supplier is %s", supplier.Status))
		}

		exists, err := s.quotationRepo.ExistsForSupplier(txCtx, rid, sid)
		if err != nil {
			return fmt.Errorf("failed to check existing quotation: %w", err)
		}
		if exists {
			return fmt.Errorf("%w: supplier already submitted a quotation for this rfq", ErrConflict)
		}

		full, err := s.rfqRepo.FindByID(txCtx, rid)
		if err != nil {
			return notFound(err, "rfq")
		}
		onRFQ := map[uuid.UUID]bool{}
		for _, p := range full.Products {
			onRFQ[p.ProductID] = true
		}

		items, total, err := buildItems(req.Items, onRFQ)
		if err != nil {
			return err
		}
		q.Items = items
		q.TotalAmount = total

		if err := s.quotationRepo.Create(txCtx, q); err != nil {
			return duplicate(fmt.Errorf("failed to create quotation: %w", err), "supplier already submitted a quotation for this rfq")
		}
		return s.activity.Record(txCtx, model.EntityQuotation, q.ID, model.ActionSubmitted, map[string]Change{
			"total_amount": {New: total.StringFixed(2) + " " + currency},
			"rfq":          {New: rfq.ReferenceNumber},
		})
	})
	if err != nil {
		return QuotationResponse{}, err
	}

	s.notifier.Invalidate("quotations", q.ID)
	return s.GetQuotation(ctx, q.ID.String())
}

func buildItems(payloads []QuotationItemPayload, onRFQ map[uuid.UUID]bool) ([]model.QuotationItem, decimal.Decimal, error) {
	errs := ValidationErrors{}
	total := decimal.Zero
	items := make([]model.QuotationItem, 0, len(payloads))
	for i, p := range payloads {
		key := func(f string) string { return fmt.Sprintf("items[%d].%s", i, f) }

		pid, err := uuid.Parse(strings.TrimSpace(p.ProductID))
		if err != nil {
			errs[key("product_id")] = "is required"
			continue
		}
		if !onRFQ[pid] {
			errs[key("product_id")] = "is not requested on this rfq"
			continue
		}
		if p.Quantity <= 0 {
			errs[key("quantity")] = "must be a positive integer"
			continue
		}
		if p.UnitPrice.IsNegative() {
			errs[key("unit_price")] = "must not be negative"
			continue
		}
		if p.Discount.IsNegative() || p.Discount.GreaterThan(hundred) {
			errs[key("discount")] = "must be between 0 and 100"
			continue
		}
		unit := strings.ToLower(strings.TrimSpace(p.WarrantyUnit))
		if !warrantyUnits[unit] || p.WarrantyPeriod < 0 {
			errs[key("warranty_unit")] = "must be days, months or years"
			continue
		}

		line := LineTotal(p.Quantity, p.UnitPrice, p.Discount)
		total = total.Add(line)
		items = append(items, model.QuotationItem{
			ProductID:      pid,
			Quantity:       p.Quantity,
			UnitPrice:      p.UnitPrice,
			Discount:       p.Discount,
			WarrantyPeriod: p.WarrantyPeriod,
			WarrantyUnit:   unit,
			LineTotal:      line,
		})
	}
	if err := errs.orNil(); err != nil {
		return nil, decimal.Zero, err
	}
	return items, total, nil
}

// --- Queries ---

var quotationFilterStatuses = map[string]bool{
	"": true, "submitted": true, "accepted": true, "rejected": true,
	"shortlisted": true, "awarded": true, "po_generated": true,
}

func (s *quotationService) ListByRFQ(ctx context.Context, rfqID, status string, p pagination.Params) ([]QuotationResponse, int64, error) {
	rid, err := parseID(rfqID, "rfq_id")
	if err != nil {
		return nil, 0, err
	}
	status = strings.ToLower(strings.TrimSpace(status))
	if !quotationFilterStatuses[status] {
		return nil, 0, invalid("status", "unknown quotation status")
	}

	rfq, err := s.rfqRepo.FindByID(ctx, rid)
	if err != nil {
		return nil, 0, notFound(err, "rfq")
	}

	quotations, total, err := s.quotationRepo.ListByRFQ(ctx, rid, status, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch quotations: %w", err)
	}

	top, found, err := s.evaluationRepo.TopShortlistedScore(ctx, rid)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to rank evaluations: %w", err)
	}
	res := make([]QuotationResponse, 0, len(quotations))
	for i := range quotations {
		r := toQuotationResponse(&quotations[i])
		r.RFQStatus = rfq.Status
		if e := quotations[i].Evaluation; e != nil && r.Evaluation != nil {
			r.Evaluation.Outranked = outranked(e, top, found)
		}
		res = append(res, r)
	}
	return res, total, nil
}

func (s *quotationService) GetQuotation(ctx context.Context, id string) (QuotationResponse, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return QuotationResponse{}, err
	}
	q, err := s.quotationRepo.FindByID(ctx, uid)
	if err != nil {
		return QuotationResponse{}, notFound(err, "quotation")
	}
	return toQuotationResponse(q), nil
}

// --- Transitions ---

func (s *quotationService) Accept(ctx context.Context, id string) (QuotationResponse, error) {
	return s.acceptOrReject(ctx, id, workflow.EventAccept)
}

func (s *quotationService) Reject(ctx context.Context, id string) (QuotationResponse, error) {
	return s.acceptOrReject(ctx, id, workflow.EventReject)
}

func (s *quotationService) acceptOrReject(ctx context.Context, id string, ev workflow.QuotationEvent) (QuotationResponse, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return QuotationResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		q, err := s.quotationRepo.FindByIDForUpdate(txCtx, uid)
		if err != nil {
			return notFound(err, "quotation")
		}
		rfq, err := s.rfqRepo.FindByIDForUpdate(txCtx, q.RFQID)
		if err != nil {
			return notFound(err, "rfq")
		}
		rfqStatus, err := workflow.ParseRFQStatus(rfq.Status)
		if err != nil {
			return err
		}
		from, err := workflow.ParseQuotationStatus(q.Status)
		if err != nil {
			return err
		}
		if !workflow.CanAcceptOrReject(from) || rfqStatus.IsTerminal() {
			return fmt.Errorf("%w: cannot %s quotation in status %q", ErrInvalidTransition, ev, from)
		}
		to, err := workflow.NextQuotation(from, ev)
		if err != nil {
			return transition(err)
		}

		if err := s.quotationRepo.UpdateStatus(txCtx, uid, string(to)); err != nil {
			return fmt.Errorf("failed to update quotation status: %w", err)
		}
		return s.activity.Record(txCtx, model.EntityQuotation, uid, model.ActionStatusChanged, map[string]Change{
			"status": {Old: string(from), New: string(to)},
		})
	})
	if err != nil {
		return QuotationResponse{}, err
	}

	s.notifier.Invalidate("quotations", uid)
	return s.GetQuotation(ctx, id)
}

// Award selects the winning quotation. The RFQ row is locked first so two
// concurrent awards on the same RFQ serialize; the partial unique index on
// quotations(rfq_id) backs this up.
func (s *quotationService) Award(ctx context.Context, id string) (QuotationResponse, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return QuotationResponse{}, err
	}

	var rfqID uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		peek, err := s.quotationRepo.FindByID(txCtx, uid)
		if err != nil {
			return notFound(err, "quotation")
		}
		rfqID = peek.RFQID

		rfq, err := s.rfqRepo.FindByIDForUpdate(txCtx, rfqID)
		if err != nil {
			return notFound(err, "rfq")
		}
		q, err := s.quotationRepo.FindByIDForUpdate(txCtx, uid)
		if err != nil {
			return notFound(err, "quotation")
		}

		rfqFrom, err := workflow.ParseRFQStatus(rfq.Status)
		if err != nil {
			return err
		}
		qFrom, err := workflow.ParseQuotationStatus(q.Status)
		if err != nil {
			return err
		}

		var state *workflow.EvaluationState
		e, err := s.evaluationRepo.FindByQuotationID(txCtx, uid)
		switch {
		case err == nil:
			top, found, err := s.evaluationRepo.TopShortlistedScore(txCtx, rfqID)
			if err != nil {
				return fmt.Errorf("failed to rank evaluations: %w", err)
			}
			state = &workflow.EvaluationState{IsShortlisted: e.IsShortlisted, Outranked: outranked(e, top, found)}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to load evaluation: %w", err)
		}
		if state != nil && state.Outranked {
			return fmt.Errorf("%w: a shortlisted quotation with a higher total score exists", ErrInvalidTransition)
		}
		if !workflow.CanAward(rfqFrom, qFrom, state) {
			return fmt.Errorf("%w: quotation must be shortlisted and the rfq open for award", ErrInvalidTransition)
		}

		awarded, err := s.quotationRepo.CountAwarded(txCtx, rfqID)
		if err != nil {
			return fmt.Errorf("failed to check awarded quotations: %w", err)
		}
		if awarded > 0 {
			return fmt.Errorf("%w: rfq already has an awarded quotation", ErrConflict)
		}

		qTo, err := workflow.NextQuotation(qFrom, workflow.EventAward)
		if err != nil {
			return transition(err)
		}
		rfqTo, err := workflow.NextRFQ(rfqFrom, workflow.EventAwardRFQ)
		if err != nil {
			return transition(err)
		}

		if err := s.quotationRepo.UpdateStatus(txCtx, uid, string(qTo)); err != nil {
			return duplicate(fmt.Errorf("failed to award quotation: %w", err), "rfq already has an awarded quotation")
		}
		if err := s.rfqRepo.UpdateStatus(txCtx, rfqID, string(rfqTo)); err != nil {
			return fmt.Errorf("failed to update rfq status: %w", err)
		}

		if err := s.activity.Record(txCtx, model.EntityQuotation, uid, model.ActionAwarded, map[string]Change{
			"status": {Old: string(qFrom), New: string(qTo)},
		}); err != nil {
			return err
		}
		return s.activity.Record(txCtx, model.EntityRFQ, rfqID, model.ActionStatusChanged, map[string]Change{
			"status":            {Old: string(rfqFrom), New: string(rfqTo)},
			"awarded_quotation": {New: uid.String()},
		})
	})
	if err != nil {
		return QuotationResponse{}, err
	}

	s.notifier.Invalidate("quotations", uid)
	s.notifier.Invalidate("rfqs", rfqID)
	return s.GetQuotation(ctx, id)
}

// --- Response mappers ---

func toQuotationResponse(q *model.Quotation) QuotationResponse {
	items := make([]QuotationItemResponse, 0, len(q.Items))
	for _, it := range q.Items {
		item := QuotationItemResponse{
			ID:             it.ID.String(),
			ProductID:      it.ProductID.String(),
			Quantity:       it.Quantity,
			UnitPrice:      it.UnitPrice,
			Discount:       it.Discount,
			WarrantyPeriod: it.WarrantyPeriod,
			WarrantyUnit:   it.WarrantyUnit,
			LineTotal:      it.LineTotal,
		}
		if it.Product != nil {
			item.ProductName = it.Product.Name
		}
		items = append(items, item)
	}

	res := QuotationResponse{
		ID:          q.ID.String(),
		RFQID:       q.RFQID.String(),
		SupplierID:  q.SupplierID.String(),
		Status:      q.Status,
		Currency:    q.Currency,
		TotalAmount: q.TotalAmount,
		Notes:       q.Notes,
		ValidUntil:  q.ValidUntil,
		Items:       items,
		CreatedAt:   q.CreatedAt,
	}
	if q.Supplier != nil {
		res.SupplierName = q.Supplier.LegalName
		if q.Supplier.TradeName != "" {
			res.SupplierName = q.Supplier.TradeName
		}
	}
	if q.RFQ != nil {
		res.RFQStatus = q.RFQ.Status
	}
	if q.Evaluation != nil {
		e := toEvaluationResponse(q.Evaluation)
		res.Evaluation = &e
	}
	return res
}
