package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/internal/workflow"
	"procurement/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Criterion weights of the evaluation total, in percent
var (
	WeightPrice       = decimal.NewFromInt(30)
	WeightDelivery    = decimal.NewFromInt(20)
	WeightFinancial   = decimal.NewFromInt(15)
	WeightPerformance = decimal.NewFromInt(20)
	WeightCompliance  = decimal.NewFromInt(15)
)

// --- DTOs ---

// EvaluateRequest uses pointers so a missing score is told apart from 0
type EvaluateRequest struct {
	PriceScore       *int   `json:"price_score"`
	DeliveryScore    *int   `json:"delivery_score"`
	FinancialScore   *int   `json:"financial_score"`
	PerformanceScore *int   `json:"performance_score"`
	ComplianceScore  *int   `json:"compliance_score"`
	Remarks          string `json:"remarks"`
}

type EvaluationResponse struct {
	ID               string          `json:"id"`
	QuotationID      string          `json:"quotation_id"`
	RFQID            string          `json:"rfq_id"`
	SupplierName     string          `json:"supplier_name,omitempty"`
	QuotationStatus  string          `json:"quotation_status,omitempty"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	Currency         string          `json:"currency,omitempty"`
	PriceScore       int             `json:"price_score"`
	DeliveryScore    int             `json:"delivery_score"`
	FinancialScore   int             `json:"financial_score"`
	PerformanceScore int             `json:"performance_score"`
	ComplianceScore  int             `json:"compliance_score"`
	TotalScore       decimal.Decimal `json:"total_score"`
	IsShortlisted    bool            `json:"is_shortlisted"`
	Outranked        bool            `json:"outranked"`
	Remarks          string          `json:"remarks"`
	CreatedAt        time.Time       `json:"created_at"`
}

// Scores are the five criteria, each 0-100
type Scores struct {
	Price, Delivery, Financial, Performance, Compliance int
}

// TotalScore is the weighted average of the five criteria, rounded to 2 places
func TotalScore(s Scores) decimal.Decimal {
	sum := decimal.NewFromInt(int64(s.Price)).Mul(WeightPrice).
		Add(decimal.NewFromInt(int64(s.Delivery)).Mul(WeightDelivery)).
		Add(decimal.NewFromInt(int64(s.Financial)).Mul(WeightFinancial)).
		Add(decimal.NewFromInt(int64(s.Performance)).Mul(WeightPerformance)).
		Add(decimal.NewFromInt(int64(s.Compliance)).Mul(WeightCompliance))
	return sum.Div(hundred).Round(2)
}

// validateScores requires every score and bounds it to 0..100
func validateScores(req EvaluateRequest) (Scores, error) {
	errs := ValidationErrors{}
	get := func(field string, v *int) int {
		if v == nil {
			errs[field] = "is required"
			return 0
		}
		if *v < 0 || *v > 100 {
			errs[field] = "must be between 0 and 100"
		}
		return *v
	}
	s := Scores{
		Price:       get("price_score", req.PriceScore),
		Delivery:    get("delivery_score", req.DeliveryScore),
		Financial:   get("financial_score", req.FinancialScore),
		Performance: get("performance_score", req.PerformanceScore),
		Compliance:  get("compliance_score", req.ComplianceScore),
	}
	return s, errs.orNil()
}

// --- Interface ---

type EvaluationService interface {
	Evaluate(ctx context.Context, quotationID string, req EvaluateRequest) (EvaluationResponse, error)
	ListByRFQ(ctx context.Context, rfqID string, shortlistedOnly bool, p pagination.Params) ([]EvaluationResponse, int64, error)
	Shortlist(ctx context.Context, evaluationID string) (EvaluationResponse, error)
}

type evaluationService struct {
	evaluationRepo repository.EvaluationRepository
	quotationRepo  repository.QuotationRepository
	rfqRepo        repository.RFQRepository
	activity       ActivityService
	txManager      repository.TransactionManager
	notifier       Notifier
}

func NewEvaluationService(
	evaluationRepo repository.EvaluationRepository,
	quotationRepo repository.QuotationRepository,
	rfqRepo repository.RFQRepository,
	activity ActivityService,
	txManager repository.TransactionManager,
	notifier Notifier,
) EvaluationService {
	return &evaluationService{
		evaluationRepo: evaluationRepo,
		quotationRepo:  quotationRepo,
		rfqRepo:        rfqRepo,
		activity:       activity,
		txManager:      txManager,
		notifier:       notifierOrNop(notifier),
	}
}

func (s *evaluationService) Evaluate(ctx context.Context, quotationID string, req EvaluateRequest) (EvaluationResponse, error) {
	qid, err := parseID(quotationID, "quotation_id")
	if err != nil {
		return EvaluationResponse{}, err
	}
	scores, err := validateScores(req)
	if err != nil {
		return EvaluationResponse{}, err
	}

	var eval *model.Evaluation
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		q, err := s.quotationRepo.FindByIDForUpdate(txCtx, qid)
		if err != nil {
			return notFound(err, "quotation")
		}
		rfq, err := s.rfqRepo.FindByID(txCtx, q.RFQID)
		if err != nil {
			return notFound(err, "rfq")
		}
		rfqStatus, err := workflow.ParseRFQStatus(rfq.Status)
		if err != nil {
			return err
		}
		qStatus, err := workflow.ParseQuotationStatus(q.Status)
		if err != nil {
			return err
		}

		var state *workflow.EvaluationState
		existing, err := s.evaluationRepo.FindByQuotationID(txCtx, qid)
		switch {
		case err == nil:
			state = &workflow.EvaluationState{IsShortlisted: existing.IsShortlisted}
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("failed to load evaluation: %w", err)
		}
		if state != nil {
			return fmt.Errorf("%w: quotation already evaluated", ErrConflict)
		}
		if !workflow.CanEvaluate(rfqStatus, qStatus, state) {
			return fmt.Errorf("%w: quotations can be evaluated only while the rfq is in evaluation", ErrInvalidTransition)
		}

		actor := ActorFrom(txCtx)
		eval = &model.Evaluation{
			QuotationID:      qid,
			RFQID:            q.RFQID,
			PriceScore:       scores.Price,
			DeliveryScore:    scores.Delivery,
			FinancialScore:   scores.Financial,
			PerformanceScore: scores.Performance,
			ComplianceScore:  scores.Compliance,
			TotalScore:       TotalScore(scores),
			Remarks:          req.Remarks,
			EvaluatedBy:      actor.ID,
		}
		if err := s.evaluationRepo.Create(txCtx, eval); err != nil {
			return duplicate(fmt.Errorf("failed to create evaluation: %w", err), "quotation already evaluated")
		}
		return s.activity.Record(txCtx, model.EntityQuotation, qid, model.ActionEvaluated, map[string]Change{
			"total_score": {New: eval.TotalScore.StringFixed(2)},
		})
	})
	if err != nil {
		return EvaluationResponse{}, err
	}

	s.notifier.Invalidate("evaluations", eval.ID)
	s.notifier.Invalidate("quotations", qid)
	return s.get(ctx, eval.ID)
}

func (s *evaluationService) ListByRFQ(ctx context.Context, rfqID string, shortlistedOnly bool, p pagination.Params) ([]EvaluationResponse, int64, error) {
	rid, err := parseID(rfqID, "rfq_id")
	if err != nil {
		return nil, 0, err
	}
	if _, err := s.rfqRepo.FindByID(ctx, rid); err != nil {
		return nil, 0, notFound(err, "rfq")
	}

	evals, total, err := s.evaluationRepo.ListByRFQ(ctx, rid, shortlistedOnly, p)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch evaluations: %w", err)
	}
	top, found, err := s.evaluationRepo.TopShortlistedScore(ctx, rid)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to rank evaluations: %w", err)
	}
	res := make([]EvaluationResponse, 0, len(evals))
	for i := range evals {
		r := toEvaluationResponse(&evals[i])
		r.Outranked = outranked(&evals[i], top, found)
		res = append(res, r)
	}
	return res, total, nil
}

// outranked is true for a shortlisted evaluation below the RFQ's top shortlisted score
func outranked(e *model.Evaluation, top decimal.Decimal, found bool) bool {
	return e.IsShortlisted && found && e.TotalScore.LessThan(top)
}

func (s *evaluationService) Shortlist(ctx context.Context, evaluationID string) (EvaluationResponse, error) {
	eid, err := parseID(evaluationID, "id")
	if err != nil {
		return EvaluationResponse{}, err
	}

	var qid uuid.UUID
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		eval, err := s.evaluationRepo.FindByID(txCtx, eid)
		if err != nil {
			return notFound(err, "evaluation")
		}
		qid = eval.QuotationID

		q, err := s.quotationRepo.FindByIDForUpdate(txCtx, qid)
		if err != nil {
			return notFound(err, "quotation")
		}
		rfq, err := s.rfqRepo.FindByID(txCtx, q.RFQID)
		if err != nil {
			return notFound(err, "rfq")
		}
		rfqStatus, err := workflow.ParseRFQStatus(rfq.Status)
		if err != nil {
			return err
		}
		qFrom, err := workflow.ParseQuotationStatus(q.Status)
		if err != nil {
			return err
		}

		state := &workflow.EvaluationState{IsShortlisted: eval.IsShortlisted}
		if !workflow.CanShortlist(rfqStatus, qFrom, state) {
			return fmt.Errorf("%w: evaluation cannot be shortlisted", ErrInvalidTransition)
		}
		qTo, err := workflow.NextQuotation(qFrom, workflow.EventShortlist)
		if err != nil {
			return transition(err)
		}

		eval.IsShortlisted = true
		eval.Quotation = nil
		if err := s.evaluationRepo.Update(txCtx, eval); err != nil {
			return fmt.Errorf("failed to shortlist evaluation: %w", err)
		}
		if err := s.quotationRepo.UpdateStatus(txCtx, qid, string(qTo)); err != nil {
			return fmt.Errorf("failed to update quotation status: %w", err)
		}
		return s.activity.Record(txCtx, model.EntityQuotation, qid, model.ActionShortlisted, map[string]Change{
			"status":         {Old: string(qFrom), New: string(qTo)},
			"is_shortlisted": {Old: false, New: true},
		})
	})
	if err != nil {
		return EvaluationResponse{}, err
	}

	s.notifier.Invalidate("evaluations", eid)
	s.notifier.Invalidate("quotations", qid)
	return s.get(ctx, eid)
}

func (s *evaluationService) get(ctx context.Context, id uuid.UUID) (EvaluationResponse, error) {
	e, err := s.evaluationRepo.FindByID(ctx, id)
	if err != nil {
		return EvaluationResponse{}, notFound(err, "evaluation")
	}
	return toEvaluationResponse(e), nil
}

func toEvaluationResponse(e *model.Evaluation) EvaluationResponse {
	res := EvaluationResponse{
		ID:               e.ID.String(),
		QuotationID:      e.QuotationID.String(),
		RFQID:            e.RFQID.String(),
		PriceScore:       e.PriceScore,
		DeliveryScore:    e.DeliveryScore,
		FinancialScore:   e.FinancialScore,
		PerformanceScore: e.PerformanceScore,
		ComplianceScore:  e.ComplianceScore,
		TotalScore:       e.TotalScore,
		IsShortlisted:    e.IsShortlisted,
		Remarks:          e.Remarks,
		CreatedAt:        e.CreatedAt,
	}
	if q := e.Quotation; q != nil {
		res.QuotationStatus = q.Status
		res.TotalAmount = q.TotalAmount
		res.Currency = q.Currency
		if q.Supplier != nil {
			res.SupplierName = q.Supplier.LegalName
		}
	}
	return res
}
