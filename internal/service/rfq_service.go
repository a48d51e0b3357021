package service

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/internal/workflow"
	"procurement/pkg/pagination"

	"github.com/google/uuid"
)

// --- DTOs ---

type RFQGeneralRequest struct {
	Description        string    `json:"description"`
	SubmissionDeadline time.Time `json:"submission_deadline"`
	DeliveryTerms      []string  `json:"delivery_terms"`
	DeliveryLocation   string    `json:"delivery_location"`
}

type RFQProductPayload struct {
	ProductID      string `json:"product_id"`
	Quantity       int    `json:"quantity"`
	Specifications string `json:"specifications"`
}

type AttachProductsRequest struct {
	Products []RFQProductPayload `json:"products"`
}

type RFQProductResponse struct {
	ProductID      string `json:"product_id"`
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	UOM            string `json:"uom"`
	Quantity       int    `json:"quantity"`
	Specifications string `json:"specifications"`
}

type RFQResponse struct {
	ID                 string               `json:"id"`
	ReferenceNumber    string               `json:"reference_number"`
	Status             string               `json:"status"`
	Description        string               `json:"description"`
	SubmissionDeadline time.Time            `json:"submission_deadline"`
	DeliveryTerms      []string             `json:"delivery_terms"`
	DeliveryLocation   string               `json:"delivery_location"`
	Products           []RFQProductResponse `json:"products"`
	PublishedAt        *time.Time           `json:"published_at"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// --- Interface ---

type RFQService interface {
	CreateRFQ(ctx context.Context, req RFQGeneralRequest) (RFQResponse, error)
	UpdateRFQ(ctx context.Context, id string, req RFQGeneralRequest) (RFQResponse, error)
	AttachProducts(ctx context.Context, id string, req AttachProductsRequest) (RFQResponse, error)
	Publish(ctx context.Context, id string) (RFQResponse, error)
	MoveToEvaluation(ctx context.Context, id string) (RFQResponse, error)
	Cancel(ctx context.Context, id string) (RFQResponse, error)
	Close(ctx context.Context, id string) (RFQResponse, error)
	GetRFQ(ctx context.Context, id string) (RFQResponse, error)
	ListRFQs(ctx context.Context, p pagination.Params, status string) ([]RFQResponse, int64, error)
	ListOpenRFQs(ctx context.Context, p pagination.Params) ([]RFQResponse, int64, error)
	SweepExpired(ctx context.Context) (int, error)
}

type rfqService struct {
	rfqRepo     repository.RFQRepository
	productRepo repository.ProductRepository
	activity    ActivityService
	txManager   repository.TransactionManager
	notifier    Notifier
	now         func() time.Time
}

func NewRFQService(
	rfqRepo repository.RFQRepository,
	productRepo repository.ProductRepository,
	activity ActivityService,
	txManager repository.TransactionManager,
	notifier Notifier,
) RFQService {
	return &rfqService{
		rfqRepo:     rfqRepo,
		productRepo: productRepo,
		activity:    activity,
		txManager:   txManager,
		notifier:    notifierOrNop(notifier),
		now:         time.Now,
	}
}

// --- Validation ---

func validateGeneral(req RFQGeneralRequest, now time.Time) error {
	errs := ValidationErrors{}
	if len([]rune(strings.TrimSpace(req.Description))) < 10 {
		errs["description"] = "must be at least 10 characters"
	}
	if req.SubmissionDeadline.IsZero() {
		errs["submission_deadline"] = "is required"
	} else if !req.SubmissionDeadline.After(now) {
		errs["submission_deadline"] = "must be in the future"
	}
	if strings.TrimSpace(req.DeliveryLocation) == "" {
		errs["delivery_location"] = "is required"
	}
	if len(cleanTerms(req.DeliveryTerms)) == 0 {
		errs["delivery_terms"] = "at least one delivery term is required"
	}
	return errs.orNil()
}

func cleanTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func parseID(id, field string) (uuid.UUID, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, invalid(field, "must be a UUID")
	}
	return uid, nil
}

func rfqSnapshot(r *model.RFQ) map[string]interface{} {
	return map[string]interface{}{
		"description":         r.Description,
		"submission_deadline": r.SubmissionDeadline.UTC().Format(time.RFC3339),
		"delivery_terms":      strings.Join(r.DeliveryTerms, ", "),
		"delivery_location":   r.DeliveryLocation,
	}
}

// --- Draft editing ---

func (s *rfqService) CreateRFQ(ctx context.Context, req RFQGeneralRequest) (RFQResponse, error) {
	now := s.now()
	if err := validateGeneral(req, now); err != nil {
		return RFQResponse{}, err
	}

	actor := ActorFrom(ctx)
	rfq := &model.RFQ{
		Status:             string(workflow.RFQDraft),
		Description:        strings.TrimSpace(req.Description),
		SubmissionDeadline: req.SubmissionDeadline,
		DeliveryTerms:      cleanTerms(req.DeliveryTerms),
		DeliveryLocation:   strings.TrimSpace(req.DeliveryLocation),
		CreatedBy:          actor.ID,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		ref, err := s.rfqRepo.NextReference(txCtx, now)
		if err != nil {
			return fmt.Errorf("failed to allocate reference number: %w", err)
		}
		rfq.ReferenceNumber = ref

		if err := s.rfqRepo.Create(txCtx, rfq); err != nil {
			return fmt.Errorf("failed to create rfq: %w", err)
		}
		return s.activity.Record(txCtx, model.EntityRFQ, rfq.ID, model.ActionCreated, Diff(nil, rfqSnapshot(rfq)))
	})
	if err != nil {
		return RFQResponse{}, err
	}

	s.notifier.Invalidate("rfqs", rfq.ID)
	return toRFQResponse(rfq), nil
}

func (s *rfqService) UpdateRFQ(ctx context.Context, id string, req RFQGeneralRequest) (RFQResponse, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return RFQResponse{}, err
	}
	if err := validateGeneral(req, s.now()); err != nil {
		return RFQResponse{}, err
	}

	var rfq *model.RFQ
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rfq, err = s.rfqRepo.FindByIDForUpdate(txCtx, uid)
		if err != nil {
			return notFound(err, "rfq")
		}
		if err := requireDraft(rfq, "update"); err != nil {
			return err
		}

		before := rfqSnapshot(rfq)
		rfq.Description = strings.TrimSpace(req.Description)
		rfq.SubmissionDeadline = req.SubmissionDeadline
		rfq.DeliveryTerms = cleanTerms(req.DeliveryTerms)
		rfq.DeliveryLocation = strings.TrimSpace(req.DeliveryLocation)

		if err := s.rfqRepo.Update(txCtx, rfq); err != nil {
			return fmt.Errorf("failed to update rfq: %w", err)
		}
		changes := Diff(before, rfqSnapshot(rfq))
		if len(changes) == 0 {
			return nil
		}
		return s.activity.Record(txCtx, model.EntityRFQ, rfq.ID, model.ActionUpdated, changes)
	})
	if err != nil {
		return RFQResponse{}, err
	}

	s.notifier.Invalidate("rfqs", uid)
	return s.GetRFQ(ctx, id)
}

func requireDraft(rfq *model.RFQ, action string) error {
	st, err := workflow.ParseRFQStatus(rfq.Status)
	if err != nil {
		return err
	}
	if !st.ProductsEditable() {
		return fmt.Errorf("%w: cannot %s rfq in status %q", ErrInvalidTransition, action, st)
	}
	return nil
}

func (s *rfqService) AttachProducts(ctx context.Context, id string, req AttachProductsRequest) (RFQResponse, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return RFQResponse{}, err
	}

	items, productIDs, err := validateProducts(req.Products)
	if err != nil {
		return RFQResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		rfq, err := s.rfqRepo.FindByIDForUpdate(txCtx, uid)
		if err != nil {
			return notFound(err, "rfq")
		}
		if err := requireDraft(rfq, "attach products to"); err != nil {
			return err
		}

		found, err := s.productRepo.CountByIDs(txCtx, productIDs)
		if err != nil {
			return fmt.Errorf("failed to check products: %w", err)
		}
		if found != int64(len(productIDs)) {
			return invalid("products", "one or more products do not exist")
		}

		if err := s.rfqRepo.ReplaceProducts(txCtx, uid, items); err != nil {
			return fmt.Errorf("failed to attach products: %w", err)
		}

		ids := make([]string, 0, len(items))
		for _, it := range items {
			ids = append(ids, fmt.Sprintf("%s x%d", it.ProductID, it.Quantity))
		}
		return s.activity.Record(txCtx, model.EntityRFQ, uid, model.ActionAttached, map[string]Change{
			"products": {New: ids},
		})
	})
	if err != nil {
		return RFQResponse{}, err
	}

	s.notifier.Invalidate("rfqs", uid)
	return s.GetRFQ(ctx, id)
}

func validateProducts(payloads []RFQProductPayload) ([]model.RFQProduct, []uuid.UUID, error) {
	if len(payloads) == 0 {
		return nil, nil, invalid("products", "at least one product is required")
	}

	errs := ValidationErrors{}
	seen := map[uuid.UUID]bool{}
	items := make([]model.RFQProduct, 0, len(payloads))
	ids := make([]uuid.UUID, 0, len(payloads))
	for i, p := range payloads {
		pid, err := uuid.Parse(strings.TrimSpace(p.ProductID))
		if err != nil {
			errs[fmt.Sprintf("products[%d].product_id", i)] = "is required"
			continue
		}
		if p.Quantity <= 0 {
			errs[fmt.Sprintf("products[%d].quantity", i)] = "must be a positive integer"
			continue
		}
		if seen[pid] {
			errs[fmt.Sprintf("products[%d].product_id", i)] = "is listed twice"
			continue
		}
		seen[pid] = true
		ids = append(ids, pid)
		items = append(items, model.RFQProduct{
			ProductID:      pid,
			Quantity:       p.Quantity,
			Specifications: strings.TrimSpace(p.Specifications),
		})
	}
	if err := errs.orNil(); err != nil {
		return nil, nil, err
	}
	return items, ids, nil
}

// --- Transitions ---

func (s *rfqService) Publish(ctx context.Context, id string) (RFQResponse, error) {
	return s.apply(ctx, id, workflow.EventPublish, func(rfq *model.RFQ) error {
		errs := ValidationErrors{}
		if len(rfq.Products) == 0 {
			errs["products"] = "attach at least one product before publishing"
		}
		if !rfq.SubmissionDeadline.After(s.now()) {
			errs["submission_deadline"] = "must be in the future"
		}
		return errs.orNil()
	})
}

func (s *rfqService) MoveToEvaluation(ctx context.Context, id string) (RFQResponse, error) {
	return s.apply(ctx, id, workflow.EventMoveToEvaluation, nil)
}

func (s *rfqService) Cancel(ctx context.Context, id string) (RFQResponse, error) {
	return s.apply(ctx, id, workflow.EventCancel, nil)
}

func (s *rfqService) Close(ctx context.Context, id string) (RFQResponse, error) {
	return s.apply(ctx, id, workflow.EventClose, nil)
}

// apply runs one state machine event under a row lock; check sees the RFQ with products loaded
func (s *rfqService) apply(ctx context.Context, id string, ev workflow.RFQEvent, check func(*model.RFQ) error) (RFQResponse, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return RFQResponse{}, err
	}
	if err := s.applyByID(ctx, uid, ev, check); err != nil {
		return RFQResponse{}, err
	}
	s.notifier.Invalidate("rfqs", uid)
	return s.GetRFQ(ctx, id)
}

func (s *rfqService) applyByID(ctx context.Context, uid uuid.UUID, ev workflow.RFQEvent, check func(*model.RFQ) error) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.rfqRepo.FindByIDForUpdate(txCtx, uid)
		if err != nil {
			return notFound(err, "rfq")
		}
		from, err := workflow.ParseRFQStatus(locked.Status)
		if err != nil {
			return err
		}
		to, err := workflow.NextRFQ(from, ev)
		if err != nil {
			return transition(err)
		}

		if check != nil {
			full, err := s.rfqRepo.FindByID(txCtx, uid)
			if err != nil {
				return notFound(err, "rfq")
			}
			if err := check(full); err != nil {
				return err
			}
		}

		if err := s.rfqRepo.UpdateStatus(txCtx, uid, string(to)); err != nil {
			return fmt.Errorf("failed to update rfq status: %w", err)
		}
		return s.activity.Record(txCtx, model.EntityRFQ, uid, model.ActionStatusChanged, map[string]Change{
			"status": {Old: string(from), New: string(to)},
		})
	})
}

// SweepExpired moves published RFQs whose deadline has passed into evaluation
func (s *rfqService) SweepExpired(ctx context.Context) (int, error) {
	ids, err := s.rfqRepo.ListExpiredPublished(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list expired rfqs: %w", err)
	}

	moved := 0
	for _, id := range ids {
		if err := s.applyByID(ctx, id, workflow.EventMoveToEvaluation, nil); err != nil {
			log.Printf("deadline sweep: rfq %s: %v", id, err)
			continue
		}
		s.notifier.Invalidate("rfqs", id)
		moved++
	}
	return moved, nil
}

// --- Queries ---

func (s *rfqService) GetRFQ(ctx context.Context, id string) (RFQResponse, error) {
	uid, err := parseID(id, "id")
	if err != nil {
		return RFQResponse{}, err
	}
	rfq, err := s.rfqRepo.FindByID(ctx, uid)
	if err != nil {
		return RFQResponse{}, notFound(err, "rfq")
	}
	return toRFQResponse(rfq), nil
}

func (s *rfqService) ListRFQs(ctx context.Context, p pagination.Params, status string) ([]RFQResponse, int64, error) {
	f := repository.RFQFilter{}
	if status != "" {
		st, err := workflow.ParseRFQStatus(status)
		if err != nil {
			return nil, 0, invalid("status", err.Error())
		}
		f.Status = string(st)
	}
	return s.list(ctx, p, f)
}

// ListOpenRFQs is the supplier-facing list: published and not past the deadline
func (s *rfqService) ListOpenRFQs(ctx context.Context, p pagination.Params) ([]RFQResponse, int64, error) {
	now := s.now()
	return s.list(ctx, p, repository.RFQFilter{OpenAt: &now})
}

func (s *rfqService) list(ctx context.Context, p pagination.Params, f repository.RFQFilter) ([]RFQResponse, int64, error) {
	rfqs, total, err := s.rfqRepo.List(ctx, p, f)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch rfqs: %w", err)
	}
	res := make([]RFQResponse, 0, len(rfqs))
	for i := range rfqs {
		res = append(res, toRFQResponse(&rfqs[i]))
	}
	return res, total, nil
}

// --- Response mappers ---

func toRFQResponse(r *model.RFQ) RFQResponse {
	products := make([]RFQProductResponse, 0, len(r.Products))
	for _, p := range r.Products {
		item := RFQProductResponse{
			ProductID:      p.ProductID.String(),
			Quantity:       p.Quantity,
			Specifications: p.Specifications,
		}
		if p.Product != nil {
			item.SKU = p.Product.SKU
			item.Name = p.Product.Name
			if p.Product.UOM != nil {
				item.UOM = p.Product.UOM.Abbreviation
			}
		}
		products = append(products, item)
	}

	terms := []string(r.DeliveryTerms)
	if terms == nil {
		terms = []string{}
	}

	return RFQResponse{
		ID:                 r.ID.String(),
		ReferenceNumber:    r.ReferenceNumber,
		Status:             r.Status,
		Description:        r.Description,
		SubmissionDeadline: r.SubmissionDeadline,
		DeliveryTerms:      terms,
		DeliveryLocation:   r.DeliveryLocation,
		Products:           products,
		PublishedAt:        r.PublishedAt,
		CreatedAt:          r.CreatedAt,
		UpdatedAt:          r.UpdatedAt,
	}
}
