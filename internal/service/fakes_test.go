package service

import (
	"context"
	"sync"
	"time"

	"procurement/internal/model"
	"procurement/internal/repository"
	"procurement/pkg/pagination"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// inlineTx runs the callback directly; the fakes below have no rollback
type inlineTx struct{}

func (inlineTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// recordedActivity captures Record calls
type recordedActivity struct {
	mu      sync.Mutex
	entries []model.ActivityLog
	changes []map[string]Change
}

func (a *recordedActivity) Record(ctx context.Context, entityType string, entityID uuid.UUID, action string, changes map[string]Change) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	actor := ActorFrom(ctx)
	a.entries = append(a.entries, model.ActivityLog{
		EntityType: entityType, EntityID: entityID, Action: action, ActorID: actor.ID, ActorName: actor.Name,
	})
	a.changes = append(a.changes, changes)
	return nil
}

func (a *recordedActivity) Feed(context.Context, string, string, pagination.Params) ([]ActivityEntryResponse, int64, error) {
	return nil, 0, nil
}

func (a *recordedActivity) actions() []string {
	out := make([]string, 0, len(a.entries))
	for _, e := range a.entries {
		out = append(out, e.EntityType+":"+e.Action)
	}
	return out
}

type recordedNotifier struct {
	resources []string
}

func (n *recordedNotifier) Invalidate(resource string, _ uuid.UUID) {
	n.resources = append(n.resources, resource)
}

// --- RFQ store ---

type fakeRFQRepo struct {
	rfqs     map[uuid.UUID]*model.RFQ
	products map[uuid.UUID]*model.Product
	seq      int64
}

func newFakeRFQRepo() *fakeRFQRepo {
	return &fakeRFQRepo{rfqs: map[uuid.UUID]*model.RFQ{}, products: map[uuid.UUID]*model.Product{}}
}

func (r *fakeRFQRepo) NextReference(_ context.Context, now time.Time) (string, error) {
	r.seq++
	return repository.FormatReference(now.Year(), r.seq), nil
}

func (r *fakeRFQRepo) Create(_ context.Context, rfq *model.RFQ) error {
	rfq.ID = uuid.New()
	cp := *rfq
	r.rfqs[rfq.ID] = &cp
	return nil
}

func (r *fakeRFQRepo) Update(_ context.Context, rfq *model.RFQ) error {
	cur, ok := r.rfqs[rfq.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	products := cur.Products
	cp := *rfq
	cp.Products = products
	r.rfqs[rfq.ID] = &cp
	return nil
}

func (r *fakeRFQRepo) FindByID(_ context.Context, id uuid.UUID) (*model.RFQ, error) {
	rfq, ok := r.rfqs[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *rfq
	cp.Products = append([]model.RFQProduct(nil), rfq.Products...)
	for i := range cp.Products {
		cp.Products[i].Product = r.products[cp.Products[i].ProductID]
	}
	return &cp, nil
}

func (r *fakeRFQRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.RFQ, error) {
	rfq, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	rfq.Products = nil
	return rfq, nil
}

func (r *fakeRFQRepo) List(_ context.Context, _ pagination.Params, f repository.RFQFilter) ([]model.RFQ, int64, error) {
	var out []model.RFQ
	for _, rfq := range r.rfqs {
		if f.Status != "" && rfq.Status != f.Status {
			continue
		}
		if f.OpenAt != nil && (rfq.Status != "published" || !rfq.SubmissionDeadline.After(*f.OpenAt)) {
			continue
		}
		out = append(out, *rfq)
	}
	return out, int64(len(out)), nil
}

func (r *fakeRFQRepo) ReplaceProducts(_ context.Context, rfqID uuid.UUID, items []model.RFQProduct) error {
	rfq, ok := r.rfqs[rfqID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	rfq.Products = nil
	for _, it := range items {
		it.ID = uuid.New()
		it.RFQID = rfqID
		rfq.Products = append(rfq.Products, it)
	}
	return nil
}

func (r *fakeRFQRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	rfq, ok := r.rfqs[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	rfq.Status = status
	if status == "published" {
		now := time.Now()
		rfq.PublishedAt = &now
	}
	return nil
}

func (r *fakeRFQRepo) ListExpiredPublished(_ context.Context, now time.Time) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for id, rfq := range r.rfqs {
		if rfq.Status == "published" && !rfq.SubmissionDeadline.After(now) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// --- Product store, tenders-style func overrides ---

type fakeProductRepo struct {
	repository.ProductRepository
	products       map[uuid.UUID]*model.Product
	CountByIDsFunc func(ids []uuid.UUID) (int64, error)
}

func (r *fakeProductRepo) CountByIDs(_ context.Context, ids []uuid.UUID) (int64, error) {
	if r.CountByIDsFunc != nil {
		return r.CountByIDsFunc(ids)
	}
	var n int64
	for _, id := range ids {
		if _, ok := r.products[id]; ok {
			n++
		}
	}
	return n, nil
}

// --- Supplier store ---

type fakeSupplierRepo struct {
	repository.SupplierRepository
	suppliers map[uuid.UUID]*model.Supplier
}

func (r *fakeSupplierRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *s
	return &cp, nil
}

// --- Quotation + evaluation store ---

type fakeQuotationRepo struct {
	quotations map[uuid.UUID]*model.Quotation
	evals      *fakeEvaluationRepo
}

func newFakeQuotationRepo() *fakeQuotationRepo {
	return &fakeQuotationRepo{
		quotations: map[uuid.UUID]*model.Quotation{},
		evals:      &fakeEvaluationRepo{evals: map[uuid.UUID]*model.Evaluation{}},
	}
}

func (r *fakeQuotationRepo) Create(_ context.Context, q *model.Quotation) error {
	q.ID = uuid.New()
	for i := range q.Items {
		q.Items[i].ID = uuid.New()
		q.Items[i].QuotationID = q.ID
	}
	cp := *q
	r.quotations[q.ID] = &cp
	return nil
}

func (r *fakeQuotationRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Quotation, error) {
	q, ok := r.quotations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *q
	for _, e := range r.evals.evals {
		if e.QuotationID == id {
			ec := *e
			cp.Evaluation = &ec
		}
	}
	return &cp, nil
}

func (r *fakeQuotationRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Quotation, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeQuotationRepo) ExistsForSupplier(_ context.Context, rfqID, supplierID uuid.UUID) (bool, error) {
	for _, q := range r.quotations {
		if q.RFQID == rfqID && q.SupplierID == supplierID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeQuotationRepo) ListByRFQ(_ context.Context, rfqID uuid.UUID, status string, _ pagination.Params) ([]model.Quotation, int64, error) {
	var out []model.Quotation
	for _, q := range r.quotations {
		if q.RFQID == rfqID && (status == "" || q.Status == status) {
			out = append(out, *q)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeQuotationRepo) UpdateStatus(_ context.Context, id uuid.UUID, status string) error {
	q, ok := r.quotations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	q.Status = status
	return nil
}

func (r *fakeQuotationRepo) CountAwarded(_ context.Context, rfqID uuid.UUID) (int64, error) {
	var n int64
	for _, q := range r.quotations {
		if q.RFQID == rfqID && (q.Status == "awarded" || q.Status == "po_generated") {
			n++
		}
	}
	return n, nil
}

type fakeEvaluationRepo struct {
	evals map[uuid.UUID]*model.Evaluation
}

func (r *fakeEvaluationRepo) Create(_ context.Context, e *model.Evaluation) error {
	e.ID = uuid.New()
	cp := *e
	r.evals[e.ID] = &cp
	return nil
}

func (r *fakeEvaluationRepo) Update(_ context.Context, e *model.Evaluation) error {
	cp := *e
	r.evals[e.ID] = &cp
	return nil
}

func (r *fakeEvaluationRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Evaluation, error) {
	e, ok := r.evals[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEvaluationRepo) FindByQuotationID(_ context.Context, quotationID uuid.UUID) (*model.Evaluation, error) {
	for _, e := range r.evals {
		if e.QuotationID == quotationID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeEvaluationRepo) TopShortlistedScore(_ context.Context, rfqID uuid.UUID) (decimal.Decimal, bool, error) {
	var (
		top   decimal.Decimal
		found bool
	)
	for _, e := range r.evals {
		if e.RFQID == rfqID && e.IsShortlisted && (!found || e.TotalScore.GreaterThan(top)) {
			top, found = e.TotalScore, true
		}
	}
	return top, found, nil
}

func (r *fakeEvaluationRepo) ListByRFQ(_ context.Context, rfqID uuid.UUID, shortlistedOnly bool, _ pagination.Params) ([]model.Evaluation, int64, error) {
	var out []model.Evaluation
	for _, e := range r.evals {
		if e.RFQID == rfqID && (!shortlistedOnly || e.IsShortlisted) {
			out = append(out, *e)
		}
	}
	return out, int64(len(out)), nil
}
