// Package wizard drives the three-step RFQ creation flow: general
// information, product lines, then review and publish. Every step is
// persisted through the API before the wizard advances.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"procurement/internal/client"
	"procurement/internal/form"
	"procurement/internal/workflow"
)

type Step int

const (
	StepGeneralInfo    Step = 1
	StepAttachProducts Step = 2
	StepReviewPublish  Step = 3
)

func (s Step) String() string {
	switch s {
	case StepGeneralInfo:
		return "general_info"
	case StepAttachProducts:
		return "attach_products"
	case StepReviewPublish:
		return "review_publish"
	}
	return fmt.Sprintf("step(%d)", int(s))
}

var (
	ErrReadOnly        = errors.New("rfq is read-only")
	ErrStepUnavailable = errors.New("step is not reachable yet")
)

// FieldErrors are pre-submit validation failures keyed by field
type FieldErrors = form.Errors

// Backend is the slice of the REST client the wizard needs
type Backend interface {
	CreateRFQ(ctx context.Context, req client.RFQGeneral) (client.RFQ, error)
	UpdateRFQ(ctx context.Context, id string, req client.RFQGeneral) (client.RFQ, error)
	AttachProducts(ctx context.Context, id string, lines []client.RFQProductLine) (client.RFQ, error)
	TransitionRFQ(ctx context.Context, id string, action client.RFQAction) (client.RFQ, error)
}

type Wizard struct {
	backend  Backend
	now      func() time.Time
	viewOnly bool

	step   Step
	id     string
	ref    string
	status workflow.RFQStatus

	// last-saved snapshots used to re-populate a step
	general  client.RFQGeneral
	products []client.RFQProductLine

	// OnPublished is called once the RFQ is published
	OnPublished func(client.RFQ)
}

// New starts an empty wizard at step 1
func New(backend Backend, now func() time.Time) *Wizard {
	if now == nil {
		now = time.Now
	}
	return &Wizard{backend: backend, now: now, step: StepGeneralInfo, status: workflow.RFQDraft}
}

// Resume reopens an existing RFQ. A draft without products resumes at step 2,
// a draft with products at step 3; anything else opens read-only at step 1.
func Resume(backend Backend, now func() time.Time, rfq client.RFQ, viewOnly bool) (*Wizard, error) {
	status, err := workflow.ParseRFQStatus(rfq.Status)
	if err != nil {
		return nil, err
	}
	w := New(backend, now)
	w.viewOnly = viewOnly
	w.apply(rfq)
	w.status = status

	switch {
	case w.ReadOnly():
		w.step = StepGeneralInfo
	case len(w.products) == 0:
		w.step = StepAttachProducts
	default:
		w.step = StepReviewPublish
	}
	return w, nil
}

func (w *Wizard) apply(rfq client.RFQ) {
	w.id = rfq.ID
	if rfq.ReferenceNumber != "" {
		w.ref = rfq.ReferenceNumber
	}
	if st, err := workflow.ParseRFQStatus(rfq.Status); err == nil {
		w.status = st
	}
	w.general = client.RFQGeneral{
		Description:        rfq.Description,
		SubmissionDeadline: rfq.SubmissionDeadline,
		DeliveryTerms:      append([]string(nil), rfq.DeliveryTerms...),
		DeliveryLocation:   rfq.DeliveryLocation,
	}
	w.products = nil
	for _, p := range rfq.Products {
		w.products = append(w.products, client.RFQProductLine{
			ProductID:      p.ProductID,
			Quantity:       p.Quantity,
			Specifications: p.Specifications,
		})
	}
}

func (w *Wizard) Step() Step                 { return w.step }
func (w *Wizard) ID() string                 { return w.id }
func (w *Wizard) ReferenceNumber() string    { return w.ref }
func (w *Wizard) Status() workflow.RFQStatus { return w.status }

// ReadOnly is true for any non-draft RFQ or a wizard opened view-only
func (w *Wizard) ReadOnly() bool {
	return workflow.WizardReadOnly(w.status, w.viewOnly)
}

// General returns the saved general information for re-populating step 1
func (w *Wizard) General() client.RFQGeneral { return w.general }

// Products returns the saved product lines for re-populating step 2
func (w *Wizard) Products() []client.RFQProductLine {
	return append([]client.RFQProductLine(nil), w.products...)
}

// ValidateGeneral checks step 1 before anything is sent
func ValidateGeneral(g client.RFQGeneral, now time.Time) error {
	errs := FieldErrors{}
	if len([]rune(strings.TrimSpace(g.Description))) < 10 {
		errs["description"] = "Description must be at least 10 characters"
	}
	if g.SubmissionDeadline.IsZero() {
		errs["submission_deadline"] = "Submission deadline is required"
	} else if !g.SubmissionDeadline.After(now) {
		errs["submission_deadline"] = "Submission deadline must be in the future"
	}
	if strings.TrimSpace(g.DeliveryLocation) == "" {
		errs["delivery_location"] = "Delivery location is required"
	}
	hasTerm := false
	for _, t := range g.DeliveryTerms {
		if strings.TrimSpace(t) != "" {
			hasTerm = true
			break
		}
	}
	if !hasTerm {
		errs["delivery_terms"] = "At least one delivery term is required"
	}
	return errs.OrNil()
}

// ValidateProducts checks step 2 before anything is sent
func ValidateProducts(lines []client.RFQProductLine) error {
	errs := FieldErrors{}
	if len(lines) == 0 {
		errs["products"] = "Add at least one product"
	}
	for i, l := range lines {
		if strings.TrimSpace(l.ProductID) == "" {
			errs[fmt.Sprintf("products.%d.product_id", i)] = "Product is required"
		}
		if l.Quantity <= 0 {
			errs[fmt.Sprintf("products.%d.quantity", i)] = "Quantity must be a positive whole number"
		}
	}
	return errs.OrNil()
}

// SubmitGeneral creates the RFQ on first submit and updates it afterwards.
// On success the wizard moves to step 2; on failure it stays on step 1.
func (w *Wizard) SubmitGeneral(ctx context.Context, g client.RFQGeneral) error {
	if w.ReadOnly() {
		return ErrReadOnly
	}
	g.Description = strings.TrimSpace(g.Description)
	g.DeliveryLocation = strings.TrimSpace(g.DeliveryLocation)
	g.DeliveryTerms = nonEmpty(g.DeliveryTerms)
	if err := ValidateGeneral(g, w.now()); err != nil {
		return err
	}

	var (
		rfq client.RFQ
		err error
	)
	if w.id == "" {
		rfq, err = w.backend.CreateRFQ(ctx, g)
	} else {
		rfq, err = w.backend.UpdateRFQ(ctx, w.id, g)
	}
	if err != nil {
		return err
	}

	keepProducts := w.products
	w.apply(rfq)
	if len(rfq.Products) == 0 {
		w.products = keepProducts
	}
	w.step = StepAttachProducts
	return nil
}

// SubmitProducts replaces the RFQ's product lines and moves to step 3
func (w *Wizard) SubmitProducts(ctx context.Context, lines []client.RFQProductLine) error {
	if w.ReadOnly() {
		return ErrReadOnly
	}
	if w.id == "" {
		return ErrStepUnavailable
	}
	for i := range lines {
		lines[i].ProductID = strings.TrimSpace(lines[i].ProductID)
		lines[i].Specifications = strings.TrimSpace(lines[i].Specifications)
	}
	if err := ValidateProducts(lines); err != nil {
		return err
	}

	rfq, err := w.backend.AttachProducts(ctx, w.id, lines)
	if err != nil {
		return err
	}
	w.apply(rfq)
	if len(w.products) == 0 {
		w.products = append(w.products, lines...)
	}
	w.step = StepReviewPublish
	return nil
}

// Publish moves the RFQ to published and notifies OnPublished
func (w *Wizard) Publish(ctx context.Context) error {
	if w.ReadOnly() {
		return ErrReadOnly
	}
	if w.step != StepReviewPublish || w.id == "" || len(w.products) == 0 {
		return ErrStepUnavailable
	}
	rfq, err := w.backend.TransitionRFQ(ctx, w.id, client.ActionPublish)
	if err != nil {
		return err
	}
	w.apply(rfq)
	w.status = workflow.RFQPublished
	if w.OnPublished != nil {
		w.OnPublished(rfq)
	}
	return nil
}

// GoTo navigates between steps without touching saved data.
// Step 2 needs a saved RFQ and step 3 saved products.
func (w *Wizard) GoTo(step Step) error {
	switch step {
	case StepGeneralInfo:
	case StepAttachProducts:
		if w.id == "" {
			return ErrStepUnavailable
		}
	case StepReviewPublish:
		if w.id == "" || (len(w.products) == 0 && !w.ReadOnly()) {
			return ErrStepUnavailable
		}
	default:
		return fmt.Errorf("unknown step %d", int(step))
	}
	w.step = step
	return nil
}

// Previous steps back once; it is always available
func (w *Wizard) Previous() {
	if w.step > StepGeneralInfo {
		w.step--
	}
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
