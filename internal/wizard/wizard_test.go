package wizard

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"procurement/internal/client"
	"procurement/internal/workflow"

	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

// memBackend mimics the API for one RFQ at a time
type memBackend struct {
	rfqs    map[string]client.RFQ
	seq     int
	creates int
	updates int
	failNext error
}

func newMemBackend() *memBackend { return &memBackend{rfqs: map[string]client.RFQ{}} }

func (m *memBackend) fail() error {
	err := m.failNext
	m.failNext = nil
	return err
}

func (m *memBackend) CreateRFQ(_ context.Context, req client.RFQGeneral) (client.RFQ, error) {
	if err := m.fail(); err != nil {
		return client.RFQ{}, err
	}
	m.creates++
	m.seq++
	r := client.RFQ{
		ID:                 fmt.Sprintf("rfq-%d", m.seq),
		ReferenceNumber:    fmt.Sprintf("RFQ-2026-%04d", m.seq),
		Status:             "draft",
		Description:        req.Description,
		SubmissionDeadline: req.SubmissionDeadline,
		DeliveryTerms:      req.DeliveryTerms,
		DeliveryLocation:   req.DeliveryLocation,
	}
	m.rfqs[r.ID] = r
	return r, nil
}

func (m *memBackend) UpdateRFQ(_ context.Context, id string, req client.RFQGeneral) (client.RFQ, error) {
	if err := m.fail(); err != nil {
		return client.RFQ{}, err
	}
	m.updates++
	r := m.rfqs[id]
	r.Description = req.Description
	r.SubmissionDeadline = req.SubmissionDeadline
	r.DeliveryTerms = req.DeliveryTerms
	r.DeliveryLocation = req.DeliveryLocation
	m.rfqs[id] = r
	return r, nil
}

func (m *memBackend) AttachProducts(_ context.Context, id string, lines []client.RFQProductLine) (client.RFQ, error) {
	if err := m.fail(); err != nil {
		return client.RFQ{}, err
	}
	r := m.rfqs[id]
	r.Products = nil
	for _, l := range lines {
		r.Products = append(r.Products, client.RFQProduct{ProductID: l.ProductID, Quantity: l.Quantity, Specifications: l.Specifications})
	}
	m.rfqs[id] = r
	return r, nil
}

func (m *memBackend) TransitionRFQ(_ context.Context, id string, action client.RFQAction) (client.RFQ, error) {
	if err := m.fail(); err != nil {
		return client.RFQ{}, err
	}
	r := m.rfqs[id]
	if action == client.ActionPublish {
		r.Status = "published"
	}
	m.rfqs[id] = r
	return r, nil
}

func validGeneral() client.RFQGeneral {
	return client.RFQGeneral{
		Description:        "Need 50 laptops for branch rollout",
		SubmissionDeadline: fixedNow.Add(24 * time.Hour),
		DeliveryTerms:      []string{"FOB"},
		DeliveryLocation:   "Addis Ababa",
	}
}

func TestWizardHappyPath(t *testing.T) {
	be := newMemBackend()
	w := New(be, clock)
	var published []client.RFQ
	w.OnPublished = func(r client.RFQ) { published = append(published, r) }

	require.Equal(t, StepGeneralInfo, w.Step())
	require.Empty(t, w.ID())

	require.NoError(t, w.SubmitGeneral(context.Background(), validGeneral()))
	require.Equal(t, StepAttachProducts, w.Step())
	require.Equal(t, "rfq-1", w.ID())
	require.Equal(t, "RFQ-2026-0001", w.ReferenceNumber())

	require.NoError(t, w.SubmitProducts(context.Background(), []client.RFQProductLine{{ProductID: "p-1", Quantity: 50}}))
	require.Equal(t, StepReviewPublish, w.Step())
	require.True(t, w.State().Controls.Publish)

	require.NoError(t, w.Publish(context.Background()))
	require.Equal(t, workflow.RFQPublished, w.Status())
	require.Len(t, published, 1)
	require.True(t, w.ReadOnly())
	require.False(t, w.State().Controls.Publish)
}

func TestResubmittingGeneralUpdatesInPlace(t *testing.T) {
	be := newMemBackend()
	w := New(be, clock)
	require.NoError(t, w.SubmitGeneral(context.Background(), validGeneral()))
	ref := w.ReferenceNumber()

	w.Previous()
	require.Equal(t, StepGeneralInfo, w.Step())

	g := validGeneral()
	g.DeliveryLocation = "Dire Dawa"
	require.NoError(t, w.SubmitGeneral(context.Background(), g))

	require.Equal(t, 1, be.creates)
	require.Equal(t, 1, be.updates)
	require.Equal(t, ref, w.ReferenceNumber())
	require.Equal(t, "Dire Dawa", w.General().DeliveryLocation)
}

func TestValidationBlocksNetworkCall(t *testing.T) {
	be := newMemBackend()
	w := New(be, clock)

	err := w.SubmitGeneral(context.Background(), client.RFQGeneral{
		Description:        "  short   ",
		SubmissionDeadline: fixedNow,
		DeliveryTerms:      []string{"", "  "},
	})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	require.Contains(t, fe, "description")
	require.Contains(t, fe, "submission_deadline")
	require.Contains(t, fe, "delivery_location")
	require.Contains(t, fe, "delivery_terms")
	require.Zero(t, be.creates)
	require.Equal(t, StepGeneralInfo, w.Step())
}

func TestValidateProducts(t *testing.T) {
	err := ValidateProducts(nil)
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	require.Contains(t, fe, "products")

	err = ValidateProducts([]client.RFQProductLine{{ProductID: "p", Quantity: 0}, {Quantity: 3}})
	require.ErrorAs(t, err, &fe)
	require.Equal(t, "Quantity must be a positive whole number", fe["products.0.quantity"])
	require.Equal(t, "Product is required", fe["products.1.product_id"])

	require.NoError(t, ValidateProducts([]client.RFQProductLine{{ProductID: "p", Quantity: 1}}))
}

func TestMutationFailureKeepsStep(t *testing.T) {
	be := newMemBackend()
	w := New(be, clock)
	require.NoError(t, w.SubmitGeneral(context.Background(), validGeneral()))

	be.failNext = &client.APIError{Status: 409, Message: "rfq is no longer a draft"}
	err := w.SubmitProducts(context.Background(), []client.RFQProductLine{{ProductID: "p-1", Quantity: 5}})
	require.Error(t, err)
	require.Equal(t, "rfq is no longer a draft", client.MessageOf(err))
	require.Equal(t, StepAttachProducts, w.Step())
	require.Empty(t, w.Products())
}

func TestResumeDraftWithoutProducts(t *testing.T) {
	be := newMemBackend()
	rfq, _ := be.CreateRFQ(context.Background(), validGeneral())

	w, err := Resume(be, clock, rfq, false)
	require.NoError(t, err)
	require.Equal(t, StepAttachProducts, w.Step())
	require.False(t, w.ReadOnly())
	require.Equal(t, "Addis Ababa", w.General().DeliveryLocation)

	require.ErrorIs(t, w.GoTo(StepReviewPublish), ErrStepUnavailable)
	require.ErrorIs(t, w.Publish(context.Background()), ErrStepUnavailable)
}

func TestReadOnlyGating(t *testing.T) {
	be := newMemBackend()
	rfq := client.RFQ{
		ID: "rfq-9", ReferenceNumber: "RFQ-2026-0009", Status: "Published",
		Products: []client.RFQProduct{{ProductID: "p-1", Quantity: 2}},
	}

	w, err := Resume(be, clock, rfq, false)
	require.NoError(t, err)
	require.True(t, w.ReadOnly())
	require.ErrorIs(t, w.SubmitGeneral(context.Background(), validGeneral()), ErrReadOnly)
	require.ErrorIs(t, w.SubmitProducts(context.Background(), nil), ErrReadOnly)
	require.ErrorIs(t, w.Publish(context.Background()), ErrReadOnly)

	for _, step := range []Step{StepGeneralInfo, StepAttachProducts, StepReviewPublish} {
		require.NoError(t, w.GoTo(step))
		st := w.State()
		require.True(t, st.ReadOnly)
		require.False(t, st.Controls.Publish)
		require.False(t, st.Controls.Submit)
		require.True(t, st.Controls.Close)
		require.Equal(t, step < StepReviewPublish, st.Controls.Next)
	}

	draft := client.RFQ{ID: "rfq-1", Status: "draft"}
	w, err = Resume(be, clock, draft, true)
	require.NoError(t, err)
	require.True(t, w.ReadOnly())
}

func TestResumeRejectsUnknownStatus(t *testing.T) {
	_, err := Resume(newMemBackend(), clock, client.RFQ{ID: "x", Status: "archived"}, false)
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrReadOnly))
}
