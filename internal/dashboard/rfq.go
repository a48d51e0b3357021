package dashboard

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"procurement/internal/client"
	"procurement/internal/form"
	"procurement/internal/querycache"
	"procurement/internal/table"
	"procurement/internal/wizard"
	"procurement/internal/workflow"

	"github.com/gin-gonic/gin"
)

var rfqColumns = []table.Column[client.RFQ]{
	{Key: "reference_number", Label: "Reference", Sortable: true, Value: func(r client.RFQ) interface{} { return r.ReferenceNumber }},
	{Key: "description", Label: "Description", Value: func(r client.RFQ) interface{} { return r.Description }},
	{Key: "status", Label: "Status", Sortable: true, Value: func(r client.RFQ) interface{} { return r.Status }},
	{Key: "delivery_location", Label: "Delivery Location", Value: func(r client.RFQ) interface{} { return r.DeliveryLocation }},
	{Key: "submission_deadline", Label: "Deadline", Sortable: true, Unsearchable: true,
		Value: func(r client.RFQ) interface{} { return r.SubmissionDeadline }},
	{Key: "created_at", Label: "Created", Sortable: true, Unsearchable: true,
		Value: func(r client.RFQ) interface{} { return r.CreatedAt }},
}

func rfqID(r client.RFQ) string { return r.ID }

// listParams reads page, per_page, search, sort_by and sort_order. Only the
// selectable page sizes are accepted.
func listParams(c *gin.Context) (client.ListParams, error) {
	p := client.ListParams{
		Page:      1,
		PerPage:   10,
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort_by"),
		SortOrder: strings.ToLower(c.Query("sort_order")),
	}
	if v := c.Query("page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return p, form.Errors{"page": "Page must be a positive number"}
		}
		p.Page = n
	}
	if v := c.Query("per_page"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || !table.ValidPageSize(n) {
			return p, form.Errors{"per_page": "Rows per page must be one of 5, 10, 20 or 50"}
		}
		p.PerPage = n
	}
	if p.SortOrder != "" && p.SortOrder != "asc" && p.SortOrder != "desc" {
		p.SortOrder = "asc"
	}
	return p, nil
}

// ListRFQs renders one server-side page. A "toggle_sort" column key applies
// the header click rules to the current sort before fetching.
func (h *Handler) ListRFQs(c *gin.Context) {
	p, err := listParams(c)
	if err != nil {
		fail(c, err)
		return
	}
	if status := c.Query("status"); status != "" {
		st, err := workflow.ParseRFQStatus(status)
		if err != nil {
			fail(c, form.Errors{"status": err.Error()})
			return
		}
		p.Filters = map[string]string{"status": string(st)}
	}
	if key := c.Query("toggle_sort"); key != "" {
		intent := table.NewServerTable(rfqColumns, rfqID, nil, table.ServerState{SortKey: p.SortBy, SortOrder: p.SortOrder}, table.Callbacks{
			OnSortChange: func(k, order string) { p.SortBy, p.SortOrder = k, order },
		})
		if err := intent.Sort(key); err != nil {
			fail(c, form.Errors{"toggle_sort": err.Error()})
			return
		}
		p.Page = 1
	}

	sess := session(c)
	page, err := querycache.Fetch(c.Request.Context(), h.cache, "rfqs", p.Values(), func(ctx context.Context) (client.Page[client.RFQ], error) {
		return sess.ListRFQs(ctx, p)
	})
	if err != nil {
		fail(c, err)
		return
	}

	tbl := table.NewServerTable(rfqColumns, rfqID, page.Data, table.ServerState{
		TotalItems:   page.Total,
		CurrentPage:  page.CurrentPage,
		ItemsPerPage: page.PerPage,
		SortKey:      p.SortBy,
		SortOrder:    p.SortOrder,
		Search:       p.Search,
	}, table.Callbacks{})

	perms := permsOf(c)
	actions := make(map[string]map[workflow.RFQEvent]bool, len(page.Data))
	for _, r := range page.Data {
		st, err := workflow.ParseRFQStatus(r.Status)
		if err != nil {
			continue
		}
		a := workflow.RFQActions(st)
		if !perms.Has("update_rfq") {
			a[workflow.EventMoveToEvaluation], a[workflow.EventClose], a[workflow.EventCancel] = false, false, false
		}
		if !perms.Has("publish_rfq") {
			a[workflow.EventPublish] = false
		}
		actions[r.ID] = a
	}

	c.JSON(http.StatusOK, gin.H{
		"table":      tbl.Render(),
		"actions":    actions,
		"can_create": perms.Has("create_rfq"),
	})
}

// --- transitions ---

func (h *Handler) MoveToEvaluation(c *gin.Context) {
	h.transition(c, workflow.EventMoveToEvaluation, client.ActionMoveToEvaluation)
}

func (h *Handler) Cancel(c *gin.Context) {
	h.transition(c, workflow.EventCancel, client.ActionCancel)
}

func (h *Handler) Close(c *gin.Context) {
	h.transition(c, workflow.EventClose, client.ActionClose)
}

// transition checks the guard against the freshest RFQ before asking the API
func (h *Handler) transition(c *gin.Context, ev workflow.RFQEvent, action client.RFQAction) {
	sess := session(c)
	id := c.Param("id")
	rfq, err := sess.GetRFQ(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	st, err := workflow.ParseRFQStatus(rfq.Status)
	if err != nil {
		fail(c, err)
		return
	}
	if !workflow.CanRFQ(st, ev) {
		c.JSON(http.StatusConflict, gin.H{"error": "This action is not available for a " + string(st) + " RFQ", "toast": true})
		return
	}
	updated, err := sess.TransitionRFQ(c.Request.Context(), id, action)
	if err != nil {
		fail(c, err)
		return
	}
	h.cache.Invalidate("rfqs")
	c.JSON(http.StatusOK, gin.H{"rfq": updated, "message": "RFQ updated"})
}

// --- wizard ---

// generalForm is step 1 as the browser posts it; the deadline is a date or RFC 3339 time
type generalForm struct {
	Description        string   `json:"description"`
	SubmissionDeadline string   `json:"submission_deadline"`
	DeliveryTerms      []string `json:"delivery_terms"`
	DeliveryLocation   string   `json:"delivery_location"`
}

func (f generalForm) parse() (client.RFQGeneral, error) {
	g := client.RFQGeneral{
		Description:      f.Description,
		DeliveryTerms:    f.DeliveryTerms,
		DeliveryLocation: f.DeliveryLocation,
	}
	raw := strings.TrimSpace(f.SubmissionDeadline)
	if raw == "" {
		return g, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		g.SubmissionDeadline = t
		return g, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return g, form.Errors{"submission_deadline": "Submission deadline must be a date"}
	}
	// a bare date means the end of that day
	g.SubmissionDeadline = t.Add(24*time.Hour - time.Second)
	return g, nil
}

type productsForm struct {
	Products []client.RFQProductLine `json:"products"`
}

func (h *Handler) WizardNew(c *gin.Context) {
	c.JSON(http.StatusOK, wizard.New(session(c), h.now).State())
}

func (h *Handler) WizardCreate(c *gin.Context) {
	var f generalForm
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	g, err := f.parse()
	if err != nil {
		fail(c, err)
		return
	}
	w := wizard.New(session(c), h.now)
	if err := w.SubmitGeneral(c.Request.Context(), g); err != nil {
		fail(c, err)
		return
	}
	h.cache.Invalidate("rfqs")
	c.JSON(http.StatusCreated, w.State())
}

// resume reopens the wizard on the stored RFQ
func (h *Handler) resume(c *gin.Context, viewOnly bool) (*wizard.Wizard, bool) {
	sess := session(c)
	rfq, err := sess.GetRFQ(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return nil, false
	}
	w, err := wizard.Resume(sess, h.now, rfq, viewOnly)
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return w, true
}

func (h *Handler) WizardShow(c *gin.Context) {
	viewOnly, _ := strconv.ParseBool(c.DefaultQuery("view_only", "false"))
	w, ok := h.resume(c, viewOnly)
	if !ok {
		return
	}
	if v := c.Query("step"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			fail(c, form.Errors{"step": "Step must be 1, 2 or 3"})
			return
		}
		if err := w.GoTo(wizard.Step(n)); err != nil {
			fail(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, w.State())
}

func (h *Handler) WizardUpdateGeneral(c *gin.Context) {
	var f generalForm
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	g, err := f.parse()
	if err != nil {
		fail(c, err)
		return
	}
	w, ok := h.resume(c, false)
	if !ok {
		return
	}
	if err := w.SubmitGeneral(c.Request.Context(), g); err != nil {
		fail(c, err)
		return
	}
	h.cache.Invalidate("rfqs")
	c.JSON(http.StatusOK, w.State())
}

func (h *Handler) WizardProducts(c *gin.Context) {
	var f productsForm
	if err := c.ShouldBindJSON(&f); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	w, ok := h.resume(c, false)
	if !ok {
		return
	}
	if err := w.SubmitProducts(c.Request.Context(), f.Products); err != nil {
		fail(c, err)
		return
	}
	h.cache.Invalidate("rfqs")
	c.JSON(http.StatusOK, w.State())
}

func (h *Handler) WizardPublish(c *gin.Context) {
	w, ok := h.resume(c, false)
	if !ok {
		return
	}
	var published *client.RFQ
	w.OnPublished = func(r client.RFQ) { published = &r }
	if err := w.Publish(c.Request.Context()); err != nil {
		fail(c, err)
		return
	}
	h.cache.Invalidate("rfqs")
	c.JSON(http.StatusOK, gin.H{"wizard": w.State(), "rfq": published, "message": "RFQ published"})
}
