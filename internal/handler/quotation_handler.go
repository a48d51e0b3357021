package handler

import (
	"context"
	"net/http"

	"procurement/internal/middleware"
	"procurement/internal/service"
	"procurement/pkg/pagination"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
)

// QuotationHandler covers quotations and their evaluations
type QuotationHandler struct {
	quotationService  service.QuotationService
	evaluationService service.EvaluationService
}

func NewQuotationHandler(quotationService service.QuotationService, evaluationService service.EvaluationService) *QuotationHandler {
	return &QuotationHandler{quotationService: quotationService, evaluationService: evaluationService}
}

func (h *QuotationHandler) RegisterRoutes(router *gin.RouterGroup) {
	rfqs := router.Group("/rfqs/:id")
	{
		rfqs.GET("/quotations", middleware.RequirePermission("read_quotation"), h.ListByRFQ)
		rfqs.POST("/quotations", middleware.RequirePermission("submit_quotation"), h.Submit)
		rfqs.GET("/evaluations", middleware.RequirePermission("read_evaluation"), h.ListEvaluations)
	}

	quotations := router.Group("/quotations")
	{
		quotations.GET("/:id", middleware.RequirePermission("read_quotation"), h.GetQuotation)
		quotations.POST("/:id/accept", middleware.RequirePermission("update_quotation"), h.Accept)
		quotations.POST("/:id/reject", middleware.RequirePermission("update_quotation"), h.Reject)
		quotations.POST("/:id/evaluate", middleware.RequirePermission("evaluate_quotation"), h.Evaluate)
		quotations.POST("/:id/award", middleware.RequirePermission("award_quotation"), h.Award)
	}

	router.POST("/evaluations/:id/shortlist", middleware.RequirePermission("shortlist_evaluation"), h.Shortlist)
}

// ListByRFQ returns the quotations received for an RFQ
// @Summary      List quotations of an RFQ
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id          path   string  true   "RFQ ID"
// @Param        status      query  string  false  "submitted, accepted, rejected, shortlisted, awarded, po_generated"
// @Param        page        query  int     false  "Page number"
// @Param        per_page    query  int     false  "Items per page"
// @Param        search      query  string  false  "Search by supplier name"
// @Param        sort_by     query  string  false  "total_amount, status, created_at"
// @Param        sort_order  query  string  false  "asc or desc"
// @Success      200  {object}  response.Response{data=response.Page}
// @Router       /api/rfqs/{id}/quotations [get]
func (h *QuotationHandler) ListByRFQ(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.quotationService.ListByRFQ(c.Request.Context(), c.Param("id"), c.Query("status"), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, "", items, p, total)
}

// Submit records a supplier's quotation against a published RFQ
// @Summary      Submit quotation
// @Tags         quotations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "RFQ ID"
// @Param        payload  body      service.SubmitQuotationRequest  true  "Quotation"
// @Success      201      {object}  response.Response{data=service.QuotationResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/rfqs/{id}/quotations [post]
func (h *QuotationHandler) Submit(c *gin.Context) {
	var req service.SubmitQuotationRequest
	if !bindJSON(c, &req) {
		return
	}
	q, err := h.quotationService.Submit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success("Quotation submitted", q))
}

// GetQuotation
// @Summary      Get quotation
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Quotation ID"
// @Success      200  {object}  response.Response{data=service.QuotationResponse}
// @Router       /api/quotations/{id} [get]
func (h *QuotationHandler) GetQuotation(c *gin.Context) {
	q, err := h.quotationService.GetQuotation(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("", q))
}

// Accept
// @Summary      Accept quotation
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Quotation ID"
// @Success      200  {object}  response.Response{data=service.QuotationResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/quotations/{id}/accept [post]
func (h *QuotationHandler) Accept(c *gin.Context) {
	h.transition(c, "Quotation accepted", h.quotationService.Accept)
}

// Reject
// @Summary      Reject quotation
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Quotation ID"
// @Success      200  {object}  response.Response{data=service.QuotationResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/quotations/{id}/reject [post]
func (h *QuotationHandler) Reject(c *gin.Context) {
	h.transition(c, "Quotation rejected", h.quotationService.Reject)
}

// Award selects the winning quotation and moves the RFQ to awarded
// @Summary      Award quotation
// @Tags         quotations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Quotation ID"
// @Success      200  {object}  response.Response{data=service.QuotationResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/quotations/{id}/award [post]
func (h *QuotationHandler) Award(c *gin.Context) {
	h.transition(c, "Quotation awarded", h.quotationService.Award)
}

func (h *QuotationHandler) transition(c *gin.Context, msg string, fn func(ctx context.Context, id string) (service.QuotationResponse, error)) {
	q, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(msg, q))
}

// Evaluate scores a quotation on the five criteria
// @Summary      Evaluate quotation
// @Tags         evaluations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Quotation ID"
// @Param        payload  body      service.EvaluateRequest  true  "Scores 0-100"
// @Success      201      {object}  response.Response{data=service.EvaluationResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/quotations/{id}/evaluate [post]
func (h *QuotationHandler) Evaluate(c *gin.Context) {
	var req service.EvaluateRequest
	if !bindJSON(c, &req) {
		return
	}
	e, err := h.evaluationService.Evaluate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success("Quotation evaluated", e))
}

// ListEvaluations returns evaluations of an RFQ, best total score first by default
// @Summary      List evaluations of an RFQ
// @Tags         evaluations
// @Security     BearerAuth
// @Produce      json
// @Param        id           path   string  true   "RFQ ID"
// @Param        shortlisted  query  bool    false  "Only shortlisted evaluations"
// @Param        page         query  int     false  "Page number"
// @Param        per_page     query  int     false  "Items per page"
// @Param        sort_by      query  string  false  "total_score or a criterion score"
// @Param        sort_order   query  string  false  "asc or desc"
// @Success      200  {object}  response.Response{data=response.Page}
// @Router       /api/rfqs/{id}/evaluations [get]
func (h *QuotationHandler) ListEvaluations(c *gin.Context) {
	p := pagination.Parse(c)
	shortlisted := c.Query("shortlisted") == "true" || c.Query("shortlisted") == "1"
	items, total, err := h.evaluationService.ListByRFQ(c.Request.Context(), c.Param("id"), shortlisted, p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, "", items, p, total)
}

// Shortlist
// @Summary      Shortlist evaluation
// @Tags         evaluations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Evaluation ID"
// @Success      200  {object}  response.Response{data=service.EvaluationResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/evaluations/{id}/shortlist [post]
func (h *QuotationHandler) Shortlist(c *gin.Context) {
	e, err := h.evaluationService.Shortlist(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Evaluation shortlisted", e))
}
