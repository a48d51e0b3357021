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

type RFQHandler struct {
	rfqService service.RFQService
}

func NewRFQHandler(rfqService service.RFQService) *RFQHandler {
	return &RFQHandler{rfqService: rfqService}
}

func (h *RFQHandler) RegisterRoutes(router *gin.RouterGroup) {
	rfqs := router.Group("/rfqs")
	{
		rfqs.GET("", middleware.RequirePermission("read_rfq"), h.ListRFQs)
		rfqs.GET("/open", middleware.RequirePermission("read_rfq"), h.ListOpenRFQs)
		rfqs.GET("/:id", middleware.RequirePermission("read_rfq"), h.GetRFQ)
		rfqs.POST("", middleware.RequirePermission("create_rfq"), h.CreateRFQ)
		rfqs.PUT("/:id", middleware.RequirePermission("update_rfq"), h.UpdateRFQ)
		rfqs.PUT("/:id/products", middleware.RequirePermission("update_rfq"), h.AttachProducts)
		rfqs.POST("/:id/publish", middleware.RequirePermission("publish_rfq"), h.Publish)
		rfqs.POST("/:id/move-to-evaluation", middleware.RequirePermission("update_rfq"), h.MoveToEvaluation)
		rfqs.POST("/:id/close", middleware.RequirePermission("update_rfq"), h.Close)
		rfqs.POST("/:id/cancel", middleware.RequirePermission("update_rfq"), h.Cancel)
	}
}

// ListRFQs returns paginated RFQs with optional status/search filter
// @Summary      List RFQs
// @Tags         rfqs
// @Security     BearerAuth
// @Produce      json
// @Param        page        query  int     false  "Page number (default: 1)"
// @Param        per_page    query  int     false  "Items per page (default: 10)"
// @Param        status      query  string  false  "draft, published, evaluation, closed, cancelled, awarded, po_generated"
// @Param        search      query  string  false  "Search by reference, description, location"
// @Param        sort_by     query  string  false  "reference_number, status, submission_deadline, delivery_location, created_at"
// @Param        sort_order  query  string  false  "asc or desc"
// @Success      200  {object}  response.Response{data=response.Page}
// @Router       /api/rfqs [get]
func (h *RFQHandler) ListRFQs(c *gin.Context) {
	p := pagination.Parse(c)
	rfqs, total, err := h.rfqService.ListRFQs(c.Request.Context(), p, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, "", rfqs, p, total)
}

// ListOpenRFQs is the supplier view: published RFQs still before their deadline
// @Summary      List open RFQs
// @Tags         rfqs
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int     false  "Page number"
// @Param        per_page  query  int     false  "Items per page"
// @Param        search    query  string  false  "Search by reference, description, location"
// @Success      200  {object}  response.Response{data=response.Page}
// @Router       /api/rfqs/open [get]
func (h *RFQHandler) ListOpenRFQs(c *gin.Context) {
	p := pagination.Parse(c)
	rfqs, total, err := h.rfqService.ListOpenRFQs(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, "", rfqs, p, total)
}

// GetRFQ
// @Summary      Get RFQ
// @Tags         rfqs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "RFQ ID"
// @Success      200  {object}  response.Response{data=service.RFQResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/rfqs/{id} [get]
func (h *RFQHandler) GetRFQ(c *gin.Context) {
	rfq, err := h.rfqService.GetRFQ(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("", rfq))
}

// CreateRFQ creates a draft and assigns its reference number
// @Summary      Create RFQ
// @Tags         rfqs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RFQGeneralRequest  true  "General information"
// @Success      201      {object}  response.Response{data=service.RFQResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/rfqs [post]
func (h *RFQHandler) CreateRFQ(c *gin.Context) {
	var req service.RFQGeneralRequest
	if !bindJSON(c, &req) {
		return
	}
	rfq, err := h.rfqService.CreateRFQ(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success("RFQ created", rfq))
}

// UpdateRFQ edits the general information of a draft
// @Summary      Update RFQ
// @Tags         rfqs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                     true  "RFQ ID"
// @Param        payload  body      service.RFQGeneralRequest  true  "General information"
// @Success      200      {object}  response.Response{data=service.RFQResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/rfqs/{id} [put]
func (h *RFQHandler) UpdateRFQ(c *gin.Context) {
	var req service.RFQGeneralRequest
	if !bindJSON(c, &req) {
		return
	}
	rfq, err := h.rfqService.UpdateRFQ(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("RFQ updated", rfq))
}

// AttachProducts replaces the product lines of a draft
// @Summary      Attach products
// @Tags         rfqs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "RFQ ID"
// @Param        payload  body      service.AttachProductsRequest  true  "Product lines"
// @Success      200      {object}  response.Response{data=service.RFQResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/rfqs/{id}/products [put]
func (h *RFQHandler) AttachProducts(c *gin.Context) {
	var req service.AttachProductsRequest
	if !bindJSON(c, &req) {
		return
	}
	rfq, err := h.rfqService.AttachProducts(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Products attached", rfq))
}

// Publish
// @Summary      Publish RFQ
// @Tags         rfqs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "RFQ ID"
// @Success      200  {object}  response.Response{data=service.RFQResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/rfqs/{id}/publish [post]
func (h *RFQHandler) Publish(c *gin.Context) {
	h.transition(c, "RFQ published", h.rfqService.Publish)
}

// MoveToEvaluation
// @Summary      Move RFQ to evaluation
// @Tags         rfqs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "RFQ ID"
// @Success      200  {object}  response.Response{data=service.RFQResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/rfqs/{id}/move-to-evaluation [post]
func (h *RFQHandler) MoveToEvaluation(c *gin.Context) {
	h.transition(c, "RFQ moved to evaluation", h.rfqService.MoveToEvaluation)
}

// Close
// @Summary      Close RFQ
// @Tags         rfqs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "RFQ ID"
// @Success      200  {object}  response.Response{data=service.RFQResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/rfqs/{id}/close [post]
func (h *RFQHandler) Close(c *gin.Context) {
	h.transition(c, "RFQ closed", h.rfqService.Close)
}

// Cancel
// @Summary      Cancel RFQ
// @Tags         rfqs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "RFQ ID"
// @Success      200  {object}  response.Response{data=service.RFQResponse}
// @Failure      409  {object}  response.Response
// @Router       /api/rfqs/{id}/cancel [post]
func (h *RFQHandler) Cancel(c *gin.Context) {
	h.transition(c, "RFQ cancelled", h.rfqService.Cancel)
}

func (h *RFQHandler) transition(c *gin.Context, msg string, fn func(ctx context.Context, id string) (service.RFQResponse, error)) {
	rfq, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(msg, rfq))
}
