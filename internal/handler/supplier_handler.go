package handler

import (
	"net/http"

	"procurement/internal/middleware"
	"procurement/internal/service"
	"procurement/pkg/pagination"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
)

type SupplierHandler struct {
	supplierService service.SupplierService
}

func NewSupplierHandler(supplierService service.SupplierService) *SupplierHandler {
	return &SupplierHandler{supplierService: supplierService}
}

func (h *SupplierHandler) RegisterRoutes(router *gin.RouterGroup) {
	suppliers := router.Group("/suppliers")
	{
		suppliers.GET("", middleware.RequirePermission("read_supplier"), h.ListSuppliers)
		suppliers.GET("/:id", middleware.RequirePermission("read_supplier"), h.GetSupplier)
		suppliers.POST("", middleware.RequirePermission("create_supplier"), h.CreateSupplier)
		suppliers.PUT("/:id", middleware.RequirePermission("update_supplier"), h.UpdateSupplier)
		suppliers.PATCH("/:id/status", middleware.RequirePermission("update_supplier"), h.ChangeStatus)
		suppliers.PUT("/:id/products", middleware.RequirePermission("update_supplier"), h.LinkProducts)
		suppliers.DELETE("/:id", middleware.RequirePermission("delete_supplier"), h.DeleteSupplier)
	}
}

// ListSuppliers returns paginated suppliers with optional status/search filter
// @Summary      List suppliers
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        page        query     int     false  "Page number (default: 1)"
// @Param        per_page    query     int     false  "Items per page (default: 10)"
// @Param        status      query     string  false  "active, inactive, suspended, blacklisted"
// @Param        search      query     string  false  "Search by legal name, trade name, tax id, email"
// @Param        sort_by     query     string  false  "legal_name, status, created_at"
// @Param        sort_order  query     string  false  "asc or desc"
// @Success      200     {object}  response.Response{data=response.Page}
// @Router       /api/suppliers [get]
func (h *SupplierHandler) ListSuppliers(c *gin.Context) {
	p := pagination.Parse(c)
	suppliers, total, err := h.supplierService.ListSuppliers(c.Request.Context(), p, c.Query("status"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, "", suppliers, p, total)
}

// GetSupplier
// @Summary      Get supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Supplier ID"
// @Success      200  {object}  response.Response{data=service.SupplierResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/suppliers/{id} [get]
func (h *SupplierHandler) GetSupplier(c *gin.Context) {
	supplier, err := h.supplierService.GetSupplier(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("", supplier))
}

// CreateSupplier creates a supplier with its contacts and addresses
// @Summary      Create supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  service.CreateSupplierRequest  true  "Supplier payload"
// @Success      201  {object}  response.Response{data=service.SupplierResponse}
// @Failure      422  {object}  response.Response
// @Router       /api/suppliers [post]
func (h *SupplierHandler) CreateSupplier(c *gin.Context) {
	var req service.CreateSupplierRequest
	if !bindJSON(c, &req) {
		return
	}
	supplier, err := h.supplierService.CreateSupplier(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success("Supplier created", supplier))
}

// UpdateSupplier updates an existing supplier
// @Summary      Update supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                         true  "Supplier ID"
// @Param        payload  body  service.UpdateSupplierRequest  true  "Update payload"
// @Success      200  {object}  response.Response{data=service.SupplierResponse}
// @Failure      422  {object}  response.Response
// @Router       /api/suppliers/{id} [put]
func (h *SupplierHandler) UpdateSupplier(c *gin.Context) {
	var req service.UpdateSupplierRequest
	if !bindJSON(c, &req) {
		return
	}
	supplier, err := h.supplierService.UpdateSupplier(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Supplier updated", supplier))
}

// ChangeStatus
// @Summary      Change supplier status
// @Tags         suppliers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                               true  "Supplier ID"
// @Param        payload  body  service.ChangeSupplierStatusRequest  true  "New status"
// @Success      200  {object}  response.Response{data=service.SupplierResponse}
// @Router       /api/suppliers/{id}/status [patch]
func (h *SupplierHandler) ChangeStatus(c *gin.Context) {
	var req service.ChangeSupplierStatusRequest
	if !bindJSON(c, &req) {
		return
	}
	supplier, err := h.supplierService.ChangeStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Supplier status updated", supplier))
}

// LinkProducts replaces the products a supplier offers
// @Summary      Link supplier products
// @Tags         suppliers
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                       true  "Supplier ID"
// @Param        payload  body  service.LinkProductsRequest  true  "Product IDs"
// @Success      200  {object}  response.Response{data=service.SupplierResponse}
// @Router       /api/suppliers/{id}/products [put]
func (h *SupplierHandler) LinkProducts(c *gin.Context) {
	var req service.LinkProductsRequest
	if !bindJSON(c, &req) {
		return
	}
	supplier, err := h.supplierService.LinkProducts(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Supplier products updated", supplier))
}

// DeleteSupplier deletes a supplier (soft delete)
// @Summary      Delete supplier
// @Tags         suppliers
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Supplier ID"
// @Success      200  {object}  response.Response
// @Router       /api/suppliers/{id} [delete]
func (h *SupplierHandler) DeleteSupplier(c *gin.Context) {
	if err := h.supplierService.DeleteSupplier(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Supplier deleted", nil))
}
