package handler

import (
	"net/http"

	"procurement/internal/middleware"
	"procurement/internal/service"
	"procurement/pkg/pagination"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
)

// ProductHandler serves products plus the category and UOM lookups
type ProductHandler struct {
	productService service.ProductService
	catalogService service.CatalogService
}

func NewProductHandler(productService service.ProductService, catalogService service.CatalogService) *ProductHandler {
	return &ProductHandler{productService: productService, catalogService: catalogService}
}

func (h *ProductHandler) RegisterRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.GET("", middleware.RequirePermission("read_product"), h.ListProducts)
		products.GET("/:id", middleware.RequirePermission("read_product"), h.GetProduct)
		products.POST("", middleware.RequirePermission("create_product"), h.CreateProduct)
		products.PUT("/:id", middleware.RequirePermission("update_product"), h.UpdateProduct)
		products.DELETE("/:id", middleware.RequirePermission("delete_product"), h.DeleteProduct)
	}

	categories := router.Group("/categories")
	{
		categories.GET("", middleware.RequirePermission("read_category"), h.ListCategories)
		categories.GET("/:id", middleware.RequirePermission("read_category"), h.GetCategory)
		categories.POST("", middleware.RequirePermission("create_category"), h.CreateCategory)
		categories.PUT("/:id", middleware.RequirePermission("update_category"), h.UpdateCategory)
		categories.DELETE("/:id", middleware.RequirePermission("delete_category"), h.DeleteCategory)
	}

	uoms := router.Group("/uoms")
	{
		uoms.GET("", middleware.RequirePermission("read_uom"), h.ListUOMs)
		uoms.GET("/:id", middleware.RequirePermission("read_uom"), h.GetUOM)
		uoms.POST("", middleware.RequirePermission("create_uom"), h.CreateUOM)
		uoms.PUT("/:id", middleware.RequirePermission("update_uom"), h.UpdateUOM)
		uoms.DELETE("/:id", middleware.RequirePermission("delete_uom"), h.DeleteUOM)
	}
}

// ListProducts returns paginated products
// @Summary      List products
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        page         query  int     false  "Page number"
// @Param        per_page     query  int     false  "Items per page"
// @Param        search       query  string  false  "Search by SKU or name"
// @Param        sort_by      query  string  false  "sku, name, is_active, created_at"
// @Param        sort_order   query  string  false  "asc or desc"
// @Param        category_id  query  string  false  "Filter by category"
// @Param        is_active    query  bool    false  "Filter by active flag"
// @Success      200  {object}  response.Response{data=response.Page}
// @Router       /api/products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.productService.ListProducts(c.Request.Context(), p, service.ProductQuery{
		CategoryID: c.Query("category_id"),
		IsActive:   c.Query("is_active"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, "", items, p, total)
}

// GetProduct
// @Summary      Get product
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.ProductResponse}
// @Router       /api/products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	product, err := h.productService.GetProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("", product))
}

// CreateProduct
// @Summary      Create product
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductRequest  true  "Product payload"
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Failure      422      {object}  response.Response
// @Router       /api/products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.productService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success("Product created", product))
}

// UpdateProduct
// @Summary      Update product
// @Tags         products
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Product ID"
// @Param        payload  body      service.UpdateProductRequest  true  "Fields to change"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Router       /api/products/{id} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	var req service.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.productService.UpdateProduct(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Product updated", product))
}

// DeleteProduct soft-deletes a product
// @Summary      Delete product
// @Tags         products
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Router       /api/products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	if err := h.productService.DeleteProduct(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Product deleted", nil))
}

// --- Categories ---

// ListCategories
// @Summary      List categories
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int     false  "Page number"
// @Param        per_page  query  int     false  "Items per page"
// @Param        search    query  string  false  "Search by name"
// @Success      200  {object}  response.Response{data=response.Page}
// @Router       /api/categories [get]
func (h *ProductHandler) ListCategories(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.catalogService.ListCategories(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, "", items, p, total)
}

// GetCategory
// @Summary      Get category
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response
// @Router       /api/categories/{id} [get]
func (h *ProductHandler) GetCategory(c *gin.Context) {
	item, err := h.catalogService.GetCategory(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("", item))
}

// CreateCategory
// @Summary      Create category
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CategoryRequest  true  "Category payload"
// @Success      201      {object}  response.Response
// @Router       /api/categories [post]
func (h *ProductHandler) CreateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.catalogService.CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success("Category created", item))
}

// UpdateCategory
// @Summary      Update category
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                   true  "Category ID"
// @Param        payload  body      service.CategoryRequest  true  "Category payload"
// @Success      200      {object}  response.Response
// @Router       /api/categories/{id} [put]
func (h *ProductHandler) UpdateCategory(c *gin.Context) {
	var req service.CategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.catalogService.UpdateCategory(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Category updated", item))
}

// DeleteCategory refuses while products still reference the category
// @Summary      Delete category
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Category ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/categories/{id} [delete]
func (h *ProductHandler) DeleteCategory(c *gin.Context) {
	if err := h.catalogService.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Category deleted", nil))
}

// --- Units of measurement ---

// ListUOMs
// @Summary      List units of measurement
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int     false  "Page number"
// @Param        per_page  query  int     false  "Items per page"
// @Param        search    query  string  false  "Search by name or abbreviation"
// @Success      200  {object}  response.Response{data=response.Page}
// @Router       /api/uoms [get]
func (h *ProductHandler) ListUOMs(c *gin.Context) {
	p := pagination.Parse(c)
	items, total, err := h.catalogService.ListUOMs(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, "", items, p, total)
}

// GetUOM
// @Summary      Get unit of measurement
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "UOM ID"
// @Success      200  {object}  response.Response
// @Router       /api/uoms/{id} [get]
func (h *ProductHandler) GetUOM(c *gin.Context) {
	item, err := h.catalogService.GetUOM(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("", item))
}

// CreateUOM
// @Summary      Create unit of measurement
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.UOMRequest  true  "UOM payload"
// @Success      201      {object}  response.Response
// @Router       /api/uoms [post]
func (h *ProductHandler) CreateUOM(c *gin.Context) {
	var req service.UOMRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.catalogService.CreateUOM(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success("Unit created", item))
}

// UpdateUOM
// @Summary      Update unit of measurement
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string              true  "UOM ID"
// @Param        payload  body      service.UOMRequest  true  "UOM payload"
// @Success      200      {object}  response.Response
// @Router       /api/uoms/{id} [put]
func (h *ProductHandler) UpdateUOM(c *gin.Context) {
	var req service.UOMRequest
	if !bindJSON(c, &req) {
		return
	}
	item, err := h.catalogService.UpdateUOM(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Unit updated", item))
}

// DeleteUOM refuses while products still reference the unit
// @Summary      Delete unit of measurement
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "UOM ID"
// @Success      200  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/uoms/{id} [delete]
func (h *ProductHandler) DeleteUOM(c *gin.Context) {
	if err := h.catalogService.DeleteUOM(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Unit deleted", nil))
}
