package handler

import (
	"net/http"

	"procurement/internal/middleware"
	"procurement/internal/service"
	"procurement/pkg/pagination"
	"procurement/pkg/response"

	"github.com/gin-gonic/gin"
)

type RoleHandler struct {
	roleService service.RoleService
}

func NewRoleHandler(roleService service.RoleService) *RoleHandler {
	return &RoleHandler{roleService: roleService}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/roles")
	{
		roles.GET("", middleware.RequirePermission("read_role"), h.ListRoles)
		roles.GET("/:id", middleware.RequirePermission("read_role"), h.GetRole)
		roles.POST("", middleware.RequirePermission("create_role"), h.CreateRole)
		roles.PUT("/:id", middleware.RequirePermission("update_role"), h.UpdateRole)
		roles.DELETE("/:id", middleware.RequirePermission("delete_role"), h.DeleteRole)
		roles.PUT("/:id/permissions", middleware.RequirePermission("update_role"), h.UpdateRolePermissions)
	}

	router.GET("/permissions", middleware.RequirePermission("read_role"), h.ListPermissions)
}

// ListRoles
// @Summary      List roles
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int     false  "Page number"
// @Param        per_page  query  int     false  "Items per page"
// @Param        search    query  string  false  "Search by name"
// @Success      200  {object}  response.Response{data=response.Page}
// @Router       /api/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	p := pagination.Parse(c)
	roles, total, err := h.roleService.ListRoles(c.Request.Context(), p)
	if err != nil {
		respondError(c, err)
		return
	}
	respondPage(c, "", roles, p, total)
}

// GetRole
// @Summary      Get role
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  response.Response{data=service.RoleResponse}
// @Router       /api/roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	role, err := h.roleService.GetRole(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("", role))
}

// CreateRole
// @Summary      Create role
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RoleRequest  true  "Role payload"
// @Success      201      {object}  response.Response{data=service.RoleResponse}
// @Router       /api/roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req service.RoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.roleService.CreateRole(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success("Role created", role))
}

// UpdateRole
// @Summary      Update role
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string               true  "Role ID"
// @Param        payload  body      service.RoleRequest  true  "Role payload"
// @Success      200      {object}  response.Response{data=service.RoleResponse}
// @Router       /api/roles/{id} [put]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	var req service.RoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.roleService.UpdateRole(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Role updated", role))
}

// DeleteRole
// @Summary      Delete role
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  response.Response
// @Router       /api/roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	if err := h.roleService.DeleteRole(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Role deleted", nil))
}

// ListPermissions returns the catalog flat and grouped by resource
// @Summary      List permissions
// @Tags         roles
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /api/permissions [get]
func (h *RoleHandler) ListPermissions(c *gin.Context) {
	perms, groups, err := h.roleService.ListPermissions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("", gin.H{"permissions": perms, "groups": groups}))
}

// UpdateRolePermissions replaces the permission set of a role
// @Summary      Replace role permissions
// @Tags         roles
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                                true  "Role ID"
// @Param        payload  body      service.UpdateRolePermissionsRequest  true  "Permission IDs"
// @Success      200      {object}  response.Response{data=service.RoleResponse}
// @Router       /api/roles/{id}/permissions [put]
func (h *RoleHandler) UpdateRolePermissions(c *gin.Context) {
	var req service.UpdateRolePermissionsRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := h.roleService.UpdateRolePermissions(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success("Permissions updated", role))
}
