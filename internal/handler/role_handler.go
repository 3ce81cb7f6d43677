package handler

import (
	"net/http"

	"shopapi/internal/middleware"
	"shopapi/internal/repository"
	"shopapi/internal/service"
	"shopapi/pkg/pagination"
	"shopapi/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type RoleHandler struct {
	roleService  service.RoleService
	authzService service.AuthzService
	authz        middleware.Authorizer
}

func NewRoleHandler(roleService service.RoleService, authzService service.AuthzService, authz middleware.Authorizer) *RoleHandler {
	return &RoleHandler{roleService: roleService, authzService: authzService, authz: authz}
}

func (h *RoleHandler) RegisterRoutes(router *gin.RouterGroup) {
	roles := router.Group("/roles")
	{
		roles.GET("", middleware.RequirePermission(h.authz, "view-roles"), h.ListRoles)
		roles.GET("/:id", middleware.RequirePermission(h.authz, "view-roles"), h.GetRole)
		roles.POST("", middleware.RequirePermission(h.authz, "manage-roles"), h.CreateRole)
		roles.PUT("/:id", middleware.RequirePermission(h.authz, "manage-roles"), h.UpdateRole)
		roles.DELETE("/:id", middleware.RequirePermission(h.authz, "manage-roles"), h.DeleteRole)

		roles.POST("/:id/permissions", middleware.RequirePermission(h.authz, "manage-roles"), h.AssignPermission)
		roles.DELETE("/:id/permissions/:permission", middleware.RequirePermission(h.authz, "manage-roles"), h.RevokePermission)
	}
}

// ListRoles handles GET /admin/roles
// @Summary      List roles with their permissions
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        page      query     int     false  "Page number"
// @Param        per_page  query     int     false  "Page size"
// @Param        search    query     string  false  "Name search"
// @Success      200       {object}  response.Response{data=pagination.Page}
// @Failure      403       {object}  response.Response
// @Router       /admin/roles [get]
func (h *RoleHandler) ListRoles(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.RoleFilter{Search: c.Query("search")}

	roles, total, err := h.roleService.ListRoles(c.Request.Context(), p.Page, p.Limit, filter)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(roles, total, p)))
}

// GetRole handles GET /admin/roles/:id
// @Summary      Get a role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  response.Response{data=service.RoleResponse}
// @Failure      404  {object}  response.Response
// @Router       /admin/roles/{id} [get]
func (h *RoleHandler) GetRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Role not found"))
		return
	}

	role, err := h.roleService.GetRole(c.Request.Context(), id)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// CreateRole handles POST /admin/roles
// @Summary      Create a role
// @Description  Slug is derived from the name when omitted
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateRoleRequest  true  "Create Role Payload"
// @Success      201      {object}  response.Response{data=service.RoleResponse}
// @Failure      422      {object}  response.Response
// @Router       /admin/roles [post]
func (h *RoleHandler) CreateRole(c *gin.Context) {
	var req service.CreateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(response.FromBindingError(err))
		return
	}

	role, err := h.roleService.CreateRole(c.Request.Context(), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, role))
}

// UpdateRole handles PUT /admin/roles/:id
// @Summary      Update a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "Role ID"
// @Param        payload  body      service.UpdateRoleRequest  true  "Update Role Payload"
// @Success      200      {object}  response.Response{data=service.RoleResponse}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /admin/roles/{id} [put]
func (h *RoleHandler) UpdateRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Role not found"))
		return
	}

	var req service.UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(response.FromBindingError(err))
		return
	}

	role, err := h.roleService.UpdateRole(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, role))
}

// DeleteRole handles DELETE /admin/roles/:id
// @Summary      Delete a role
// @Description  Reserved roles and roles still assigned to users cannot be deleted
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Role ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /admin/roles/{id} [delete]
func (h *RoleHandler) DeleteRole(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Role not found"))
		return
	}

	if err := h.roleService.DeleteRole(c.Request.Context(), id); err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Role deleted successfully"}))
}

type assignPermissionRequest struct {
	Permission string `json:"permission" binding:"required"` // permission slug or UUID
}

// AssignPermission handles POST /admin/roles/:id/permissions
// @Summary      Grant a permission to a role
// @Description  Idempotent; granting an already-held permission is a no-op
// @Tags         roles
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                   true  "Role ID"
// @Param        payload  body      assignPermissionRequest  true  "Permission reference (slug or id)"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /admin/roles/{id}/permissions [post]
func (h *RoleHandler) AssignPermission(c *gin.Context) {
	actorID, _ := middleware.CurrentUserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Role not found"))
		return
	}

	var req assignPermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(response.FromBindingError(err))
		return
	}

	if err := h.authzService.AssignPermission(c.Request.Context(), actorID, id, parseRef(req.Permission)); err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Permission assigned successfully"}))
}

// RevokePermission handles DELETE /admin/roles/:id/permissions/:permission
// @Summary      Revoke a permission from a role
// @Tags         roles
// @Produce      json
// @Security     BearerAuth
// @Param        id          path      string  true  "Role ID"
// @Param        permission  path      string  true  "Permission slug or id"
// @Success      200         {object}  response.Response
// @Failure      404         {object}  response.Response
// @Router       /admin/roles/{id}/permissions/{permission} [delete]
func (h *RoleHandler) RevokePermission(c *gin.Context) {
	actorID, _ := middleware.CurrentUserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Role not found"))
		return
	}

	if err := h.authzService.RevokePermission(c.Request.Context(), actorID, id, parseRef(c.Param("permission"))); err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Permission revoked successfully"}))
}
