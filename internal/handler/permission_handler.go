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

type PermissionHandler struct {
	permService service.PermissionService
	authz       middleware.Authorizer
}

func NewPermissionHandler(permService service.PermissionService, authz middleware.Authorizer) *PermissionHandler {
	return &PermissionHandler{permService: permService, authz: authz}
}

func (h *PermissionHandler) RegisterRoutes(router *gin.RouterGroup) {
	perms := router.Group("/permissions")
	{
		perms.GET("", middleware.RequirePermission(h.authz, "view-permissions"), h.ListPermissions)
		perms.GET("/:id", middleware.RequirePermission(h.authz, "view-permissions"), h.GetPermission)
		perms.POST("", middleware.RequirePermission(h.authz, "manage-permissions"), h.CreatePermission)
		perms.PUT("/:id", middleware.RequirePermission(h.authz, "manage-permissions"), h.UpdatePermission)
		perms.DELETE("/:id", middleware.RequirePermission(h.authz, "manage-permissions"), h.DeletePermission)
	}
}

// ListPermissions handles GET /admin/permissions
// @Summary      List permissions grouped by module ordering
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        page      query     int     false  "Page number"
// @Param        per_page  query     int     false  "Page size"
// @Param        search    query     string  false  "Name search"
// @Param        module    query     string  false  "Filter by module"
// @Success      200       {object}  response.Response{data=pagination.Page}
// @Router       /admin/permissions [get]
func (h *PermissionHandler) ListPermissions(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.PermissionFilter{
		Search: c.Query("search"),
		Module: c.Query("module"),
	}

	perms, total, err := h.permService.ListPermissions(c.Request.Context(), p.Page, p.Limit, filter)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(perms, total, p)))
}

// GetPermission handles GET /admin/permissions/:id
// @Summary      Get a permission
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Permission ID"
// @Success      200  {object}  response.Response{data=service.PermissionResponse}
// @Failure      404  {object}  response.Response
// @Router       /admin/permissions/{id} [get]
func (h *PermissionHandler) GetPermission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Permission not found"))
		return
	}

	perm, err := h.permService.GetPermission(c.Request.Context(), id)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, perm))
}

// CreatePermission handles POST /admin/permissions
// @Summary      Create a permission
// @Description  Slug is derived from the name when omitted
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreatePermissionRequest  true  "Create Permission Payload"
// @Success      201      {object}  response.Response{data=service.PermissionResponse}
// @Failure      422      {object}  response.Response
// @Router       /admin/permissions [post]
func (h *PermissionHandler) CreatePermission(c *gin.Context) {
	var req service.CreatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(response.FromBindingError(err))
		return
	}

	perm, err := h.permService.CreatePermission(c.Request.Context(), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, perm))
}

// UpdatePermission handles PUT /admin/permissions/:id
// @Summary      Update a permission
// @Tags         permissions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                           true  "Permission ID"
// @Param        payload  body      service.UpdatePermissionRequest  true  "Update Permission Payload"
// @Success      200      {object}  response.Response{data=service.PermissionResponse}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /admin/permissions/{id} [put]
func (h *PermissionHandler) UpdatePermission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Permission not found"))
		return
	}

	var req service.UpdatePermissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(response.FromBindingError(err))
		return
	}

	perm, err := h.permService.UpdatePermission(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, perm))
}

// DeletePermission handles DELETE /admin/permissions/:id
// @Summary      Delete a permission
// @Description  Permissions still granted to roles cannot be deleted
// @Tags         permissions
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Permission ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /admin/permissions/{id} [delete]
func (h *PermissionHandler) DeletePermission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Permission not found"))
		return
	}

	if err := h.permService.DeletePermission(c.Request.Context(), id); err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Permission deleted successfully"}))
}
