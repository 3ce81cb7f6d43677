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

type UserHandler struct {
	userService  service.UserService
	authzService service.AuthzService
	authz        middleware.Authorizer
}

// NewUserHandler sets up the routing dependencies for user admin endpoints
func NewUserHandler(userService service.UserService, authzService service.AuthzService, authz middleware.Authorizer) *UserHandler {
	return &UserHandler{userService: userService, authzService: authzService, authz: authz}
}

// RegisterRoutes binds the admin user-management endpoints
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", middleware.RequirePermission(h.authz, "view-users"), h.ListUsers)
		users.GET("/:id", middleware.RequirePermission(h.authz, "view-users"), h.GetUser)
		users.POST("", middleware.RequirePermission(h.authz, "create-users"), h.CreateUser)
		users.PUT("/:id", middleware.RequirePermission(h.authz, "edit-users"), h.UpdateUser)
		users.DELETE("/:id", middleware.RequirePermission(h.authz, "delete-users"), h.DeleteUser)

		users.GET("/:id/permissions", middleware.RequirePermission(h.authz, "view-users"), h.ListUserPermissions)
		users.POST("/:id/roles", middleware.RequirePermission(h.authz, "assign-roles"), h.AssignRole)
		users.DELETE("/:id/roles/:role", middleware.RequirePermission(h.authz, "assign-roles"), h.RevokeRole)
	}
}

// ListUsers handles GET /admin/users
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        page      query     int     false  "Page number"
// @Param        per_page  query     int     false  "Page size"
// @Param        search    query     string  false  "Name or email search"
// @Param        role      query     string  false  "Filter by role slug"
// @Param        status    query     string  false  "Filter by verify status"
// @Success      200       {object}  response.Response{data=pagination.Page}
// @Failure      403       {object}  response.Response
// @Router       /admin/users [get]
func (h *UserHandler) ListUsers(c *gin.Context) {
	p := pagination.Parse(c)
	filter := repository.UserFilter{
		Search:   c.Query("search"),
		RoleSlug: c.Query("role"),
		Status:   c.Query("status"),
	}

	users, total, err := h.userService.ListUsers(c.Request.Context(), p.Page, p.Limit, filter)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(users, total, p)))
}

// GetUser handles GET /admin/users/:id
// @Summary      Get a user with roles and effective permissions
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      404  {object}  response.Response
// @Router       /admin/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "User not found"))
		return
	}

	user, err := h.userService.GetUser(c.Request.Context(), id)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// CreateUser handles POST /admin/users
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateUserRequest  true  "Create User Payload"
// @Success      201      {object}  response.Response{data=service.UserResponse}
// @Failure      422      {object}  response.Response
// @Router       /admin/users [post]
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req service.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(response.FromBindingError(err))
		return
	}

	user, err := h.userService.CreateUser(c.Request.Context(), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, user))
}

// UpdateUser handles PUT /admin/users/:id
// @Summary      Update a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                     true  "User ID"
// @Param        payload  body      service.UpdateUserRequest  true  "Update User Payload"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      400      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /admin/users/{id} [put]
func (h *UserHandler) UpdateUser(c *gin.Context) {
	actorID, _ := middleware.CurrentUserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "User not found"))
		return
	}

	var req service.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(response.FromBindingError(err))
		return
	}

	user, err := h.userService.UpdateUser(c.Request.Context(), actorID, id, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// DeleteUser handles DELETE /admin/users/:id
// @Summary      Delete a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /admin/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actorID, _ := middleware.CurrentUserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "User not found"))
		return
	}

	if err := h.userService.DeleteUser(c.Request.Context(), actorID, id); err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "User deleted successfully"}))
}

// ListUserPermissions handles GET /admin/users/:id/permissions
// @Summary      List a user's effective permissions
// @Description  Returns the deduplicated union of permissions across all held roles
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "User ID"
// @Success      200  {object}  response.Response{data=[]service.PermissionResponse}
// @Failure      404  {object}  response.Response
// @Router       /admin/users/{id}/permissions [get]
func (h *UserHandler) ListUserPermissions(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "User not found"))
		return
	}

	perms, err := h.authzService.UserPermissions(c.Request.Context(), id)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	res := make([]service.PermissionResponse, 0, len(perms))
	for _, p := range perms {
		res = append(res, service.PermissionResponse{
			ID:          p.ID.String(),
			Name:        p.Name,
			Slug:        p.Slug,
			Description: p.Description,
			Module:      p.Module,
		})
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

type assignRoleRequest struct {
	Role string `json:"role" binding:"required"` // role slug or UUID
}

// AssignRole handles POST /admin/users/:id/roles
// @Summary      Assign a role to a user
// @Description  Idempotent; assigning an already-held role is a no-op
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string             true  "User ID"
// @Param        payload  body      assignRoleRequest  true  "Role reference (slug or id)"
// @Success      200      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /admin/users/{id}/roles [post]
func (h *UserHandler) AssignRole(c *gin.Context) {
	actorID, _ := middleware.CurrentUserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "User not found"))
		return
	}

	var req assignRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(response.FromBindingError(err))
		return
	}

	if err := h.authzService.AssignRole(c.Request.Context(), actorID, id, parseRef(req.Role)); err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Role assigned successfully"}))
}

// RevokeRole handles DELETE /admin/users/:id/roles/:role
// @Summary      Revoke a role from a user
// @Description  Idempotent; revoking an unheld role is a no-op. Guardrails block self-admin-revocation and removing the last admin.
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string  true  "User ID"
// @Param        role  path      string  true  "Role slug or id"
// @Success      200   {object}  response.Response
// @Failure      400   {object}  response.Response
// @Failure      404   {object}  response.Response
// @Router       /admin/users/{id}/roles/{role} [delete]
func (h *UserHandler) RevokeRole(c *gin.Context) {
	actorID, _ := middleware.CurrentUserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "User not found"))
		return
	}

	if err := h.authzService.RevokeRole(c.Request.Context(), actorID, id, parseRef(c.Param("role"))); err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Role revoked successfully"}))
}

// parseRef interprets a path or body reference as a UUID when it parses
// as one and as a slug otherwise.
func parseRef(raw string) service.Ref {
	if id, err := uuid.Parse(raw); err == nil {
		return service.ByID(id)
	}
	return service.BySlug(raw)
}
