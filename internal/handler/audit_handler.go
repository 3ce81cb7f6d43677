package handler

import (
	"net/http"

	"shopapi/internal/middleware"
	"shopapi/internal/service"
	"shopapi/pkg/pagination"
	"shopapi/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	authz        middleware.Authorizer
}

func NewAuditHandler(auditService service.AuditService, authz middleware.Authorizer) *AuditHandler {
	return &AuditHandler{auditService: auditService, authz: authz}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/audit-logs", middleware.RequirePermission(h.authz, "view-audit-logs"), h.ListLogs)
}

// ListLogs handles GET /admin/audit-logs
// @Summary      List audit log entries, newest first
// @Tags         audit
// @Produce      json
// @Security     BearerAuth
// @Param        page      query     int  false  "Page number"
// @Param        per_page  query     int  false  "Page size"
// @Success      200       {object}  response.Response{data=pagination.Page}
// @Failure      403       {object}  response.Response
// @Router       /admin/audit-logs [get]
func (h *AuditHandler) ListLogs(c *gin.Context) {
	p := pagination.Parse(c)

	logs, total, err := h.auditService.ListLogs(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(logs, total, p)))
}
