package handler

import (
	"net/http"

	"shopapi/internal/middleware"
	"shopapi/internal/service"
	"shopapi/pkg/response"

	"github.com/gin-gonic/gin"
)

type StatsHandler struct {
	statsService service.StatsService
	authz        middleware.Authorizer
}

func NewStatsHandler(statsService service.StatsService, authz middleware.Authorizer) *StatsHandler {
	return &StatsHandler{statsService: statsService, authz: authz}
}

func (h *StatsHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/dashboard/stats", middleware.RequirePermission(h.authz, "view-dashboard"), h.DashboardStats)
}

// DashboardStats handles GET /admin/dashboard/stats
// @Summary      Back-office dashboard rollups
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.DashboardStats}
// @Failure      403  {object}  response.Response
// @Router       /admin/dashboard/stats [get]
func (h *StatsHandler) DashboardStats(c *gin.Context) {
	stats, err := h.statsService.DashboardStats(c.Request.Context())
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}
