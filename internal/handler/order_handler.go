package handler

import (
	"net/http"

	"shopapi/internal/middleware"
	"shopapi/internal/service"
	"shopapi/pkg/pagination"
	"shopapi/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrderHandler struct {
	orderService service.OrderService
	authz        middleware.Authorizer
}

func NewOrderHandler(orderService service.OrderService, authz middleware.Authorizer) *OrderHandler {
	return &OrderHandler{orderService: orderService, authz: authz}
}

// RegisterRoutes binds the customer-facing order endpoints.
func (h *OrderHandler) RegisterRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	orders.Use(middleware.RequireAuth())
	{
		orders.POST("", h.CreateOrder)
		orders.GET("", h.History)
		orders.GET("/:id", h.GetOrder)
	}
}

// RegisterAdminRoutes binds the back-office order endpoints.
func (h *OrderHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	orders := router.Group("/orders")
	{
		orders.GET("", middleware.RequirePermission(h.authz, "view-orders"), h.AdminListOrders)
		orders.GET("/:id", middleware.RequirePermission(h.authz, "view-orders"), h.AdminGetOrder)
		orders.PUT("/:id/status", middleware.RequirePermission(h.authz, "manage-orders"), h.UpdateOrderStatus)
	}
}

// CreateOrder handles POST /orders
// @Summary      Place an order
// @Description  Unit prices are snapshotted at order time; the stored total never changes with later catalog edits
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateOrderRequest  true  "Order Payload"
// @Success      201      {object}  response.Response{data=service.OrderResponse}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /orders [post]
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	var req service.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(response.FromBindingError(err))
		return
	}

	order, err := h.orderService.CreateOrder(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, order))
}

// History handles GET /orders
// @Summary      List own orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        page      query     int  false  "Page number"
// @Param        per_page  query     int  false  "Page size"
// @Success      200       {object}  response.Response{data=pagination.Page}
// @Router       /orders [get]
func (h *OrderHandler) History(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	p := pagination.Parse(c)
	orders, total, err := h.orderService.History(c.Request.Context(), userID, p.Page, p.Limit)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(orders, total, p)))
}

// GetOrder handles GET /orders/:id
// @Summary      Get one of your own orders
// @Description  Another user's order returns 404, not 403
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /orders/{id} [get]
func (h *OrderHandler) GetOrder(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Order not found"))
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), userID, id, false)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// AdminListOrders handles GET /admin/orders
// @Summary      List all orders
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        page      query     int     false  "Page number"
// @Param        per_page  query     int     false  "Page size"
// @Param        status    query     string  false  "Filter by status"
// @Success      200       {object}  response.Response{data=pagination.Page}
// @Failure      422       {object}  response.Response
// @Router       /admin/orders [get]
func (h *OrderHandler) AdminListOrders(c *gin.Context) {
	p := pagination.Parse(c)

	orders, total, err := h.orderService.ListOrders(c.Request.Context(), p.Page, p.Limit, c.Query("status"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(orders, total, p)))
}

// AdminGetOrder handles GET /admin/orders/:id
// @Summary      Get any order
// @Tags         orders
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  response.Response{data=service.OrderResponse}
// @Failure      404  {object}  response.Response
// @Router       /admin/orders/{id} [get]
func (h *OrderHandler) AdminGetOrder(c *gin.Context) {
	userID, _ := middleware.CurrentUserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Order not found"))
		return
	}

	order, err := h.orderService.GetOrder(c.Request.Context(), userID, id, true)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}

// UpdateOrderStatus handles PUT /admin/orders/:id/status
// @Summary      Update an order's status
// @Tags         orders
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                            true  "Order ID"
// @Param        payload  body      service.UpdateOrderStatusRequest  true  "New Status"
// @Success      200      {object}  response.Response{data=service.OrderResponse}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /admin/orders/{id}/status [put]
func (h *OrderHandler) UpdateOrderStatus(c *gin.Context) {
	actorID, _ := middleware.CurrentUserID(c)

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Order not found"))
		return
	}

	var req service.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(response.FromBindingError(err))
		return
	}

	order, err := h.orderService.UpdateOrderStatus(c.Request.Context(), actorID, id, req.Status)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, order))
}
