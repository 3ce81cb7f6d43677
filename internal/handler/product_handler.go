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

type ProductHandler struct {
	productService service.ProductService
	authz          middleware.Authorizer
}

func NewProductHandler(productService service.ProductService, authz middleware.Authorizer) *ProductHandler {
	return &ProductHandler{productService: productService, authz: authz}
}

// RegisterPublicRoutes binds the catalog browsing endpoints.
func (h *ProductHandler) RegisterPublicRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)
	}
}

// RegisterAdminRoutes binds the catalog management endpoints. Editing is
// open to either a dedicated product permission or the broader catalog one.
func (h *ProductHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	products := router.Group("/products")
	{
		products.POST("", middleware.RequirePermission(h.authz, "create-products|manage-catalog"), h.CreateProduct)
		products.PUT("/:id", middleware.RequirePermission(h.authz, "edit-products|manage-catalog"), h.UpdateProduct)
		products.DELETE("/:id", middleware.RequirePermission(h.authz, "delete-products|manage-catalog"), h.DeleteProduct)
	}
}

// ListProducts handles GET /products
// @Summary      List products
// @Tags         products
// @Produce      json
// @Param        page      query     int     false  "Page number"
// @Param        per_page  query     int     false  "Page size"
// @Param        search    query     string  false  "Name search"
// @Success      200       {object}  response.Response{data=pagination.Page}
// @Router       /products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	p := pagination.Parse(c)

	products, total, err := h.productService.ListProducts(c.Request.Context(), p.Page, p.Limit, c.Query("search"))
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.NewPage(products, total, p)))
}

// GetProduct handles GET /products/:id
// @Summary      Get a product
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.ProductResponse}
// @Failure      404  {object}  response.Response
// @Router       /products/{id} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Product not found"))
		return
	}

	product, err := h.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// CreateProduct handles POST /admin/products
// @Summary      Create a product
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.CreateProductRequest  true  "Create Product Payload"
// @Success      201      {object}  response.Response{data=service.ProductResponse}
// @Failure      422      {object}  response.Response
// @Router       /admin/products [post]
func (h *ProductHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(response.FromBindingError(err))
		return
	}

	product, err := h.productService.CreateProduct(c.Request.Context(), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// UpdateProduct handles PUT /admin/products/:id
// @Summary      Update a product
// @Description  Price edits never touch totals of orders already placed
// @Tags         products
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      string                        true  "Product ID"
// @Param        payload  body      service.UpdateProductRequest  true  "Update Product Payload"
// @Success      200      {object}  response.Response{data=service.ProductResponse}
// @Failure      404      {object}  response.Response
// @Router       /admin/products/{id} [put]
func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Product not found"))
		return
	}

	var req service.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(response.FromBindingError(err))
		return
	}

	product, err := h.productService.UpdateProduct(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}

// DeleteProduct handles DELETE /admin/products/:id
// @Summary      Delete a product
// @Tags         products
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /admin/products/{id} [delete]
func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, "Product not found"))
		return
	}

	if err := h.productService.DeleteProduct(c.Request.Context(), id); err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Product deleted successfully"}))
}
