package handler

import (
	"net/http"
	"os"

	"shopapi/internal/middleware"
	"shopapi/internal/service"
	"shopapi/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	userService service.UserService
}

func NewAuthHandler(userService service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// RegisterRoutes binds the public auth endpoints plus the authenticated
// profile routes.
func (h *AuthHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/register", h.Register)
	router.POST("/login", h.Login)
	router.POST("/logout", h.Logout)

	profile := router.Group("/profile")
	profile.Use(middleware.RequireAuth())
	{
		profile.GET("", h.Profile)
		profile.PUT("", h.UpdateProfile)
	}
}

// Register handles POST /register
// @Summary      Register a new account
// @Description  Creates a user account and returns a JWT token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterRequest  true  "Registration Payload"
// @Success      201      {object}  response.Response{data=service.TokenResponse}
// @Failure      400      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(response.FromBindingError(err))
		return
	}

	tokenRes, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	setAccessCookie(c, tokenRes.Token)
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, tokenRes))
}

// Login handles POST /login
// @Summary      Login user
// @Description  Authenticates by email and password, returning a JWT token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.LoginRequest  true  "Login Credentials"
// @Success      200      {object}  response.Response{data=service.TokenResponse}
// @Failure      401      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(response.FromBindingError(err))
		return
	}

	tokenRes, err := h.userService.Login(c.Request.Context(), req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	setAccessCookie(c, tokenRes.Token)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, tokenRes))
}

// Logout handles POST /logout
// @Summary      Logout user
// @Tags         auth
// @Produce      json
// @Success      200  {object}  response.Response
// @Router       /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	clearAccessCookie(c)
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Logged out successfully"}))
}

// Profile handles GET /profile
// @Summary      Get own profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  response.Response{data=service.UserResponse}
// @Failure      401  {object}  response.Response
// @Router       /profile [get]
func (h *AuthHandler) Profile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	user, err := h.userService.Profile(c.Request.Context(), userID)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// UpdateProfile handles PUT /profile
// @Summary      Update own profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        payload  body      service.UpdateProfileRequest  true  "Profile Fields"
// @Success      200      {object}  response.Response{data=service.UserResponse}
// @Failure      401      {object}  response.Response
// @Router       /profile [put]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
		return
	}

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(response.FromBindingError(err))
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), userID, req)
	if err != nil {
		c.JSON(response.FromError(err))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, user))
}

// Cross-origin deployments need SameSiteNone + Secure; local dev uses Lax
func setAccessCookie(c *gin.Context, token string) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", token, 3600*24, "/", "", secure, true)
}

func clearAccessCookie(c *gin.Context) {
	sameSite := http.SameSiteLaxMode
	secure := false
	if os.Getenv("GIN_MODE") == "release" {
		sameSite = http.SameSiteNoneMode
		secure = true
	}

	c.SetSameSite(sameSite)
	c.SetCookie("access_token", "", -1, "/", "", secure, true)
}
