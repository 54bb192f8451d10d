package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jwtapi/backend/internal/model"
	"github.com/jwtapi/backend/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Login godoc
// @Summary Login
// @Description Issues an access token and a refresh token for valid credentials.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Login ID and password"
// @Success 200 {object} model.LoginResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res := h.svc.LoginResult(c.Request.Context(), req.LoginID, req.Password)
	c.JSON(res.Status, res.Body)
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Login ID, password and profile"
// @Success 200 {object} model.RegisterResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 409 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res := h.svc.RegisterResult(c.Request.Context(), req)
	c.JSON(res.Status, res.Body)
}

// Refresh godoc
// @Summary Refresh the token pair
// @Description Exchanges a valid refresh token for a new access/refresh pair. The presented token is invalidated.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.RefreshRequest true "Refresh token"
// @Success 200 {object} model.LoginResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req model.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	res := h.svc.RefreshResult(c.Request.Context(), req.RefreshToken)
	c.JSON(res.Status, res.Body)
}

// Logout godoc
// @Summary Logout
// @Description Revokes the caller's outstanding refresh token.
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.StatusResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 404 {object} model.ErrorResponse
// @Router /api/auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	res := h.svc.LogoutResult(c.Request.Context(), user.ID)
	c.JSON(res.Status, res.Body)
}

// Me godoc
// @Summary Get current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.MeResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /api/auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	user := GetAuthUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	c.JSON(http.StatusOK, model.MeResponse{UserID: user.ID, Role: user.Role})
}

// ListUsers godoc
// @Summary List all users (admin only)
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.UserInfo
// @Failure 401 {object} model.ErrorResponse
// @Failure 403 {object} model.ErrorResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /api/auth/all [get]
func (h *AuthHandler) ListUsers(c *gin.Context) {
	res := h.svc.ListUsersResult(c.Request.Context())
	c.JSON(res.Status, res.Body)
}
