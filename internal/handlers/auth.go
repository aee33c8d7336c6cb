package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/taskboard/taskboard-api/internal/apperrors"
	"github.com/taskboard/taskboard-api/internal/dto"
	"github.com/taskboard/taskboard-api/internal/middleware"
	"github.com/taskboard/taskboard-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

type authPayload struct {
	User   dto.UserDTO         `json:"user"`
	Tokens *services.TokenPair `json:"tokens"`
}

// Register creates a new user account and returns it with a token pair.
func (h *AuthHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Username        string `json:"username" binding:"required"`
		Email           string `json:"email" binding:"required"`
		Password        string `json:"password" binding:"required"`
		PasswordConfirm string `json:"password_confirm" binding:"required"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.authService.Register(services.RegisterInput{
		Username:        req.Username,
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
	}, middleware.ClientIP(c))
	if err != nil {
		apperrors.RespondError(c, err)
		return
	}

	respondCreated(c, "User registered successfully", authPayload{
		User:   dto.ToUserDTO(*result.User),
		Tokens: result.Tokens,
	})
}

// Login authenticates a user and returns a token pair.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Username and password are required")
		return
	}

	result, err := h.authService.Login(services.LoginInput{
		Username: req.Username,
		Password: req.Password,
	}, middleware.ClientIP(c))
	if err != nil {
		apperrors.RespondError(c, err)
		return
	}

	respondOK(c, "Login successful", authPayload{
		User:   dto.ToUserDTO(*result.User),
		Tokens: result.Tokens,
	})
}

// Refresh exchanges a refresh token for a fresh access token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	type RefreshRequest struct {
		Refresh string `json:"refresh" binding:"required"`
	}

	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, "Refresh token is required")
		return
	}

	access, err := h.authService.Refresh(req.Refresh)
	if err != nil {
		apperrors.RespondError(c, err)
		return
	}

	respondOK(c, "Token refreshed", gin.H{"tokens": gin.H{"access": access}})
}

// Profile returns the authenticated user.
func (h *AuthHandler) Profile(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	respondOK(c, "Profile retrieved successfully", dto.ToUserDTO(*user))
}
