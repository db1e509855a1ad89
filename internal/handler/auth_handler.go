package handler

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vcarvalho/energy-invoice-service/internal/domain"
	"github.com/vcarvalho/energy-invoice-service/internal/model"
	"github.com/vcarvalho/energy-invoice-service/internal/service"
)

// AuthHandler handles HTTP requests for authentication
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterPublicRoutes registers the unauthenticated routes
func (h *AuthHandler) RegisterPublicRoutes(router *gin.RouterGroup) {
	router.POST("/auth/register", h.Register)
	router.POST("/auth/login", h.Login)
}

// RegisterProtectedRoutes registers the authenticated routes
func (h *AuthHandler) RegisterProtectedRoutes(router *gin.RouterGroup) {
	router.GET("/users/me", h.Me)
}

// Register handles account registration
// @Summary Register a new account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.RegisterRequest true "Registration payload"
// @Success 201 {object} model.AuthResponse
// @Failure 400 {object} model.ErrorResponse "Invalid payload"
// @Failure 409 {object} model.ErrorResponse "Email already registered"
// @Router /v1/auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("", err.Error()))
		return
	}

	result, err := h.authService.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			respondConflict(c, err.Error())
			return
		}
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondCreated(c, toAuthResponse(result))
}

// Login handles a login attempt
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param request body model.LoginRequest true "Login payload"
// @Success 200 {object} model.AuthResponse
// @Failure 401 {object} model.ErrorResponse "Invalid credentials"
// @Router /v1/auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := bindJSON(c, &req); err != nil {
		respondBadRequest(c, ErrInvalidInput, newErrorDetail("", err.Error()))
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			respondUnauthorized(c, err.Error())
			return
		}
		respondInternalServerError(c, ErrInternalServer)
		return
	}

	respondOK(c, toAuthResponse(result))
}

// Me returns the authenticated user's profile
// @Summary Get the current user
// @Tags auth
// @Produce json
// @Success 200 {object} model.UserResponse
// @Failure 401 {object} model.ErrorResponse "Not authenticated"
// @Security BearerAuth
// @Router /v1/users/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID := c.GetString("userID")
	if userID == "" {
		respondUnauthorized(c, "Authentication required")
		return
	}

	user, err := h.authService.GetUserByID(c.Request.Context(), userID)
	if err != nil {
		respondUnauthorized(c, "Invalid user")
		return
	}

	respondOK(c, toUserResponse(user))
}

// toAuthResponse maps the service auth result to its API representation
func toAuthResponse(result *service.AuthResponse) model.AuthResponse {
	return model.AuthResponse{
		AccessToken: result.AccessToken,
		User:        toUserResponse(result.User),
	}
}

// toUserResponse maps a domain user to its API representation
func toUserResponse(user *domain.User) model.UserResponse {
	resp := model.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
	for _, company := range user.Companies {
		resp.Companies = append(resp.Companies, company.ID)
	}
	return resp
}
