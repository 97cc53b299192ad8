package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/face-attendance-api/internal/models"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
	"github.com/noah-isme/face-attendance-api/pkg/response"
)

type authService interface {
	Signup(ctx context.Context, req models.SignupRequest) (*models.UserInfo, error)
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error)
	Logout(ctx context.Context, claims *models.JWTClaims) error
}

// AuthHandler wires HTTP endpoints to the auth service.
type AuthHandler struct {
	service authService
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(svc authService) *AuthHandler {
	return &AuthHandler{service: svc}
}

// Signup godoc
// @Summary Create an administrator account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.SignupRequest true "Signup payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /signup [post]
func (h *AuthHandler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := bindJSON(c, &req, "invalid signup payload"); err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.service.Signup(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, user)
}

// Login godoc
// @Summary Authenticate user
// @Description Authenticate user by email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param payload body models.LoginRequest true "Login payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := bindJSON(c, &req, "invalid login payload"); err != nil {
		response.Error(c, err)
		return
	}

	res, err := h.service.Login(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// Logout godoc
// @Summary Logout current session
// @Description Records the logout time and revokes the presented token
// @Tags Authentication
// @Produce json
// @Success 204 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.service.Logout(c.Request.Context(), claims); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
