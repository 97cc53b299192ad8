package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/face-attendance-api/internal/dto"
	"github.com/noah-isme/face-attendance-api/internal/models"
	"github.com/noah-isme/face-attendance-api/pkg/response"
)

type settingsService interface {
	Get(ctx context.Context, adminID string) (*models.AdminSettings, error)
	Update(ctx context.Context, adminID string, req dto.AdminSettingsRequest) (*models.AdminSettings, error)
}

// SettingsHandler exposes per-admin preferences.
type SettingsHandler struct {
	service settingsService
}

// NewSettingsHandler constructs a settings handler.
func NewSettingsHandler(svc settingsService) *SettingsHandler {
	return &SettingsHandler{service: svc}
}

// Get godoc
// @Summary Admin settings
// @Tags Settings
// @Produce json
// @Param adminId path string true "Admin ID"
// @Success 200 {object} response.Envelope
// @Router /settings/admin/{adminId} [get]
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.service.Get(c.Request.Context(), c.Param("adminId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// Update godoc
// @Summary Replace admin settings
// @Tags Settings
// @Accept json
// @Produce json
// @Param adminId path string true "Admin ID"
// @Param payload body dto.AdminSettingsRequest true "Settings"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /settings/admin/{adminId} [put]
func (h *SettingsHandler) Update(c *gin.Context) {
	var req dto.AdminSettingsRequest
	if err := bindJSON(c, &req, "invalid settings payload"); err != nil {
		response.Error(c, err)
		return
	}
	settings, err := h.service.Update(c.Request.Context(), c.Param("adminId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}
