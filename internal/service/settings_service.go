package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/face-attendance-api/internal/dto"
	"github.com/noah-isme/face-attendance-api/internal/models"
	appErrors "github.com/noah-isme/face-attendance-api/pkg/errors"
)

type settingsRepository interface {
	FindByAdmin(ctx context.Context, adminID string) (*models.AdminSettings, error)
	Upsert(ctx context.Context, settings *models.AdminSettings) error
}

// SettingsService reads and replaces per-admin preferences.
type SettingsService struct {
	repo   settingsRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewSettingsService constructs the service.
func NewSettingsService(repo settingsRepository, logger *zap.Logger) *SettingsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsService{repo: repo, logger: logger, now: time.Now}
}

// Get returns the admin's settings, or defaults when none were saved.
func (s *SettingsService) Get(ctx context.Context, adminID string) (*models.AdminSettings, error) {
	adminID = strings.TrimSpace(adminID)
	if adminID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "adminId is required")
	}
	settings, err := s.repo.FindByAdmin(ctx, adminID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &models.AdminSettings{AdminID: adminID, Preferences: models.DefaultSettingsDocument()}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch settings")
	}
	return settings, nil
}

// Update replaces the admin's settings. A missing session timeout falls back to the default.
func (s *SettingsService) Update(ctx context.Context, adminID string, req dto.AdminSettingsRequest) (*models.AdminSettings, error) {
	adminID = strings.TrimSpace(adminID)
	if adminID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "adminId is required")
	}
	if req.SecurityOptions.SessionTimeout < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "sessionTimeout must not be negative")
	}
	if req.SecurityOptions.SessionTimeout == 0 {
		req.SecurityOptions.SessionTimeout = models.DefaultSessionTimeout
	}
	settings := &models.AdminSettings{
		AdminID: adminID,
		Preferences: models.SettingsDocument{
			Permissions:             req.Permissions,
			NotificationPreferences: req.NotificationPreferences,
			SecurityOptions:         req.SecurityOptions,
		},
		LastUpdated: s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, settings); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save settings")
	}
	return settings, nil
}
