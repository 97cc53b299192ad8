package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/face-attendance-api/internal/dto"
	"github.com/noah-isme/face-attendance-api/internal/models"
)

type settingsRepoStub struct {
	saved map[string]*models.AdminSettings
}

func (r *settingsRepoStub) FindByAdmin(ctx context.Context, adminID string) (*models.AdminSettings, error) {
	if s, ok := r.saved[adminID]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (r *settingsRepoStub) Upsert(ctx context.Context, settings *models.AdminSettings) error {
	r.saved[settings.AdminID] = settings
	return nil
}

func TestSettingsServiceGetDefaults(t *testing.T) {
	svc := NewSettingsService(&settingsRepoStub{saved: map[string]*models.AdminSettings{}}, nil)
	settings, err := svc.Get(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultSettingsDocument(), settings.Preferences)

	_, err = svc.Get(context.Background(), " ")
	assert.Error(t, err)
}

func TestSettingsServiceUpdate(t *testing.T) {
	repo := &settingsRepoStub{saved: map[string]*models.AdminSettings{}}
	svc := NewSettingsService(repo, nil)

	_, err := svc.Update(context.Background(), "admin-1", dto.AdminSettingsRequest{
		Permissions:     models.Permissions{ManageUsers: true},
		SecurityOptions: models.SecurityOptions{TwoFactorAuth: true},
	})
	require.NoError(t, err)

	got, err := svc.Get(context.Background(), "admin-1")
	require.NoError(t, err)
	assert.True(t, got.Preferences.Permissions.ManageUsers)
	assert.True(t, got.Preferences.SecurityOptions.TwoFactorAuth)
	assert.Equal(t, models.DefaultSessionTimeout, got.Preferences.SecurityOptions.SessionTimeout)

	_, err = svc.Update(context.Background(), "admin-1", dto.AdminSettingsRequest{SecurityOptions: models.SecurityOptions{SessionTimeout: -1}})
	assert.Error(t, err)
}
