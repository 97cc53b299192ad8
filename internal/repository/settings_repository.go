package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/face-attendance-api/internal/models"
)

// SettingsRepository stores per-admin settings.
type SettingsRepository struct {
	db *sqlx.DB
}

// NewSettingsRepository constructs the repository.
func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// FindByAdmin returns the admin's settings or sql.ErrNoRows.
func (r *SettingsRepository) FindByAdmin(ctx context.Context, adminID string) (*models.AdminSettings, error) {
	const query = `SELECT id, admin_id, preferences, last_updated FROM admin_settings WHERE admin_id = $1`
	var settings models.AdminSettings
	if err := r.db.GetContext(ctx, &settings, query, adminID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find admin settings: %w", err)
	}
	return &settings, nil
}

// Upsert creates or replaces the admin's settings.
func (r *SettingsRepository) Upsert(ctx context.Context, settings *models.AdminSettings) error {
	if settings.ID == "" {
		settings.ID = uuid.NewString()
	}
	const query = `INSERT INTO admin_settings (id, admin_id, preferences, last_updated)
        VALUES (:id, :admin_id, :preferences, :last_updated)
        ON CONFLICT (admin_id) DO UPDATE SET preferences = EXCLUDED.preferences, last_updated = EXCLUDED.last_updated`
	if _, err := r.db.NamedExecContext(ctx, query, settings); err != nil {
		return fmt.Errorf("upsert admin settings: %w", err)
	}
	return nil
}
