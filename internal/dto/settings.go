package dto

import "github.com/noah-isme/face-attendance-api/internal/models"

// AdminSettingsRequest replaces an admin's preferences.
type AdminSettingsRequest struct {
	Permissions             models.Permissions             `json:"permissions"`
	NotificationPreferences models.NotificationPreferences `json:"notificationPreferences"`
	SecurityOptions         models.SecurityOptions         `json:"securityOptions"`
}
