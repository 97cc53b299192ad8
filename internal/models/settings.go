package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultSessionTimeout is applied when settings omit a timeout, in minutes.
const DefaultSessionTimeout = 30

// AdminSettings are per-admin dashboard preferences.
type AdminSettings struct {
	ID          string           `db:"id" json:"id"`
	AdminID     string           `db:"admin_id" json:"admin_id"`
	Preferences SettingsDocument `db:"preferences" json:"preferences"`
	LastUpdated time.Time        `db:"last_updated" json:"last_updated"`
}

// SettingsDocument is stored as JSONB.
type SettingsDocument struct {
	Permissions             Permissions             `json:"permissions"`
	NotificationPreferences NotificationPreferences `json:"notification_preferences"`
	SecurityOptions         SecurityOptions         `json:"security_options"`
}

type Permissions struct {
	ManageUsers  bool `json:"manage_users"`
	ViewReports  bool `json:"view_reports"`
	EditSettings bool `json:"edit_settings"`
}

type NotificationPreferences struct {
	EmailNotifications bool `json:"email_notifications"`
	SMSNotifications   bool `json:"sms_notifications"`
}

type SecurityOptions struct {
	TwoFactorAuth  bool `json:"two_factor_auth"`
	SessionTimeout int  `json:"session_timeout"`
}

// DefaultSettingsDocument mirrors the values a fresh admin starts with.
func DefaultSettingsDocument() SettingsDocument {
	return SettingsDocument{
		Permissions:             Permissions{ViewReports: true},
		NotificationPreferences: NotificationPreferences{EmailNotifications: true},
		SecurityOptions:         SecurityOptions{SessionTimeout: DefaultSessionTimeout},
	}
}

// Value marshals the document into JSONB.
func (d SettingsDocument) Value() (driver.Value, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshal settings: %w", err)
	}
	return data, nil
}

// Scan reads JSONB settings.
func (d *SettingsDocument) Scan(value interface{}) error {
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("scan settings: %w", err)
	}
	if len(data) == 0 {
		*d = DefaultSettingsDocument()
		return nil
	}
	return json.Unmarshal(data, d)
}
