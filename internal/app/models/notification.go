package models

import (
	"strings"
	"time"
)

// NotificationType is the closed set of notification kinds
type NotificationType string

const (
	NotificationInfo    NotificationType = "info"
	NotificationSuccess NotificationType = "success"
	NotificationWarning NotificationType = "warning"
	NotificationAlert   NotificationType = "alert"
	NotificationMessage NotificationType = "message"
)

// IsValid reports whether t is a known notification type
func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationInfo, NotificationSuccess, NotificationWarning, NotificationAlert, NotificationMessage:
		return true
	}
	return false
}

// ParseNotificationType maps a free-form string onto the closed set, falling back to info
func ParseNotificationType(s string) NotificationType {
	t := NotificationType(strings.ToLower(strings.TrimSpace(s)))
	if t.IsValid() {
		return t
	}
	return NotificationInfo
}

// DefaultIcon returns the icon class shown for the type when none is given
func (t NotificationType) DefaultIcon() string {
	switch t {
	case NotificationSuccess:
		return "fa-circle-check"
	case NotificationWarning:
		return "fa-triangle-exclamation"
	case NotificationAlert:
		return "fa-bell"
	case NotificationMessage:
		return "fa-envelope"
	default:
		return "fa-circle-info"
	}
}

// Notification is a per-user event log entry
type Notification struct {
	ID        int64            `json:"id" db:"id"`
	UserID    int64            `json:"userId" db:"user_id"`
	Message   string           `json:"message" db:"message"`
	Link      *string          `json:"link,omitempty" db:"link"`
	Type      NotificationType `json:"type" db:"type"`
	IsRead    bool             `json:"isRead" db:"is_read"`
	Icon      *string          `json:"icon,omitempty" db:"icon"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}
