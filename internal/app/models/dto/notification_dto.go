package dto

import "github.com/yigit/ecosphere/internal/app/models"

// NotificationListResponse holds the actor's notifications
type NotificationListResponse struct {
	Notifications []*models.Notification `json:"notifications"`
	UnreadCount   int64                  `json:"unreadCount"`
}

// MarkReadResponse carries the link to follow after reading a notification
type MarkReadResponse struct {
	ID   int64   `json:"id"`
	Link *string `json:"link"`
}

// MarkAllReadResponse reports how many notifications changed
type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}
