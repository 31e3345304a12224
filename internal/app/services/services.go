// Package services holds the business operations of EcoSphere. Every
// operation receives the acting user explicitly; nothing is read from an
// ambient request context.
package services

import (
	"strings"
	"unicode/utf8"
)

// Real-time event names
const (
	EventNewNotification = "new_notification"
	EventNewMessage      = "new_message"
)

// Publisher pushes an event to a room of connected clients. Delivery is
// best-effort; an error means the event was dropped.
type Publisher interface {
	Publish(event, room string, payload any) error
}

// truncate cuts s to at most max runes
func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max])
}

// optional returns nil for blank strings and a pointer to the trimmed value otherwise
func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
