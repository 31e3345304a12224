package models

import "time"

// Conversation is a 1:1 or group thread
type Conversation struct {
	ID        int64     `json:"id" db:"id"`
	Title     *string   `json:"title,omitempty" db:"title"`
	IsGroup   bool      `json:"isGroup" db:"is_group"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// Related entities
	Participants []*UserSummary `json:"participants,omitempty"`
	LastMessage  *Message       `json:"lastMessage,omitempty"`
	UnreadCount  int64          `json:"unreadCount"`
}

// HasParticipant reports whether userID takes part in the conversation
func (c *Conversation) HasParticipant(userID int64) bool {
	for _, p := range c.Participants {
		if p != nil && p.ID == userID {
			return true
		}
	}
	return false
}

// Message is a single message in a conversation. IsRead is one flag per
// message, shared by every recipient.
type Message struct {
	ID             int64     `json:"id" db:"id"`
	ConversationID int64     `json:"conversationId" db:"conversation_id"`
	SenderID       *int64    `json:"senderId,omitempty" db:"sender_id"`
	Content        string    `json:"content" db:"content"`
	IsRead         bool      `json:"isRead" db:"is_read"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`

	SenderUsername *string `json:"sender,omitempty"`
}
