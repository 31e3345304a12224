package dto

import "github.com/yigit/ecosphere/internal/app/models"

// SendMessageRequest is the body of send_message
type SendMessageRequest struct {
	Content string `json:"content" form:"content" binding:"required"`
}

// ConversationDetailResponse is a conversation with its messages
type ConversationDetailResponse struct {
	Conversation *models.Conversation `json:"conversation"`
	Messages     []*models.Message    `json:"messages"`
}
