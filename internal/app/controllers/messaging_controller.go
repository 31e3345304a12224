package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/ecosphere/internal/app/models/dto"
	"github.com/yigit/ecosphere/internal/app/services"
	"github.com/yigit/ecosphere/internal/middleware"
)

// MessagingController handles conversations and messages
type MessagingController struct {
	messagingService services.MessagingService
	logger           zerolog.Logger
}

// NewMessagingController creates a new MessagingController
func NewMessagingController(messagingService services.MessagingService, logger zerolog.Logger) *MessagingController {
	return &MessagingController{
		messagingService: messagingService,
		logger:           logger,
	}
}

// ListConversations godoc
// @Summary List conversations
// @Description Conversations of the caller with participants, last message and unread count, newest activity first
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Conversation}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /messages [get]
func (c *MessagingController) ListConversations(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, errUnauthenticated)
		return
	}

	conversations, err := c.messagingService.ListConversations(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(conversations, ""))
}

// ViewConversation godoc
// @Summary View a conversation
// @Description Returns the messages of a conversation and marks the ones sent by others as read
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Success 200 {object} dto.APIResponse{data=dto.ConversationDetailResponse}
// @Failure 403 {object} dto.APIResponse "Not a participant"
// @Failure 404 {object} dto.APIResponse "Conversation not found"
// @Router /messages/{id} [get]
func (c *MessagingController) ViewConversation(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, errUnauthenticated)
		return
	}
	conversationID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	detail, err := c.messagingService.ViewConversation(ctx.Request.Context(), conversationID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(detail, ""))
}

// SendMessage godoc
// @Summary Send a message
// @Description Appends a message to the conversation and returns the updated conversation
// @Tags messages
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Conversation ID"
// @Param request body dto.SendMessageRequest true "Message"
// @Success 201 {object} dto.APIResponse{data=dto.ConversationDetailResponse}
// @Failure 400 {object} dto.APIResponse "Empty message"
// @Failure 403 {object} dto.APIResponse "Not a participant"
// @Failure 404 {object} dto.APIResponse "Conversation not found"
// @Router /messages/{id} [post]
func (c *MessagingController) SendMessage(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, errUnauthenticated)
		return
	}
	conversationID, ok := idParam(ctx, "id")
	if !ok {
		return
	}

	var req dto.SendMessageRequest
	if !middleware.Bind(ctx, &req) {
		return
	}

	message, err := c.messagingService.SendMessage(ctx.Request.Context(), conversationID, userID, req.Content)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	c.logger.Debug().Int64("messageID", message.ID).Int64("conversationID", conversationID).Msg("Message sent")

	detail, err := c.messagingService.ViewConversation(ctx.Request.Context(), conversationID, userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(detail, "Message sent"))
}

// NewConversation godoc
// @Summary Start a conversation
// @Description Returns the direct conversation between the caller and the user, creating it when missing
// @Tags messages
// @Produce json
// @Security BearerAuth
// @Param user_id path int true "Other user's ID"
// @Success 200 {object} dto.APIResponse{data=models.Conversation}
// @Failure 400 {object} dto.APIResponse "Cannot message yourself"
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /messages/new/{user_id} [get]
// @Router /messages/new/{user_id} [post]
func (c *MessagingController) NewConversation(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, errUnauthenticated)
		return
	}
	otherID, ok := idParam(ctx, "user_id")
	if !ok {
		return
	}

	conversation, err := c.messagingService.FindOrCreateConversation(ctx.Request.Context(), userID, otherID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(conversation, ""))
}
