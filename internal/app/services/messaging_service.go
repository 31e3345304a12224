package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/ecosphere/internal/app/models"
	"github.com/yigit/ecosphere/internal/app/models/dto"
	"github.com/yigit/ecosphere/internal/app/repositories"
	"github.com/yigit/ecosphere/internal/db"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"github.com/yigit/ecosphere/internal/pkg/websocket"
)

// MessageEvent is the payload published on new_message
type MessageEvent struct {
	ID             int64   `json:"id"`
	ConversationID int64   `json:"conversation_id"`
	SenderID       *int64  `json:"sender_id"`
	Sender         *string `json:"sender"`
	Content        string  `json:"content"`
	CreatedAt      string  `json:"created_at"`
}

// MessagingService defines the interface for direct messaging
type MessagingService interface {
	ListConversations(ctx context.Context, actorID int64) ([]*models.Conversation, error)
	FindOrCreateConversation(ctx context.Context, actorID, otherUserID int64) (*models.Conversation, error)
	SendMessage(ctx context.Context, conversationID, senderID int64, content string) (*models.Message, error)
	ViewConversation(ctx context.Context, conversationID, actorID int64) (*dto.ConversationDetailResponse, error)
}

// messagingServiceImpl implements MessagingService
type messagingServiceImpl struct {
	conversationRepo *repositories.ConversationRepository
	messageRepo      *repositories.MessageRepository
	userRepo         *repositories.UserRepository
	db               *db.PostgresDB
	publisher        Publisher
	logger           zerolog.Logger
}

// NewMessagingService creates a new MessagingService. publisher may be nil.
func NewMessagingService(
	conversationRepo *repositories.ConversationRepository,
	messageRepo *repositories.MessageRepository,
	userRepo *repositories.UserRepository,
	database *db.PostgresDB,
	publisher Publisher,
	logger zerolog.Logger,
) MessagingService {
	return &messagingServiceImpl{
		conversationRepo: conversationRepo,
		messageRepo:      messageRepo,
		userRepo:         userRepo,
		db:               database,
		publisher:        publisher,
		logger:           logger,
	}
}

// ListConversations returns the actor's conversations, latest activity first
func (s *messagingServiceImpl) ListConversations(ctx context.Context, actorID int64) ([]*models.Conversation, error) {
	conversations, err := s.conversationRepo.ListForUser(ctx, actorID)
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", actorID).Msg("Failed to list conversations")
		return nil, fmt.Errorf("error listing conversations: %w", err)
	}
	return conversations, nil
}

// FindOrCreateConversation returns the direct conversation between the actor
// and otherUserID, creating it on first contact.
func (s *messagingServiceImpl) FindOrCreateConversation(ctx context.Context, actorID, otherUserID int64) (*models.Conversation, error) {
	if actorID == otherUserID {
		return nil, apperrors.NewValidationError("user_id", "You cannot start a conversation with yourself")
	}

	other, err := s.userRepo.GetByID(ctx, otherUserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.NewCustomError(err, "User not found")
		}
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if other.IsDeleted {
		return nil, apperrors.NewCustomError(apperrors.ErrUserNotFound, "User not found")
	}

	var conversation *models.Conversation
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		repo := s.conversationRepo.WithTx(tx)

		// serialize first contact between the same two users
		if err := repo.LockPair(ctx, actorID, otherUserID); err != nil {
			return err
		}

		existing, err := repo.FindDirect(ctx, actorID, otherUserID)
		if err == nil {
			conversation = existing
			return nil
		}
		if !errors.Is(err, apperrors.ErrConversationNotFound) {
			return err
		}

		created := &models.Conversation{}
		if err := repo.Create(ctx, created, []int64{actorID, otherUserID}); err != nil {
			return err
		}
		conversation, err = repo.GetByID(ctx, created.ID)
		if err == nil {
			s.logger.Info().
				Int64("conversationID", created.ID).
				Int64("userID", actorID).
				Int64("otherUserID", otherUserID).
				Msg("Conversation created")
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error finding conversation: %w", err)
	}
	return conversation, nil
}

// participantConversation loads the conversation and checks that userID takes part in it
func (s *messagingServiceImpl) participantConversation(ctx context.Context, conversationID, userID int64) (*models.Conversation, error) {
	conversation, err := s.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrConversationNotFound) {
			return nil, apperrors.NewCustomError(err, "Conversation not found")
		}
		return nil, fmt.Errorf("error getting conversation: %w", err)
	}

	if !conversation.HasParticipant(userID) {
		s.logger.Warn().
			Int64("conversationID", conversationID).
			Int64("userID", userID).
			Msg("Non-participant tried to access conversation")
		return nil, apperrors.NewCustomError(apperrors.ErrNotParticipant, "You are not a participant of this conversation")
	}
	return conversation, nil
}

// SendMessage appends a message and pushes it to the other participants after commit
func (s *messagingServiceImpl) SendMessage(ctx context.Context, conversationID, senderID int64, content string) (*models.Message, error) {
	conversation, err := s.participantConversation(ctx, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperrors.NewValidationError("content", "Message cannot be empty")
	}

	message := &models.Message{
		ConversationID: conversation.ID,
		SenderID:       &senderID,
		Content:        content,
	}
	for _, p := range conversation.Participants {
		if p.ID == senderID {
			name := p.Username
			message.SenderUsername = &name
		}
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		if err := s.messageRepo.WithTx(tx).Create(ctx, message); err != nil {
			return err
		}
		db.AfterCommit(ctx, func() { s.publishMessage(conversation, message) })
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("conversationID", conversationID).Msg("Failed to send message")
		return nil, fmt.Errorf("error sending message: %w", err)
	}
	return message, nil
}

// publishMessage pushes new_message to every participant except the sender
func (s *messagingServiceImpl) publishMessage(conversation *models.Conversation, message *models.Message) {
	if s.publisher == nil {
		return
	}

	event := MessageEvent{
		ID:             message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Sender:         message.SenderUsername,
		Content:        message.Content,
		CreatedAt:      message.CreatedAt.Format(notificationTimeLayout),
	}
	for _, p := range conversation.Participants {
		if message.SenderID != nil && p.ID == *message.SenderID {
			continue
		}
		if err := s.publisher.Publish(EventNewMessage, websocket.UserRoom(p.ID), event); err != nil {
			s.logger.Warn().Err(err).
				Int64("messageID", message.ID).
				Int64("userID", p.ID).
				Msg("Failed to publish message")
		}
	}
}

// ViewConversation marks the messages sent to the actor as read and returns the thread
func (s *messagingServiceImpl) ViewConversation(ctx context.Context, conversationID, actorID int64) (*dto.ConversationDetailResponse, error) {
	conversation, err := s.participantConversation(ctx, conversationID, actorID)
	if err != nil {
		return nil, err
	}

	var messages []*models.Message
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		repo := s.messageRepo.WithTx(tx)
		if _, err := repo.MarkReadFor(ctx, conversation.ID, actorID); err != nil {
			return err
		}
		var err error
		messages, err = repo.ListByConversation(ctx, conversation.ID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("error reading conversation: %w", err)
	}

	return &dto.ConversationDetailResponse{Conversation: conversation, Messages: messages}, nil
}
