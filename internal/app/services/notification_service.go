package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/ecosphere/internal/app/models"
	"github.com/yigit/ecosphere/internal/app/models/dto"
	"github.com/yigit/ecosphere/internal/app/repositories"
	"github.com/yigit/ecosphere/internal/db"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"github.com/yigit/ecosphere/internal/pkg/websocket"
)

// MaxNotificationLength is the stored length limit of a notification message
const MaxNotificationLength = 255

// notificationTimeLayout formats created_at in real-time payloads
const notificationTimeLayout = "2006-01-02 15:04"

// NewNotification is the input of create_notification
type NewNotification struct {
	UserID  int64
	Message string
	Link    *string
	Type    string
	Icon    *string
}

// NotificationEvent is the payload published on new_notification
type NotificationEvent struct {
	ID        int64                   `json:"id"`
	Message   string                  `json:"message"`
	Link      *string                 `json:"link"`
	Type      models.NotificationType `json:"type"`
	Icon      *string                 `json:"icon"`
	CreatedAt string                  `json:"created_at"`
}

// NotificationService defines the interface for notification operations
type NotificationService interface {
	// Create persists a notification and publishes it once the surrounding
	// transaction commits. tx may be nil to write on the pool.
	Create(ctx context.Context, tx pgx.Tx, in NewNotification) (*models.Notification, error)
	List(ctx context.Context, actorID int64) (*dto.NotificationListResponse, error)
	MarkRead(ctx context.Context, notificationID, actorID int64) (*dto.MarkReadResponse, error)
	MarkAllRead(ctx context.Context, actorID int64) (int64, error)
}

// notificationServiceImpl implements NotificationService
type notificationServiceImpl struct {
	notificationRepo *repositories.NotificationRepository
	db               *db.PostgresDB
	publisher        Publisher
	logger           zerolog.Logger
}

// NewNotificationService creates a new NotificationService. publisher may be nil.
func NewNotificationService(
	notificationRepo *repositories.NotificationRepository,
	database *db.PostgresDB,
	publisher Publisher,
	logger zerolog.Logger,
) NotificationService {
	return &notificationServiceImpl{
		notificationRepo: notificationRepo,
		db:               database,
		publisher:        publisher,
		logger:           logger,
	}
}

// Create implements create_notification
func (s *notificationServiceImpl) Create(ctx context.Context, tx pgx.Tx, in NewNotification) (*models.Notification, error) {
	if in.UserID <= 0 {
		return nil, apperrors.NewValidationError("user_id", "notification recipient is required")
	}

	notificationType := models.ParseNotificationType(in.Type)
	icon := in.Icon
	if icon == nil || *icon == "" {
		def := notificationType.DefaultIcon()
		icon = &def
	}

	n := &models.Notification{
		UserID:  in.UserID,
		Message: truncate(in.Message, MaxNotificationLength),
		Link:    in.Link,
		Type:    notificationType,
		Icon:    icon,
	}

	repo := s.notificationRepo
	if tx != nil {
		repo = repo.WithTx(tx)
	}
	if err := repo.Create(ctx, n); err != nil {
		s.logger.Error().Err(err).Int64("userID", in.UserID).Msg("Failed to create notification")
		return nil, fmt.Errorf("error creating notification: %w", err)
	}

	db.AfterCommit(ctx, func() { s.publish(n) })
	return n, nil
}

// publish pushes n to its owner's room. Failures are logged only.
func (s *notificationServiceImpl) publish(n *models.Notification) {
	if s.publisher == nil {
		return
	}

	event := NotificationEvent{
		ID:        n.ID,
		Message:   n.Message,
		Link:      n.Link,
		Type:      n.Type,
		Icon:      n.Icon,
		CreatedAt: n.CreatedAt.Format(notificationTimeLayout),
	}
	if err := s.publisher.Publish(EventNewNotification, websocket.UserRoom(n.UserID), event); err != nil {
		s.logger.Warn().Err(err).
			Int64("notificationID", n.ID).
			Int64("userID", n.UserID).
			Msg("Failed to publish notification")
	}
}

// List returns the actor's notifications and unread count
func (s *notificationServiceImpl) List(ctx context.Context, actorID int64) (*dto.NotificationListResponse, error) {
	items, err := s.notificationRepo.ListByUser(ctx, actorID, 0)
	if err != nil {
		return nil, fmt.Errorf("error listing notifications: %w", err)
	}

	unread, err := s.notificationRepo.CountUnread(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("error counting notifications: %w", err)
	}

	return &dto.NotificationListResponse{Notifications: items, UnreadCount: unread}, nil
}

// MarkRead marks one of the actor's notifications as read and returns its link
func (s *notificationServiceImpl) MarkRead(ctx context.Context, notificationID, actorID int64) (*dto.MarkReadResponse, error) {
	n, err := s.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotificationNotFound) {
			return nil, apperrors.NewCustomError(err, "Notification not found")
		}
		return nil, fmt.Errorf("error getting notification: %w", err)
	}

	if n.UserID != actorID {
		s.logger.Warn().
			Int64("notificationID", notificationID).
			Int64("actorID", actorID).
			Msg("Attempt to read another user's notification")
		return nil, apperrors.NewForbiddenError("You cannot access this notification")
	}

	if !n.IsRead {
		if err := s.notificationRepo.MarkRead(ctx, n.ID); err != nil {
			return nil, fmt.Errorf("error marking notification read: %w", err)
		}
	}

	return &dto.MarkReadResponse{ID: n.ID, Link: n.Link}, nil
}

// MarkAllRead marks every unread notification of the actor in one transaction
func (s *notificationServiceImpl) MarkAllRead(ctx context.Context, actorID int64) (int64, error) {
	var updated int64
	err := s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var err error
		updated, err = s.notificationRepo.WithTx(tx).MarkAllRead(ctx, actorID)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Int64("userID", actorID).Msg("Failed to mark notifications read")
		return 0, fmt.Errorf("error marking notifications read: %w", err)
	}

	s.logger.Debug().Int64("userID", actorID).Int64("updated", updated).Msg("Marked all notifications read")
	return updated, nil
}
