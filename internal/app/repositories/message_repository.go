package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/ecosphere/internal/app/models"
)

// MessageRepository handles conversation messages
type MessageRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db DBTX) *MessageRepository {
	return &MessageRepository{db: db, sb: newBuilder()}
}

// WithTx returns a copy bound to tx
func (r *MessageRepository) WithTx(tx pgx.Tx) *MessageRepository {
	return &MessageRepository{db: tx, sb: r.sb}
}

// Create appends an unread message
func (r *MessageRepository) Create(ctx context.Context, m *models.Message) error {
	sql, args, err := r.sb.Insert("messages").
		Columns("conversation_id", "sender_id", "content", "is_read", "created_at").
		Values(m.ConversationID, m.SenderID, m.Content, false, time.Now()).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create message query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	m.IsRead = false
	return nil
}

func (r *MessageRepository) query(ctx context.Context, q squirrel.SelectBuilder) ([]*models.Message, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build messages query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	messages := []*models.Message{}
	for rows.Next() {
		m := &models.Message{}
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.SenderID, &m.Content, &m.IsRead, &m.CreatedAt, &m.SenderUsername); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *MessageRepository) baseSelect() squirrel.SelectBuilder {
	return r.sb.Select("m.id", "m.conversation_id", "m.sender_id", "m.content", "m.is_read", "m.created_at", "u.username").
		From("messages m").
		LeftJoin("users u ON u.id = m.sender_id")
}

// ListByConversation returns a conversation's messages oldest first
func (r *MessageRepository) ListByConversation(ctx context.Context, conversationID int64) ([]*models.Message, error) {
	return r.query(ctx, r.baseSelect().
		Where(squirrel.Eq{"m.conversation_id": conversationID}).
		OrderBy("m.created_at ASC", "m.id ASC"))
}

// MarkReadFor marks every unread message not sent by readerID as read
func (r *MessageRepository) MarkReadFor(ctx context.Context, conversationID, readerID int64) (int64, error) {
	tag, err := r.db.Exec(ctx,
		`UPDATE messages SET is_read = TRUE
		WHERE conversation_id = $1 AND NOT is_read AND sender_id IS DISTINCT FROM $2`,
		conversationID, readerID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// CountUnreadForUser counts unread messages sent to userID across their conversations
func (r *MessageRepository) CountUnreadForUser(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM messages m
		JOIN conversation_participants cp ON cp.conversation_id = m.conversation_id AND cp.user_id = $1
		WHERE NOT m.is_read AND m.sender_id IS DISTINCT FROM $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread messages: %w", err)
	}
	return n, nil
}

// RecentForUser returns the latest messages userID received
func (r *MessageRepository) RecentForUser(ctx context.Context, userID int64, limit int) ([]*models.Message, error) {
	return r.query(ctx, r.baseSelect().
		Join("conversation_participants cp ON cp.conversation_id = m.conversation_id").
		Where(squirrel.Eq{"cp.user_id": userID}).
		Where(squirrel.Expr("m.sender_id IS DISTINCT FROM ?", userID)).
		OrderBy("m.created_at DESC", "m.id DESC").
		Limit(uint64(limit)))
}

// CountByConversation counts a conversation's messages
func (r *MessageRepository) CountByConversation(ctx context.Context, conversationID int64) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM messages WHERE conversation_id = $1`, conversationID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}
