package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/ecosphere/internal/app/models"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
)

// ConversationRepository handles conversations and their participants
type ConversationRepository struct {
	db DBTX
	sb squirrel.StatementBuilderType
}

// NewConversationRepository creates a new ConversationRepository
func NewConversationRepository(db DBTX) *ConversationRepository {
	return &ConversationRepository{db: db, sb: newBuilder()}
}

// WithTx returns a copy bound to tx
func (r *ConversationRepository) WithTx(tx pgx.Tx) *ConversationRepository {
	return &ConversationRepository{db: tx, sb: r.sb}
}

// LockPair takes a transaction-scoped advisory lock on the unordered pair
// {a, b}. It must run inside a transaction and is released on commit or rollback.
func (r *ConversationRepository) LockPair(ctx context.Context, a, b int64) error {
	if a > b {
		a, b = b, a
	}
	const query = `SELECT pg_advisory_xact_lock(hashtextextended('conversation:' || $1::bigint::text || ':' || $2::bigint::text, 0))`
	if _, err := r.db.Exec(ctx, query, a, b); err != nil {
		return fmt.Errorf("failed to lock conversation pair: %w", err)
	}
	return nil
}

// FindDirect returns the non-group conversation whose participants are exactly {a, b}
func (r *ConversationRepository) FindDirect(ctx context.Context, a, b int64) (*models.Conversation, error) {
	const query = `
		SELECT c.id
		FROM conversations c
		WHERE NOT c.is_group
			AND EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = c.id AND user_id = $1)
			AND EXISTS (SELECT 1 FROM conversation_participants WHERE conversation_id = c.id AND user_id = $2)
			AND (SELECT COUNT(*) FROM conversation_participants WHERE conversation_id = c.id) = 2
		ORDER BY c.id
		LIMIT 1`

	var id int64
	if err := r.db.QueryRow(ctx, query, a, b).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to look up conversation: %w", err)
	}
	return r.GetByID(ctx, id)
}

// Create inserts the conversation and its participants
func (r *ConversationRepository) Create(ctx context.Context, c *models.Conversation, participantIDs []int64) error {
	sql, args, err := r.sb.Insert("conversations").
		Columns("title", "is_group", "created_at").
		Values(c.Title, c.IsGroup, time.Now()).
		Suffix("RETURNING id, created_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build create conversation query: %w", err)
	}
	if err := r.db.QueryRow(ctx, sql, args...).Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	ins := r.sb.Insert("conversation_participants").Columns("conversation_id", "user_id")
	for _, uid := range participantIDs {
		ins = ins.Values(c.ID, uid)
	}
	sql, args, err = ins.Suffix("ON CONFLICT DO NOTHING").ToSql()
	if err != nil {
		return fmt.Errorf("failed to build add participants query: %w", err)
	}
	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("failed to add participants: %w", err)
	}
	return nil
}

// GetByID retrieves a conversation with its participants
func (r *ConversationRepository) GetByID(ctx context.Context, id int64) (*models.Conversation, error) {
	c := &models.Conversation{}
	err := r.db.QueryRow(ctx, `SELECT id, title, is_group, created_at FROM conversations WHERE id = $1`, id).
		Scan(&c.ID, &c.Title, &c.IsGroup, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	participants, err := r.participants(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	c.Participants = participants[id]
	return c, nil
}

// IsParticipant reports whether userID belongs to the conversation
func (r *ConversationRepository) IsParticipant(ctx context.Context, conversationID, userID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2)`,
		conversationID, userID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return ok, nil
}

// ListForUser returns the user's conversations with participants, last
// message and unread count, most recent activity first.
func (r *ConversationRepository) ListForUser(ctx context.Context, userID int64) ([]*models.Conversation, error) {
	const query = `
		SELECT c.id, c.title, c.is_group, c.created_at,
			(SELECT COUNT(*) FROM messages m
				WHERE m.conversation_id = c.id AND NOT m.is_read AND m.sender_id IS DISTINCT FROM $1),
			lm.id, lm.sender_id, lm.content, lm.is_read, lm.created_at, su.username
		FROM conversations c
		JOIN conversation_participants cp ON cp.conversation_id = c.id AND cp.user_id = $1
		LEFT JOIN LATERAL (
			SELECT id, sender_id, content, is_read, created_at
			FROM messages
			WHERE conversation_id = c.id
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) lm ON TRUE
		LEFT JOIN users su ON su.id = lm.sender_id
		ORDER BY COALESCE(lm.created_at, c.created_at) DESC, c.id DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	conversations := []*models.Conversation{}
	ids := []int64{}
	for rows.Next() {
		c := &models.Conversation{}
		var (
			msgID      *int64
			senderID   *int64
			content    *string
			isRead     *bool
			sentAt     *time.Time
			senderName *string
		)
		if err := rows.Scan(&c.ID, &c.Title, &c.IsGroup, &c.CreatedAt, &c.UnreadCount,
			&msgID, &senderID, &content, &isRead, &sentAt, &senderName); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		if msgID != nil {
			c.LastMessage = &models.Message{
				ID:             *msgID,
				ConversationID: c.ID,
				SenderID:       senderID,
				Content:        *content,
				IsRead:         *isRead,
				CreatedAt:      *sentAt,
				SenderUsername: senderName,
			}
		}
		conversations = append(conversations, c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	participants, err := r.participants(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, c := range conversations {
		c.Participants = participants[c.ID]
	}
	return conversations, nil
}

// participants loads participant summaries for several conversations at once
func (r *ConversationRepository) participants(ctx context.Context, ids []int64) (map[int64][]*models.UserSummary, error) {
	result := make(map[int64][]*models.UserSummary, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	sql, args, err := r.sb.Select("cp.conversation_id", "u.id", "u.username", "u.role", "u.avatar_filename").
		From("conversation_participants cp").
		Join("users u ON u.id = cp.user_id").
		Where(squirrel.Eq{"cp.conversation_id": ids}).
		OrderBy("u.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build participants query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load participants: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var convID int64
		u := &models.UserSummary{}
		if err := rows.Scan(&convID, &u.ID, &u.Username, &u.Role, &u.AvatarFilename); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		result[convID] = append(result[convID], u)
	}
	return result, rows.Err()
}
