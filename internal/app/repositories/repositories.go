package repositories

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx so every repository can run
// either on the pool or inside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func newBuilder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository              *UserRepository
	TokenRepository             *TokenRepository
	VerificationTokenRepository *VerificationTokenRepository
	CategoryRepository          *CategoryRepository
	ListingRepository           *ListingRepository
	WishlistRepository          *WishlistRepository
	PostRepository              *PostRepository
	CommentRepository           *CommentRepository
	UpvoteRepository            *UpvoteRepository
	ConversationRepository      *ConversationRepository
	MessageRepository           *MessageRepository
	NotificationRepository      *NotificationRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db DBTX) *Repositories {
	return &Repositories{
		UserRepository:              NewUserRepository(db),
		TokenRepository:             NewTokenRepository(db),
		VerificationTokenRepository: NewVerificationTokenRepository(db),
		CategoryRepository:          NewCategoryRepository(db),
		ListingRepository:           NewListingRepository(db),
		WishlistRepository:          NewWishlistRepository(db),
		PostRepository:              NewPostRepository(db),
		CommentRepository:           NewCommentRepository(db),
		UpvoteRepository:            NewUpvoteRepository(db),
		ConversationRepository:      NewConversationRepository(db),
		MessageRepository:           NewMessageRepository(db),
		NotificationRepository:      NewNotificationRepository(db),
	}
}
