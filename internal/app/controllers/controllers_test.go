package controllers

import (
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/ecosphere/internal/app/models"
	"github.com/yigit/ecosphere/internal/app/models/dto"
	"github.com/yigit/ecosphere/internal/app/services"
	"github.com/yigit/ecosphere/internal/middleware"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"github.com/yigit/ecosphere/internal/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := validation.RegisterCustomValidators(); err != nil {
		panic(err)
	}
}

// asUser injects an authenticated user the way JWTAuth does
func asUser(id int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, id)
		c.Next()
	}
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"error"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

// --- community ---

type fakeCommunityService struct {
	upvotes     map[int64]bool
	comments    int64
	lastActor   *int64
	lastComment *dto.CommentRequest
}

func (f *fakeCommunityService) ListPosts(ctx context.Context, tag string, page, size int) (*dto.PostListResponse, error) {
	return &dto.PostListResponse{Posts: []*models.Post{{ID: 1, Title: "Reuse PET", Slug: "reuse-pet-a1b2c3"}}}, nil
}

func (f *fakeCommunityService) CreatePost(ctx context.Context, authorID int64, req *dto.CreatePostRequest, image *multipart.FileHeader) (*models.Post, error) {
	return &models.Post{ID: 9, Title: req.Title, Slug: "x-000000"}, nil
}

func (f *fakeCommunityService) ViewPost(ctx context.Context, slug string, actorID *int64) (*dto.PostDetailResponse, error) {
	f.lastActor = actorID
	if slug != "known" {
		return nil, apperrors.ErrPostNotFound
	}
	return &dto.PostDetailResponse{Post: &models.Post{ID: 1, Slug: slug}}, nil
}

func (f *fakeCommunityService) ToggleUpvote(ctx context.Context, postID, actorID int64) (*dto.UpvoteResponse, error) {
	if postID == 404 {
		return nil, apperrors.ErrPostNotFound
	}
	action := "added"
	total := int64(1)
	if f.upvotes[postID] {
		action, total = "removed", 0
	}
	f.upvotes[postID] = !f.upvotes[postID]
	return &dto.UpvoteResponse{Status: "success", Action: action, TotalUpvotes: total}, nil
}

func (f *fakeCommunityService) PostComment(ctx context.Context, slug string, actorID int64, req *dto.CommentRequest) (*dto.CommentResponse, error) {
	f.lastComment = req
	if strings.TrimSpace(req.Content) == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrEmptyComment, "Comment cannot be empty").WithField("content")
	}
	f.comments++
	return &dto.CommentResponse{
		Status:        "success",
		Comment:       dto.CommentPayload{ID: 5, Author: "amina", Content: strings.TrimSpace(req.Content), ParentID: req.ParentID},
		TotalComments: f.comments,
	}, nil
}

func communityRouter(svc *fakeCommunityService, userID int64) *gin.Engine {
	ctrl := NewCommunityController(svc, zerolog.Nop())
	r := gin.New()
	r.GET("/community/:slug", ctrl.ViewPost)
	r.GET("/community", ctrl.ListPosts)
	auth := r.Group("", asUser(userID))
	auth.POST("/community/upvote/:id", ctrl.ToggleUpvote)
	auth.POST("/community/comment/:slug", ctrl.PostComment)
	return r
}

func TestToggleUpvote_LegacyShape(t *testing.T) {
	svc := &fakeCommunityService{upvotes: map[int64]bool{}}
	r := communityRouter(svc, 2)

	w := serve(r, http.MethodPost, "/community/upvote/7", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"success","action":"added","total_upvotes":1}`, w.Body.String())

	w = serve(r, http.MethodPost, "/community/upvote/7", "")
	assert.JSONEq(t, `{"status":"success","action":"removed","total_upvotes":0}`, w.Body.String())
}

func TestToggleUpvote_Errors(t *testing.T) {
	r := communityRouter(&fakeCommunityService{upvotes: map[int64]bool{}}, 2)

	w := serve(r, http.MethodPost, "/community/upvote/abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Invalid post ID"}`, w.Body.String())

	w = serve(r, http.MethodPost, "/community/upvote/404", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Post not found"}`, w.Body.String())
}

func TestPostComment(t *testing.T) {
	svc := &fakeCommunityService{upvotes: map[int64]bool{}}
	r := communityRouter(svc, 2)

	w := serve(r, http.MethodPost, "/community/comment/known", `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"status":"error","message":"Comment cannot be empty"}`, w.Body.String())

	w = serve(r, http.MethodPost, "/community/comment/known", `{"content":" Great idea ","parent_id":3}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"status":"success","comment":{"id":5,"author":"amina","content":"Great idea","parent_id":3},"total_comments":1}`,
		w.Body.String())
	require.NotNil(t, svc.lastComment.ParentID)
	assert.Equal(t, int64(3), *svc.lastComment.ParentID)
}

func TestPostComment_EmptyParentFormField(t *testing.T) {
	svc := &fakeCommunityService{upvotes: map[int64]bool{}}
	r := communityRouter(svc, 2)

	req := httptest.NewRequest(http.MethodPost, "/community/comment/known", strings.NewReader("content=hi&parent_id="))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"status":"success","comment":{"id":5,"author":"amina","content":"hi","parent_id":null},"total_comments":1}`,
		w.Body.String())
	require.NotNil(t, svc.lastComment)
	assert.Nil(t, svc.lastComment.ParentID)
}

func TestViewPost_OptionalActor(t *testing.T) {
	svc := &fakeCommunityService{}
	r := communityRouter(svc, 2)

	w := serve(r, http.MethodGet, "/community/known", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, svc.lastActor)

	w = serve(r, http.MethodGet, "/community/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	env := decodeEnvelope(t, w)
	assert.False(t, env.Success)
	assert.Equal(t, string(dto.ErrorCodeResourceNotFound), env.Error.Code)
}

// --- notifications ---

type fakeNotificationService struct {
	owner int64
	link  string
}

func (f *fakeNotificationService) Create(ctx context.Context, tx pgx.Tx, in services.NewNotification) (*models.Notification, error) {
	return nil, nil
}

func (f *fakeNotificationService) List(ctx context.Context, actorID int64) (*dto.NotificationListResponse, error) {
	return &dto.NotificationListResponse{UnreadCount: 2}, nil
}

func (f *fakeNotificationService) MarkRead(ctx context.Context, id, actorID int64) (*dto.MarkReadResponse, error) {
	if id != 1 {
		return nil, apperrors.NewCustomError(apperrors.ErrNotificationNotFound, "Notification not found")
	}
	if actorID != f.owner {
		return nil, apperrors.NewForbiddenError("Not your notification")
	}
	return &dto.MarkReadResponse{ID: id, Link: &f.link}, nil
}

func (f *fakeNotificationService) MarkAllRead(ctx context.Context, actorID int64) (int64, error) {
	return 3, nil
}

func TestNotificationController(t *testing.T) {
	svc := &fakeNotificationService{owner: 1, link: "/community/reuse-pet-a1b2c3"}
	ctrl := NewNotificationController(svc, zerolog.Nop())

	newRouter := func(userID int64) *gin.Engine {
		r := gin.New()
		g := r.Group("", asUser(userID))
		g.GET("/notifications/read/:id", ctrl.MarkRead)
		g.GET("/notifications/read-all", ctrl.MarkAllRead)
		return r
	}

	w := serve(newRouter(1), http.MethodGet, "/notifications/read/1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"link":"/community/reuse-pet-a1b2c3"`)

	w = serve(newRouter(2), http.MethodGet, "/notifications/read/1", "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(newRouter(1), http.MethodGet, "/notifications/read/99", "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = serve(newRouter(1), http.MethodGet, "/notifications/read/x", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "id", decodeEnvelope(t, w).Error.Field)

	w = serve(newRouter(1), http.MethodGet, "/notifications/read-all", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"updated":3}`, string(decodeEnvelope(t, w).Data))
}

// --- messaging ---

type fakeMessagingService struct {
	participants map[int64]bool
	sent         int
}

func (f *fakeMessagingService) ListConversations(ctx context.Context, actorID int64) ([]*models.Conversation, error) {
	return []*models.Conversation{}, nil
}

func (f *fakeMessagingService) FindOrCreateConversation(ctx context.Context, actorID, otherUserID int64) (*models.Conversation, error) {
	if actorID == otherUserID {
		return nil, apperrors.NewValidationError("user_id", "You cannot message yourself")
	}
	return &models.Conversation{ID: 10}, nil
}

func (f *fakeMessagingService) SendMessage(ctx context.Context, conversationID, senderID int64, content string) (*models.Message, error) {
	if !f.participants[senderID] {
		return nil, apperrors.NewCustomError(apperrors.ErrNotParticipant, "You are not part of this conversation")
	}
	f.sent++
	return &models.Message{ID: int64(f.sent), ConversationID: conversationID, Content: content}, nil
}

func (f *fakeMessagingService) ViewConversation(ctx context.Context, conversationID, actorID int64) (*dto.ConversationDetailResponse, error) {
	return &dto.ConversationDetailResponse{Conversation: &models.Conversation{ID: conversationID}}, nil
}

func TestMessagingController(t *testing.T) {
	svc := &fakeMessagingService{participants: map[int64]bool{1: true, 2: true}}
	ctrl := NewMessagingController(svc, zerolog.Nop())

	newRouter := func(userID int64) *gin.Engine {
		r := gin.New()
		g := r.Group("", asUser(userID))
		g.POST("/messages/:id", ctrl.SendMessage)
		g.GET("/messages/new/:user_id", ctrl.NewConversation)
		return r
	}

	w := serve(newRouter(1), http.MethodPost, "/messages/10", `{"content":"hello"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, svc.sent)

	w = serve(newRouter(3), http.MethodPost, "/messages/10", `{"content":"hello"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, 1, svc.sent)

	w = serve(newRouter(1), http.MethodPost, "/messages/10", `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, string(dto.ErrorCodeValidationFailed), decodeEnvelope(t, w).Error.Code)

	w = serve(newRouter(1), http.MethodGet, "/messages/new/1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(newRouter(1), http.MethodGet, "/messages/new/2", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

// --- auth ---

type fakeAuthService struct{}

func (fakeAuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	if req.Username == "taken" {
		return nil, apperrors.NewCustomError(apperrors.ErrUsernameAlreadyExists, "Username already exists").WithField("username")
	}
	return &dto.RegisterResponse{User: &models.User{ID: 1, Username: req.Username}, VerificationRequired: true}, nil
}

func (fakeAuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	return nil, apperrors.ErrInvalidCredentials
}

func (fakeAuthService) RefreshToken(ctx context.Context, token string) (*dto.AuthResponse, error) {
	return nil, apperrors.ErrTokenRevoked
}

func (fakeAuthService) Logout(ctx context.Context, token string) error { return nil }

func (fakeAuthService) VerifyEmail(ctx context.Context, token string) error {
	return apperrors.NewCustomError(apperrors.ErrInvalidEmailToken, "Verification link has expired")
}

func TestAuthController(t *testing.T) {
	ctrl := NewAuthController(fakeAuthService{}, zerolog.Nop())
	r := gin.New()
	r.POST("/auth/register", ctrl.Register)
	r.POST("/auth/login", ctrl.Login)
	r.POST("/auth/refresh", ctrl.RefreshToken)
	r.GET("/auth/verify-email", ctrl.VerifyEmail)

	w := serve(r, http.MethodPost, "/auth/register", `{"username":"green_trader","email":"a@b.rw","password":"secret1","confirmPassword":"secret2"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "confirmPassword", decodeEnvelope(t, w).Error.Field)

	w = serve(r, http.MethodPost, "/auth/register", `{"username":"green_trader","email":"a@b.rw","password":"secret1","confirmPassword":"secret1"}`)
	assert.Equal(t, http.StatusCreated, w.Code)

	w = serve(r, http.MethodPost, "/auth/register", `{"username":"taken","email":"a@b.rw","password":"secret1","confirmPassword":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "username", decodeEnvelope(t, w).Error.Field)

	w = serve(r, http.MethodPost, "/auth/register", `{"username":"bad name!","email":"a@b.rw","password":"secret1","confirmPassword":"secret1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodPost, "/auth/login", `{"email":"a@b.rw","password":"nope"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, string(dto.ErrorCodeInvalidCredentials), decodeEnvelope(t, w).Error.Code)

	w = serve(r, http.MethodPost, "/auth/refresh", `{"refreshToken":"old"}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, http.MethodGet, "/auth/verify-email", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodGet, "/auth/verify-email?token=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Verification link has expired", decodeEnvelope(t, w).Error.Message)
}

// --- catalog ---

type fakeCatalogService struct {
	lastQuery *dto.ListingQuery
}

func (f *fakeCatalogService) ListCategories(ctx context.Context) ([]*models.Category, error) {
	return []*models.Category{{ID: 1, Name: "Metals", Slug: "metals"}}, nil
}

func (f *fakeCatalogService) CreateListing(ctx context.Context, ownerID int64, req *dto.CreateListingRequest, images []*multipart.FileHeader) (*models.Listing, error) {
	return &models.Listing{ID: 1, Title: req.Title, Slug: "scrap-metal-0a1b2c3d"}, nil
}

func (f *fakeCatalogService) ListListings(ctx context.Context, query *dto.ListingQuery, page, size int) (*dto.ListingListResponse, error) {
	f.lastQuery = query
	return &dto.ListingListResponse{Listings: []*models.Listing{}}, nil
}

func (f *fakeCatalogService) ViewListing(ctx context.Context, slug string) (*models.Listing, error) {
	return nil, apperrors.NewCustomError(apperrors.ErrListingNotFound, "Listing not found")
}

func (f *fakeCatalogService) ToggleWishlist(ctx context.Context, actorID int64, slug string) (*dto.WishlistToggleResponse, error) {
	return &dto.WishlistToggleResponse{Action: "added", Slug: slug}, nil
}

func (f *fakeCatalogService) ListWishlist(ctx context.Context, actorID int64) ([]*models.Listing, error) {
	return nil, nil
}

func TestCatalogController(t *testing.T) {
	svc := &fakeCatalogService{}
	ctrl := NewCatalogController(svc, zerolog.Nop())
	r := gin.New()
	r.GET("/marketplace", ctrl.ListListings)
	r.GET("/marketplace/:slug", ctrl.ViewListing)
	r.POST("/marketplace/:slug/wishlist", asUser(4), ctrl.ToggleWishlist)

	w := serve(r, http.MethodGet, "/marketplace?type=waste&category=metals&q=copper", "")
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastQuery)
	assert.Equal(t, "waste", svc.lastQuery.ListingType)
	assert.Equal(t, "metals", svc.lastQuery.Category)
	assert.Equal(t, "copper", svc.lastQuery.Search)

	w = serve(r, http.MethodGet, "/marketplace?type=gold", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(r, http.MethodGet, "/marketplace/unknown", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Listing not found", decodeEnvelope(t, w).Error.Message)

	w = serve(r, http.MethodPost, "/marketplace/scrap-metal-0a1b2c3d/wishlist", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"action":"added","slug":"scrap-metal-0a1b2c3d"}`, string(decodeEnvelope(t, w).Data))
}

func TestCatalogController_RequiresUser(t *testing.T) {
	ctrl := NewCatalogController(&fakeCatalogService{}, zerolog.Nop())
	r := gin.New()
	r.GET("/wishlist", ctrl.ListWishlist)

	w := serve(r, http.MethodGet, "/wishlist", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestHealth(t *testing.T) {
	r := gin.New()
	r.GET("/health", NewHealthController(nil).Health)

	w := serve(r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, string(decodeEnvelope(t, w).Data))
}
