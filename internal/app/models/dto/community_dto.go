package dto

import "github.com/yigit/ecosphere/internal/app/models"

// CreatePostRequest is the multipart form of a new post; the optional
// image comes from the "image" file field.
type CreatePostRequest struct {
	Title   string `form:"title" binding:"required,min=3,max=120"`
	Content string `form:"content" binding:"required,min=5"`
	Tags    string `form:"tags" binding:"omitempty,max=255"`
}

// PostListResponse is one page of posts
type PostListResponse struct {
	Posts      []*models.Post `json:"posts"`
	Pagination PaginationInfo `json:"pagination"`
}

// PostDetailResponse is a post with its comment tree
type PostDetailResponse struct {
	Post       *models.Post          `json:"post"`
	Comments   []*models.CommentNode `json:"comments"`
	HasUpvoted bool                  `json:"hasUpvoted"`
}

// CommentRequest is the body of post_comment. Both JSON and form bodies bind.
type CommentRequest struct {
	Content  string `json:"content" form:"content"`
	ParentID *int64 `json:"parent_id" form:"parent_id"`
}

// UpvoteResponse keeps the legacy upvote JSON shape
type UpvoteResponse struct {
	Status       string `json:"status" example:"success"`
	Action       string `json:"action" example:"added"`
	TotalUpvotes int64  `json:"total_upvotes" example:"3"`
}

// CommentPayload is the comment object inside CommentResponse
type CommentPayload struct {
	ID       int64  `json:"id"`
	Author   string `json:"author"`
	Content  string `json:"content"`
	ParentID *int64 `json:"parent_id"`
}

// CommentResponse keeps the legacy comment JSON shape
type CommentResponse struct {
	Status        string         `json:"status" example:"success"`
	Comment       CommentPayload `json:"comment"`
	TotalComments int64          `json:"total_comments" example:"4"`
}
