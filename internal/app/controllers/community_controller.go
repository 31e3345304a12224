package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/ecosphere/internal/app/models/dto"
	"github.com/yigit/ecosphere/internal/app/services"
	"github.com/yigit/ecosphere/internal/middleware"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"github.com/yigit/ecosphere/internal/pkg/helpers"
)

// CommunityController handles forum posts, comments and upvotes
type CommunityController struct {
	communityService services.CommunityService
	logger           zerolog.Logger
}

// NewCommunityController creates a new CommunityController
func NewCommunityController(communityService services.CommunityService, logger zerolog.Logger) *CommunityController {
	return &CommunityController{
		communityService: communityService,
		logger:           logger,
	}
}

// statusError writes the flat {"status":"error"} body used by the upvote and comment endpoints
func (c *CommunityController) statusError(ctx *gin.Context, err error) {
	status := middleware.StatusFor(err)
	message := err.Error()

	var ce *apperrors.CustomError
	switch {
	case status == http.StatusInternalServerError:
		c.logger.Error().Err(err).Str("path", ctx.Request.URL.Path).Msg("Community action failed")
		message = "Internal server error"
	case errors.As(err, &ce):
		message = ce.Error()
	case status == http.StatusNotFound:
		message = "Post not found"
	}

	ctx.JSON(status, dto.NewStatusError(message))
}

// ListPosts godoc
// @Summary List community posts
// @Description Non-deleted posts, pinned first then newest, with counts and tags
// @Tags community
// @Produce json
// @Param tag query string false "Tag slug"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.PostListResponse}
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /community [get]
func (c *CommunityController) ListPosts(ctx *gin.Context) {
	page, size := helpers.ParsePaginationParams(ctx)
	result, err := c.communityService.ListPosts(ctx.Request.Context(), strings.TrimSpace(ctx.Query("tag")), page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, ""))
}

// CreatePost godoc
// @Summary Ask the community
// @Description Creates a post with an optional image and comma separated tags
// @Tags community
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param content formData string true "Content"
// @Param tags formData string false "Comma separated tags"
// @Param image formData file false "Image (jpg, jpeg, png, webp)"
// @Success 201 {object} dto.APIResponse{data=models.Post}
// @Failure 400 {object} dto.APIResponse "Validation failed"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /community/ask [post]
func (c *CommunityController) CreatePost(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, errUnauthenticated)
		return
	}

	var req dto.CreatePostRequest
	if !middleware.Bind(ctx, &req) {
		return
	}

	// image is optional; a missing part is not an error
	image, err := ctx.FormFile("image")
	if err != nil {
		image = nil
	}

	post, err := c.communityService.CreatePost(ctx.Request.Context(), userID, &req, image)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("postID", post.ID).Int64("userID", userID).Msg("Post created")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(post, "Post created successfully"))
}

// ViewPost godoc
// @Summary View a post
// @Description Returns the post with its threaded comments. Counts the view.
// @Tags community
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} dto.APIResponse{data=dto.PostDetailResponse}
// @Failure 404 {object} dto.APIResponse "Post not found"
// @Router /community/{slug} [get]
func (c *CommunityController) ViewPost(ctx *gin.Context) {
	detail, err := c.communityService.ViewPost(ctx.Request.Context(), ctx.Param("slug"), middleware.OptionalUserID(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(detail, ""))
}

// ToggleUpvote godoc
// @Summary Toggle an upvote
// @Description Adds the caller's upvote to the post, or removes it when already present
// @Tags community
// @Produce json
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 200 {object} dto.UpvoteResponse
// @Failure 400 {object} dto.StatusErrorResponse "Invalid post ID"
// @Failure 404 {object} dto.StatusErrorResponse "Post not found"
// @Router /community/upvote/{id} [post]
func (c *CommunityController) ToggleUpvote(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		c.statusError(ctx, errUnauthenticated)
		return
	}

	postID, ok := helpers.ParseIDParam(ctx, "id")
	if !ok {
		ctx.JSON(http.StatusBadRequest, dto.NewStatusError("Invalid post ID"))
		return
	}

	result, err := c.communityService.ToggleUpvote(ctx.Request.Context(), postID, userID)
	if err != nil {
		c.statusError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}

// PostComment godoc
// @Summary Comment on a post
// @Description Adds a comment, or a reply when parent_id is set
// @Tags community
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Post slug"
// @Param request body dto.CommentRequest true "Comment"
// @Success 200 {object} dto.CommentResponse
// @Failure 400 {object} dto.StatusErrorResponse "Comment cannot be empty"
// @Failure 404 {object} dto.StatusErrorResponse "Post not found"
// @Router /community/comment/{slug} [post]
func (c *CommunityController) PostComment(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		c.statusError(ctx, errUnauthenticated)
		return
	}

	var req dto.CommentRequest
	if err := ctx.ShouldBind(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewStatusError("Invalid comment payload"))
		return
	}
	// an empty parent_id form field binds as zero
	if req.ParentID != nil && *req.ParentID == 0 {
		req.ParentID = nil
	}

	result, err := c.communityService.PostComment(ctx.Request.Context(), ctx.Param("slug"), userID, &req)
	if err != nil {
		c.statusError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, result)
}
