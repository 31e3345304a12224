package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/ecosphere/internal/app/models/dto"
	"github.com/yigit/ecosphere/internal/app/services"
	"github.com/yigit/ecosphere/internal/middleware"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
)

// ProfileController handles profiles and the dashboard
type ProfileController struct {
	profileService services.ProfileService
	logger         zerolog.Logger
}

// NewProfileController creates a new ProfileController
func NewProfileController(profileService services.ProfileService, logger zerolog.Logger) *ProfileController {
	return &ProfileController{
		profileService: profileService,
		logger:         logger,
	}
}

// GetProfile godoc
// @Summary View a public profile
// @Tags profile
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Failure 404 {object} dto.APIResponse "User not found"
// @Router /profile/{username} [get]
func (c *ProfileController) GetProfile(ctx *gin.Context) {
	profile, err := c.profileService.GetProfile(ctx.Request.Context(), ctx.Param("username"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile, ""))
}

// GetOwnProfile godoc
// @Summary Current user's editable profile
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /profile/edit [get]
func (c *ProfileController) GetOwnProfile(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, errUnauthenticated)
		return
	}

	profile, err := c.profileService.GetOwnProfile(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile, ""))
}

// UpdateProfile godoc
// @Summary Update the current user's profile
// @Tags profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Failure 400 {object} dto.APIResponse "Validation failed"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /profile/edit [post]
func (c *ProfileController) UpdateProfile(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, errUnauthenticated)
		return
	}

	var req dto.UpdateProfileRequest
	if err := ctx.ShouldBind(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	profile, err := c.profileService.UpdateProfile(ctx.Request.Context(), userID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile, "Profile updated successfully"))
}

// UploadAvatar godoc
// @Summary Upload an avatar
// @Tags profile
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Avatar image (jpg, jpeg, png, webp)"
// @Success 200 {object} dto.APIResponse{data=dto.ProfileResponse}
// @Failure 400 {object} dto.APIResponse "Missing or invalid image"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /profile/upload-avatar [post]
func (c *ProfileController) UploadAvatar(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, errUnauthenticated)
		return
	}

	file, err := ctx.FormFile("avatar")
	if err != nil {
		middleware.HandleAPIError(ctx, apperrors.NewValidationError("avatar", "No file uploaded"))
		return
	}

	profile, err := c.profileService.UploadAvatar(ctx.Request.Context(), userID, file)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userID", userID).Msg("Avatar updated")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(profile, "Avatar updated successfully"))
}

// Dashboard godoc
// @Summary User dashboard
// @Description Counters and recent activity of the current user
// @Tags profile
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.Dashboard}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /dashboard [get]
func (c *ProfileController) Dashboard(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, errUnauthenticated)
		return
	}

	dashboard, err := c.profileService.Dashboard(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dashboard, ""))
}
