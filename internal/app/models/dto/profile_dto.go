package dto

import "github.com/yigit/ecosphere/internal/app/models"

// UpdateProfileRequest holds editable profile fields. Empty strings clear a field.
type UpdateProfileRequest struct {
	FullName  string `json:"fullName" form:"full_name" binding:"max=120"`
	Bio       string `json:"bio" form:"bio" binding:"max=500"`
	Location  string `json:"location" form:"location" binding:"max=120"`
	Twitter   string `json:"twitter" form:"twitter" binding:"omitempty,url,max=255"`
	Instagram string `json:"instagram" form:"instagram" binding:"omitempty,url,max=255"`
	Github    string `json:"github" form:"github" binding:"omitempty,url,max=255"`
}

// ProfileResponse is a user's public profile
type ProfileResponse struct {
	User              *models.User     `json:"user"`
	Stats             models.UserStats `json:"stats"`
	ProfileCompletion int              `json:"profileCompletion"`
	AvatarURL         string           `json:"avatarUrl,omitempty"`
}
