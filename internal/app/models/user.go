package models

import (
	"strings"
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID             int64     `json:"id" db:"id"`
	Username       string    `json:"username" db:"username"`
	Email          string    `json:"email" db:"email"`
	Password       string    `json:"-" db:"password"`
	Role           RoleType  `json:"role" db:"role"`
	IsVerified     bool      `json:"isVerified" db:"is_verified"`
	IsDeleted      bool      `json:"-" db:"is_deleted"`
	FullName       *string   `json:"fullName,omitempty" db:"full_name"`
	Bio            *string   `json:"bio,omitempty" db:"bio"`
	Location       *string   `json:"location,omitempty" db:"location"`
	AvatarFilename *string   `json:"avatarFilename,omitempty" db:"avatar_filename"`
	Twitter        *string   `json:"twitter,omitempty" db:"twitter"`
	Instagram      *string   `json:"instagram,omitempty" db:"instagram"`
	Github         *string   `json:"github,omitempty" db:"github"`
	LastSeen       time.Time `json:"lastSeen" db:"last_seen"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}

// ProfileCompletion returns the percentage of optional profile fields that are filled
func (u *User) ProfileCompletion() int {
	fields := []*string{u.FullName, u.Bio, u.Location, u.AvatarFilename, u.Twitter, u.Instagram, u.Github}

	filled := 0
	for _, f := range fields {
		if f != nil && strings.TrimSpace(*f) != "" {
			filled++
		}
	}
	return filled * 100 / len(fields)
}

// UserSummary is the author/owner projection embedded in other entities
type UserSummary struct {
	ID             int64    `json:"id"`
	Username       string   `json:"username"`
	Role           RoleType `json:"role"`
	AvatarFilename *string  `json:"avatarFilename,omitempty"`
}

// Summary returns the public projection of u
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:             u.ID,
		Username:       u.Username,
		Role:           u.Role,
		AvatarFilename: u.AvatarFilename,
	}
}

// UserStats holds derived counters for a profile page
type UserStats struct {
	TotalListings        int64 `json:"totalListings"`
	TotalPosts           int64 `json:"totalPosts"`
	TotalUpvotesReceived int64 `json:"totalUpvotesReceived"`
}
