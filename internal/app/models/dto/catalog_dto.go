package dto

import "github.com/yigit/ecosphere/internal/app/models"

// CreateListingRequest is the multipart form of a new listing. Images are
// read from the "images" file field.
type CreateListingRequest struct {
	Title       string             `form:"title" binding:"required,min=3,max=120"`
	Description string             `form:"description" binding:"required,min=5"`
	Quantity    float64            `form:"quantity" binding:"required,gt=0"`
	Unit        string             `form:"unit" binding:"required,min=1,max=20"`
	CategoryID  int64              `form:"category_id" binding:"required,min=1"`
	ListingType models.ListingType `form:"listing_type" binding:"required,listingtype"`
	Price       *float64           `form:"price" binding:"omitempty,gte=0"`
	Currency    string             `form:"currency" binding:"omitempty,max=10"`
	Location    string             `form:"location" binding:"omitempty,max=120"`
}

// ListingQuery holds the optional list_listings filters
type ListingQuery struct {
	ListingType string `form:"type" binding:"omitempty,listingtype"`
	Category    string `form:"category"`
	Search      string `form:"q"`
}

// ListingListResponse is one page of active listings
type ListingListResponse struct {
	Listings   []*models.Listing `json:"listings"`
	Pagination PaginationInfo    `json:"pagination"`
}

// WishlistToggleResponse reports the wishlist action taken
type WishlistToggleResponse struct {
	Action string `json:"action" example:"added"`
	Slug   string `json:"slug"`
}
