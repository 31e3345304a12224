package models

import "time"

// Category groups listings
type Category struct {
	ID          int64     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description *string   `json:"description,omitempty" db:"description"`
	Icon        *string   `json:"icon,omitempty" db:"icon"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}

// Listing is a marketplace offer of waste or recycled goods
type Listing struct {
	ID           int64       `json:"id" db:"id"`
	Title        string      `json:"title" db:"title"`
	Slug         string      `json:"slug" db:"slug"`
	Description  *string     `json:"description,omitempty" db:"description"`
	ListingType  ListingType `json:"listingType" db:"listing_type"`
	Quantity     float64     `json:"quantity" db:"quantity"`
	Unit         string      `json:"unit" db:"unit"`
	Price        *float64    `json:"price,omitempty" db:"price"`
	Currency     string      `json:"currency" db:"currency"`
	Location     *string     `json:"location,omitempty" db:"location"`
	OwnerID      int64       `json:"ownerId" db:"owner_id"`
	CategoryID   *int64      `json:"categoryId,omitempty" db:"category_id"`
	IsActive     bool        `json:"isActive" db:"is_active"`
	Views        int64       `json:"views" db:"views"`
	ContactCount int64       `json:"contactCount" db:"contact_count"`
	CreatedAt    time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time   `json:"updatedAt" db:"updated_at"`

	// Related entities
	Owner    *UserSummary    `json:"owner,omitempty"`
	Category *Category       `json:"category,omitempty"`
	Images   []*ListingImage `json:"images,omitempty"`
}

// ListingImage is one ordered picture of a listing
type ListingImage struct {
	ID        int64     `json:"id" db:"id"`
	ListingID int64     `json:"listingId" db:"listing_id"`
	ImageURL  string    `json:"imageUrl" db:"image_url"`
	AltText   *string   `json:"altText,omitempty" db:"alt_text"`
	Position  int       `json:"position" db:"position"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// ListingFilter narrows list_listings
type ListingFilter struct {
	ListingType  *ListingType
	CategorySlug *string
	Search       *string
	OwnerID      *int64
	Offset       uint64
	Limit        int
}
