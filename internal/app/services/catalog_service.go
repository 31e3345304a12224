package services

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/yigit/ecosphere/internal/app/models"
	"github.com/yigit/ecosphere/internal/app/models/dto"
	"github.com/yigit/ecosphere/internal/app/repositories"
	"github.com/yigit/ecosphere/internal/db"
	"github.com/yigit/ecosphere/internal/pkg/apperrors"
	"github.com/yigit/ecosphere/internal/pkg/filestorage"
	"github.com/yigit/ecosphere/internal/pkg/helpers"
	"github.com/yigit/ecosphere/internal/pkg/slug"
)

const (
	// listingSlugBytes is the number of random bytes appended to listing slugs
	listingSlugBytes = 4
	// slugAttempts bounds the retries when a generated slug is already taken
	slugAttempts = 5
	// DefaultCurrency applies when a listing is created without one
	DefaultCurrency = "RWF"
	// MaxListingImages caps the number of images per listing
	MaxListingImages = 8
)

// CatalogService defines the interface for marketplace operations
type CatalogService interface {
	ListCategories(ctx context.Context) ([]*models.Category, error)
	CreateListing(ctx context.Context, ownerID int64, req *dto.CreateListingRequest, images []*multipart.FileHeader) (*models.Listing, error)
	ListListings(ctx context.Context, query *dto.ListingQuery, page, size int) (*dto.ListingListResponse, error)
	ViewListing(ctx context.Context, slug string) (*models.Listing, error)
	ToggleWishlist(ctx context.Context, actorID int64, slug string) (*dto.WishlistToggleResponse, error)
	ListWishlist(ctx context.Context, actorID int64) ([]*models.Listing, error)
}

// catalogServiceImpl implements CatalogService
type catalogServiceImpl struct {
	categoryRepo *repositories.CategoryRepository
	listingRepo  *repositories.ListingRepository
	wishlistRepo *repositories.WishlistRepository
	userRepo     *repositories.UserRepository
	db           *db.PostgresDB
	fileStorage  filestorage.FileStorage
	logger       zerolog.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(
	categoryRepo *repositories.CategoryRepository,
	listingRepo *repositories.ListingRepository,
	wishlistRepo *repositories.WishlistRepository,
	userRepo *repositories.UserRepository,
	database *db.PostgresDB,
	fileStorage filestorage.FileStorage,
	logger zerolog.Logger,
) CatalogService {
	return &catalogServiceImpl{
		categoryRepo: categoryRepo,
		listingRepo:  listingRepo,
		wishlistRepo: wishlistRepo,
		userRepo:     userRepo,
		db:           database,
		fileStorage:  fileStorage,
		logger:       logger,
	}
}

// ListCategories returns the active categories by name
func (s *catalogServiceImpl) ListCategories(ctx context.Context) ([]*models.Category, error) {
	categories, err := s.categoryRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing categories: %w", err)
	}
	return categories, nil
}

// validateListing checks the listing fields
func validateListing(req *dto.CreateListingRequest) error {
	title := strings.TrimSpace(req.Title)
	switch {
	case len(title) < 3 || len(title) > 120:
		return apperrors.NewValidationError("title", "Title must be between 3 and 120 characters")
	case len(strings.TrimSpace(req.Description)) < 5:
		return apperrors.NewValidationError("description", "Description must be at least 5 characters")
	case req.Quantity <= 0:
		return apperrors.NewValidationError("quantity", "Quantity must be greater than 0")
	case len(strings.TrimSpace(req.Unit)) < 1 || len(strings.TrimSpace(req.Unit)) > 20:
		return apperrors.NewValidationError("unit", "Unit must be between 1 and 20 characters")
	case !req.ListingType.IsValid():
		return apperrors.NewValidationError("listing_type", "Listing type must be one of: waste, recycled")
	case req.Price != nil && *req.Price < 0:
		return apperrors.NewValidationError("price", "Price cannot be negative")
	}
	return nil
}

// uniqueSlug returns a suffixed slug of title that exists reports as free
func uniqueSlug(ctx context.Context, title string, n int, exists func(context.Context, string) (bool, error)) (string, error) {
	for i := 0; i < slugAttempts; i++ {
		candidate, err := slug.WithSuffix(title, n)
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", apperrors.NewConflictError("could not generate a unique slug")
}

// CreateListing validates and persists a listing with its images
func (s *catalogServiceImpl) CreateListing(ctx context.Context, ownerID int64, req *dto.CreateListingRequest, images []*multipart.FileHeader) (*models.Listing, error) {
	if err := validateListing(req); err != nil {
		return nil, err
	}
	if len(images) > MaxListingImages {
		return nil, apperrors.NewValidationError("images", fmt.Sprintf("At most %d images are allowed", MaxListingImages))
	}
	for _, fh := range images {
		if !filestorage.AllowedImageExtensions[filestorage.Extension(fh.Filename)] {
			return nil, apperrors.NewCustomError(apperrors.ErrInvalidFileType, "Images must be jpg, jpeg, png or webp").WithField("images")
		}
	}

	category, err := s.categoryRepo.GetByID(ctx, req.CategoryID)
	if err != nil && !errors.Is(err, apperrors.ErrCategoryNotFound) {
		return nil, fmt.Errorf("error getting category: %w", err)
	}
	if category == nil || !category.IsActive {
		return nil, apperrors.NewValidationError("category_id", "Please select a valid category")
	}

	owner, err := s.userRepo.GetByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, fmt.Errorf("error getting owner: %w", err)
	}
	if owner.IsDeleted {
		return nil, apperrors.ErrAccountDisabled
	}

	listingSlug, err := uniqueSlug(ctx, req.Title, listingSlugBytes, s.listingRepo.SlugExists)
	if err != nil {
		return nil, fmt.Errorf("error generating slug: %w", err)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}

	listing := &models.Listing{
		Title:       strings.TrimSpace(req.Title),
		Slug:        listingSlug,
		Description: optional(req.Description),
		ListingType: req.ListingType,
		Quantity:    req.Quantity,
		Unit:        strings.TrimSpace(req.Unit),
		Price:       req.Price,
		Currency:    currency,
		Location:    optional(req.Location),
		OwnerID:     ownerID,
		CategoryID:  &category.ID,
		Category:    category,
		Owner:       owner.Summary(),
	}

	// files are written first so the transaction only covers rows
	stored := make([]*filestorage.StoredFile, 0, len(images))
	cleanup := func() {
		for _, f := range stored {
			if err := s.fileStorage.DeleteFile(filestorage.DirListings, f.Name); err != nil {
				s.logger.Warn().Err(err).Str("file", f.Name).Msg("Failed to remove orphaned listing image")
			}
		}
	}
	for _, fh := range images {
		f, err := s.fileStorage.SaveImage(fh, filestorage.DirListings, filestorage.UUIDName)
		if err != nil {
			cleanup()
			return nil, err
		}
		stored = append(stored, f)
	}

	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		repo := s.listingRepo.WithTx(tx)
		if err := repo.Create(ctx, listing); err != nil {
			return err
		}
		for i, f := range stored {
			img := &models.ListingImage{ListingID: listing.ID, ImageURL: f.URL, Position: i}
			if err := repo.AddImage(ctx, img); err != nil {
				return err
			}
			listing.Images = append(listing.Images, img)
		}
		return nil
	})
	if err != nil {
		cleanup()
		if errors.Is(err, apperrors.ErrCategoryNotFound) {
			return nil, apperrors.NewValidationError("category_id", "Please select a valid category")
		}
		s.logger.Error().Err(err).Int64("ownerID", ownerID).Msg("Failed to create listing")
		return nil, fmt.Errorf("error creating listing: %w", err)
	}

	s.logger.Info().
		Int64("listingID", listing.ID).
		Str("slug", listing.Slug).
		Int("images", len(listing.Images)).
		Msg("Listing created")
	return listing, nil
}

// ListListings returns one page of active listings
func (s *catalogServiceImpl) ListListings(ctx context.Context, query *dto.ListingQuery, page, size int) (*dto.ListingListResponse, error) {
	offset, limit := helpers.CalculateOffsetLimit(page, size)
	filter := models.ListingFilter{Offset: offset, Limit: limit}

	if query != nil {
		if query.ListingType != "" {
			t := models.ListingType(query.ListingType)
			if !t.IsValid() {
				return nil, apperrors.NewValidationError("type", "Listing type must be one of: waste, recycled")
			}
			filter.ListingType = &t
		}
		filter.CategorySlug = optional(query.Category)
		filter.Search = optional(query.Search)
	}

	listings, total, err := s.listingRepo.List(ctx, filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to list listings")
		return nil, fmt.Errorf("error listing listings: %w", err)
	}

	return &dto.ListingListResponse{
		Listings:   listings,
		Pagination: helpers.NewPaginationInfo(total, page, limit),
	}, nil
}

// ViewListing returns an active listing with its images and counts the view
func (s *catalogServiceImpl) ViewListing(ctx context.Context, listingSlug string) (*models.Listing, error) {
	listing, err := s.listingRepo.GetBySlug(ctx, listingSlug)
	if err != nil {
		if errors.Is(err, apperrors.ErrListingNotFound) {
			return nil, apperrors.NewCustomError(err, "Listing not found")
		}
		return nil, fmt.Errorf("error getting listing: %w", err)
	}

	views, err := s.listingRepo.IncrementViews(ctx, listing.ID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("listingID", listing.ID).Msg("Failed to increment listing views")
	} else {
		listing.Views = views
	}

	images, err := s.listingRepo.GetImages(ctx, listing.ID)
	if err != nil {
		return nil, fmt.Errorf("error getting listing images: %w", err)
	}
	listing.Images = images

	return listing, nil
}

// ToggleWishlist adds the listing to the actor's wishlist or removes it
func (s *catalogServiceImpl) ToggleWishlist(ctx context.Context, actorID int64, listingSlug string) (*dto.WishlistToggleResponse, error) {
	listing, err := s.listingRepo.GetBySlug(ctx, listingSlug)
	if err != nil {
		if errors.Is(err, apperrors.ErrListingNotFound) {
			return nil, apperrors.NewCustomError(err, "Listing not found")
		}
		return nil, fmt.Errorf("error getting listing: %w", err)
	}

	action := "removed"
	err = s.db.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		repo := s.wishlistRepo.WithTx(tx)
		removed, err := repo.Remove(ctx, actorID, listing.ID)
		if err != nil || removed {
			return err
		}
		action = "added"
		return repo.Add(ctx, actorID, listing.ID)
	})
	if err != nil {
		return nil, fmt.Errorf("error toggling wishlist: %w", err)
	}

	s.logger.Debug().Int64("userID", actorID).Int64("listingID", listing.ID).Str("action", action).Msg("Wishlist toggled")
	return &dto.WishlistToggleResponse{Action: action, Slug: listing.Slug}, nil
}

// ListWishlist returns the actor's saved listings
func (s *catalogServiceImpl) ListWishlist(ctx context.Context, actorID int64) ([]*models.Listing, error) {
	listings, err := s.wishlistRepo.ListByUser(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("error listing wishlist: %w", err)
	}
	return listings, nil
}
