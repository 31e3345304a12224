package controllers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/ecosphere/internal/app/models/dto"
	"github.com/yigit/ecosphere/internal/app/services"
	"github.com/yigit/ecosphere/internal/middleware"
	"github.com/yigit/ecosphere/internal/pkg/helpers"
)

// CatalogController serves categories, listings and the wishlist
type CatalogController struct {
	catalogService services.CatalogService
	logger         zerolog.Logger
}

// NewCatalogController creates a new CatalogController
func NewCatalogController(catalogService services.CatalogService, logger zerolog.Logger) *CatalogController {
	return &CatalogController{
		catalogService: catalogService,
		logger:         logger,
	}
}

// ListCategories godoc
// @Summary List categories
// @Description Returns the active listing categories ordered by name
// @Tags marketplace
// @Produce json
// @Success 200 {object} dto.APIResponse{data=[]models.Category}
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /categories [get]
func (c *CatalogController) ListCategories(ctx *gin.Context) {
	categories, err := c.catalogService.ListCategories(ctx.Request.Context())
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(categories, ""))
}

// ListListings godoc
// @Summary Browse the marketplace
// @Description Returns active listings, newest first, with optional filters
// @Tags marketplace
// @Produce json
// @Param type query string false "Listing type" Enums(waste, recycled)
// @Param category query string false "Category slug"
// @Param q query string false "Search in titles"
// @Param page query int false "Page number" default(1)
// @Param size query int false "Page size" default(10)
// @Success 200 {object} dto.APIResponse{data=dto.ListingListResponse}
// @Failure 400 {object} dto.APIResponse "Invalid filter"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /marketplace [get]
func (c *CatalogController) ListListings(ctx *gin.Context) {
	var query dto.ListingQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	page, size := helpers.ParsePaginationParams(ctx)
	result, err := c.catalogService.ListListings(ctx.Request.Context(), &query, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, ""))
}

// ViewListing godoc
// @Summary View a listing
// @Description Returns an active listing with its images, owner and category, and counts the view
// @Tags marketplace
// @Produce json
// @Param slug path string true "Listing slug"
// @Success 200 {object} dto.APIResponse{data=models.Listing}
// @Failure 404 {object} dto.APIResponse "Listing not found"
// @Router /marketplace/{slug} [get]
func (c *CatalogController) ViewListing(ctx *gin.Context) {
	listing, err := c.catalogService.ViewListing(ctx.Request.Context(), ctx.Param("slug"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(listing, ""))
}

// CreateListing godoc
// @Summary Create a listing
// @Description Creates a listing owned by the caller. Images are uploaded in the repeated "images" field.
// @Tags marketplace
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param quantity formData number true "Quantity, greater than 0"
// @Param unit formData string true "Unit (kg, pieces, ...)"
// @Param category_id formData int true "Category ID"
// @Param listing_type formData string true "Listing type" Enums(waste, recycled)
// @Param price formData number false "Price"
// @Param currency formData string false "Currency" default(RWF)
// @Param location formData string false "Location"
// @Param images formData file false "Listing images (jpg, jpeg, png, webp)"
// @Success 201 {object} dto.APIResponse{data=models.Listing}
// @Failure 400 {object} dto.APIResponse "Validation failed"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 500 {object} dto.APIResponse "Internal server error"
// @Router /marketplace/create [post]
func (c *CatalogController) CreateListing(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, errUnauthenticated)
		return
	}

	var req dto.CreateListingRequest
	if err := ctx.ShouldBind(&req); err != nil {
		c.logger.Warn().Err(err).Int64("userID", userID).Msg("Invalid listing form")
		middleware.HandleBindingError(ctx, err)
		return
	}

	var images []*multipart.FileHeader
	if form, err := ctx.MultipartForm(); err == nil && form != nil {
		images = form.File["images"]
	}

	listing, err := c.catalogService.CreateListing(ctx.Request.Context(), userID, &req, images)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("listingID", listing.ID).Str("slug", listing.Slug).Msg("Listing created")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(listing, "Listing created successfully"))
}

// ToggleWishlist godoc
// @Summary Toggle a wishlist entry
// @Description Adds the listing to the caller's wishlist, or removes it when already present
// @Tags marketplace
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Listing slug"
// @Success 200 {object} dto.APIResponse{data=dto.WishlistToggleResponse}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 404 {object} dto.APIResponse "Listing not found"
// @Router /marketplace/{slug}/wishlist [post]
func (c *CatalogController) ToggleWishlist(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, errUnauthenticated)
		return
	}

	result, err := c.catalogService.ToggleWishlist(ctx.Request.Context(), userID, ctx.Param("slug"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, ""))
}

// ListWishlist godoc
// @Summary List the wishlist
// @Tags marketplace
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Listing}
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Router /wishlist [get]
func (c *CatalogController) ListWishlist(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		middleware.HandleAPIError(ctx, errUnauthenticated)
		return
	}

	listings, err := c.catalogService.ListWishlist(ctx.Request.Context(), userID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(listings, ""))
}
