package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/yigit/ecosphere/internal/app/controllers"
	"github.com/yigit/ecosphere/internal/middleware"
	"github.com/yigit/ecosphere/internal/pkg/websocket"
)

// Handlers groups every controller the router mounts
type Handlers struct {
	Auth         *controllers.AuthController
	Catalog      *controllers.CatalogController
	Community    *controllers.CommunityController
	Messaging    *controllers.MessagingController
	Notification *controllers.NotificationController
	Profile      *controllers.ProfileController
	Health       *controllers.HealthController
	WebSocket    *websocket.Handler
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, h *Handlers, authMiddleware *middleware.AuthMiddleware) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/refresh", h.Auth.RefreshToken)
		auth.POST("/logout", h.Auth.Logout)
		auth.GET("/verify-email", h.Auth.VerifyEmail)
	}

	// --- Public catalog and community pages ---
	v1.GET("/categories", h.Catalog.ListCategories)
	v1.GET("/marketplace", h.Catalog.ListListings)
	v1.GET("/marketplace/:slug", h.Catalog.ViewListing)
	v1.GET("/profile/:username", h.Profile.GetProfile)

	personalised := v1.Group("")
	personalised.Use(authMiddleware.OptionalAuth())
	{
		personalised.GET("/community", h.Community.ListPosts)
		personalised.GET("/community/:slug", h.Community.ViewPost)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth(), authMiddleware.ActiveAccountRequired())
	{
		// Marketplace
		authenticated.POST("/marketplace/create", h.Catalog.CreateListing)
		authenticated.POST("/marketplace/:slug/wishlist", h.Catalog.ToggleWishlist)
		authenticated.GET("/wishlist", h.Catalog.ListWishlist)

		// Community
		authenticated.POST("/community/ask", h.Community.CreatePost)
		authenticated.POST("/community/upvote/:id", h.Community.ToggleUpvote)
		authenticated.POST("/community/comment/:slug", h.Community.PostComment)

		// Messaging
		messages := authenticated.Group("/messages")
		{
			messages.GET("", h.Messaging.ListConversations)
			messages.GET("/new/:user_id", h.Messaging.NewConversation)
			messages.POST("/new/:user_id", h.Messaging.NewConversation)
			messages.GET("/:id", h.Messaging.ViewConversation)
			messages.POST("/:id", h.Messaging.SendMessage)
		}

		// Notifications
		notifications := authenticated.Group("/notifications")
		{
			notifications.GET("", h.Notification.List)
			notifications.GET("/read-all", h.Notification.MarkAllRead)
			notifications.GET("/read/:id", h.Notification.MarkRead)
		}

		// Profile and dashboard
		authenticated.GET("/profile/edit", h.Profile.GetOwnProfile)
		authenticated.POST("/profile/edit", h.Profile.UpdateProfile)
		authenticated.POST("/profile/upload-avatar", h.Profile.UploadAvatar)
		authenticated.GET("/dashboard", h.Profile.Dashboard)

		// Real-time socket
		authenticated.GET("/ws", h.WebSocket.HandleConnection)
	}

	// Health check endpoint (public)
	v1.GET("/health", h.Health.Health)
}
