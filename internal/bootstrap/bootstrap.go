package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	appAuth "github.com/yigit/ecosphere/internal/app/auth"
	appControllers "github.com/yigit/ecosphere/internal/app/controllers"
	appMigrations "github.com/yigit/ecosphere/internal/app/migrations"
	appRepos "github.com/yigit/ecosphere/internal/app/repositories"
	appRoutes "github.com/yigit/ecosphere/internal/app/routes"
	appServices "github.com/yigit/ecosphere/internal/app/services"
	"github.com/yigit/ecosphere/internal/config"
	"github.com/yigit/ecosphere/internal/db"
	appMiddleware "github.com/yigit/ecosphere/internal/middleware"
	pkgAuth "github.com/yigit/ecosphere/internal/pkg/auth"
	"github.com/yigit/ecosphere/internal/pkg/email"
	"github.com/yigit/ecosphere/internal/pkg/filestorage"
	"github.com/yigit/ecosphere/internal/pkg/logger"
	"github.com/yigit/ecosphere/internal/pkg/validation"
	"github.com/yigit/ecosphere/internal/pkg/websocket"
	"github.com/yigit/ecosphere/internal/seed"
)

// DefaultConfigPath is used when no --config flag is given
const DefaultConfigPath = "configs/config.yaml"

// hubQueueSize bounds the number of real-time events waiting for delivery
const hubQueueSize = 1024

// Dependencies holds all the application dependencies
type Dependencies struct {
	Repos *appRepos.Repositories

	AuthService         appServices.AuthService
	CatalogService      appServices.CatalogService
	CommunityService    appServices.CommunityService
	MessagingService    appServices.MessagingService
	NotificationService appServices.NotificationService
	ProfileService      appServices.ProfileService

	Handlers       *appRoutes.Handlers
	AuthMiddleware *appMiddleware.AuthMiddleware
	JWTService     *pkgAuth.JWTService
	AuthzService   *appAuth.AuthorizationService
	Hub            *websocket.Hub
	FileStorage    *filestorage.LocalStorage
	Logger         zerolog.Logger
}

// LoadConfigAndSetupLogger loads configuration and initializes the logger.
func LoadConfigAndSetupLogger(configPath string) (*config.Config, zerolog.Logger, error) {
	if configPath == "" {
		configPath = DefaultConfigPath
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		logger.Error().Err(err).Str("path", configPath).Msg("Failed to load configuration")
		return nil, zerolog.Logger{}, err
	}

	logLevel := logger.ParseLevel(cfg.Logging.Level)
	prettyLog := strings.EqualFold(cfg.Logging.Format, "text") || strings.EqualFold(cfg.Logging.Format, "pretty")

	lgr := logger.Configure(logger.Config{
		Level:  logLevel,
		Pretty: prettyLog,
	})
	lgr.Info().Str("logLevel", string(logLevel)).Str("logFormat", cfg.Logging.Format).Msg("Logger configured")
	return cfg, lgr, nil
}

// SetupDatabase establishes the database connection pool and checks it is reachable.
func SetupDatabase(ctx context.Context, cfg *config.Config, lgr zerolog.Logger) (*db.PostgresDB, error) {
	lgr.Info().Str("host", cfg.Database.Host).Str("db", cfg.Database.DBName).Msg("Establishing database connection...")
	database, err := db.NewPostgresDB(cfg)
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to connect to database")
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := database.Pool.Ping(pingCtx); err != nil {
		lgr.Error().Err(err).Msg("Failed to ping database")
		database.Close()
		return nil, err
	}
	lgr.Info().Msg("Database connection successfully established.")
	return database, nil
}

// RunMigrations applies the embedded SQL migrations.
func RunMigrations(ctx context.Context, database *db.PostgresDB, lgr zerolog.Logger) error {
	lgr.Info().Msg("Running database migrations...")
	migrator := appMigrations.NewMigrator(database.Pool, appMigrations.Files, appMigrations.Dir, lgr)

	applied, err := migrator.Up(ctx)
	if err != nil {
		lgr.Error().Err(err).Msg("Database migration error")
		return fmt.Errorf("database migrations failed: %w", err)
	}

	lgr.Info().Int("applied", applied).Msg("Database migrations successfully applied.")
	return nil
}

// SeedData creates the default categories and admin user.
func SeedData(ctx context.Context, database *db.PostgresDB, cfg *config.Config, lgr zerolog.Logger) error {
	return seed.CreateDefaultData(ctx, appRepos.NewRepositories(database.Pool), cfg, lgr)
}

// BuildDependencies initializes application repositories, services, and controllers.
func BuildDependencies(cfg *config.Config, database *db.PostgresDB, lgr zerolog.Logger) (*Dependencies, error) {
	deps := &Dependencies{Logger: lgr}

	if err := validation.RegisterCustomValidators(); err != nil {
		return nil, fmt.Errorf("failed to register validators: %w", err)
	}

	deps.Repos = appRepos.NewRepositories(database.Pool)

	// Stored files are served by the static /uploads route
	var err error
	fileStorageBaseURL := strings.TrimRight(cfg.Server.BaseURL, "/") + "/uploads"
	deps.FileStorage, err = filestorage.NewLocalStorage(cfg.Server.StoragePath, fileStorageBaseURL, logger.Component("filestorage"))
	if err != nil {
		lgr.Error().Err(err).Msg("Failed to initialize file storage")
		return nil, fmt.Errorf("failed to initialize file storage: %w", err)
	}

	accessExp, err := time.ParseDuration(cfg.JWT.AccessTokenExpiration)
	if err != nil {
		return nil, fmt.Errorf("invalid access token expiration: %w", err)
	}
	refreshExp, err := time.ParseDuration(cfg.JWT.RefreshTokenExpiration)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token expiration: %w", err)
	}
	deps.JWTService = pkgAuth.NewJWTService(pkgAuth.JWTConfig{
		SecretKey:       cfg.JWT.Secret,
		AccessTokenExp:  accessExp,
		RefreshTokenExp: refreshExp,
		TokenIssuer:     cfg.JWT.Issuer,
	})

	emailService := email.NewEmailService(email.SMTPConfig{
		Host:      cfg.SMTP.Host,
		Port:      cfg.SMTP.Port,
		Username:  cfg.SMTP.Username,
		Password:  cfg.SMTP.Password,
		FromName:  cfg.SMTP.FromName,
		FromEmail: cfg.SMTP.FromEmail,
		UseTLS:    cfg.SMTP.UseTLS,
		BaseURL:   cfg.Server.BaseURL,
	}, logger.Component("email"))

	deps.Hub = websocket.NewHub(hubQueueSize, logger.Component("websocket"))

	// Initialize services
	deps.AuthzService = appAuth.NewAuthorizationService(deps.Repos.UserRepository)

	deps.NotificationService = appServices.NewNotificationService(
		deps.Repos.NotificationRepository,
		database,
		deps.Hub,
		logger.Component("notifications"),
	)

	deps.AuthService = appServices.NewAuthService(
		deps.Repos.UserRepository,
		deps.Repos.TokenRepository,
		deps.Repos.VerificationTokenRepository,
		database,
		deps.JWTService,
		emailService,
		logger.Component("auth"),
	)

	deps.CatalogService = appServices.NewCatalogService(
		deps.Repos.CategoryRepository,
		deps.Repos.ListingRepository,
		deps.Repos.WishlistRepository,
		deps.Repos.UserRepository,
		database,
		deps.FileStorage,
		logger.Component("catalog"),
	)

	deps.CommunityService = appServices.NewCommunityService(
		deps.Repos.PostRepository,
		deps.Repos.CommentRepository,
		deps.Repos.UpvoteRepository,
		deps.Repos.UserRepository,
		deps.NotificationService,
		database,
		deps.FileStorage,
		logger.Component("community"),
	)

	deps.MessagingService = appServices.NewMessagingService(
		deps.Repos.ConversationRepository,
		deps.Repos.MessageRepository,
		deps.Repos.UserRepository,
		database,
		deps.Hub,
		logger.Component("messaging"),
	)

	deps.ProfileService = appServices.NewProfileService(
		deps.Repos.UserRepository,
		deps.Repos.ListingRepository,
		deps.Repos.PostRepository,
		deps.Repos.MessageRepository,
		deps.FileStorage,
		logger.Component("profile"),
	)

	deps.AuthMiddleware = appMiddleware.NewAuthMiddleware(deps.JWTService, deps.AuthzService)

	deps.Handlers = &appRoutes.Handlers{
		Auth:         appControllers.NewAuthController(deps.AuthService, lgr),
		Catalog:      appControllers.NewCatalogController(deps.CatalogService, lgr),
		Community:    appControllers.NewCommunityController(deps.CommunityService, lgr),
		Messaging:    appControllers.NewMessagingController(deps.MessagingService, lgr),
		Notification: appControllers.NewNotificationController(deps.NotificationService, lgr),
		Profile:      appControllers.NewProfileController(deps.ProfileService, lgr),
		Health:       appControllers.NewHealthController(database.Pool),
		WebSocket:    websocket.NewHandler(deps.Hub, logger.Component("websocket")),
	}

	return deps, nil
}

// SetupRouter configures the Gin engine with middleware and routes.
func SetupRouter(cfg *config.Config, deps *Dependencies, lgr zerolog.Logger) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
		lgr.Info().Msg("Setting Gin mode to release")
	} else {
		gin.SetMode(gin.DebugMode)
		lgr.Info().Msg("Setting Gin mode to debug")
	}

	router := gin.New()
	router.Use(gin.Recovery(), appMiddleware.RequestLogger(logger.Component("http")))
	router.MaxMultipartMemory = 16 << 20

	appRoutes.SetupSwagger(router)
	appRoutes.SetupRouter(router, deps.Handlers, deps.AuthMiddleware)

	// Uploaded files
	router.Static("/uploads", deps.FileStorage.Root())
	lgr.Info().Str("path", deps.FileStorage.Root()).Msg("Static file serving configured for uploads directory")

	return router
}
