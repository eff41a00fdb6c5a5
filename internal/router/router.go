package router

import (
	"context"
	"fmt"
	"time"

	"github.com/anonto42/syrena/backend/internal/handlers"
	"github.com/anonto42/syrena/backend/internal/metrics"
	"github.com/anonto42/syrena/backend/internal/middleware"
	"github.com/anonto42/syrena/backend/internal/models"
	"github.com/anonto42/syrena/backend/internal/notify"
	"github.com/anonto42/syrena/backend/internal/realtime"
	"github.com/anonto42/syrena/backend/internal/repositories"
	"github.com/anonto42/syrena/backend/internal/services"
	"github.com/anonto42/syrena/backend/pkg/config"
	"github.com/anonto42/syrena/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const wsPath = "/api/v1/ws"

// Repositories are the storage collaborators behind the API.
type Repositories struct {
	Users         repositories.UserRepository
	Friendships   repositories.FriendshipRepository
	Notifications repositories.NotificationRepository
	DeviceTokens  repositories.DeviceTokenRepository
	Places        repositories.PlaceRepository
	Comments      repositories.CommentRepository
}

// Deps carries everything SetupRoutes wires together. Firebase may be nil.
type Deps struct {
	Config      *config.Config
	Logger      *zap.Logger
	Repos       Repositories
	Health      handlers.Pinger
	Firebase    *firebase.App
	Hub         *realtime.Hub
	RateLimiter *middleware.RateLimiter
}

// NewPostgresMongoRepositories builds the production repositories and
// prepares their schema.
func NewPostgresMongoRepositories(ctx context.Context, db *config.DB) (Repositories, error) {
	err := db.Postgres.WithContext(ctx).AutoMigrate(
		&models.User{},
		&models.Friendship{},
		&models.Notification{},
		&models.DeviceToken{},
		&models.Comment{},
	)
	if err != nil {
		return Repositories{}, fmt.Errorf("auto migrate: %w", err)
	}

	places := repositories.NewMongoPlaceRepository(db.MongoDB)
	if err := places.EnsureIndexes(ctx); err != nil {
		return Repositories{}, fmt.Errorf("place indexes: %w", err)
	}

	return Repositories{
		Users:         repositories.NewPostgresUserRepository(db.Postgres),
		Friendships:   repositories.NewPostgresFriendshipRepository(db.Postgres),
		Notifications: repositories.NewPostgresNotificationRepository(db.Postgres),
		DeviceTokens:  repositories.NewPostgresDeviceTokenRepository(db.Postgres),
		Places:        places,
		Comments:      repositories.NewPostgresCommentRepository(db.Postgres),
	}, nil
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, d Deps) {
	cfg, logger := d.Config, d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if d.Hub == nil {
		d.Hub = realtime.NewHub(logger, nil)
	}

	metrics.Register()
	e.Use(middleware.MonitorMiddleware())
	if d.RateLimiter != nil {
		e.Use(d.RateLimiter.Middleware())
	}

	if d.Health != nil {
		e.GET("/health", handlers.HealthCheck(d.Health))
	}
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), middleware.MetricsBasicAuth(cfg.MetricsUser, cfg.MetricsPass))

	// --- Notification collaborator ---
	notifiers := []notify.Notifier{notify.NewInboxNotifier(d.Repos.Notifications)}
	if d.Firebase != nil && d.Firebase.Messaging != nil {
		notifiers = append(notifiers, notify.NewPushNotifier(d.Firebase.Messaging, d.Repos.DeviceTokens, logger))
	}

	// --- Services ---
	friendships := services.NewFriendshipService(d.Repos.Friendships, d.Repos.Users,
		services.WithNotifier(notify.NewFanout(logger, notifiers...)),
		services.WithChangeFeed(d.Hub),
		services.WithLogger(logger.Named("friendships")),
		services.WithSearchLimit(cfg.SearchLimit),
		services.WithNotifyTimeout(cfg.NotifyTimeout),
	)
	places := services.NewPlaceService(d.Repos.Places, friendships, d.Hub, logger.Named("places"))
	comments := services.NewCommentService(d.Repos.Comments, places, logger.Named("comments"))

	// --- Unprotected routes for authentication ---
	var verifier handlers.IDTokenVerifier
	if d.Firebase != nil && d.Firebase.AuthClient != nil {
		verifier = d.Firebase.AuthClient
	}
	authGroup := e.Group("/api/v1/auth")
	handlers.NewAuthHandler(d.Repos.Users, verifier, cfg.JWTSecret, cfg.JWTExpiry, logger.Named("auth")).RegisterAuthRoutes(authGroup)

	// --- Protected routes ---
	api := e.Group("/api/v1")
	if cfg.AuthProvider == config.AuthProviderFirebase && d.Firebase != nil {
		api.Use(middleware.FirebaseAuthMiddleware(d.Firebase.AuthClient, d.Repos.Users))
		logger.Info("firebase authentication applied to /api/v1")
	} else {
		api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
		logger.Info("jwt authentication applied to /api/v1")
	}
	api.Use(eMiddleware.ContextTimeoutWithConfig(eMiddleware.ContextTimeoutConfig{
		Skipper: func(c echo.Context) bool { return c.Path() == wsPath },
		Timeout: requestTimeout(cfg),
	}))

	handlers.NewUserHandler(d.Repos.Users).RegisterProfileRoutes(api)
	handlers.NewFriendshipHandler(friendships, d.Repos.Users).RegisterFriendshipRoutes(api)
	handlers.NewPlaceHandler(places).RegisterPlaceRoutes(api)
	handlers.NewCommentHandler(comments, d.Repos.Users).RegisterCommentRoutes(api)
	handlers.NewNotificationHandler(d.Repos.Notifications, d.Repos.DeviceTokens, d.Repos.Users).RegisterNotificationRoutes(api)
	handlers.NewRealtimeHandler(d.Hub).RegisterRealtimeRoutes(api)

	logger.Info("routes configured", zap.Int("count", len(e.Routes())))
}

func requestTimeout(cfg *config.Config) time.Duration {
	if cfg.RequestTimeout > 0 {
		return cfg.RequestTimeout
	}
	return 5 * time.Second
}
