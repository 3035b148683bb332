package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/site-cms/internal/api/http"
	"github.com/spec-kit/site-cms/internal/api/http/handlers"
	"github.com/spec-kit/site-cms/internal/auth"
	"github.com/spec-kit/site-cms/internal/config"
	"github.com/spec-kit/site-cms/internal/events"
	"github.com/spec-kit/site-cms/internal/mail"
	"github.com/spec-kit/site-cms/internal/observability"
	"github.com/spec-kit/site-cms/internal/persistence"
	"github.com/spec-kit/site-cms/internal/repository"
	"github.com/spec-kit/site-cms/internal/service"
	"github.com/spec-kit/site-cms/internal/storage"
	"github.com/spec-kit/site-cms/internal/worker"
	apperrors "github.com/spec-kit/site-cms/pkg/util/errorutil"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	contactRepo := repository.NewContactRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()

	renderer, err := mail.NewRenderer()
	if err != nil {
		logger.Fatal("failed to parse email templates", zap.Error(err))
	}
	notifications := service.NewNotificationService(mail.New(cfg.Mail, logger), renderer, cfg.Mail, cfg.App.Name, logger)
	notificationWorker := worker.StartNotificationWorker(dispatcher, notifications, worker.Config{}, logger)

	s3Client, err := storage.NewS3Client(ctx, cfg.Storage)
	if err != nil {
		logger.Fatal("failed to configure object storage", zap.Error(err))
	}
	images := storage.NewImageStore(s3Client, cfg.Storage)

	throttle := auth.NewLoginThrottle(redis.Client, cfg.Auth.LoginMaxAttempts, cfg.Auth.LoginLockout(), logger)
	authService := service.NewAuthService(cfg.Auth, service.AuthDependencies{
		UserRepo:          userRepo,
		PasswordResetRepo: resetRepo,
		Throttle:          throttle,
		Dispatcher:        dispatcher,
		Logger:            logger,
	})
	userService := service.NewUserService(userRepo, dispatcher, cfg.Auth.BcryptCost, logger)
	projectService := service.NewProjectService(projectRepo)
	contactService := service.NewContactService(contactRepo, dispatcher, logger)

	if cfg.Auth.AdminEmail != "" && cfg.Auth.AdminPassword != "" {
		created, err := authService.EnsureAdmin(ctx, cfg.Auth.AdminEmail, cfg.Auth.AdminPassword, cfg.Auth.AdminName)
		if err != nil {
			logger.Fatal("failed to seed admin", zap.Error(err))
		}
		if created {
			logger.Info("seeded admin account", zap.String("email", cfg.Auth.AdminEmail))
		}
	}

	metrics := observability.NewMetrics()
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	session := auth.NewSessionResponder(tokens, auth.SessionConfig{
		CookieName: cfg.Auth.CookieName,
		CookieTTL:  cfg.Auth.CookieTTL(),
		Secure:     cfg.App.IsProduction(),
	})
	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo, auth.MiddlewareConfig{
		CookieName:    cfg.Auth.CookieName,
		LookupTimeout: cfg.Auth.DirectoryTimeout(),
		Observer:      metrics,
	}, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimitBytes,
		ErrorHandler: apperrors.WriteError,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, httptransport.MiddlewareConfig{
		Timeout:     cfg.App.RequestTimeout(),
		CORSOrigins: cfg.App.CORSOrigins,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redis,
		}),
		Auth:           handlers.NewAuthHandler(authService, session),
		Users:          handlers.NewUsersHandler(userService),
		Projects:       handlers.NewProjectsHandler(projectService),
		Contacts:       handlers.NewContactsHandler(contactService),
		Uploads:        handlers.NewUploadsHandler(images),
		AuthMiddleware: authMiddleware,
		ContactLimiter: httptransport.NewIPRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst),
		LoginLimiter:   httptransport.NewIPRateLimiter(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst),
		Metrics:        metrics,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Warn("http shutdown", zap.Error(err))
	}
	if err := notificationWorker.Stop(shutdownCtx); err != nil {
		logger.Warn("notification worker shutdown", zap.Error(err))
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
