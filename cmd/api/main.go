package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	"taskpay/internal/app"
	"taskpay/internal/config"
	"taskpay/internal/database"
	apphttp "taskpay/internal/http"
	"taskpay/internal/http/handlers"
	httpmw "taskpay/internal/http/middleware"
	"taskpay/internal/observability"
	"taskpay/internal/repository/postgres"
	"taskpay/internal/security"
	"taskpay/internal/storage"
)

func main() {
	cfg := config.Load()
	logger := observability.NewLogger()
	db := database.NewPostgres(database.PostgresConfig{
		DSN:             cfg.PostgresDSN,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxIdle:     cfg.DBConnMaxIdle,
		ConnMaxLifetime: cfg.DBConnMaxLife,
	})
	defer db.Close()

	if err := database.ApplyMigrations(db); err != nil {
		log.Fatalf("failed to apply migrations: %v", err)
	}

	fileStore, err := storage.NewDiskStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("failed to init upload dir: %v", err)
	}

	userRepo := postgres.NewUserRepository(db)
	refreshRepo := postgres.NewRefreshTokenRepository(db)
	profileRepo := postgres.NewProfileRepository(db)
	taskRepo := postgres.NewTaskRepository(db)
	applicationRepo := postgres.NewApplicationRepository(db)
	attachmentRepo := postgres.NewAttachmentRepository(db)
	lookupRepo := postgres.NewLookupRepository(db)

	jwtProvider := security.NewJWTProvider(cfg.JWTSecret)

	authService := app.NewAuthService(userRepo, refreshRepo, jwtProvider, logger, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	userService := app.NewUserService(userRepo)
	profileService := app.NewProfileService(profileRepo, logger)
	taskService := app.NewTaskService(taskRepo, applicationRepo, logger, cfg.HireAutoReject)
	applicationService := app.NewApplicationService(applicationRepo, taskRepo, userRepo, logger)
	attachmentService := app.NewAttachmentService(attachmentRepo, fileStore, logger, cfg.MaxResumeBytes)
	lookupService := app.NewLookupService(lookupRepo)

	// Redis backs the rate limiter when configured; otherwise the in-process
	// fallback keeps single-node deployments covered.
	var rateLimiter httpmw.Limiter = httpmw.NewRateLimiter()
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatalf("invalid REDIS_URL: %v", err)
		}
		rateLimiter = httpmw.NewRedisLimiter(redis.NewClient(opts))
	}

	authHandler := handlers.NewAuthHandler(authService, rateLimiter)
	userHandler := handlers.NewUserHandler(userService)
	profileHandler := handlers.NewProfileHandler(profileService)
	taskHandler := handlers.NewTaskHandler(taskService)
	applicationHandler := handlers.NewApplicationHandler(applicationService, rateLimiter)
	attachmentHandler := handlers.NewAttachmentHandler(attachmentService, cfg.MaxResumeBytes)
	adminHandler := handlers.NewAdminHandler(profileService)
	lookupHandler := handlers.NewLookupHandler(lookupService)
	authMiddleware := httpmw.NewAuthMiddleware(jwtProvider)
	roleGuard := httpmw.NewRoleGuard(userRepo)

	router := apphttp.NewRouter(apphttp.RouterDependencies{
		AuthHandler:        authHandler,
		UserHandler:        userHandler,
		ProfileHandler:     profileHandler,
		TaskHandler:        taskHandler,
		ApplicationHandler: applicationHandler,
		AttachmentHandler:  attachmentHandler,
		AdminHandler:       adminHandler,
		LookupHandler:      lookupHandler,
		AuthMiddleware:     authMiddleware,
		RoleGuard:          roleGuard,
		AuthGuard:          httpmw.NewIPGuard(5, 10),
		RequestTimeout:     cfg.RequestTimeout,
		MaxBodyBytes:       cfg.MaxResumeBytes + 1<<20,
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: true,
	}).Handler(router)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      corsHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("API started on :" + cfg.HTTPPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal(err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal(err)
	}
}
