package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/conflearn/backend/config"
	"github.com/conflearn/backend/internal/admin"
	"github.com/conflearn/backend/internal/auth"
	"github.com/conflearn/backend/internal/enrollments"
	"github.com/conflearn/backend/internal/events"
	"github.com/conflearn/backend/internal/middleware"
	"github.com/conflearn/backend/internal/models"
	"github.com/conflearn/backend/internal/payments"
	"github.com/conflearn/backend/internal/sessions"
	"github.com/conflearn/backend/internal/speakers"
	"github.com/conflearn/backend/internal/topics"
	"github.com/conflearn/backend/internal/worker"
	"github.com/conflearn/backend/pkg/database"
	"github.com/conflearn/backend/pkg/mailer"
	"github.com/conflearn/backend/pkg/queue"
	"github.com/conflearn/backend/pkg/redis"
	"github.com/conflearn/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config load failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrations failed", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis connection failed", zap.Error(err))
	}
	defer rdb.Close()

	var uploader *storage.S3
	if cfg.AWS.Region != "" {
		uploader, err = storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			MediaBucket:     cfg.AWS.MediaBucket,
		}, logger)
		if err != nil {
			logger.Fatal("s3 client failed", zap.Error(err))
		}
	} else {
		logger.Warn("AWS_REGION not set, media uploads disabled")
	}

	mail := mailer.New(cfg.Email, logger)
	jobs := queue.NewQueue(rdb.Client, logger)
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.UserExpireHours, cfg.JWT.AdminExpireHours)

	userRepo := auth.NewRepository(pool)
	userResolver := auth.NewResolver(userRepo, rdb.Client, cfg.Auth.CacheTTLSec, logger)
	adminRepo := admin.NewRepository(pool)
	eventRepo := events.NewRepository(pool)
	sessionRepo := sessions.NewRepository(pool)
	speakerRepo := speakers.NewRepository(pool)
	topicRepo := topics.NewRepository(pool)
	enrollmentRepo := enrollments.NewRepository(pool)
	paymentRepo := payments.NewRepository(pool)

	enrollmentService := enrollments.NewService(enrollmentRepo, eventRepo, jobs, logger)

	authHandler := auth.NewHandler(userRepo, userResolver, jwtService, mail, wrapUploader(uploader), cfg.Server.BaseURL, logger)
	adminHandler := admin.NewHandler(adminRepo, userRepo, userResolver, jwtService, logger)
	eventHandler := events.NewHandler(eventRepo, sessionRepo, topicRepo, enrollmentService, wrapUploader(uploader), logger)
	sessionHandler := sessions.NewHandler(sessionRepo, logger)
	speakerHandler := speakers.NewHandler(speakerRepo, wrapUploader(uploader), logger)
	topicHandler := topics.NewHandler(topicRepo, topicRepo, enrollmentService, events.ParseDuration, logger)
	enrollmentHandler := enrollments.NewHandler(enrollmentService, enrollmentRepo, logger)
	paymentHandler := payments.NewHandler(paymentRepo, logger)

	router := newRouter(cfg, logger)
	registerRoutes(router, jwtService, userResolver, adminRepo,
		authHandler, adminHandler, eventHandler, sessionHandler,
		speakerHandler, topicHandler, enrollmentHandler, paymentHandler)

	// In-process email worker; cmd/worker runs the same processor standalone.
	processor := worker.NewEmailProcessor(jobs, mail, logger)
	go processor.Run(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", zap.Error(err))
	}
}

func newRouter(cfg *config.Config, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	corsCfg := cors.DefaultConfig()
	if len(cfg.Server.CORSAllowedOrigins) > 0 {
		corsCfg.AllowOrigins = cfg.Server.CORSAllowedOrigins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, "Authorization")
	router.Use(cors.New(corsCfg))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return router
}

func registerRoutes(
	router *gin.Engine,
	jwtService *auth.JWTService,
	users middleware.UserResolver,
	admins middleware.AdminResolver,
	authHandler *auth.Handler,
	adminHandler *admin.Handler,
	eventHandler *events.Handler,
	sessionHandler *sessions.Handler,
	speakerHandler *speakers.Handler,
	topicHandler *topics.Handler,
	enrollmentHandler *enrollments.Handler,
	paymentHandler *payments.Handler,
) {
	api := router.Group("/api")
	requireUser := middleware.RequireUser(jwtService, users)
	optionalUser := middleware.OptionalUser(jwtService, users)
	requireAdmin := middleware.RequireAdmin(jwtService, admins)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/login", authHandler.Login)
		authGroup.POST("/forgot-password", authHandler.ForgotPassword)
		authGroup.POST("/reset-password/:token", authHandler.ResetPassword)
		authGroup.GET("/me", requireUser, authHandler.Me)
		authGroup.PUT("/me", requireUser, authHandler.UpdateMe)
	}

	adminGroup := api.Group("/admin")
	{
		adminGroup.POST("/login", adminHandler.Login)
		adminGroup.GET("/me", requireAdmin, adminHandler.Me)
		adminGroup.GET("/users", requireAdmin, adminHandler.ListUsers)
		adminGroup.GET("/users/:id", requireAdmin, adminHandler.GetUser)
		adminGroup.PUT("/users/:id", requireAdmin, adminHandler.UpdateUser)
		adminGroup.DELETE("/users/:id", requireAdmin, adminHandler.DeleteUser)
	}

	eventGroup := api.Group("/events")
	{
		eventAdmin := eventGroup.Group("/admin", requireAdmin)
		{
			eventAdmin.POST("", eventHandler.Create)
			eventAdmin.GET("", eventHandler.AdminList)
			eventAdmin.GET("/:id/stats", eventHandler.Stats)
			eventAdmin.PUT("/:id", eventHandler.Update)
			eventAdmin.DELETE("/:id", eventHandler.Delete)
		}
		eventPublic := eventGroup.Group("/public")
		{
			eventPublic.GET("", eventHandler.PublicList(""))
			eventPublic.GET("/free", eventHandler.PublicList(models.RegTypeFree))
			eventPublic.GET("/paid", eventHandler.PublicList(models.RegTypePaid))
			eventPublic.GET("/details/:id", optionalUser, eventHandler.Details)
		}
		eventGroup.GET("/registered", requireUser, eventHandler.Registered)
	}

	sessionGroup := api.Group("/sessions")
	{
		sessionGroup.POST("/admin", requireAdmin, sessionHandler.Create)
		sessionGroup.PUT("/admin/:id", requireAdmin, sessionHandler.Update)
		sessionGroup.DELETE("/admin/:id", requireAdmin, sessionHandler.Delete)
		sessionGroup.GET("/event/:eventId", sessionHandler.ListByEvent)
		sessionGroup.GET("/:id", sessionHandler.Get)
	}

	speakerGroup := api.Group("/speakers")
	{
		speakerGroup.POST("/admin", requireAdmin, speakerHandler.Create)
		speakerGroup.PUT("/admin/:id", requireAdmin, speakerHandler.Update)
		speakerGroup.DELETE("/admin/:id", requireAdmin, speakerHandler.Delete)
		speakerGroup.GET("", speakerHandler.List)
		speakerGroup.GET("/:id", speakerHandler.Get)
	}

	topicGroup := api.Group("/topics")
	{
		topicAdmin := topicGroup.Group("/admin", requireAdmin)
		{
			topicAdmin.POST("", topicHandler.Create)
			topicAdmin.GET("/all", topicHandler.AdminListAll)
			topicAdmin.GET("/session/:sessionId", topicHandler.AdminListBySession)
			topicAdmin.GET("/event/:eventId", topicHandler.AdminListByEvent)
			topicAdmin.GET("/:id", topicHandler.AdminGet)
			topicAdmin.PUT("/:id", topicHandler.Update)
			topicAdmin.DELETE("/:id", topicHandler.Delete)
		}
		topicGroup.GET("/event/:eventId", optionalUser, topicHandler.ListByEvent)
		topicGroup.GET("/event/:eventId/session/:sessionId", optionalUser, topicHandler.ListBySession)
	}

	enrollmentGroup := api.Group("/enrollments")
	{
		enrollmentGroup.POST("/register/free", requireUser, enrollmentHandler.RegisterFree)
		enrollmentGroup.POST("/register/paid", requireUser, enrollmentHandler.RegisterPaid)
		enrollmentGroup.GET("/my", requireUser, enrollmentHandler.ListMine)
		enrollmentGroup.GET("/admin", requireAdmin, enrollmentHandler.AdminList)
		enrollmentGroup.PUT("/admin/:id", requireAdmin, enrollmentHandler.AdminUpdate)
	}

	paymentGroup := api.Group("/payments")
	{
		paymentGroup.GET("/my-payments", requireUser, paymentHandler.ListMine)
		paymentGroup.GET("/admin", requireAdmin, paymentHandler.AdminList)
		paymentGroup.GET("/admin/:id", requireAdmin, paymentHandler.AdminGet)
		paymentGroup.PUT("/admin/:id", requireAdmin, paymentHandler.AdminUpdate)
		paymentGroup.DELETE("/admin/:id", requireAdmin, paymentHandler.AdminDelete)
	}
}

// wrapUploader adapts the concrete S3 client to the handler interfaces
// while keeping a typed nil from leaking into a non-nil interface.
func wrapUploader(s *storage.S3) auth.Uploader {
	if s == nil {
		return nil
	}
	return s
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}
